package refresh

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-quiz-session/credentials"
	"github.com/jrsteele09/go-quiz-session/internal/utils"
)

var _ Refresher = (*HTTPRefresher)(nil)

// HTTPRefresher calls the backend refresh endpoint directly. Its client must
// be a plain one; using the request pipeline here would recurse into the
// coordinator.
type HTTPRefresher struct {
	url        string
	httpClient *http.Client
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type refreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

func NewHTTPRefresher(url string, httpClient *http.Client) *HTTPRefresher {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &HTTPRefresher{
		url:        url,
		httpClient: httpClient,
	}
}

// Refresh posts the refresh credential. Any non-2xx status is a rejection;
// network failures, timeouts and unusable bodies are transport failures.
func (r *HTTPRefresher) Refresh(ctx context.Context, refreshToken string) (credentials.Pair, error) {
	encoded, err := json.Marshal(refreshRequest{Refresh: refreshToken})
	if err != nil {
		return credentials.Pair{}, fmt.Errorf("%w: %v", ErrRefreshTransport, err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(encoded))
	if err != nil {
		return credentials.Pair{}, fmt.Errorf("%w: %v", ErrRefreshTransport, err)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := r.httpClient.Do(request)
	if err != nil {
		return credentials.Pair{}, fmt.Errorf("%w: %v", ErrRefreshTransport, err)
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, response.Body)
		return credentials.Pair{}, fmt.Errorf("%w: status %d", ErrRefreshRejected, response.StatusCode)
	}

	var payload refreshResponse
	if err := json.NewDecoder(response.Body).Decode(&payload); err != nil {
		return credentials.Pair{}, fmt.Errorf("%w: decode response: %v", ErrRefreshTransport, err)
	}
	if strings.TrimSpace(payload.Access) == "" {
		return credentials.Pair{}, fmt.Errorf("%w: response has no access credential", ErrRefreshTransport)
	}

	return credentials.Pair{
		Access:  payload.Access,
		Refresh: utils.NonEmpty(payload.Refresh),
	}, nil
}
