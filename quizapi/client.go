package quizapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"slices"
	"strings"

	"github.com/jrsteele09/go-quiz-session/internal/config"
	apperrors "github.com/jrsteele09/go-quiz-session/internal/errors"
	"github.com/jrsteele09/go-quiz-session/pipeline"
)

var (
	ErrNotAuthenticated   = apperrors.ErrNotAuthenticated
	ErrServiceUnavailable = apperrors.ErrServiceUnavailable
	ErrInvalidResponse    = apperrors.ErrInvalidResponse
)

// APIError is a non-2xx answer from the backend. Message carries the
// backend's own explanation when it gave one.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return e.Message
}

// CredentialStore is where logins put the issued pair
type CredentialStore interface {
	Get() (string, bool)
	GetRefresh() (string, bool)
	Save(access string, refresh *string)
	Clear()
}

// Client is a typed client for the quiz REST API. Protected calls go through
// the authenticated HTTP client; quiz browsing uses the public one.
type Client struct {
	baseURL string
	api     *http.Client
	public  *http.Client
	store   CredentialStore
	paths   config.EndpointConfig
}

type ClientOption func(*Client)

// WithPublicClient sets the client used for endpoints that need no credentials
func WithPublicClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.public = httpClient
	}
}

func WithEndpoints(paths config.EndpointConfig) ClientOption {
	return func(c *Client) {
		c.paths = paths
	}
}

// NewClient builds a client. api should be backed by a pipeline.Transport.
func NewClient(baseURL string, api *http.Client, store CredentialStore, options ...ClientOption) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if api == nil {
		api = http.DefaultClient
	}
	c := &Client{
		baseURL: baseURL,
		api:     api,
		store:   store,
		paths:   config.Endpoints{},
	}
	for _, opt := range options {
		opt(c)
	}
	if c.public == nil {
		c.public = api
	}
	return c
}

type errorResponse struct {
	Detail  string `json:"detail"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

type call struct {
	client  *http.Client
	method  string
	path    string
	body    any
	headers http.Header
}

func (c *Client) doJSON(ctx context.Context, req call, responseBody any) error {
	fullURL := c.baseURL + req.path

	var body io.Reader
	if req.body != nil {
		encoded, err := json.Marshal(req.body)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, req.method, fullURL, body)
	if err != nil {
		return err
	}
	if req.body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	request.Header.Set("Accept", "application/json")
	for name, values := range req.headers {
		for _, v := range values {
			request.Header.Add(name, v)
		}
	}

	response, err := req.client.Do(request)
	if err != nil {
		var authErr *pipeline.AuthError
		if apperrors.As(err, &authErr) {
			return fmt.Errorf("%w: %w", ErrNotAuthenticated, authErr)
		}
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return decodeAPIError(response)
	}

	if responseBody == nil {
		_, _ = io.Copy(io.Discard, response.Body)
		return nil
	}
	if err := json.NewDecoder(response.Body).Decode(responseBody); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

// protected runs a call that needs a session, reporting any authentication
// failure as ErrNotAuthenticated.
func (c *Client) protected(ctx context.Context, req call, responseBody any) error {
	req.client = c.api
	err := c.doJSON(ctx, req, responseBody)
	var apiErr *APIError
	if apperrors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: %w", ErrNotAuthenticated, apiErr)
	}
	return err
}

func decodeAPIError(response *http.Response) error {
	apiErr := &APIError{StatusCode: response.StatusCode}
	raw, _ := io.ReadAll(response.Body)

	var payload errorResponse
	if err := json.Unmarshal(raw, &payload); err == nil {
		for _, msg := range []string{payload.Detail, payload.Error, payload.Message} {
			if strings.TrimSpace(msg) != "" {
				apiErr.Message = msg
				break
			}
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = firstFieldError(raw)
	}
	if apiErr.Message == "" {
		apiErr.Message = response.Status
	}
	return apiErr
}

// firstFieldError picks the first message out of a validation error body
// such as {"username": ["That username is already taken."]}.
func firstFieldError(raw []byte) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return ""
	}
	for _, name := range slices.Sorted(maps.Keys(fields)) {
		value := fields[name]
		var messages []string
		if err := json.Unmarshal(value, &messages); err == nil && len(messages) > 0 {
			return messages[0]
		}
		var message string
		if err := json.Unmarshal(value, &message); err == nil && message != "" {
			return message
		}
	}
	return ""
}
