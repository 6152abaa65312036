package pipeline

import (
	"context"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// NewRetryingTransport retries GET and HEAD requests on connection errors and
// 5xx responses. Other methods are sent once. A 401 is never retried here;
// recovering from it is the pipeline's job.
func NewRetryingTransport(retryMax int, next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}

	client := retryablehttp.NewClient()
	client.RetryMax = retryMax
	client.RetryWaitMin = 50 * time.Millisecond
	client.RetryWaitMax = time.Second
	client.HTTPClient.Transport = next
	client.CheckRetry = checkRetry
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.Logger = retryLogger{}

	return &idempotentRouter{
		retrying: &retryablehttp.RoundTripper{Client: client},
		once:     next,
	}
}

func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if resp != nil && resp.StatusCode == http.StatusUnauthorized {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

type idempotentRouter struct {
	retrying http.RoundTripper
	once     http.RoundTripper
}

func (r *idempotentRouter) RoundTrip(req *http.Request) (*http.Response, error) {
	switch req.Method {
	case http.MethodGet, http.MethodHead:
		return r.retrying.RoundTrip(req)
	default:
		return r.once.RoundTrip(req)
	}
}

// retryLogger sends retryablehttp's logging to zerolog
type retryLogger struct{}

var _ retryablehttp.LeveledLogger = retryLogger{}

func (retryLogger) Error(msg string, keysAndValues ...interface{}) {
	emit(log.Error(), msg, keysAndValues)
}

func (retryLogger) Info(msg string, keysAndValues ...interface{}) {
	emit(log.Debug(), msg, keysAndValues)
}

func (retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	emit(log.Trace(), msg, keysAndValues)
}

func (retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	emit(log.Warn(), msg, keysAndValues)
}

func emit(event *zerolog.Event, msg string, keysAndValues []interface{}) {
	event.Fields(keysAndValues).Str("component", "retryablehttp").Msg(msg)
}
