package pipeline

import (
	"context"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/jrsteele09/go-quiz-session/internal/errors"
	"github.com/rs/zerolog/log"
)

var ErrRequestAuthRejected = apperrors.ErrRequestAuthRejected

// CredentialStore is the part of the credential store the pipeline reads
type CredentialStore interface {
	Get() (string, bool)
	Clear()
}

type ExpiryChecker interface {
	IsExpired() bool
}

// Refresher obtains a fresh access credential, sharing an in-flight refresh
// with other callers.
type Refresher interface {
	Refresh(ctx context.Context) (string, error)
}

var _ http.RoundTripper = (*Transport)(nil)

// Transport attaches the bearer credential to protected requests, refreshes
// it before sending when it is known to be stale, and retries a request once
// after a 401.
type Transport struct {
	base      http.RoundTripper
	store     CredentialStore
	inspector ExpiryChecker
	refresher Refresher
	exempt    []string
}

type TransportOption func(*Transport)

// WithBase sets the transport that performs the actual exchange
func WithBase(base http.RoundTripper) TransportOption {
	return func(t *Transport) {
		t.base = base
	}
}

// WithExemptPaths lists URL path suffixes that never trigger a refresh, such
// as the login and refresh endpoints themselves. Exempt requests are sent
// untouched.
func WithExemptPaths(paths ...string) TransportOption {
	return func(t *Transport) {
		t.exempt = append(t.exempt, paths...)
	}
}

func NewTransport(store CredentialStore, inspector ExpiryChecker, refresher Refresher, options ...TransportOption) *Transport {
	t := &Transport{
		store:     store,
		inspector: inspector,
		refresher: refresher,
	}
	for _, opt := range options {
		opt(t)
	}
	if t.base == nil {
		t.base = http.DefaultTransport
	}
	return t
}

type retryKey struct{}

func markRetried(ctx context.Context) context.Context {
	return context.WithValue(ctx, retryKey{}, true)
}

// IsRetry reports whether ctx belongs to a request the pipeline already resent
func IsRetry(ctx context.Context) bool {
	retried, _ := ctx.Value(retryKey{}).(bool)
	return retried
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.isExempt(req.URL.Path) {
		return t.base.RoundTrip(req)
	}

	ctx := req.Context()
	retried := IsRetry(ctx)

	if !retried && t.inspector.IsExpired() {
		log.Debug().Str("method", req.Method).Str("path", req.URL.Path).Msg("access credential stale, refreshing before send")
		if _, err := t.refresher.Refresh(ctx); err != nil {
			closeBody(req)
			return nil, newAuthError(req, err)
		}
	}

	access, _ := t.store.Get()
	resp, err := t.base.RoundTrip(withBearer(ctx, req, access))
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	if retried {
		return t.reject(req, resp)
	}
	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		log.Debug().Str("method", req.Method).Str("path", req.URL.Path).Msg("401 on a request that cannot be replayed")
		return resp, nil
	}
	drain(resp)

	next, ok := t.store.Get()
	if !ok || next == access {
		if next, err = t.refresher.Refresh(ctx); err != nil {
			return nil, newAuthError(req, err)
		}
	} else {
		log.Debug().Str("path", req.URL.Path).Msg("access credential already replaced, reusing it")
	}

	retry, err := replay(markRetried(ctx), req, next)
	if err != nil {
		return nil, err
	}
	resp, err = t.base.RoundTrip(retry)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}
	return t.reject(req, resp)
}

// reject ends the session after a retried request is refused again
func (t *Transport) reject(req *http.Request, resp *http.Response) (*http.Response, error) {
	drain(resp)
	t.store.Clear()
	log.Warn().Str("method", req.Method).Str("path", req.URL.Path).Msg("request rejected after refresh, credentials cleared")
	return nil, newAuthError(req, ErrRequestAuthRejected)
}

func (t *Transport) isExempt(path string) bool {
	for _, exempt := range t.exempt {
		if strings.HasSuffix(path, exempt) {
			return true
		}
	}
	return false
}

func withBearer(ctx context.Context, req *http.Request, access string) *http.Request {
	clone := req.Clone(ctx)
	if access != "" {
		clone.Header.Set("Authorization", "Bearer "+access)
	}
	return clone
}

func replay(ctx context.Context, req *http.Request, access string) (*http.Request, error) {
	retry := withBearer(ctx, req, access)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		retry.Body = body
	}
	return retry, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

func closeBody(req *http.Request) {
	if req.Body != nil {
		_ = req.Body.Close()
	}
}
