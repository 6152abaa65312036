// Package backendfake is an in-process stand-in for the quiz REST API. It
// issues real HS256 JWTs, rotates refresh credentials and counts calls, so
// client code can be exercised end to end without the real service.
package backendfake

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jrsteele09/go-quiz-session/quizapi"
	"github.com/rs/zerolog/log"
)

// APIPrefix is where the API is mounted, matching the real deployment
const APIPrefix = "/api"

type Backend struct {
	server *httptest.Server
	mux    *http.ServeMux
	routes []string

	signer   *HMACSigner
	issuer   string
	nowFunc  func() time.Time
	tokens   *refreshRepo
	accounts *accountRepo

	accessTTL    time.Duration
	rotate       bool
	refreshDelay time.Duration

	rejectRefresh atomic.Bool
	rejectAll     atomic.Bool
	generation    atomic.Int64

	mu      sync.Mutex
	quizzes []quizapi.Quiz
	results []storedResult
	calls   map[string]int
}

type Option func(*Backend)

// WithAccessTTL sets the lifetime of issued access credentials
func WithAccessTTL(ttl time.Duration) Option {
	return func(b *Backend) {
		b.accessTTL = ttl
	}
}

// WithoutRotation makes the refresh endpoint return only a new access credential
func WithoutRotation() Option {
	return func(b *Backend) {
		b.rotate = false
	}
}

// WithRefreshDelay holds every refresh response for d
func WithRefreshDelay(d time.Duration) Option {
	return func(b *Backend) {
		b.refreshDelay = d
	}
}

func WithNowFunc(now func() time.Time) Option {
	return func(b *Backend) {
		b.nowFunc = now
	}
}

// WithUser seeds an account that can log in with a password
func WithUser(username, password string) Option {
	return func(b *Backend) {
		b.accounts.add(username, password, username+"@example.com", "local")
	}
}

// WithGoogleAccount accepts idToken at the google login endpoint for email
func WithGoogleAccount(idToken, email string) Option {
	return func(b *Backend) {
		b.accounts.addGoogle(idToken, email)
	}
}

func WithQuizzes(quizzes ...quizapi.Quiz) Option {
	return func(b *Backend) {
		b.quizzes = append(b.quizzes, quizzes...)
	}
}

// Start serves a new fake backend until Close is called
func Start(options ...Option) *Backend {
	b := &Backend{
		mux:       http.NewServeMux(),
		signer:    NewHMACSigner([]byte("backendfake-signing-key")),
		issuer:    "backendfake",
		nowFunc:   time.Now,
		tokens:    newRefreshRepo(),
		accounts:  newAccountRepo(),
		accessTTL: 5 * time.Minute,
		rotate:    true,
		calls:     make(map[string]int),
	}
	for _, opt := range options {
		opt(b)
	}
	if len(b.quizzes) == 0 {
		b.quizzes = DefaultQuizzes()
	}

	b.initRoutes()
	b.server = httptest.NewServer(b)
	log.Debug().Str("url", b.server.URL).Strs("routes", b.routes).Msg("fake quiz backend started")
	return b
}

func (b *Backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mux.ServeHTTP(w, r)
}

func (b *Backend) Close() {
	b.server.Close()
}

// BaseURL is the API root clients should be configured with
func (b *Backend) BaseURL() string {
	return b.server.URL + APIPrefix
}

// URL joins path onto the API root
func (b *Backend) URL(path string) string {
	return b.BaseURL() + "/" + strings.TrimPrefix(path, "/")
}

func (b *Backend) Client() *http.Client {
	return b.server.Client()
}

// Calls returns how many requests reached the route registered for pattern,
// e.g. "POST /token/refresh/".
func (b *Backend) Calls(pattern string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[pattern]
}

func (b *Backend) RefreshCalls() int {
	return b.Calls("POST /token/refresh/")
}

// RejectRefresh makes the refresh endpoint answer 401 until turned off
func (b *Backend) RejectRefresh(reject bool) {
	b.rejectRefresh.Store(reject)
}

// RejectAll makes every protected endpoint answer 401, even for fresh credentials
func (b *Backend) RejectAll(reject bool) {
	b.rejectAll.Store(reject)
}

// RevokeAccess invalidates every access credential issued so far. Refresh
// credentials stay valid.
func (b *Backend) RevokeAccess() {
	b.generation.Add(1)
}

// IssueAccess mints an access credential for username expiring at exp,
// bypassing the login endpoint.
func (b *Backend) IssueAccess(username string, exp time.Time) (string, error) {
	account, ok := b.accounts.byUsername(username)
	if !ok {
		return "", fmt.Errorf("unknown user %q", username)
	}
	return b.createAccessToken(account, exp)
}

// IssueRefresh stores and returns a refresh credential for username
func (b *Backend) IssueRefresh(username string) (string, error) {
	account, ok := b.accounts.byUsername(username)
	if !ok {
		return "", fmt.Errorf("unknown user %q", username)
	}
	return b.createRefreshToken(account)
}

func (b *Backend) count(pattern string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls[pattern]++
}
