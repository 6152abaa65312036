// Package session assembles the credential store, refresh coordinator,
// request pipeline and API client of one application tab.
package session

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-quiz-session/broadcast"
	"github.com/jrsteele09/go-quiz-session/credentials"
	"github.com/jrsteele09/go-quiz-session/internal/config"
	"github.com/jrsteele09/go-quiz-session/pipeline"
	"github.com/jrsteele09/go-quiz-session/quizapi"
	"github.com/jrsteele09/go-quiz-session/sessionsync"
	"github.com/jrsteele09/go-quiz-session/token"
	"github.com/jrsteele09/go-quiz-session/token/refresh"
	"github.com/rs/zerolog/log"
)

// Platform is what the host environment provides. Tabs of one process share
// the Repo and the Bus. Bus and Navigator may be nil, which disables
// cross-tab sync.
type Platform struct {
	Repo      credentials.Repo
	Bus       *broadcast.Bus
	Navigator sessionsync.Navigator
}

type Session struct {
	store       *credentials.Store
	inspector   *token.Inspector
	coordinator *refresh.Coordinator
	httpClient  *http.Client
	api         *quizapi.Client
	sync        *sessionsync.Sync
}

type options struct {
	tabID   string
	base    http.RoundTripper
	baseURL string
}

type Option func(*options)

// WithTabID fixes the id change events from this session carry
func WithTabID(id string) Option {
	return func(o *options) {
		o.tabID = id
	}
}

// WithBaseTransport sets the transport every request finally goes through
func WithBaseTransport(base http.RoundTripper) Option {
	return func(o *options) {
		o.base = base
	}
}

// WithBaseURL overrides the configured API root
func WithBaseURL(url string) Option {
	return func(o *options) {
		o.baseURL = url
	}
}

func New(cfg config.Config, platform Platform, opts ...Option) *Session {
	o := options{
		base:    http.DefaultTransport,
		baseURL: cfg.GetAPIBaseURL(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	storeOptions := []credentials.StoreOption{}
	if o.tabID != "" {
		storeOptions = append(storeOptions, credentials.WithID(o.tabID))
	}
	if platform.Bus != nil {
		storeOptions = append(storeOptions, credentials.WithNotifier(platform.Bus))
	}
	store := credentials.NewStore(platform.Repo, storeOptions...)

	inspector := token.NewInspector(store, token.WithSkew(cfg.GetExpirySkew()))

	refresher := refresh.NewHTTPRefresher(o.baseURL+cfg.GetRefreshPath(), &http.Client{Transport: o.base})
	coordinator := refresh.NewCoordinator(store, refresher, refresh.WithTimeout(cfg.GetRefreshTimeout()))

	retrying := pipeline.NewRetryingTransport(cfg.GetRetryMax(), o.base)
	transport := pipeline.NewTransport(store, inspector, coordinator,
		pipeline.WithBase(retrying),
		pipeline.WithExemptPaths(cfg.GetExemptPaths()...),
	)
	httpClient := &http.Client{Transport: transport, Timeout: cfg.GetRequestTimeout()}
	public := &http.Client{Transport: retrying, Timeout: cfg.GetRequestTimeout()}

	s := &Session{
		store:       store,
		inspector:   inspector,
		coordinator: coordinator,
		httpClient:  httpClient,
		api: quizapi.NewClient(o.baseURL, httpClient, store,
			quizapi.WithPublicClient(public),
			quizapi.WithEndpoints(cfg),
		),
	}
	if platform.Bus != nil && platform.Navigator != nil {
		s.sync = sessionsync.New(platform.Bus, platform.Navigator, sessionsync.WithEntryPoint(cfg.GetLoginPage()))
	}
	return s
}

// Start begins cross-tab sync and restores a stored session
func (s *Session) Start(ctx context.Context) error {
	if s.sync != nil {
		if err := s.sync.Start(ctx); err != nil {
			return err
		}
	}
	if err := s.Restore(ctx); err != nil {
		log.Warn().Err(err).Str("tab", s.store.ID()).Msg("stored session could not be restored")
	}
	return nil
}

// Restore refreshes once when a full pair is stored but the access credential
// has already expired. With nothing stored it does nothing.
func (s *Session) Restore(ctx context.Context) error {
	if _, ok := s.store.Get(); !ok {
		return nil
	}
	if _, ok := s.store.GetRefresh(); !ok {
		return nil
	}
	if !s.inspector.IsExpired() {
		return nil
	}
	log.Debug().Str("tab", s.store.ID()).Msg("restoring expired session")
	_, err := s.coordinator.Refresh(ctx)
	return err
}

// LoggedIn reports whether an access credential is stored. It may be stale.
func (s *Session) LoggedIn() bool {
	_, ok := s.store.Get()
	return ok
}

func (s *Session) ID() string {
	return s.store.ID()
}

func (s *Session) API() *quizapi.Client {
	return s.api
}

// HTTPClient sends requests through the authenticating pipeline
func (s *Session) HTTPClient() *http.Client {
	return s.httpClient
}

func (s *Session) Store() *credentials.Store {
	return s.store
}

func (s *Session) Inspector() *token.Inspector {
	return s.inspector
}

func (s *Session) Coordinator() *refresh.Coordinator {
	return s.coordinator
}
