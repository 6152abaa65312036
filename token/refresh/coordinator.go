package refresh

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/go-quiz-session/credentials"
	apperrors "github.com/jrsteele09/go-quiz-session/internal/errors"
	"github.com/rs/zerolog/log"
)

var (
	ErrNoCredential     = apperrors.ErrNoCredential
	ErrRefreshRejected  = apperrors.ErrRefreshRejected
	ErrRefreshTransport = apperrors.ErrRefreshTransport
	ErrRefreshAborted   = apperrors.ErrRefreshAborted
)

const DefaultTimeout = 15 * time.Second

// Store is the part of the credential store the coordinator needs
type Store interface {
	GetRefresh() (string, bool)
	Save(access string, refresh *string)
	Clear()
}

// Refresher exchanges a refresh credential for a new pair. Implementations
// must not route the call back through the request pipeline.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (credentials.Pair, error)
}

var _ Store = (*credentials.Store)(nil)

// Coordinator guarantees at most one refresh call in flight. Callers arriving
// while a refresh runs wait for its outcome instead of starting their own.
type Coordinator struct {
	store     Store
	refresher Refresher
	timeout   time.Duration

	mu    sync.Mutex
	state state
}

type CoordinatorOption func(*Coordinator)

// WithTimeout bounds the refresh call
func WithTimeout(timeout time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		c.timeout = timeout
	}
}

func NewCoordinator(store Store, refresher Refresher, options ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		store:     store,
		refresher: refresher,
		state:     idle{},
	}
	for _, opt := range options {
		opt(c)
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	return c
}

// InFlight reports whether a refresh is currently running
func (c *Coordinator) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.state.(*refreshing)
	return ok
}

// Waiting is the number of callers waiting on the refresh in flight
func (c *Coordinator) Waiting() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if inFlight, ok := c.state.(*refreshing); ok {
		return len(inFlight.waiters)
	}
	return 0
}

// Refresh returns a fresh access credential. The first caller performs the
// refresh; concurrent callers receive the same outcome.
func (c *Coordinator) Refresh(ctx context.Context) (string, error) {
	c.mu.Lock()
	if inFlight, ok := c.state.(*refreshing); ok {
		wait := make(chan outcome, 1)
		inFlight.waiters = append(inFlight.waiters, wait)
		waiting := len(inFlight.waiters)
		c.mu.Unlock()

		log.Debug().Int("waiters", waiting).Msg("waiting for refresh in flight")
		select {
		case out := <-wait:
			return out.access, out.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	refreshToken, ok := c.store.GetRefresh()
	if !ok {
		c.mu.Unlock()
		c.store.Clear()
		log.Debug().Msg("refresh skipped, no refresh credential stored")
		return "", ErrNoCredential
	}
	c.state = &refreshing{}
	c.mu.Unlock()

	return c.lead(ctx, refreshToken)
}

func (c *Coordinator) lead(ctx context.Context, refreshToken string) (string, error) {
	settled := false
	defer func() {
		if settled {
			return
		}
		if r := recover(); r != nil {
			c.settle(outcome{err: ErrRefreshAborted})
			panic(r)
		}
	}()

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	log.Debug().Msg("refresh started")
	pair, err := c.refresher.Refresh(callCtx, refreshToken)
	if err != nil {
		c.store.Clear()
		log.Warn().Err(err).Msg("refresh failed, credentials cleared")
		waiters := c.settle(outcome{err: err})
		settled = true
		log.Debug().Int("waiters", waiters).Msg("refresh waiters released with failure")
		return "", err
	}

	c.store.Save(pair.Access, pair.Refresh)
	waiters := c.settle(outcome{access: pair.Access})
	settled = true
	log.Info().Bool("rotated", pair.Refresh != nil).Int("waiters", waiters).Msg("credentials refreshed")
	return pair.Access, nil
}

// settle returns to idle and resumes every waiter with out. Waiter channels
// are buffered so sends never block.
func (c *Coordinator) settle(out outcome) int {
	c.mu.Lock()
	var waiters []chan outcome
	if inFlight, ok := c.state.(*refreshing); ok {
		waiters = inFlight.waiters
	}
	c.state = idle{}
	c.mu.Unlock()

	for _, wait := range waiters {
		wait <- out
	}
	return len(waiters)
}
