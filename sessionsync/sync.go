package sessionsync

import (
	"context"

	"github.com/jrsteele09/go-quiz-session/credentials"
	"github.com/rs/zerolog/log"
)

const DefaultEntryPoint = "/login"

// Subscriber delivers credential change events
type Subscriber interface {
	Subscribe(ctx context.Context, handle func(credentials.ChangeEvent)) error
}

// Navigator is the tab's view of where the user currently is
type Navigator interface {
	Location() string
	Navigate(path string)
}

// Sync sends a tab to the unauthenticated entry point when the shared
// credentials are cleared, whichever tab cleared them. It never touches the
// credentials itself.
type Sync struct {
	sub   Subscriber
	nav   Navigator
	entry string
}

type Option func(*Sync)

// WithEntryPoint sets the unauthenticated entry point
func WithEntryPoint(path string) Option {
	return func(s *Sync) {
		s.entry = path
	}
}

func New(sub Subscriber, nav Navigator, options ...Option) *Sync {
	s := &Sync{
		sub:   sub,
		nav:   nav,
		entry: DefaultEntryPoint,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Start listens for change events until ctx is done
func (s *Sync) Start(ctx context.Context) error {
	return s.sub.Subscribe(ctx, s.handle)
}

func (s *Sync) handle(event credentials.ChangeEvent) {
	if !event.Removed(credentials.KeyAccess) {
		return
	}
	location := s.nav.Location()
	if location == s.entry {
		return
	}
	log.Info().Str("origin", event.Origin).Str("from", location).Str("to", s.entry).Msg("session ended, leaving protected page")
	s.nav.Navigate(s.entry)
}
