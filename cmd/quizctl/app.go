package main

import (
	"context"
	"fmt"

	"github.com/jrsteele09/go-quiz-session/broadcast"
	"github.com/jrsteele09/go-quiz-session/credentials/filerepo"
	"github.com/jrsteele09/go-quiz-session/internal/config"
	"github.com/jrsteele09/go-quiz-session/session"
	"github.com/jrsteele09/go-quiz-session/sessionsync"
	"github.com/rs/zerolog/log"
)

// homeLocation is where a signed in quizctl process considers itself to be
const homeLocation = "/home"

// app is one quizctl process acting as a single tab over the shared
// credential file.
type app struct {
	cfg     config.Config
	repo    *filerepo.FileRepo
	bus     *broadcast.Bus
	nav     *sessionsync.MemoryNavigator
	session *session.Session
	cancel  context.CancelFunc
}

func (a *app) open(ctx context.Context) error {
	var options []filerepo.Option
	if hexKey := a.cfg.GetStoreKey(); hexKey != "" {
		key, err := filerepo.ParseKey(hexKey)
		if err != nil {
			return fmt.Errorf("QUIZ_STORE_KEY: %w", err)
		}
		options = append(options, filerepo.WithSealKey(key))
	}

	a.repo = filerepo.New(a.cfg.GetTokenFile(), options...)
	a.bus = broadcast.NewBus()
	a.nav = sessionsync.NewMemoryNavigator(homeLocation)
	a.session = session.New(a.cfg, session.Platform{
		Repo:      a.repo,
		Bus:       a.bus,
		Navigator: a.nav,
	})

	ctx, a.cancel = context.WithCancel(ctx)
	if err := a.session.Start(ctx); err != nil {
		return err
	}
	log.Debug().Str("file", a.repo.Path()).Str("tab", a.session.ID()).Msg("session opened")
	return nil
}

func (a *app) close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.bus != nil {
		if err := a.bus.Close(); err != nil {
			log.Debug().Err(err).Msg("closing change bus")
		}
	}
}
