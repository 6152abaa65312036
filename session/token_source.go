package session

import (
	"context"

	apperrors "github.com/jrsteele09/go-quiz-session/internal/errors"
	"github.com/jrsteele09/go-quiz-session/token"
	"golang.org/x/oauth2"
)

var _ oauth2.TokenSource = (*tokenSource)(nil)

type tokenSource struct {
	ctx     context.Context
	session *Session
}

// TokenSource exposes the session's bearer credential to oauth2 aware
// clients. A stale credential is refreshed through the shared coordinator.
func (s *Session) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &tokenSource{ctx: ctx, session: s}
}

func (ts *tokenSource) Token() (*oauth2.Token, error) {
	s := ts.session
	if s.inspector.IsExpired() {
		if _, err := s.coordinator.Refresh(ts.ctx); err != nil {
			return nil, apperrors.Wrapf(err, "refreshing session")
		}
	}

	access, ok := s.store.Get()
	if !ok {
		return nil, apperrors.ErrNotAuthenticated
	}
	tok := &oauth2.Token{
		AccessToken: access,
		TokenType:   "Bearer",
	}
	if refreshToken, ok := s.store.GetRefresh(); ok {
		tok.RefreshToken = refreshToken
	}
	if exp, err := token.ExpiresAt(access); err == nil {
		tok.Expiry = exp
	}
	return tok, nil
}
