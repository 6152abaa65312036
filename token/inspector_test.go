package token_test

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	apperrors "github.com/jrsteele09/go-quiz-session/internal/errors"
	"github.com/jrsteele09/go-quiz-session/token"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	value string
	ok    bool
}

func (s staticSource) Get() (string, bool) {
	return s.value, s.ok
}

func mint(t *testing.T, claims jwtlib.Claims) string {
	t.Helper()
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func withExpiry(t *testing.T, exp time.Time) string {
	return mint(t, jwtlib.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwtlib.NewNumericDate(exp),
	})
}

func TestInspector_IsExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	tests := []struct {
		name    string
		source  staticSource
		expired bool
	}{
		{"expired one second ago", staticSource{withExpiry(t, now.Add(-time.Second)), true}, true},
		{"valid for ten minutes", staticSource{withExpiry(t, now.Add(600*time.Second)), true}, false},
		{"exp exactly now", staticSource{withExpiry(t, now), true}, true},
		{"malformed", staticSource{"not-a-jwt", true}, true},
		{"nothing stored", staticSource{}, true},
		{"no exp claim", staticSource{mint(t, jwtlib.RegisteredClaims{Subject: "user-1"}), true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inspector := token.NewInspector(tt.source, token.WithNowFunc(clock))
			require.Equal(t, tt.expired, inspector.IsExpired())
		})
	}
}

func TestInspector_RemainingLifetime(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	source := staticSource{withExpiry(t, now.Add(600*time.Second)), true}

	t.Run("without skew", func(t *testing.T) {
		inspector := token.NewInspector(source, token.WithNowFunc(clock))
		require.Equal(t, 600*time.Second, inspector.RemainingLifetime())
	})

	t.Run("skew shortens lifetime", func(t *testing.T) {
		inspector := token.NewInspector(source, token.WithNowFunc(clock), token.WithSkew(30*time.Second))
		require.Equal(t, 570*time.Second, inspector.RemainingLifetime())
	})

	t.Run("skew larger than lifetime expires", func(t *testing.T) {
		inspector := token.NewInspector(source, token.WithNowFunc(clock), token.WithSkew(time.Hour))
		require.Zero(t, inspector.RemainingLifetime())
		require.True(t, inspector.IsExpired())
	})
}

func TestExpiresAt(t *testing.T) {
	exp := time.Date(2026, 3, 1, 12, 10, 0, 0, time.UTC)

	got, err := token.ExpiresAt(withExpiry(t, exp))
	require.NoError(t, err)
	require.True(t, got.Equal(exp))

	_, err = token.ExpiresAt("a.b.c")
	require.ErrorIs(t, err, apperrors.ErrMalformedToken)

	_, err = token.ExpiresAt("")
	require.ErrorIs(t, err, apperrors.ErrMalformedToken)

	_, err = token.ExpiresAt(mint(t, jwtlib.MapClaims{"sub": "user-1"}))
	require.ErrorIs(t, err, apperrors.ErrMissingExpiry)
}
