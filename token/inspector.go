package token

import (
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	apperrors "github.com/jrsteele09/go-quiz-session/internal/errors"
)

// AccessSource supplies the stored access credential
type AccessSource interface {
	Get() (string, bool)
}

// Inspector decides locally whether the stored access credential is usable.
// It decodes the credential's payload without verifying the signature; the
// backend remains the authority on validity.
type Inspector struct {
	source  AccessSource
	nowFunc func() time.Time
	skew    time.Duration
}

type InspectorOption func(*Inspector)

func WithNowFunc(now func() time.Time) InspectorOption {
	return func(i *Inspector) {
		i.nowFunc = now
	}
}

// WithSkew treats credentials as expired this long before their exp claim
func WithSkew(skew time.Duration) InspectorOption {
	return func(i *Inspector) {
		i.skew = skew
	}
}

func NewInspector(source AccessSource, options ...InspectorOption) *Inspector {
	i := &Inspector{source: source}
	for _, opt := range options {
		opt(i)
	}
	if i.nowFunc == nil {
		i.nowFunc = time.Now
	}
	return i
}

// IsExpired reports true when no access credential is stored, when it cannot
// be decoded, when it has no exp claim, or when exp is at or before now.
func (i *Inspector) IsExpired() bool {
	return i.RemainingLifetime() <= 0
}

// RemainingLifetime is the time left before the stored access credential
// expires, never negative.
func (i *Inspector) RemainingLifetime() time.Duration {
	raw, ok := i.source.Get()
	if !ok {
		return 0
	}
	exp, err := ExpiresAt(raw)
	if err != nil {
		return 0
	}
	return max(0, exp.Add(-i.skew).Sub(i.nowFunc()))
}

// ExpiresAt returns the exp claim of a JWT without verifying it
func ExpiresAt(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, apperrors.ErrMalformedToken
	}
	claims := &jwtlib.RegisteredClaims{}
	if _, _, err := jwtlib.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, apperrors.Wrapf(apperrors.ErrMalformedToken, "%v", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, apperrors.ErrMissingExpiry
	}
	return claims.ExpiresAt.Time, nil
}
