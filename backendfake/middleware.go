package backendfake

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

type contextKey string

const contextKeyAccount contextKey = "account"

func ChainMiddleware(routeFunction http.HandlerFunc, mw ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	chainedHandler := routeFunction
	// Apply middleware in reverse order
	for i := len(mw) - 1; i >= 0; i-- {
		chainedHandler = mw[i](chainedHandler)
	}
	return chainedHandler
}

func (b *Backend) APIMiddleware(mw ...func(http.HandlerFunc) http.HandlerFunc) []func(http.HandlerFunc) http.HandlerFunc {
	chained := []func(http.HandlerFunc) http.HandlerFunc{
		b.RecoverMiddleware,
		b.LoggingMiddleware,
	}
	return append(chained, mw...)
}

func (b *Backend) LoggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Trace().Str("method", r.Method).Str("path", r.URL.Path).Msg("fake backend request")
		next(w, r)
	}
}

func (b *Backend) RecoverMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().Interface("panic", rec).Str("path", r.URL.Path).Msg("fake backend handler panicked")
				writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "internal error"})
			}
		}()
		next(w, r)
	}
}

// RequireAuth validates the bearer access token and puts its account in the
// request context, answering 401 the way the real API does otherwise.
func (b *Backend) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authorization header must contain two space-delimited values"})
			return
		}

		if b.rejectAll.Load() {
			writeJSON(w, http.StatusUnauthorized, tokenNotValid())
			return
		}

		account, err := b.verifyAccessToken(parts[1])
		if err != nil {
			log.Trace().Err(err).Msg("fake backend rejected access token")
			writeJSON(w, http.StatusUnauthorized, tokenNotValid())
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), contextKeyAccount, account)))
	}
}

func accountFrom(ctx context.Context) *account {
	a, _ := ctx.Value(contextKeyAccount).(*account)
	return a
}

func tokenNotValid() map[string]string {
	return map[string]string{
		"detail": "Given token not valid for any token type",
		"code":   "token_not_valid",
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
