package quizapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-quiz-session/internal/utils"
	"github.com/rs/zerolog/log"
)

// Login exchanges a username and password for a credential pair and stores it.
// The returned user is nil when the backend does not include one.
func (c *Client) Login(ctx context.Context, username, password string) (*User, error) {
	var payload tokenResponse
	err := c.doJSON(ctx, call{
		client: c.api,
		method: http.MethodPost,
		path:   c.paths.GetTokenPath(),
		body:   loginRequest{Username: username, Password: password},
	}, &payload)
	if err != nil {
		return nil, err
	}
	if err := c.savePair(payload); err != nil {
		return nil, err
	}
	log.Info().Str("username", username).Msg("logged in")
	return payload.User, nil
}

// LoginWithGoogle hands a Google ID token to the backend, which verifies it
// and issues the same credential pair as a password login.
func (c *Client) LoginWithGoogle(ctx context.Context, idToken string) (*User, error) {
	var payload tokenResponse
	err := c.doJSON(ctx, call{
		client: c.api,
		method: http.MethodPost,
		path:   c.paths.GetGoogleLoginPath(),
		body:   googleLoginRequest{Credential: idToken},
	}, &payload)
	if err != nil {
		return nil, err
	}
	if err := c.savePair(payload); err != nil {
		return nil, err
	}
	if payload.User != nil {
		log.Info().Str("username", payload.User.Username).Msg("logged in with google")
	}
	return payload.User, nil
}

func (c *Client) savePair(payload tokenResponse) error {
	if strings.TrimSpace(payload.Access) == "" {
		return ErrInvalidResponse
	}
	c.store.Save(payload.Access, utils.NonEmpty(payload.Refresh))
	return nil
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	var user User
	err := c.doJSON(ctx, call{
		client: c.api,
		method: http.MethodPost,
		path:   c.paths.GetRegisterPath(),
		body:   req,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout tells the backend the session is over and always clears the local
// credentials, whether or not the backend could be reached.
func (c *Client) Logout(ctx context.Context) {
	defer c.store.Clear()

	access, ok := c.store.Get()
	if !ok {
		return
	}
	refresh, _ := c.store.GetRefresh()

	err := c.doJSON(ctx, call{
		client:  c.api,
		method:  http.MethodPost,
		path:    c.paths.GetLogoutPath(),
		body:    logoutRequest{Refresh: refresh},
		headers: http.Header{"Authorization": []string{"Bearer " + access}},
	}, nil)
	if err != nil {
		log.Debug().Err(err).Msg("backend logout failed, clearing local session anyway")
		return
	}
	log.Info().Msg("logged out")
}

// Profile returns the signed in user and their past results. It fails with
// ErrNotAuthenticated when there is no usable session and with
// ErrServiceUnavailable when the backend cannot be reached.
func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	var profile Profile
	err := c.protected(ctx, call{
		method: http.MethodGet,
		path:   c.paths.GetProfilePath(),
	}, &profile)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
