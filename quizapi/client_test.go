package quizapi_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/go-quiz-session/backendfake"
	credentialsrepofake "github.com/jrsteele09/go-quiz-session/credentials/repofake"
	"github.com/jrsteele09/go-quiz-session/internal/config"
	"github.com/jrsteele09/go-quiz-session/quizapi"
	"github.com/jrsteele09/go-quiz-session/session"
	"github.com/jrsteele09/go-quiz-session/token/refresh"
	"github.com/stretchr/testify/require"
)

const (
	username = "alice"
	password = "password123"
)

func newClient(t *testing.T, b *backendfake.Backend) (*quizapi.Client, *session.Session) {
	t.Helper()
	s := session.New(config.New(), session.Platform{Repo: credentialsrepofake.NewFakeKVRepo()}, session.WithBaseURL(b.BaseURL()))
	return s.API(), s
}

func TestClient_Login(t *testing.T) {
	b := backendfake.Start(backendfake.WithUser(username, password))
	defer b.Close()

	t.Run("stores the issued pair", func(t *testing.T) {
		client, s := newClient(t, b)
		user, err := client.Login(context.Background(), username, password)
		require.NoError(t, err)
		require.NotNil(t, user)
		require.Equal(t, username, user.Username)

		pair, ok := s.Store().Pair()
		require.True(t, ok)
		require.NotEmpty(t, pair.Access)
		require.NotNil(t, pair.Refresh)
	})

	t.Run("bad credentials surface the backend detail", func(t *testing.T) {
		client, s := newClient(t, b)
		_, err := client.Login(context.Background(), username, "wrong-password")

		var apiErr *quizapi.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, 401, apiErr.StatusCode)
		require.Equal(t, "No active account found with the given credentials", apiErr.Message)
		require.False(t, s.LoggedIn())
		require.Equal(t, 0, b.RefreshCalls())
	})

	t.Run("backend down", func(t *testing.T) {
		down := backendfake.Start()
		client, _ := newClient(t, down)
		down.Close()

		_, err := client.Login(context.Background(), username, password)
		require.ErrorIs(t, err, quizapi.ErrServiceUnavailable)
	})
}

func TestClient_LoginWithGoogle(t *testing.T) {
	b := backendfake.Start(backendfake.WithGoogleAccount("google-id-token", "carol@example.com"))
	defer b.Close()

	t.Run("known id token signs in", func(t *testing.T) {
		client, s := newClient(t, b)
		user, err := client.LoginWithGoogle(context.Background(), "google-id-token")
		require.NoError(t, err)
		require.Equal(t, "carol@example.com", user.Email)
		require.Equal(t, "google", user.AuthProvider)
		require.True(t, s.LoggedIn())

		profile, err := client.Profile(context.Background())
		require.NoError(t, err)
		require.Equal(t, "carol", profile.User.Username)
	})

	t.Run("unknown id token", func(t *testing.T) {
		client, s := newClient(t, b)
		_, err := client.LoginWithGoogle(context.Background(), "forged")
		require.EqualError(t, err, "Invalid Google token.")
		require.False(t, s.LoggedIn())
	})
}

func TestClient_Register(t *testing.T) {
	b := backendfake.Start(backendfake.WithUser(username, password))
	defer b.Close()
	client, s := newClient(t, b)

	t.Run("field errors are surfaced", func(t *testing.T) {
		_, err := client.Register(context.Background(), quizapi.RegisterRequest{Username: username, Password: password})
		var apiErr *quizapi.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, 400, apiErr.StatusCode)
		require.Equal(t, "That username is already taken.", apiErr.Message)
	})

	t.Run("new account does not log in", func(t *testing.T) {
		user, err := client.Register(context.Background(), quizapi.RegisterRequest{Username: "bob", Password: password, Email: "bob@example.com"})
		require.NoError(t, err)
		require.Equal(t, "bob", user.Username)
		require.False(t, s.LoggedIn())

		_, err = client.Login(context.Background(), "bob", password)
		require.NoError(t, err)
	})
}

func TestClient_Logout(t *testing.T) {
	t.Run("retires the refresh credential", func(t *testing.T) {
		b := backendfake.Start(backendfake.WithUser(username, password))
		defer b.Close()
		client, s := newClient(t, b)
		_, err := client.Login(context.Background(), username, password)
		require.NoError(t, err)
		refreshToken, _ := s.Store().GetRefresh()

		client.Logout(context.Background())
		require.False(t, s.LoggedIn())
		require.Equal(t, 1, b.Calls("POST "+backendfake.RouteLogout))

		// the old refresh credential no longer works
		s.Store().Save("stale", &refreshToken)
		_, err = s.Coordinator().Refresh(context.Background())
		require.ErrorIs(t, err, refresh.ErrRefreshRejected)
	})

	t.Run("clears locally when the backend is down", func(t *testing.T) {
		b := backendfake.Start(backendfake.WithUser(username, password))
		client, s := newClient(t, b)
		_, err := client.Login(context.Background(), username, password)
		require.NoError(t, err)
		b.Close()

		client.Logout(context.Background())
		require.False(t, s.LoggedIn())
		_, ok := s.Store().GetRefresh()
		require.False(t, ok)
	})
}

func TestClient_Profile(t *testing.T) {
	t.Run("without a session", func(t *testing.T) {
		b := backendfake.Start()
		defer b.Close()
		client, _ := newClient(t, b)

		_, err := client.Profile(context.Background())
		require.ErrorIs(t, err, quizapi.ErrNotAuthenticated)
	})

	t.Run("backend down is not an auth failure", func(t *testing.T) {
		b := backendfake.Start(backendfake.WithUser(username, password))
		client, s := newClient(t, b)
		_, err := client.Login(context.Background(), username, password)
		require.NoError(t, err)
		b.Close()

		_, err = client.Profile(context.Background())
		require.ErrorIs(t, err, quizapi.ErrServiceUnavailable)
		require.NotErrorIs(t, err, quizapi.ErrNotAuthenticated)
		require.True(t, s.LoggedIn())
	})
}

func TestClient_Quizzes(t *testing.T) {
	b := backendfake.Start(backendfake.WithUser(username, password))
	defer b.Close()
	client, _ := newClient(t, b)
	ctx := context.Background()

	t.Run("browsing needs no session", func(t *testing.T) {
		quizzes, err := client.ListQuizzes(ctx, quizapi.QuizFilter{})
		require.NoError(t, err)
		require.Len(t, quizzes, len(backendfake.DefaultQuizzes()))
	})

	t.Run("filters", func(t *testing.T) {
		quizzes, err := client.ListQuizzes(ctx, quizapi.QuizFilter{Type: quizapi.QuizTypeVerbal})
		require.NoError(t, err)
		require.Len(t, quizzes, 1)
		require.Equal(t, quizapi.QuizTypeVerbal, quizzes[0].QuizType)

		quizzes, err = client.ListQuizzes(ctx, quizapi.QuizFilter{TimedOnly: true})
		require.NoError(t, err)
		for _, q := range quizzes {
			require.NotZero(t, q.TimeLimit)
		}
	})

	t.Run("detail", func(t *testing.T) {
		quiz, err := client.GetQuiz(ctx, 2)
		require.NoError(t, err)
		require.Equal(t, "Word Meanings", quiz.Title)
		require.Len(t, quiz.Passages, 1)

		_, err = client.GetQuiz(ctx, 99)
		var apiErr *quizapi.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, 404, apiErr.StatusCode)
	})

	t.Run("submit requires a session", func(t *testing.T) {
		_, err := client.SubmitQuiz(ctx, quizapi.SubmitRequest{QuizID: 1, Answers: map[string]int{"101": 1001}})
		require.ErrorIs(t, err, quizapi.ErrNotAuthenticated)
	})

	t.Run("submit and list results", func(t *testing.T) {
		_, err := client.Login(ctx, username, password)
		require.NoError(t, err)

		result, err := client.SubmitQuiz(ctx, quizapi.SubmitRequest{
			QuizID:  2,
			Answers: map[string]int{"201": 2001, "202": 2003},
		})
		require.NoError(t, err)
		require.InDelta(t, 100.0, result.Score, 0.001)
		require.Equal(t, 2, result.TotalQuestions)

		results, err := client.ListResults(ctx)
		require.NoError(t, err)
		require.Len(t, results, 1)
		require.Equal(t, result.ID, results[0].ID)

		profile, err := client.Profile(ctx)
		require.NoError(t, err)
		require.Len(t, profile.QuizResults, 1)
		require.Equal(t, "Word Meanings", profile.QuizResults[0].QuizTitle)
	})
}

func TestClient_Premium(t *testing.T) {
	b := backendfake.Start(backendfake.WithUser(username, password))
	defer b.Close()
	client, _ := newClient(t, b)
	ctx := context.Background()
	_, err := client.Login(ctx, username, password)
	require.NoError(t, err)

	status, err := client.PremiumStatus(ctx)
	require.NoError(t, err)
	require.False(t, status.IsPremium)
	require.Nil(t, status.PremiumUntil)

	activated, err := client.ActivatePremium(ctx)
	require.NoError(t, err)
	require.True(t, activated.IsPremium)
	require.Equal(t, "Premium activated!", activated.Message)
	require.WithinDuration(t, time.Now().AddDate(0, 0, 30), *activated.PremiumUntil, time.Minute)

	extended, err := client.ActivatePremium(ctx)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().AddDate(0, 0, 60), *extended.PremiumUntil, time.Minute)

	status, err = client.PremiumStatus(ctx)
	require.NoError(t, err)
	require.True(t, status.IsPremium)
}
