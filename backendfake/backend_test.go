package backendfake_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/jrsteele09/go-quiz-session/backendfake"
	"github.com/stretchr/testify/require"
)

func post(t *testing.T, b *backendfake.Backend, path, bearer string, body any) (*http.Response, map[string]any) {
	t.Helper()
	encoded, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, b.URL(path), bytes.NewReader(encoded))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return send(t, b, req)
}

func get(t *testing.T, b *backendfake.Backend, path, bearer string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, b.URL(path), nil)
	require.NoError(t, err)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return send(t, b, req)
}

func send(t *testing.T, b *backendfake.Backend, req *http.Request) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := b.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	payload := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	return resp, payload
}

func login(t *testing.T, b *backendfake.Backend) (string, string) {
	t.Helper()
	resp, payload := post(t, b, "/token/", "", map[string]string{"username": "alice", "password": "password123"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return payload["access"].(string), payload["refresh"].(string)
}

func TestBackend_Login(t *testing.T) {
	b := backendfake.Start(backendfake.WithUser("alice", "password123"))
	defer b.Close()

	t.Run("valid credentials issue a pair", func(t *testing.T) {
		access, refresh := login(t, b)
		require.NotEmpty(t, access)
		require.NotEmpty(t, refresh)
	})

	t.Run("wrong password is rejected with detail", func(t *testing.T) {
		resp, payload := post(t, b, "/token/", "", map[string]string{"username": "alice", "password": "nope"})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.Equal(t, "No active account found with the given credentials", payload["detail"])
	})
}

func TestBackend_Refresh(t *testing.T) {
	t.Run("rotates and retires the old refresh token", func(t *testing.T) {
		b := backendfake.Start(backendfake.WithUser("alice", "password123"))
		defer b.Close()
		_, refresh := login(t, b)

		resp, payload := post(t, b, "/token/refresh/", "", map[string]string{"refresh": refresh})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.NotEmpty(t, payload["access"])
		require.NotEmpty(t, payload["refresh"])
		require.NotEqual(t, refresh, payload["refresh"])

		resp, _ = post(t, b, "/token/refresh/", "", map[string]string{"refresh": refresh})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.Equal(t, 2, b.RefreshCalls())
	})

	t.Run("without rotation only access is returned", func(t *testing.T) {
		b := backendfake.Start(backendfake.WithUser("alice", "password123"), backendfake.WithoutRotation())
		defer b.Close()
		_, refresh := login(t, b)

		resp, payload := post(t, b, "/token/refresh/", "", map[string]string{"refresh": refresh})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.NotContains(t, payload, "refresh")
	})

	t.Run("reject switch answers 401", func(t *testing.T) {
		b := backendfake.Start(backendfake.WithUser("alice", "password123"))
		defer b.Close()
		_, refresh := login(t, b)
		b.RejectRefresh(true)

		resp, payload := post(t, b, "/token/refresh/", "", map[string]string{"refresh": refresh})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.Equal(t, "token_not_valid", payload["code"])
	})
}

func TestBackend_ProtectedRoutes(t *testing.T) {
	b := backendfake.Start(backendfake.WithUser("alice", "password123"))
	defer b.Close()
	access, _ := login(t, b)

	t.Run("missing bearer", func(t *testing.T) {
		resp, _ := get(t, b, "/users/profile/", "")
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("valid bearer", func(t *testing.T) {
		resp, payload := get(t, b, "/users/profile/", access)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		user := payload["user"].(map[string]any)
		require.Equal(t, "alice", user["username"])
	})

	t.Run("expired bearer", func(t *testing.T) {
		expired, err := b.IssueAccess("alice", time.Now().Add(-time.Minute))
		require.NoError(t, err)
		resp, payload := get(t, b, "/users/profile/", expired)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.Equal(t, "token_not_valid", payload["code"])
	})

	t.Run("revoked bearer", func(t *testing.T) {
		b.RevokeAccess()
		resp, _ := get(t, b, "/users/profile/", access)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	require.Equal(t, 4, b.Calls("GET /users/profile/"))
}

func TestBackend_Register(t *testing.T) {
	b := backendfake.Start(backendfake.WithUser("alice", "password123"))
	defer b.Close()

	resp, payload := post(t, b, "/users/register/", "", map[string]string{"username": "alice", "password": "password123"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, []any{"That username is already taken."}, payload["username"])

	resp, payload = post(t, b, "/users/register/", "", map[string]string{"username": "bob", "password": "short"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, payload, "password")

	resp, payload = post(t, b, "/users/register/", "", map[string]string{"username": "bob", "password": "password123"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, "bob", payload["username"])
}

func TestBackend_Submit(t *testing.T) {
	b := backendfake.Start(backendfake.WithUser("alice", "password123"))
	defer b.Close()
	access, _ := login(t, b)

	resp, payload := post(t, b, "/results/submit/", access, map[string]any{
		"quiz_id": 1,
		"answers": map[string]int{"101": 1001, "102": 1005},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.InDelta(t, 50.0, payload["score"], 0.001)
	require.InDelta(t, 2, payload["total_questions"], 0)
}
