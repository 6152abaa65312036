package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-quiz-session/backendfake"
	"github.com/jrsteele09/go-quiz-session/internal/config"
	"github.com/jrsteele09/go-quiz-session/quizapi"
	"github.com/stretchr/testify/require"
)

const testKeyHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func setup(t *testing.T) *backendfake.Backend {
	t.Helper()
	b := backendfake.Start(backendfake.WithUser("alice", "password123"))
	t.Cleanup(b.Close)
	t.Setenv("QUIZ_API_URL", b.BaseURL())
	t.Setenv("QUIZ_TOKEN_FILE", filepath.Join(t.TempDir(), "session.json"))
	return b
}

func run(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(config.New())
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader("password123\n"))
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestQuizctl_SessionLifecycle(t *testing.T) {
	b := setup(t)
	ctx := context.Background()

	_, err := run(t, ctx, "whoami")
	require.ErrorIs(t, err, quizapi.ErrNotAuthenticated)

	out, err := run(t, ctx, "login", "-u", "alice")
	require.NoError(t, err)
	require.Contains(t, out, "Logged in as alice")

	out, err = run(t, ctx, "whoami")
	require.NoError(t, err)
	require.Contains(t, out, "alice <alice@example.com>")

	out, err = run(t, ctx, "token")
	require.NoError(t, err)
	require.Contains(t, out, "Bearer token")

	b.RevokeAccess()
	out, err = run(t, ctx, "submit", "1", "101=1001", "102=1004")
	require.NoError(t, err)
	require.Contains(t, out, "Score: 100.00% of 2 questions")
	require.Equal(t, 1, b.RefreshCalls())

	out, err = run(t, ctx, "results")
	require.NoError(t, err)
	require.Contains(t, out, "100.00%")

	out, err = run(t, ctx, "logout")
	require.NoError(t, err)
	require.Contains(t, out, "Logged out")

	_, err = run(t, ctx, "whoami")
	require.ErrorIs(t, err, quizapi.ErrNotAuthenticated)
}

func TestQuizctl_Quizzes(t *testing.T) {
	setup(t)
	ctx := context.Background()

	out, err := run(t, ctx, "quizzes", "--timed")
	require.NoError(t, err)
	require.Contains(t, out, "Number Sequences")
	require.NotContains(t, out, "Word Meanings")

	out, err = run(t, ctx, "quiz", "2")
	require.NoError(t, err)
	require.Contains(t, out, "[Vocabulary]")
	require.Contains(t, out, "2001) Quick")
}

func TestQuizctl_SealedStore(t *testing.T) {
	setup(t)
	t.Setenv("QUIZ_STORE_KEY", testKeyHex)
	ctx := context.Background()

	_, err := run(t, ctx, "login", "-u", "alice", "-p", "password123")
	require.NoError(t, err)
	_, err = run(t, ctx, "whoami")
	require.NoError(t, err)

	t.Setenv("QUIZ_STORE_KEY", "not-hex")
	_, err = run(t, ctx, "whoami")
	require.ErrorContains(t, err, "QUIZ_STORE_KEY")
}

func TestQuizctl_WatchSeesLogoutFromAnotherProcess(t *testing.T) {
	setup(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := run(t, ctx, "login", "-u", "alice", "-p", "password123")
	require.NoError(t, err)

	var (
		wg       sync.WaitGroup
		watchOut string
		watchErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		var out bytes.Buffer
		cmd := newRootCmd(config.New())
		cmd.SetArgs([]string{"watch"})
		cmd.SetOut(&out)
		watchErr = cmd.ExecuteContext(ctx)
		watchOut = out.String()
	}()

	// give the watcher time to attach before ending the session
	time.Sleep(200 * time.Millisecond)
	_, err = run(t, ctx, "logout")
	require.NoError(t, err)

	wg.Wait()
	require.NoError(t, watchErr)
	require.Contains(t, watchOut, "Session ended, moved to /login")
}

func TestParseAnswers(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    map[string]int
		wantErr bool
	}{
		{name: "pairs", args: []string{"101=1001", "102=1004"}, want: map[string]int{"101": 1001, "102": 1004}},
		{name: "none", args: nil, want: map[string]int{}},
		{name: "missing separator", args: []string{"101"}, wantErr: true},
		{name: "bad choice", args: []string{"101=a"}, wantErr: true},
		{name: "bad question", args: []string{"q=1"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAnswers(tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
