package config_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-quiz-session/internal/config"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	c := config.New()
	require.Equal(t, "http://127.0.0.1:8000/api", c.GetAPIBaseURL())
	require.Equal(t, 15*time.Second, c.GetRefreshTimeout())
	require.Equal(t, "/login", c.GetLoginPage())
	require.Contains(t, c.GetExemptPaths(), c.GetRefreshPath())
	require.Contains(t, c.GetExemptPaths(), c.GetTokenPath())
}

func TestConfig_Overrides(t *testing.T) {
	t.Setenv("QUIZ_API_URL", "https://quiz.example.com/api/")
	t.Setenv("QUIZ_EXPIRY_SKEW", "0s")
	t.Setenv("QUIZ_RETRY_MAX", "5")
	t.Setenv("QUIZ_REFRESH_PATH", "/users/token/refresh/")

	c := config.New()
	require.Equal(t, "https://quiz.example.com/api", c.GetAPIBaseURL())
	require.Zero(t, c.GetExpirySkew())
	require.Equal(t, 5, c.GetRetryMax())
	require.Equal(t, "/users/token/refresh/", c.GetRefreshPath())
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{name: "unset", value: "", want: time.Minute},
		{name: "valid", value: "250ms", want: 250 * time.Millisecond},
		{name: "invalid", value: "soon", want: time.Minute},
		{name: "negative", value: "-1s", want: time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("QUIZ_TEST_DURATION", tt.value)
			require.Equal(t, tt.want, config.GetEnvDuration("QUIZ_TEST_DURATION", time.Minute))
		})
	}
}
