package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	appNameVar   = "APP_NAME"
	apiURLVar    = "QUIZ_API_URL"
	tokenFileVar = "QUIZ_TOKEN_FILE"
	storeKeyVar  = "QUIZ_STORE_KEY"
	logLevelVar  = "QUIZ_LOG_LEVEL"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Quiz Session")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

// GetAPIBaseURL returns the REST API root without a trailing slash
func (EnvVars) GetAPIBaseURL() string {
	return strings.TrimRight(GetEnv(apiURLVar, "http://127.0.0.1:8000/api"), "/")
}

func (EnvVars) GetTokenFile() string {
	return GetEnv(tokenFileVar, ".quiz-session.json")
}

// GetStoreKey returns the hex encoded secretbox key for the credential file, empty for plaintext
func (EnvVars) GetStoreKey() string {
	return GetEnv(storeKeyVar, "")
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelVar, "info")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetEnvDuration parses a Go duration string, falling back on the default when unset or invalid
func GetEnvDuration(envVar string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return defaultValue
	}
	return d
}

func GetEnvInt(envVar string, defaultValue int) int {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(value)
	if err != nil || i < 0 {
		return defaultValue
	}
	return i
}
