package config

import "time"

type Config interface {
	EnvConfig
	AuthConfig
	EndpointConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetAPIBaseURL() string
	GetTokenFile() string
	GetStoreKey() string
	GetLogLevel() string
}

type AuthConfig interface {
	GetRefreshTimeout() time.Duration
	GetRequestTimeout() time.Duration
	GetExpirySkew() time.Duration
	GetRetryMax() int
	GetLoginPage() string
}

type EndpointConfig interface {
	GetTokenPath() string
	GetRefreshPath() string
	GetRegisterPath() string
	GetGoogleLoginPath() string
	GetLogoutPath() string
	GetProfilePath() string
	GetQuizzesPath() string
	GetSubmitPath() string
	GetResultsPath() string
	GetPremiumStatusPath() string
	GetPremiumActivatePath() string
	// GetExemptPaths lists endpoints that never trigger a credential refresh.
	GetExemptPaths() []string
}

type mainConfig struct {
	EnvVars
	Auth
	Endpoints
}

func New() Config {
	return mainConfig{}
}
