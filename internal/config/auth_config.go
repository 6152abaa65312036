package config

import "time"

type Auth struct{}

var _ AuthConfig = Auth{}

func (Auth) GetRefreshTimeout() time.Duration {
	return GetEnvDuration("QUIZ_REFRESH_TIMEOUT", 15*time.Second)
}

func (Auth) GetRequestTimeout() time.Duration {
	return GetEnvDuration("QUIZ_REQUEST_TIMEOUT", 15*time.Second)
}

// GetExpirySkew is subtracted from the access token expiry so a token is refreshed slightly early
func (Auth) GetExpirySkew() time.Duration {
	return GetEnvDuration("QUIZ_EXPIRY_SKEW", 10*time.Second)
}

func (Auth) GetRetryMax() int {
	return GetEnvInt("QUIZ_RETRY_MAX", 2)
}

func (Auth) GetLoginPage() string {
	return GetEnv("QUIZ_LOGIN_PAGE", "/login")
}
