package config

type Endpoints struct{}

var _ EndpointConfig = Endpoints{}

func (Endpoints) GetTokenPath() string {
	return GetEnv("QUIZ_TOKEN_PATH", "/token/")
}

func (Endpoints) GetRefreshPath() string {
	return GetEnv("QUIZ_REFRESH_PATH", "/token/refresh/")
}

func (Endpoints) GetRegisterPath() string {
	return "/users/register/"
}

func (Endpoints) GetGoogleLoginPath() string {
	return "/users/google/"
}

func (Endpoints) GetLogoutPath() string {
	return "/users/auth/logout/"
}

func (Endpoints) GetProfilePath() string {
	return "/users/profile/"
}

func (Endpoints) GetQuizzesPath() string {
	return "/quizzes/"
}

func (Endpoints) GetSubmitPath() string {
	return "/results/submit/"
}

func (Endpoints) GetResultsPath() string {
	return "/results/"
}

func (Endpoints) GetPremiumStatusPath() string {
	return "/users/premium/status/"
}

func (Endpoints) GetPremiumActivatePath() string {
	return "/users/premium/activate/"
}

func (e Endpoints) GetExemptPaths() []string {
	return []string{
		e.GetTokenPath(),
		e.GetRefreshPath(),
		"/users/login/",
		"/users/token/refresh/",
		e.GetRegisterPath(),
		e.GetGoogleLoginPath(),
		e.GetLogoutPath(),
	}
}
