package backendfake

import (
	"net/http"
	"strings"
)

const (
	RouteToken           = "/token/"
	RouteTokenRefresh    = "/token/refresh/"
	RouteRegister        = "/users/register/"
	RouteGoogleLogin     = "/users/google/"
	RouteLogout          = "/users/auth/logout/"
	RouteProfile         = "/users/profile/"
	RoutePremiumStatus   = "/users/premium/status/"
	RoutePremiumActivate = "/users/premium/activate/"
	RouteQuizzes         = "/quizzes/"
	RouteQuizDetail      = "/quizzes/{id}/"
	RouteResults         = "/results/"
	RouteSubmit          = "/results/submit/"
)

func (b *Backend) initRoutes() {
	b.registerRoute("POST "+RouteToken, b.TokenHandler())
	b.registerRoute("POST "+RouteTokenRefresh, b.RefreshHandler())
	b.registerRoute("POST "+RouteRegister, b.RegisterHandler())
	b.registerRoute("POST "+RouteGoogleLogin, b.GoogleLoginHandler())
	b.registerRoute("POST "+RouteLogout, b.LogoutHandler(), b.RequireAuth)

	b.registerRoute("GET "+RouteQuizzes, b.QuizListHandler())
	b.registerRoute("GET "+RouteQuizDetail, b.QuizDetailHandler())

	b.registerRoute("GET "+RouteProfile, b.ProfileHandler(), b.RequireAuth)
	b.registerRoute("GET "+RoutePremiumStatus, b.PremiumStatusHandler(), b.RequireAuth)
	b.registerRoute("POST "+RoutePremiumActivate, b.ActivatePremiumHandler(), b.RequireAuth)
	b.registerRoute("GET "+RouteResults, b.ResultListHandler(), b.RequireAuth)
	b.registerRoute("POST "+RouteSubmit, b.SubmitHandler(), b.RequireAuth)
}

// registerRoute mounts handler under the API prefix and counts its calls
func (b *Backend) registerRoute(pattern string, handler http.HandlerFunc, mw ...func(http.HandlerFunc) http.HandlerFunc) {
	b.routes = append(b.routes, pattern)
	counted := func(w http.ResponseWriter, r *http.Request) {
		b.count(pattern)
		ChainMiddleware(handler, mw...)(w, r)
	}
	method, path, _ := strings.Cut(pattern, " ")
	b.mux.HandleFunc(method+" "+APIPrefix+path, ChainMiddleware(counted, b.APIMiddleware()...))
}
