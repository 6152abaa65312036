package backendfake

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jrsteele09/go-quiz-session/quizapi"
	"github.com/rs/zerolog/log"
)

const (
	minPasswordLength = 8
	premiumDays       = 30
)

type credentialsBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

type refreshBody struct {
	Refresh string `json:"refresh"`
}

type googleBody struct {
	Credential string `json:"credential"`
}

type submitBody struct {
	QuizID  int            `json:"quiz_id"`
	Answers map[string]int `json:"answers"`
}

// TokenHandler exchanges a username and password for an access and refresh pair
func (b *Backend) TokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body credentialsBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "JSON parse error"})
			return
		}

		account, ok := b.accounts.byUsername(body.Username)
		if !ok || account.Password != body.Password || body.Password == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "No active account found with the given credentials"})
			return
		}
		b.issuePair(w, account)
	}
}

// RefreshHandler exchanges a refresh token for a new access token, rotating
// the refresh token unless rotation is off.
func (b *Backend) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if b.refreshDelay > 0 {
			select {
			case <-time.After(b.refreshDelay):
			case <-r.Context().Done():
				return
			}
		}

		var body refreshBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Refresh == "" {
			writeJSON(w, http.StatusBadRequest, map[string][]string{"refresh": {"This field is required."}})
			return
		}

		stored, ok := b.tokens.Get(body.Refresh)
		if b.rejectRefresh.Load() || !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"detail": "Token is invalid or expired",
				"code":   "token_not_valid",
			})
			return
		}
		account, ok := b.accounts.byID(stored.UserID)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "User not found", "code": "user_not_found"})
			return
		}

		access, err := b.issueAccessToken(account)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": err.Error()})
			return
		}
		response := map[string]string{"access": access}
		if b.rotate {
			refresh, err := b.createRefreshToken(account)
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": err.Error()})
				return
			}
			response["refresh"] = refresh
		}
		writeJSON(w, http.StatusOK, response)
	}
}

func (b *Backend) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body credentialsBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "JSON parse error"})
			return
		}

		fieldErrors := map[string][]string{}
		if strings.TrimSpace(body.Username) == "" {
			fieldErrors["username"] = []string{"This field may not be blank."}
		}
		if len(body.Password) < minPasswordLength {
			fieldErrors["password"] = []string{"Ensure this field has at least 8 characters."}
		}
		if len(fieldErrors) > 0 {
			writeJSON(w, http.StatusBadRequest, fieldErrors)
			return
		}

		email := body.Email
		if email == "" {
			email = body.Username + "@example.com"
		}
		account, ok := b.accounts.add(body.Username, body.Password, email, "local")
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string][]string{"username": {"That username is already taken."}})
			return
		}
		log.Debug().Str("username", account.Username).Msg("fake backend registered user")
		writeJSON(w, http.StatusCreated, b.userView(account))
	}
}

// GoogleLoginHandler accepts an ID token registered with WithGoogleAccount and
// signs the matching account in, creating it on first use.
func (b *Backend) GoogleLoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body googleBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Credential == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No credential provided."})
			return
		}

		email, ok := b.accounts.googleEmail(body.Credential)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid Google token."})
			return
		}

		account, ok := b.accounts.byEmail(email)
		if !ok {
			username, _, _ := strings.Cut(email, "@")
			account, ok = b.accounts.add(username, "", email, "google")
			if !ok {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Account already exists."})
				return
			}
		}
		b.issuePair(w, account)
	}
}

// LogoutHandler blacklists the refresh token in the body, if any
func (b *Backend) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body refreshBody
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Refresh != "" {
			b.tokens.Delete(body.Refresh)
		}
		writeJSON(w, http.StatusOK, map[string]string{"detail": "Logged out."})
	}
}

func (b *Backend) ProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account := accountFrom(r.Context())

		results := []quizapi.QuizResult{}
		for _, stored := range b.resultsFor(account.ID) {
			submitted := stored.DateTaken
			results = append(results, quizapi.QuizResult{
				ID:          stored.ID,
				Quiz:        stored.Quiz,
				QuizTitle:   stored.QuizTitle,
				Score:       stored.Score,
				SubmittedAt: &submitted,
			})
		}
		writeJSON(w, http.StatusOK, quizapi.Profile{
			User:        b.userView(account),
			QuizResults: results,
		})
	}
}

// QuizListHandler supports the type and timed query filters
func (b *Backend) QuizListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quizType := r.URL.Query().Get("type")
		timedOnly := strings.EqualFold(r.URL.Query().Get("timed"), "true")

		b.mu.Lock()
		quizzes := []quizapi.Quiz{}
		for _, q := range b.quizzes {
			if quizType != "" && q.QuizType != quizType {
				continue
			}
			if timedOnly && q.TimeLimit == 0 {
				continue
			}
			quizzes = append(quizzes, q)
		}
		b.mu.Unlock()

		writeJSON(w, http.StatusOK, quizzes)
	}
}

func (b *Backend) QuizDetailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(r.PathValue("id"))
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
			return
		}
		quiz, ok := b.findQuiz(id)
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
			return
		}
		writeJSON(w, http.StatusOK, quiz)
	}
}

// SubmitHandler scores the answers and stores the result
func (b *Backend) SubmitHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account := accountFrom(r.Context())

		var body submitBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "JSON parse error"})
			return
		}
		quiz, ok := b.findQuiz(body.QuizID)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string][]string{"non_field_errors": {"Quiz not found."}})
			return
		}
		writeJSON(w, http.StatusCreated, b.storeResult(account.ID, quiz, body.Answers))
	}
}

func (b *Backend) ResultListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account := accountFrom(r.Context())
		results := []quizapi.Result{}
		for _, stored := range b.resultsFor(account.ID) {
			results = append(results, stored.Result)
		}
		writeJSON(w, http.StatusOK, results)
	}
}

func (b *Backend) PremiumStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account := accountFrom(r.Context())
		until := b.premiumUntil(account)
		writeJSON(w, http.StatusOK, quizapi.PremiumStatus{
			IsPremium:    b.isPremium(until),
			PremiumUntil: until,
		})
	}
}

// ActivatePremiumHandler extends an active subscription or starts a new one
func (b *Backend) ActivatePremiumHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account := accountFrom(r.Context())

		now := b.nowFunc().UTC()
		until := now.AddDate(0, 0, premiumDays)
		if current := b.premiumUntil(account); current != nil && current.After(now) {
			until = current.AddDate(0, 0, premiumDays)
		}
		b.accounts.activatePremium(account.ID, until)

		writeJSON(w, http.StatusOK, quizapi.PremiumStatus{
			Message:      "Premium activated!",
			IsPremium:    true,
			PremiumUntil: &until,
		})
	}
}

func (b *Backend) issuePair(w http.ResponseWriter, account *account) {
	access, err := b.issueAccessToken(account)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": err.Error()})
		return
	}
	refresh, err := b.createRefreshToken(account)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": err.Error()})
		return
	}
	user := b.userView(account)
	writeJSON(w, http.StatusOK, map[string]any{
		"access":  access,
		"refresh": refresh,
		"user":    user,
	})
}

func (b *Backend) premiumUntil(account *account) *time.Time {
	b.accounts.lock.RLock()
	defer b.accounts.lock.RUnlock()
	if account.PremiumUntil == nil {
		return nil
	}
	until := *account.PremiumUntil
	return &until
}

func (b *Backend) isPremium(until *time.Time) bool {
	return until != nil && until.After(b.nowFunc())
}

func (b *Backend) userView(account *account) quizapi.User {
	return quizapi.User{
		ID:           account.ID,
		Username:     account.Username,
		Email:        account.Email,
		IsPremium:    b.isPremium(b.premiumUntil(account)),
		AuthProvider: account.AuthProvider,
	}
}
