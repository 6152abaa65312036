package quizapi

import "time"

// Quiz type codes used by the backend
const (
	QuizTypeNumerical  = "NUM"
	QuizTypeVerbal     = "VER"
	QuizTypeGeneral    = "GEN"
	QuizTypeAnalytical = "ANA"
	QuizTypeClerical   = "CLE"
)

type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	IsPremium    bool   `json:"is_premium"`
	AuthProvider string `json:"auth_provider,omitempty"`
}

type Profile struct {
	User        User         `json:"user"`
	QuizResults []QuizResult `json:"quiz_results"`
}

// QuizResult is a past attempt as listed on the profile
type QuizResult struct {
	ID          int        `json:"id"`
	Quiz        int        `json:"quiz"`
	QuizTitle   string     `json:"quiz_title,omitempty"`
	Score       float64    `json:"score"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
}

type Choice struct {
	ID        int    `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

type Question struct {
	ID           int      `json:"id"`
	Text         string   `json:"text"`
	Explanation  string   `json:"explanation,omitempty"`
	QuestionType string   `json:"question_type,omitempty"`
	Choices      []Choice `json:"choices"`
}

type Passage struct {
	ID        int        `json:"id"`
	Title     string     `json:"title"`
	Text      string     `json:"text"`
	Questions []Question `json:"questions"`
}

type Quiz struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	QuizType    string     `json:"quiz_type"`
	TimeLimit   int        `json:"time_limit"` // minutes, 0 for untimed
	Passages    []Passage  `json:"passages"`
	Questions   []Question `json:"questions"`
}

// QuizFilter narrows ListQuizzes; the zero value lists everything
type QuizFilter struct {
	Type      string
	TimedOnly bool
}

// SubmitRequest maps question ids to the chosen choice id
type SubmitRequest struct {
	QuizID  int            `json:"quiz_id"`
	Answers map[string]int `json:"answers"`
}

type Result struct {
	ID             int       `json:"id"`
	User           *int      `json:"user"`
	Quiz           int       `json:"quiz"`
	Score          float64   `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	DateTaken      time.Time `json:"date_taken"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
}

type PremiumStatus struct {
	IsPremium    bool       `json:"is_premium"`
	PremiumUntil *time.Time `json:"premium_until"`
	Message      string     `json:"message,omitempty"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type googleLoginRequest struct {
	Credential string `json:"credential"`
}

type tokenResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	User    *User  `json:"user,omitempty"`
}

type logoutRequest struct {
	Refresh string `json:"refresh,omitempty"`
}
