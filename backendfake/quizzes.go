package backendfake

import (
	"strconv"
	"time"

	"github.com/jrsteele09/go-quiz-session/quizapi"
)

type storedResult struct {
	quizapi.Result
	QuizTitle string
}

// DefaultQuizzes is the catalogue served when no quizzes are configured.
// Choice ids are unique across the catalogue and the correct choice of each
// question is the lowest id.
func DefaultQuizzes() []quizapi.Quiz {
	return []quizapi.Quiz{
		{
			ID:          1,
			Title:       "Number Sequences",
			Description: "Spot the next number in the pattern.",
			QuizType:    quizapi.QuizTypeNumerical,
			TimeLimit:   10,
			Questions: []quizapi.Question{
				{
					ID:   101,
					Text: "2, 4, 8, 16, ?",
					Choices: []quizapi.Choice{
						{ID: 1001, Text: "32", IsCorrect: true},
						{ID: 1002, Text: "24"},
						{ID: 1003, Text: "20"},
					},
				},
				{
					ID:   102,
					Text: "1, 1, 2, 3, 5, ?",
					Choices: []quizapi.Choice{
						{ID: 1004, Text: "8", IsCorrect: true},
						{ID: 1005, Text: "7"},
						{ID: 1006, Text: "6"},
					},
				},
			},
		},
		{
			ID:          2,
			Title:       "Word Meanings",
			Description: "Pick the closest synonym.",
			QuizType:    quizapi.QuizTypeVerbal,
			Passages: []quizapi.Passage{
				{
					ID:    11,
					Title: "Vocabulary",
					Text:  "Choose the word closest in meaning.",
					Questions: []quizapi.Question{
						{
							ID:   201,
							Text: "Rapid",
							Choices: []quizapi.Choice{
								{ID: 2001, Text: "Quick", IsCorrect: true},
								{ID: 2002, Text: "Slow"},
							},
						},
					},
				},
			},
			Questions: []quizapi.Question{
				{
					ID:   202,
					Text: "Candid",
					Choices: []quizapi.Choice{
						{ID: 2003, Text: "Frank", IsCorrect: true},
						{ID: 2004, Text: "Secretive"},
					},
				},
			},
		},
		{
			ID:          3,
			Title:       "General Knowledge",
			Description: "A little bit of everything.",
			QuizType:    quizapi.QuizTypeGeneral,
			Questions: []quizapi.Question{
				{
					ID:   301,
					Text: "How many minutes are in an hour?",
					Choices: []quizapi.Choice{
						{ID: 3001, Text: "60", IsCorrect: true},
						{ID: 3002, Text: "100"},
					},
				},
			},
		},
	}
}

// allQuestions lists a quiz's own questions followed by its passage questions
func allQuestions(quiz quizapi.Quiz) []quizapi.Question {
	questions := append([]quizapi.Question(nil), quiz.Questions...)
	for _, p := range quiz.Passages {
		questions = append(questions, p.Questions...)
	}
	return questions
}

// score grades answers the way the results endpoint does: unanswered and
// unknown choices count as wrong.
func score(quiz quizapi.Quiz, answers map[string]int) (float64, int) {
	questions := allQuestions(quiz)
	if len(questions) == 0 {
		return 0, 0
	}
	correct := 0
	for _, q := range questions {
		chosen, ok := answers[strconv.Itoa(q.ID)]
		if !ok {
			continue
		}
		for _, c := range q.Choices {
			if c.ID == chosen && c.IsCorrect {
				correct++
			}
		}
	}
	return float64(correct) / float64(len(questions)) * 100, len(questions)
}

func (b *Backend) findQuiz(id int) (quizapi.Quiz, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, q := range b.quizzes {
		if q.ID == id {
			return q, true
		}
	}
	return quizapi.Quiz{}, false
}

func (b *Backend) storeResult(userID int, quiz quizapi.Quiz, answers map[string]int) quizapi.Result {
	pct, total := score(quiz, answers)

	b.mu.Lock()
	defer b.mu.Unlock()
	uid := userID
	result := quizapi.Result{
		ID:             len(b.results) + 1,
		User:           &uid,
		Quiz:           quiz.ID,
		Score:          pct,
		TotalQuestions: total,
		DateTaken:      b.nowFunc().UTC().Truncate(time.Second),
	}
	b.results = append(b.results, storedResult{Result: result, QuizTitle: quiz.Title})
	return result
}

func (b *Backend) resultsFor(userID int) []storedResult {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []storedResult
	for _, r := range b.results {
		if r.User != nil && *r.User == userID {
			out = append(out, r)
		}
	}
	return out
}
