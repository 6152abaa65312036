package quizapi

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
)

func (c *Client) ListQuizzes(ctx context.Context, filter QuizFilter) ([]Quiz, error) {
	query := url.Values{}
	if filter.Type != "" {
		query.Set("type", filter.Type)
	}
	if filter.TimedOnly {
		query.Set("timed", "true")
	}
	path := c.paths.GetQuizzesPath()
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var quizzes []Quiz
	if err := c.doJSON(ctx, call{client: c.public, method: http.MethodGet, path: path}, &quizzes); err != nil {
		return nil, err
	}
	return quizzes, nil
}

// GetQuiz returns one quiz. The backend samples its questions, so two calls
// may return different question sets.
func (c *Client) GetQuiz(ctx context.Context, id int) (*Quiz, error) {
	if id <= 0 {
		return nil, errors.New("quiz id is required")
	}
	var quiz Quiz
	path := c.paths.GetQuizzesPath() + strconv.Itoa(id) + "/"
	if err := c.doJSON(ctx, call{client: c.public, method: http.MethodGet, path: path}, &quiz); err != nil {
		return nil, err
	}
	return &quiz, nil
}

// SubmitQuiz sends answers for scoring and returns the stored result
func (c *Client) SubmitQuiz(ctx context.Context, req SubmitRequest) (*Result, error) {
	if req.QuizID <= 0 {
		return nil, errors.New("quiz id is required")
	}
	var result Result
	err := c.protected(ctx, call{
		method: http.MethodPost,
		path:   c.paths.GetSubmitPath(),
		body:   req,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListResults(ctx context.Context) ([]Result, error) {
	var results []Result
	if err := c.protected(ctx, call{method: http.MethodGet, path: c.paths.GetResultsPath()}, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Client) PremiumStatus(ctx context.Context) (*PremiumStatus, error) {
	var status PremiumStatus
	if err := c.protected(ctx, call{method: http.MethodGet, path: c.paths.GetPremiumStatusPath()}, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// ActivatePremium starts or extends a premium subscription
func (c *Client) ActivatePremium(ctx context.Context) (*PremiumStatus, error) {
	var status PremiumStatus
	if err := c.protected(ctx, call{method: http.MethodPost, path: c.paths.GetPremiumActivatePath()}, &status); err != nil {
		return nil, err
	}
	return &status, nil
}
