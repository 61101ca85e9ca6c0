package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/zuvy/assess/internal/assessment"
	"github.com/zuvy/assess/internal/session"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email         string `json:"email"`
	GoogleIDToken string `json:"googleIdToken"`
}

// LoginResponse carries the token pair and the signed-in user.
type LoginResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	User         assessment.User `json:"user"`
}

// Login exchanges a Google ID token for backend tokens. The caller decides
// where to persist them.
func (c *Client) Login(ctx context.Context, email, idToken string) (*LoginResponse, error) {
	var out LoginResponse
	err := c.do(ctx, http.MethodPost, c.apiURL, loginPath, LoginRequest{Email: email, GoogleIDToken: idToken}, &out)
	if err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, fmt.Errorf("login response carried no access token")
	}
	return &out, nil
}

// Logout tells the backend to drop the session and clears local tokens
// even if the call fails.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, c.apiURL, logoutPath, nil, nil)
	if clearErr := c.tokens.Clear(ctx); clearErr != nil && err == nil {
		err = clearErr
	}
	return err
}

func bootcampQuery(bootcampID int) url.Values {
	if bootcampID <= 0 {
		return nil
	}
	return url.Values{"bootcampId": {strconv.Itoa(bootcampID)}}
}

// Assessments lists assessment configurations, optionally for one bootcamp.
func (c *Client) Assessments(ctx context.Context, bootcampID int) ([]assessment.Assessment, error) {
	var out []assessment.Assessment
	if err := c.do(ctx, http.MethodGet, c.llmURL, withQuery("/ai-assessment", bootcampQuery(bootcampID)), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateAssessment validates req locally and creates the assessment. A
// validation failure is returned as assessment.ValidationErrors and
// nothing is sent.
func (c *Client) CreateAssessment(ctx context.Context, req assessment.CreateRequest) (*assessment.Assessment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var out assessment.Assessment
	if err := c.do(ctx, http.MethodPost, c.llmURL, "/ai-assessment", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StudentAssessments lists the signed-in student's assessments with their
// submission status.
func (c *Client) StudentAssessments(ctx context.Context, bootcampID int) ([]assessment.StudentAssessment, error) {
	var out []assessment.StudentAssessment
	path := withQuery("/ai-assessment/by/studentId", bootcampQuery(bootcampID))
	if err := c.do(ctx, http.MethodGet, c.llmURL, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Questions fetches the generated questions of an assessment.
func (c *Client) Questions(ctx context.Context, assessmentID int) (*assessment.QuestionsPage, error) {
	var raw json.RawMessage
	path := withQuery("/questions-by-llm", url.Values{"aiAssessmentId": {strconv.Itoa(assessmentID)}})
	if err := c.do(ctx, http.MethodGet, c.llmURL, path, nil, &raw); err != nil {
		return nil, err
	}
	return DecodeQuestionsPage(raw)
}

// DecodeQuestionsPage accepts the canonical {questions, isCompleted} object
// and the deprecated bare array of questions.
func DecodeQuestionsPage(data []byte) (*assessment.QuestionsPage, error) {
	data = bytes.TrimSpace(data)
	var page assessment.QuestionsPage
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return &page, nil
	}
	if data[0] == '[' {
		if err := json.Unmarshal(data, &page.Questions); err != nil {
			return nil, fmt.Errorf("decode questions: %w", err)
		}
		return &page, nil
	}
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	return &page, nil
}

// Submit posts the reconciled answers of an attempt.
func (c *Client) Submit(ctx context.Context, sub session.Submission) error {
	return c.do(ctx, http.MethodPost, c.llmURL, "/ai-assessment/submit", sub, nil)
}

// Evaluations fetches the evaluated answers of a student for an assessment.
func (c *Client) Evaluations(ctx context.Context, userID string, assessmentID int) ([]assessment.Evaluation, error) {
	if userID == "" {
		return nil, fmt.Errorf("user ID is required")
	}
	var out []assessment.Evaluation
	path := fmt.Sprintf("/questions-by-llm/evaluation/%s/%d", url.PathEscape(userID), assessmentID)
	if err := c.do(ctx, http.MethodGet, c.llmURL, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
