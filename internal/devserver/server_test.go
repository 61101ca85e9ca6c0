package devserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zuvy/assess/internal/api"
	"github.com/zuvy/assess/internal/assessment"
	"github.com/zuvy/assess/internal/logging"
	"github.com/zuvy/assess/internal/results"
	"github.com/zuvy/assess/internal/session"
)

const adminEmail = "admin@zuvy.org"

func init() {
	gin.SetMode(gin.TestMode)
}

// testClock is a shiftable clock for token expiry.
type testClock struct {
	offset atomic.Int64
}

func (c *testClock) Now() time.Time           { return time.Now().Add(time.Duration(c.offset.Load())) }
func (c *testClock) Advance(d time.Duration) { c.offset.Add(int64(d)) }

type testEnv struct {
	srv   *Server
	http  *httptest.Server
	clock *testClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	srv, err := New(Options{AdminEmails: []string{adminEmail}}, NewMemoryRepository(), nil, logging.Discard())
	require.NoError(t, err)
	clock := &testClock{}
	srv.tokens.now = clock.Now
	hs := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		hs.Close()
		srv.Close()
	})
	return &testEnv{srv: srv, http: hs, clock: clock}
}

// signIn returns a client holding tokens for email.
func (e *testEnv) signIn(t *testing.T, email string) (*api.Client, assessment.User) {
	t.Helper()
	tokens := api.NewMemoryTokens("", "")
	client := api.New(e.http.URL, e.http.URL, api.WithTokenStore(tokens), api.WithLogger(logging.Discard()))
	resp, err := client.Login(context.Background(), email, "google-id-token")
	require.NoError(t, err)
	require.NoError(t, tokens.SetTokens(context.Background(), resp.AccessToken, resp.RefreshToken))
	return client, resp.User
}

func (e *testEnv) createAssessment(t *testing.T, admin *api.Client, topics map[string]int) *assessment.Assessment {
	t.Helper()
	total := 0
	for _, n := range topics {
		total += n
	}
	start := time.Now().Add(-time.Hour)
	a, err := admin.CreateAssessment(context.Background(), assessment.CreateRequest{
		BootcampID:             7,
		Title:                  "Week 3 check-in",
		Description:            "Arrays and strings",
		Topics:                 topics,
		TotalNumberOfQuestions: total,
		StartDatetime:          start,
		EndDatetime:            start.Add(48 * time.Hour),
	})
	require.NoError(t, err)
	e.srv.WaitIdle()
	return a
}

func postJSON(t *testing.T, url, token string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestLoginAssignsRoles(t *testing.T) {
	env := newTestEnv(t)
	_, admin := env.signIn(t, "Admin@Zuvy.org")
	_, student := env.signIn(t, "asha@example.com")
	_, again := env.signIn(t, "asha@example.com")

	assert.True(t, admin.HasRole(roleAdmin))
	assert.True(t, student.HasRole(roleStudent))
	assert.Equal(t, "asha", student.Name)
	assert.Equal(t, student.ID, again.ID, "same email keeps its account")
	assert.NotEqual(t, admin.ID, student.ID)
}

func TestLoginRejectsMissingToken(t *testing.T) {
	env := newTestEnv(t)
	resp := postJSON(t, env.http.URL+"/auth/login", "", map[string]string{"email": "asha@example.com"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateAssessmentRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	student, _ := env.signIn(t, "asha@example.com")
	start := time.Now()
	_, err := student.CreateAssessment(context.Background(), assessment.CreateRequest{
		BootcampID: 7, Title: "t", Description: "d", Topics: map[string]int{"Loops": 1},
		TotalNumberOfQuestions: 1, StartDatetime: start, EndDatetime: start.Add(time.Hour),
	})
	assert.True(t, api.IsStatus(err, http.StatusForbidden), "got %v", err)
}

func TestCreateAssessmentValidation(t *testing.T) {
	env := newTestEnv(t)
	resp := postJSON(t, env.http.URL+"/auth/login", "", map[string]string{"email": adminEmail, "googleIdToken": "x"})
	var login struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&login))
	resp.Body.Close()

	start := time.Now()
	resp = postJSON(t, env.http.URL+"/ai-assessment", login.AccessToken, map[string]any{
		"bootcampId":    7,
		"title":         "",
		"description":   "d",
		"topics":        map[string]int{"Loops": 0},
		"startDatetime": start,
		"endDatetime":   start.Add(-time.Hour),
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body struct {
		Message []string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body.Message)
}

func TestAssessmentLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin, _ := env.signIn(t, adminEmail)
	student, user := env.signIn(t, "asha@example.com")

	created := env.createAssessment(t, admin, map[string]int{"Arrays": 2, "Strings": 1})
	assert.Equal(t, 3, created.TotalNumberOfQuestions)

	list, err := student.StudentAssessments(ctx, 7)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, list[0].Submitted())

	page, err := student.Questions(ctx, created.ID)
	require.NoError(t, err)
	require.False(t, page.IsCompleted)
	require.Len(t, page.Questions, 3)
	for _, q := range page.Questions {
		assert.Len(t, q.Options, 4)
		assert.NotZero(t, q.CorrectOption.ID)
	}

	// First answered correctly, second wrong, third skipped.
	q0, q1, q2 := page.Questions[0], page.Questions[1], page.Questions[2]
	var wrong assessment.Option
	for _, o := range q1.Options {
		if o.ID != q1.CorrectOption.ID {
			wrong = o
			break
		}
	}
	correct := q0.CorrectOption
	sub := session.Submission{
		AIAssessmentID: created.ID,
		Answers: []session.AnswerEntry{
			{ID: q0.ID, Question: q0.Question, Topic: q0.Topic, Options: q0.Options, Selected: &correct},
			{ID: q1.ID, Question: q1.Question, Topic: q1.Topic, Options: q1.Options, Selected: &wrong},
			{ID: q2.ID, Question: q2.Question, Topic: q2.Topic, Options: q2.Options},
		},
	}
	require.NoError(t, student.Submit(ctx, sub))

	err = student.Submit(ctx, sub)
	assert.True(t, api.IsStatus(err, http.StatusConflict), "got %v", err)

	evals, err := student.Evaluations(ctx, user.ID, created.ID)
	require.NoError(t, err)
	require.Len(t, evals, 3)
	assert.Equal(t, session.NoAnswer, evals[2].QuestionEvaluation.SelectedAnswerByStudent)

	stats := results.ComputeStats(evals)
	assert.Equal(t, 1, stats.Correct)
	assert.Equal(t, 33, stats.Score)
	assert.False(t, stats.Passed)
	assert.NotEmpty(t, stats.Summary)
	assert.NotEmpty(t, stats.Recommendations)
	assert.NotEmpty(t, evals[0].QuestionEvaluation.Explanation)

	list, err = student.StudentAssessments(ctx, 7)
	require.NoError(t, err)
	assert.True(t, list[0].Submitted())

	page, err = student.Questions(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, page.IsCompleted)
}

func TestSubmitScoresAgainstStoredAnswers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin, _ := env.signIn(t, adminEmail)
	student, user := env.signIn(t, "asha@example.com")
	created := env.createAssessment(t, admin, map[string]int{"Loops": 1})

	page, err := student.Questions(ctx, created.ID)
	require.NoError(t, err)
	q := page.Questions[0]
	foreign := assessment.Option{ID: 99999, QuestionID: q.ID, OptionText: "made up"}
	require.NoError(t, student.Submit(ctx, session.Submission{
		AIAssessmentID: created.ID,
		Answers:        []session.AnswerEntry{{ID: q.ID, CorrectOption: foreign.ID, Selected: &foreign}},
	}))

	evals, err := student.Evaluations(ctx, user.ID, created.ID)
	require.NoError(t, err)
	require.Len(t, evals, 1)
	assert.Equal(t, session.NoAnswer, evals[0].QuestionEvaluation.SelectedAnswerByStudent)
	assert.Equal(t, q.CorrectOption.ID, evals[0].CorrectOptionID)
	assert.False(t, evals[0].Correct())
}

func TestSubmitUnknownAssessment(t *testing.T) {
	env := newTestEnv(t)
	student, _ := env.signIn(t, "asha@example.com")
	err := student.Submit(context.Background(), session.Submission{
		AIAssessmentID: 42,
		Answers:        []session.AnswerEntry{{ID: 1}},
	})
	assert.True(t, api.IsStatus(err, http.StatusNotFound), "got %v", err)
}

func TestEvaluationsOfAnotherStudentForbidden(t *testing.T) {
	env := newTestEnv(t)
	student, _ := env.signIn(t, "asha@example.com")
	_, other := env.signIn(t, "ravi@example.com")
	_, err := student.Evaluations(context.Background(), other.ID, 1)
	assert.True(t, api.IsStatus(err, http.StatusForbidden), "got %v", err)

	admin, _ := env.signIn(t, adminEmail)
	evals, err := admin.Evaluations(context.Background(), other.ID, 1)
	require.NoError(t, err)
	assert.Empty(t, evals)
}

func TestExpiredAccessTokenIsRefreshed(t *testing.T) {
	env := newTestEnv(t)
	tokens := api.NewMemoryTokens("", "")
	client := api.New(env.http.URL, env.http.URL, api.WithTokenStore(tokens), api.WithLogger(logging.Discard()))
	resp, err := client.Login(context.Background(), "asha@example.com", "google-id-token")
	require.NoError(t, err)
	require.NoError(t, tokens.SetTokens(context.Background(), resp.AccessToken, resp.RefreshToken))

	env.clock.Advance(time.Hour)
	_, err = client.Assessments(context.Background(), 0)
	require.NoError(t, err)

	access, refresh, _ := tokens.Tokens(context.Background())
	assert.NotEqual(t, resp.AccessToken, access)
	assert.NotEqual(t, resp.RefreshToken, refresh)

	// The rotated refresh token cannot be replayed.
	old := postJSON(t, env.http.URL+"/auth/refresh", "", map[string]string{"refresh_token": resp.RefreshToken})
	old.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, old.StatusCode)
}

func TestExpiredRefreshTokenExpiresSession(t *testing.T) {
	env := newTestEnv(t)
	var expired atomic.Int32
	tokens := api.NewMemoryTokens("", "")
	client := api.New(env.http.URL, env.http.URL,
		api.WithTokenStore(tokens),
		api.WithLogger(logging.Discard()),
		api.WithSessionEvents(api.SessionEventsFunc(func(error) { expired.Add(1) })))
	resp, err := client.Login(context.Background(), "asha@example.com", "google-id-token")
	require.NoError(t, err)
	require.NoError(t, tokens.SetTokens(context.Background(), resp.AccessToken, resp.RefreshToken))

	env.clock.Advance(8 * 24 * time.Hour)
	_, err = client.Assessments(context.Background(), 0)
	assert.ErrorIs(t, err, api.ErrSessionExpired)
	assert.Equal(t, int32(1), expired.Load())
}

func TestLogoutRevokesAccessToken(t *testing.T) {
	env := newTestEnv(t)
	tokens := api.NewMemoryTokens("", "")
	client := api.New(env.http.URL, env.http.URL, api.WithTokenStore(tokens), api.WithLogger(logging.Discard()))
	resp, err := client.Login(context.Background(), "asha@example.com", "google-id-token")
	require.NoError(t, err)
	require.NoError(t, tokens.SetTokens(context.Background(), resp.AccessToken, resp.RefreshToken))

	require.NoError(t, client.Logout(context.Background()))

	req, err := http.NewRequest(http.MethodGet, env.http.URL+"/ai-assessment", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+resp.AccessToken)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestRefreshTokenIsNotAnAccessToken(t *testing.T) {
	env := newTestEnv(t)
	resp := postJSON(t, env.http.URL+"/auth/login", "", map[string]string{"email": "asha@example.com", "googleIdToken": "x"})
	var pair TokenPair
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pair))
	resp.Body.Close()

	req, err := http.NewRequest(http.MethodGet, env.http.URL+"/ai-assessment", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+pair.RefreshToken)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}
