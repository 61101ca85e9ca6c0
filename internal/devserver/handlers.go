package devserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/zuvy/assess/internal/assessment"
	"github.com/zuvy/assess/internal/session"
)

func (s *Server) routes(r *gin.Engine) {
	r.GET("/health", s.health)

	auth := r.Group("/auth")
	{
		auth.POST("/login", s.login)
		auth.POST("/refresh", s.refresh)
		auth.POST("/logout", s.requireAuth(), s.logout)
	}

	authed := r.Group("", s.requireAuth())
	{
		authed.GET("/ai-assessment", s.listAssessments)
		authed.POST("/ai-assessment", requireAdmin(), s.createAssessment)
		authed.GET("/ai-assessment/by/studentId", s.studentAssessments)
		authed.POST("/ai-assessment/submit", s.submit)
		authed.GET("/questions-by-llm", s.questions)
		authed.GET("/questions-by-llm/evaluation/:userId/:assessmentId", s.evaluations)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
}

func bootcampParam(c *gin.Context) (int, bool) {
	raw := c.Query("bootcampId")
	if raw == "" {
		return 0, true
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		abortMessage(c, http.StatusBadRequest, "bootcampId must be a number")
		return 0, false
	}
	return id, true
}

func (s *Server) listAssessments(c *gin.Context) {
	bootcampID, ok := bootcampParam(c)
	if !ok {
		return
	}
	list, err := s.repo.Assessments(c.Request.Context(), bootcampID)
	if err != nil {
		s.internalError(c, "list assessments", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) createAssessment(c *gin.Context) {
	var req assessment.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if err := req.Validate(); err != nil {
		var verrs assessment.ValidationErrors
		if errors.As(err, &verrs) {
			abortMessage(c, http.StatusBadRequest, verrs.Messages())
			return
		}
		abortMessage(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()
	id, err := s.repo.NextID(ctx, "assessment")
	if err != nil {
		s.internalError(c, "allocate assessment id", err)
		return
	}
	now := time.Now().UTC()
	a := assessment.Assessment{
		ID:                       id,
		BootcampID:               req.BootcampID,
		Title:                    req.Title,
		Description:              req.Description,
		Difficulty:               s.difficulty,
		Topics:                   req.Topics,
		TotalNumberOfQuestions:   req.TotalNumberOfQuestions,
		TotalQuestionsWithBuffer: topicTotal(req.Topics),
		StartDatetime:            req.StartDatetime,
		EndDatetime:              req.EndDatetime,
		CreatedAt:                now,
		UpdatedAt:                now,
	}
	if err := s.repo.SaveAssessment(ctx, a); err != nil {
		s.internalError(c, "save assessment", err)
		return
	}
	if err := s.repo.SaveQuestions(ctx, a.ID, QuestionSet{}); err != nil {
		s.internalError(c, "save questions", err)
		return
	}

	s.background.Add(1)
	go func() {
		defer s.background.Done()
		s.generateQuestions(s.baseCtx, a)
	}()

	s.logger.Info("assessment created", "assessment_id", a.ID, "bootcamp_id", a.BootcampID, "topics", len(a.Topics))
	c.JSON(http.StatusCreated, a)
}

func topicTotal(topics map[string]int) int {
	total := 0
	for _, n := range topics {
		total += n
	}
	return total
}

func (s *Server) studentAssessments(c *gin.Context) {
	bootcampID, ok := bootcampParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	list, err := s.repo.Assessments(ctx, bootcampID)
	if err != nil {
		s.internalError(c, "list assessments", err)
		return
	}
	userID := currentClaims(c).UserID
	out := make([]assessment.StudentAssessment, 0, len(list))
	for _, a := range list {
		sa := assessment.StudentAssessment{Assessment: a}
		submitted, err := s.repo.Submitted(ctx, userID, a.ID)
		if err != nil {
			s.internalError(c, "check submission", err)
			return
		}
		if submitted {
			sa.Status = assessment.StatusSubmitted
		}
		out = append(out, sa)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) questions(c *gin.Context) {
	id, err := strconv.Atoi(c.Query("aiAssessmentId"))
	if err != nil || id <= 0 {
		abortMessage(c, http.StatusBadRequest, "aiAssessmentId must be a positive number")
		return
	}
	ctx := c.Request.Context()
	if _, err := s.repo.Assessment(ctx, id); err != nil {
		s.notFoundOr(c, "load assessment", err, "Assessment not found")
		return
	}
	set, err := s.repo.Questions(ctx, id)
	if errors.Is(err, ErrNotFound) {
		set = &QuestionSet{}
	} else if err != nil {
		s.internalError(c, "load questions", err)
		return
	}
	submitted, err := s.repo.Submitted(ctx, currentClaims(c).UserID, id)
	if err != nil {
		s.internalError(c, "check submission", err)
		return
	}
	// Questions are withheld until generation has finished.
	page := assessment.QuestionsPage{
		Questions:   make([]assessment.Question, 0, len(set.Questions)),
		IsCompleted: submitted,
	}
	if set.Completed {
		for _, q := range set.Questions {
			page.Questions = append(page.Questions, q.Question)
		}
	}
	c.JSON(http.StatusOK, page)
}

// submitCheck holds the fields of a submission that the server requires.
type submitCheck struct {
	AssessmentID int `validate:"gt=0"`
	Answers      int `validate:"gt=0"`
}

var submitValidator = validator.New()

func (s *Server) submit(c *gin.Context) {
	var sub session.Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		respondBindError(c, err)
		return
	}
	if err := submitValidator.Struct(submitCheck{AssessmentID: sub.AIAssessmentID, Answers: len(sub.Answers)}); err != nil {
		respondBindError(c, err)
		return
	}

	ctx := c.Request.Context()
	if _, err := s.repo.Assessment(ctx, sub.AIAssessmentID); err != nil {
		s.notFoundOr(c, "load assessment", err, "Assessment not found")
		return
	}
	userID := currentClaims(c).UserID
	now := time.Now().UTC()
	err := s.repo.SaveSubmission(ctx, SubmissionRecord{UserID: userID, Submission: sub, SubmittedAt: now})
	if errors.Is(err, ErrAlreadySubmitted) {
		abortMessage(c, http.StatusConflict, "Assessment already submitted")
		return
	}
	if err != nil {
		s.internalError(c, "save submission", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.evaluateTimeout)
	defer cancel()
	if err := s.pipeline.publish(ctx, SubmittedEvent{UserID: userID, Submission: sub, SubmittedAt: now}); err != nil {
		s.internalError(c, "evaluate submission", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Assessment submitted successfully"})
}

func (s *Server) evaluations(c *gin.Context) {
	userID := c.Param("userId")
	assessmentID, err := strconv.Atoi(c.Param("assessmentId"))
	if err != nil {
		abortMessage(c, http.StatusBadRequest, "assessmentId must be a number")
		return
	}
	claims := currentClaims(c)
	if claims.UserID != userID && !claims.User().HasRole(roleAdmin) {
		abortMessage(c, http.StatusForbidden, "Cannot read another student's evaluation")
		return
	}
	evals, err := s.repo.Evaluations(c.Request.Context(), userID, assessmentID)
	if errors.Is(err, ErrNotFound) {
		evals = []assessment.Evaluation{}
	} else if err != nil {
		s.internalError(c, "load evaluations", err)
		return
	}
	c.JSON(http.StatusOK, evals)
}

func (s *Server) notFoundOr(c *gin.Context, op string, err error, message string) {
	if errors.Is(err, ErrNotFound) {
		abortMessage(c, http.StatusNotFound, message)
		return
	}
	s.internalError(c, op, err)
}
