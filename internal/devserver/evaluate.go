package devserver

import (
	"context"
	"fmt"
	"strconv"

	"github.com/zuvy/assess/internal/assessment"
	"github.com/zuvy/assess/internal/results"
	"github.com/zuvy/assess/internal/session"
)

const statusEvaluated = "evaluated"

// evaluateSubmission scores ev against the stored questions. The client's
// correctOption is ignored; a selection that is not one of the stored
// question's options counts as unanswered.
func (s *Server) evaluateSubmission(ctx context.Context, ev SubmittedEvent) error {
	aid := ev.Submission.AIAssessmentID
	set, err := s.repo.Questions(ctx, aid)
	if err != nil {
		return fmt.Errorf("load questions of assessment %d: %w", aid, err)
	}
	stored := make(map[int]StoredQuestion, len(set.Questions))
	for _, q := range set.Questions {
		stored[q.ID] = q
	}

	studentID, _ := strconv.Atoi(ev.UserID)
	status := statusEvaluated
	evals := make([]assessment.Evaluation, 0, len(ev.Submission.Answers))
	for _, entry := range ev.Submission.Answers {
		q, ok := stored[entry.ID]
		if !ok {
			s.logger.Warn("submitted question not in assessment", "assessment_id", aid, "question_id", entry.ID)
			continue
		}
		id, err := s.repo.NextID(ctx, "evaluation")
		if err != nil {
			return err
		}
		evals = append(evals, assessment.Evaluation{
			QuestionEvaluation: assessment.QuestionEvaluation{
				ID:                      id,
				AIAssessmentID:          aid,
				QuestionID:              q.ID,
				Question:                q.Question.Question,
				Topic:                   q.Topic,
				Difficulty:              q.Difficulty,
				Options:                 q.Options,
				SelectedAnswerByStudent: selectedOption(q, entry),
				Language:                q.Language,
				Status:                  &status,
				Explanation:             q.Explanation,
				StudentID:               studentID,
				CreatedAt:               ev.SubmittedAt,
				UpdatedAt:               ev.SubmittedAt,
			},
			CorrectOptionID: q.CorrectOption.ID,
		})
	}

	stats := results.ComputeStats(evals)
	source := s.coach.Complete(ctx, &stats, results.Review(evals))
	for i := range evals {
		evals[i].QuestionEvaluation.Summary = stats.Summary
		evals[i].QuestionEvaluation.Recommendations = stats.Recommendations
	}
	s.logger.Debug("evaluation narrative", "assessment_id", aid, "source", source.String(), "score", stats.Score)

	return s.repo.SaveEvaluations(ctx, ev.UserID, aid, evals)
}

func selectedOption(q StoredQuestion, entry session.AnswerEntry) int {
	if entry.Selected == nil {
		return session.NoAnswer
	}
	for _, o := range q.Options {
		if o.ID == entry.Selected.ID {
			return o.ID
		}
	}
	return session.NoAnswer
}
