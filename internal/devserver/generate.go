package devserver

import (
	"context"
	"sort"
	"time"

	"github.com/zuvy/assess/internal/assessment"
	"github.com/zuvy/assess/internal/coach"
)

// generateQuestions fills the question set of a, one topic at a time,
// saving after each topic. The set is served once Completed is set.
func (s *Server) generateQuestions(ctx context.Context, a assessment.Assessment) {
	topics := make([]string, 0, len(a.Topics))
	for t := range a.Topics {
		topics = append(topics, t)
	}
	sort.Strings(topics)

	var set QuestionSet
	var prior []string
	for _, topic := range topics {
		generated := s.coach.Questions(ctx, coach.QuestionRequest{
			Topic:      topic,
			Count:      a.Topics[topic],
			Difficulty: a.Difficulty,
			Language:   s.language,
			Prior:      prior,
		})
		for _, g := range generated {
			q, err := s.storeQuestion(ctx, a.ID, topic, g)
			if err != nil {
				s.logger.Error("question generation aborted", "assessment_id", a.ID, "error", err)
				return
			}
			set.Questions = append(set.Questions, q)
			prior = append(prior, g.Text)
		}
		if err := s.repo.SaveQuestions(ctx, a.ID, set); err != nil {
			s.logger.Error("save questions", "assessment_id", a.ID, "error", err)
			return
		}
	}

	set.Completed = true
	if err := s.repo.SaveQuestions(ctx, a.ID, set); err != nil {
		s.logger.Error("save questions", "assessment_id", a.ID, "error", err)
		return
	}
	s.logger.Info("questions generated", "assessment_id", a.ID, "count", len(set.Questions))
}

// storeQuestion assigns ids to a generated question. Option numbers follow
// the generated order starting at 1.
func (s *Server) storeQuestion(ctx context.Context, assessmentID int, topic string, g coach.Question) (StoredQuestion, error) {
	id, err := s.repo.NextID(ctx, "question")
	if err != nil {
		return StoredQuestion{}, err
	}
	now := time.Now().UTC()
	q := StoredQuestion{
		Question: assessment.Question{
			ID:             id,
			AIAssessmentID: assessmentID,
			Question:       g.Text,
			Topic:          topic,
			Difficulty:     g.Difficulty,
			Language:       s.language,
			CreatedAt:      now,
			UpdatedAt:      now,
		},
		Explanation: g.Explanation,
	}
	for i, text := range g.Options {
		optID, err := s.repo.NextID(ctx, "option")
		if err != nil {
			return StoredQuestion{}, err
		}
		opt := assessment.Option{ID: optID, QuestionID: id, OptionText: text, OptionNumber: i + 1}
		q.Options = append(q.Options, opt)
		if i == g.Correct {
			q.CorrectOption = opt
		}
	}
	return q, nil
}
