package session

import (
	"slices"
	"time"

	"github.com/zuvy/assess/internal/assessment"
)

// Total returns the number of questions in the attempt.
func (s *SessionState) Total() int {
	return len(s.Questions)
}

// CurrentQuestion returns the displayed question, or nil for an empty attempt.
func (s *SessionState) CurrentQuestion() *assessment.UIQuestion {
	if s.Current < 0 || s.Current >= len(s.Questions) {
		return nil
	}
	return &s.Questions[s.Current]
}

// IsFirst reports whether the first question is displayed.
func (s *SessionState) IsFirst() bool {
	return s.Current <= 0
}

// IsLast reports whether the last question is displayed.
func (s *SessionState) IsLast() bool {
	return s.Current >= len(s.Questions)-1
}

// GoNext advances one question; no-op on the last one.
func (s *SessionState) GoNext() {
	if s.Current < len(s.Questions)-1 {
		s.Current++
	}
}

// GoPrevious steps back one question; no-op on the first one.
func (s *SessionState) GoPrevious() {
	if s.Current > 0 {
		s.Current--
	}
}

// GoTo jumps to index. Out-of-range indices are ignored; the return value
// reports whether the jump happened.
func (s *SessionState) GoTo(index int) bool {
	if index < 0 || index >= len(s.Questions) {
		return false
	}
	s.Current = index
	return true
}

// SelectOption records a choice for the question at index. Single-answer
// questions keep exactly the latest choice; multi-answer questions toggle it.
// The index joins the answered set either way. Selection is ignored once the
// attempt left the in-progress phase or when index is out of range.
func (s *SessionState) SelectOption(index int, optionID string) {
	if s.Phase != PhaseInProgress || index < 0 || index >= len(s.Questions) {
		return
	}

	q := s.Questions[index]
	if q.Type == assessment.MultiAnswer {
		current := s.Selections[index]
		if i := slices.Index(current, optionID); i >= 0 {
			s.Selections[index] = slices.Delete(slices.Clone(current), i, i+1)
		} else {
			s.Selections[index] = append(slices.Clone(current), optionID)
		}
	} else {
		s.Selections[index] = []string{optionID}
	}

	s.Answered[index] = true
}

// Selected returns the selection list for index.
func (s *SessionState) Selected(index int) []string {
	return s.Selections[index]
}

// IsSelected reports whether optionID is selected for index.
func (s *SessionState) IsSelected(index int, optionID string) bool {
	return slices.Contains(s.Selections[index], optionID)
}

// IsAnswered reports whether index was ever answered.
func (s *SessionState) IsAnswered(index int) bool {
	return s.Answered[index]
}

// AnsweredCount returns the size of the answered set.
func (s *SessionState) AnsweredCount() int {
	return len(s.Answered)
}

// ValidateForSubmit rejects a submission when no question was ever selected.
func (s *SessionState) ValidateForSubmit() error {
	if s.Phase == PhaseCompleted {
		return ErrCompleted
	}
	if len(s.Selections) == 0 {
		return ErrNoAnswers
	}
	return nil
}

// BeginSubmit claims the submission slot. Only one submission may be in
// flight; a completed attempt cannot be submitted again.
func (s *SessionState) BeginSubmit() error {
	switch s.Phase {
	case PhaseSubmitting:
		return ErrSubmitInFlight
	case PhaseCompleted:
		return ErrCompleted
	}
	if err := s.ValidateForSubmit(); err != nil {
		return err
	}
	s.Phase = PhaseSubmitting
	return nil
}

// FinishSubmit releases the submission slot. A nil err completes the attempt.
func (s *SessionState) FinishSubmit(err error) {
	if s.Phase != PhaseSubmitting {
		return
	}
	if err != nil {
		s.Phase = PhaseInProgress
		return
	}
	s.Phase = PhaseCompleted
	s.SubmittedAt = time.Now()
}
