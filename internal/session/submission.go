package session

import (
	"encoding/json"
	"sort"

	"github.com/zuvy/assess/internal/assessment"
)

// NoAnswer is the wire value of selectedAnswerByStudent for skipped questions.
// Option ids are positive, so it cannot collide with a real selection.
const NoAnswer = -1

// AnswerEntry is one question of a submission payload.
type AnswerEntry struct {
	ID            int                 `json:"id"`
	Question      string              `json:"question"`
	Topic         string              `json:"topic"`
	Difficulty    string              `json:"difficulty"`
	Options       []assessment.Option `json:"options"`
	CorrectOption int                 `json:"correctOption"`
	Language      string              `json:"language"`

	// Selected is the chosen option, nil when the question was skipped.
	Selected *assessment.Option `json:"-"`
}

// Answered reports whether the entry carries a selection.
func (e AnswerEntry) Answered() bool {
	return e.Selected != nil
}

// MarshalJSON writes selectedAnswerByStudent as the option object or NoAnswer.
func (e AnswerEntry) MarshalJSON() ([]byte, error) {
	type plain AnswerEntry
	var selected any = NoAnswer
	if e.Selected != nil {
		selected = e.Selected
	}
	return json.Marshal(struct {
		plain
		SelectedAnswerByStudent any `json:"selectedAnswerByStudent"`
	}{plain(e), selected})
}

// UnmarshalJSON accepts both the option object and the NoAnswer number.
func (e *AnswerEntry) UnmarshalJSON(data []byte) error {
	type plain AnswerEntry
	var aux struct {
		plain
		SelectedAnswerByStudent json.RawMessage `json:"selectedAnswerByStudent"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*e = AnswerEntry(aux.plain)
	e.Selected = nil

	raw := aux.SelectedAnswerByStudent
	if len(raw) == 0 || raw[0] != '{' {
		return nil
	}
	var opt assessment.Option
	if err := json.Unmarshal(raw, &opt); err != nil {
		return err
	}
	e.Selected = &opt
	return nil
}

// Submission is the body of POST /ai-assessment/submit.
type Submission struct {
	Answers        []AnswerEntry `json:"answers"`
	AIAssessmentID int           `json:"aiAssessmentId"`
}

// BuildSubmission merges answered and unanswered questions into one payload
// with exactly one entry per record. Answered entries come first in question
// order, followed by every remaining record in record order. A selection
// that cannot be decoded or matched to an option of its record is treated as
// no answer.
func BuildSubmission(state *SessionState, records []assessment.Question) []AnswerEntry {
	byID := make(map[int]assessment.Question, len(records))
	for _, r := range records {
		byID[r.ID] = r
	}

	indices := make([]int, 0, len(state.Selections))
	for idx := range state.Selections {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	answered := make(map[int]bool, len(indices))
	entries := make([]AnswerEntry, 0, len(records))

	for _, idx := range indices {
		ids := state.Selections[idx]
		if len(ids) == 0 || idx < 0 || idx >= len(state.Questions) {
			continue
		}
		rec, ok := byID[state.Questions[idx].SourceID]
		if !ok || answered[rec.ID] {
			continue
		}
		qid, number, err := assessment.DecodeOptionID(ids[0])
		if err != nil || qid != rec.ID {
			continue
		}
		opt, ok := rec.OptionByNumber(number)
		if !ok {
			continue
		}
		entry := newEntry(rec)
		entry.Selected = &opt
		entries = append(entries, entry)
		answered[rec.ID] = true
	}

	for _, rec := range records {
		if answered[rec.ID] {
			continue
		}
		entries = append(entries, newEntry(rec))
		answered[rec.ID] = true
	}

	return entries
}

// NewSubmission builds the submit payload for the attempt.
func NewSubmission(state *SessionState, records []assessment.Question) Submission {
	return Submission{
		Answers:        BuildSubmission(state, records),
		AIAssessmentID: state.AssessmentID,
	}
}

func newEntry(rec assessment.Question) AnswerEntry {
	return AnswerEntry{
		ID:            rec.ID,
		Question:      rec.Question,
		Topic:         rec.Topic,
		Difficulty:    rec.Difficulty,
		Options:       rec.Options,
		CorrectOption: rec.CorrectOption.OptionNumber,
		Language:      rec.Language,
	}
}
