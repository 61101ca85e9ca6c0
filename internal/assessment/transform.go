package assessment

import (
	"fmt"
	"sort"
	"strings"
)

// Difficulty scale bounds. Unrecognised labels map to DifficultyDefault.
const (
	DifficultyMin     = 1
	DifficultyMax     = 10
	DifficultyDefault = 5
)

var difficultyScale = map[string]int{
	"very easy":    2,
	"easy":         3,
	"basic":        4,
	"medium":       5,
	"intermediate": 5,
	"advanced":     7,
	"hard":         8,
	"expert":       10,
}

// NormalizeDifficulty buckets a free-form difficulty label onto the 1..10 scale.
func NormalizeDifficulty(label string) int {
	if d, ok := difficultyScale[strings.ToLower(strings.TrimSpace(label))]; ok {
		return d
	}
	return DifficultyDefault
}

// QuestionType controls how selections accumulate for a question.
type QuestionType int

const (
	SingleAnswer QuestionType = iota
	MultiAnswer
)

func (t QuestionType) String() string {
	if t == MultiAnswer {
		return "multi-answer"
	}
	return "single-answer"
}

// UIOption is an option keyed by its synthetic id.
type UIOption struct {
	ID     string
	Text   string
	Number int
}

// UIQuestion is the client-side rendering and selection model of a Question.
type UIQuestion struct {
	ID               string
	SourceID         int
	Text             string
	Topic            string
	Language         string
	DifficultyLabel  string
	Difficulty       int
	Type             QuestionType
	Options          []UIOption
	CorrectAnswerIDs []string
	Explanation      string
}

// IsCorrect reports whether selected matches the correct set exactly,
// ignoring order. An empty correct set never matches.
func (q UIQuestion) IsCorrect(selected []string) bool {
	if len(q.CorrectAnswerIDs) == 0 || len(selected) != len(q.CorrectAnswerIDs) {
		return false
	}
	want := make(map[string]bool, len(q.CorrectAnswerIDs))
	for _, id := range q.CorrectAnswerIDs {
		want[id] = true
	}
	for _, id := range selected {
		if !want[id] {
			return false
		}
		delete(want, id)
	}
	return len(want) == 0
}

// OptionIndex returns the position of the option with the given id, or -1.
func (q UIQuestion) OptionIndex(id string) int {
	for i, o := range q.Options {
		if o.ID == id {
			return i
		}
	}
	return -1
}

// Transform maps a backend question onto the UI model.
func Transform(q Question) UIQuestion {
	opts := make([]Option, len(q.Options))
	copy(opts, q.Options)
	sort.SliceStable(opts, func(i, j int) bool {
		return opts[i].OptionNumber < opts[j].OptionNumber
	})

	ui := UIQuestion{
		ID:               UIQuestionID(q.ID),
		SourceID:         q.ID,
		Text:             q.Question,
		Topic:            q.Topic,
		Language:         q.Language,
		DifficultyLabel:  q.Difficulty,
		Difficulty:       NormalizeDifficulty(q.Difficulty),
		Type:             SingleAnswer,
		Options:          make([]UIOption, 0, len(opts)),
		CorrectAnswerIDs: []string{},
		Explanation: fmt.Sprintf("The correct answer is \"%s\". This tests your understanding of %s in %s.",
			q.CorrectOption.OptionText, q.Topic, q.Language),
	}

	for _, o := range opts {
		id := EncodeOptionID(q.ID, o.OptionNumber)
		ui.Options = append(ui.Options, UIOption{ID: id, Text: o.OptionText, Number: o.OptionNumber})
		if o.OptionNumber == q.CorrectOption.OptionNumber && len(ui.CorrectAnswerIDs) == 0 {
			ui.CorrectAnswerIDs = append(ui.CorrectAnswerIDs, id)
		}
	}

	return ui
}

// TransformAll maps questions in order.
func TransformAll(qs []Question) []UIQuestion {
	out := make([]UIQuestion, len(qs))
	for i, q := range qs {
		out[i] = Transform(q)
	}
	return out
}
