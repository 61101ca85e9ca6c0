package results

import (
	"sort"

	"github.com/zuvy/assess/internal/assessment"
)

// ReviewOption is one option line of a reviewed question.
type ReviewOption struct {
	Number   int
	Text     string
	Selected bool
	Correct  bool
}

// ReviewItem is a single question in the detailed review.
type ReviewItem struct {
	Number      int
	Question    string
	Topic       string
	Difficulty  string
	Options     []ReviewOption
	Explanation string
	Correct     bool
	Skipped     bool
}

// Review builds the per-question review list in evaluation order.
func Review(evals []assessment.Evaluation) []ReviewItem {
	items := make([]ReviewItem, 0, len(evals))
	for i, e := range evals {
		q := e.QuestionEvaluation
		opts := make([]assessment.Option, len(q.Options))
		copy(opts, q.Options)
		sort.SliceStable(opts, func(a, b int) bool {
			return opts[a].OptionNumber < opts[b].OptionNumber
		})

		item := ReviewItem{
			Number:      i + 1,
			Question:    q.Question,
			Topic:       q.Topic,
			Difficulty:  q.Difficulty,
			Explanation: q.Explanation,
			Correct:     e.Correct(),
			Skipped:     q.SelectedAnswerByStudent <= 0,
		}
		for _, o := range opts {
			item.Options = append(item.Options, ReviewOption{
				Number:   o.OptionNumber,
				Text:     o.OptionText,
				Selected: o.ID == q.SelectedAnswerByStudent,
				Correct:  o.ID == e.CorrectOptionID,
			})
		}
		items = append(items, item)
	}
	return items
}
