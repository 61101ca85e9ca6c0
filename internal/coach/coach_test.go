package coach

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zuvy/assess/internal/llm"
	"github.com/zuvy/assess/internal/logging"
	"github.com/zuvy/assess/internal/results"
)

func sampleStats() results.Stats {
	return results.Stats{
		Total: 5, Correct: 2, Score: 40, Language: "JavaScript",
		Topics: []results.TopicStats{
			{Topic: "Loops", Correct: 2, Total: 2, Accuracy: 100},
			{Topic: "Closures", Correct: 0, Total: 3, Accuracy: 0},
		},
	}
}

func sampleReview() []results.ReviewItem {
	return []results.ReviewItem{
		{Number: 1, Question: "What is a closure?", Topic: "Closures", Correct: false},
		{Number: 2, Question: "Loop count?", Topic: "Loops", Correct: true},
		{Number: 3, Question: "Skipped one", Topic: "Closures", Skipped: true},
	}
}

func TestTemplate(t *testing.T) {
	fb := Template(sampleStats())
	assert.Contains(t, fb.Summary, "2 of 5")
	assert.Contains(t, fb.Summary, "below the 60% pass mark")
	assert.Contains(t, fb.Summary, "strongest topic was Loops")
	assert.True(t, strings.HasPrefix(fb.Recommendations, "- Revisit Closures: 0 of 3 correct."))

	excellent := Template(results.Stats{Total: 4, Correct: 4, Score: 100, Topics: []results.TopicStats{{Topic: "Maps", Correct: 4, Total: 4, Accuracy: 100}}})
	assert.True(t, strings.HasPrefix(excellent.Summary, "Excellent work"))
	assert.Contains(t, excellent.Recommendations, "Keep practicing")

	empty := Template(results.Stats{})
	assert.NotEmpty(t, empty.Summary)
	assert.NotEmpty(t, empty.Recommendations)
}

func TestFeedback_FromModel(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockJSON(Feedback{Summary: " You did fine. ", Recommendations: "- Revisit closures."}))
	c := New(mock, logging.Discard())

	fb, src := c.Feedback(context.Background(), sampleStats(), sampleReview())
	assert.Equal(t, SourceModel, src)
	assert.Equal(t, "You did fine.", fb.Summary)

	require.Equal(t, 1, mock.CallCount())
	prompt := mock.Calls[0].Messages[0].Content
	assert.Contains(t, prompt, "Score: 40% (2 of 5 correct)")
	assert.Contains(t, prompt, "- Closures: 0/3 (0%)")
	assert.Contains(t, prompt, "[Closures, skipped] Skipped one")
	assert.NotContains(t, prompt, "Loop count?")
	assert.Equal(t, "assessment-feedback", mock.Calls[0].Schema.Name)
}

func TestFeedback_FallsBack(t *testing.T) {
	c := New(llm.NewMockProvider(), logging.Discard())
	fb, src := c.Feedback(context.Background(), sampleStats(), nil)
	assert.Equal(t, SourceTemplate, src)
	assert.Equal(t, Template(sampleStats()), fb)

	var disabled *Coach
	assert.False(t, disabled.Enabled())
	_, src = New(nil, nil).Feedback(context.Background(), sampleStats(), nil)
	assert.Equal(t, SourceTemplate, src)
}

func TestComplete_KeepsServerText(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockJSON(Feedback{Summary: "model summary", Recommendations: "model recs"}))
	c := New(mock, logging.Discard())

	stats := sampleStats()
	stats.Summary = "server summary"
	src := c.Complete(context.Background(), &stats, nil)
	assert.Equal(t, SourceModel, src)
	assert.Equal(t, "server summary", stats.Summary)
	assert.Equal(t, "model recs", stats.Recommendations)

	full := sampleStats()
	full.Summary, full.Recommendations = "a", "b"
	assert.Equal(t, SourceServer, c.Complete(context.Background(), &full, nil))
	assert.Equal(t, 1, mock.CallCount())
}

func TestBankQuestions(t *testing.T) {
	qs := BankQuestions("Arrays", "Easy", 10)
	require.Len(t, qs, 10)

	texts := map[string]bool{}
	for i, q := range qs {
		require.NoError(t, CheckQuestion(q), "question %d", i)
		assert.Equal(t, "Arrays", q.Topic)
		assert.Equal(t, "Easy", q.Difficulty)
		assert.False(t, texts[q.Text], "duplicate %q", q.Text)
		texts[q.Text] = true
	}
	assert.Equal(t, "0", qs[0].Options[qs[0].Correct])
	assert.Equal(t, 1, qs[1].Correct)

	generic := BankQuestions("Quantum Widgets", "", 6)
	require.Len(t, generic, 6)
	assert.Contains(t, generic[0].Text, "Quantum Widgets")
	assert.Contains(t, generic[4].Text, "(variant 2)")
	assert.NotContains(t, generic[2].Explanation, "%!")
}

func TestQuestions_ModelWithBankTopUp(t *testing.T) {
	good := Question{Text: "Q1", Options: []string{"a", "b", "c", "d"}, Correct: 2, Explanation: "c", Difficulty: "Hard"}
	dup := Question{Text: "q1 ", Options: []string{"a", "b", "c", "d"}, Correct: 0, Explanation: "x", Difficulty: "Hard"}
	bad := Question{Text: "Q2", Options: []string{"a", "a", "c", "d"}, Correct: 0, Explanation: "x", Difficulty: "Hard"}
	mock := llm.NewMockProvider(llm.MockJSON(questionsOutput{Questions: []Question{good, dup, bad}}))
	c := New(mock, logging.Discard())

	qs := c.Questions(context.Background(), QuestionRequest{Topic: "Loops", Count: 3, Difficulty: "Hard", Prior: []string{"Earlier"}})
	require.Len(t, qs, 3)
	assert.Equal(t, "Q1", qs[0].Text)
	assert.Equal(t, "Loops", qs[0].Topic)
	assert.Contains(t, qs[1].Text, "for (let i = 0")

	prompt := mock.Calls[0].Messages[0].Content
	assert.Contains(t, prompt, "Number of questions: 3")
	assert.Contains(t, prompt, "1. Earlier")
}

func TestQuestions_WithoutProvider(t *testing.T) {
	qs := New(nil, logging.Discard()).Questions(context.Background(), QuestionRequest{Topic: "Strings", Count: 2})
	require.Len(t, qs, 2)
	assert.Equal(t, "Medium", qs[0].Difficulty)
	assert.Nil(t, New(nil, nil).Questions(context.Background(), QuestionRequest{Topic: "x"}))
}

func TestCheckQuestion(t *testing.T) {
	base := Question{Text: "t", Options: []string{"a", "b", "c", "d"}, Correct: 1}
	require.NoError(t, CheckQuestion(base))

	tests := map[string]func(q *Question){
		"empty text":    func(q *Question) { q.Text = " " },
		"three options": func(q *Question) { q.Options = q.Options[:3] },
		"bad index":     func(q *Question) { q.Correct = 4 },
		"duplicate":     func(q *Question) { q.Options = []string{"a", "A ", "c", "d"} },
		"catch-all":     func(q *Question) { q.Options = []string{"a", "b", "c", "All of the above"} },
	}
	for name, mutate := range tests {
		q := base
		q.Options = append([]string(nil), base.Options...)
		mutate(&q)
		assert.Error(t, CheckQuestion(q), name)
	}
}
