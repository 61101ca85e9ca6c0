package results

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zuvy/assess/internal/assessment"
)

func eval(topic string, selected, correct int) assessment.Evaluation {
	return assessment.Evaluation{
		QuestionEvaluation: assessment.QuestionEvaluation{
			Topic:                   topic,
			SelectedAnswerByStudent: selected,
			Language:                "JavaScript",
			Summary:                 "solid",
			Recommendations:         "practice closures",
			Options: []assessment.Option{
				{ID: 2, OptionNumber: 2, OptionText: "two"},
				{ID: 1, OptionNumber: 1, OptionText: "one"},
			},
		},
		CorrectOptionID: correct,
	}
}

func TestComputeStats_Empty(t *testing.T) {
	s := ComputeStats(nil)
	if s.Total != 0 || s.Correct != 0 || s.Score != 0 || s.Passed {
		t.Errorf("ComputeStats(nil) = %+v", s)
	}
	if s.Language != DefaultLanguage {
		t.Errorf("Language = %q, want %q", s.Language, DefaultLanguage)
	}
}

func TestComputeStats_ThresholdBoundary(t *testing.T) {
	evals := []assessment.Evaluation{
		eval("Loops", 1, 1),
		eval("Loops", 1, 1),
		eval("Objects", 1, 1),
		eval("Objects", 2, 1),
		eval("Arrays", -1, 1),
	}
	s := ComputeStats(evals)

	assert.Equal(t, 5, s.Total)
	assert.Equal(t, 3, s.Correct)
	assert.Equal(t, 60, s.Score)
	assert.True(t, s.Passed)
	assert.Equal(t, 2, s.Incorrect())
	assert.Equal(t, "solid", s.Summary)
	assert.Equal(t, "practice closures", s.Recommendations)
	assert.Equal(t, "JavaScript", s.Language)

	require.Len(t, s.Topics, 3)
	assert.Equal(t, []string{"Loops", "Objects", "Arrays"},
		[]string{s.Topics[0].Topic, s.Topics[1].Topic, s.Topics[2].Topic})
	assert.Equal(t, 100, s.Topics[0].Accuracy)
	assert.Equal(t, 50, s.Topics[1].Accuracy)
	assert.Equal(t, 0, s.Topics[2].Accuracy)
}

func TestComputeStats_TopicRoundsHalfUp(t *testing.T) {
	s := ComputeStats([]assessment.Evaluation{
		eval("Maps", 1, 1),
		eval("Maps", 1, 1),
		eval("Maps", 2, 1),
	})
	assert.Equal(t, 67, s.Topics[0].Accuracy)
	assert.Equal(t, 67, s.Score)
}

func TestPercent(t *testing.T) {
	tests := []struct {
		part, total, want int
	}{
		{0, 0, 0},
		{1, 8, 13}, // 12.5
		{1, 3, 33},
		{2, 3, 67},
		{5, 5, 100},
	}
	for _, tt := range tests {
		if got := Percent(tt.part, tt.total); got != tt.want {
			t.Errorf("Percent(%d, %d) = %d, want %d", tt.part, tt.total, got, tt.want)
		}
	}
}

func TestRate(t *testing.T) {
	tests := []struct {
		score int
		want  Rating
	}{
		{100, Excellent},
		{80, Excellent},
		{79, Good},
		{60, Good},
		{59, NeedsImprovement},
		{0, NeedsImprovement},
	}
	for _, tt := range tests {
		if got := Rate(tt.score); got != tt.want {
			t.Errorf("Rate(%d) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestReview(t *testing.T) {
	items := Review([]assessment.Evaluation{eval("Loops", 2, 1), eval("Loops", -1, 1)})
	require.Len(t, items, 2)

	first := items[0]
	assert.Equal(t, 1, first.Number)
	assert.False(t, first.Correct)
	require.Len(t, first.Options, 2)
	assert.Equal(t, 1, first.Options[0].Number)
	assert.True(t, first.Options[0].Correct)
	assert.True(t, first.Options[1].Selected)

	assert.True(t, items[1].Skipped)
}
