package session

import (
	"encoding/json"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zuvy/assess/internal/assessment"
)

func TestBuildSubmission_CoversEveryQuestionOnce(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))

	for trial := 0; trial < 200; trial++ {
		n := 1 + rng.IntN(12)
		s, recs := newTestState(n)

		for i := 0; i < n; i++ {
			if rng.IntN(2) == 0 {
				continue
			}
			opt := s.Questions[i].Options[rng.IntN(len(s.Questions[i].Options))]
			s.SelectOption(i, opt.ID)
		}

		entries := BuildSubmission(s, recs)
		require.Len(t, entries, n, "trial %d", trial)

		seen := make(map[int]bool, n)
		for _, e := range entries {
			require.False(t, seen[e.ID], "duplicate id %d in trial %d", e.ID, trial)
			seen[e.ID] = true
		}
		for _, r := range recs {
			assert.True(t, seen[r.ID], "missing id %d in trial %d", r.ID, trial)
		}
	}
}

func TestBuildSubmission_Entries(t *testing.T) {
	s, recs := newTestState(3)
	s.SelectOption(2, assessment.EncodeOptionID(recs[2].ID, 3))

	entries := BuildSubmission(s, recs)
	require.Len(t, entries, 3)

	first := entries[0]
	assert.Equal(t, recs[2].ID, first.ID)
	require.NotNil(t, first.Selected)
	assert.Equal(t, recs[2].Options[2], *first.Selected)
	assert.Equal(t, 2, first.CorrectOption)

	assert.Equal(t, recs[0].ID, entries[1].ID)
	assert.Nil(t, entries[1].Selected)
	assert.Equal(t, recs[1].ID, entries[2].ID)
}

func TestBuildSubmission_UnmatchedSelectionFallsThrough(t *testing.T) {
	s, recs := newTestState(2)
	s.Selections[0] = []string{assessment.EncodeOptionID(recs[0].ID, 9)}
	s.Selections[1] = []string{"garbage"}

	entries := BuildSubmission(s, recs)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.False(t, e.Answered(), "entry %d should be unanswered", e.ID)
	}
}

func TestBuildSubmission_EmptySelectionIsUnanswered(t *testing.T) {
	s, recs := newTestState(1)
	s.Questions[0].Type = assessment.MultiAnswer
	id := s.Questions[0].Options[0].ID
	s.SelectOption(0, id)
	s.SelectOption(0, id)

	entries := BuildSubmission(s, recs)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Answered())
}

func TestAnswerEntry_JSON(t *testing.T) {
	s, recs := newTestState(2)
	s.SelectOption(0, assessment.EncodeOptionID(recs[0].ID, 1))

	sub := NewSubmission(s, recs)
	raw, err := json.Marshal(sub)
	require.NoError(t, err)

	var generic struct {
		AIAssessmentID int              `json:"aiAssessmentId"`
		Answers        []map[string]any `json:"answers"`
	}
	require.NoError(t, json.Unmarshal(raw, &generic))
	assert.Equal(t, 42, generic.AIAssessmentID)
	require.Len(t, generic.Answers, 2)

	sel, ok := generic.Answers[0]["selectedAnswerByStudent"].(map[string]any)
	require.True(t, ok, "answered entry must carry the option object")
	assert.EqualValues(t, 1, sel["optionNumber"])
	assert.EqualValues(t, NoAnswer, generic.Answers[1]["selectedAnswerByStudent"])
	assert.EqualValues(t, 2, generic.Answers[1]["correctOption"])

	var back Submission
	require.NoError(t, json.Unmarshal(raw, &back))
	require.NotNil(t, back.Answers[0].Selected)
	assert.Nil(t, back.Answers[1].Selected)
}
