package assessment

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDraft(now time.Time) *Draft {
	d := &Draft{
		BootcampID:  9,
		Title:       "Loops checkpoint",
		Description: "Week 3 adaptive quiz",
		Start:       now.Add(time.Hour),
		End:         now.Add(48 * time.Hour),
	}
	_ = d.AddTopic("Loops", 3)
	_ = d.AddTopic("Objects", 2)
	return d
}

func firstMessage(t *testing.T, err error) string {
	t.Helper()
	var ve ValidationErrors
	require.True(t, errors.As(err, &ve), "expected ValidationErrors, got %T", err)
	require.NotEmpty(t, ve)
	return ve[0].Message
}

func TestDraft_AddTopic(t *testing.T) {
	d := &Draft{}

	require.NoError(t, d.AddTopic("  Loops ", 2))
	assert.Equal(t, "Loops", d.Topics[0].Name)

	err := d.AddTopic("loops", 1)
	require.Error(t, err)
	assert.Equal(t, MsgTopicDuplicate, err.Error())

	err = d.AddTopic("   ", 1)
	require.Error(t, err)
	assert.Equal(t, MsgTopicName, err.Error())

	err = d.AddTopic("Maps", 0)
	require.Error(t, err)
	assert.Equal(t, MsgTopicCount, err.Error())
	assert.True(t, IsValidation(err))

	assert.Equal(t, 2, d.TotalQuestions())
	assert.True(t, d.RemoveTopic("LOOPS"))
	assert.False(t, d.RemoveTopic("Loops"))
	assert.Zero(t, d.TotalQuestions())
}

func TestDraft_Validate(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	t.Run("valid", func(t *testing.T) {
		require.NoError(t, validDraft(now).Validate(now))
	})

	t.Run("earlier today is allowed", func(t *testing.T) {
		d := validDraft(now)
		d.Start = time.Date(2026, 3, 10, 1, 0, 0, 0, time.UTC)
		require.NoError(t, d.Validate(now))
	})

	tests := []struct {
		name   string
		mutate func(d *Draft)
		want   string
	}{
		{"blank title", func(d *Draft) { d.Title = "  " }, MsgRequiredFields},
		{"no description", func(d *Draft) { d.Description = "" }, MsgRequiredFields},
		{"no topics", func(d *Draft) { d.Topics = nil }, MsgRequiredFields},
		{"no bootcamp", func(d *Draft) { d.BootcampID = 0 }, MsgRequiredFields},
		{"missing end", func(d *Draft) { d.End = time.Time{} }, MsgDatesRequired},
		{"start yesterday", func(d *Draft) { d.Start = now.Add(-24 * time.Hour) }, MsgStartInPast},
		{"end equals start", func(d *Draft) { d.End = d.Start }, MsgEndBeforeStart},
		{"end before start", func(d *Draft) { d.End = d.Start.Add(-time.Minute) }, MsgEndBeforeStart},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft(now)
			tt.mutate(d)
			err := d.Validate(now)
			require.Error(t, err)
			assert.Equal(t, tt.want, firstMessage(t, err))
		})
	}
}

func TestDraft_CreateRequest(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	d := validDraft(now)

	req := d.CreateRequest()
	assert.Equal(t, 9, req.BootcampID)
	assert.Equal(t, map[string]int{"Loops": 3, "Objects": 2}, req.Topics)
	assert.Equal(t, 5, req.TotalNumberOfQuestions)
	require.NoError(t, req.Validate())

	req.EndDatetime = req.StartDatetime
	assert.Error(t, req.Validate())
}

func TestValidationErrors_Error(t *testing.T) {
	assert.Equal(t, "validation failed", ValidationErrors{}.Error())
	assert.Equal(t, "x", ValidationErrors{{Message: "x"}}.Error())
	assert.Equal(t, "validation failed: 2 field errors", ValidationErrors{{Message: "x"}, {Message: "x"}}.Error())
	assert.Equal(t, []string{"x"}, ValidationErrors{{Message: "x"}, {Message: "x"}}.Messages())
}
