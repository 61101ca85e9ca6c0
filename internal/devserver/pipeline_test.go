package devserver

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zuvy/assess/internal/logging"
	"github.com/zuvy/assess/internal/session"
)

func TestPipelineDeliversAndWaits(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	p := newPipeline(func(_ context.Context, ev SubmittedEvent) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, ev.UserID)
		if ev.UserID == "bad" {
			return errors.New("scoring failed")
		}
		return nil
	}, logging.Discard())
	require.NoError(t, p.start(context.Background()))
	t.Cleanup(func() { p.close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ev := SubmittedEvent{UserID: "7", Submission: session.Submission{AIAssessmentID: 1}, SubmittedAt: time.Now()}
	require.NoError(t, p.publish(ctx, ev))

	ev.UserID = "bad"
	assert.EqualError(t, p.publish(ctx, ev), "scoring failed")

	mu.Lock()
	assert.Equal(t, []string{"7", "bad"}, seen)
	mu.Unlock()
}

func TestPipelinePublishHonoursContext(t *testing.T) {
	release := make(chan struct{})
	p := newPipeline(func(context.Context, SubmittedEvent) error {
		<-release
		return nil
	}, logging.Discard())
	require.NoError(t, p.start(context.Background()))
	t.Cleanup(func() {
		close(release)
		p.close()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := p.publish(ctx, SubmittedEvent{UserID: "7"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
