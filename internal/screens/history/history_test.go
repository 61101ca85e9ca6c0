package history

import (
	"context"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/zuvy/assess/internal/router"
	"github.com/zuvy/assess/internal/screen/screentest"
	"github.com/zuvy/assess/internal/store"
)

func TestHistoryScreen_ListsSubmissions(t *testing.T) {
	deps := screentest.NewDeps(t, &screentest.Backend{})
	ctx := context.Background()
	recs := []store.SubmissionRecord{
		{Timestamp: screentest.Now, SessionID: "s1", AssessmentID: 7, Answered: 2, Total: 3, AdvisoryCorrect: 1, Success: true},
		{Timestamp: screentest.Now, SessionID: "s2", AssessmentID: 8, Answered: 1, Total: 3, ErrorMessage: "timeout"},
	}
	for _, r := range recs {
		if err := deps.Submissions.Record(ctx, r); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	h := New(deps.Submissions)
	for _, msg := range screentest.Drain(h.Init()) {
		h.Update(msg)
	}
	view := h.View(100, 30)
	for _, want := range []string{"Assessment #7", "Assessment #8", "submitted", "failed"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	h.Update(screentest.Special(tea.KeyEnter))
	if !strings.Contains(h.View(100, 30), "Session s2") {
		t.Error("Enter should expand the newest record")
	}
}

func TestHistoryScreen_Empty(t *testing.T) {
	h := New(nil)
	for _, msg := range screentest.Drain(h.Init()) {
		h.Update(msg)
	}
	if !strings.Contains(h.View(80, 24), "No submissions") {
		t.Error("expected empty state")
	}
}

func TestHistoryScreen_Esc(t *testing.T) {
	h := New(nil)
	_, cmd := h.Update(screentest.Special(tea.KeyEscape))
	if _, ok := screentest.Find[router.PopScreenMsg](screentest.Drain(cmd)); !ok {
		t.Error("expected pop on Esc")
	}
}
