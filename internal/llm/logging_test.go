package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/zuvy/assess/internal/store"
)

type recordedEvents []store.LLMRequestEventData

func (r *recordedEvents) AppendLLMRequest(_ context.Context, d store.LLMRequestEventData) error {
	*r = append(*r, d)
	return nil
}

func TestLogging_RecordsSuccess(t *testing.T) {
	var events recordedEvents
	mock := NewMockProvider(MockResponse{
		Content: json.RawMessage(`{"summary":"s","recommendations":"r"}`),
		Usage:   Usage{InputTokens: 120, OutputTokens: 30},
	})
	p := WithLogging(mock, ProviderMock, &events, nil)

	ctx := WithPurpose(context.Background(), PurposeFeedback)
	if _, err := p.Generate(ctx, UserPrompt("be brief", "summarize", feedbackTestSchema(), 100)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.Provider != "mock" || e.Purpose != "assessment-feedback" || !e.Success {
		t.Fatalf("unexpected event %+v", e)
	}
	if e.InputTokens != 120 || e.OutputTokens != 30 {
		t.Fatalf("tokens not recorded: %+v", e)
	}
	for _, part := range []string{"[system]\nbe brief", "[user]\nsummarize", "[schema: test-feedback]"} {
		if !strings.Contains(e.RequestBody, part) {
			t.Fatalf("request body missing %q:\n%s", part, e.RequestBody)
		}
	}
	if !strings.Contains(e.ResponseBody, `"summary":"s"`) {
		t.Fatalf("response body not recorded: %s", e.ResponseBody)
	}
}

func TestLogging_RecordsFailure(t *testing.T) {
	var events recordedEvents
	p := WithLogging(NewMockProvider(MockResponse{Err: errors.New("boom")}), ProviderMock, &events, nil)

	if _, err := p.Generate(context.Background(), Request{}); err == nil {
		t.Fatal("expected error")
	}
	if len(events) != 1 || events[0].Success || events[0].ErrorMessage != "boom" || events[0].Purpose != "unknown" {
		t.Fatalf("unexpected events %+v", events)
	}
}

func TestClip(t *testing.T) {
	long := strings.Repeat("x", maxBodyLen+10)
	if got := clip(long); len(got) != maxBodyLen+len("\n[truncated]") {
		t.Fatalf("clip length = %d", len(got))
	}
	if clip("short") != "short" {
		t.Fatal("short bodies must be kept")
	}
}
