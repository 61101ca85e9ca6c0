package speech

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/zuvy/assess/internal/assessment"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"equality", "a == b", "a equals equals b"},
		{"increment", "i++", "i plus plus"},
		{"comparison", "x >= 10 && y != 3", "x greater than or equal to 10 and y not equals 3"},
		{"index expression", "read `arr[i]` first", "read A R R of I first"},
		{"backtick identifier", "use `count` here", "use C O U N T here"},
		{"keyword kept", "the `for` loop", "the for loop"},
		{"markdown", "**Bold** text\n\nNext", "Bold text. Next"},
		{"dot runs", "Wait...", "Wait."},
		{"brackets", "call f(x)", "call f x"},
		{"bullets", "• one\n• two", "one. two"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.in); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestReportText(t *testing.T) {
	if got := ReportText("", ""); got != "" {
		t.Errorf("empty report = %q, want empty", got)
	}
	got := ReportText("Good work", "Practice loops")
	want := "Performance Summary. Good work. Recommendations. Practice loops."
	if got != want {
		t.Errorf("ReportText = %q, want %q", got, want)
	}
	if got := ReportText("Solid", ""); got != "Performance Summary. Solid." {
		t.Errorf("summary only = %q", got)
	}
}

func TestQuestionText(t *testing.T) {
	q := assessment.UIQuestion{
		Text:    "Pick one",
		Type:    assessment.SingleAnswer,
		Options: []assessment.UIOption{{Text: "Alpha"}, {Text: "Beta"}},
	}
	want := "Question 1. Pick one. The options are. Option A. Alpha. Option B. Beta."
	if got := QuestionText(1, q); got != want {
		t.Errorf("QuestionText = %q, want %q", got, want)
	}

	q.Type = assessment.MultiAnswer
	if got := QuestionText(2, q); !strings.Contains(got, "Pick one. Select all that apply. The options are.") {
		t.Errorf("multi-answer narration missing hint: %q", got)
	}
}

func TestPickVoice(t *testing.T) {
	voices := []Voice{
		{Name: "Alex", Lang: "en_US"},
		{Name: "Lekha", Lang: "hi_IN"},
		{Name: "Rishi", Lang: "en_IN"},
	}
	v, ok := PickVoice(voices, "en-IN")
	if !ok || v.Name != "Rishi" {
		t.Errorf("exact match = %+v, %v", v, ok)
	}

	v, ok = PickVoice(voices[:2], "en-IN")
	if !ok || v.Name != "Lekha" {
		t.Errorf("hindi fallback = %+v, %v", v, ok)
	}

	v, ok = PickVoice([]Voice{{Name: "Alex", Lang: "en-US"}, {Name: "Veena Indian", Lang: "en-GB"}}, "en-IN")
	if !ok || v.Name != "Veena Indian" {
		t.Errorf("name hint = %+v, %v", v, ok)
	}

	if _, ok := PickVoice([]Voice{{Name: "Alex", Lang: "en-US"}}, "en-IN"); ok {
		t.Error("expected no match")
	}
}

func TestEstimateDuration(t *testing.T) {
	text := strings.Repeat("word ", WordsPerMinute)
	if got := EstimateDuration(text); got != time.Minute {
		t.Errorf("EstimateDuration = %v, want 1m", got)
	}
	if got := EstimateDuration(""); got != 0 {
		t.Errorf("empty = %v", got)
	}
}

// execEngine runs a fixed command regardless of the text.
type execEngine struct {
	name string
	args []string
}

func (e execEngine) Name() string { return e.name }

func (e execEngine) Command(ctx context.Context, _ string, _ Options) *exec.Cmd {
	return exec.CommandContext(ctx, e.name, e.args...)
}

func (e execEngine) Voices(context.Context) ([]Voice, error) { return nil, nil }

func requireBinary(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available", name)
	}
}

func TestNarratorUnsupported(t *testing.T) {
	n := NewNarrator(nil, DefaultOptions(), nil)
	if n.Supported() {
		t.Error("nil engine reported as supported")
	}
	if err := n.Speak("hello"); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Speak error = %v, want ErrUnsupported", err)
	}
	if n.State() != Idle {
		t.Errorf("state = %v, want idle", n.State())
	}
}

func TestNarratorPauseResumeProgress(t *testing.T) {
	requireBinary(t, "sleep")

	clock := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	n := NewNarrator(execEngine{name: "sleep", args: []string{"30"}}, DefaultOptions(), nil)
	n.now = func() time.Time { return clock }
	t.Cleanup(n.Stop)

	text := strings.Repeat("word ", WordsPerMinute)
	if err := n.Speak(text); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if n.State() != Speaking {
		t.Fatalf("state = %v, want speaking", n.State())
	}

	clock = clock.Add(30 * time.Second)
	if got := n.Progress(); got != 50 {
		t.Errorf("progress after 30s = %v, want 50", got)
	}

	if err := n.Pause(); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	clock = clock.Add(15 * time.Second)
	if got := n.Progress(); got != 50 {
		t.Errorf("progress while paused = %v, want 50", got)
	}

	if err := n.Toggle(); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if n.State() != Speaking {
		t.Fatalf("state after toggle = %v, want speaking", n.State())
	}
	clock = clock.Add(15 * time.Second)
	if got := n.Progress(); got != 75 {
		t.Errorf("progress after resume = %v, want 75", got)
	}

	n.Stop()
	if n.State() != Idle || n.Progress() != 0 {
		t.Errorf("after stop: state %v progress %v", n.State(), n.Progress())
	}
}

func TestNarratorSpeakReplacesCurrent(t *testing.T) {
	requireBinary(t, "sleep")

	n := NewNarrator(execEngine{name: "sleep", args: []string{"30"}}, DefaultOptions(), nil)
	t.Cleanup(n.Stop)

	if err := n.Speak("first"); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	n.mu.Lock()
	first := n.cmd
	n.mu.Unlock()

	if err := n.Speak("second"); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	n.mu.Lock()
	second := n.cmd
	n.mu.Unlock()

	if first == second {
		t.Fatal("second Speak reused the first process")
	}
	if n.State() != Speaking {
		t.Errorf("state = %v, want speaking", n.State())
	}
}

func TestNarratorOnEnd(t *testing.T) {
	requireBinary(t, "true")

	n := NewNarrator(execEngine{name: "true"}, DefaultOptions(), nil)
	done := make(chan struct{})
	n.OnEnd(func() { close(done) })

	if err := n.Speak("short"); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("OnEnd not called")
	}
	if n.State() != Idle {
		t.Errorf("state = %v, want idle", n.State())
	}
}

func TestNarratorPauseWhenIdle(t *testing.T) {
	n := NewNarrator(execEngine{name: "true"}, DefaultOptions(), nil)
	if err := n.Pause(); err != nil {
		t.Errorf("Pause idle: %v", err)
	}
	if err := n.Resume(); err != nil {
		t.Errorf("Resume idle: %v", err)
	}
	if n.State() != Idle {
		t.Errorf("state = %v", n.State())
	}
}
