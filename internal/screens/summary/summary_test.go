package summary

import (
	"errors"
	"os"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/zuvy/assess/internal/assessment"
	"github.com/zuvy/assess/internal/coach"
	"github.com/zuvy/assess/internal/router"
	"github.com/zuvy/assess/internal/screen"
	"github.com/zuvy/assess/internal/screen/screentest"
)

var testUser = assessment.User{ID: "42", Name: "Asha Rao", Email: "asha@example.com"}

func evaluation(id int, topic string, selected, correct int) assessment.Evaluation {
	opts := []assessment.Option{
		{ID: id*10 + 1, OptionText: "first", OptionNumber: 1},
		{ID: id*10 + 2, OptionText: "second", OptionNumber: 2},
	}
	return assessment.Evaluation{
		QuestionEvaluation: assessment.QuestionEvaluation{
			QuestionID:              id,
			Question:                "What is question " + topic + "?",
			Topic:                   topic,
			Difficulty:              "Easy",
			Options:                 opts,
			SelectedAnswerByStudent: selected,
			Language:                "JavaScript",
			Explanation:             "Because.",
		},
		CorrectOptionID: correct,
	}
}

func testEvals() []assessment.Evaluation {
	return []assessment.Evaluation{
		evaluation(1, "Arrays", 11, 11),
		evaluation(2, "Arrays", 22, 21),
		evaluation(3, "Strings", -1, 31),
	}
}

func loadedScreen(t *testing.T, evals []assessment.Evaluation) (*SummaryScreen, *screen.Deps) {
	t.Helper()
	backend := &screentest.Backend{Evals: evals}
	deps := screentest.NewDeps(t, backend)
	deps.Coach = coach.New(nil, deps.Logger)
	s := New(deps, testUser, assessment.Assessment{ID: 7, Title: "JS Basics"})
	for _, msg := range screentest.Drain(s.Init()) {
		s.Update(msg)
	}
	return s, deps
}

func TestSummaryScreen_Title(t *testing.T) {
	s, _ := loadedScreen(t, nil)
	if s.Title() != "Results" {
		t.Errorf("Title = %q, want %q", s.Title(), "Results")
	}
}

func TestSummaryScreen_ComputesStats(t *testing.T) {
	s, _ := loadedScreen(t, testEvals())
	if s.stats.Total != 3 || s.stats.Correct != 1 || s.stats.Score != 33 {
		t.Errorf("stats = %+v", s.stats)
	}
	if s.stats.Summary == "" || s.stats.Recommendations == "" {
		t.Error("missing narrative should be filled in")
	}
	if s.source != coach.SourceTemplate {
		t.Errorf("source = %v, want template without a model", s.source)
	}
}

func TestSummaryScreen_Display(t *testing.T) {
	s, _ := loadedScreen(t, testEvals())
	view := s.View(100, 200)
	for _, want := range []string{"Score 33%", "NOT PASSED", "Arrays", "Strings", "Question Review", "(your answer)"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestSummaryScreen_Scroll(t *testing.T) {
	s, _ := loadedScreen(t, testEvals())
	s.View(100, 10)
	s.Update(screentest.Special(tea.KeyDown))
	s.Update(screentest.Special(tea.KeyDown))
	if s.offset != 2 {
		t.Errorf("offset = %d, want 2", s.offset)
	}
	s.Update(screentest.Special(tea.KeyUp))
	if s.offset != 1 {
		t.Errorf("offset = %d, want 1", s.offset)
	}
}

func TestSummaryScreen_NotReady(t *testing.T) {
	s, _ := loadedScreen(t, nil)
	if !strings.Contains(s.View(80, 24), "not ready") {
		t.Error("expected a not-ready message for empty evaluations")
	}
}

func TestSummaryScreen_ErrorRetry(t *testing.T) {
	backend := &screentest.Backend{EvalsErr: errors.New("down")}
	deps := screentest.NewDeps(t, backend)
	s := New(deps, testUser, assessment.Assessment{ID: 7})
	for _, msg := range screentest.Drain(s.Init()) {
		s.Update(msg)
	}
	if s.errMsg == "" {
		t.Fatal("expected an error")
	}

	backend.EvalsErr = nil
	backend.Evals = testEvals()
	_, cmd := s.Update(screentest.Key('r'))
	for _, msg := range screentest.Drain(cmd) {
		s.Update(msg)
	}
	if s.errMsg != "" || len(s.evals) != 3 {
		t.Errorf("retry failed: err %q, evals %d", s.errMsg, len(s.evals))
	}
}

func TestSummaryScreen_ExportPDF(t *testing.T) {
	s, deps := loadedScreen(t, testEvals())
	_, cmd := s.Update(screentest.Key('d'))
	msgs := screentest.Drain(cmd)
	done, ok := screentest.Find[exportDoneMsg](msgs)
	if !ok || done.Err != nil {
		t.Fatalf("export = %+v", msgs)
	}
	if !strings.HasPrefix(done.Path, deps.ReportDir) || !strings.HasSuffix(done.Path, ".pdf") {
		t.Errorf("path = %q", done.Path)
	}
	if _, err := os.Stat(done.Path); err != nil {
		t.Errorf("report not written: %v", err)
	}

	_, cmd = s.Update(done)
	toast, ok := screentest.Find[screen.ToastMsg](screentest.Drain(cmd))
	if !ok || toast.Error {
		t.Errorf("toast = %+v", toast)
	}
}

func TestSummaryScreen_ExportXLSX(t *testing.T) {
	s, _ := loadedScreen(t, testEvals())
	_, cmd := s.Update(screentest.Key('x'))
	done, ok := screentest.Find[exportDoneMsg](screentest.Drain(cmd))
	if !ok || done.Err != nil || !strings.HasSuffix(done.Path, ".xlsx") {
		t.Fatalf("export = %+v", done)
	}
}

func TestSummaryScreen_Esc(t *testing.T) {
	s, _ := loadedScreen(t, testEvals())
	_, cmd := s.Update(screentest.Special(tea.KeyEscape))
	if _, ok := screentest.Find[router.PopScreenMsg](screentest.Drain(cmd)); !ok {
		t.Error("expected pop on Esc")
	}
}

func TestSummaryScreen_KeyHints(t *testing.T) {
	s, _ := loadedScreen(t, testEvals())
	if len(s.KeyHints()) != 5 {
		t.Errorf("KeyHints length = %d, want 5", len(s.KeyHints()))
	}
}
