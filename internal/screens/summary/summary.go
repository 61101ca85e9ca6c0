// Package summary is the results screen of a submitted assessment.
package summary

import (
	"context"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/zuvy/assess/internal/api"
	"github.com/zuvy/assess/internal/assessment"
	"github.com/zuvy/assess/internal/coach"
	"github.com/zuvy/assess/internal/report"
	"github.com/zuvy/assess/internal/results"
	"github.com/zuvy/assess/internal/router"
	"github.com/zuvy/assess/internal/screen"
	"github.com/zuvy/assess/internal/speech"
	"github.com/zuvy/assess/internal/ui/layout"
)

const narrationTick = 500 * time.Millisecond

type evaluationsLoadedMsg struct {
	Evals  []assessment.Evaluation
	Stats  results.Stats
	Review []results.ReviewItem
	Source coach.Source
	Err    error
}

type exportDoneMsg struct {
	Path string
	Err  error
}

type narrationTickMsg struct{}

// SummaryScreen shows the evaluated results of one assessment.
type SummaryScreen struct {
	deps       *screen.Deps
	user       assessment.User
	assessment assessment.Assessment

	evals  []assessment.Evaluation
	stats  results.Stats
	review []results.ReviewItem
	source coach.Source

	offset    int
	loading   bool
	exporting bool
	errMsg    string
}

var _ screen.Screen = (*SummaryScreen)(nil)
var _ screen.KeyHintProvider = (*SummaryScreen)(nil)
var _ screen.EscapeHandler = (*SummaryScreen)(nil)

// New creates a new SummaryScreen.
func New(deps *screen.Deps, user assessment.User, a assessment.Assessment) *SummaryScreen {
	return &SummaryScreen{deps: deps, user: user, assessment: a, loading: true}
}

func (s *SummaryScreen) Init() tea.Cmd {
	return s.load()
}

// load fetches the evaluations and completes missing narrative fields
// through the coach, which may call an LLM.
func (s *SummaryScreen) load() tea.Cmd {
	s.loading = true
	s.errMsg = ""
	deps := s.deps
	userID := s.user.ID
	id := s.assessment.ID
	return func() tea.Msg {
		ctx := context.Background()
		evals, err := deps.Backend.Evaluations(ctx, userID, id)
		if err != nil {
			return evaluationsLoadedMsg{Err: err}
		}
		msg := evaluationsLoadedMsg{
			Evals:  evals,
			Stats:  results.ComputeStats(evals),
			Review: results.Review(evals),
		}
		if len(evals) > 0 && deps.Coach != nil {
			msg.Source = deps.Coach.Complete(ctx, &msg.Stats, msg.Review)
		}
		return msg
	}
}

func (s *SummaryScreen) Title() string {
	return "Results"
}

// HandlesEscape stops narration before leaving.
func (s *SummaryScreen) HandlesEscape() bool {
	return true
}

func (s *SummaryScreen) KeyHints() []layout.KeyHint {
	if s.errMsg != "" || len(s.evals) == 0 {
		return []layout.KeyHint{
			{Key: "r", Description: "Retry"},
			{Key: "Esc", Description: "Back"},
		}
	}
	hints := []layout.KeyHint{
		{Key: "↑↓", Description: "Scroll"},
		{Key: "d", Description: "PDF"},
		{Key: "x", Description: "Excel"},
		{Key: "v", Description: "Read summary"},
	}
	if s.speaking() {
		hints = append(hints, layout.KeyHint{Key: "Space", Description: "Pause/Resume"})
	}
	return append(hints, layout.KeyHint{Key: "Esc", Description: "Back"})
}

func (s *SummaryScreen) speaking() bool {
	return s.deps.Narrator != nil && s.deps.Narrator.State() != speech.Idle
}

func (s *SummaryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case evaluationsLoadedMsg:
		s.loading = false
		if msg.Err != nil {
			s.errMsg = api.Message(msg.Err, "Could not load your results.")
			return s, nil
		}
		s.evals = msg.Evals
		s.stats = msg.Stats
		s.review = msg.Review
		s.source = msg.Source
		s.offset = 0
		return s, nil

	case exportDoneMsg:
		s.exporting = false
		if msg.Err != nil {
			s.deps.Logger.Error("report export failed", "error", msg.Err)
			return s, screen.Toast("Export failed: "+msg.Err.Error(), true)
		}
		s.deps.Logger.Info("report exported", "path", msg.Path)
		return s, screen.Toast("Saved "+msg.Path, false)

	case narrationTickMsg:
		if s.speaking() {
			return s, tickNarration()
		}
		return s, nil

	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

func (s *SummaryScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "esc":
		s.deps.StopSpeaking()
		return s, router.Pop()
	case "r":
		if !s.loading {
			return s, s.load()
		}
		return s, nil
	}
	if len(s.evals) == 0 {
		return s, nil
	}

	switch msg.String() {
	case "up", "k":
		s.offset = max(s.offset-1, 0)
	case "down", "j":
		s.offset++
	case "pgup":
		s.offset = max(s.offset-10, 0)
	case "pgdown":
		s.offset += 10
	case "home":
		s.offset = 0
	case "d":
		return s, s.export(report.PDF)
	case "x":
		return s, s.export(report.XLSX)
	case "v":
		cmd := s.deps.Speak(speech.ReportText(s.stats.Summary, s.stats.Recommendations), speech.ResultsOptions())
		return s, tea.Batch(cmd, tickNarration())
	case "space":
		if s.deps.Narrator == nil {
			return s, nil
		}
		if err := s.deps.Narrator.Toggle(); err != nil {
			return s, screen.Toast(err.Error(), true)
		}
		return s, tickNarration()
	}
	return s, nil
}

func tickNarration() tea.Cmd {
	return tea.Tick(narrationTick, func(time.Time) tea.Msg { return narrationTickMsg{} })
}

func (s *SummaryScreen) export(format report.Format) tea.Cmd {
	if s.exporting {
		return nil
	}
	s.exporting = true
	data := report.NewData(s.user, s.evals, s.deps.Clock())
	data.Stats = s.stats
	dir := s.deps.ReportDir
	return func() tea.Msg {
		path, err := report.Save(dir, data, format)
		return exportDoneMsg{Path: path, Err: err}
	}
}

func (s *SummaryScreen) View(width, height int) string {
	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)
	switch {
	case s.loading:
		return center.Render(hint("\n\n  Loading results..."))
	case s.errMsg != "":
		return center.Render("\n\n" + errorText(s.errMsg) + "\n\n" + hint("Press r to retry"))
	case len(s.evals) == 0:
		return center.Render("\n\n" + hint("Your results are not ready yet. Press r to check again."))
	}

	lines := strings.Split(s.renderContent(min(width-4, 100)), "\n")
	s.offset = min(s.offset, max(len(lines)-height, 0))
	end := min(len(lines), s.offset+height)
	body := strings.Join(lines[s.offset:end], "\n")
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, body)
}

func (s *SummaryScreen) renderContent(width int) string {
	sections := []string{
		renderScoreBox(s.stats, s.assessment.Title, width),
		renderTopics(s.stats.Topics, width),
		renderFeedback(s.stats, s.source, width),
	}
	if s.speaking() {
		sections = append(sections, renderNarration(s.deps.Narrator, width))
	}
	sections = append(sections, renderReview(s.review, width))
	return strings.Join(sections, "\n\n")
}
