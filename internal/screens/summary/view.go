package summary

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/zuvy/assess/internal/coach"
	"github.com/zuvy/assess/internal/results"
	"github.com/zuvy/assess/internal/speech"
	"github.com/zuvy/assess/internal/ui/components"
	"github.com/zuvy/assess/internal/ui/theme"
)

func hint(s string) string {
	return theme.Hint.Render(s)
}

func errorText(s string) string {
	return theme.ErrorText.Render(s)
}

func section(title string, width int) string {
	divider := lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", width))
	return lipgloss.NewStyle().Foreground(theme.TextDim).Bold(true).Render(title) + "\n" + divider
}

func renderScoreBox(stats results.Stats, title string, width int) string {
	if title == "" {
		title = stats.Language + " Assessment"
	}
	status := theme.BadgeActive.Render("PASSED")
	if !stats.Passed {
		status = lipgloss.NewStyle().Background(theme.Error).Foreground(theme.Text).Bold(true).Padding(0, 1).Render("NOT PASSED")
	}

	var b strings.Builder
	b.WriteString(theme.Title.Render(title) + "\n\n")
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(theme.Text).
		Render(fmt.Sprintf("Score %d%%", stats.Score)) + "   " + status + "   ")
	b.WriteString(theme.Subtitle.Render(results.Rate(stats.Score).String()) + "\n\n")
	b.WriteString(components.ScoreBar("", stats.Score, results.PassThreshold, width-6).View() + "\n\n")
	b.WriteString(fmt.Sprintf("%s %d   %s %d   %s %d   %s %d%%",
		theme.Correct.Render("Correct"), stats.Correct,
		theme.Incorrect.Render("Incorrect"), stats.Incorrect(),
		theme.Subtitle.Render("Total"), stats.Total,
		theme.Subtitle.Render("Pass mark"), results.PassThreshold))
	return theme.Card.Width(width).Render(b.String())
}

func renderTopics(topics []results.TopicStats, width int) string {
	var b strings.Builder
	b.WriteString(section("Topics", width) + "\n")
	nameWidth := 0
	for _, t := range topics {
		nameWidth = max(nameWidth, lipgloss.Width(t.Topic))
	}
	nameWidth = min(nameWidth, width/3)
	for _, t := range topics {
		label := lipgloss.NewStyle().Width(nameWidth).MaxWidth(nameWidth).Render(t.Topic)
		count := fmt.Sprintf("%3d/%-3d", t.Correct, t.Total)
		bar := components.ScoreBar("", t.Accuracy, results.PassThreshold, width-nameWidth-12)
		b.WriteString(label + "  " + theme.Subtitle.Render(count) + " " + bar.View() + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderFeedback(stats results.Stats, source coach.Source, width int) string {
	text := lipgloss.NewStyle().Width(width).Foreground(theme.Text)
	var b strings.Builder
	b.WriteString(section("Performance Summary", width) + "\n")
	b.WriteString(text.Render(stats.Summary) + "\n\n")
	b.WriteString(section("Recommendations", width) + "\n")
	b.WriteString(text.Render(stats.Recommendations))
	if source == coach.SourceTemplate {
		b.WriteString("\n" + hint("Generated offline from your scores."))
	}
	return b.String()
}

func renderNarration(n *speech.Narrator, width int) string {
	label := "Reading aloud"
	if n.State() == speech.Paused {
		label = "Paused"
	}
	return components.NewProgressBar(label, n.Progress()/100, true, width).View()
}

func renderReview(items []results.ReviewItem, width int) string {
	var b strings.Builder
	b.WriteString(section("Question Review", width) + "\n")
	text := lipgloss.NewStyle().Width(width - 4)
	for _, item := range items {
		var verdict string
		switch {
		case item.Correct:
			verdict = theme.Correct.Render("✓ Correct")
		case item.Skipped:
			verdict = theme.Skipped.Render("– Skipped")
		default:
			verdict = theme.Incorrect.Render("✗ Incorrect")
		}
		meta := strings.TrimSpace(strings.Join([]string{item.Topic, item.Difficulty}, " · "))
		b.WriteString(fmt.Sprintf("\n%s  %s  %s\n",
			theme.Selected.Render(fmt.Sprintf("Q%d", item.Number)), verdict, theme.Subtitle.Render(meta)))
		b.WriteString(text.Foreground(theme.Text).Bold(true).Render(item.Question) + "\n")
		for _, o := range item.Options {
			mark := "  "
			style := lipgloss.NewStyle().Foreground(theme.TextDim)
			switch {
			case o.Correct:
				mark = "✓ "
				style = theme.Correct
			case o.Selected:
				mark = "✗ "
				style = theme.Incorrect
			}
			line := fmt.Sprintf("  %s%d) %s", mark, o.Number, o.Text)
			if o.Selected {
				line += "  (your answer)"
			}
			b.WriteString(style.Render(line) + "\n")
		}
		if item.Explanation != "" {
			b.WriteString(text.Foreground(theme.TextDim).Italic(true).Render("  "+item.Explanation) + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
