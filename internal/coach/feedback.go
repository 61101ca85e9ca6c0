// Package coach writes the narrative parts of an assessment: the summary
// and recommendations shown with results, and the generated questions the
// development backend serves.
package coach

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/zuvy/assess/internal/llm"
	"github.com/zuvy/assess/internal/results"
)

// Feedback is the narrative shown next to the score.
type Feedback struct {
	Summary         string `json:"summary"`
	Recommendations string `json:"recommendations"`
}

// Source tells where a narrative came from.
type Source int

const (
	SourceServer Source = iota
	SourceModel
	SourceTemplate
)

func (s Source) String() string {
	switch s {
	case SourceModel:
		return "model"
	case SourceTemplate:
		return "template"
	default:
		return "server"
	}
}

// FeedbackSchema is the structured output requested for Feedback.
var FeedbackSchema = &llm.Schema{
	Name:        "assessment-feedback",
	Description: "Short feedback for a student on a completed multiple-choice assessment",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "Two or three sentences describing overall performance",
			},
			"recommendations": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "Concrete next steps, one per line, focused on the weakest topics",
			},
		},
		"required":             []any{"summary", "recommendations"},
		"additionalProperties": false,
	},
}

const feedbackSystemPrompt = `You are a programming instructor reviewing a student's multiple-choice assessment.

Rules:
- Address the student directly in a supportive, specific tone.
- The summary is two or three sentences about the overall result.
- Recommendations are at most four short lines, each starting with "- ", naming topics to revisit.
- Mention only topics listed in the input. Do not invent scores.
- Plain text only. No markdown headings, no code blocks.`

// Coach produces narratives through an optional model provider.
type Coach struct {
	provider  llm.Provider
	logger    *slog.Logger
	maxTokens int
}

// New returns a Coach. A nil provider makes every call use the templates.
func New(provider llm.Provider, logger *slog.Logger) *Coach {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coach{provider: provider, logger: logger, maxTokens: 600}
}

// Enabled reports whether a model provider is configured.
func (c *Coach) Enabled() bool {
	return c != nil && c.provider != nil
}

// Feedback asks the model for a narrative and falls back to Template when
// no provider is configured or the call fails.
func (c *Coach) Feedback(ctx context.Context, stats results.Stats, review []results.ReviewItem) (Feedback, Source) {
	if !c.Enabled() || stats.Total == 0 {
		return Template(stats), SourceTemplate
	}

	ctx = llm.WithPurpose(ctx, llm.PurposeFeedback)
	req := llm.UserPrompt(feedbackSystemPrompt, feedbackPrompt(stats, review), FeedbackSchema, c.maxTokens)
	req.Temperature = 0.4

	resp, err := c.provider.Generate(ctx, req)
	if err == nil {
		var fb Feedback
		if fb, err = llm.Decode[Feedback](resp); err == nil {
			fb.Summary = strings.TrimSpace(fb.Summary)
			fb.Recommendations = strings.TrimSpace(fb.Recommendations)
			return fb, SourceModel
		}
	}
	c.logger.Warn("feedback generation failed, using template", "error", err)
	return Template(stats), SourceTemplate
}

// Complete fills stats.Summary and stats.Recommendations when the server
// left them empty. Server text is never replaced.
func (c *Coach) Complete(ctx context.Context, stats *results.Stats, review []results.ReviewItem) Source {
	if stats.Summary != "" && stats.Recommendations != "" {
		return SourceServer
	}
	fb, src := c.Feedback(ctx, *stats, review)
	if stats.Summary == "" {
		stats.Summary = fb.Summary
	}
	if stats.Recommendations == "" {
		stats.Recommendations = fb.Recommendations
	}
	return src
}

func feedbackPrompt(stats results.Stats, review []results.ReviewItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Assessment: %s\n", stats.Language)
	fmt.Fprintf(&b, "Score: %d%% (%d of %d correct), pass mark %d%%\n",
		stats.Score, stats.Correct, stats.Total, results.PassThreshold)

	b.WriteString("\nTopics:\n")
	for _, t := range stats.Topics {
		fmt.Fprintf(&b, "- %s: %d/%d (%d%%)\n", t.Topic, t.Correct, t.Total, t.Accuracy)
	}

	missed := 0
	b.WriteString("\nMissed questions:\n")
	for _, item := range review {
		if item.Correct {
			continue
		}
		if missed == 8 {
			b.WriteString("- ...\n")
			break
		}
		state := "wrong"
		if item.Skipped {
			state = "skipped"
		}
		fmt.Fprintf(&b, "- [%s, %s] %s\n", item.Topic, state, oneLine(item.Question, 160))
		missed++
	}
	if missed == 0 {
		b.WriteString("None\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// Template writes a deterministic narrative from the statistics alone.
func Template(stats results.Stats) Feedback {
	if stats.Total == 0 {
		return Feedback{
			Summary:         "No answers were evaluated for this assessment.",
			Recommendations: "- Retake the assessment when it is available again.",
		}
	}

	var summary string
	switch results.Rate(stats.Score) {
	case results.Excellent:
		summary = fmt.Sprintf("Excellent work: you answered %d of %d questions correctly (%d%%).", stats.Correct, stats.Total, stats.Score)
	case results.Good:
		summary = fmt.Sprintf("Good job: you passed with %d of %d questions correct (%d%%).", stats.Correct, stats.Total, stats.Score)
	default:
		summary = fmt.Sprintf("You answered %d of %d questions correctly (%d%%), below the %d%% pass mark.",
			stats.Correct, stats.Total, stats.Score, results.PassThreshold)
	}

	topics := append([]results.TopicStats(nil), stats.Topics...)
	sort.SliceStable(topics, func(i, j int) bool { return topics[i].Accuracy < topics[j].Accuracy })

	if len(topics) > 0 {
		best := topics[len(topics)-1]
		if best.Accuracy >= 80 {
			summary += fmt.Sprintf(" Your strongest topic was %s.", best.Topic)
		}
	}

	var recs []string
	for _, t := range topics {
		if t.Accuracy >= results.PassThreshold || len(recs) == 3 {
			break
		}
		recs = append(recs, fmt.Sprintf("- Revisit %s: %d of %d correct.", t.Topic, t.Correct, t.Total))
	}
	if len(recs) == 0 {
		recs = append(recs, "- Keep practicing with harder problems to consolidate what you know.")
	} else {
		recs = append(recs, "- Work through the explanations of the questions you missed.")
	}
	return Feedback{Summary: summary, Recommendations: strings.Join(recs, "\n")}
}

func oneLine(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > max {
		return s[:max-3] + "..."
	}
	return s
}
