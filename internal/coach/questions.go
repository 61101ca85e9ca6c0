package coach

import (
	"context"
	"fmt"
	"strings"

	"github.com/zuvy/assess/internal/llm"
)

// QuestionRequest asks for Count questions on one topic.
type QuestionRequest struct {
	Topic      string
	Count      int
	Difficulty string
	Language   string
	// Prior lists question texts already used in the assessment.
	Prior []string
}

// Question is one generated multiple-choice question. Correct indexes
// Options.
type Question struct {
	Text        string   `json:"question"`
	Options     []string `json:"options"`
	Correct     int      `json:"correctIndex"`
	Explanation string   `json:"explanation"`
	Topic       string   `json:"-"`
	Difficulty  string   `json:"difficulty"`
}

const optionsPerQuestion = 4

// QuestionsSchema is the structured output requested for question batches.
var QuestionsSchema = &llm.Schema{
	Name:        "assessment-questions",
	Description: "A batch of multiple-choice programming questions on one topic",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"question": map[string]any{"type": "string", "minLength": 1, "description": "Self-contained question text"},
						"options": map[string]any{
							"type":        "array",
							"items":       map[string]any{"type": "string"},
							"minItems":    optionsPerQuestion,
							"maxItems":    optionsPerQuestion,
							"description": "Exactly four answer options, one correct",
						},
						"correctIndex": map[string]any{"type": "integer", "minimum": 0, "maximum": optionsPerQuestion - 1},
						"explanation":  map[string]any{"type": "string", "minLength": 1, "description": "Why the correct option is right"},
						"difficulty":   map[string]any{"type": "string", "enum": []any{"Easy", "Medium", "Hard"}},
					},
					"required":             []any{"question", "options", "correctIndex", "explanation", "difficulty"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"questions"},
		"additionalProperties": false,
	},
}

const questionsSystemPrompt = `You write multiple-choice questions for a programming bootcamp assessment.

Rules:
- Every question has exactly four options and exactly one correct option.
- Distractors reflect common misconceptions, not obviously wrong values.
- Options are short and distinct. Do not use "all of the above" or "none of the above".
- Code appears inline in backticks and fits on one line.
- Stay on the given topic and difficulty.
- Do not repeat any question from the "already asked" list.`

type questionsOutput struct {
	Questions []Question `json:"questions"`
}

// Questions generates req.Count questions. Model output that fails the
// structural checks is dropped and the shortfall is filled from the
// built-in bank, so the result always has req.Count questions.
func (c *Coach) Questions(ctx context.Context, req QuestionRequest) []Question {
	if req.Count <= 0 {
		return nil
	}
	if req.Difficulty == "" {
		req.Difficulty = "Medium"
	}

	var out []Question
	if c.Enabled() {
		generated, err := c.generateQuestions(ctx, req)
		if err != nil {
			c.logger.Warn("question generation failed, using bank", "topic", req.Topic, "error", err)
		}
		out = generated
	}

	seen := make(map[string]bool, len(req.Prior)+len(out))
	for _, p := range req.Prior {
		seen[normalize(p)] = true
	}
	kept := out[:0]
	for _, q := range out {
		key := normalize(q.Text)
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, q)
	}
	out = kept

	for _, q := range BankQuestions(req.Topic, req.Difficulty, req.Count+len(seen)) {
		if len(out) >= req.Count {
			break
		}
		if key := normalize(q.Text); !seen[key] {
			seen[key] = true
			out = append(out, q)
		}
	}
	if len(out) > req.Count {
		out = out[:req.Count]
	}
	return out
}

func (c *Coach) generateQuestions(ctx context.Context, req QuestionRequest) ([]Question, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeQuestions)
	prompt := questionsPrompt(req)
	resp, err := c.provider.Generate(ctx, llm.UserPrompt(questionsSystemPrompt, prompt, QuestionsSchema, 400*req.Count+200))
	if err != nil {
		return nil, err
	}
	raw, err := llm.Decode[questionsOutput](resp)
	if err != nil {
		return nil, err
	}

	out := make([]Question, 0, len(raw.Questions))
	for _, q := range raw.Questions {
		q.Topic = req.Topic
		q.Text = strings.TrimSpace(q.Text)
		if err := CheckQuestion(q); err != nil {
			c.logger.Debug("dropping generated question", "topic", req.Topic, "error", err)
			continue
		}
		out = append(out, q)
	}
	return out, nil
}

func questionsPrompt(req QuestionRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\n", req.Topic)
	if req.Language != "" {
		fmt.Fprintf(&b, "Language: %s\n", req.Language)
	}
	fmt.Fprintf(&b, "Difficulty: %s\n", req.Difficulty)
	fmt.Fprintf(&b, "Number of questions: %d\n", req.Count)

	b.WriteString("\nAlready asked:\n")
	prior := req.Prior
	if len(prior) > 20 {
		prior = prior[len(prior)-20:]
	}
	if len(prior) == 0 {
		b.WriteString("None")
	}
	for i, p := range prior {
		fmt.Fprintf(&b, "%d. %s\n", i+1, oneLine(p, 200))
	}
	return strings.TrimRight(b.String(), "\n")
}

// CheckQuestion rejects questions a student could not answer unambiguously.
func CheckQuestion(q Question) error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("empty question text")
	}
	if len(q.Options) != optionsPerQuestion {
		return fmt.Errorf("want %d options, got %d", optionsPerQuestion, len(q.Options))
	}
	if q.Correct < 0 || q.Correct >= len(q.Options) {
		return fmt.Errorf("correct index %d out of range", q.Correct)
	}
	seen := make(map[string]bool, len(q.Options))
	for _, o := range q.Options {
		key := normalize(o)
		if key == "" {
			return fmt.Errorf("empty option")
		}
		if seen[key] {
			return fmt.Errorf("duplicate option %q", o)
		}
		if strings.Contains(key, "all of the above") || strings.Contains(key, "none of the above") {
			return fmt.Errorf("catch-all option %q", o)
		}
		seen[key] = true
	}
	return nil
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
