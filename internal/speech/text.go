package speech

import (
	"fmt"
	"strings"

	"github.com/zuvy/assess/internal/assessment"
)

// ReportText builds the narration of an evaluation summary. It returns ""
// when there is nothing to read.
func ReportText(summary, recommendations string) string {
	var b strings.Builder
	if summary != "" {
		b.WriteString("Performance Summary. " + summary + ". ")
	}
	if recommendations != "" {
		b.WriteString("Recommendations. " + recommendations + ".")
	}
	if strings.TrimSpace(b.String()) == "" {
		return ""
	}
	return Sanitize(b.String())
}

// QuestionText builds the narration of a question and its options.
func QuestionText(number int, q assessment.UIQuestion) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question %d. %s. ", number, q.Text)
	if q.Type == assessment.MultiAnswer {
		b.WriteString("Select all that apply. ")
	}
	b.WriteString("The options are. ")
	for i, o := range q.Options {
		fmt.Fprintf(&b, "Option %c. %s. ", 'A'+rune(i), o.Text)
	}
	return Sanitize(b.String())
}
