// Package report renders evaluation results to PDF and XLSX documents.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/zuvy/assess/internal/assessment"
	"github.com/zuvy/assess/internal/results"
)

// Format selects the output document type.
type Format string

const (
	PDF  Format = "pdf"
	XLSX Format = "xlsx"
)

// ParseFormat accepts "pdf" or "xlsx" in any case.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case PDF:
		return PDF, nil
	case XLSX:
		return XLSX, nil
	}
	return "", fmt.Errorf("unknown report format %q (want pdf or xlsx)", s)
}

// Data is everything a report shows.
type Data struct {
	Student assessment.User
	Stats   results.Stats
	Review  []results.ReviewItem
	Date    time.Time
}

// NewData aggregates evaluations into report data.
func NewData(student assessment.User, evals []assessment.Evaluation, date time.Time) Data {
	return Data{
		Student: student,
		Stats:   results.ComputeStats(evals),
		Review:  results.Review(evals),
		Date:    date,
	}
}

// Title is the assessment label shown in the report header.
func (d Data) Title() string {
	return d.Stats.Language + " Assessment"
}

var whitespaceRuns = regexp.MustCompile(`\s+`)

// Filename returns Assessment_Report_{name}_{YYYY-MM-DD}.{ext} with
// whitespace runs in name collapsed to underscores.
func Filename(name string, date time.Time, format Format) string {
	name = whitespaceRuns.ReplaceAllString(strings.TrimSpace(name), "_")
	if name == "" {
		name = "Student"
	}
	return fmt.Sprintf("Assessment_Report_%s_%s.%s", name, date.Format(time.DateOnly), format)
}

// Write renders d in the given format.
func Write(w io.Writer, d Data, format Format) error {
	switch format {
	case PDF:
		return WritePDF(w, d)
	case XLSX:
		return WriteXLSX(w, d)
	}
	return fmt.Errorf("unknown report format %q", format)
}

// Save writes the report into dir and returns the file path.
func Save(dir string, d Data, format Format) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}
	path := filepath.Join(dir, Filename(d.Student.Name, d.Date, format))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report: %w", err)
	}
	if err := Write(f, d, format); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close report: %w", err)
	}
	return path, nil
}

func statusLabel(passed bool) string {
	if passed {
		return "PASSED"
	}
	return "NOT PASSED"
}

func topicStatus(accuracy int) string {
	return results.Rate(accuracy).String()
}
