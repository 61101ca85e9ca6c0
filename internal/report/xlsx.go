package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/zuvy/assess/internal/results"
)

// Sheet names used in the workbook.
const (
	SheetSummary   = "Summary"
	SheetTopics    = "Topics"
	SheetQuestions = "Questions"
)

// WriteXLSX renders d as a workbook with Summary, Topics and Questions sheets.
func WriteXLSX(w io.Writer, d Data) error {
	f := excelize.NewFile()
	defer f.Close()

	// The default sheet becomes Summary.
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	for _, name := range []string{SheetTopics, SheetQuestions} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create Excel sheet: %w", err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	s := d.Stats
	summary := [][]any{
		{"Student", d.Student.Name},
		{"Email", d.Student.Email},
		{"Assessment", d.Title()},
		{"Date", d.Date.Format("2006-01-02")},
		{"Result", statusLabel(s.Passed)},
		{"Score (%)", s.Score},
		{"Correct", s.Correct},
		{"Total", s.Total},
		{"Passing Score (%)", results.PassThreshold},
		{"Performance Summary", s.Summary},
		{"Recommendations", s.Recommendations},
	}
	if err := writeRows(f, SheetSummary, summary); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetSummary, "A1", fmt.Sprintf("A%d", len(summary)), bold); err != nil {
		return err
	}

	topics := [][]any{{"Topic", "Correct", "Total", "Accuracy (%)", "Status"}}
	for _, t := range s.Topics {
		topics = append(topics, []any{t.Topic, t.Correct, t.Total, t.Accuracy, topicStatus(t.Accuracy)})
	}
	if err := writeRows(f, SheetTopics, topics); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetTopics, "A1", "E1", bold); err != nil {
		return err
	}

	questions := [][]any{{"#", "Question", "Topic", "Difficulty", "Your Answer", "Correct Answer", "Result", "Explanation"}}
	for _, item := range d.Review {
		questions = append(questions, []any{
			item.Number,
			item.Question,
			item.Topic,
			item.Difficulty,
			answerText(item, func(o results.ReviewOption) bool { return o.Selected }),
			answerText(item, func(o results.ReviewOption) bool { return o.Correct }),
			resultLabel(item),
			item.Explanation,
		})
	}
	if err := writeRows(f, SheetQuestions, questions); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetQuestions, "A1", "H1", bold); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write Excel file: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func answerText(item results.ReviewItem, pick func(results.ReviewOption) bool) string {
	var parts []string
	for _, o := range item.Options {
		if pick(o) {
			parts = append(parts, fmt.Sprintf("%d. %s", o.Number, o.Text))
		}
	}
	return strings.Join(parts, "; ")
}

func resultLabel(item results.ReviewItem) string {
	switch {
	case item.Correct:
		return "Correct"
	case item.Skipped:
		return "Skipped"
	default:
		return "Incorrect"
	}
}
