package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/zuvy/assess/internal/results"
)

const (
	margin     = 40.0
	lineHeight = 14.0

	// Remaining-space thresholds, measured from the bottom edge.
	rowBreak    = 80.0
	recBreak    = 60.0
	reviewBreak = 40.0
)

type rgb struct{ r, g, b int }

var (
	colorPrimary = rgb{139, 92, 246}
	colorText    = rgb{30, 41, 59}
	colorDim     = rgb{100, 116, 139}
	colorSuccess = rgb{34, 197, 94}
	colorError   = rgb{244, 63, 94}
	colorPassBg  = rgb{220, 252, 231}
	colorFailBg  = rgb{255, 228, 230}
	colorHeadBg  = rgb{241, 245, 249}
	colorExplBg  = rgb{248, 250, 252}
	colorBorder  = rgb{203, 213, 225}
)

// pdfRenderer tracks page geometry while laying out a report.
type pdfRenderer struct {
	pdf    *fpdf.Fpdf
	tr     func(string) string
	width  float64
	height float64
	inner  float64
}

// WritePDF renders d as an A4 PDF.
func WritePDF(w io.Writer, d Data) error {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, reviewBreak)
	pdf.AliasNbPages("")

	width, height := pdf.GetPageSize()
	r := &pdfRenderer{
		pdf:    pdf,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
		width:  width,
		height: height,
		inner:  width - 2*margin,
	}

	generated := d.Date.Format("January 2, 2006")
	pdf.SetFooterFunc(func() {
		pdf.SetY(height - 30)
		pdf.SetFont("Helvetica", "", 8)
		r.textColor(colorDim)
		pdf.CellFormat(0, 10, r.tr(fmt.Sprintf("Page %d of {nb} | Generated on %s", pdf.PageNo(), generated)),
			"", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	r.header(d)
	r.resultBox(d)
	r.summary(d)
	r.topics(d)
	r.recommendations(d)
	r.review(d)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

func (r *pdfRenderer) fill(c rgb)      { r.pdf.SetFillColor(c.r, c.g, c.b) }
func (r *pdfRenderer) textColor(c rgb) { r.pdf.SetTextColor(c.r, c.g, c.b) }
func (r *pdfRenderer) draw(c rgb)      { r.pdf.SetDrawColor(c.r, c.g, c.b) }

// ensure starts a new page when less than space remains above the bottom edge.
func (r *pdfRenderer) ensure(space float64) {
	if r.pdf.GetY() > r.height-space {
		r.pdf.AddPage()
	}
}

func (r *pdfRenderer) heading(title string) {
	r.pdf.Ln(10)
	r.pdf.SetFont("Helvetica", "B", 14)
	r.textColor(colorPrimary)
	r.pdf.CellFormat(0, 20, r.tr(title), "", 1, "L", false, 0, "")
	r.pdf.SetFont("Helvetica", "", 10)
	r.textColor(colorText)
}

func (r *pdfRenderer) header(d Data) {
	pdf := r.pdf
	r.fill(colorPrimary)
	pdf.Rect(0, 0, r.width, 70, "F")
	pdf.SetXY(margin, 25)
	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(r.inner, 24, r.tr("Assessment Evaluation Report"), "", 1, "C", false, 0, "")

	pdf.SetY(90)
	rows := [][2]string{
		{"Student", d.Student.Name},
		{"Email", d.Student.Email},
		{"Assessment", d.Title()},
		{"Date", d.Date.Format("January 2, 2006")},
	}
	for _, row := range rows {
		pdf.SetFont("Helvetica", "B", 10)
		r.textColor(colorDim)
		pdf.CellFormat(80, lineHeight, r.tr(row[0]+":"), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		r.textColor(colorText)
		pdf.CellFormat(0, lineHeight, r.tr(row[1]), "", 1, "L", false, 0, "")
	}
}

func (r *pdfRenderer) resultBox(d Data) {
	pdf := r.pdf
	s := d.Stats
	pdf.Ln(12)
	top := pdf.GetY()

	accent, bg := colorError, colorFailBg
	if s.Passed {
		accent, bg = colorSuccess, colorPassBg
	}
	r.fill(bg)
	r.draw(accent)
	pdf.SetLineWidth(1.5)
	pdf.Rect(margin, top, r.inner, 80, "FD")
	pdf.SetLineWidth(0.5)

	pdf.SetXY(margin, top+12)
	pdf.SetFont("Helvetica", "B", 22)
	r.textColor(accent)
	pdf.CellFormat(r.inner, 26, statusLabel(s.Passed), "", 1, "C", false, 0, "")

	pdf.SetX(margin)
	pdf.SetFont("Helvetica", "B", 12)
	r.textColor(colorText)
	pdf.CellFormat(r.inner, 16, fmt.Sprintf("Score: %d%%   %d / %d correct", s.Score, s.Correct, s.Total),
		"", 1, "C", false, 0, "")

	pdf.SetX(margin)
	pdf.SetFont("Helvetica", "", 9)
	r.textColor(colorDim)
	pdf.CellFormat(r.inner, 14, fmt.Sprintf("Passing Score: %d%%", results.PassThreshold), "", 1, "C", false, 0, "")

	pdf.SetY(top + 90)
}

func (r *pdfRenderer) summary(d Data) {
	if strings.TrimSpace(d.Stats.Summary) == "" {
		return
	}
	r.heading("Performance Summary")
	r.pdf.MultiCell(0, lineHeight, r.tr(d.Stats.Summary), "", "L", false)
}

func (r *pdfRenderer) topics(d Data) {
	if len(d.Stats.Topics) == 0 {
		return
	}
	pdf := r.pdf
	r.ensure(rowBreak)
	r.heading("Topic Performance")

	widths := []float64{r.inner * 0.40, r.inner * 0.20, r.inner * 0.15, r.inner * 0.25}
	cols := []string{"Topic", "Correct/Total", "Accuracy", "Status"}

	headerRow := func() {
		pdf.SetFont("Helvetica", "B", 10)
		r.fill(colorHeadBg)
		r.draw(colorBorder)
		r.textColor(colorText)
		for i, c := range cols {
			pdf.CellFormat(widths[i], 18, c, "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 10)
	}
	headerRow()

	for _, t := range d.Stats.Topics {
		if pdf.GetY() > r.height-rowBreak {
			pdf.AddPage()
			headerRow()
		}
		pdf.CellFormat(widths[0], 18, r.tr(t.Topic), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 18, fmt.Sprintf("%d/%d", t.Correct, t.Total), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 18, fmt.Sprintf("%d%%", t.Accuracy), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[3], 18, topicStatus(t.Accuracy), "1", 1, "L", false, 0, "")
	}
}

func (r *pdfRenderer) recommendations(d Data) {
	if strings.TrimSpace(d.Stats.Recommendations) == "" {
		return
	}
	r.ensure(recBreak)
	r.heading("Recommendations")
	r.pdf.MultiCell(0, lineHeight, r.tr(d.Stats.Recommendations), "", "L", false)
}

func (r *pdfRenderer) review(d Data) {
	if len(d.Review) == 0 {
		return
	}
	pdf := r.pdf
	r.ensure(reviewBreak)
	r.heading("Detailed Question Review")

	for _, item := range d.Review {
		r.ensure(rowBreak)
		pdf.Ln(6)

		pdf.SetFont("Helvetica", "B", 11)
		r.textColor(colorText)
		label := fmt.Sprintf("Question %d", item.Number)
		pdf.CellFormat(pdf.GetStringWidth(label)+10, 16, label, "", 0, "L", false, 0, "")

		badge, accent := "INCORRECT", colorError
		if item.Correct {
			badge, accent = "CORRECT", colorSuccess
		}
		pdf.SetFont("Helvetica", "B", 8)
		r.fill(accent)
		pdf.SetTextColor(255, 255, 255)
		pdf.CellFormat(pdf.GetStringWidth(badge)+12, 14, badge, "", 1, "C", true, 0, "")

		pdf.SetFont("Helvetica", "", 10)
		r.textColor(colorText)
		pdf.MultiCell(0, lineHeight, r.tr(item.Question), "", "L", false)

		pdf.SetFont("Helvetica", "I", 9)
		r.textColor(colorDim)
		pdf.CellFormat(0, lineHeight, r.tr(fmt.Sprintf("Topic: %s | Difficulty: %s", item.Topic, item.Difficulty)),
			"", 1, "L", false, 0, "")

		for _, o := range item.Options {
			r.option(o.Number, o.Text, o.Selected, o.Correct)
		}

		if strings.TrimSpace(item.Explanation) != "" {
			pdf.Ln(4)
			pdf.SetFont("Helvetica", "", 9)
			r.fill(colorExplBg)
			r.draw(colorBorder)
			r.textColor(colorText)
			pdf.MultiCell(0, lineHeight, r.tr("Explanation: "+item.Explanation), "1", "L", true)
		}
	}
}

func (r *pdfRenderer) option(number int, text string, selected, correct bool) {
	pdf := r.pdf
	style := ""
	switch {
	case correct:
		style = "B"
		r.textColor(colorSuccess)
	case selected:
		r.textColor(colorError)
	default:
		r.textColor(colorText)
	}
	pdf.SetFont("Helvetica", style, 10)

	line := fmt.Sprintf("%d. %s", number, text)
	if selected {
		line += " (Your Answer)"
	}
	line = r.tr(line)
	pdf.SetX(margin + 12)
	if pdf.GetStringWidth(line) > r.inner-36 {
		pdf.MultiCell(r.inner-36, lineHeight, line, "", "L", false)
		pdf.SetX(margin + 12)
	} else {
		pdf.CellFormat(pdf.GetStringWidth(line)+4, lineHeight, line, "", 0, "L", false, 0, "")
	}
	if correct {
		// ZapfDingbats "4" is a check mark.
		pdf.SetFont("ZapfDingbats", "", 10)
		pdf.CellFormat(12, lineHeight, "4", "", 0, "L", false, 0, "")
	}
	pdf.Ln(lineHeight)
}
