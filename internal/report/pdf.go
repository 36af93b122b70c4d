package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"example.com/sephchart/internal/chart"
)

// SaveHoroscopePDF renders the given horoscope into a PDF document in
// the requested language.
func SaveHoroscopePDF(h *chart.Horoscope, lang Language, out string) error {
	t := NewTranslator(lang)
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(t.T("title"), false)
	pdf.SetAuthor("sephchart", false)
	pdf.SetCreator("sephchart", false)
	pdf.SetMargins(15, 20, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	addPDFTitle(pdf, t.T("title"))
	addSummarySection(pdf, t, h)
	addPositionsSection(pdf, t, h.Bodies)
	addDashaSection(pdf, t, h.Dasha)

	if pdf.Err() {
		return pdf.Error()
	}
	return pdf.OutputFileAndClose(out)
}

func addPDFTitle(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, title)
	pdf.Ln(12)
}

func addSummarySection(pdf *gofpdf.Fpdf, t Translator, h *chart.Horoscope) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, t.T("section.summary"))
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 11)
	items := []struct {
		label string
		value string
	}{
		{label: t.T("label.ascendant"), value: fmt.Sprintf("%s (%.2f°)", h.AscendantSignName, h.AscendantDeg)},
		{label: t.T("label.tithi"), value: h.TithiName},
		{label: t.T("label.ayanamsha"), value: fmt.Sprintf("%.4f°", h.AyanamshaDeg)},
		{label: t.T("label.julianDay"), value: strconv.FormatFloat(h.JulianDay, 'f', 5, 64)},
	}
	for _, item := range items {
		pdf.CellFormat(50, 6, item.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, item.value, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

func addPositionsSection(pdf *gofpdf.Fpdf, t Translator, bodies []chart.BodyPosition) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, t.T("section.positions"))
	pdf.Ln(9)

	headers := []string{"", t.T("label.sign"), t.T("label.nakshatra"), t.T("label.pada"), t.T("label.dignity"), t.T("label.retrograde")}
	widths := []float64{28, 32, 38, 16, 30, 24}

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Helvetica", "B", 10)
	for i, hdr := range headers {
		pdf.CellFormat(widths[i], 7, hdr, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	lineHeight := 5.0
	for _, b := range bodies {
		values := []string{
			b.Name,
			b.SignName,
			b.NakshatraName,
			strconv.Itoa(b.Pada),
			t.T("dignity." + string(b.Dignity)),
			retrogradeLabel(t, b.Retrograde),
		}
		renderTableRow(pdf, widths, values, lineHeight)
	}
	pdf.Ln(4)
}

func addDashaSection(pdf *gofpdf.Fpdf, t Translator, periods []chart.DashaPeriod) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, t.T("section.dasha"))
	pdf.Ln(9)

	if len(periods) == 0 {
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, "-", "", "L", false)
		return
	}

	headers := []string{"Lord", "Start", "End"}
	widths := []float64{40, 60, 60}
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Helvetica", "B", 10)
	for i, hdr := range headers {
		pdf.CellFormat(widths[i], 7, hdr, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, p := range periods {
		values := []string{p.Lord, p.Start.Format("2006-01-02"), p.End.Format("2006-01-02")}
		renderTableRow(pdf, widths, values, 5)
	}
}

func renderTableRow(pdf *gofpdf.Fpdf, widths []float64, values []string, lineHeight float64) {
	xStart := pdf.GetX()
	yStart := pdf.GetY()
	maxLines := 1
	splitCols := make([][]string, len(values))
	for i, val := range values {
		text := strings.TrimSpace(val)
		if text == "" {
			text = "-"
		}
		lines := pdf.SplitText(text, widths[i]-2)
		if len(lines) == 0 {
			lines = []string{""}
		}
		splitCols[i] = lines
		if len(lines) > maxLines {
			maxLines = len(lines)
		}
	}
	rowHeight := float64(maxLines) * lineHeight
	x := xStart
	for i, lines := range splitCols {
		pdf.SetXY(x, yStart)
		cellText := strings.Join(lines, "\n")
		pdf.MultiCell(widths[i], lineHeight, cellText, "1", "L", false)
		x += widths[i]
	}
	pdf.SetXY(xStart, yStart+rowHeight)
}

func retrogradeLabel(t Translator, retro bool) string {
	if retro {
		return t.T("label.retrograde")
	}
	return "-"
}
