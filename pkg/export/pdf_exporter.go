package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

const (
	pageWidth   = 277.0 // A4 landscape minus margins
	headerLineH = 8.0
	rowLineH    = 6.5
	ellipsis    = "..."
)

// PDFExporter renders datasets into a landscape tabular PDF.
type PDFExporter struct {
	now func() time.Time
}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{now: time.Now}
}

// Render lays the dataset out as a table, repeating the header on every page.
func (e *PDFExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Columns) == 0 {
		return nil, fmt.Errorf("pdf requires at least one column")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	generated := e.now().UTC().Format("2006-01-02 15:04 MST")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(pageWidth/2, 6, fmt.Sprintf("Generated %s", generated), "", 0, "L", false, 0, "")
		pdf.CellFormat(pageWidth/2, 6, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
	})
	pdf.AliasNbPages("")

	widths := columnWidths(data.Columns)
	header := func() {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(230, 236, 245)
		for i, label := range data.Labels() {
			pdf.CellFormat(widths[i], headerLineH, tr(label), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 8)
	}
	pdf.SetHeaderFunc(func() {
		if data.Title != "" && pdf.PageNo() == 1 {
			pdf.SetFont("Arial", "B", 14)
			pdf.CellFormat(0, 10, tr(data.Title), "", 1, "C", false, 0, "")
			pdf.Ln(2)
		}
		header()
	})
	pdf.AddPage()

	for _, row := range data.Rows {
		for i, value := range data.Record(row) {
			pdf.CellFormat(widths[i], rowLineH, fit(pdf, tr(value), widths[i]-2), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}
	if len(data.Rows) == 0 {
		pdf.CellFormat(pageWidth, rowLineH, "No records", "1", 1, "C", false, 0, "")
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func columnWidths(cols []Column) []float64 {
	total := 0.0
	for _, col := range cols {
		total += weight(col)
	}
	widths := make([]float64, len(cols))
	for i, col := range cols {
		widths[i] = pageWidth * weight(col) / total
	}
	return widths
}

func weight(col Column) float64 {
	if col.Width <= 0 {
		return 1
	}
	return col.Width
}

// fit truncates text so it renders within width millimetres.
func fit(pdf *gofpdf.Fpdf, text string, width float64) string {
	if pdf.GetStringWidth(text) <= width {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+ellipsis) > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + ellipsis
}
