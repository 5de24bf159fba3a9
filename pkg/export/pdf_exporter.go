package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfHeaderFont = 9
	pdfBodyFont   = 8
	pdfMinColumn  = 14.0
)

// PDFExporter renders datasets into a landscape table. Column widths follow
// the longest cell of each column so names and witness lists stay readable.
type PDFExporter struct{}

func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

func (e *PDFExporter) ContentType() string { return "application/pdf" }

func (e *PDFExporter) Extension() string { return "pdf" }

func (e *PDFExporter) Render(data Dataset) ([]byte, error) {
	if err := data.validate("pdf"); err != nil {
		return nil, err
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if data.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(data.Title), "", 1, "L", false, 0, "")
		pdf.Ln(2)
	}

	widths := columnWidths(pdf, data, tr)

	pdf.SetFont("Arial", "B", pdfHeaderFont)
	pdf.SetFillColor(230, 230, 230)
	for j, header := range data.Headers {
		pdf.CellFormat(widths[j], 8, tr(header), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", pdfBodyFont)
	for i := range data.Rows {
		for j, cell := range data.Cells(i) {
			pdf.CellFormat(widths[j], 7, tr(cell), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// columnWidths shares the printable width in proportion to each column's
// widest text, with a floor of pdfMinColumn.
func columnWidths(pdf *gofpdf.Fpdf, data Dataset, tr func(string) string) []float64 {
	pageWidth, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	available := pageWidth - left - right

	natural := make([]float64, len(data.Headers))
	pdf.SetFont("Arial", "B", pdfHeaderFont)
	for j, header := range data.Headers {
		natural[j] = pdf.GetStringWidth(tr(header)) + 4
	}
	pdf.SetFont("Arial", "", pdfBodyFont)
	for i := range data.Rows {
		for j, cell := range data.Cells(i) {
			if w := pdf.GetStringWidth(tr(cell)) + 4; w > natural[j] {
				natural[j] = w
			}
		}
	}

	total := 0.0
	for j := range natural {
		if natural[j] < pdfMinColumn {
			natural[j] = pdfMinColumn
		}
		total += natural[j]
	}
	for j := range natural {
		natural[j] = natural[j] * available / total
	}
	return natural
}
