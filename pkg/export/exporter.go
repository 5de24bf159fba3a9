package export

import "fmt"

// Dataset defines tabular export content.
type Dataset struct {
	Title   string
	Headers []string
	Rows    []map[string]string
}

// Cells returns row i ordered by Headers. Missing columns are blank.
func (d Dataset) Cells(i int) []string {
	cells := make([]string, len(d.Headers))
	for j, header := range d.Headers {
		cells[j] = d.Rows[i][header]
	}
	return cells
}

func (d Dataset) validate(kind string) error {
	if len(d.Headers) == 0 {
		return fmt.Errorf("%s requires at least one header", kind)
	}
	return nil
}

// Exporter renders a dataset into a downloadable document.
type Exporter interface {
	Render(data Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

// ForFormat returns the exporter for "csv" or "pdf".
func ForFormat(format string) (Exporter, bool) {
	switch format {
	case "csv":
		return NewCSVExporter(), true
	case "pdf":
		return NewPDFExporter(), true
	default:
		return nil, false
	}
}
