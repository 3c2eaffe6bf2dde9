package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// utf8BOM lets spreadsheet tools detect the encoding of non-ASCII names.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVExporter renders datasets into CSV bytes.
type CSVExporter struct {
	withBOM bool
}

// NewCSVExporter builds a CSV exporter; withBOM prefixes a UTF-8 byte order mark.
func NewCSVExporter(withBOM bool) *CSVExporter {
	return &CSVExporter{withBOM: withBOM}
}

// Render produces CSV encoded bytes for the dataset.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Columns) == 0 {
		return nil, fmt.Errorf("csv requires at least one column")
	}
	buf := &bytes.Buffer{}
	if e.withBOM {
		buf.Write(utf8BOM)
	}
	writer := csv.NewWriter(buf)
	if err := writer.Write(data.Labels()); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range data.Rows {
		if err := writer.Write(data.Record(row)); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
