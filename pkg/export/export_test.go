package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Title: "Laporan Permohonan",
		Columns: []Column{
			{Key: "id", Label: "ID", Width: 1},
			{Key: "title", Label: "Judul", Width: 3},
			{Key: "status"},
		},
		Rows: []map[string]string{
			{"id": "REQ-001", "title": "Permohonan Surat Aktif Kuliah", "status": "completed"},
			{"id": "REQ-002", "title": strings.Repeat("Cuti akademik, ", 20), "status": "processing"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	payload, err := NewCSVExporter(false).Render(sampleDataset())
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(payload)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"ID", "Judul", "status"}, records[0])
	assert.Equal(t, "REQ-001", records[1][0])
}

func TestCSVExporterBOM(t *testing.T) {
	payload, err := NewCSVExporter(true).Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(payload, utf8BOM))
}

func TestExportersRequireColumns(t *testing.T) {
	_, err := NewCSVExporter(false).Render(Dataset{})
	assert.Error(t, err)
	_, err = NewPDFExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	payload, err := NewPDFExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(payload, []byte("%PDF")))

	empty := sampleDataset()
	empty.Rows = nil
	payload, err = NewPDFExporter().Render(empty)
	require.NoError(t, err)
	assert.NotEmpty(t, payload)
}

func TestColumnWidthsFillPage(t *testing.T) {
	widths := columnWidths(sampleDataset().Columns)
	sum := 0.0
	for _, w := range widths {
		sum += w
	}
	assert.InDelta(t, pageWidth, sum, 0.001)
	assert.InDelta(t, widths[0]*3, widths[1], 0.001)
}
