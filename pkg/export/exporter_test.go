package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "Pending appointments",
		Headers: []string{"ID", "Groom", "Bride"},
		Rows: []map[string]string{
			{"ID": "101", "Groom": "Tom Roe", "Bride": "Ann Lee"},
		},
	}
}

func TestCSVExporter(t *testing.T) {
	exp, ok := ForFormat("csv")
	require.True(t, ok)
	out, err := exp.Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "ID,Groom,Bride\n101,Tom Roe,Ann Lee\n", string(out))
	assert.Equal(t, "text/csv", exp.ContentType())
}

func TestPDFExporter(t *testing.T) {
	exp, ok := ForFormat("pdf")
	require.True(t, ok)
	out, err := exp.Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	_, err = exp.Render(Dataset{})
	assert.Error(t, err)
}

func TestForFormatUnknown(t *testing.T) {
	_, ok := ForFormat("xlsx")
	assert.False(t, ok)
}

func TestDatasetCellsBlankForMissingColumn(t *testing.T) {
	data := Dataset{
		Headers: []string{"ID", "Witnesses", "Status"},
		Rows:    []map[string]string{{"ID": "7", "Status": "PENDING"}},
	}
	assert.Equal(t, []string{"7", "", "PENDING"}, data.Cells(0))

	out, err := NewCSVExporter().Render(data)
	require.NoError(t, err)
	assert.Equal(t, "ID,Witnesses,Status\n7,,PENDING\n", string(out))
}
