package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"Reference", "Title", "Status"},
		Rows: []map[string]string{
			{"Reference": "c-1", "Title": "Maingay na videoke", "Status": "pending"},
			{"Reference": "c-2", "Title": "=HYPERLINK(\"x\")", "Status": "resolved"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)

	text := strings.TrimPrefix(string(out), "\ufeff")
	lines := strings.Split(strings.TrimSpace(text), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Reference,Title,Status", lines[0])
	assert.Equal(t, "c-1,Maingay na videoke,pending", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "c-2,\"'=HYPERLINK"), lines[2])
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset(), "Complaints")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderDispatch(t *testing.T) {
	format, err := ParseFormat("PDF")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, format)
	assert.Equal(t, "application/pdf", format.ContentType())

	format, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, format)

	_, err = ParseFormat("xlsx")
	require.Error(t, err)

	out, err := Render(FormatCSV, sampleDataset(), "")
	require.NoError(t, err)
	assert.Contains(t, string(out), "Reference")
}
