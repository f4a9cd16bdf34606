package services

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"aktis-collector-wonderdesk/internal/common"
)

func TestWriteCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	rows := [][]string{
		{"Agencia", "Tickets Abiertos"},
		{"Acme, Travel", "3"},
		{"TOTAL", "3"},
	}

	path, err := WriteCSV(dir, SummaryCSV, rows)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, SummaryCSV), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	got, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Equal(t, rows, got)
}

func TestWriteCSVUnwritableDir(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	_, err := WriteCSV(filepath.Join(blocker, "sub"), TicketsCSV, nil)
	require.Error(t, err)
	require.True(t, common.IsErrorType(err, common.ErrorTypePublish))
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	RenderSummary(&buf, [][]string{
		{"Agencia", "Abiertos"},
		{"Acme Travel", "3"},
		{"Beta Tours", "4"},
		{"TOTAL", "7"},
	})

	out := buf.String()
	require.Contains(t, out, "Acme Travel")
	require.Contains(t, out, "Beta Tours")
	require.Contains(t, out, "TOTAL")
	require.Less(t, strings.Index(out, "Beta Tours"), strings.Index(out, "TOTAL"))

	buf.Reset()
	RenderTable(&buf, "empty", nil, nil)
	require.Empty(t, buf.String())
}
