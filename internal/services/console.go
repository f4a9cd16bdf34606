package services

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

// RenderTable prints a header/body table with an optional footer row
func RenderTable(out io.Writer, title string, rows [][]string, footer []string) {
	if len(rows) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	if title != "" {
		t.SetTitle(title)
	}

	t.AppendHeader(toRow(rows[0]))
	for _, r := range rows[1:] {
		t.AppendRow(toRow(r))
	}
	if footer != nil {
		t.AppendFooter(toRow(footer))
	}
	t.Render()
}

// RenderSummary prints a summary table whose last row is the TOTAL
func RenderSummary(out io.Writer, rows [][]string) {
	if len(rows) < 2 {
		RenderTable(out, "Agencias", rows, nil)
		return
	}
	RenderTable(out, "Agencias", rows[:len(rows)-1], rows[len(rows)-1])
}

func toRow(cells []string) table.Row {
	row := make(table.Row, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return row
}

// RenderRollup prints the cross-agency issue table
func RenderRollup(out io.Writer, rows [][]string) {
	RenderTable(out, "Issues", rows, nil)
}
