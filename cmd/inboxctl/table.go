package main

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// colGap is the number of blank cells between columns.
const colGap = 2

// table renders static rows in aligned columns. Widths are measured in
// terminal cells, so wide characters (日本語 names) keep later columns aligned.
type table struct {
	headers []string
	rows    [][]string
}

func newTable(headers ...string) *table {
	return &table{headers: headers}
}

func (t *table) addRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *table) render(w io.Writer) error {
	r := lipgloss.NewRenderer(w)
	headerStyle := r.NewStyle().Bold(true)
	cellStyle := r.NewStyle()

	n := len(t.headers)
	for _, row := range t.rows {
		n = max(n, len(row))
	}
	widths := make([]int, n)
	measure := func(cells []string) {
		for i, c := range cells {
			widths[i] = max(widths[i], lipgloss.Width(c))
		}
	}
	measure(t.headers)
	for _, row := range t.rows {
		measure(row)
	}

	var sb strings.Builder
	line := func(cells []string, style lipgloss.Style) {
		var b strings.Builder
		for i, c := range cells {
			if i == len(cells)-1 {
				b.WriteString(style.Render(c))
				break
			}
			b.WriteString(style.Width(widths[i] + colGap).Render(c))
		}
		sb.WriteString(strings.TrimRight(b.String(), " "))
		sb.WriteByte('\n')
	}
	if len(t.headers) > 0 {
		line(t.headers, headerStyle)
	}
	for _, row := range t.rows {
		line(row, cellStyle)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
