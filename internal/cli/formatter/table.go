package formatter

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const colGap = 2

// RenderTable lays out rows under styled headers, padding each column to
// its widest visible cell. Cells in the column named by wrapCol are
// truncated so the table fits in width; wrapCol < 0 disables that.
func RenderTable(headers []string, rows [][]string, width, wrapCol int) string {
	if len(headers) == 0 {
		return ""
	}
	widths := columnWidths(headers, rows)

	if wrapCol >= 0 && wrapCol < len(widths) && width > 0 {
		total := (len(widths) - 1) * colGap
		for _, w := range widths {
			total += w
		}
		if over := total - width; over > 0 && widths[wrapCol]-over >= 8 {
			widths[wrapCol] -= over
		}
	}

	var b strings.Builder
	writeRow(&b, headers, widths, wrapCol, StyleHeader.Render)
	seps := make([]string, len(widths))
	for i, w := range widths {
		seps[i] = StyleDim.Render(strings.Repeat("─", w))
	}
	writeRow(&b, seps, widths, -1, nil)
	for _, row := range rows {
		writeRow(&b, row, widths, wrapCol, nil)
	}
	return b.String()
}

func columnWidths(headers []string, rows [][]string) []int {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := 0; i < len(widths) && i < len(row); i++ {
			widths[i] = max(widths[i], lipgloss.Width(row[i]))
		}
	}
	return widths
}

func writeRow(b *strings.Builder, cells []string, widths []int, wrapCol int, style func(...string) string) {
	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		if i == wrapCol {
			cell = Truncate(cell, w)
		}
		visible := lipgloss.Width(cell)
		if style != nil {
			cell = style(cell)
		}
		b.WriteString(cell)
		if i < len(widths)-1 {
			b.WriteString(strings.Repeat(" ", max(0, w-visible)+colGap))
		}
	}
	b.WriteString("\n")
}
