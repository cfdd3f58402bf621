package report

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// escapeCell makes arbitrary text safe inside a markdown table cell.
// Product titles can contain pipes and the odd newline.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "|", `\|`)

	return strings.TrimSpace(s)
}

// renderTable builds an aligned markdown table. Column widths use
// display width, not byte length, so titles with wide characters still
// line up.
func renderTable(headers []string, rows [][]string) string {
	colCount := len(headers)

	escaped := make([][]string, 0, len(rows))

	for _, row := range rows {
		cells := make([]string, colCount)

		for i := 0; i < colCount && i < len(row); i++ {
			cells[i] = escapeCell(row[i])
		}

		escaped = append(escaped, cells)
	}

	// Calculate max widths (using display width)
	colWidths := make([]int, colCount)

	for i, header := range headers {
		colWidths[i] = runewidth.StringWidth(header)
	}

	for _, row := range escaped {
		for i, cell := range row {
			if width := runewidth.StringWidth(cell); width > colWidths[i] {
				colWidths[i] = width
			}
		}
	}

	// Separator needs at least "---"
	for i := range colWidths {
		if colWidths[i] < 3 {
			colWidths[i] = 3
		}
	}

	var sb strings.Builder

	writeRow := func(cells []string) {
		sb.WriteString("|")

		for i := 0; i < colCount; i++ {
			content := ""
			if i < len(cells) {
				content = cells[i]
			}

			sb.WriteString(" ")
			sb.WriteString(content)

			padding := colWidths[i] - runewidth.StringWidth(content)
			if padding > 0 {
				sb.WriteString(strings.Repeat(" ", padding))
			}

			sb.WriteString(" |")
		}

		sb.WriteString("\n")
	}

	writeRow(headers)

	sb.WriteString("|")

	for i := 0; i < colCount; i++ {
		sb.WriteString(" ")
		sb.WriteString(strings.Repeat("-", colWidths[i]))
		sb.WriteString(" |")
	}

	sb.WriteString("\n")

	for _, row := range escaped {
		writeRow(row)
	}

	return sb.String()
}
