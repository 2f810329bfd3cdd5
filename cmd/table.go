package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// maxColumnWidth caps a table column so long titles do not wrap.
const maxColumnWidth = 48

// padToWidth pads or truncates text to the given display width,
// accounting for wide characters such as CJK and emoji
func padToWidth(text string, width int) string {
	if width <= 0 {
		return text
	}

	currentWidth := runewidth.StringWidth(text)

	if currentWidth > width {
		ellipsis := "..."
		ellipsisWidth := runewidth.StringWidth(ellipsis)

		if width <= ellipsisWidth {
			return runewidth.Truncate(ellipsis, width, "")
		}

		// A wide rune at the cut may leave the result one column short.
		result := runewidth.Truncate(text, width-ellipsisWidth, "") + ellipsis
		return result + strings.Repeat(" ", width-runewidth.StringWidth(result))
	}

	return text + strings.Repeat(" ", width-currentWidth)
}

// columnWidths returns the display width of each column, capped at
// limit when limit is positive.
func columnWidths(headers []string, rows [][]string, limit int) []int {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], runewidth.StringWidth(cell))
			}
		}
	}
	if limit > 0 {
		for i := range widths {
			widths[i] = min(widths[i], limit)
		}
	}
	return widths
}

// writeTable writes rows under a header line, aligning columns by
// display width. The last column is not padded. Blank headers are not
// printed.
func writeTable(w io.Writer, headers []string, rows [][]string) {
	widths := columnWidths(headers, rows, maxColumnWidth)

	line := func(cells []string) {
		var b strings.Builder
		for i, cell := range cells {
			if i >= len(widths) {
				break
			}
			if i > 0 {
				b.WriteString("  ")
			}
			if i == len(cells)-1 {
				b.WriteString(strings.TrimRight(padToWidth(cell, widths[i]), " "))
				continue
			}
			b.WriteString(padToWidth(cell, widths[i]))
		}
		fmt.Fprintln(w, b.String())
	}

	if strings.Join(headers, "") != "" {
		line(headers)
	}
	for _, row := range rows {
		line(row)
	}
}
