// Package markdown normalizes pipe-delimited tables in generated answers.
package markdown

import "strings"

// NormalizeTables re-pads every pipe-delimited table in s so that each cell
// in a column matches the widest cell, with a dashed separator row under the
// header. Cell content round-trips unchanged; only padding is rewritten.
// Lines outside table blocks pass through untouched.
func NormalizeTables(s string) string {
	lines := strings.Split(s, "\n")
	var out []string

	for i := 0; i < len(lines); {
		if !isTableRow(lines[i]) {
			out = append(out, lines[i])
			i++
			continue
		}

		start := i
		for i < len(lines) && isTableRow(lines[i]) {
			i++
		}
		out = append(out, formatTable(lines[start:i])...)
	}

	return strings.Join(out, "\n")
}

// isTableRow reports whether a line looks like part of a markdown table.
func isTableRow(line string) bool {
	return strings.Count(line, "|") >= 2
}

func isSeparatorRow(cells []string) bool {
	if len(cells) == 0 {
		return false
	}
	for _, c := range cells {
		if c == "" {
			return false
		}
		if strings.Trim(c, "-:") != "" {
			return false
		}
	}
	return true
}

func splitCells(line string) []string {
	trimmed := strings.TrimSpace(line)
	trimmed = strings.TrimPrefix(trimmed, "|")
	trimmed = strings.TrimSuffix(trimmed, "|")

	parts := strings.Split(trimmed, "|")
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}

func formatTable(block []string) []string {
	var rows [][]string
	hasSeparator := false
	for _, line := range block {
		cells := splitCells(line)
		if isSeparatorRow(cells) {
			hasSeparator = true
			continue
		}
		rows = append(rows, cells)
	}

	if len(rows) == 0 {
		return block
	}

	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	render := func(row []string) string {
		var b strings.Builder
		b.WriteString("|")
		for i, w := range widths {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			b.WriteString(" ")
			b.WriteString(cell)
			b.WriteString(strings.Repeat(" ", w-len(cell)))
			b.WriteString(" |")
		}
		return b.String()
	}

	separator := func() string {
		var b strings.Builder
		b.WriteString("|")
		for _, w := range widths {
			b.WriteString(strings.Repeat("-", w+2))
			b.WriteString("|")
		}
		return b.String()
	}

	out := make([]string, 0, len(rows)+1)
	out = append(out, render(rows[0]))
	if hasSeparator || len(rows) > 1 {
		out = append(out, separator())
	}
	for _, row := range rows[1:] {
		out = append(out, render(row))
	}
	return out
}
