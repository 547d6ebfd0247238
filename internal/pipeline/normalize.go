package pipeline

import (
	"strconv"
	"strings"

	"rostermatch/internal"
)

func normalizeSpaces(input string) string {
	return strings.Join(strings.Fields(input), " ")
}

func normalizeCells(row []string) []string {
	out := make([]string, 0, len(row))
	for _, c := range row {
		out = append(out, normalizeSpaces(c))
	}
	return out
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	parts := strings.Split(text, "\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// buildTable turns raw rows into a Table: the first non-blank row becomes the
// header, fully blank rows are dropped and blank header cells get positional
// names.
func buildTable(name string, raw [][]string) internal.Table {
	t := internal.Table{Name: name}
	headerSeen := false
	for _, row := range raw {
		cells := normalizeCells(row)
		if isBlankRow(cells) {
			continue
		}
		if !headerSeen {
			t.Columns = headerNames(cells)
			headerSeen = true
			continue
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}

func headerNames(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		if c == "" {
			c = "Unnamed: " + strconv.Itoa(i)
		}
		out[i] = c
	}
	return out
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
