package pipeline

import (
	"strings"

	"rostermatch/internal"
	"rostermatch/internal/util"
)

var (
	classHeaderProbes     = []string{"turma", "classe", "serie", "série", "ano", "grau", "turno", "sala"}
	primaryClassProbes    = []string{"turma", "classe"}
	professorHeaderProbes = []string{"professor", "docente", "prof", "teacher"}
	levelHeaderProbes     = []string{"nivel", "nível"}
)

const (
	professorFallbackIdx = 2
	levelFallbackIdx     = 3
)

// columnLayout locates the columns of a base roster sheet. Indexes are -1
// when absent.
type columnLayout struct {
	name         int
	class        []int
	primaryClass int
	professor    int
	level        int
}

func detectBaseColumns(t internal.Table, nameColumn string) columnLayout {
	headers := normalizeHeaders(t.Columns)
	layout := columnLayout{name: -1, primaryClass: -1, professor: -1, level: -1}

	if len(headers) == 0 {
		return layout
	}
	layout.name = 0
	if nameColumn != "" {
		if idx := t.ColumnIndex(nameColumn); idx >= 0 {
			layout.name = idx
		}
	}

	for i, h := range headers {
		if util.ContainsAny(h, classHeaderProbes) {
			layout.class = append(layout.class, i)
		}
	}
	layout.primaryClass = findHeaderIndex(headers, primaryClassProbes)
	if layout.primaryClass < 0 && len(layout.class) > 0 {
		layout.primaryClass = layout.class[0]
	}

	layout.professor = findHeaderIndex(headers, professorHeaderProbes)
	layout.level = findHeaderIndex(headers, levelHeaderProbes)
	if layout.professor < 0 && len(headers) > professorFallbackIdx {
		layout.professor = professorFallbackIdx
	}
	if layout.level < 0 && len(headers) > levelFallbackIdx {
		layout.level = levelFallbackIdx
	}
	return layout
}

// rosterNameColumn picks the explicit column when it exists, else the first.
func rosterNameColumn(t internal.Table, column string) int {
	if column != "" {
		if idx := t.ColumnIndex(column); idx >= 0 {
			return idx
		}
	}
	if len(t.Columns) == 0 {
		return -1
	}
	return 0
}

func normalizeHeaders(columns []string) []string {
	out := make([]string, 0, len(columns))
	for _, c := range columns {
		out = append(out, util.NormalizeName(c))
	}
	return out
}

func findHeaderIndex(headers []string, probes []string) int {
	for i, h := range headers {
		for _, probe := range probes {
			if strings.Contains(h, probe) {
				return i
			}
		}
	}
	return -1
}

func pickCell(cells []string, idx int, fallback int) string {
	if idx >= 0 && idx < len(cells) {
		return strings.TrimSpace(cells[idx])
	}
	if fallback >= 0 && fallback < len(cells) {
		return strings.TrimSpace(cells[fallback])
	}
	return ""
}
