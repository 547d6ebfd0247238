package pipeline

import (
	"strings"

	"rostermatch/internal"
	"rostermatch/internal/util"
)

// SheetStats records how many rows of a base sheet survived each filter.
type SheetStats struct {
	Sheet      string
	Rows       int
	Named      int
	Kept       int
	Elementary int
}

// BuildBaseRoster aggregates every sheet of the base workbook into entries
// with a resolved class label. Extracurricular and non-elementary rows are
// dropped, and entries are unique per (normalized name, class label).
func BuildBaseRoster(wb internal.Workbook, nameColumn string) ([]internal.BaseEntry, []SheetStats) {
	var entries []internal.BaseEntry
	stats := make([]SheetStats, 0, len(wb.Sheets))

	for _, sheet := range wb.Sheets {
		layout := detectBaseColumns(sheet, nameColumn)
		st := SheetStats{Sheet: sheet.Name, Rows: len(sheet.Rows)}
		if layout.name < 0 {
			stats = append(stats, st)
			continue
		}

		for _, row := range sheet.Rows {
			name := pickCell(row, layout.name, -1)
			if name == "" {
				continue
			}
			st.Named++

			classRow := ClassRow{
				RawClass: pickCell(row, layout.primaryClass, -1),
				Level:    pickCell(row, layout.level, -1),
				Sheet:    sheet.Name,
			}
			for _, idx := range layout.class {
				classRow.ClassTexts = append(classRow.ClassTexts, pickCell(row, idx, -1))
			}

			if IsExtracurricular(classRow.Combined()) {
				continue
			}
			st.Kept++

			label := ResolveClassLabel(classRow)
			if !IsElementaryLabel(label) {
				continue
			}
			st.Elementary++

			entries = append(entries, internal.BaseEntry{
				Name:       name,
				ClassLabel: label,
				Professor:  pickCell(row, layout.professor, -1),
				LevelRaw:   classRow.Level,
				Sheet:      sheet.Name,
			})
		}
		stats = append(stats, st)
	}

	return DedupeBaseEntries(entries), stats
}

// DedupeBaseEntries keeps the first entry for each (normalized name, class
// label) pair. The same student may appear once per class.
func DedupeBaseEntries(entries []internal.BaseEntry) []internal.BaseEntry {
	type key struct{ name, class string }
	seen := make(map[key]struct{}, len(entries))
	out := make([]internal.BaseEntry, 0, len(entries))
	for _, e := range entries {
		k := key{name: util.NormalizeName(e.Name), class: e.ClassLabel}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, e)
	}
	return out
}

// RosterNames returns the non-blank values of the roster name column in order.
func RosterNames(t internal.Table, column string) []string {
	idx := rosterNameColumn(t, column)
	if idx < 0 {
		return nil
	}
	out := make([]string, 0, len(t.Rows))
	for i := range t.Rows {
		v := t.Cell(i, idx)
		if strings.TrimSpace(v) == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
