package pipeline

import (
	"reflect"
	"testing"

	"rostermatch/internal"
)

func baseWorkbook() internal.Workbook {
	return internal.Workbook{
		FileName: "base.xlsx",
		Format:   internal.FormatXLSX,
		Sheets: []internal.Table{
			{
				Name:    "Fund II",
				Columns: []string{"Aluno", "Turma", "Professor", "Nível"},
				Rows: [][]string{
					{"Joao Silva", "6ºA", "Carla", "6.1"},
					{"Maria Pereira", "6ºB", "Carla", "6.2"},
					{"Ana Costa", "Violino", "Pedro", ""},
					{"", "6ºA", "Carla", ""},
					{"joão  silva", "6ºA", "Carla", "6.1"},
					{"Joao Silva", "7ºA", "Rita", "7.1"},
				},
			},
			{
				Name:    "Xadrez",
				Columns: []string{"Aluno", "Turma"},
				Rows:    [][]string{{"Pedro Alves", "6A"}},
			},
			{
				Name:    "Medio",
				Columns: []string{"Aluno", "Serie"},
				Rows:    [][]string{{"Lucas Lima", "1 ano"}},
			},
		},
	}
}

func TestBuildBaseRoster(t *testing.T) {
	entries, stats := BuildBaseRoster(baseWorkbook(), "")

	want := []internal.BaseEntry{
		{Name: "Joao Silva", ClassLabel: "FUND-6A", Professor: "Carla", LevelRaw: "6.1", Sheet: "Fund II"},
		{Name: "Maria Pereira", ClassLabel: "FUND-6B", Professor: "Carla", LevelRaw: "6.2", Sheet: "Fund II"},
		{Name: "Joao Silva", ClassLabel: "FUND-7A", Professor: "Rita", LevelRaw: "7.1", Sheet: "Fund II"},
		{Name: "Lucas Lima", ClassLabel: "FUND", Sheet: "Medio"},
	}
	if !reflect.DeepEqual(entries, want) {
		t.Fatalf("entries=%+v", entries)
	}

	if len(stats) != 3 {
		t.Fatalf("stats=%+v", stats)
	}
	if st := stats[0]; st.Rows != 6 || st.Named != 5 || st.Kept != 4 || st.Elementary != 4 {
		t.Fatalf("sheet stats=%+v", st)
	}
	if st := stats[1]; st.Named != 1 || st.Kept != 0 {
		t.Fatalf("xadrez sheet should be filtered: %+v", st)
	}
}

func TestBuildBaseRosterExplicitNameColumn(t *testing.T) {
	wb := internal.Workbook{Sheets: []internal.Table{{
		Name:    "Sheet1",
		Columns: []string{"Turma", "Nome do Aluno"},
		Rows:    [][]string{{"8 - c", "Bruno Dias"}},
	}}}

	entries, _ := BuildBaseRoster(wb, "Nome do Aluno")
	if len(entries) != 1 || entries[0].Name != "Bruno Dias" || entries[0].ClassLabel != "FUND-8C" {
		t.Fatalf("entries=%+v", entries)
	}

	// Unknown column falls back to the first one.
	entries, _ = BuildBaseRoster(wb, "Missing")
	if len(entries) != 1 || entries[0].Name != "8 - c" {
		t.Fatalf("fallback entries=%+v", entries)
	}
}

func TestDedupeBaseEntries(t *testing.T) {
	in := []internal.BaseEntry{
		{Name: "José Souza", ClassLabel: "FUND-6A", Professor: "first"},
		{Name: "jose souza", ClassLabel: "FUND-6A", Professor: "second"},
		{Name: "Jose Souza", ClassLabel: "FUND-6B"},
	}
	out := DedupeBaseEntries(in)
	if len(out) != 2 || out[0].Professor != "first" || out[1].ClassLabel != "FUND-6B" {
		t.Fatalf("out=%+v", out)
	}
}

func TestDetectBaseColumnsFallbacks(t *testing.T) {
	layout := detectBaseColumns(internal.Table{Columns: []string{"Nome", "Sala", "Col C", "Col D"}}, "")
	if layout.name != 0 || layout.primaryClass != 1 || layout.professor != 2 || layout.level != 3 {
		t.Fatalf("layout=%+v", layout)
	}

	layout = detectBaseColumns(internal.Table{Columns: []string{"Nome", "Docente"}}, "")
	if layout.professor != 1 || layout.level != -1 || len(layout.class) != 0 {
		t.Fatalf("layout=%+v", layout)
	}
}

func TestRosterNames(t *testing.T) {
	table := internal.Table{
		Columns: []string{"ID", "Student"},
		Rows: [][]string{
			{"1", "Silva, Joao"},
			{"2", "  "},
			{"3"},
			{"4", "Pereira, Ana Maria"},
		},
	}
	got := RosterNames(table, "Student")
	want := []string{"Silva, Joao", "Pereira, Ana Maria"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}

	if got := RosterNames(table, ""); len(got) != 4 || got[0] != "1" {
		t.Fatalf("default column: %v", got)
	}
	if got := RosterNames(internal.Table{}, ""); got != nil {
		t.Fatalf("empty table: %v", got)
	}
}
