package internal

import (
	"errors"
	"math"
)

type FileFormat string

const (
	FormatXLSX FileFormat = "xlsx"
	FormatXLS  FileFormat = "xls"
	FormatCSV  FileFormat = "csv"
	FormatHTML FileFormat = "html"
	FormatPDF  FileFormat = "pdf"
)

// Table is one sheet of an uploaded file. The first row of the source is the
// header row; Rows never contain it.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// Cell returns the raw value at (row, col), or "" when the row is shorter than col.
func (t Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 {
		return ""
	}
	r := t.Rows[row]
	if col >= len(r) {
		return ""
	}
	return r[col]
}

func (t Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

type Workbook struct {
	FileName string
	Format   FileFormat
	Sheets   []Table
}

func (w Workbook) First() (Table, bool) {
	if len(w.Sheets) == 0 {
		return Table{}, false
	}
	return w.Sheets[0], true
}

// BaseEntry is one (student, class sheet) pair that survived filtering.
type BaseEntry struct {
	Name       string
	ClassLabel string
	Professor  string
	LevelRaw   string
	Sheet      string
}

// Options are the per-comparison settings. An empty column name means the
// first column of the sheet; an unknown algorithm falls back to the default.
type Options struct {
	Threshold    float64
	Algorithm    string
	BaseColumn   string
	RosterColumn string
}

var ErrInvalidThreshold = errors.New("threshold must be a number")

func (o Options) Validate() error {
	if math.IsNaN(o.Threshold) || math.IsInf(o.Threshold, 0) {
		return ErrInvalidThreshold
	}
	return nil
}

type MatchResult struct {
	InputName   string  `json:"toefl_name"`
	MatchedName string  `json:"matched_name"`
	ClassLabel  string  `json:"class"`
	Professor   string  `json:"professor"`
	Level       string  `json:"nivel"`
	Score       float64 `json:"score"`
}

type Candidate struct {
	Name       string  `json:"name"`
	ClassLabel string  `json:"class"`
	Professor  string  `json:"professor"`
	Level      string  `json:"nivel"`
	Score      float64 `json:"score"`
}

type Suggestion struct {
	InputName  string      `json:"toefl_name"`
	Candidates []Candidate `json:"candidates"`
}

type Statistics struct {
	Total           int     `json:"total_toefl"`
	Matched         int     `json:"matched"`
	Unmatched       int     `json:"unmatched"`
	MatchPercentage float64 `json:"match_percentage"`
}

type Report struct {
	Success     bool          `json:"success"`
	Error       string        `json:"error,omitempty"`
	ErrorKind   string        `json:"error_kind,omitempty"`
	TraceID     string        `json:"trace_id,omitempty"`
	Results     []MatchResult `json:"results"`
	Unmatched   []string      `json:"unmatched_list"`
	Suggestions []Suggestion  `json:"suggestions"`
	Statistics  Statistics    `json:"statistics"`
}

type FileInfo struct {
	Name    string   `json:"name"`
	Format  string   `json:"format"`
	Rows    int      `json:"rows"`
	Columns []string `json:"columns"`
	Sheets  []string `json:"sheets,omitempty"`
}
