package pipeline

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"rostermatch/internal"
)

// ReadWorkbookFile loads a roster from disk for the CLI.
func ReadWorkbookFile(path string) (internal.Workbook, error) {
	if path == "" {
		return internal.Workbook{}, inputError(ErrMissingInput, "(no path)", nil)
	}
	blob, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return internal.Workbook{}, inputError(ErrMissingInput, path, err)
		}
		return internal.Workbook{}, err
	}
	return ReadWorkbook(filepath.Base(path), blob)
}

// Inspect summarises a workbook the way the upload endpoint reports it: the
// first sheet's row count and headers plus every sheet name.
func Inspect(wb internal.Workbook) internal.FileInfo {
	info := internal.FileInfo{Name: wb.FileName, Format: string(wb.Format)}
	if first, ok := wb.First(); ok {
		info.Rows = len(first.Rows)
		info.Columns = first.Columns
	}
	for _, s := range wb.Sheets {
		info.Sheets = append(info.Sheets, s.Name)
	}
	return info
}
