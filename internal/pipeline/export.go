package pipeline

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"rostermatch/internal"
)

const (
	resultsSheet     = "Resultados_Comparacao"
	suggestionsSheet = "Sugestoes"
	unmatchedHeader  = "Alunos_Nao_Encontrados"
)

var (
	resultHeaders     = []string{"Nome", "Nome Completo", "Turma", "Professor", "Nivel"}
	suggestionHeaders = []string{"Nome", "Sugestao", "Turma", "Professor", "Nivel", "Score"}
)

// ExportFileName is the default download name for a report built at now.
func ExportFileName(now time.Time) string {
	return "comparacao_nomes_" + now.Format("20060102_150405") + ".xlsx"
}

func ExportReportToXLSX(report internal.Report, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	f, err := buildReportWorkbook(report)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.SaveAs(outputPath)
}

func WriteReportXLSX(report internal.Report, w io.Writer) error {
	f, err := buildReportWorkbook(report)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteTo(w)
	return err
}

// buildReportWorkbook lays out matched rows first; unmatched names follow two
// blank rows below under their own header.
func buildReportWorkbook(report internal.Report) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), resultsSheet); err != nil {
		return nil, err
	}

	var setErr error
	setRow := func(sheet string, row int, values ...any) {
		for i, v := range values {
			if setErr != nil {
				return
			}
			cell, err := excelize.CoordinatesToCellName(i+1, row)
			if err == nil {
				err = f.SetCellValue(sheet, cell, v)
			}
			setErr = err
		}
	}

	headers := make([]any, len(resultHeaders))
	for i, h := range resultHeaders {
		headers[i] = h
	}
	setRow(resultsSheet, 1, headers...)
	for i, r := range report.Results {
		setRow(resultsSheet, i+2, r.InputName, r.MatchedName, r.ClassLabel, r.Professor, r.Level)
	}

	if len(report.Unmatched) > 0 {
		start := len(report.Results) + 4
		setRow(resultsSheet, start, unmatchedHeader)
		for i, name := range report.Unmatched {
			setRow(resultsSheet, start+i+1, name)
		}
	}

	if len(report.Suggestions) > 0 {
		if _, err := f.NewSheet(suggestionsSheet); err != nil {
			return nil, err
		}
		sh := make([]any, len(suggestionHeaders))
		for i, h := range suggestionHeaders {
			sh[i] = h
		}
		setRow(suggestionsSheet, 1, sh...)
		row := 2
		for _, s := range report.Suggestions {
			for _, c := range s.Candidates {
				setRow(suggestionsSheet, row, s.InputName, c.Name, c.ClassLabel, c.Professor, c.Level, c.Score)
				row++
			}
		}
	}

	if setErr != nil {
		f.Close()
		return nil, setErr
	}
	return f, nil
}
