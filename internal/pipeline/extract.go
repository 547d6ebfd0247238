package pipeline

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	pdf "github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"

	"rostermatch/internal"
)

const pdfNameColumn = "Nome"

// ReadWorkbook parses an uploaded file into one table per sheet. Spreadsheet
// files keep every sheet; HTML files yield one table per <table>; PDF files
// yield a single one-column table of roster lines.
func ReadWorkbook(fileName string, content []byte) (internal.Workbook, error) {
	if len(content) == 0 {
		return internal.Workbook{}, inputError(ErrMissingInput, fileName, nil)
	}
	format, ok := DetectFormat(fileName)
	if !ok {
		return internal.Workbook{}, inputError(ErrUnsupportedFormat, fileName,
			fmt.Errorf("allowed extensions: %s", strings.Join(AllowedExtensions(), ", ")))
	}

	var (
		sheets []internal.Table
		err    error
	)
	switch format {
	case internal.FormatXLSX:
		sheets, err = parseXLSX(content)
	case internal.FormatXLS:
		sheets, err = parseXLS(content)
	case internal.FormatCSV:
		sheets, err = parseCSV(content)
	case internal.FormatHTML:
		sheets, err = parseHTMLTables(content)
	case internal.FormatPDF:
		sheets, err = parsePDF(content)
	}
	if err != nil {
		return internal.Workbook{}, inputError(ErrUnreadableTable, fileName, err)
	}
	if len(sheets) == 0 {
		return internal.Workbook{}, inputError(ErrUnreadableTable, fileName, errors.New("no tables found"))
	}
	return internal.Workbook{FileName: fileName, Format: format, Sheets: sheets}, nil
}

func parseXLSX(content []byte) ([]internal.Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := []internal.Table{}
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("sheet %q: %w", sheet, err)
		}
		t := buildTable(sheet, rows)
		if len(t.Columns) == 0 {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// parseXLS reads legacy .xls uploads. Genuine BIFF files are not supported
// by excelize; most portal exports are HTML or OOXML in disguise.
func parseXLS(content []byte) ([]internal.Table, error) {
	if looksLikeHTML(content) {
		return parseHTMLTables(content)
	}
	tables, err := parseXLSX(content)
	if err != nil {
		return nil, fmt.Errorf("legacy xls: %w", err)
	}
	return tables, nil
}

func parseCSV(content []byte) ([]internal.Table, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(content, utf8BOM)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.Comma = sniffDelimiter(content)

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, rec)
	}
	t := buildTable("Sheet1", rows)
	if len(t.Columns) == 0 {
		return nil, nil
	}
	return []internal.Table{t}, nil
}

// sniffDelimiter prefers ';' when the header line has more semicolons than
// commas, as spreadsheet exports in pt-BR locales do.
func sniffDelimiter(content []byte) rune {
	line := content
	if i := bytes.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	if bytes.Count(line, []byte(";")) > bytes.Count(line, []byte(",")) {
		return ';'
	}
	return ','
}

func parseHTMLTables(content []byte) ([]internal.Table, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}

	out := []internal.Table{}
	doc.Find("table").Each(func(i int, table *goquery.Selection) {
		var rows [][]string
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			cells := []string{}
			row.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, cell.Text())
			})
			if len(cells) > 0 {
				rows = append(rows, cells)
			}
		})
		name := strings.TrimSpace(table.Find("caption").First().Text())
		if name == "" {
			name = fmt.Sprintf("Table%d", i+1)
		}
		t := buildTable(name, rows)
		if len(t.Columns) == 0 {
			return
		}
		out = append(out, t)
	})
	return out, nil
}

// parsePDF keeps the lines that look like "LASTNAME, FIRSTNAME" entries; when
// no line has a comma every non-blank line is kept.
func parsePDF(content []byte) ([]internal.Table, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, err
	}

	var lines []string
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		lines = append(lines, splitLines(text)...)
	}
	return []internal.Table{pdfRosterTable(lines)}, nil
}

func pdfRosterTable(lines []string) internal.Table {
	t := internal.Table{Name: "PDF", Columns: []string{pdfNameColumn}}
	var named []string
	for _, l := range lines {
		if strings.Contains(l, ",") {
			named = append(named, l)
		}
	}
	if len(named) == 0 {
		named = lines
	}
	for _, l := range named {
		t.Rows = append(t.Rows, []string{normalizeSpaces(l)})
	}
	return t
}
