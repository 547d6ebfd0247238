package pipeline

import (
	"bytes"
	"path/filepath"
	"strings"

	"rostermatch/internal"
)

var extensionFormats = map[string]internal.FileFormat{
	".xlsx": internal.FormatXLSX,
	".xls":  internal.FormatXLS,
	".csv":  internal.FormatCSV,
	".html": internal.FormatHTML,
	".htm":  internal.FormatHTML,
	".pdf":  internal.FormatPDF,
}

// DetectFormat maps a file name to a supported format by extension.
func DetectFormat(fileName string) (internal.FileFormat, bool) {
	f, ok := extensionFormats[strings.ToLower(filepath.Ext(fileName))]
	return f, ok
}

func AllowedExtensions() []string {
	return []string{".xlsx", ".xls", ".csv", ".html", ".htm", ".pdf"}
}

// looksLikeHTML catches spreadsheets exported by web portals as HTML tables
// but saved with an .xls extension.
func looksLikeHTML(content []byte) bool {
	head := content
	if len(head) > 1024 {
		head = head[:1024]
	}
	head = bytes.ToLower(bytes.TrimSpace(bytes.TrimPrefix(head, utf8BOM)))
	return bytes.HasPrefix(head, []byte("<")) && (bytes.Contains(head, []byte("<table")) ||
		bytes.Contains(head, []byte("<html")) || bytes.Contains(head, []byte("<!doctype")))
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}
