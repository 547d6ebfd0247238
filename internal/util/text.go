package util

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	reNonAllowed = regexp.MustCompile(`[^\p{L}\p{N}_\s\p{Z},]`)
	stripMarks   = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// NormalizeName lowercases, strips diacritics and drops punctuation other than
// commas. Whitespace runs collapse to a single space. The result is stable
// under repeated application.
func NormalizeName(input string) string {
	s := collapseSpaces(input)
	s = strings.ToLower(s)
	s = RemoveAccents(s)
	s = reNonAllowed.ReplaceAllString(s, "")
	return collapseSpaces(s)
}

// RemoveAccents drops combining marks after canonical decomposition.
func RemoveAccents(input string) string {
	out, _, err := transform.String(stripMarks, input)
	if err != nil {
		return input
	}
	return out
}

// Tokenize splits a normalized name on whitespace with commas removed.
func Tokenize(normalized string) []string {
	return strings.Fields(StripCommas(normalized))
}

// StripCommas replaces commas with spaces.
func StripCommas(input string) string {
	return strings.ReplaceAll(input, ",", " ")
}

// Compact removes every whitespace rune.
func Compact(input string) string {
	return strings.Join(strings.Fields(input), "")
}

// ContainsAny reports whether s contains any non-empty needle.
func ContainsAny(s string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// collapseSpaces splits on Unicode whitespace, so no-break spaces from HTML
// exports separate words too.
func collapseSpaces(input string) string {
	return strings.Join(strings.Fields(input), " ")
}
