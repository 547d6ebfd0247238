package pipeline

import (
	"regexp"
	"strconv"
	"strings"

	"rostermatch/internal/util"
)

const fundPrefix = "FUND"

var (
	// Tried in order; the first hit wins.
	gradeSectionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(\d{1,2})\s*(?:ano|serie|grau|º|°)?\s*([a-z])\b`),
		regexp.MustCompile(`\b(\d{1,2})\s*[-_]\s*([a-z])\b`),
		regexp.MustCompile(`\b(\d{1,2})([a-z])\b`),
		regexp.MustCompile(`\b(\d{1,2})\s*(?:ano|serie|grau|º|°|[-_])\s*(\d{1,2})\b`),
	}

	levelStrict  = regexp.MustCompile(`^\s*(\d{1,2})\s*[.,;:-]\s*(\d)\s*$`)
	levelMulti   = regexp.MustCompile(`^\s*(\d{1,2})\s*[.,;:-]\s*(\d{2,})\s*$`)
	levelInteger = regexp.MustCompile(`^\s*(\d{1,2})\s*$`)
	levelAny     = regexp.MustCompile(`^\s*(\d{1,2})\s*[.,;:-]\s*(\d+)\s*$`)

	romanGrade = regexp.MustCompile(`\bfund[a-z]*\b\s*(i{1,3}|iv|v|vi|vii|viii|ix|x)\b`)
	romanToInt = map[string]string{
		"i": "1", "ii": "2", "iii": "3", "iv": "4", "v": "5",
		"vi": "6", "vii": "7", "viii": "8", "ix": "9", "x": "10",
	}

	extracurricularTerms = []string{
		"violino", "danca", "teatro", "musica", "ballet", "coral", "flauta", "piano", "canto",
		"judo", "capoeira", "arte", "artes", "basquete", "futsal", "handebol", "volei", "xadrez",
	}
)

// ClassRow is the class-related slice of one base roster row.
type ClassRow struct {
	RawClass   string
	ClassTexts []string
	Level      string
	Sheet      string
}

// Combined returns the normalized concatenation of every class-like value
// followed by the sheet name.
func (r ClassRow) Combined() string {
	parts := make([]string, 0, len(r.ClassTexts)+1)
	for _, v := range r.ClassTexts {
		if strings.TrimSpace(v) != "" {
			parts = append(parts, v)
		}
	}
	if sheet := util.NormalizeName(r.Sheet); sheet != "" {
		parts = append(parts, sheet)
	}
	return util.NormalizeName(strings.Join(parts, " "))
}

type gradeSection struct {
	number  string
	section string
}

func (g gradeSection) label() string {
	if g.section == "" {
		return fundPrefix + "-" + g.number
	}
	return fundPrefix + "-" + g.number + strings.ToUpper(g.section)
}

type labelRule func(row ClassRow, combined string) (string, bool)

var labelRules = []labelRule{
	func(row ClassRow, _ string) (string, bool) {
		return extractLabel(util.NormalizeName(row.RawClass))
	},
	func(_ ClassRow, combined string) (string, bool) {
		return extractLabel(combined)
	},
	func(row ClassRow, _ string) (string, bool) {
		g, ok := gradeFromLevel(row.Level)
		if !ok {
			return "", false
		}
		return g.label(), true
	},
	func(row ClassRow, combined string) (string, bool) {
		if label, ok := romanLabel(combined); ok {
			return label, true
		}
		return romanLabel(util.NormalizeName(row.Sheet))
	},
}

// ResolveClassLabel derives FUND-<grade><section>, FUND-<grade> or FUND from
// noisy class, level and sheet values.
func ResolveClassLabel(row ClassRow) string {
	combined := row.Combined()
	for _, rule := range labelRules {
		if label, ok := rule(row, combined); ok {
			return label
		}
	}
	return fundPrefix
}

func IsElementaryLabel(label string) bool {
	return strings.HasPrefix(label, fundPrefix)
}

// IsExtracurricular reports whether normalized class text names an
// extracurricular activity.
func IsExtracurricular(combined string) bool {
	return util.ContainsAny(combined, extracurricularTerms)
}

// LevelDisplay renders the level column for presentation: "6.1".."6.3" style
// values are kept, other numeric values are hidden, text passes through.
func LevelDisplay(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if m := levelAny.FindStringSubmatch(s); m != nil {
		minor := m[2][:1]
		if minor == "1" || minor == "2" || minor == "3" {
			return m[1] + "." + minor
		}
		return ""
	}
	if levelInteger.MatchString(s) {
		return ""
	}
	return raw
}

func extractLabel(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	for _, re := range gradeSectionPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		section := m[2]
		if isDigits(section) {
			letter, ok := sectionLetter(section)
			if !ok {
				continue
			}
			section = letter
		}
		return gradeSection{number: m[1], section: section}.label(), true
	}
	return "", false
}

func gradeFromLevel(raw string) (gradeSection, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return gradeSection{}, false
	}
	if m := levelStrict.FindStringSubmatch(s); m != nil {
		letter, ok := sectionLetter(m[2])
		return gradeSection{number: m[1], section: letter}, ok
	}
	if m := levelMulti.FindStringSubmatch(s); m != nil {
		letter, ok := sectionLetter(m[2][:1])
		return gradeSection{number: m[1], section: letter}, ok
	}
	if m := levelInteger.FindStringSubmatch(s); m != nil {
		return gradeSection{number: m[1]}, true
	}
	return gradeSection{}, false
}

func romanLabel(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	m := romanGrade.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	if n, ok := romanToInt[m[1]]; ok {
		return fundPrefix + "-" + n, true
	}
	return fundPrefix, true
}

// sectionLetter maps numeric section codes 1..26 to a..z.
func sectionLetter(digits string) (string, bool) {
	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 || n > 26 {
		return "", false
	}
	return string(rune('a' + n - 1)), true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
