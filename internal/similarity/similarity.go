// Package similarity scores two strings on a 0-100 scale with the classic
// ratio family: plain, partial, token-sort and token-set.
package similarity

import (
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"
)

type Algorithm string

const (
	Ratio        Algorithm = "ratio"
	PartialRatio Algorithm = "partial_ratio"
	TokenSort    Algorithm = "token_sort_ratio"
	TokenSet     Algorithm = "token_set_ratio"

	Default = TokenSort
)

var known = map[Algorithm]struct{}{
	Ratio:        {},
	PartialRatio: {},
	TokenSort:    {},
	TokenSet:     {},
}

// ParseAlgorithm maps a selector to an Algorithm. Unknown selectors resolve to
// Default; ok reports whether the selector was recognised.
func ParseAlgorithm(name string) (alg Algorithm, ok bool) {
	a := Algorithm(strings.ToLower(strings.TrimSpace(name)))
	if _, found := known[a]; found {
		return a, true
	}
	return Default, false
}

func Names() []string {
	return []string{string(Ratio), string(PartialRatio), string(TokenSort), string(TokenSet)}
}

// Similarity returns 0 when either side is empty.
func Similarity(a, b string, alg Algorithm) float64 {
	if a == "" || b == "" {
		return 0
	}
	switch alg {
	case Ratio:
		return ratio(a, b)
	case PartialRatio:
		return partialRatio(a, b)
	case TokenSet:
		return tokenSetRatio(a, b)
	default:
		return tokenSortRatio(a, b)
	}
}

// ratio is the indel-normalised similarity 200*LCS/(|a|+|b|) over runes.
func ratio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	total := len([]rune(a)) + len([]rune(b))
	if a == b {
		return 100
	}
	return 200 * float64(edlib.LCS(a, b)) / float64(total)
}

// partialRatio slides the shorter string over the longer one, including the
// partially overlapping windows at both ends, and keeps the best ratio. Equal
// length inputs are tried in both directions.
func partialRatio(a, b string) float64 {
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		return 0
	}
	best := windowRatio(short, long)
	if len(short) == len(long) && best < 100 {
		best = max(best, windowRatio(long, short))
	}
	return best
}

func windowRatio(short, long []rune) float64 {
	s := string(short)
	n := len(short)
	best := 0.0
	consider := func(window []rune) bool {
		if len(window) == 0 {
			return false
		}
		if r := ratio(s, string(window)); r > best {
			best = r
		}
		return best >= 100
	}

	for k := 1; k < n; k++ {
		if consider(long[:k]) {
			return 100
		}
	}
	for i := 0; i+n <= len(long); i++ {
		if consider(long[i : i+n]) {
			return 100
		}
	}
	for k := n - 1; k >= 1; k-- {
		if consider(long[len(long)-k:]) {
			return 100
		}
	}
	return best
}

func tokenSortRatio(a, b string) float64 {
	return ratio(sortedTokens(a), sortedTokens(b))
}

func tokenSetRatio(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	var inter, onlyA, onlyB []string
	for t := range setA {
		if _, ok := setB[t]; ok {
			inter = append(inter, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for t := range setB {
		if _, ok := setA[t]; !ok {
			onlyB = append(onlyB, t)
		}
	}
	if len(inter) > 0 && (len(onlyA) == 0 || len(onlyB) == 0) {
		return 100
	}

	sort.Strings(inter)
	sort.Strings(onlyA)
	sort.Strings(onlyB)
	sect := strings.Join(inter, " ")
	combinedA := strings.TrimSpace(sect + " " + strings.Join(onlyA, " "))
	combinedB := strings.TrimSpace(sect + " " + strings.Join(onlyB, " "))

	best := ratio(combinedA, combinedB)
	if r := ratio(sect, combinedA); r > best {
		best = r
	}
	if r := ratio(sect, combinedB); r > best {
		best = r
	}
	return best
}

func sortedTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

func tokenSet(s string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, t := range strings.Fields(s) {
		out[t] = struct{}{}
	}
	return out
}
