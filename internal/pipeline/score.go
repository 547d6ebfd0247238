package pipeline

import (
	"rostermatch/internal/similarity"
	"rostermatch/internal/util"
)

const (
	firstnameWeight = 0.4
	lastnameWeight  = 0.4
	fullNameWeight  = 0.2

	// A multi-token input sharing fewer than two tokens with the candidate is
	// capped here unless the space-insensitive comparison clears compactEscape.
	singleTokenCap = 75.0
	compactEscape  = 90.0
)

// ScoreBreakdown keeps every signal that feeds the final score.
type ScoreBreakdown struct {
	Firstname    *float64
	Lastname     *float64
	MaxFull      float64
	Weighted     float64
	Compact      float64
	Jaccard      float64
	BestFirstTok float64
	BestLastTok  float64
	InputTokens  int
	Overlap      int
	Penalized    bool
	Final        float64
}

// Scorer compares a roster-format name against a free-form base name. The
// roles are fixed: swapping the arguments generally changes the score.
type Scorer struct {
	alg similarity.Algorithm
}

func NewScorer(alg similarity.Algorithm) Scorer {
	return Scorer{alg: alg}
}

func (s Scorer) Algorithm() similarity.Algorithm { return s.alg }

func (s Scorer) Score(inputName, baseName string) float64 {
	return s.ScoreParsed(ParseRosterName(inputName), ParseBaseName(baseName)).Final
}

func (s Scorer) ScoreParsed(in RosterName, base BaseName) ScoreBreakdown {
	var b ScoreBreakdown

	if in.Firstname != "" && base.Firstname != "" {
		v := s.sim(in.Firstname, base.Firstname)
		b.Firstname = &v
	}
	if in.Lastname != "" && base.Lastname != "" {
		v := s.sim(in.Lastname, base.Lastname)
		b.Lastname = &v
	}

	variants := []string{
		in.FullNormal,
		in.FullReverse,
		in.Firstname + " " + in.Lastname,
		in.Lastname + " " + in.Firstname,
	}
	hasFull := false
	for _, v := range variants {
		if v == "" || base.FullName == "" {
			continue
		}
		hasFull = true
		if score := s.sim(v, base.FullName); score > b.MaxFull {
			b.MaxFull = score
		}
	}

	var weights, total float64
	if b.Firstname != nil {
		total += *b.Firstname * firstnameWeight
		weights += firstnameWeight
	}
	if b.Lastname != nil {
		total += *b.Lastname * lastnameWeight
		weights += lastnameWeight
	}
	if hasFull {
		total += b.MaxFull * fullNameWeight
		weights += fullNameWeight
	}
	if weights > 0 {
		b.Weighted = total / weights
	}

	compactBase := util.Compact(base.FullName)
	if compactBase != "" {
		b.Compact = similarity.Similarity(util.Compact(in.Normalized), compactBase, similarity.Ratio)
	}

	inputTokens := tokenSetOf(util.Tokenize(in.Normalized))
	baseTokens := tokenSetOf(base.Parts)
	for t := range inputTokens {
		if _, ok := baseTokens[t]; ok {
			b.Overlap++
		}
	}
	b.InputTokens = len(inputTokens)
	b.Jaccard = float64(b.Overlap) / float64(max(1, len(baseTokens))) * 100

	for t := range inputTokens {
		if base.Firstname != "" {
			if v := s.sim(base.Firstname, t); v > b.BestFirstTok {
				b.BestFirstTok = v
			}
		}
		if base.Lastname != "" {
			if v := s.sim(base.Lastname, t); v > b.BestLastTok {
				b.BestLastTok = v
			}
		}
	}

	b.Final = max(b.Weighted, b.MaxFull, b.Jaccard, b.BestFirstTok, b.BestLastTok, b.Compact)
	if b.InputTokens >= 2 && b.Overlap < 2 && b.Compact < compactEscape && b.Final > singleTokenCap {
		b.Final = singleTokenCap
		b.Penalized = true
	}
	return b
}

func (s Scorer) sim(a, b string) float64 {
	return similarity.Similarity(a, b, s.alg)
}

func tokenSetOf(tokens []string) map[string]struct{} {
	out := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		out[t] = struct{}{}
	}
	return out
}
