package pipeline

import (
	"strings"

	"rostermatch/internal/util"
)

var nameStopwords = map[string]struct{}{
	"de": {}, "da": {}, "do": {}, "dos": {}, "das": {}, "e": {},
	"del": {}, "la": {}, "el": {}, "von": {}, "van": {},
}

// RosterName is a "LASTNAME, FIRSTNAME [MIDDLE]" entry split into parts.
type RosterName struct {
	Normalized  string
	Lastname    string
	Firstname   string
	FullNormal  string
	FullReverse string
}

// BaseName is a free-form "FIRSTNAME ... LASTNAME" entry with particles removed.
type BaseName struct {
	Normalized string
	Firstname  string
	Lastname   string
	FullName   string
	Parts      []string
}

// ParseRosterName splits on the first comma: the text before it is the
// lastname, the first token after it the firstname. Without a comma the whole
// normalized string sits in the firstname slot.
func ParseRosterName(raw string) RosterName {
	normalized := util.NormalizeName(raw)
	if idx := strings.Index(normalized, ","); idx >= 0 {
		lastname := strings.TrimSpace(normalized[:idx])
		rest := strings.Fields(util.StripCommas(normalized[idx+1:]))
		firstname := ""
		if len(rest) > 0 {
			firstname = rest[0]
		}
		return RosterName{
			Normalized:  normalized,
			Lastname:    lastname,
			Firstname:   firstname,
			FullNormal:  firstname + " " + lastname,
			FullReverse: lastname + " " + firstname,
		}
	}
	return RosterName{
		Normalized:  normalized,
		Firstname:   normalized,
		FullNormal:  normalized,
		FullReverse: normalized,
	}
}

// ParseBaseName drops stopwords only while at least two tokens remain.
func ParseBaseName(raw string) BaseName {
	normalized := util.NormalizeName(raw)
	parts := strings.Fields(normalized)

	if len(parts) >= 2 {
		filtered := make([]string, 0, len(parts))
		for _, p := range parts {
			if _, stop := nameStopwords[p]; !stop {
				filtered = append(filtered, p)
			}
		}
		if len(filtered) >= 2 {
			return BaseName{
				Normalized: normalized,
				Firstname:  filtered[0],
				Lastname:   filtered[len(filtered)-1],
				FullName:   normalized,
				Parts:      filtered,
			}
		}
	}

	return BaseName{
		Normalized: normalized,
		Firstname:  normalized,
		FullName:   normalized,
		Parts:      parts,
	}
}
