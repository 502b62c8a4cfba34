package symbols

import (
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// unitCost counts a substitution as a single edit.
var unitCost = levenshtein.Options{
	InsCost: 1,
	DelCost: 1,
	SubCost: 1,
	Matches: levenshtein.IdenticalRunes,
}

// Suggest picks the candidate closest to name by edit distance. Matches
// further than about a third of the name's length (minimum 1, maximum 3)
// are rejected. Ties keep the earlier candidate, so callers control
// preference through ordering.
func Suggest(name string, candidates []string) (string, bool) {
	limit := (len(name) + 2) / 3
	if limit < 1 {
		limit = 1
	}
	if limit > 3 {
		limit = 3
	}
	src := []rune(strings.ToLower(name))
	best, bestDist := "", limit+1
	for _, c := range candidates {
		if c == name || c == "" {
			continue
		}
		d := levenshtein.DistanceForStrings(src, []rune(strings.ToLower(c)), unitCost)
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, best != ""
}
