package utils

import (
	"strings"

	"github.com/xrash/smetrics"
)

// Jaro-Winkler parameters: standard boost threshold and prefix length
const (
	jaroWinklerBoost  = 0.7
	jaroWinklerPrefix = 4
)

// NormalizeTitle lowercases and trims a title for matching purposes. Search
// matches are stored and compared in this form.
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// BestMatch scores each candidate against the query with Jaro-Winkler
// similarity and returns the index of the highest-scoring candidate. Ties are
// broken by first occurrence, so candidate order must not be changed by the
// caller. Returns false when candidates is empty.
func BestMatch(query string, candidates []string) (int, bool) {
	if len(candidates) == 0 {
		return 0, false
	}

	normalized := NormalizeTitle(query)
	bestIndex := 0
	bestScore := -1.0

	for i, candidate := range candidates {
		score := smetrics.JaroWinkler(normalized, NormalizeTitle(candidate), jaroWinklerBoost, jaroWinklerPrefix)
		if score > bestScore {
			bestScore = score
			bestIndex = i
		}
	}

	return bestIndex, true
}
