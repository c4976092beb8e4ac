package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseEpisode interprets a caller-supplied episode identifier. A plain
// number is returned as-is. A two-part hyphenated range like "14-15" denotes
// a double episode: providers are searched with the first number while the
// original range string stays the canonical identifier, so repeat lookups
// with the same range hit the store. Wider ranges have no defined semantics
// and are rejected.
func ParseEpisode(episode string) (searchEpisode string, canonical string, err error) {
	canonical = strings.TrimSpace(episode)
	if canonical == "" {
		return "", "", nil
	}

	parts := strings.Split(canonical, "-")
	switch len(parts) {
	case 1:
		searchEpisode = parts[0]
	case 2:
		searchEpisode = strings.TrimSpace(parts[0])
	default:
		return "", "", fmt.Errorf("unsupported episode range %q", episode)
	}

	if _, convErr := strconv.Atoi(strings.TrimSpace(searchEpisode)); convErr != nil {
		return "", "", fmt.Errorf("invalid episode number %q", episode)
	}

	return strings.TrimSpace(searchEpisode), canonical, nil
}

// NormalizeNumber strips leading zeros from a numeric string so that
// provider values like "01" and caller values like "1" compare equal. Values
// that do not parse as integers are returned trimmed but otherwise unchanged.
func NormalizeNumber(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	if n, err := strconv.Atoi(trimmed); err == nil {
		return strconv.Itoa(n)
	}
	return trimmed
}
