package utils

import "testing"

func TestParseEpisodePlainNumber(t *testing.T) {
	search, canonical, err := ParseEpisode("7")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if search != "7" || canonical != "7" {
		t.Errorf("Expected (7, 7), got (%s, %s)", search, canonical)
	}
}

func TestParseEpisodeRange(t *testing.T) {
	search, canonical, err := ParseEpisode("14-15")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if search != "14" {
		t.Errorf("Expected search episode 14, got %s", search)
	}
	if canonical != "14-15" {
		t.Errorf("Expected canonical 14-15, got %s", canonical)
	}
}

func TestParseEpisodeEmpty(t *testing.T) {
	search, canonical, err := ParseEpisode("")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if search != "" || canonical != "" {
		t.Errorf("Expected empty results, got (%s, %s)", search, canonical)
	}
}

func TestParseEpisodeWideRangeRejected(t *testing.T) {
	if _, _, err := ParseEpisode("1-2-3"); err == nil {
		t.Error("Expected error for three-part range")
	}
}

func TestParseEpisodeNonNumericRejected(t *testing.T) {
	if _, _, err := ParseEpisode("abc"); err == nil {
		t.Error("Expected error for non-numeric episode")
	}
}

func TestNormalizeNumber(t *testing.T) {
	cases := map[string]string{
		"01":    "1",
		"1":     "1",
		" 007 ": "7",
		"":      "",
		"14-15": "14-15", // non-numeric values pass through
	}

	for input, expected := range cases {
		if got := NormalizeNumber(input); got != expected {
			t.Errorf("NormalizeNumber(%q): expected %q, got %q", input, expected, got)
		}
	}
}
