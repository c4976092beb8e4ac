package utils

import "testing"

func TestBestMatchPicksClosestTitle(t *testing.T) {
	candidates := []string{
		"Prison Break: The Final Break",
		"Prison Break",
		"Prison Break: Proof of Innocence",
	}

	index, ok := BestMatch("Prison Break", candidates)
	if !ok {
		t.Fatal("Expected a match")
	}
	if index != 1 {
		t.Errorf("Expected index 1 (exact title), got %d (%s)", index, candidates[index])
	}
}

func TestBestMatchIsCaseInsensitive(t *testing.T) {
	candidates := []string{"Something Else", "INTERSTELLAR"}

	index, ok := BestMatch("interstellar", candidates)
	if !ok {
		t.Fatal("Expected a match")
	}
	if index != 1 {
		t.Errorf("Expected index 1, got %d", index)
	}
}

func TestBestMatchBreaksTiesByFirstOccurrence(t *testing.T) {
	candidates := []string{"The Office", "The Office"}

	index, ok := BestMatch("The Office", candidates)
	if !ok {
		t.Fatal("Expected a match")
	}
	if index != 0 {
		t.Errorf("Expected first occurrence to win, got index %d", index)
	}
}

func TestBestMatchEmptyCandidates(t *testing.T) {
	if _, ok := BestMatch("anything", nil); ok {
		t.Error("Expected no match for empty candidate list")
	}
}

func TestNormalizeTitle(t *testing.T) {
	if got := NormalizeTitle("  Prison Break  "); got != "prison break" {
		t.Errorf("Expected 'prison break', got %q", got)
	}
}
