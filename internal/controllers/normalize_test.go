package controllers

import (
	"testing"

	"metadarr/internal/models"
	"metadarr/internal/services/omdb"
)

func TestCleanFieldDropsSentinels(t *testing.T) {
	sentinels := []string{"", "N/A", "NaN", "null", "undefined", "  N/A  "}
	for _, value := range sentinels {
		if got := cleanField(value); got != "" {
			t.Errorf("Expected sentinel %q to clean to empty, got %q", value, got)
		}
	}

	if got := cleanField("  Interstellar  "); got != "Interstellar" {
		t.Errorf("Expected trimmed value, got %q", got)
	}
}

func TestSplitList(t *testing.T) {
	got := splitList("Matthew McConaughey, Anne Hathaway, Jessica Chastain")
	if len(got) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(got))
	}
	if got[1] != "Anne Hathaway" {
		t.Errorf("Expected trimmed entry, got %q", got[1])
	}

	if splitList("N/A") != nil {
		t.Error("Expected nil for sentinel list")
	}
}

func TestYearOf(t *testing.T) {
	if got := yearOf("2014-11-05"); got != "2014" {
		t.Errorf("Expected 2014, got %q", got)
	}
	if got := yearOf(""); got != "" {
		t.Errorf("Expected empty year, got %q", got)
	}
	if got := yearOf("n/a"); got != "" {
		t.Errorf("Expected empty year for non-date, got %q", got)
	}
}

func TestNormalizeOMDBFiltersSentinels(t *testing.T) {
	record := &omdb.Record{
		ImdbID:     "tt0816692",
		Title:      "Interstellar",
		Year:       "2014",
		Director:   "N/A",
		Plot:       "null",
		Runtime:    "169 min",
		ImdbRating: "NaN",
		Type:       "movie",
		Response:   "True",
	}

	media := normalizeOMDB(record)
	if media.Title != "Interstellar" || media.Year != "2014" {
		t.Errorf("Expected real values kept, got %+v", media)
	}
	if media.Director != "" || media.Plot != "" || media.Rating != "" {
		t.Errorf("Expected sentinel fields dropped, got %+v", media)
	}
	if media.Runtime != "169 min" {
		t.Errorf("Expected runtime kept, got %q", media.Runtime)
	}
	if media.MediaType != models.MediaTypeMovie {
		t.Errorf("Expected movie type, got %q", media.MediaType)
	}
}

func TestNormalizeOMDBEpisode(t *testing.T) {
	record := &omdb.Record{
		ImdbID:   "tt4283088",
		Title:    "Battle of the Bastards",
		Type:     "episode",
		Season:   "6",
		Episode:  "9",
		SeriesID: "tt0944947",
	}

	media := normalizeOMDB(record)
	if media.MediaType != models.MediaTypeEpisode {
		t.Fatalf("Expected episode type, got %q", media.MediaType)
	}
	if media.Season != "6" || media.Episode != "9" || media.SeriesImdbID != "tt0944947" {
		t.Errorf("Episode fields mismatch: %+v", media)
	}
}

func TestMergeMediaLaterSourceWins(t *testing.T) {
	first := &models.Media{
		ImdbID: "tt0816692",
		Title:  "Interstellar",
		Year:   "2014",
		Plot:   "short plot",
		Genres: []string{"Sci-Fi"},
	}
	second := &models.Media{
		Plot:   "a much longer plot from the enrichment source",
		Poster: "https://example.com/poster.jpg",
		Genres: []string{"Adventure", "Drama", "Sci-Fi"},
	}

	merged := mergeMedia(first, second)

	if merged.ImdbID != "tt0816692" || merged.Title != "Interstellar" {
		t.Errorf("Expected untouched fields preserved, got %+v", merged)
	}
	if merged.Plot != second.Plot {
		t.Errorf("Expected later plot to win, got %q", merged.Plot)
	}
	if merged.Poster != second.Poster {
		t.Errorf("Expected poster filled from later source, got %q", merged.Poster)
	}
	if len(merged.Genres) != 3 {
		t.Errorf("Expected list replaced wholesale, got %v", merged.Genres)
	}
}

func TestMergeMediaEmptyNeverOverwrites(t *testing.T) {
	first := &models.Media{Title: "Interstellar", Year: "2014"}
	second := &models.Media{} // all sentinel fields already cleaned to empty

	merged := mergeMedia(first, second)
	if merged.Title != "Interstellar" || merged.Year != "2014" {
		t.Errorf("Expected empty partial to leave fields intact, got %+v", merged)
	}
}

func TestMergeMediaUnionsSearchMatches(t *testing.T) {
	first := &models.Media{SearchMatches: []string{"Interstellar"}}
	second := &models.Media{SearchMatches: []string{"Interstellar", "interstellar 2014"}}

	merged := mergeMedia(first, second)
	if len(merged.SearchMatches) != 2 {
		t.Errorf("Expected union of 2 matches, got %v", merged.SearchMatches)
	}
}

func TestMergeMediaSkipsNilPartials(t *testing.T) {
	merged := mergeMedia(nil, &models.Media{Title: "Interstellar"}, nil)
	if merged.Title != "Interstellar" {
		t.Errorf("Expected nil partials skipped, got %+v", merged)
	}
}
