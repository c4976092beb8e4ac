package controllers

import (
	"strconv"
	"strings"

	"metadarr/internal/models"
	"metadarr/internal/services/omdb"
	"metadarr/internal/services/osdb"
	"metadarr/internal/services/tmdb"
)

// isSentinel reports whether a provider value means "not available". Such
// values are dropped during normalization so a merge can never let a
// missing-value sentinel overwrite a previously populated field.
func isSentinel(value string) bool {
	switch strings.TrimSpace(value) {
	case "", omdb.NotAvailable, "NaN", "null", "undefined":
		return true
	}
	return false
}

// cleanField returns the value, or "" when it is a sentinel
func cleanField(value string) string {
	if isSentinel(value) {
		return ""
	}
	return strings.TrimSpace(value)
}

// splitList splits OMDb's comma-joined list fields into a slice, dropping
// sentinel entries.
func splitList(value string) []string {
	if isSentinel(value) {
		return nil
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

// yearOf extracts the year from a provider date string like "2014-11-05"
func yearOf(date string) string {
	date = strings.TrimSpace(date)
	if len(date) < 4 {
		return ""
	}
	if _, err := strconv.Atoi(date[:4]); err != nil {
		return ""
	}
	return date[:4]
}

// normalizeOSDB maps a hash identification into a partial media record
func normalizeOSDB(ident *osdb.Identification) *models.Media {
	media := &models.Media{
		ImdbID: ident.ImdbID,
		Title:  cleanField(ident.Title),
		Year:   cleanField(ident.Year),
	}

	if ident.Kind == "episode" {
		media.MediaType = models.MediaTypeEpisode
		media.Season = cleanField(ident.Season)
		media.Episode = cleanField(ident.Episode)
		media.SeriesImdbID = ident.SeriesImdbID
	} else {
		media.MediaType = models.MediaTypeMovie
	}

	return media
}

// normalizeOMDB maps a raw OMDb record into a partial media record
func normalizeOMDB(record *omdb.Record) *models.Media {
	media := &models.Media{
		ImdbID:   record.ImdbID,
		Title:    cleanField(record.Title),
		Year:     cleanField(record.Year),
		Genres:   splitList(record.Genre),
		Actors:   splitList(record.Actors),
		Director: cleanField(record.Director),
		Plot:     cleanField(record.Plot),
		Poster:   cleanField(record.Poster),
		Rating:   cleanField(record.ImdbRating),
		Runtime:  cleanField(record.Runtime),
		Released: cleanField(record.Released),
	}

	if record.Type == "episode" {
		media.MediaType = models.MediaTypeEpisode
		media.Season = cleanField(record.Season)
		media.Episode = cleanField(record.Episode)
		media.SeriesImdbID = cleanField(record.SeriesID)
	} else {
		media.MediaType = models.MediaTypeMovie
	}

	return media
}

// normalizeOMDBSeries maps a raw OMDb series record into a series record
func normalizeOMDBSeries(record *omdb.Record) *models.Series {
	return &models.Series{
		ImdbID: record.ImdbID,
		Title:  cleanField(record.Title),
		Year:   cleanField(record.Year),
		Genres: splitList(record.Genre),
		Actors: splitList(record.Actors),
		Plot:   cleanField(record.Plot),
		Poster: cleanField(record.Poster),
		Rating: cleanField(record.ImdbRating),
	}
}

// normalizeTMDBMovie maps a TMDb movie into a partial media record
func normalizeTMDBMovie(movie *tmdb.Movie) *models.Media {
	return &models.Media{
		TmdbID:    movie.ID,
		MediaType: models.MediaTypeMovie,
		Title:     cleanField(movie.Title),
		Year:      yearOf(movie.ReleaseDate),
		Plot:      cleanField(movie.Overview),
		Poster:    tmdb.PosterURL(movie.PosterPath),
		Rating:    formatRating(movie.VoteAverage),
	}
}

// normalizeTMDBEpisode maps a TMDb episode into a partial media record. TMDb
// episode payloads are episode-shaped by construction, so the type is always
// episode here.
func normalizeTMDBEpisode(episode *tmdb.Episode) *models.Media {
	media := &models.Media{
		MediaType: models.MediaTypeEpisode,
		Title:     cleanField(episode.Name),
		Year:      yearOf(episode.AirDate),
		Plot:      cleanField(episode.Overview),
		Poster:    tmdb.PosterURL(episode.StillPath),
		Rating:    formatRating(episode.VoteAverage),
	}
	if episode.SeasonNumber > 0 {
		media.Season = strconv.Itoa(episode.SeasonNumber)
	}
	if episode.EpisodeNumber > 0 {
		media.Episode = strconv.Itoa(episode.EpisodeNumber)
	}
	return media
}

func formatRating(vote float64) string {
	if vote <= 0 {
		return ""
	}
	return strconv.FormatFloat(vote, 'f', 1, 64)
}

// mergeMedia merges partial records field by field. Later-listed sources win
// for every non-empty field; lists replace wholesale rather than concatenate.
// SearchMatches is the one exception and is unioned across all partials.
func mergeMedia(partials ...*models.Media) *models.Media {
	merged := &models.Media{}

	for _, partial := range partials {
		if partial == nil {
			continue
		}
		if partial.ImdbID != "" {
			merged.ImdbID = partial.ImdbID
		}
		if partial.TmdbID != 0 {
			merged.TmdbID = partial.TmdbID
		}
		if partial.OsdbHash != "" {
			merged.OsdbHash = partial.OsdbHash
		}
		if partial.MediaType != "" {
			merged.MediaType = partial.MediaType
		}
		if partial.Title != "" {
			merged.Title = partial.Title
		}
		if partial.Year != "" {
			merged.Year = partial.Year
		}
		if partial.Season != "" {
			merged.Season = partial.Season
		}
		if partial.Episode != "" {
			merged.Episode = partial.Episode
		}
		if partial.SeriesImdbID != "" {
			merged.SeriesImdbID = partial.SeriesImdbID
		}
		if len(partial.Genres) > 0 {
			merged.Genres = partial.Genres
		}
		if len(partial.Actors) > 0 {
			merged.Actors = partial.Actors
		}
		if partial.Director != "" {
			merged.Director = partial.Director
		}
		if partial.Plot != "" {
			merged.Plot = partial.Plot
		}
		if partial.Poster != "" {
			merged.Poster = partial.Poster
		}
		if partial.Rating != "" {
			merged.Rating = partial.Rating
		}
		if partial.Runtime != "" {
			merged.Runtime = partial.Runtime
		}
		if partial.Released != "" {
			merged.Released = partial.Released
		}
		for _, match := range partial.SearchMatches {
			merged.SearchMatches = unionMatch(merged.SearchMatches, match)
		}
	}

	return merged
}

func unionMatch(matches []string, match string) []string {
	for _, existing := range matches {
		if existing == match {
			return matches
		}
	}
	return append(matches, match)
}
