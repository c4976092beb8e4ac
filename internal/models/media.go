package models

import "time"

// Media represents a single resolved movie or episode.
//
// ImdbID is the stable identity once known and is unique across all records.
// OsdbHash is an alternate content-hash key (16 hex characters when present).
// Season and Episode are kept as strings so that provider leading-zero
// variance and double-episode ranges like "14-15" round-trip unchanged.
type Media struct {
	ID     uint64 `boltholdKey:"ID" json:"-"`
	ImdbID string `boltholdUnique:"ImdbID" json:"imdbId"`
	TmdbID int    `json:"tmdbId,omitempty"`

	OsdbHash string `boltholdIndex:"OsdbHash" json:"osdbHash,omitempty"`

	MediaType MediaType `json:"type"`
	Title     string    `json:"title,omitempty"` // may be empty for placeholder episodes
	Year      string    `json:"year,omitempty"`

	// Episode specific fields
	Season       string `json:"seasonNumber,omitempty"`
	Episode      string `json:"episodeNumber,omitempty"` // raw value, ranges preserved
	SeriesImdbID string `boltholdIndex:"SeriesImdbID" json:"seriesImdbId,omitempty"`

	// Queries known to resolve to this record. Grows monotonically, matched
	// against on title lookups, never returned to callers.
	SearchMatches []string `json:"-"`

	// Descriptive fields, each independently optional and provider-sourced
	Genres   []string `json:"genres,omitempty"`
	Actors   []string `json:"actors,omitempty"`
	Director string   `json:"director,omitempty"`
	Plot     string   `json:"plot,omitempty"`
	Poster   string   `json:"poster,omitempty"`
	Rating   string   `json:"rating,omitempty"`
	Runtime  string   `json:"runtime,omitempty"`
	Released string   `json:"released,omitempty"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// Series represents a whole series, created when an episode's series needs
// representation. It does not enumerate its episodes; episodes carry a weak
// back-reference via SeriesImdbID instead.
type Series struct {
	ID     uint64 `boltholdKey:"ID" json:"-"`
	ImdbID string `boltholdUnique:"ImdbID" json:"imdbId"`
	TmdbID int    `json:"tmdbId,omitempty"`

	Title string `json:"title,omitempty"`
	Year  string `json:"year,omitempty"`

	SearchMatches []string `json:"-"`

	Genres []string `json:"genres,omitempty"`
	Actors []string `json:"actors,omitempty"`
	Plot   string   `json:"plot,omitempty"`
	Poster string   `json:"poster,omitempty"`
	Rating string   `json:"rating,omitempty"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// FailedLookup records a query shape known to have produced no result, so
// repeat identical queries are answered locally instead of re-querying
// providers. At least one of OsdbHash or Title is always present.
type FailedLookup struct {
	ID uint64 `boltholdKey:"ID"`

	OsdbHash string `boltholdIndex:"OsdbHash"`
	Title    string `boltholdIndex:"Title"`
	Year     string
	Season   string
	Episode  string

	Count            int
	FailedValidation bool

	CreatedAt time.Time
}

// BackfillJob is a work queue entry created when an episode lookup resolves
// to a series that has not been fully enumerated yet. The backfill job walks
// all episodes of the series and persists a Media record per episode.
type BackfillJob struct {
	ID           uint64 `boltholdKey:"ID"`
	SeriesImdbID string `boltholdIndex:"SeriesImdbID"`
	SeriesTmdbID int

	CreatedAt time.Time
}
