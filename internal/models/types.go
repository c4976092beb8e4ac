package models

// MediaType represents the kind of a resolved record
type MediaType string

const (
	MediaTypeMovie   MediaType = "movie"
	MediaTypeEpisode MediaType = "episode"
	MediaTypeSeries  MediaType = "series"
)
