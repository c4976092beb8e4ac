package omdb

import (
	"context"
	"net/url"
	"strings"

	"metadarr/internal/metrics"
	"metadarr/internal/models"
)

// Record is a raw OMDb record. Missing fields carry the "N/A" sentinel and
// are filtered out by the normalize layer, not here.
type Record struct {
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Released   string `json:"Released"`
	Runtime    string `json:"Runtime"`
	Genre      string `json:"Genre"`
	Director   string `json:"Director"`
	Actors     string `json:"Actors"`
	Plot       string `json:"Plot"`
	Poster     string `json:"Poster"`
	ImdbRating string `json:"imdbRating"`
	ImdbID     string `json:"imdbID"`
	Type       string `json:"Type"` // movie | series | episode
	SeriesID   string `json:"seriesID"`
	Season     string `json:"Season"`
	Episode    string `json:"Episode"`

	Response string `json:"Response"`
	Error    string `json:"Error"`
}

// Candidate is a single title-search result
type Candidate struct {
	Title  string `json:"Title"`
	Year   string `json:"Year"`
	ImdbID string `json:"imdbID"`
	Type   string `json:"Type"`
}

type searchResponse struct {
	Search   []Candidate `json:"Search"`
	Response string      `json:"Response"`
	Error    string      `json:"Error"`
}

// GetByID retrieves a full record by IMDb ID. A miss is reported as
// ErrMediaNotFound.
func (c *Client) GetByID(ctx context.Context, imdbID string) (*Record, error) {
	params := url.Values{}
	params.Set("i", imdbID)
	params.Set("plot", "full")

	var record Record
	if err := c.doRequest(ctx, params, &record); err != nil {
		metrics.RecordProviderCall("omdb", metrics.OutcomeUnavailable)
		return nil, err
	}

	if record.Response != "True" {
		c.logger.WithField("imdb_id", imdbID).WithField("error", record.Error).Debug("OMDb record not found")
		metrics.RecordProviderCall("omdb", metrics.OutcomeNotFound)
		return nil, models.ErrMediaNotFound
	}

	metrics.RecordProviderCall("omdb", metrics.OutcomeSuccess)
	return &record, nil
}

// SearchByTitle searches for titles matching the query. An empty candidate
// list is a valid answer, not an error.
func (c *Client) SearchByTitle(ctx context.Context, title, year string) ([]Candidate, error) {
	params := url.Values{}
	params.Set("s", strings.TrimSpace(title))
	if year != "" {
		params.Set("y", year)
	}

	var response searchResponse
	if err := c.doRequest(ctx, params, &response); err != nil {
		metrics.RecordProviderCall("omdb", metrics.OutcomeUnavailable)
		return nil, err
	}

	if response.Response != "True" {
		metrics.RecordProviderCall("omdb", metrics.OutcomeNotFound)
		return nil, nil
	}

	metrics.RecordProviderCall("omdb", metrics.OutcomeSuccess)
	return response.Search, nil
}

// GetEpisode retrieves a specific episode of a series. The returned record
// carries the episode's own IMDb ID, distinct from the series'.
func (c *Client) GetEpisode(ctx context.Context, seriesImdbID, season, episode string) (*Record, error) {
	params := url.Values{}
	params.Set("i", seriesImdbID)
	params.Set("Season", season)
	params.Set("Episode", episode)

	var record Record
	if err := c.doRequest(ctx, params, &record); err != nil {
		metrics.RecordProviderCall("omdb", metrics.OutcomeUnavailable)
		return nil, err
	}

	if record.Response != "True" {
		metrics.RecordProviderCall("omdb", metrics.OutcomeNotFound)
		return nil, models.ErrMediaNotFound
	}

	metrics.RecordProviderCall("omdb", metrics.OutcomeSuccess)
	return &record, nil
}
