package tmdb

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"metadarr/internal/metrics"
	"metadarr/internal/models"
)

// Movie is a TMDb movie entry
type Movie struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	ReleaseDate string  `json:"release_date"`
	Overview    string  `json:"overview"`
	PosterPath  string  `json:"poster_path"`
	VoteAverage float64 `json:"vote_average"`
}

// TV is a TMDb series entry
type TV struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	FirstAirDate string  `json:"first_air_date"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	VoteAverage  float64 `json:"vote_average"`
}

// Episode is a TMDb episode entry
type Episode struct {
	ID            int     `json:"id"`
	Name          string  `json:"name"`
	AirDate       string  `json:"air_date"`
	SeasonNumber  int     `json:"season_number"`
	EpisodeNumber int     `json:"episode_number"`
	Overview      string  `json:"overview"`
	StillPath     string  `json:"still_path"`
	VoteAverage   float64 `json:"vote_average"`
	ShowID        int     `json:"show_id"`
}

// FindResult groups the matches of an external-ID find call
type FindResult struct {
	MovieResults     []Movie   `json:"movie_results"`
	TVResults        []TV      `json:"tv_results"`
	TVEpisodeResults []Episode `json:"tv_episode_results"`
}

// TVDetails is a full TMDb series record
type TVDetails struct {
	ID              int     `json:"id"`
	Name            string  `json:"name"`
	FirstAirDate    string  `json:"first_air_date"`
	Overview        string  `json:"overview"`
	PosterPath      string  `json:"poster_path"`
	VoteAverage     float64 `json:"vote_average"`
	NumberOfSeasons int     `json:"number_of_seasons"`
	Genres          []struct {
		Name string `json:"name"`
	} `json:"genres"`
}

// Season is a TMDb season with its episode list
type Season struct {
	ID           int       `json:"id"`
	SeasonNumber int       `json:"season_number"`
	Episodes     []Episode `json:"episodes"`
}

// FindByIMDB resolves an IMDb ID to TMDb entities
func (c *Client) FindByIMDB(ctx context.Context, imdbID string) (*FindResult, error) {
	params := url.Values{}
	params.Set("external_source", "imdb_id")

	var result FindResult
	err := c.doRequest(ctx, "/find/"+imdbID, params, &result)
	if err != nil {
		if errors.Is(err, models.ErrMediaNotFound) {
			metrics.RecordProviderCall("tmdb", metrics.OutcomeNotFound)
		} else {
			metrics.RecordProviderCall("tmdb", metrics.OutcomeUnavailable)
		}
		return nil, err
	}

	if len(result.MovieResults) == 0 && len(result.TVResults) == 0 && len(result.TVEpisodeResults) == 0 {
		metrics.RecordProviderCall("tmdb", metrics.OutcomeNotFound)
		return nil, models.ErrMediaNotFound
	}

	metrics.RecordProviderCall("tmdb", metrics.OutcomeSuccess)
	return &result, nil
}

// GetTV retrieves a full series record, including its season count
func (c *Client) GetTV(ctx context.Context, tmdbID int) (*TVDetails, error) {
	var result TVDetails
	err := c.doRequest(ctx, fmt.Sprintf("/tv/%d", tmdbID), nil, &result)
	if err != nil {
		if errors.Is(err, models.ErrMediaNotFound) {
			metrics.RecordProviderCall("tmdb", metrics.OutcomeNotFound)
		} else {
			metrics.RecordProviderCall("tmdb", metrics.OutcomeUnavailable)
		}
		return nil, err
	}

	metrics.RecordProviderCall("tmdb", metrics.OutcomeSuccess)
	return &result, nil
}

// GetSeason retrieves a season with all of its episodes
func (c *Client) GetSeason(ctx context.Context, tmdbID, season int) (*Season, error) {
	var result Season
	err := c.doRequest(ctx, fmt.Sprintf("/tv/%d/season/%d", tmdbID, season), nil, &result)
	if err != nil {
		if errors.Is(err, models.ErrMediaNotFound) {
			metrics.RecordProviderCall("tmdb", metrics.OutcomeNotFound)
		} else {
			metrics.RecordProviderCall("tmdb", metrics.OutcomeUnavailable)
		}
		return nil, err
	}

	metrics.RecordProviderCall("tmdb", metrics.OutcomeSuccess)
	return &result, nil
}

// GetEpisode retrieves a single episode of a series
func (c *Client) GetEpisode(ctx context.Context, tmdbID, season, episode int) (*Episode, error) {
	var result Episode
	err := c.doRequest(ctx, fmt.Sprintf("/tv/%d/season/%d/episode/%d", tmdbID, season, episode), nil, &result)
	if err != nil {
		if errors.Is(err, models.ErrMediaNotFound) {
			metrics.RecordProviderCall("tmdb", metrics.OutcomeNotFound)
		} else {
			metrics.RecordProviderCall("tmdb", metrics.OutcomeUnavailable)
		}
		return nil, err
	}

	metrics.RecordProviderCall("tmdb", metrics.OutcomeSuccess)
	return &result, nil
}
