package osdb

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/sirupsen/logrus"

	"metadarr/internal/metrics"
)

// Identification is the normalized result of a hash identification
type Identification struct {
	Found bool

	Kind    string // "movie" or "episode"
	ImdbID  string
	Title   string
	Year    string
	Season  string
	Episode string

	SeriesImdbID string
	SeriesTitle  string
}

// subtitlesResponse mirrors the relevant parts of the subtitle search payload
type subtitlesResponse struct {
	TotalCount int `json:"total_count"`
	Data       []struct {
		Attributes struct {
			MovieHashMatch bool `json:"moviehash_match"`
			FeatureDetails struct {
				FeatureType   string `json:"feature_type"`
				Title         string `json:"title"`
				ParentTitle   string `json:"parent_title"`
				Year          int    `json:"year"`
				SeasonNumber  int    `json:"season_number"`
				EpisodeNumber int    `json:"episode_number"`
				ImdbID        int    `json:"imdb_id"`
				ParentImdbID  int    `json:"parent_imdb_id"`
			} `json:"feature_details"`
		} `json:"attributes"`
	} `json:"data"`
}

// Identify looks up metadata by content hash and file size. A miss is
// reported via Found=false, not an error; errors mean the provider could not
// be reached or answered with garbage.
func (c *Client) Identify(ctx context.Context, hash string, size int64) (*Identification, error) {
	if err := c.ensureSession(ctx); err != nil {
		c.logger.WithError(err).Warn("Proceeding without OpenSubtitles session")
	}

	params := url.Values{}
	params.Set("moviehash", hash)
	params.Set("moviebytesize", strconv.FormatInt(size, 10))

	c.logger.WithFields(logrus.Fields{
		"hash": hash,
		"size": size,
	}).Debug("Identifying media by hash")

	var response subtitlesResponse
	if err := c.doRequest(ctx, "GET", "/subtitles?"+params.Encode(), nil, &response); err != nil {
		if errors.Is(err, context.Canceled) {
			metrics.RecordProviderCall("osdb", metrics.OutcomeError)
		} else {
			metrics.RecordProviderCall("osdb", metrics.OutcomeUnavailable)
		}
		return nil, err
	}

	for _, entry := range response.Data {
		if !entry.Attributes.MovieHashMatch {
			continue
		}

		details := entry.Attributes.FeatureDetails
		ident := &Identification{
			Found:  true,
			ImdbID: formatImdbID(details.ImdbID),
			Title:  details.Title,
		}
		if details.Year > 0 {
			ident.Year = strconv.Itoa(details.Year)
		}

		if details.FeatureType == "Episode" {
			ident.Kind = "episode"
			ident.SeriesTitle = details.ParentTitle
			ident.SeriesImdbID = formatImdbID(details.ParentImdbID)
			if details.SeasonNumber > 0 {
				ident.Season = strconv.Itoa(details.SeasonNumber)
			}
			if details.EpisodeNumber > 0 {
				ident.Episode = strconv.Itoa(details.EpisodeNumber)
			}
		} else {
			ident.Kind = "movie"
		}

		metrics.RecordProviderCall("osdb", metrics.OutcomeSuccess)
		return ident, nil
	}

	metrics.RecordProviderCall("osdb", metrics.OutcomeNotFound)
	return &Identification{Found: false}, nil
}

func formatImdbID(id int) string {
	if id <= 0 {
		return ""
	}
	return fmt.Sprintf("tt%07d", id)
}
