package controllers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"metadarr/internal/models"
	"metadarr/internal/services/tmdb"
)

// BackfillController consumes queued backfill jobs: for each series it walks
// every season, persisting a media record per episode. Unlike the
// per-request resolver, this is a background job and retries transient
// provider failures with exponential backoff.
type BackfillController struct {
	db       *models.Database
	movieDB  MovieDBProvider
	enricher EnrichmentProvider
	logger   *logrus.Logger
}

// NewBackfillController creates a new backfill controller
func NewBackfillController(db *models.Database, movieDB MovieDBProvider, enricher EnrichmentProvider, logger *logrus.Logger) *BackfillController {
	return &BackfillController{
		db:       db,
		movieDB:  movieDB,
		enricher: enricher,
		logger:   logger,
	}
}

// Run processes all queued backfill jobs. Jobs that fail stay queued for the
// next run.
func (c *BackfillController) Run(ctx context.Context) error {
	jobs, err := c.db.ListBackfillJobs()
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		c.logger.Debug("No backfill jobs queued")
		return nil
	}

	c.logger.WithField("count", len(jobs)).Info("Processing backfill jobs")

	for _, job := range jobs {
		if err := c.processJob(ctx, job); err != nil {
			c.logger.WithError(err).WithField("series_imdb_id", job.SeriesImdbID).Warn("Backfill job failed, leaving queued")
			continue
		}
		if err := c.db.DeleteBackfillJob(job.ID); err != nil {
			c.logger.WithError(err).Error("Failed to delete consumed backfill job")
		}
	}

	return nil
}

// processJob enumerates all episodes of one series and persists them
func (c *BackfillController) processJob(ctx context.Context, job *models.BackfillJob) error {
	tmdbID := job.SeriesTmdbID
	if tmdbID == 0 {
		found, err := c.withRetry(ctx, func() (interface{}, error) {
			return c.enricher.FindByIMDB(ctx, job.SeriesImdbID)
		})
		if err != nil {
			if errors.Is(err, models.ErrMediaNotFound) {
				c.logger.WithField("series_imdb_id", job.SeriesImdbID).Warn("Series has no TMDb entry, dropping job")
				return nil
			}
			return err
		}
		result := found.(*tmdb.FindResult)
		if len(result.TVResults) == 0 {
			c.logger.WithField("series_imdb_id", job.SeriesImdbID).Warn("Series has no TMDb entry, dropping job")
			return nil
		}
		tmdbID = result.TVResults[0].ID
	}

	details, err := c.withRetry(ctx, func() (interface{}, error) {
		return c.enricher.GetTV(ctx, tmdbID)
	})
	if err != nil {
		return err
	}
	tv := details.(*tmdb.TVDetails)

	c.logger.WithFields(logrus.Fields{
		"series_imdb_id": job.SeriesImdbID,
		"seasons":        tv.NumberOfSeasons,
	}).Info("Backfilling series episodes")

	for season := 1; season <= tv.NumberOfSeasons; season++ {
		if err := c.backfillSeason(ctx, job.SeriesImdbID, tmdbID, season); err != nil {
			return err
		}
	}

	return nil
}

// backfillSeason persists one media record per episode of a season. Episodes
// already stored, and episodes OMDb cannot identify (no IMDb ID of their
// own), are skipped.
func (c *BackfillController) backfillSeason(ctx context.Context, seriesImdbID string, tmdbID, season int) error {
	result, err := c.withRetry(ctx, func() (interface{}, error) {
		return c.enricher.GetSeason(ctx, tmdbID, season)
	})
	if err != nil {
		if errors.Is(err, models.ErrMediaNotFound) {
			return nil // specials gap, nothing to backfill
		}
		return err
	}
	seasonInfo := result.(*tmdb.Season)

	seasonStr := strconv.Itoa(season)
	for i := range seasonInfo.Episodes {
		episode := &seasonInfo.Episodes[i]
		episodeStr := strconv.Itoa(episode.EpisodeNumber)

		if _, err := c.db.FindEpisodeBySeries(seriesImdbID, seasonStr, episodeStr); err == nil {
			continue
		}

		record, err := c.movieDB.GetEpisode(ctx, seriesImdbID, seasonStr, episodeStr)
		if err != nil {
			if errors.Is(err, models.ErrMediaNotFound) {
				continue
			}
			return err
		}

		media := mergeMedia(normalizeOMDB(record), normalizeTMDBEpisode(episode))
		media.MediaType = models.MediaTypeEpisode
		media.Season = seasonStr
		media.Episode = episodeStr
		media.SeriesImdbID = seriesImdbID

		if media.ImdbID == "" {
			continue
		}

		if err := c.db.CreateMedia(media); err != nil && !errors.Is(err, models.ErrDuplicateKey) {
			return err
		}
	}

	return nil
}

// withRetry retries transient provider failures with exponential backoff.
// Not-found answers and context cancellation are permanent.
func (c *BackfillController) withRetry(ctx context.Context, operation func() (interface{}, error)) (interface{}, error) {
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = 2 * time.Minute

	var result interface{}
	err := backoff.Retry(func() error {
		var opErr error
		result, opErr = operation()
		if opErr == nil {
			return nil
		}
		if errors.Is(opErr, models.ErrProviderUnavailable) {
			return opErr // retryable
		}
		return backoff.Permanent(opErr)
	}, backoff.WithContext(policy, ctx))

	return result, err
}
