package controllers

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"metadarr/internal/metrics"
	"metadarr/internal/models"
	"metadarr/internal/services/omdb"
	"metadarr/internal/services/osdb"
	"metadarr/internal/services/tmdb"
	"metadarr/internal/utils"
)

// HashProvider identifies media by content hash
type HashProvider interface {
	Identify(ctx context.Context, hash string, size int64) (*osdb.Identification, error)
}

// MovieDBProvider serves by-ID lookups, title searches and episode lookups
type MovieDBProvider interface {
	GetByID(ctx context.Context, imdbID string) (*omdb.Record, error)
	SearchByTitle(ctx context.Context, title, year string) ([]omdb.Candidate, error)
	GetEpisode(ctx context.Context, seriesImdbID, season, episode string) (*omdb.Record, error)
}

// EnrichmentProvider supplies TMDb IDs, episode enumeration and extra fields
type EnrichmentProvider interface {
	FindByIMDB(ctx context.Context, imdbID string) (*tmdb.FindResult, error)
	GetTV(ctx context.Context, tmdbID int) (*tmdb.TVDetails, error)
	GetSeason(ctx context.Context, tmdbID, season int) (*tmdb.Season, error)
	GetEpisode(ctx context.Context, tmdbID, season, episode int) (*tmdb.Episode, error)
}

var (
	imdbIDRegex   = regexp.MustCompile(`^tt\d{7,8}$`)
	osdbHashRegex = regexp.MustCompile(`^[0-9a-fA-F]{16}$`)
)

// Resolver orchestrates a lookup: local store, then failed-lookup cache,
// then providers in priority order, then merge and persist.
type Resolver struct {
	db           *models.Database
	hashProvider HashProvider
	movieDB      MovieDBProvider
	enricher     EnrichmentProvider
	logger       *logrus.Logger
}

// NewResolver creates a new lookup resolver
func NewResolver(db *models.Database, hashProvider HashProvider, movieDB MovieDBProvider, enricher EnrichmentProvider, logger *logrus.Logger) *Resolver {
	return &Resolver{
		db:           db,
		hashProvider: hashProvider,
		movieDB:      movieDB,
		enricher:     enricher,
		logger:       logger,
	}
}

// Hints carries caller-supplied disambiguators validated against the
// selected provider result.
type Hints struct {
	Year    string
	Season  string
	Episode string
}

// ResolveByHash resolves a lookup by content hash and file size.
//
// A validation mismatch against the hints is recorded as a failed lookup and
// surfaces as not-found without trying a title fallback: a concrete hash
// match that committed to the wrong answer must not be conflated with a
// weaker textual guess.
func (r *Resolver) ResolveByHash(ctx context.Context, hash string, size int64, hints *Hints) (*models.Media, error) {
	hash = strings.ToLower(strings.TrimSpace(hash))
	if !osdbHashRegex.MatchString(hash) {
		return nil, models.ErrValidation
	}
	if size <= 0 {
		return nil, models.ErrValidation
	}

	// CheckStore
	if media, err := r.db.GetMediaByHash(hash); err == nil {
		metrics.RecordLookup("hash", "store_hit")
		return respondMedia(media), nil
	} else if !errors.Is(err, models.ErrMediaNotFound) {
		return nil, err
	}

	// CheckFailedCache
	skip, err := r.shouldSkip(hash, "", "", "", "")
	if err != nil {
		return nil, err
	}
	if skip {
		metrics.RecordLookup("hash", "failed_cache_hit")
		return nil, models.ErrMediaNotFound
	}

	// QueryProviders: the hash identification is the least ambiguous source
	// and always goes first.
	ident, err := r.hashProvider.Identify(ctx, hash, size)
	if err != nil {
		return nil, err
	}
	if !ident.Found {
		r.recordFailure(hash, "", "", "", "", false)
		metrics.RecordLookup("hash", "not_found")
		return nil, models.ErrMediaNotFound
	}

	// An IMDb ID discovered mid-resolution may already be known to the store
	if ident.ImdbID != "" {
		if existing, err := r.db.GetMediaByIMDBID(ident.ImdbID); err == nil {
			if existing.OsdbHash == "" {
				existing.OsdbHash = hash
				if err := r.db.UpdateMedia(existing); err != nil {
					r.logger.WithError(err).Warn("Failed to record hash on existing media")
				}
			}
			metrics.RecordLookup("hash", "store_hit")
			return respondMedia(existing), nil
		} else if !errors.Is(err, models.ErrMediaNotFound) {
			return nil, err
		}
	}

	identified := normalizeOSDB(ident)

	if !r.validateHints(identified, hints) {
		r.logger.WithFields(logrus.Fields{
			"hash":  hash,
			"title": identified.Title,
			"year":  identified.Year,
		}).Info("Hash identification failed hint validation")
		r.recordFailure(hash, "", "", "", "", true)
		metrics.RecordLookup("hash", "validation_failed")
		return nil, models.ErrMediaNotFound
	}

	// Merge: enrichment sources are listed after the identification so their
	// non-empty fields win.
	partials := []*models.Media{identified}
	if ident.ImdbID != "" {
		partials = append(partials, r.enrichByID(ctx, ident.ImdbID, identified.MediaType)...)
	}
	media := mergeMedia(partials...)
	media.OsdbHash = hash

	// An identification without an IMDb ID cannot be persisted; record the
	// miss so repeat queries do not re-drive the provider chain.
	if media.ImdbID == "" {
		r.recordFailure(hash, "", "", "", "", false)
		metrics.RecordLookup("hash", "not_found")
		return nil, models.ErrMediaNotFound
	}

	if media.MediaType == models.MediaTypeEpisode && media.SeriesImdbID != "" {
		r.ensureSeries(ctx, media.SeriesImdbID)
	}

	// Persist
	if err := r.persist(media); err != nil {
		return nil, err
	}

	metrics.RecordLookup("hash", "resolved")
	return respondMedia(media), nil
}

// ResolveByTitle resolves a lookup by free-text title with optional year,
// season and episode discriminators.
func (r *Resolver) ResolveByTitle(ctx context.Context, title, year, season, episode string) (*models.Media, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, models.ErrValidation
	}
	if episode != "" && season == "" {
		return nil, models.ErrValidation
	}
	if season != "" && episode == "" {
		return nil, models.ErrValidation
	}

	searchEpisode, canonicalEpisode, err := utils.ParseEpisode(episode)
	if err != nil {
		r.logger.WithError(err).Debug("Rejecting episode identifier")
		return nil, models.ErrValidation
	}

	year = utils.NormalizeNumber(year)
	season = utils.NormalizeNumber(season)
	searchEpisode = utils.NormalizeNumber(searchEpisode)

	// CheckStore: title lookups match against the SearchMatches set, not the
	// primary title field.
	if media, err := r.db.FindMediaBySearch(title, year, season, canonicalEpisode); err == nil {
		metrics.RecordLookup("title", "store_hit")
		return respondMedia(media), nil
	} else if !errors.Is(err, models.ErrMediaNotFound) {
		return nil, err
	}

	// CheckFailedCache
	skip, err := r.shouldSkip("", title, year, season, canonicalEpisode)
	if err != nil {
		return nil, err
	}
	if skip {
		metrics.RecordLookup("title", "failed_cache_hit")
		return nil, models.ErrMediaNotFound
	}

	if season != "" {
		return r.resolveEpisodeByTitle(ctx, title, year, season, searchEpisode, canonicalEpisode)
	}
	return r.resolveMovieByTitle(ctx, title, year)
}

// resolveMovieByTitle runs the title-search provider path for movies
func (r *Resolver) resolveMovieByTitle(ctx context.Context, title, year string) (*models.Media, error) {
	candidate, err := r.searchBestCandidate(ctx, title, year, "movie")
	if err != nil {
		return nil, err
	}
	if candidate == nil {
		r.recordFailure("", title, year, "", "", false)
		metrics.RecordLookup("title", "not_found")
		return nil, models.ErrMediaNotFound
	}

	// The search discovered an IMDb ID; re-check the store before further
	// provider calls so two textual queries converging on a known title
	// short-circuit.
	if existing, err := r.db.GetMediaByIMDBID(candidate.ImdbID); err == nil {
		if err := r.db.AppendSearchMatch(existing.ID, title); err != nil {
			r.logger.WithError(err).Warn("Failed to append search match")
		}
		metrics.RecordLookup("title", "store_hit")
		return respondMedia(existing), nil
	} else if !errors.Is(err, models.ErrMediaNotFound) {
		return nil, err
	}

	record, err := r.movieDB.GetByID(ctx, candidate.ImdbID)
	if err != nil {
		if errors.Is(err, models.ErrMediaNotFound) {
			r.recordFailure("", title, year, "", "", false)
			metrics.RecordLookup("title", "not_found")
			return nil, models.ErrMediaNotFound
		}
		return nil, err
	}

	normalized := normalizeOMDB(record)
	if year != "" && normalized.Year != "" && normalized.Year != year {
		r.recordFailure("", title, year, "", "", true)
		metrics.RecordLookup("title", "validation_failed")
		return nil, models.ErrMediaNotFound
	}

	partials := []*models.Media{normalized}
	if tmdbPartial := r.enrichTmdb(ctx, candidate.ImdbID, models.MediaTypeMovie); tmdbPartial != nil {
		partials = append(partials, tmdbPartial)
	}
	media := mergeMedia(partials...)
	media.SearchMatches = unionMatch(media.SearchMatches, title)

	if media.ImdbID == "" {
		r.recordFailure("", title, year, "", "", false)
		metrics.RecordLookup("title", "not_found")
		return nil, models.ErrMediaNotFound
	}

	if err := r.persist(media); err != nil {
		return nil, err
	}

	metrics.RecordLookup("title", "resolved")
	return respondMedia(media), nil
}

// resolveEpisodeByTitle resolves a series title plus season/episode to a
// single episode record. The canonical episode string (possibly a range like
// "14-15") is what gets persisted; providers are queried with the first
// number of the range.
func (r *Resolver) resolveEpisodeByTitle(ctx context.Context, title, year, season, searchEpisode, canonicalEpisode string) (*models.Media, error) {
	candidate, err := r.searchBestCandidate(ctx, title, "", "series")
	if err != nil {
		return nil, err
	}
	if candidate == nil {
		r.recordFailure("", title, year, season, canonicalEpisode, false)
		metrics.RecordLookup("title", "not_found")
		return nil, models.ErrMediaNotFound
	}

	seriesImdbID := candidate.ImdbID

	// Mid-resolution store re-check against the discovered series
	if existing, err := r.db.FindEpisodeBySeries(seriesImdbID, season, canonicalEpisode); err == nil {
		if err := r.db.AppendSearchMatch(existing.ID, title); err != nil {
			r.logger.WithError(err).Warn("Failed to append search match")
		}
		metrics.RecordLookup("title", "store_hit")
		return respondMedia(existing), nil
	} else if !errors.Is(err, models.ErrMediaNotFound) {
		return nil, err
	}

	record, err := r.movieDB.GetEpisode(ctx, seriesImdbID, season, searchEpisode)
	if err != nil {
		if errors.Is(err, models.ErrMediaNotFound) {
			r.recordFailure("", title, year, season, canonicalEpisode, false)
			metrics.RecordLookup("title", "not_found")
			return nil, models.ErrMediaNotFound
		}
		return nil, err
	}

	normalized := normalizeOMDB(record)
	normalized.SeriesImdbID = seriesImdbID

	// Season/episode compare as normalized strings to tolerate provider
	// leading-zero variance.
	if utils.NormalizeNumber(normalized.Season) != season ||
		utils.NormalizeNumber(normalized.Episode) != searchEpisode {
		r.recordFailure("", title, year, season, canonicalEpisode, true)
		metrics.RecordLookup("title", "validation_failed")
		return nil, models.ErrMediaNotFound
	}

	partials := []*models.Media{normalized}

	seriesTmdbID := r.findSeriesTmdbID(ctx, seriesImdbID)

	// A year hint on an episode lookup validates against the year of the
	// first episode in the season, not the episode's own air date.
	if year != "" && seriesTmdbID != 0 {
		ok, err := r.validateSeasonYear(ctx, seriesTmdbID, season, year)
		if err == nil && !ok {
			r.recordFailure("", title, year, season, canonicalEpisode, true)
			metrics.RecordLookup("title", "validation_failed")
			return nil, models.ErrMediaNotFound
		}
	}

	if seriesTmdbID != 0 {
		if tmdbEpisode := r.fetchTmdbEpisode(ctx, seriesTmdbID, season, searchEpisode); tmdbEpisode != nil {
			partials = append(partials, tmdbEpisode)
		}
	}

	media := mergeMedia(partials...)
	media.Season = season
	media.Episode = canonicalEpisode
	media.SeriesImdbID = seriesImdbID
	media.SearchMatches = unionMatch(media.SearchMatches, title)

	if media.ImdbID == "" {
		r.recordFailure("", title, year, season, canonicalEpisode, false)
		metrics.RecordLookup("title", "not_found")
		return nil, models.ErrMediaNotFound
	}

	r.ensureSeries(ctx, seriesImdbID)

	if err := r.persist(media); err != nil {
		return nil, err
	}

	metrics.RecordLookup("title", "resolved")
	return respondMedia(media), nil
}

// ResolveByID resolves a lookup by IMDb ID. The result is either a
// *models.Media or a *models.Series depending on what the ID names.
func (r *Resolver) ResolveByID(ctx context.Context, imdbID string) (interface{}, error) {
	imdbID = strings.TrimSpace(imdbID)
	if !imdbIDRegex.MatchString(imdbID) {
		return nil, models.ErrValidation
	}

	// CheckStore
	if media, err := r.db.GetMediaByIMDBID(imdbID); err == nil {
		metrics.RecordLookup("id", "store_hit")
		return respondMedia(media), nil
	} else if !errors.Is(err, models.ErrMediaNotFound) {
		return nil, err
	}
	if series, err := r.db.GetSeriesByIMDBID(imdbID); err == nil {
		metrics.RecordLookup("id", "store_hit")
		return respondSeries(series), nil
	} else if !errors.Is(err, models.ErrMediaNotFound) {
		return nil, err
	}

	// No failed-lookup cache for bare ID lookups: the cache key requires a
	// hash or a title.
	record, err := r.movieDB.GetByID(ctx, imdbID)
	if err != nil {
		if errors.Is(err, models.ErrMediaNotFound) {
			metrics.RecordLookup("id", "not_found")
		}
		return nil, err
	}

	if record.Type == "series" {
		series := normalizeOMDBSeries(record)
		r.enrichSeries(ctx, series)
		if err := r.db.CreateSeries(series); err != nil && !errors.Is(err, models.ErrDuplicateKey) {
			return nil, err
		}
		metrics.RecordLookup("id", "resolved")
		return respondSeries(series), nil
	}

	normalized := normalizeOMDB(record)
	partials := []*models.Media{normalized}
	if tmdbPartial := r.enrichTmdb(ctx, imdbID, normalized.MediaType); tmdbPartial != nil {
		partials = append(partials, tmdbPartial)
	}
	media := mergeMedia(partials...)

	if media.MediaType == models.MediaTypeEpisode && media.SeriesImdbID != "" {
		r.ensureSeries(ctx, media.SeriesImdbID)
	}

	if err := r.persist(media); err != nil {
		return nil, err
	}

	metrics.RecordLookup("id", "resolved")
	return respondMedia(media), nil
}

// searchBestCandidate runs the title search and picks the best candidate of
// the wanted type with the Jaro-Winkler matcher. Returns nil when the
// provider has no usable candidate.
func (r *Resolver) searchBestCandidate(ctx context.Context, title, year, wantType string) (*omdb.Candidate, error) {
	candidates, err := r.movieDB.SearchByTitle(ctx, title, year)
	if err != nil {
		return nil, err
	}

	// Candidate order is preserved: the matcher breaks ties by first
	// occurrence.
	var filtered []omdb.Candidate
	for _, candidate := range candidates {
		if candidate.Type == wantType && candidate.ImdbID != "" {
			filtered = append(filtered, candidate)
		}
	}
	if len(filtered) == 0 {
		return nil, nil
	}

	names := make([]string, len(filtered))
	for i, candidate := range filtered {
		names[i] = candidate.Title
	}

	index, ok := utils.BestMatch(title, names)
	if !ok {
		return nil, nil
	}

	r.logger.WithFields(logrus.Fields{
		"query":    title,
		"selected": filtered[index].Title,
		"imdb_id":  filtered[index].ImdbID,
	}).Debug("Selected best title match")

	return &filtered[index], nil
}

// validateHints checks a provider result against caller-supplied
// disambiguators. Comparison is on normalized strings, never numerics, to
// tolerate leading-zero variance.
func (r *Resolver) validateHints(media *models.Media, hints *Hints) bool {
	if hints == nil {
		return true
	}
	if hints.Year != "" && media.Year != "" &&
		utils.NormalizeNumber(media.Year) != utils.NormalizeNumber(hints.Year) {
		return false
	}
	if hints.Season != "" && hints.Episode != "" {
		if utils.NormalizeNumber(media.Season) != utils.NormalizeNumber(hints.Season) {
			return false
		}
		if utils.NormalizeNumber(media.Episode) != utils.NormalizeNumber(hints.Episode) {
			return false
		}
	}
	return true
}

// validateSeasonYear compares the caller's year hint to the air year of the
// first episode in the season.
func (r *Resolver) validateSeasonYear(ctx context.Context, seriesTmdbID int, season, year string) (bool, error) {
	seasonNumber, err := strconv.Atoi(season)
	if err != nil {
		return true, nil
	}

	seasonInfo, err := r.enricher.GetSeason(ctx, seriesTmdbID, seasonNumber)
	if err != nil {
		r.logger.WithError(err).Debug("Season lookup for year validation failed")
		return true, err
	}
	if len(seasonInfo.Episodes) == 0 {
		return true, nil
	}

	firstAirYear := yearOf(seasonInfo.Episodes[0].AirDate)
	if firstAirYear == "" {
		return true, nil
	}
	return firstAirYear == year, nil
}

// enrichByID fetches enrichment partials for an already-identified IMDb ID.
// Enrichment failures are logged and skipped rather than failing a request
// that already has an identification.
func (r *Resolver) enrichByID(ctx context.Context, imdbID string, mediaType models.MediaType) []*models.Media {
	var partials []*models.Media

	record, err := r.movieDB.GetByID(ctx, imdbID)
	if err != nil {
		r.logger.WithError(err).WithField("imdb_id", imdbID).Debug("OMDb enrichment skipped")
	} else {
		partials = append(partials, normalizeOMDB(record))
	}

	if tmdbPartial := r.enrichTmdb(ctx, imdbID, mediaType); tmdbPartial != nil {
		partials = append(partials, tmdbPartial)
	}

	return partials
}

// enrichTmdb fetches the TMDb enrichment partial for an IMDb ID, or nil
func (r *Resolver) enrichTmdb(ctx context.Context, imdbID string, mediaType models.MediaType) *models.Media {
	found, err := r.enricher.FindByIMDB(ctx, imdbID)
	if err != nil {
		r.logger.WithError(err).WithField("imdb_id", imdbID).Debug("TMDb enrichment skipped")
		return nil
	}

	switch {
	case mediaType == models.MediaTypeEpisode && len(found.TVEpisodeResults) > 0:
		episode := normalizeTMDBEpisode(&found.TVEpisodeResults[0])
		episode.TmdbID = found.TVEpisodeResults[0].ID
		return episode
	case len(found.MovieResults) > 0:
		return normalizeTMDBMovie(&found.MovieResults[0])
	}
	return nil
}

// findSeriesTmdbID resolves a series IMDb ID to its TMDb ID, or 0
func (r *Resolver) findSeriesTmdbID(ctx context.Context, seriesImdbID string) int {
	found, err := r.enricher.FindByIMDB(ctx, seriesImdbID)
	if err != nil || len(found.TVResults) == 0 {
		return 0
	}
	return found.TVResults[0].ID
}

// fetchTmdbEpisode fetches a TMDb episode partial, or nil on any failure
func (r *Resolver) fetchTmdbEpisode(ctx context.Context, seriesTmdbID int, season, episode string) *models.Media {
	seasonNumber, err := strconv.Atoi(season)
	if err != nil {
		return nil
	}
	episodeNumber, err := strconv.Atoi(episode)
	if err != nil {
		return nil
	}

	tmdbEpisode, err := r.enricher.GetEpisode(ctx, seriesTmdbID, seasonNumber, episodeNumber)
	if err != nil {
		r.logger.WithError(err).Debug("TMDb episode enrichment skipped")
		return nil
	}
	return normalizeTMDBEpisode(tmdbEpisode)
}

// ensureSeries makes sure a series record exists for an episode's series and
// queues a backfill job so the remaining episodes get enumerated.
func (r *Resolver) ensureSeries(ctx context.Context, seriesImdbID string) {
	tmdbID := 0
	if _, err := r.db.GetSeriesByIMDBID(seriesImdbID); errors.Is(err, models.ErrMediaNotFound) {
		record, err := r.movieDB.GetByID(ctx, seriesImdbID)
		if err != nil {
			r.logger.WithError(err).WithField("series_imdb_id", seriesImdbID).Warn("Failed to fetch series record")
			return
		}
		series := normalizeOMDBSeries(record)
		r.enrichSeries(ctx, series)
		tmdbID = series.TmdbID
		if err := r.db.CreateSeries(series); err != nil && !errors.Is(err, models.ErrDuplicateKey) {
			r.logger.WithError(err).Warn("Failed to create series record")
			return
		}
	} else if err == nil {
		return // already represented, backfill job queued on first sight
	}

	if tmdbID == 0 {
		tmdbID = r.findSeriesTmdbID(ctx, seriesImdbID)
	}
	if err := r.db.CreateBackfillJob(seriesImdbID, tmdbID); err != nil {
		r.logger.WithError(err).Warn("Failed to queue backfill job")
	}
}

// enrichSeries adds TMDb fields to a series record in place
func (r *Resolver) enrichSeries(ctx context.Context, series *models.Series) {
	found, err := r.enricher.FindByIMDB(ctx, series.ImdbID)
	if err != nil || len(found.TVResults) == 0 {
		return
	}

	tv := found.TVResults[0]
	series.TmdbID = tv.ID
	if series.Year == "" {
		series.Year = yearOf(tv.FirstAirDate)
	}
	if series.Plot == "" {
		series.Plot = tv.Overview
	}
	if series.Poster == "" {
		series.Poster = tmdb.PosterURL(tv.PosterPath)
	}
}

// persist stores a newly resolved record. Losing a duplicate-key race to a
// concurrent identical request is treated as a failed lookup for this
// request, not a server error.
func (r *Resolver) persist(media *models.Media) error {
	if media.ImdbID == "" {
		r.logger.Warn("Refusing to persist record without IMDb ID")
		return models.ErrMediaNotFound
	}

	if err := r.db.CreateMedia(media); err != nil {
		if errors.Is(err, models.ErrDuplicateKey) {
			r.logger.WithField("imdb_id", media.ImdbID).Info("Lost creation race for media record")
			return models.ErrMediaNotFound
		}
		return err
	}
	return nil
}

// respondMedia strips internal-only fields from a record before returning it
func respondMedia(media *models.Media) *models.Media {
	response := *media
	response.SearchMatches = nil
	return &response
}

func respondSeries(series *models.Series) *models.Series {
	response := *series
	response.SearchMatches = nil
	return &response
}
