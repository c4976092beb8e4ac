package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/timshannon/bolthold"
	"go.etcd.io/bbolt"
)

// Database wraps the bolthold store
type Database struct {
	store *bolthold.Store
}

// NewDatabase creates a new database connection
func NewDatabase(path string) (*Database, error) {
	store, err := bolthold.Open(path, 0600, &bolthold.Options{
		Options: &bbolt.Options{
			Timeout: 1 * time.Second,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Database{store: store}, nil
}

// Close closes the database connection
func (db *Database) Close() error {
	return db.store.Close()
}

// Media operations

// CreateMedia inserts a new media record. A unique-constraint violation on
// the IMDb ID is reported as ErrDuplicateKey so the resolver can treat a
// concurrent identical request's win as a failed lookup.
func (db *Database) CreateMedia(media *Media) error {
	media.CreatedAt = time.Now()
	media.UpdatedAt = time.Now()
	err := db.store.Insert(bolthold.NextSequence(), media)
	if errors.Is(err, bolthold.ErrUniqueExists) {
		return ErrDuplicateKey
	}
	return err
}

// UpdateMedia updates an existing media record
func (db *Database) UpdateMedia(media *Media) error {
	media.UpdatedAt = time.Now()
	return db.store.Update(media.ID, media)
}

// GetMediaByIMDBID retrieves a media record by IMDb ID
func (db *Database) GetMediaByIMDBID(imdbID string) (*Media, error) {
	var media Media
	err := db.store.FindOne(&media, bolthold.Where("ImdbID").Eq(imdbID))
	if errors.Is(err, bolthold.ErrNotFound) {
		return nil, ErrMediaNotFound
	}
	if err != nil {
		return nil, err
	}
	return &media, nil
}

// GetMediaByHash retrieves a media record by its content hash
func (db *Database) GetMediaByHash(hash string) (*Media, error) {
	var media Media
	err := db.store.FindOne(&media, bolthold.Where("OsdbHash").Eq(hash))
	if errors.Is(err, bolthold.ErrNotFound) {
		return nil, ErrMediaNotFound
	}
	if err != nil {
		return nil, err
	}
	return &media, nil
}

// FindMediaBySearch retrieves a media record whose SearchMatches set contains
// the given match string, filtered by the optional year/season/episode
// discriminators. Season and episode compare as strings so that a repeat
// lookup with a range episode like "14-15" hits the same record.
func (db *Database) FindMediaBySearch(match, year, season, episode string) (*Media, error) {
	var medias []*Media
	err := db.store.Find(&medias, bolthold.Where("SearchMatches").Contains(match))
	if err != nil {
		return nil, err
	}

	for _, media := range medias {
		if year != "" && media.Year != "" && media.Year != year {
			continue
		}
		if season != media.Season {
			continue
		}
		if episode != media.Episode {
			continue
		}
		return media, nil
	}

	return nil, ErrMediaNotFound
}

// FindEpisodeBySeries retrieves an episode of a series by its season and
// episode identifiers, compared as strings.
func (db *Database) FindEpisodeBySeries(seriesImdbID, season, episode string) (*Media, error) {
	var medias []*Media
	err := db.store.Find(&medias, bolthold.Where("SeriesImdbID").Eq(seriesImdbID))
	if err != nil {
		return nil, err
	}

	for _, media := range medias {
		if media.Season == season && media.Episode == episode {
			return media, nil
		}
	}

	return nil, ErrMediaNotFound
}

// AppendSearchMatch adds a match string to a media record's SearchMatches
// set. The set only ever grows; duplicates are dropped.
func (db *Database) AppendSearchMatch(id uint64, match string) error {
	var media Media
	if err := db.store.Get(id, &media); err != nil {
		return err
	}

	for _, existing := range media.SearchMatches {
		if existing == match {
			return nil
		}
	}

	media.SearchMatches = append(media.SearchMatches, match)
	media.UpdatedAt = time.Now()
	return db.store.Update(media.ID, &media)
}

// GetAllMedias retrieves all media records
func (db *Database) GetAllMedias() ([]*Media, error) {
	var medias []*Media
	err := db.store.Find(&medias, nil)
	return medias, err
}

// Series operations

// CreateSeries inserts a new series record
func (db *Database) CreateSeries(series *Series) error {
	series.CreatedAt = time.Now()
	series.UpdatedAt = time.Now()
	err := db.store.Insert(bolthold.NextSequence(), series)
	if errors.Is(err, bolthold.ErrUniqueExists) {
		return ErrDuplicateKey
	}
	return err
}

// GetSeriesByIMDBID retrieves a series record by IMDb ID
func (db *Database) GetSeriesByIMDBID(imdbID string) (*Series, error) {
	var series Series
	err := db.store.FindOne(&series, bolthold.Where("ImdbID").Eq(imdbID))
	if errors.Is(err, bolthold.ErrNotFound) {
		return nil, ErrMediaNotFound
	}
	if err != nil {
		return nil, err
	}
	return &series, nil
}

// Failed lookup operations

// FindFailedLookup retrieves the failed-lookup record exactly matching the
// given discriminating fields, or nil when none exists.
func (db *Database) FindFailedLookup(hash, title, year, season, episode string) (*FailedLookup, error) {
	var failed FailedLookup
	query := bolthold.Where("OsdbHash").Eq(hash).
		And("Title").Eq(title).
		And("Year").Eq(year).
		And("Season").Eq(season).
		And("Episode").Eq(episode)

	err := db.store.FindOne(&failed, query)
	if errors.Is(err, bolthold.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &failed, nil
}

// IncrementFailedLookup bumps the repeat counter on an existing record
func (db *Database) IncrementFailedLookup(failed *FailedLookup) error {
	failed.Count++
	return db.store.Update(failed.ID, failed)
}

// UpsertFailedLookup records a failed query, incrementing the counter when a
// record with the exact same discriminating fields already exists.
func (db *Database) UpsertFailedLookup(hash, title, year, season, episode string, failedValidation bool) error {
	existing, err := db.FindFailedLookup(hash, title, year, season, episode)
	if err != nil {
		return err
	}

	if existing != nil {
		existing.Count++
		if failedValidation {
			existing.FailedValidation = true
		}
		return db.store.Update(existing.ID, existing)
	}

	failed := &FailedLookup{
		OsdbHash:         hash,
		Title:            title,
		Year:             year,
		Season:           season,
		Episode:          episode,
		Count:            1,
		FailedValidation: failedValidation,
		CreatedAt:        time.Now(),
	}
	return db.store.Insert(bolthold.NextSequence(), failed)
}

// PurgeExpiredFailedLookups deletes failed-lookup records created before the
// cutoff. This stands in for a TTL index; the scheduler runs it periodically.
func (db *Database) PurgeExpiredFailedLookups(cutoff time.Time) (int, error) {
	var expired []*FailedLookup
	err := db.store.Find(&expired, bolthold.Where("CreatedAt").Lt(cutoff))
	if err != nil {
		return 0, err
	}

	for _, failed := range expired {
		if err := db.store.Delete(failed.ID, &FailedLookup{}); err != nil {
			return 0, err
		}
	}

	return len(expired), nil
}

// CountFailedLookups returns the number of failed-lookup records
func (db *Database) CountFailedLookups() (int, error) {
	return db.store.Count(&FailedLookup{}, nil)
}

// Backfill job operations

// CreateBackfillJob queues a series for episode backfill. Queuing the same
// series twice is a no-op.
func (db *Database) CreateBackfillJob(seriesImdbID string, seriesTmdbID int) error {
	var existing []*BackfillJob
	err := db.store.Find(&existing, bolthold.Where("SeriesImdbID").Eq(seriesImdbID))
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	job := &BackfillJob{
		SeriesImdbID: seriesImdbID,
		SeriesTmdbID: seriesTmdbID,
		CreatedAt:    time.Now(),
	}
	return db.store.Insert(bolthold.NextSequence(), job)
}

// ListBackfillJobs retrieves all queued backfill jobs
func (db *Database) ListBackfillJobs() ([]*BackfillJob, error) {
	var jobs []*BackfillJob
	err := db.store.Find(&jobs, nil)
	return jobs, err
}

// DeleteBackfillJob removes a consumed backfill job
func (db *Database) DeleteBackfillJob(id uint64) error {
	return db.store.Delete(id, &BackfillJob{})
}

// CountBackfillJobs returns the number of queued backfill jobs
func (db *Database) CountBackfillJobs() (int, error) {
	return db.store.Count(&BackfillJob{}, nil)
}
