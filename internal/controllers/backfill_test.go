package controllers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"metadarr/internal/models"
	"metadarr/internal/services/omdb"
	"metadarr/internal/services/tmdb"
)

func newTestBackfill(t *testing.T) (*BackfillController, *models.Database, *fakeMovieDB, *fakeEnricher) {
	t.Helper()

	db, err := models.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	movieDB := &fakeMovieDB{
		records:  make(map[string]*omdb.Record),
		episodes: make(map[string]*omdb.Record),
	}
	enricher := &fakeEnricher{
		find:    make(map[string]*tmdb.FindResult),
		tv:      make(map[int]*tmdb.TVDetails),
		seasons: make(map[string]*tmdb.Season),
	}

	return NewBackfillController(db, movieDB, enricher, logger), db, movieDB, enricher
}

func TestBackfillPersistsEpisodesAndConsumesJob(t *testing.T) {
	ctrl, db, movieDB, enricher := newTestBackfill(t)

	// Job queued without a TMDb ID: the worker resolves it itself
	if err := db.CreateBackfillJob("tt0944947", 0); err != nil {
		t.Fatalf("Queue failed: %v", err)
	}

	enricher.find["tt0944947"] = &tmdb.FindResult{
		TVResults: []tmdb.TV{{ID: 1399, Name: "Game of Thrones"}},
	}
	enricher.tv[1399] = &tmdb.TVDetails{ID: 1399, NumberOfSeasons: 1}
	enricher.seasons["1399/1"] = &tmdb.Season{
		SeasonNumber: 1,
		Episodes: []tmdb.Episode{
			{EpisodeNumber: 1, Name: "Winter Is Coming", AirDate: "2011-04-17"},
			{EpisodeNumber: 2, Name: "The Kingsroad", AirDate: "2011-04-24"},
		},
	}
	movieDB.episodes["tt0944947/1/1"] = &omdb.Record{
		ImdbID: "tt1480055", Title: "Winter Is Coming", Type: "episode",
		Season: "1", Episode: "1", Response: "True",
	}
	movieDB.episodes["tt0944947/1/2"] = &omdb.Record{
		ImdbID: "tt1668746", Title: "The Kingsroad", Type: "episode",
		Season: "1", Episode: "2", Response: "True",
	}

	if err := ctrl.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, episode := range []string{"1", "2"} {
		stored, err := db.FindEpisodeBySeries("tt0944947", "1", episode)
		if err != nil {
			t.Fatalf("Expected episode %s persisted: %v", episode, err)
		}
		if stored.MediaType != models.MediaTypeEpisode || stored.SeriesImdbID != "tt0944947" {
			t.Errorf("Episode identity wrong: %+v", stored)
		}
		// Air year comes from the TMDb enrichment partial
		if stored.Year != "2011" {
			t.Errorf("Expected air year merged in, got %q", stored.Year)
		}
	}

	count, err := db.CountBackfillJobs()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected job consumed and deleted, got %d queued", count)
	}
}

func TestBackfillSkipsStoredAndUnidentifiedEpisodes(t *testing.T) {
	ctrl, db, movieDB, enricher := newTestBackfill(t)

	if err := db.CreateBackfillJob("tt0944947", 1399); err != nil {
		t.Fatalf("Queue failed: %v", err)
	}

	enricher.tv[1399] = &tmdb.TVDetails{ID: 1399, NumberOfSeasons: 1}
	enricher.seasons["1399/1"] = &tmdb.Season{
		SeasonNumber: 1,
		Episodes: []tmdb.Episode{
			{EpisodeNumber: 1, Name: "Already Stored"},
			{EpisodeNumber: 2, Name: "No Own Identity"},
			{EpisodeNumber: 3, Name: "Unknown To OMDb"},
		},
	}
	// Episode 2 exists but has no IMDb ID of its own; episode 3 is absent
	movieDB.episodes["tt0944947/1/2"] = &omdb.Record{
		Title: "No Own Identity", Type: "episode", Season: "1", Episode: "2", Response: "True",
	}

	seeded := &models.Media{
		ImdbID:       "tt1480055",
		MediaType:    models.MediaTypeEpisode,
		Season:       "1",
		Episode:      "1",
		SeriesImdbID: "tt0944947",
	}
	if err := db.CreateMedia(seeded); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	if err := ctrl.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// Stored episode never hit the provider; the other two were looked up but
	// produced nothing persistable.
	if movieDB.episodeCalls != 2 {
		t.Errorf("Expected 2 episode fetches, got %d", movieDB.episodeCalls)
	}

	medias, err := db.GetAllMedias()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(medias) != 1 {
		t.Errorf("Expected only the seeded episode in the store, got %d records", len(medias))
	}

	count, err := db.CountBackfillJobs()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected job consumed despite skips, got %d queued", count)
	}
}

func TestBackfillRetriesTransientFailures(t *testing.T) {
	ctrl, db, movieDB, enricher := newTestBackfill(t)

	if err := db.CreateBackfillJob("tt0944947", 1399); err != nil {
		t.Fatalf("Queue failed: %v", err)
	}

	// First GetTV call fails with an outage, then the provider recovers
	enricher.tvErr = fmt.Errorf("%w: gateway timeout", models.ErrProviderUnavailable)
	enricher.tvFailures = 1
	enricher.tv[1399] = &tmdb.TVDetails{ID: 1399, NumberOfSeasons: 1}
	enricher.seasons["1399/1"] = &tmdb.Season{
		SeasonNumber: 1,
		Episodes:     []tmdb.Episode{{EpisodeNumber: 1, Name: "Pilot"}},
	}
	movieDB.episodes["tt0944947/1/1"] = &omdb.Record{
		ImdbID: "tt1480055", Title: "Pilot", Type: "episode",
		Season: "1", Episode: "1", Response: "True",
	}

	if err := ctrl.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if enricher.tvCalls != 2 {
		t.Errorf("Expected outage retried once, got %d calls", enricher.tvCalls)
	}
	if _, err := db.FindEpisodeBySeries("tt0944947", "1", "1"); err != nil {
		t.Errorf("Expected episode persisted after retry: %v", err)
	}

	count, _ := db.CountBackfillJobs()
	if count != 0 {
		t.Errorf("Expected job consumed, got %d queued", count)
	}
}

func TestBackfillLeavesFailedJobQueued(t *testing.T) {
	ctrl, db, _, enricher := newTestBackfill(t)

	if err := db.CreateBackfillJob("tt0944947", 1399); err != nil {
		t.Fatalf("Queue failed: %v", err)
	}

	// A non-transient failure is not retried and leaves the job for the next run
	enricher.tvErr = errors.New("malformed payload")
	enricher.tvFailures = 1

	if err := ctrl.Run(context.Background()); err != nil {
		t.Fatalf("Run itself must not fail: %v", err)
	}

	if enricher.tvCalls != 1 {
		t.Errorf("Expected no retry for a non-transient error, got %d calls", enricher.tvCalls)
	}

	count, err := db.CountBackfillJobs()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected failing job left queued, got %d", count)
	}
}

func TestBackfillDropsJobForSeriesWithoutTmdbEntry(t *testing.T) {
	ctrl, db, _, _ := newTestBackfill(t)

	if err := db.CreateBackfillJob("tt9999999", 0); err != nil {
		t.Fatalf("Queue failed: %v", err)
	}

	if err := ctrl.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	count, err := db.CountBackfillJobs()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected unresolvable job dropped, got %d queued", count)
	}
}
