package controllers

import "github.com/sirupsen/logrus"

// Failed-lookup cache policy. A query shape that produced no result is
// recorded so repeat identical queries short-circuit without provider calls.
// Provider-unavailable errors never reach these paths: a transient outage is
// not query-specific and must not poison the cache.

// shouldSkip reports whether an identical query is already known to fail.
// A hit increments the repeat counter.
func (r *Resolver) shouldSkip(hash, title, year, season, episode string) (bool, error) {
	failed, err := r.db.FindFailedLookup(hash, title, year, season, episode)
	if err != nil {
		return false, err
	}
	if failed == nil {
		return false, nil
	}

	if err := r.db.IncrementFailedLookup(failed); err != nil {
		r.logger.WithError(err).Warn("Failed to increment failed-lookup counter")
	}

	r.logger.WithFields(logrus.Fields{
		"hash":  hash,
		"title": title,
		"count": failed.Count,
	}).Debug("Failed-lookup cache hit")

	return true, nil
}

// recordFailure upserts a failed-lookup record for the query shape
func (r *Resolver) recordFailure(hash, title, year, season, episode string, failedValidation bool) {
	err := r.db.UpsertFailedLookup(hash, title, year, season, episode, failedValidation)
	if err != nil {
		r.logger.WithError(err).Error("Failed to record failed lookup")
	}
}
