package models

import "errors"

// Error taxonomy surfaced by the resolver and store. Callers distinguish the
// kinds with errors.Is.
var (
	// ErrValidation means the caller's input was malformed or incomplete.
	// No provider is contacted when this is returned.
	ErrValidation = errors.New("invalid lookup input")

	// ErrMediaNotFound means no provider could resolve the query, the query
	// hit the failed-lookup cache, or a provider answer failed validation
	// against the caller's disambiguating hints.
	ErrMediaNotFound = errors.New("media not found")

	// ErrProviderUnavailable means a provider signaled an outage. It is
	// transient and must never be recorded in the failed-lookup cache.
	ErrProviderUnavailable = errors.New("metadata provider unavailable")

	// ErrIdentifierNotFound means an intermediate identifier lookup failed
	// (e.g. a title could not be resolved to a provider-internal ID).
	ErrIdentifierNotFound = errors.New("identifier not found")

	// ErrDuplicateKey means an insert violated the unique IMDb ID constraint,
	// usually because a concurrent identical request won the race.
	ErrDuplicateKey = errors.New("duplicate key")
)
