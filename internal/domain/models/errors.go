package models

import "errors"

var (
	// ErrSourceUnavailable covers network failures, timeouts and malformed
	// payloads at the adapter boundary. Triggers failover.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrValidationFailed means the snapshot's error list is non-empty.
	// Triggers failover, never a crash.
	ErrValidationFailed = errors.New("validation failed")

	// ErrAllSourcesExhausted means every configured source failed fetch or
	// validation within one cycle. The cycle ends; the next tick starts fresh.
	ErrAllSourcesExhausted = errors.New("all data sources exhausted")

	// ErrNoData is returned by repository reads when no result exists.
	ErrNoData = errors.New("no data available")
)
