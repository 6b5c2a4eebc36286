package repository

import (
	"context"

	"FundFlow/internal/domain/models"
)

// Source fetches one normalized snapshot from a single external provider.
// Any malformed payload, missing field or transport failure surfaces as an
// error wrapping models.ErrSourceUnavailable, never a partial snapshot.
type Source interface {
	Name() string
	Fetch(ctx context.Context) (*models.FlowSnapshot, error)
}

// FlowRepository is keyed persistence for raw snapshots and computed results.
// Writes for a given date key are idempotent by replacement.
type FlowRepository interface {
	SaveRaw(ctx context.Context, raw *models.RawSnapshot) error
	FindRawByDate(ctx context.Context, date models.Date) ([]*models.RawSnapshot, error)

	SaveResult(ctx context.Context, result *models.FlowResult) error
	FindLatestResult(ctx context.Context) (*models.FlowResult, error)
	FindResultByDate(ctx context.Context, date models.Date) (*models.FlowResult, error)
	FindResultsInRange(ctx context.Context, start, end models.Date) ([]*models.FlowResult, error)
	FindRecentResults(ctx context.Context, since models.Date) ([]*models.FlowResult, error)

	ConfidenceStats(ctx context.Context, since models.Date) (*models.ConfidenceStats, error)
	NetInflowStats(ctx context.Context, since models.Date) (*models.NetInflowStats, error)
	AverageQualityScore(ctx context.Context, since models.Date) (float64, error)
	CountValidationFailed(ctx context.Context, since models.Date) (int64, error)
	SourceStats(ctx context.Context, since models.Date) ([]*models.SourceAvailability, error)

	Health(ctx context.Context) error
	Close() error
}

// ResultPublisher pushes computed results to an external audit stream.
type ResultPublisher interface {
	PublishResult(ctx context.Context, result *models.FlowResult) error
	Close() error
}

// Broadcaster fans a computed result out to live subscribers. Best effort:
// no buffering, no retry, broken subscribers are dropped.
type Broadcaster interface {
	Broadcast(result *models.FlowResult)
	ClientCount() int
}

// Metrics records pipeline observability signals.
type Metrics interface {
	RecordCollection(source, status string)
	RecordError(kind string)
	RecordNetInflow(source string, amount float64)
	RecordLatency(op string, seconds float64)
	RecordClients(n int)
}
