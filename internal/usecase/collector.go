package usecase

import (
	"context"
	"fmt"
	"time"

	"FundFlow/internal/domain/models"
	drepo "FundFlow/internal/domain/repository"
	applogger "FundFlow/pkg/logger"
)

// Collection outcome labels for metrics.
const (
	statusOK              = "ok"
	statusFetchError      = "fetch_error"
	statusValidationError = "validation_error"
)

// Collector drives the ingestion cycle on a fixed interval: fetch from the
// primary source, validate, fail over through the backups in order, persist
// the accepted snapshot and hand computation to the Calculator. A single
// goroutine runs the loop, so cycles never overlap.
type Collector struct {
	sources []drepo.Source // primary first, then backups in failover order
	repo    drepo.FlowRepository
	calc    *Calculator
	metrics drepo.Metrics
	log     *applogger.Logger

	interval time.Duration
	stopCh   chan struct{}
}

// NewCollector creates a Collector. Sources are tried in the given order.
func NewCollector(
	sources []drepo.Source,
	repo drepo.FlowRepository,
	calc *Calculator,
	metrics drepo.Metrics,
	log *applogger.Logger,
	interval time.Duration,
) *Collector {
	return &Collector{
		sources:  sources,
		repo:     repo,
		calc:     calc,
		metrics:  metrics,
		log:      log,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start launches the collection loop. Every failure is converted to a log
// entry and a metric; nothing can terminate the scheduler.
func (c *Collector) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-c.stopCh:
				return
			case <-ticker.C:
				if err := c.Collect(ctx); err != nil {
					c.metrics.RecordError("collect_cycle")
					c.log.Error("collection cycle failed", applogger.Error(err))
				}
			}
		}
	}()
	c.log.Info("collector started",
		applogger.Duration("interval", c.interval),
		applogger.Int("sources", len(c.sources)))
}

// Stop halts the collection loop.
func (c *Collector) Stop() {
	close(c.stopCh)
}

// Collect runs one cycle. Sources are attempted strictly in order, one try
// each; the first snapshot passing validation wins. Exported so tests and
// manual triggers can run a cycle without the ticker.
func (c *Collector) Collect(ctx context.Context) error {
	start := time.Now()

	for i, src := range c.sources {
		snap, err := src.Fetch(ctx)
		if err != nil {
			c.metrics.RecordCollection(src.Name(), statusFetchError)
			c.log.Warn("source fetch failed",
				applogger.String("source", src.Name()),
				applogger.Error(err))
			continue
		}

		outcome := Validate(snap)
		for _, w := range outcome.Warnings {
			c.log.Warn("validation warning",
				applogger.String("source", src.Name()),
				applogger.String("warning", w))
		}
		if !outcome.Valid() {
			c.metrics.RecordCollection(src.Name(), statusValidationError)
			c.log.Warn("source validation failed",
				applogger.String("source", src.Name()),
				applogger.Strings("errors", outcome.Errors))
			continue
		}

		raw := buildRawSnapshot(snap)
		if i > 0 {
			// Tag failover-sourced records so they never collide with the
			// primary's (date, source) key.
			raw.DataSource = models.BackupPrefix + raw.DataSource
		}

		if err := c.repo.SaveRaw(ctx, raw); err != nil {
			c.metrics.RecordError("save_raw")
			return fmt.Errorf("save raw snapshot: %w", err)
		}

		c.calc.CalculateAsync(ctx, raw)

		c.metrics.RecordCollection(src.Name(), statusOK)
		c.metrics.RecordLatency("collect", time.Since(start).Seconds())
		c.log.Info("collection succeeded",
			applogger.String("source", raw.DataSource),
			applogger.String("date", raw.DataDate.String()))
		return nil
	}

	return models.ErrAllSourcesExhausted
}

// buildRawSnapshot converts a validated snapshot into its persistent form,
// recomputing the cross-check figures locally.
func buildRawSnapshot(snap *models.FlowSnapshot) *models.RawSnapshot {
	calculatedInflow := 0.0
	if snap.SharesChange != nil && snap.MarketPrice != nil {
		calculatedInflow = *snap.MarketPrice * float64(*snap.SharesChange)
	}

	flowIntensity := 0.0
	if snap.AUM != nil && snap.DailyNetInflow != nil && *snap.AUM > 0 {
		flowIntensity = *snap.DailyNetInflow / *snap.AUM
	}

	now := time.Now().UTC()
	return &models.RawSnapshot{
		DataDate:          snap.DataDate,
		Timestamp:         now,
		Ticker:            snap.Ticker,
		AUM:               snap.AUM,
		SharesOutstanding: snap.SharesOutstanding,
		NAV:               snap.NAV,
		MarketPrice:       snap.MarketPrice,
		DailyNetInflow:    snap.DailyNetInflow,
		TotalInflow:       snap.TotalInflow,
		TotalOutflow:      snap.TotalOutflow,
		CreationUnits:     snap.CreationUnits,
		RedemptionUnits:   snap.RedemptionUnits,
		SharesChange:      snap.SharesChange,
		CalculatedInflow:  models.Float(calculatedInflow),
		FlowIntensity:     models.Float(flowIntensity),
		DataSource:        snap.DataSource,
		ConfidenceScore:   snap.ConfidenceScore,
		CreatedAt:         now,
	}
}
