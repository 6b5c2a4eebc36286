package usecase

import (
	"context"
	"math"
	"strings"
	"time"

	"FundFlow/internal/domain/models"
	drepo "FundFlow/internal/domain/repository"
	applogger "FundFlow/pkg/logger"
	"FundFlow/pkg/workerpool"
)

// Calculator turns persisted raw snapshots into flow results: score, persist,
// publish to the audit stream and fan out to live subscribers. The async path
// runs on the bounded worker pool so the collection cycle never waits on it.
type Calculator struct {
	repo    drepo.FlowRepository
	pub     drepo.ResultPublisher // optional
	hub     drepo.Broadcaster
	pool    *workerpool.Pool
	metrics drepo.Metrics
	log     *applogger.Logger
}

// NewCalculator creates a Calculator.
func NewCalculator(
	repo drepo.FlowRepository,
	pub drepo.ResultPublisher,
	hub drepo.Broadcaster,
	pool *workerpool.Pool,
	metrics drepo.Metrics,
	log *applogger.Logger,
) *Calculator {
	return &Calculator{
		repo:    repo,
		pub:     pub,
		hub:     hub,
		pool:    pool,
		metrics: metrics,
		log:     log,
	}
}

// CalculateAsync hands the computation chain to the worker pool and returns
// immediately. Pool saturation degrades to running on the caller, never to
// dropping the computation.
func (c *Calculator) CalculateAsync(ctx context.Context, raw *models.RawSnapshot) {
	c.pool.Submit(ctx, func(taskCtx context.Context) {
		c.process(taskCtx, raw)
	})
}

func (c *Calculator) process(ctx context.Context, raw *models.RawSnapshot) {
	start := time.Now()

	result := c.Calculate(raw)

	if err := c.repo.SaveResult(ctx, result); err != nil {
		c.metrics.RecordError("save_result")
		c.log.Error("flow result save failed",
			applogger.String("date", result.DataDate.String()),
			applogger.Error(err))
		return
	}

	// Audit stream is best effort; a broker outage must not block the feed.
	if c.pub != nil {
		if err := c.pub.PublishResult(ctx, result); err != nil {
			c.metrics.RecordError("publish_result")
			c.log.Warn("result audit publish failed", applogger.Error(err))
		}
	}

	c.hub.Broadcast(result)

	if result.FinalNetInflow != nil {
		c.metrics.RecordNetInflow(result.PrimarySource, *result.FinalNetInflow)
	}
	c.metrics.RecordLatency("calculate", time.Since(start).Seconds())
	c.log.Info("flow calculation complete",
		applogger.String("date", result.DataDate.String()),
		applogger.Int("quality", result.DataQualityScore),
		applogger.Int("confidence", result.OverallConfidence))
}

// Calculate derives the flow result for one raw snapshot. Deterministic
// except for timestamps.
func (c *Calculator) Calculate(raw *models.RawSnapshot) *models.FlowResult {
	quality, confidence := Score(raw)
	now := time.Now().UTC()

	result := &models.FlowResult{
		DataDate:          raw.DataDate,
		Timestamp:         now,
		FinalNetInflow:    raw.DailyNetInflow,
		FlowIntensity:     flowIntensity(raw),
		PrimarySource:     raw.DataSource,
		OverallConfidence: confidence,
		DataQualityScore:  quality,
		ValidationPassed:  quality >= 70 && confidence >= 60,

		GeographicDimension: models.DefaultGeographicDimension,
		CurrencyDimension:   models.DefaultCurrencyDimension,
		MarketCapDimension:  models.DefaultMarketCapDimension,
		SectorDimension:     models.DefaultSectorDimension,

		CreatedAt: now,
	}

	// Single-source pipeline: the fetching source contributes the full
	// inflow figure.
	if strings.TrimPrefix(raw.DataSource, models.BackupPrefix) == models.SourceYahoo {
		result.YahooContribution = raw.DailyNetInflow
	} else {
		result.EtfComContribution = raw.DailyNetInflow
	}

	return result
}

func flowIntensity(raw *models.RawSnapshot) float64 {
	if raw.FlowIntensity != nil {
		return *raw.FlowIntensity
	}
	if raw.DailyNetInflow != nil && raw.AUM != nil && *raw.AUM > 0 {
		return math.Abs(*raw.DailyNetInflow) / *raw.AUM
	}
	return 0
}
