package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"FundFlow/internal/domain/models"
	drepo "FundFlow/internal/domain/repository"
	pkgch "FundFlow/pkg/clickhouse"
)

const (
	rawTable    = "spy_raw_data"
	resultTable = "spy_flow_result"
)

// Schema returns the idempotent DDL for the flow tables. ReplacingMergeTree
// keyed on the snapshot identity makes re-ingestion of a (date, source) pair a
// replacement rather than a duplicate.
func Schema() []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			data_date          Date,
			ts                 DateTime,
			ticker             String,
			aum                Nullable(Float64),
			shares_outstanding Nullable(Int64),
			nav                Nullable(Float64),
			market_price       Nullable(Float64),
			daily_net_inflow   Nullable(Float64),
			total_inflow       Nullable(Float64),
			total_outflow      Nullable(Float64),
			creation_units     Nullable(Int32),
			redemption_units   Nullable(Int32),
			shares_change      Nullable(Int64),
			calculated_inflow  Nullable(Float64),
			flow_intensity     Nullable(Float64),
			data_source        String,
			confidence_score   Nullable(Int32),
			created_at         DateTime
		) ENGINE = ReplacingMergeTree(created_at)
		ORDER BY (data_date, data_source)`, rawTable),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			data_date            Date,
			ts                   DateTime,
			final_net_inflow     Nullable(Float64),
			flow_intensity       Float64,
			etf_com_contribution Nullable(Float64),
			yahoo_contribution   Nullable(Float64),
			primary_source       String,
			overall_confidence   Int32,
			data_quality_score   Int32,
			validation_passed    UInt8,
			geographic_dimension String,
			currency_dimension   String,
			market_cap_dimension String,
			sector_dimension     String,
			created_at           DateTime
		) ENGINE = ReplacingMergeTree(created_at)
		ORDER BY data_date`, resultTable),
	}
}

// ClickHouseFlowRepository implements FlowRepository on ClickHouse.
type ClickHouseFlowRepository struct {
	client *pkgch.Client
	db     *sql.DB
}

// NewClickHouseFlowRepository creates the repository and ensures the schema.
func NewClickHouseFlowRepository(ctx context.Context, client *pkgch.Client) (drepo.FlowRepository, error) {
	if err := client.InitSchema(ctx, Schema()); err != nil {
		return nil, err
	}
	return &ClickHouseFlowRepository{client: client, db: client.DB()}, nil
}

func (r *ClickHouseFlowRepository) SaveRaw(ctx context.Context, raw *models.RawSnapshot) error {
	q := fmt.Sprintf(`INSERT INTO %s (
		data_date, ts, ticker, aum, shares_outstanding, nav, market_price,
		daily_net_inflow, total_inflow, total_outflow,
		creation_units, redemption_units, shares_change,
		calculated_inflow, flow_intensity, data_source, confidence_score, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, rawTable)

	_, err := r.db.ExecContext(ctx, q,
		raw.DataDate.Time,
		raw.Timestamp,
		raw.Ticker,
		raw.AUM,
		raw.SharesOutstanding,
		raw.NAV,
		raw.MarketPrice,
		raw.DailyNetInflow,
		raw.TotalInflow,
		raw.TotalOutflow,
		raw.CreationUnits,
		raw.RedemptionUnits,
		raw.SharesChange,
		raw.CalculatedInflow,
		raw.FlowIntensity,
		raw.DataSource,
		raw.ConfidenceScore,
		raw.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save raw snapshot: %w", err)
	}
	return nil
}

func (r *ClickHouseFlowRepository) FindRawByDate(ctx context.Context, date models.Date) ([]*models.RawSnapshot, error) {
	q := fmt.Sprintf(`SELECT
		data_date, ts, ticker, aum, shares_outstanding, nav, market_price,
		daily_net_inflow, total_inflow, total_outflow,
		creation_units, redemption_units, shares_change,
		calculated_inflow, flow_intensity, data_source, confidence_score, created_at
	FROM %s FINAL WHERE data_date = ? ORDER BY data_source`, rawTable)

	rows, err := r.db.QueryContext(ctx, q, date.Time)
	if err != nil {
		return nil, fmt.Errorf("find raw by date: %w", err)
	}
	defer rows.Close()

	var snapshots []*models.RawSnapshot
	for rows.Next() {
		raw, err := scanRaw(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, raw)
	}
	return snapshots, rows.Err()
}

func (r *ClickHouseFlowRepository) SaveResult(ctx context.Context, result *models.FlowResult) error {
	q := fmt.Sprintf(`INSERT INTO %s (
		data_date, ts, final_net_inflow, flow_intensity,
		etf_com_contribution, yahoo_contribution, primary_source,
		overall_confidence, data_quality_score, validation_passed,
		geographic_dimension, currency_dimension, market_cap_dimension, sector_dimension,
		created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, resultTable)

	validationPassed := uint8(0)
	if result.ValidationPassed {
		validationPassed = 1
	}

	_, err := r.db.ExecContext(ctx, q,
		result.DataDate.Time,
		result.Timestamp,
		result.FinalNetInflow,
		result.FlowIntensity,
		result.EtfComContribution,
		result.YahooContribution,
		result.PrimarySource,
		int32(result.OverallConfidence),
		int32(result.DataQualityScore),
		validationPassed,
		result.GeographicDimension,
		result.CurrencyDimension,
		result.MarketCapDimension,
		result.SectorDimension,
		result.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save flow result: %w", err)
	}
	return nil
}

const resultColumns = `data_date, ts, final_net_inflow, flow_intensity,
	etf_com_contribution, yahoo_contribution, primary_source,
	overall_confidence, data_quality_score, validation_passed,
	geographic_dimension, currency_dimension, market_cap_dimension, sector_dimension,
	created_at`

func (r *ClickHouseFlowRepository) FindLatestResult(ctx context.Context) (*models.FlowResult, error) {
	q := fmt.Sprintf(`SELECT %s FROM %s FINAL ORDER BY data_date DESC LIMIT 1`,
		resultColumns, resultTable)
	return r.queryOneResult(ctx, q)
}

func (r *ClickHouseFlowRepository) FindResultByDate(ctx context.Context, date models.Date) (*models.FlowResult, error) {
	q := fmt.Sprintf(`SELECT %s FROM %s FINAL WHERE data_date = ? LIMIT 1`,
		resultColumns, resultTable)
	return r.queryOneResult(ctx, q, date.Time)
}

func (r *ClickHouseFlowRepository) FindResultsInRange(ctx context.Context, start, end models.Date) ([]*models.FlowResult, error) {
	q := fmt.Sprintf(`SELECT %s FROM %s FINAL
		WHERE data_date >= ? AND data_date <= ? ORDER BY data_date DESC`,
		resultColumns, resultTable)
	return r.queryResults(ctx, q, start.Time, end.Time)
}

func (r *ClickHouseFlowRepository) FindRecentResults(ctx context.Context, since models.Date) ([]*models.FlowResult, error) {
	q := fmt.Sprintf(`SELECT %s FROM %s FINAL
		WHERE data_date >= ? ORDER BY data_date DESC`,
		resultColumns, resultTable)
	return r.queryResults(ctx, q, since.Time)
}

func (r *ClickHouseFlowRepository) ConfidenceStats(ctx context.Context, since models.Date) (*models.ConfidenceStats, error) {
	q := fmt.Sprintf(`SELECT
		avg(overall_confidence), min(overall_confidence), max(overall_confidence)
	FROM %s FINAL WHERE data_date >= ?`, resultTable)

	var stats models.ConfidenceStats
	err := r.db.QueryRowContext(ctx, q, since.Time).
		Scan(&stats.Average, &stats.Minimum, &stats.Maximum)
	if err != nil {
		return nil, fmt.Errorf("confidence stats: %w", err)
	}
	return &stats, nil
}

func (r *ClickHouseFlowRepository) NetInflowStats(ctx context.Context, since models.Date) (*models.NetInflowStats, error) {
	q := fmt.Sprintf(`SELECT
		sum(coalesce(final_net_inflow, 0)), avg(coalesce(final_net_inflow, 0)), count()
	FROM %s FINAL WHERE data_date >= ?`, resultTable)

	var stats models.NetInflowStats
	err := r.db.QueryRowContext(ctx, q, since.Time).
		Scan(&stats.Total, &stats.Average, &stats.Count)
	if err != nil {
		return nil, fmt.Errorf("net inflow stats: %w", err)
	}
	return &stats, nil
}

func (r *ClickHouseFlowRepository) AverageQualityScore(ctx context.Context, since models.Date) (float64, error) {
	q := fmt.Sprintf(`SELECT avg(data_quality_score) FROM %s FINAL WHERE data_date >= ?`, resultTable)

	var avg sql.NullFloat64
	if err := r.db.QueryRowContext(ctx, q, since.Time).Scan(&avg); err != nil {
		return 0, fmt.Errorf("average quality score: %w", err)
	}
	return avg.Float64, nil
}

func (r *ClickHouseFlowRepository) CountValidationFailed(ctx context.Context, since models.Date) (int64, error) {
	q := fmt.Sprintf(`SELECT count() FROM %s FINAL
		WHERE data_date >= ? AND validation_passed = 0`, resultTable)

	var n int64
	if err := r.db.QueryRowContext(ctx, q, since.Time).Scan(&n); err != nil {
		return 0, fmt.Errorf("count validation failed: %w", err)
	}
	return n, nil
}

func (r *ClickHouseFlowRepository) SourceStats(ctx context.Context, since models.Date) ([]*models.SourceAvailability, error) {
	q := fmt.Sprintf(`SELECT data_source, count(), avg(coalesce(confidence_score, 0))
	FROM %s FINAL WHERE data_date >= ?
	GROUP BY data_source ORDER BY data_source`, rawTable)

	rows, err := r.db.QueryContext(ctx, q, since.Time)
	if err != nil {
		return nil, fmt.Errorf("source stats: %w", err)
	}
	defer rows.Close()

	var stats []*models.SourceAvailability
	for rows.Next() {
		var s models.SourceAvailability
		if err := rows.Scan(&s.DataSource, &s.Snapshots, &s.AvgConfidence); err != nil {
			return nil, err
		}
		stats = append(stats, &s)
	}
	return stats, rows.Err()
}

func (r *ClickHouseFlowRepository) Health(ctx context.Context) error {
	return r.client.Health(ctx)
}

func (r *ClickHouseFlowRepository) Close() error {
	return r.client.Close()
}

func (r *ClickHouseFlowRepository) queryOneResult(ctx context.Context, q string, args ...any) (*models.FlowResult, error) {
	row := r.db.QueryRowContext(ctx, q, args...)
	result, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNoData
	}
	if err != nil {
		return nil, fmt.Errorf("query flow result: %w", err)
	}
	return result, nil
}

func (r *ClickHouseFlowRepository) queryResults(ctx context.Context, q string, args ...any) ([]*models.FlowResult, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query flow results: %w", err)
	}
	defer rows.Close()

	var results []*models.FlowResult
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanResult(s scanner) (*models.FlowResult, error) {
	var (
		result           models.FlowResult
		finalNetInflow   sql.NullFloat64
		etfCom           sql.NullFloat64
		yahoo            sql.NullFloat64
		confidence       int32
		quality          int32
		validationPassed uint8
	)
	err := s.Scan(
		&result.DataDate.Time,
		&result.Timestamp,
		&finalNetInflow,
		&result.FlowIntensity,
		&etfCom,
		&yahoo,
		&result.PrimarySource,
		&confidence,
		&quality,
		&validationPassed,
		&result.GeographicDimension,
		&result.CurrencyDimension,
		&result.MarketCapDimension,
		&result.SectorDimension,
		&result.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	result.FinalNetInflow = nullToFloat(finalNetInflow)
	result.EtfComContribution = nullToFloat(etfCom)
	result.YahooContribution = nullToFloat(yahoo)
	result.OverallConfidence = int(confidence)
	result.DataQualityScore = int(quality)
	result.ValidationPassed = validationPassed != 0
	return &result, nil
}

func scanRaw(s scanner) (*models.RawSnapshot, error) {
	var (
		raw               models.RawSnapshot
		aum               sql.NullFloat64
		sharesOutstanding sql.NullInt64
		nav               sql.NullFloat64
		marketPrice       sql.NullFloat64
		dailyNetInflow    sql.NullFloat64
		totalInflow       sql.NullFloat64
		totalOutflow      sql.NullFloat64
		creationUnits     sql.NullInt32
		redemptionUnits   sql.NullInt32
		sharesChange      sql.NullInt64
		calculatedInflow  sql.NullFloat64
		flowIntensity     sql.NullFloat64
		confidenceScore   sql.NullInt32
	)
	err := s.Scan(
		&raw.DataDate.Time,
		&raw.Timestamp,
		&raw.Ticker,
		&aum,
		&sharesOutstanding,
		&nav,
		&marketPrice,
		&dailyNetInflow,
		&totalInflow,
		&totalOutflow,
		&creationUnits,
		&redemptionUnits,
		&sharesChange,
		&calculatedInflow,
		&flowIntensity,
		&raw.DataSource,
		&confidenceScore,
		&raw.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	raw.AUM = nullToFloat(aum)
	raw.SharesOutstanding = nullToInt64(sharesOutstanding)
	raw.NAV = nullToFloat(nav)
	raw.MarketPrice = nullToFloat(marketPrice)
	raw.DailyNetInflow = nullToFloat(dailyNetInflow)
	raw.TotalInflow = nullToFloat(totalInflow)
	raw.TotalOutflow = nullToFloat(totalOutflow)
	raw.CreationUnits = nullToInt(creationUnits)
	raw.RedemptionUnits = nullToInt(redemptionUnits)
	raw.SharesChange = nullToInt64(sharesChange)
	raw.CalculatedInflow = nullToFloat(calculatedInflow)
	raw.FlowIntensity = nullToFloat(flowIntensity)
	raw.ConfidenceScore = nullToInt(confidenceScore)
	return &raw, nil
}

func nullToFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return models.Float(v.Float64)
}

func nullToInt64(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return models.Int64(v.Int64)
}

func nullToInt(v sql.NullInt32) *int {
	if !v.Valid {
		return nil
	}
	return models.Int(int(v.Int32))
}
