package usecase

import (
	"testing"
	"time"

	"FundFlow/internal/domain/models"
)

func cleanRawSnapshot() *models.RawSnapshot {
	now := time.Now().UTC()
	return &models.RawSnapshot{
		DataDate:          models.Today(),
		Timestamp:         now,
		Ticker:            "SPY",
		AUM:               models.Float(450_000_000_000),
		SharesOutstanding: models.Int64(935_000_000),
		NAV:               models.Float(420.50),
		MarketPrice:       models.Float(421.00),
		DailyNetInflow:    models.Float(505_200_000),
		TotalInflow:       models.Float(605_200_000),
		TotalOutflow:      models.Float(100_000_000),
		CreationUnits:     models.Int(50),
		RedemptionUnits:   models.Int(26),
		SharesChange:      models.Int64(1_200_000),
		CalculatedInflow:  models.Float(505_200_000),
		FlowIntensity:     models.Float(505_200_000.0 / 450_000_000_000.0),
		DataSource:        models.SourceYahoo,
		ConfidenceScore:   models.Int(85),
		CreatedAt:         now,
	}
}

func TestScoreCleanSnapshot(t *testing.T) {
	quality, confidence := Score(cleanRawSnapshot())

	if quality != 100 {
		t.Fatalf("expected quality 100, got %d", quality)
	}
	if confidence < 80 || confidence > 100 {
		t.Fatalf("expected confidence in [80,100], got %d", confidence)
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	raw := cleanRawSnapshot()
	q1, c1 := Score(raw)
	q2, c2 := Score(raw)
	if q1 != q2 || c1 != c2 {
		t.Fatalf("scores changed between calls: (%d,%d) vs (%d,%d)", q1, c1, q2, c2)
	}
}

func TestScoreMissingFieldPenalties(t *testing.T) {
	raw := cleanRawSnapshot()
	raw.DailyNetInflow = nil
	raw.CalculatedInflow = nil

	quality, _ := Score(raw)
	// 100 - 30 (net inflow) + 5 (primary source) = 75.
	if quality != 75 {
		t.Fatalf("expected quality 75, got %d", quality)
	}

	raw.AUM = nil
	quality, _ = Score(raw)
	if quality != 55 {
		t.Fatalf("expected quality 55, got %d", quality)
	}

	raw.MarketPrice = nil
	quality, _ = Score(raw)
	if quality != 40 {
		t.Fatalf("expected quality 40, got %d", quality)
	}

	raw.SharesOutstanding = nil
	quality, _ = Score(raw)
	if quality != 30 {
		t.Fatalf("expected quality 30, got %d", quality)
	}
}

func TestScoreWeakSourceConfidencePenalty(t *testing.T) {
	raw := cleanRawSnapshot()
	raw.ConfidenceScore = models.Int(60)
	raw.DataSource = models.SourceAlphaVantage

	quality, _ := Score(raw)
	// 100 - (80-60)/2 = 90, no primary-source bonus.
	if quality != 90 {
		t.Fatalf("expected quality 90, got %d", quality)
	}
}

func TestScoreDivergentCalculatedInflowPenalty(t *testing.T) {
	raw := cleanRawSnapshot()
	raw.CalculatedInflow = models.Float(700_000_000) // ~39% off the reported figure
	raw.DataSource = models.SourceAlphaVantage

	quality, _ := Score(raw)
	if quality != 85 {
		t.Fatalf("expected quality 85, got %d", quality)
	}
}

func TestScoreBackupPrefixGetsNoBonus(t *testing.T) {
	raw := cleanRawSnapshot()
	raw.DataSource = models.BackupPrefix + models.SourceYahoo

	quality, _ := Score(raw)
	if quality != 100 {
		t.Fatalf("expected quality 100, got %d", quality)
	}

	raw.DailyNetInflow = nil
	raw.CalculatedInflow = nil
	quality, _ = Score(raw)
	// 100 - 30, no bonus for the tagged source name.
	if quality != 70 {
		t.Fatalf("expected quality 70, got %d", quality)
	}
}

func TestScoreClampsToRange(t *testing.T) {
	empty := &models.RawSnapshot{
		DataDate:        models.Today(),
		DataSource:      models.SourceAlphaVantage,
		ConfidenceScore: models.Int(0),
	}
	quality, confidence := Score(empty)
	if quality < 0 || quality > 100 {
		t.Fatalf("quality out of range: %d", quality)
	}
	if confidence < 0 || confidence > 100 {
		t.Fatalf("confidence out of range: %d", confidence)
	}
}

func TestScoreImplausiblePriceConfidencePenalty(t *testing.T) {
	raw := cleanRawSnapshot()
	base, baseConf := Score(raw)

	raw.MarketPrice = models.Float(900)
	raw.CalculatedInflow = models.Float(505_200_000)
	quality, confidence := Score(raw)
	if quality != base {
		t.Fatalf("price band must not change quality: %d vs %d", quality, base)
	}
	if confidence >= baseConf {
		t.Fatalf("expected confidence below %d, got %d", baseConf, confidence)
	}
}
