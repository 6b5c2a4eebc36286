package usecase

import (
	"math"

	"FundFlow/internal/domain/models"
)

// Score computes the data-quality and overall-confidence scores for one raw
// snapshot. Pure and deterministic; both outputs are clamped to [0,100].
// The weights and thresholds are exact contracts, integer arithmetic included.
func Score(raw *models.RawSnapshot) (quality, confidence int) {
	quality = qualityScore(raw)
	confidence = confidenceScore(raw, quality)
	return quality, confidence
}

func qualityScore(raw *models.RawSnapshot) int {
	score := 100

	// Missing key fields.
	if raw.DailyNetInflow == nil {
		score -= 30
	}
	if raw.AUM == nil {
		score -= 20
	}
	if raw.MarketPrice == nil {
		score -= 15
	}
	if raw.SharesOutstanding == nil {
		score -= 10
	}

	// Weak source confidence.
	if raw.ConfidenceScore != nil && *raw.ConfidenceScore < 70 {
		score -= (80 - *raw.ConfidenceScore) / 2
	}

	// Recomputed inflow diverging from the reported figure.
	if raw.CalculatedInflow != nil && raw.DailyNetInflow != nil {
		diff := math.Abs(*raw.CalculatedInflow - *raw.DailyNetInflow)
		if math.Abs(*raw.DailyNetInflow) > 0 {
			if diff/math.Abs(*raw.DailyNetInflow) > 0.20 {
				score -= 15
			}
		}
	}

	// Bonus for the designated primary-reliability source.
	if raw.DataSource == models.SourceYahoo {
		score += 5
	}

	return clampScore(score)
}

func confidenceScore(raw *models.RawSnapshot, quality int) int {
	confidence := 50

	confidence += quality / 5

	if raw.ConfidenceScore != nil {
		confidence += *raw.ConfidenceScore / 4
	}

	completeness := 0
	if raw.DailyNetInflow != nil {
		completeness += 25
	}
	if raw.AUM != nil {
		completeness += 20
	}
	if raw.MarketPrice != nil {
		completeness += 15
	}
	if raw.SharesOutstanding != nil {
		completeness += 10
	}
	if raw.CreationUnits != nil {
		completeness += 10
	}
	if raw.RedemptionUnits != nil {
		completeness += 10
	}
	if raw.NAV != nil {
		completeness += 10
	}
	confidence += completeness / 10

	if raw.FlowIntensity != nil && *raw.FlowIntensity > 0.05 {
		confidence -= 10
	}

	if raw.MarketPrice != nil &&
		(*raw.MarketPrice < minPlausiblePrice || *raw.MarketPrice > maxPlausiblePrice) {
		confidence -= 15
	}

	return clampScore(confidence)
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
