package usecase

import (
	"fmt"
	"math"

	"FundFlow/internal/domain/models"
)

// Validation thresholds. Relative tolerances are fractions of the reported
// net inflow unless noted otherwise.
const (
	netInflowTolerance  = 0.05 // net inflow vs total inflow - total outflow
	navPriceTolerance   = 0.02 // market price vs NAV, fraction of NAV
	maxInflowAUMRatio   = 0.10 // hard rejection above this
	highFlowIntensity   = 0.05
	unitInflowTolerance = 0.20 // creation/redemption unit cross-check
	shareInflowTolerance = 0.15 // shares-change cross-check

	minPlausiblePrice = 100
	maxPlausiblePrice = 800
)

// Validate applies the full rule set to a normalized snapshot. Pure: no I/O,
// input is not mutated, all rule groups always run. The snapshot is valid iff
// the outcome's error list is empty; warnings never block ingestion.
func Validate(snap *models.FlowSnapshot) *models.ValidationOutcome {
	outcome := &models.ValidationOutcome{}

	validateRequiredFields(snap, outcome)
	validateDataLogic(snap, outcome)
	validateScaleReasonableness(snap, outcome)
	validateDataConsistency(snap, outcome)

	return outcome
}

func validateRequiredFields(snap *models.FlowSnapshot, out *models.ValidationOutcome) {
	if snap.DailyNetInflow == nil {
		out.AddError("net inflow data missing")
	}
	if snap.MarketPrice == nil || *snap.MarketPrice <= 0 {
		out.AddError("market price data invalid")
	}
	if snap.AUM == nil || *snap.AUM <= 0 {
		out.AddError("AUM data invalid")
	}
	if snap.SharesOutstanding == nil || *snap.SharesOutstanding <= 0 {
		out.AddError("shares outstanding data invalid")
	}
	if snap.DataSource == "" {
		out.AddError("data source missing")
	}
}

func validateDataLogic(snap *models.FlowSnapshot, out *models.ValidationOutcome) {
	// Net inflow should reconcile with total inflow minus total outflow.
	if snap.TotalInflow != nil && snap.TotalOutflow != nil && snap.DailyNetInflow != nil {
		calculated := *snap.TotalInflow - *snap.TotalOutflow
		reported := *snap.DailyNetInflow
		diff := math.Abs(calculated - reported)

		if math.Abs(reported) > 0 {
			threshold := math.Abs(reported) * netInflowTolerance
			if diff > threshold {
				out.AddWarning(fmt.Sprintf("net inflow does not reconcile with totals, difference: %.2f", diff))
			}
		}
	}

	// Market price should trade close to NAV.
	if snap.NAV != nil && snap.MarketPrice != nil {
		priceDiff := math.Abs(*snap.MarketPrice - *snap.NAV)
		threshold := *snap.NAV * navPriceTolerance
		if priceDiff > threshold {
			out.AddWarning(fmt.Sprintf("market price diverges from NAV: %.4f", priceDiff))
		}
	}
}

func validateScaleReasonableness(snap *models.FlowSnapshot, out *models.ValidationOutcome) {
	if snap.AUM != nil && snap.DailyNetInflow != nil {
		// A daily flow above 10% of AUM is treated as corrupt data, not a
		// quality flag.
		maxInflow := *snap.AUM * maxInflowAUMRatio
		if math.Abs(*snap.DailyNetInflow) > maxInflow {
			out.AddError(fmt.Sprintf("daily net inflow exceeds 10%% of AUM, suspected corrupt data: %.2f vs %.2f",
				math.Abs(*snap.DailyNetInflow), maxInflow))
		}

		intensity := math.Abs(*snap.DailyNetInflow) / *snap.AUM
		if intensity > highFlowIntensity {
			out.AddWarning(fmt.Sprintf("flow intensity high: %.2f%%", intensity*100))
		}
	}

	if snap.MarketPrice != nil {
		if *snap.MarketPrice < minPlausiblePrice || *snap.MarketPrice > maxPlausiblePrice {
			out.AddWarning(fmt.Sprintf("market price outside plausible band: %.2f", *snap.MarketPrice))
		}
	}
}

func validateDataConsistency(snap *models.FlowSnapshot, out *models.ValidationOutcome) {
	// Expected inflow from net creation/redemption units.
	if snap.CreationUnits != nil && snap.RedemptionUnits != nil &&
		snap.DailyNetInflow != nil && snap.MarketPrice != nil {

		netUnits := *snap.CreationUnits - *snap.RedemptionUnits
		expected := float64(int64(netUnits)*snap.UnitShares) * *snap.MarketPrice
		actual := *snap.DailyNetInflow
		diff := math.Abs(expected - actual)

		if math.Abs(actual) > 0 {
			threshold := math.Abs(actual) * unitInflowTolerance
			if diff > threshold {
				out.AddWarning(fmt.Sprintf("creation/redemption units inconsistent with net inflow, expected: %.2f, actual: %.2f",
					expected, actual))
			}
		}
	}

	// Expected inflow from the shares-outstanding change.
	if snap.SharesChange != nil && snap.DailyNetInflow != nil &&
		snap.MarketPrice != nil && *snap.MarketPrice > 0 {

		expected := float64(*snap.SharesChange) * *snap.MarketPrice
		actual := *snap.DailyNetInflow
		diff := math.Abs(expected - actual)

		if math.Abs(actual) > 0 {
			threshold := math.Abs(actual) * shareInflowTolerance
			if diff > threshold {
				out.AddWarning(fmt.Sprintf("shares change inconsistent with net inflow, share-based: %.2f, reported: %.2f",
					expected, actual))
			}
		}
	}
}
