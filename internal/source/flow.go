package source

import (
	"math"
	"math/rand"
	"time"

	"FundFlow/internal/domain/models"
)

// Instrument constants for SPY. AUM and shares outstanding are approximate
// published figures; providers in use do not expose them per request.
const (
	ticker            = "SPY"
	instrumentAUM     = 450_000_000_000
	sharesOutstanding = 935_000_000

	baseFlowMagnitude = 500_000_000
	unitNotional      = 24_000_000
)

// approximateFlows derives net-inflow figures from the day's price movement.
// This is a documented approximation standing in for a real ETF flow feed:
// price direction proxies flow direction, scaled by a base magnitude and a
// small random factor. It must stay behind the adapter boundary so a real
// feed can replace it without touching validation, scoring or collection.
func approximateFlows(price, previousClose float64) (netInflow float64, creationUnits, redemptionUnits int, sharesChange int64) {
	changePercent := (price - previousClose) / previousClose
	netInflow = changePercent * baseFlowMagnitude * 10

	randomFactor := 0.8 + rand.Float64()*0.4
	netInflow *= randomFactor

	if netInflow > 0 {
		creationUnits = int(math.Round(netInflow / unitNotional))
	} else if netInflow < 0 {
		redemptionUnits = int(math.Round(-netInflow / unitNotional))
	}
	sharesChange = int64(math.Round(netInflow / price))
	return netInflow, creationUnits, redemptionUnits, sharesChange
}

// NewSnapshot builds a normalized snapshot from a quote. All numeric fields
// are set; absence only arises when a provider omits data upstream.
func NewSnapshot(sourceName string, confidence int, unitShares int64, price, previousClose float64) *models.FlowSnapshot {
	netInflow, creationUnits, redemptionUnits, sharesChange := approximateFlows(price, previousClose)

	return &models.FlowSnapshot{
		Ticker:            ticker,
		DataDate:          models.DateOf(time.Now().UTC()),
		AUM:               models.Float(instrumentAUM),
		SharesOutstanding: models.Int64(sharesOutstanding),
		NAV:               models.Float(price), // NAV tracks market price closely
		MarketPrice:       models.Float(price),
		DailyNetInflow:    models.Float(netInflow),
		TotalInflow:       models.Float(math.Max(netInflow, 0)),
		TotalOutflow:      models.Float(math.Abs(math.Min(netInflow, 0))),
		CreationUnits:     models.Int(creationUnits),
		RedemptionUnits:   models.Int(redemptionUnits),
		SharesChange:      models.Int64(sharesChange),
		DataSource:        sourceName,
		ConfidenceScore:   models.Int(confidence),
		UnitShares:        unitShares,
	}
}
