package models

import "time"

// Default classification dimensions for the tracked instrument. Applied when
// no dimension-specific input exists.
const (
	DefaultGeographicDimension = "North America"
	DefaultCurrencyDimension   = "USD"
	DefaultMarketCapDimension  = "Large Cap"
	DefaultSectorDimension     = "Broad Market"
)

// FlowResult is the computed outcome for one observation date. Derived
// deterministically from exactly one RawSnapshot; persisted once, broadcast
// once, never mutated.
type FlowResult struct {
	DataDate  Date      `json:"dataDate"`
	Timestamp time.Time `json:"timestamp"`

	FinalNetInflow *float64 `json:"finalNetInflow"`
	FlowIntensity  float64  `json:"flowIntensity"`

	// Per-source contribution amounts.
	EtfComContribution *float64 `json:"etfComContribution,omitempty"`
	YahooContribution  *float64 `json:"yahooContribution,omitempty"`

	PrimarySource string `json:"primarySource"`

	OverallConfidence int  `json:"overallConfidence"`
	DataQualityScore  int  `json:"dataQualityScore"`
	ValidationPassed  bool `json:"validationPassed"`

	GeographicDimension string `json:"geographicDimension"`
	CurrencyDimension   string `json:"currencyDimension"`
	MarketCapDimension  string `json:"marketCapDimension"`
	SectorDimension     string `json:"sectorDimension"`

	CreatedAt time.Time `json:"createdAt"`
}

// ConfidenceStats aggregates overall confidence over a date window.
type ConfidenceStats struct {
	Average float64 `json:"average"`
	Minimum float64 `json:"minimum"`
	Maximum float64 `json:"maximum"`
}

// NetInflowStats aggregates final net inflow over a date window.
type NetInflowStats struct {
	Total   float64 `json:"total"`
	Average float64 `json:"average"`
	Count   int64   `json:"count"`
}

// SourceAvailability counts snapshots per data source over a date window.
type SourceAvailability struct {
	DataSource    string  `json:"dataSource"`
	Snapshots     int64   `json:"snapshots"`
	AvgConfidence float64 `json:"avgConfidence"`
}
