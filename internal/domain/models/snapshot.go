package models

import "time"

// Well-known source identifiers. SourceYahoo is the designated
// primary-reliability source.
const (
	SourceYahoo        = "YAHOO_FINANCE"
	SourceAlphaVantage = "ALPHA_VANTAGE"

	// BackupPrefix tags snapshots persisted from a failover source.
	BackupPrefix = "BACKUP_"
)

// FlowSnapshot is one normalized instrument observation as returned by a
// source adapter. Numeric fields are pointers so that "absent" is
// distinguishable from zero; required-field validation relies on that.
type FlowSnapshot struct {
	Ticker   string
	DataDate Date

	AUM               *float64
	SharesOutstanding *int64
	NAV               *float64
	MarketPrice       *float64

	DailyNetInflow *float64
	TotalInflow    *float64
	TotalOutflow   *float64

	CreationUnits   *int
	RedemptionUnits *int
	SharesChange    *int64

	DataSource      string
	ConfidenceScore *int

	// UnitShares is the adapter-supplied share count per creation/redemption
	// unit, used by the cross-field consistency checks. It differs per
	// instrument and must not be hardcoded outside the adapter config.
	UnitShares int64
}

// RawSnapshot is a persisted FlowSnapshot enriched with locally recomputed
// cross-check figures. Unique per (DataDate, DataSource); immutable once
// saved, superseded only by a snapshot with a different source tag.
type RawSnapshot struct {
	DataDate  Date      `json:"dataDate"`
	Timestamp time.Time `json:"timestamp"`
	Ticker    string    `json:"ticker"`

	AUM               *float64 `json:"aum"`
	SharesOutstanding *int64   `json:"sharesOutstanding"`
	NAV               *float64 `json:"nav"`
	MarketPrice       *float64 `json:"marketPrice"`

	DailyNetInflow *float64 `json:"dailyNetInflow"`
	TotalInflow    *float64 `json:"totalInflow"`
	TotalOutflow   *float64 `json:"totalOutflow"`

	CreationUnits   *int   `json:"creationUnits"`
	RedemptionUnits *int   `json:"redemptionUnits"`
	SharesChange    *int64 `json:"sharesChange"`

	// CalculatedInflow is market price times shares change, recomputed at
	// ingestion time as a cross-check against the reported net inflow.
	CalculatedInflow *float64 `json:"calculatedInflow"`
	// FlowIntensity is net inflow over AUM, signed.
	FlowIntensity *float64 `json:"flowIntensity"`

	DataSource      string `json:"dataSource"`
	ConfidenceScore *int   `json:"confidenceScore"`

	CreatedAt time.Time `json:"createdAt"`
}

// Float returns a pointer to v. Convenience for optional snapshot fields.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Int64 returns a pointer to v.
func Int64(v int64) *int64 { return &v }
