package models

// Request models for the read-only flow API. Bound and validated via
// pkg/http.ReadAndValidateRequest.

// DateRequest selects results for a single observation date.
type DateRequest struct {
	Date string `param:"date" validate:"required,datetime=2006-01-02"`
}

// RangeRequest selects results between two dates, inclusive.
type RangeRequest struct {
	Start string `query:"start" validate:"required,datetime=2006-01-02"`
	End   string `query:"end" validate:"required,datetime=2006-01-02"`
}

// RecentRequest selects results for the last N days.
type RecentRequest struct {
	Days int `param:"days" default:"7" validate:"gte=1,lte=365"`
}

// StatsRequest bounds the aggregate statistics window.
type StatsRequest struct {
	Days int `query:"days" default:"30" validate:"gte=1,lte=365"`
}
