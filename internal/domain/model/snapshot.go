package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// HistoricalSnapshot is an immutable point-in-time record of an account's
// value. Snapshots are only ever appended; they are removed solely by the
// cascade when their parent account is deleted.
type HistoricalSnapshot struct {
	ID         string
	AccountID  string
	Timestamp  time.Time
	Value      decimal.Decimal
	ChangeType ChangeType
	// Metadata carries context about the change (account name, type,
	// institution at the time of the snapshot). It is encrypted at rest.
	Metadata map[string]string
}

// Validate checks the snapshot's field invariants.
func (s *HistoricalSnapshot) Validate() error {
	if s.AccountID == "" {
		return NewValidationError("account_id", "cannot be empty")
	}
	if s.Timestamp.IsZero() {
		return NewValidationError("timestamp", "cannot be zero")
	}
	if !s.ChangeType.Valid() {
		return NewValidationError("change_type", "unknown change type")
	}
	return nil
}

// PerformanceMetrics summarizes how an account behaved over a period.
// Volatility is the population standard deviation of the observed values.
type PerformanceMetrics struct {
	StartValue       decimal.Decimal
	EndValue         decimal.Decimal
	AbsoluteChange   decimal.Decimal
	PercentageChange decimal.Decimal
	TrendDirection   TrendDirection
	Volatility       float64
	AverageValue     decimal.Decimal
	MinValue         decimal.Decimal
	MaxValue         decimal.Decimal
	TotalSnapshots   int
}

// Confidence buckets for a trend fit, derived from its RSquared.
const (
	ConfidenceHigh   = "HIGH"
	ConfidenceMedium = "MEDIUM"
	ConfidenceLow    = "LOW"
)

// TrendAnalysis is a least-squares fit over an account's recent history.
type TrendAnalysis struct {
	Direction TrendDirection
	// Slope is the fitted rate of change in value per day.
	Slope float64
	// RSquared is the squared correlation coefficient of the fit, 0 to 1.
	RSquared float64
	// Confidence buckets RSquared: HIGH >= 0.7, MEDIUM >= 0.4, else LOW.
	Confidence string
}
