package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ericfisherdev/networthvault/internal/domain/model"
	"github.com/ericfisherdev/networthvault/internal/domain/port/driven"
)

// ErrInsufficientHistory means an account does not have enough snapshots for
// the requested calculation.
var ErrInsufficientHistory = errors.New("not enough history for this account")

// minSnapshotDelta is the smallest value change worth a new snapshot when
// recording conditionally. Sub-cent noise does not make history.
var minSnapshotDelta = decimal.New(1, -2) // 0.01

// valueAtWindow bounds how far ValueAt may reach for the nearest snapshot.
const valueAtWindow = 7 * 24 * time.Hour

// HistoryService reads and analyzes the append-only value history. Account
// writes record their own snapshots; this service adds ad-hoc recording,
// performance metrics, and trend fits on top of the stored rows.
type HistoryService struct {
	snapshots driven.SnapshotStore
	logger    *slog.Logger
}

// NewHistoryService creates a new HistoryService.
func NewHistoryService(snapshots driven.SnapshotStore) *HistoryService {
	return &HistoryService{
		snapshots: snapshots,
		logger:    slog.Default(),
	}
}

// GetHistory returns an account's snapshots in ascending timestamp order,
// optionally bounded by inclusive from/to times.
func (s *HistoryService) GetHistory(ctx context.Context, session *Session, accountID string, from, to *time.Time) ([]model.HistoricalSnapshot, error) {
	key, err := session.Key()
	if err != nil {
		return nil, err
	}
	return s.snapshots.History(ctx, key, accountID, from, to)
}

// RecordSnapshot appends one snapshot of the account's current value.
func (s *HistoryService) RecordSnapshot(ctx context.Context, session *Session, account *model.Account, changeType model.ChangeType) error {
	key, err := session.Key()
	if err != nil {
		return err
	}

	snapshot := snapshotFor(account, changeType, time.Now().UTC().Truncate(time.Second))
	if err := snapshot.Validate(); err != nil {
		return err
	}

	return s.snapshots.Append(ctx, key, snapshot)
}

// RecordSnapshotIfChanged appends a snapshot only when the account's value
// moved by at least a cent since the last one. Reports whether a snapshot
// was written.
func (s *HistoryService) RecordSnapshotIfChanged(ctx context.Context, session *Session, account *model.Account, changeType model.ChangeType) (bool, error) {
	key, err := session.Key()
	if err != nil {
		return false, err
	}

	latest, err := s.snapshots.Latest(ctx, key, account.ID)
	if err != nil {
		return false, err
	}

	value := account.CurrentValue()
	if latest != nil && value.Sub(latest.Value).Abs().Cmp(minSnapshotDelta) < 0 {
		return false, nil
	}

	snapshot := snapshotFor(account, changeType, time.Now().UTC().Truncate(time.Second))
	if err := s.snapshots.Append(ctx, key, snapshot); err != nil {
		return false, err
	}

	return true, nil
}

// Metrics summarizes an account's performance over an optional period.
// Needs at least two snapshots in range.
func (s *HistoryService) Metrics(ctx context.Context, session *Session, accountID string, from, to *time.Time) (*model.PerformanceMetrics, error) {
	key, err := session.Key()
	if err != nil {
		return nil, err
	}

	history, err := s.snapshots.History(ctx, key, accountID, from, to)
	if err != nil {
		return nil, err
	}
	if len(history) < 2 {
		return nil, fmt.Errorf("metrics for account %q: %w", accountID, ErrInsufficientHistory)
	}

	start := history[0].Value
	end := history[len(history)-1].Value
	absolute := end.Sub(start)

	percentage := decimal.Zero
	if !start.IsZero() {
		percentage = absolute.Div(start).Mul(decimal.NewFromInt(100))
	}

	sum := decimal.Zero
	minValue := history[0].Value
	maxValue := history[0].Value
	for i := range history {
		v := history[i].Value
		sum = sum.Add(v)
		if v.Cmp(minValue) < 0 {
			minValue = v
		}
		if v.Cmp(maxValue) > 0 {
			maxValue = v
		}
	}
	average := sum.Div(decimal.NewFromInt(int64(len(history))))

	return &model.PerformanceMetrics{
		StartValue:       start,
		EndValue:         end,
		AbsoluteChange:   absolute,
		PercentageChange: percentage,
		TrendDirection:   directionFromPercent(percentage),
		Volatility:       volatility(history),
		AverageValue:     average,
		MinValue:         minValue,
		MaxValue:         maxValue,
		TotalSnapshots:   len(history),
	}, nil
}

// Trend fits a least-squares line through the last days of an account's
// history and classifies its direction. Needs at least three snapshots.
func (s *HistoryService) Trend(ctx context.Context, session *Session, accountID string, days int) (*model.TrendAnalysis, error) {
	key, err := session.Key()
	if err != nil {
		return nil, err
	}

	var from *time.Time
	if days > 0 {
		cutoff := time.Now().UTC().AddDate(0, 0, -days)
		from = &cutoff
	}

	history, err := s.snapshots.History(ctx, key, accountID, from, nil)
	if err != nil {
		return nil, err
	}
	if len(history) < 3 {
		return nil, fmt.Errorf("trend for account %q: %w", accountID, ErrInsufficientHistory)
	}

	return fitTrend(history), nil
}

// ValueAt returns the account's value at the snapshot closest to the given
// date, looking at most a week to either side.
func (s *HistoryService) ValueAt(ctx context.Context, session *Session, accountID string, date time.Time) (decimal.Decimal, error) {
	key, err := session.Key()
	if err != nil {
		return decimal.Zero, err
	}

	from := date.Add(-valueAtWindow)
	to := date.Add(valueAtWindow)

	history, err := s.snapshots.History(ctx, key, accountID, &from, &to)
	if err != nil {
		return decimal.Zero, err
	}
	if len(history) == 0 {
		return decimal.Zero, fmt.Errorf("value of account %q at %s: %w", accountID, date.Format(time.DateOnly), ErrInsufficientHistory)
	}

	closest := history[0]
	best := absDuration(history[0].Timestamp.Sub(date))
	for _, snap := range history[1:] {
		if d := absDuration(snap.Timestamp.Sub(date)); d < best {
			best = d
			closest = snap
		}
	}

	return closest.Value, nil
}

// Cleanup removes snapshots older than keepDays while keeping each account's
// newest one. Returns the number of rows removed.
func (s *HistoryService) Cleanup(ctx context.Context, keepDays int) (int64, error) {
	if keepDays <= 0 {
		return 0, model.NewValidationError("keep_days", "must be positive")
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -keepDays)
	deleted, err := s.snapshots.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if deleted > 0 {
		s.logger.Info("old snapshots removed", "count", deleted, "keep_days", keepDays)
	}

	return deleted, nil
}

// directionFromPercent classifies a whole-period change: more than a percent
// either way counts as a move, anything inside that band is stable.
func directionFromPercent(percentage decimal.Decimal) model.TrendDirection {
	one := decimal.NewFromInt(1)
	switch {
	case percentage.Cmp(one) > 0:
		return model.TrendIncreasing
	case percentage.Cmp(one.Neg()) < 0:
		return model.TrendDecreasing
	default:
		return model.TrendStable
	}
}

// volatility is the population standard deviation of the observed values.
func volatility(history []model.HistoricalSnapshot) float64 {
	n := float64(len(history))
	mean := 0.0
	for i := range history {
		mean += history[i].Value.InexactFloat64()
	}
	mean /= n

	variance := 0.0
	for i := range history {
		d := history[i].Value.InexactFloat64() - mean
		variance += d * d
	}
	variance /= n

	return math.Sqrt(variance)
}

// fitTrend runs a least-squares regression of value against days since the
// first snapshot.
func fitTrend(history []model.HistoricalSnapshot) *model.TrendAnalysis {
	n := float64(len(history))
	first := history[0].Timestamp

	var sumX, sumY, sumXY, sumXX, sumYY float64
	for i := range history {
		x := history[i].Timestamp.Sub(first).Hours() / 24
		y := history[i].Value.InexactFloat64()
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
		sumYY += y * y
	}

	denomX := n*sumXX - sumX*sumX
	denomY := n*sumYY - sumY*sumY
	if denomX == 0 || denomY == 0 {
		// All snapshots at one instant, or a perfectly flat value: nothing
		// to fit.
		return &model.TrendAnalysis{
			Direction:  model.TrendStable,
			Confidence: model.ConfidenceLow,
		}
	}

	slope := (n*sumXY - sumX*sumY) / denomX
	r := (n*sumXY - sumX*sumY) / math.Sqrt(denomX*denomY)
	rSquared := r * r

	direction := model.TrendStable
	switch {
	case slope > 0.1:
		direction = model.TrendIncreasing
	case slope < -0.1:
		direction = model.TrendDecreasing
	}

	confidence := model.ConfidenceLow
	switch {
	case rSquared >= 0.7:
		confidence = model.ConfidenceHigh
	case rSquared >= 0.4:
		confidence = model.ConfidenceMedium
	}

	return &model.TrendAnalysis{
		Direction:  direction,
		Slope:      slope,
		RSquared:   rSquared,
		Confidence: confidence,
	}
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
