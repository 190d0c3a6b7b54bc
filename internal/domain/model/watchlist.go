package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// watchlistSymbolPattern constrains symbols to 1-10 characters of uppercase
// letters, digits, dots, and hyphens (covers tickers like BRK.B).
var watchlistSymbolPattern = regexp.MustCompile(`^[A-Z0-9.-]{1,10}$`)

// WatchlistItem is a tracked stock symbol that is not (yet) held in any
// trading account. The symbol stays plaintext so uniqueness can be enforced
// by the database; notes and price data are encrypted at rest.
type WatchlistItem struct {
	ID                 string
	Symbol             string
	Notes              string
	AddedDate          time.Time
	CurrentPrice       *decimal.Decimal
	LastPriceUpdate    *time.Time
	DailyChange        *decimal.Decimal
	DailyChangePercent *decimal.Decimal
	IsDemo             bool
}

// NormalizeSymbol uppercases and trims a ticker symbol.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Validate checks the item's field invariants. Symbols must already be
// normalized when this is called.
func (w *WatchlistItem) Validate() error {
	if !watchlistSymbolPattern.MatchString(w.Symbol) {
		return NewValidationError("symbol", fmt.Sprintf("%q is not a valid ticker symbol", w.Symbol))
	}
	if w.AddedDate.IsZero() {
		return NewValidationError("added_date", "cannot be zero")
	}
	if w.CurrentPrice != nil && w.CurrentPrice.Sign() <= 0 {
		return NewValidationError("current_price", "must be positive")
	}
	return nil
}

// UpdatePrice records a fresh quote on the item.
func (w *WatchlistItem) UpdatePrice(price decimal.Decimal, change, changePercent *decimal.Decimal, at time.Time) {
	w.CurrentPrice = &price
	w.DailyChange = change
	w.DailyChangePercent = changePercent
	w.LastPriceUpdate = &at
}
