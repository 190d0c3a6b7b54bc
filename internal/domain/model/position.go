package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// StockPosition is a single holding inside a trading account. Positions ride
// in the trading payload; the stock_positions table keeps a plaintext
// projection of them for symbol and price queries.
type StockPosition struct {
	ID              string           `json:"id"`
	Symbol          string           `json:"symbol"`
	Shares          decimal.Decimal  `json:"shares"`
	PurchasePrice   decimal.Decimal  `json:"purchase_price"`
	PurchaseDate    time.Time        `json:"purchase_date"`
	CurrentPrice    *decimal.Decimal `json:"current_price,omitempty"`
	LastPriceUpdate *time.Time       `json:"last_price_update,omitempty"`
}

// Validate checks the position's field invariants.
func (p *StockPosition) Validate() error {
	if strings.TrimSpace(p.Symbol) == "" {
		return NewValidationError("symbol", "cannot be empty")
	}
	if p.Shares.Sign() <= 0 {
		return NewValidationError("shares", "must be positive")
	}
	if p.PurchasePrice.Sign() <= 0 {
		return NewValidationError("purchase_price", "must be positive")
	}
	if p.PurchaseDate.IsZero() || p.PurchaseDate.After(time.Now()) {
		return NewValidationError("purchase_date", "cannot be in the future")
	}
	if p.CurrentPrice != nil && p.CurrentPrice.Sign() <= 0 {
		return NewValidationError("current_price", "must be positive")
	}
	return nil
}

// MarketValue is shares times the current price, falling back to the
// purchase price when no quote has been recorded yet.
func (p *StockPosition) MarketValue() decimal.Decimal {
	price := p.PurchasePrice
	if p.CurrentPrice != nil {
		price = *p.CurrentPrice
	}
	return p.Shares.Mul(price)
}

// UnrealizedGainLoss is the gain or loss versus the purchase price; zero
// until a current price is known.
func (p *StockPosition) UnrealizedGainLoss() decimal.Decimal {
	if p.CurrentPrice == nil {
		return decimal.Zero
	}
	return p.CurrentPrice.Sub(p.PurchasePrice).Mul(p.Shares)
}

// UnrealizedGainLossPercent is the unrealized gain or loss as a percentage
// of the purchase price; zero until a current price is known.
func (p *StockPosition) UnrealizedGainLossPercent() decimal.Decimal {
	if p.CurrentPrice == nil || p.PurchasePrice.IsZero() {
		return decimal.Zero
	}
	return p.CurrentPrice.Sub(p.PurchasePrice).Div(p.PurchasePrice).Mul(decimal.NewFromInt(100))
}
