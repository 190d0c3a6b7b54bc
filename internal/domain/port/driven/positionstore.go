package driven

import (
	"context"

	"github.com/ericfisherdev/networthvault/internal/domain/model"
)

// PositionStore reads the plaintext stock_positions projection. The rows are
// written by AccountStore inside the account transaction so the projection
// can never drift from the encrypted trading payload.
type PositionStore interface {
	// ListByAccount returns a trading account's positions ordered by symbol.
	ListByAccount(ctx context.Context, accountID string) ([]model.StockPosition, error)

	// ListSymbols returns the distinct symbols held across all trading
	// accounts, ordered alphabetically. Feeds price-refresh runs.
	ListSymbols(ctx context.Context) ([]string, error)

	// CountByAccount returns the number of projected positions for an account.
	CountByAccount(ctx context.Context, accountID string) (int64, error)
}
