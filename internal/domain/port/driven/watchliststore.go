package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/networthvault/internal/domain/model"
)

var (
	// ErrWatchlistNotFound indicates the requested watchlist item does not exist.
	ErrWatchlistNotFound = errors.New("watchlist item not found")

	// ErrSymbolExists indicates the symbol is already on the watchlist.
	ErrSymbolExists = errors.New("symbol already on watchlist")
)

// WatchlistStore persists tracked symbols. Notes and price data are encrypted
// at rest; the symbol column stays plaintext so the database can enforce
// uniqueness.
type WatchlistStore interface {
	Insert(ctx context.Context, key []byte, item *model.WatchlistItem) error
	GetBySymbol(ctx context.Context, key []byte, symbol string) (*model.WatchlistItem, error)
	List(ctx context.Context, key []byte) ([]model.WatchlistItem, error)
	Update(ctx context.Context, key []byte, item *model.WatchlistItem) error
	Delete(ctx context.Context, symbol string) error
	DeleteDemo(ctx context.Context) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
}
