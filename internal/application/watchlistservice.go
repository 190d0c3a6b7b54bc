package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ericfisherdev/networthvault/internal/domain/model"
	"github.com/ericfisherdev/networthvault/internal/domain/port/driven"
)

// WatchlistService manages the tracked-symbols list.
type WatchlistService struct {
	watchlist driven.WatchlistStore
	logger    *slog.Logger
}

// NewWatchlistService creates a new WatchlistService.
func NewWatchlistService(watchlist driven.WatchlistStore) *WatchlistService {
	return &WatchlistService{
		watchlist: watchlist,
		logger:    slog.Default(),
	}
}

// AddSymbol puts a new symbol on the watchlist. The symbol is normalized
// before validation, so "aapl " and "AAPL" are the same entry.
func (s *WatchlistService) AddSymbol(ctx context.Context, session *Session, symbol, notes string) (*model.WatchlistItem, error) {
	key, err := session.Key()
	if err != nil {
		return nil, err
	}

	item := &model.WatchlistItem{
		ID:        uuid.NewString(),
		Symbol:    model.NormalizeSymbol(symbol),
		Notes:     notes,
		AddedDate: time.Now().UTC().Truncate(time.Second),
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}

	if err := s.watchlist.Insert(ctx, key, item); err != nil {
		return nil, err
	}

	s.logger.Info("symbol added to watchlist", "symbol", item.Symbol)
	return item, nil
}

// GetSymbol returns one watchlist entry by its (normalized) symbol.
func (s *WatchlistService) GetSymbol(ctx context.Context, session *Session, symbol string) (*model.WatchlistItem, error) {
	key, err := session.Key()
	if err != nil {
		return nil, err
	}
	return s.watchlist.GetBySymbol(ctx, key, model.NormalizeSymbol(symbol))
}

// GetWatchlist returns every watchlist entry, oldest first.
func (s *WatchlistService) GetWatchlist(ctx context.Context, session *Session) ([]model.WatchlistItem, error) {
	key, err := session.Key()
	if err != nil {
		return nil, err
	}
	return s.watchlist.List(ctx, key)
}

// RecordQuote stores a fresh price quote on a watchlist entry.
func (s *WatchlistService) RecordQuote(ctx context.Context, session *Session, symbol string, price decimal.Decimal, change, changePercent *decimal.Decimal) (*model.WatchlistItem, error) {
	key, err := session.Key()
	if err != nil {
		return nil, err
	}

	item, err := s.watchlist.GetBySymbol(ctx, key, model.NormalizeSymbol(symbol))
	if err != nil {
		return nil, err
	}

	item.UpdatePrice(price, change, changePercent, time.Now().UTC().Truncate(time.Second))
	if err := item.Validate(); err != nil {
		return nil, err
	}

	if err := s.watchlist.Update(ctx, key, item); err != nil {
		return nil, err
	}

	return item, nil
}

// RemoveSymbol takes a symbol off the watchlist.
func (s *WatchlistService) RemoveSymbol(ctx context.Context, symbol string) error {
	normalized := model.NormalizeSymbol(symbol)
	if err := s.watchlist.Delete(ctx, normalized); err != nil {
		return err
	}
	s.logger.Info("symbol removed from watchlist", "symbol", normalized)
	return nil
}

// PurgeDemoItems deletes every demo watchlist entry.
func (s *WatchlistService) PurgeDemoItems(ctx context.Context) (int64, error) {
	deleted, err := s.watchlist.DeleteDemo(ctx)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.logger.Info("demo watchlist entries purged", "count", deleted)
	}
	return deleted, nil
}
