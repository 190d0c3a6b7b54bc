package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ericfisherdev/networthvault/internal/domain/model"
	"github.com/ericfisherdev/networthvault/internal/domain/port/driven"
	"github.com/ericfisherdev/networthvault/internal/vaultcrypt"
)

// Compile-time interface satisfaction check.
var _ driven.WatchlistStore = (*WatchlistRepo)(nil)

// WatchlistRepo is the SQLite implementation of the WatchlistStore port
// interface. The symbol column stays plaintext so the UNIQUE constraint can
// hold; notes and price data are sealed into the encrypted_data blob.
type WatchlistRepo struct {
	db *DB
}

// NewWatchlistRepo creates a new WatchlistRepo backed by the given DB.
func NewWatchlistRepo(db *DB) *WatchlistRepo {
	return &WatchlistRepo{db: db}
}

// watchlistPayload is the JSON wire form sealed into encrypted_data.
type watchlistPayload struct {
	Notes              string           `json:"notes,omitempty"`
	CurrentPrice       *decimal.Decimal `json:"current_price,omitempty"`
	DailyChange        *decimal.Decimal `json:"daily_change,omitempty"`
	DailyChangePercent *decimal.Decimal `json:"daily_change_percent,omitempty"`
}

const watchlistColumns = `id, symbol, encrypted_data, added_date, last_price_update, is_demo`

// Insert stores a new watchlist item. Returns driven.ErrSymbolExists when the
// symbol is already tracked.
func (r *WatchlistRepo) Insert(ctx context.Context, key []byte, item *model.WatchlistItem) error {
	blob, err := sealWatchlistPayload(key, item)
	if err != nil {
		return err
	}

	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op.

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM watchlist WHERE symbol = ?)`, item.Symbol).Scan(&exists); err != nil {
		return fmt.Errorf("check watchlist symbol %q: %w", item.Symbol, err)
	}
	if exists != 0 {
		return fmt.Errorf("insert watchlist symbol %q: %w", item.Symbol, driven.ErrSymbolExists)
	}

	const query = `
		INSERT INTO watchlist (id, symbol, encrypted_data, added_date, last_price_update, is_demo)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	isDemo := 0
	if item.IsDemo {
		isDemo = 1
	}

	var lastUpdate any
	if item.LastPriceUpdate != nil {
		lastUpdate = item.LastPriceUpdate.Unix()
	}

	if _, err := tx.ExecContext(ctx, query,
		item.ID, item.Symbol, blob, item.AddedDate.Unix(), lastUpdate, isDemo,
	); err != nil {
		return fmt.Errorf("insert watchlist symbol %q: %w", item.Symbol, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit watchlist symbol %q: %w", item.Symbol, err)
	}

	return nil
}

// GetBySymbol retrieves one watchlist item. Returns
// driven.ErrWatchlistNotFound if the symbol is not tracked.
func (r *WatchlistRepo) GetBySymbol(ctx context.Context, key []byte, symbol string) (*model.WatchlistItem, error) {
	const query = `SELECT ` + watchlistColumns + ` FROM watchlist WHERE symbol = ?`

	item, err := scanWatchlistItem(r.db.Reader.QueryRowContext(ctx, query, symbol), key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get watchlist symbol %q: %w", symbol, driven.ErrWatchlistNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get watchlist symbol %q: %w", symbol, err)
	}

	return item, nil
}

// List returns every watchlist item in the order symbols were added.
func (r *WatchlistRepo) List(ctx context.Context, key []byte) ([]model.WatchlistItem, error) {
	const query = `SELECT ` + watchlistColumns + ` FROM watchlist ORDER BY added_date, id`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query watchlist: %w", err)
	}
	defer rows.Close()

	var items []model.WatchlistItem
	for rows.Next() {
		item, err := scanWatchlistItem(rows, key)
		if err != nil {
			return nil, fmt.Errorf("scan watchlist item: %w", err)
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watchlist: %w", err)
	}

	return items, nil
}

// Update rewrites an existing watchlist item by id. Returns
// driven.ErrWatchlistNotFound if the id does not exist.
func (r *WatchlistRepo) Update(ctx context.Context, key []byte, item *model.WatchlistItem) error {
	blob, err := sealWatchlistPayload(key, item)
	if err != nil {
		return err
	}

	const query = `
		UPDATE watchlist
		SET symbol = ?, encrypted_data = ?, last_price_update = ?, is_demo = ?
		WHERE id = ?
	`

	isDemo := 0
	if item.IsDemo {
		isDemo = 1
	}

	var lastUpdate any
	if item.LastPriceUpdate != nil {
		lastUpdate = item.LastPriceUpdate.Unix()
	}

	result, err := r.db.Writer.ExecContext(ctx, query, item.Symbol, blob, lastUpdate, isDemo, item.ID)
	if err != nil {
		return fmt.Errorf("update watchlist symbol %q: %w", item.Symbol, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update watchlist symbol %q: %w", item.Symbol, driven.ErrWatchlistNotFound)
	}

	return nil
}

// Delete removes a symbol from the watchlist. Returns
// driven.ErrWatchlistNotFound if the symbol is not tracked.
func (r *WatchlistRepo) Delete(ctx context.Context, symbol string) error {
	const query = `DELETE FROM watchlist WHERE symbol = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, symbol)
	if err != nil {
		return fmt.Errorf("delete watchlist symbol %q: %w", symbol, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete watchlist symbol %q: %w", symbol, driven.ErrWatchlistNotFound)
	}

	return nil
}

// DeleteDemo removes every demo watchlist item and returns how many were
// deleted.
func (r *WatchlistRepo) DeleteDemo(ctx context.Context) (int64, error) {
	const query = `DELETE FROM watchlist WHERE is_demo = 1`

	result, err := r.db.Writer.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("delete demo watchlist items: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check rows affected: %w", err)
	}

	return rows, nil
}

// DeleteAll wipes the watchlist ahead of a replace-mode import. Returns the
// number of items removed.
func (r *WatchlistRepo) DeleteAll(ctx context.Context) (int64, error) {
	const query = `DELETE FROM watchlist`

	result, err := r.db.Writer.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("delete all watchlist items: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check rows affected: %w", err)
	}

	return rows, nil
}

func sealWatchlistPayload(key []byte, item *model.WatchlistItem) ([]byte, error) {
	payload := watchlistPayload{
		Notes:              item.Notes,
		CurrentPrice:       item.CurrentPrice,
		DailyChange:        item.DailyChange,
		DailyChangePercent: item.DailyChangePercent,
	}

	plaintext, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal watchlist payload for %q: %w", item.Symbol, err)
	}

	blob, err := vaultcrypt.Encrypt(key, plaintext)
	if err != nil {
		return nil, fmt.Errorf("encrypt watchlist payload for %q: %w", item.Symbol, err)
	}

	return blob, nil
}

func scanWatchlistItem(s scanner, key []byte) (*model.WatchlistItem, error) {
	var item model.WatchlistItem
	var blob []byte
	var addedDate int64
	var lastUpdate sql.NullInt64
	var isDemo int

	err := s.Scan(&item.ID, &item.Symbol, &blob, &addedDate, &lastUpdate, &isDemo)
	if err != nil {
		return nil, err
	}

	item.AddedDate = time.Unix(addedDate, 0).UTC()
	item.IsDemo = isDemo != 0

	if lastUpdate.Valid {
		updated := time.Unix(lastUpdate.Int64, 0).UTC()
		item.LastPriceUpdate = &updated
	}

	plaintext, err := vaultcrypt.Decrypt(key, blob)
	if err != nil {
		return nil, fmt.Errorf("decrypt watchlist payload for %q: %w", item.Symbol, err)
	}

	var payload watchlistPayload
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return nil, fmt.Errorf("decode watchlist payload for %q: %w", item.Symbol, err)
	}

	item.Notes = payload.Notes
	item.CurrentPrice = payload.CurrentPrice
	item.DailyChange = payload.DailyChange
	item.DailyChangePercent = payload.DailyChangePercent

	return &item, nil
}
