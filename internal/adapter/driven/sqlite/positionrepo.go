package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ericfisherdev/networthvault/internal/domain/model"
	"github.com/ericfisherdev/networthvault/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.PositionStore = (*PositionRepo)(nil)

// PositionRepo reads the plaintext stock_positions projection. It never
// writes; rows are maintained by AccountRepo inside the account transaction.
type PositionRepo struct {
	db *DB
}

// NewPositionRepo creates a new PositionRepo backed by the given DB.
func NewPositionRepo(db *DB) *PositionRepo {
	return &PositionRepo{db: db}
}

// ListByAccount returns a trading account's projected positions ordered by
// symbol. An account with no positions (or no such account) yields an empty
// slice.
func (r *PositionRepo) ListByAccount(ctx context.Context, accountID string) ([]model.StockPosition, error) {
	const query = `
		SELECT id, symbol, shares, purchase_price, purchase_date, current_price, last_price_update
		FROM stock_positions
		WHERE trading_account_id = ?
		ORDER BY symbol, id
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("query positions for account %q: %w", accountID, err)
	}
	defer rows.Close()

	var positions []model.StockPosition
	for rows.Next() {
		pos, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		positions = append(positions, *pos)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate positions: %w", err)
	}

	return positions, nil
}

// ListSymbols returns the distinct symbols held across all trading accounts,
// alphabetically. Feeds price-refresh runs.
func (r *PositionRepo) ListSymbols(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT symbol FROM stock_positions ORDER BY symbol`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query position symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		symbols = append(symbols, symbol)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate symbols: %w", err)
	}

	return symbols, nil
}

// CountByAccount returns the number of projected positions for an account.
func (r *PositionRepo) CountByAccount(ctx context.Context, accountID string) (int64, error) {
	const query = `SELECT COUNT(*) FROM stock_positions WHERE trading_account_id = ?`

	var count int64
	if err := r.db.Reader.QueryRowContext(ctx, query, accountID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count positions for account %q: %w", accountID, err)
	}

	return count, nil
}

func scanPosition(s scanner) (*model.StockPosition, error) {
	var pos model.StockPosition
	var shares, purchasePrice string
	var purchaseDate int64
	var currentPrice sql.NullString
	var lastPriceUpdate sql.NullInt64

	err := s.Scan(&pos.ID, &pos.Symbol, &shares, &purchasePrice, &purchaseDate, &currentPrice, &lastPriceUpdate)
	if err != nil {
		return nil, err
	}

	pos.Shares, err = parseDecimal("shares", shares)
	if err != nil {
		return nil, err
	}

	pos.PurchasePrice, err = parseDecimal("purchase_price", purchasePrice)
	if err != nil {
		return nil, err
	}

	pos.PurchaseDate = time.Unix(purchaseDate, 0).UTC()

	if currentPrice.Valid {
		price, err := parseDecimal("current_price", currentPrice.String)
		if err != nil {
			return nil, err
		}
		pos.CurrentPrice = &price
	}

	if lastPriceUpdate.Valid {
		updated := time.Unix(lastPriceUpdate.Int64, 0).UTC()
		pos.LastPriceUpdate = &updated
	}

	return &pos, nil
}
