package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ericfisherdev/networthvault/internal/domain/model"
	"github.com/ericfisherdev/networthvault/internal/domain/port/driven"
	"github.com/ericfisherdev/networthvault/internal/vaultcrypt"
)

// Compile-time interface satisfaction check.
var _ driven.AccountStore = (*AccountRepo)(nil)

// AccountRepo is the SQLite implementation of the AccountStore port interface.
// Payloads are encrypted with AES-256-GCM before write and decrypted after
// read; the searchable columns (name, institution, type) stay plaintext.
type AccountRepo struct {
	db *DB
}

// NewAccountRepo creates a new AccountRepo backed by the given DB.
func NewAccountRepo(db *DB) *AccountRepo {
	return &AccountRepo{db: db}
}

const accountColumns = `id, name, institution, type, encrypted_data, created_date, last_updated, schema_version, is_demo`

// Insert stores a new account. When snapshot is non-nil it is appended in the
// same transaction, so the account and its opening history entry either both
// land or neither does. Returns driven.ErrAccountExists if the id is taken.
func (r *AccountRepo) Insert(ctx context.Context, key []byte, account *model.Account, snapshot *model.HistoricalSnapshot) error {
	blob, err := sealPayload(key, account)
	if err != nil {
		return err
	}

	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op.

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM accounts WHERE id = ?)`, account.ID).Scan(&exists); err != nil {
		return fmt.Errorf("check account %q: %w", account.ID, err)
	}
	if exists != 0 {
		return fmt.Errorf("insert account %q: %w", account.ID, driven.ErrAccountExists)
	}

	const query = `
		INSERT INTO accounts (id, name, institution, type, encrypted_data, created_date, last_updated, schema_version, is_demo)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	isDemo := 0
	if account.IsDemo {
		isDemo = 1
	}

	if _, err := tx.ExecContext(ctx, query,
		account.ID, account.Name, account.Institution, string(account.Type), blob,
		account.CreatedDate.Unix(), account.LastUpdated.Unix(), account.SchemaVersion, isDemo,
	); err != nil {
		return fmt.Errorf("insert account %q: %w", account.ID, err)
	}

	if err := syncPositions(ctx, tx, account); err != nil {
		return err
	}

	if snapshot != nil {
		if err := insertSnapshot(ctx, tx, key, snapshot); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit account %q: %w", account.ID, err)
	}

	return nil
}

// Get retrieves one account by id and opens its payload with the key.
// Returns driven.ErrAccountNotFound if the id does not exist.
func (r *AccountRepo) Get(ctx context.Context, key []byte, id string) (*model.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE id = ?`

	row, err := scanAccountRow(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get account %q: %w", id, driven.ErrAccountNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get account %q: %w", id, err)
	}

	return decodeAccount(row, key)
}

// List returns every account matching the filter, one AccountRow per stored
// row. A row whose payload cannot be decrypted or decoded comes back with Err
// set and its plaintext id, so one corrupt record never hides the rest.
func (r *AccountRepo) List(ctx context.Context, key []byte, filter driven.AccountFilter) ([]driven.AccountRow, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts`

	var conds []string
	var args []any
	if filter.Type != "" {
		conds = append(conds, "type = ?")
		args = append(args, string(filter.Type))
	}
	if filter.Demo != nil {
		demo := 0
		if *filter.Demo {
			demo = 1
		}
		conds = append(conds, "is_demo = ?")
		args = append(args, demo)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_date, id"

	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var results []driven.AccountRow
	for rows.Next() {
		row, err := scanAccountRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}

		account, err := decodeAccount(row, key)
		if err != nil {
			results = append(results, driven.AccountRow{ID: row.id, Err: err})
			continue
		}
		results = append(results, driven.AccountRow{ID: row.id, Account: account})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}

	return results, nil
}

// Update rewrites an existing account. When snapshot is non-nil it is
// appended in the same transaction as the row change. Returns
// driven.ErrAccountNotFound if the id does not exist. created_date is never
// touched.
func (r *AccountRepo) Update(ctx context.Context, key []byte, account *model.Account, snapshot *model.HistoricalSnapshot) error {
	blob, err := sealPayload(key, account)
	if err != nil {
		return err
	}

	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op.

	const query = `
		UPDATE accounts
		SET name = ?, institution = ?, type = ?, encrypted_data = ?, last_updated = ?, schema_version = ?, is_demo = ?
		WHERE id = ?
	`

	isDemo := 0
	if account.IsDemo {
		isDemo = 1
	}

	result, err := tx.ExecContext(ctx, query,
		account.Name, account.Institution, string(account.Type), blob,
		account.LastUpdated.Unix(), account.SchemaVersion, isDemo, account.ID,
	)
	if err != nil {
		return fmt.Errorf("update account %q: %w", account.ID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update account %q: %w", account.ID, driven.ErrAccountNotFound)
	}

	if err := syncPositions(ctx, tx, account); err != nil {
		return err
	}

	if snapshot != nil {
		if err := insertSnapshot(ctx, tx, key, snapshot); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit account %q: %w", account.ID, err)
	}

	return nil
}

// Delete removes an account. Snapshots and projected positions go with it via
// the foreign-key cascade. Deleting an id that does not exist is a no-op.
func (r *AccountRepo) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM accounts WHERE id = ?`

	if _, err := r.db.Writer.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete account %q: %w", id, err)
	}

	return nil
}

// DeleteDemo removes every demo account and returns how many were deleted.
// Their snapshots and positions cascade away with them.
func (r *AccountRepo) DeleteDemo(ctx context.Context) (int64, error) {
	const query = `DELETE FROM accounts WHERE is_demo = 1`

	result, err := r.db.Writer.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("delete demo accounts: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check rows affected: %w", err)
	}

	return rows, nil
}

// DeleteAll wipes every account ahead of a replace-mode import. Snapshots
// and positions cascade away. Returns the number of accounts removed.
func (r *AccountRepo) DeleteAll(ctx context.Context) (int64, error) {
	const query = `DELETE FROM accounts`

	result, err := r.db.Writer.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("delete all accounts: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check rows affected: %w", err)
	}

	return rows, nil
}

// Count returns the total number of stored accounts.
func (r *AccountRepo) Count(ctx context.Context) (int64, error) {
	const query = `SELECT COUNT(*) FROM accounts`

	var count int64
	if err := r.db.Reader.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count accounts: %w", err)
	}

	return count, nil
}

// sealPayload serializes the account's payload and encrypts it into the blob
// stored in the encrypted_data column.
func sealPayload(key []byte, account *model.Account) ([]byte, error) {
	plaintext, err := model.MarshalPayload(account.Payload)
	if err != nil {
		return nil, err
	}

	blob, err := vaultcrypt.Encrypt(key, plaintext)
	if err != nil {
		return nil, fmt.Errorf("encrypt payload for account %q: %w", account.ID, err)
	}

	return blob, nil
}

// syncPositions rebuilds the plaintext stock_positions projection for one
// account inside the caller's transaction. Non-trading accounts end up with
// no rows, which also clears stale rows if an account ever changes type.
func syncPositions(ctx context.Context, tx *sql.Tx, account *model.Account) error {
	const deleteQuery = `DELETE FROM stock_positions WHERE trading_account_id = ?`
	if _, err := tx.ExecContext(ctx, deleteQuery, account.ID); err != nil {
		return fmt.Errorf("clear positions for account %q: %w", account.ID, err)
	}

	trading, ok := account.Payload.(*model.TradingPayload)
	if !ok {
		return nil
	}

	const insertQuery = `
		INSERT INTO stock_positions (id, trading_account_id, symbol, shares, purchase_price, purchase_date, current_price, last_price_update)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	for i := range trading.Positions {
		p := &trading.Positions[i]

		var currentPrice, lastUpdate any
		if p.CurrentPrice != nil {
			currentPrice = p.CurrentPrice.String()
		}
		if p.LastPriceUpdate != nil {
			lastUpdate = p.LastPriceUpdate.Unix()
		}

		if _, err := tx.ExecContext(ctx, insertQuery,
			p.ID, account.ID, p.Symbol, p.Shares.String(), p.PurchasePrice.String(),
			p.PurchaseDate.Unix(), currentPrice, lastUpdate,
		); err != nil {
			return fmt.Errorf("project position %s for account %q: %w", p.Symbol, account.ID, err)
		}
	}

	return nil
}

// accountRow holds one scanned accounts row before the payload is opened.
type accountRow struct {
	id            string
	name          string
	institution   string
	typ           string
	blob          []byte
	createdDate   int64
	lastUpdated   int64
	schemaVersion int
	isDemo        int
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanAccountRow(s scanner) (accountRow, error) {
	var row accountRow
	err := s.Scan(
		&row.id, &row.name, &row.institution, &row.typ, &row.blob,
		&row.createdDate, &row.lastUpdated, &row.schemaVersion, &row.isDemo,
	)
	return row, err
}

// decodeAccount opens a scanned row's payload with the key and assembles the
// domain account. Decrypt failures surface vaultcrypt.ErrAuthenticationFailed
// so callers can tell a bad key or corrupt blob from a malformed payload.
func decodeAccount(row accountRow, key []byte) (*model.Account, error) {
	plaintext, err := vaultcrypt.Decrypt(key, row.blob)
	if err != nil {
		return nil, fmt.Errorf("decrypt payload for account %q: %w", row.id, err)
	}

	payload, err := model.UnmarshalPayload(model.AccountType(row.typ), plaintext)
	if err != nil {
		return nil, fmt.Errorf("decode payload for account %q: %w", row.id, err)
	}

	return &model.Account{
		ID:            row.id,
		Name:          row.name,
		Institution:   row.institution,
		Type:          model.AccountType(row.typ),
		CreatedDate:   time.Unix(row.createdDate, 0).UTC(),
		LastUpdated:   time.Unix(row.lastUpdated, 0).UTC(),
		SchemaVersion: row.schemaVersion,
		IsDemo:        row.isDemo != 0,
		Payload:       payload,
	}, nil
}

// parseDecimal converts a TEXT money column back to a decimal, naming the
// column in the error.
func parseDecimal(column, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse %s %q: %w", column, s, err)
	}
	return d, nil
}
