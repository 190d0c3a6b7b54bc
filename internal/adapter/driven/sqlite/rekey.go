package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ericfisherdev/networthvault/internal/domain/port/driven"
	"github.com/ericfisherdev/networthvault/internal/vaultcrypt"
)

// Compile-time interface satisfaction check.
var _ driven.Rekeyer = (*RekeyRepo)(nil)

// RekeyRepo re-encrypts the vault's sealed blobs under a new key. Everything
// happens in one writer transaction: a single blob that fails to open rolls
// the whole rotation back, leaving the vault readable with the old password.
type RekeyRepo struct {
	db *DB
}

// NewRekeyRepo creates a new RekeyRepo backed by the given DB.
func NewRekeyRepo(db *DB) *RekeyRepo {
	return &RekeyRepo{db: db}
}

// rekeyTarget names one encrypted column and the key column that addresses
// its rows.
type rekeyTarget struct {
	table    string
	idColumn string
	column   string
}

var rekeyTargets = []rekeyTarget{
	{table: "accounts", idColumn: "id", column: "encrypted_data"},
	{table: "historical_snapshots", idColumn: "id", column: "encrypted_metadata"},
	{table: "watchlist", idColumn: "id", column: "encrypted_data"},
	{table: "app_settings", idColumn: "key", column: "encrypted_value"},
}

// Rekey opens every sealed blob with oldKey, reseals it with newKey, and
// writes the given plaintext settings, all in one transaction. Returns the
// number of blobs resealed.
func (r *RekeyRepo) Rekey(ctx context.Context, oldKey, newKey []byte, settings map[string]string) (int64, error) {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op.

	var total int64
	for _, target := range rekeyTargets {
		n, err := rekeyColumn(ctx, tx, target, oldKey, newKey)
		if err != nil {
			return 0, err
		}
		total += n
	}

	const settingQuery = `INSERT OR REPLACE INTO app_settings (key, value) VALUES (?, ?)`
	for key, value := range settings {
		if _, err := tx.ExecContext(ctx, settingQuery, key, value); err != nil {
			return 0, fmt.Errorf("put setting %q: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit rekey: %w", err)
	}

	return total, nil
}

// rekeyColumn reseals one table's encrypted column. Rows are read fully into
// memory before any update because the transaction holds a single connection.
func rekeyColumn(ctx context.Context, tx *sql.Tx, target rekeyTarget, oldKey, newKey []byte) (int64, error) {
	type sealedRow struct {
		id   string
		blob []byte
	}

	selectQuery := fmt.Sprintf(`SELECT %s, %s FROM %s WHERE %s IS NOT NULL`,
		target.idColumn, target.column, target.table, target.column)

	rows, err := tx.QueryContext(ctx, selectQuery)
	if err != nil {
		return 0, fmt.Errorf("query %s: %w", target.table, err)
	}

	var sealed []sealedRow
	for rows.Next() {
		var row sealedRow
		if err := rows.Scan(&row.id, &row.blob); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan %s row: %w", target.table, err)
		}
		sealed = append(sealed, row)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("iterate %s: %w", target.table, err)
	}
	rows.Close()

	updateQuery := fmt.Sprintf(`UPDATE %s SET %s = ? WHERE %s = ?`,
		target.table, target.column, target.idColumn)

	for _, row := range sealed {
		plaintext, err := vaultcrypt.Decrypt(oldKey, row.blob)
		if err != nil {
			return 0, fmt.Errorf("open %s %q: %w", target.table, row.id, err)
		}

		resealed, err := vaultcrypt.Encrypt(newKey, plaintext)
		vaultcrypt.Zero(plaintext)
		if err != nil {
			return 0, fmt.Errorf("reseal %s %q: %w", target.table, row.id, err)
		}

		if _, err := tx.ExecContext(ctx, updateQuery, resealed, row.id); err != nil {
			return 0, fmt.Errorf("update %s %q: %w", target.table, row.id, err)
		}
	}

	return int64(len(sealed)), nil
}
