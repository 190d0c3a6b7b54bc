package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ericfisherdev/networthvault/internal/domain/port/driven"
	"github.com/ericfisherdev/networthvault/internal/vaultcrypt"
)

// Compile-time interface satisfaction check.
var _ driven.SettingStore = (*SettingRepo)(nil)

// SettingRepo is the SQLite implementation of the SettingStore port
// interface. A key holds either a plaintext value or an encrypted one, never
// both; writing one kind clears the other.
type SettingRepo struct {
	db *DB
}

// NewSettingRepo creates a new SettingRepo backed by the given DB.
func NewSettingRepo(db *DB) *SettingRepo {
	return &SettingRepo{db: db}
}

// Put stores or replaces a plaintext setting.
func (r *SettingRepo) Put(ctx context.Context, key, value string) error {
	const query = `INSERT OR REPLACE INTO app_settings (key, value) VALUES (?, ?)`

	if _, err := r.db.Writer.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("put setting %q: %w", key, err)
	}

	return nil
}

// Get retrieves a plaintext setting. Returns driven.ErrSettingNotFound when
// the key is absent or holds only an encrypted value.
func (r *SettingRepo) Get(ctx context.Context, key string) (string, error) {
	const query = `SELECT value FROM app_settings WHERE key = ?`

	var value sql.NullString
	err := r.db.Reader.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("get setting %q: %w", key, driven.ErrSettingNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	if !value.Valid {
		return "", fmt.Errorf("get setting %q: %w", key, driven.ErrSettingNotFound)
	}

	return value.String, nil
}

// PutEncrypted seals plaintext with the vault key and stores it under the
// given settings key.
func (r *SettingRepo) PutEncrypted(ctx context.Context, aeadKey []byte, key string, plaintext []byte) error {
	blob, err := vaultcrypt.Encrypt(aeadKey, plaintext)
	if err != nil {
		return fmt.Errorf("encrypt setting %q: %w", key, err)
	}

	const query = `INSERT OR REPLACE INTO app_settings (key, encrypted_value) VALUES (?, ?)`

	if _, err := r.db.Writer.ExecContext(ctx, query, key, blob); err != nil {
		return fmt.Errorf("put encrypted setting %q: %w", key, err)
	}

	return nil
}

// GetEncrypted retrieves and opens an encrypted setting. Returns
// driven.ErrSettingNotFound when the key is absent or holds only a plaintext
// value; decrypt failures surface vaultcrypt.ErrAuthenticationFailed.
func (r *SettingRepo) GetEncrypted(ctx context.Context, aeadKey []byte, key string) ([]byte, error) {
	const query = `SELECT encrypted_value FROM app_settings WHERE key = ?`

	var blob []byte
	err := r.db.Reader.QueryRowContext(ctx, query, key).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get encrypted setting %q: %w", key, driven.ErrSettingNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get encrypted setting %q: %w", key, err)
	}
	if blob == nil {
		return nil, fmt.Errorf("get encrypted setting %q: %w", key, driven.ErrSettingNotFound)
	}

	plaintext, err := vaultcrypt.Decrypt(aeadKey, blob)
	if err != nil {
		return nil, fmt.Errorf("decrypt setting %q: %w", key, err)
	}

	return plaintext, nil
}

// ListPlain returns every plaintext setting keyed by name. Encrypted-only
// keys are excluded.
func (r *SettingRepo) ListPlain(ctx context.Context) (map[string]string, error) {
	const query = `SELECT key, value FROM app_settings WHERE value IS NOT NULL ORDER BY key`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		settings[key] = value
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settings: %w", err)
	}

	return settings, nil
}

// Delete removes a setting. Deleting a missing key is a no-op.
func (r *SettingRepo) Delete(ctx context.Context, key string) error {
	const query = `DELETE FROM app_settings WHERE key = ?`

	if _, err := r.db.Writer.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("delete setting %q: %w", key, err)
	}

	return nil
}
