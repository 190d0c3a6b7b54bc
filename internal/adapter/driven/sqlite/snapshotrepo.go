package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/networthvault/internal/domain/model"
	"github.com/ericfisherdev/networthvault/internal/domain/port/driven"
	"github.com/ericfisherdev/networthvault/internal/vaultcrypt"
)

// Compile-time interface satisfaction check.
var _ driven.SnapshotStore = (*SnapshotRepo)(nil)

// SnapshotRepo is the SQLite implementation of the SnapshotStore port
// interface. Rows are append-only; nothing here updates an existing snapshot.
type SnapshotRepo struct {
	db *DB
}

// NewSnapshotRepo creates a new SnapshotRepo backed by the given DB.
func NewSnapshotRepo(db *DB) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

const snapshotColumns = `id, account_id, timestamp, value, change_type, encrypted_metadata`

// Append inserts one snapshot, sealing its metadata with the key.
func (r *SnapshotRepo) Append(ctx context.Context, key []byte, snapshot *model.HistoricalSnapshot) error {
	return insertSnapshot(ctx, r.db.Writer, key, snapshot)
}

// History returns an account's snapshots in ascending timestamp order,
// optionally bounded by inclusive from/to times.
func (r *SnapshotRepo) History(ctx context.Context, key []byte, accountID string, from, to *time.Time) ([]model.HistoricalSnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM historical_snapshots WHERE account_id = ?`
	args := []any{accountID}

	if from != nil {
		query += ` AND timestamp >= ?`
		args = append(args, from.Unix())
	}
	if to != nil {
		query += ` AND timestamp <= ?`
		args = append(args, to.Unix())
	}
	query += ` ORDER BY timestamp, id`

	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query snapshots for account %q: %w", accountID, err)
	}
	defer rows.Close()

	var snapshots []model.HistoricalSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows, key)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snapshots = append(snapshots, *snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}

	return snapshots, nil
}

// Latest returns the newest snapshot for an account, or nil when the account
// has no history yet.
func (r *SnapshotRepo) Latest(ctx context.Context, key []byte, accountID string) (*model.HistoricalSnapshot, error) {
	const query = `
		SELECT ` + snapshotColumns + `
		FROM historical_snapshots
		WHERE account_id = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT 1
	`

	snap, err := scanSnapshot(r.db.Reader.QueryRowContext(ctx, query, accountID), key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get latest snapshot for account %q: %w", accountID, err)
	}

	return snap, nil
}

// CountByAccount returns the number of snapshots stored for an account.
func (r *SnapshotRepo) CountByAccount(ctx context.Context, accountID string) (int64, error) {
	const query = `SELECT COUNT(*) FROM historical_snapshots WHERE account_id = ?`

	var count int64
	if err := r.db.Reader.QueryRowContext(ctx, query, accountID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count snapshots for account %q: %w", accountID, err)
	}

	return count, nil
}

// DeleteOlderThan removes snapshots with timestamps before the cutoff while
// always keeping each account's newest snapshot, so no account ever loses its
// last known value. Returns the number of rows removed.
func (r *SnapshotRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `
		DELETE FROM historical_snapshots
		WHERE timestamp < ?
		  AND id NOT IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (PARTITION BY account_id ORDER BY timestamp DESC, id DESC) AS rn
				FROM historical_snapshots
			) WHERE rn = 1
		  )
	`

	result, err := r.db.Writer.ExecContext(ctx, query, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("delete old snapshots: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check rows affected: %w", err)
	}

	return rows, nil
}

// execer is satisfied by both *sql.DB and *sql.Tx, letting the account repo
// append a snapshot inside its own transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// insertSnapshot writes one snapshot row, encrypting its metadata map when
// present. NULL metadata round-trips as a nil map.
func insertSnapshot(ctx context.Context, ex execer, key []byte, snap *model.HistoricalSnapshot) error {
	var metadata any
	if len(snap.Metadata) > 0 {
		plaintext, err := json.Marshal(snap.Metadata)
		if err != nil {
			return fmt.Errorf("marshal snapshot metadata: %w", err)
		}
		blob, err := vaultcrypt.Encrypt(key, plaintext)
		if err != nil {
			return fmt.Errorf("encrypt snapshot metadata: %w", err)
		}
		metadata = blob
	}

	const query = `
		INSERT INTO historical_snapshots (id, account_id, timestamp, value, change_type, encrypted_metadata)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	if _, err := ex.ExecContext(ctx, query,
		snap.ID, snap.AccountID, snap.Timestamp.Unix(), snap.Value.String(), string(snap.ChangeType), metadata,
	); err != nil {
		return fmt.Errorf("append snapshot for account %q: %w", snap.AccountID, err)
	}

	return nil
}

func scanSnapshot(s scanner, key []byte) (*model.HistoricalSnapshot, error) {
	var snap model.HistoricalSnapshot
	var timestamp int64
	var value, changeType string
	var metadata []byte

	err := s.Scan(&snap.ID, &snap.AccountID, &timestamp, &value, &changeType, &metadata)
	if err != nil {
		return nil, err
	}

	snap.Timestamp = time.Unix(timestamp, 0).UTC()
	snap.ChangeType = model.ChangeType(changeType)

	snap.Value, err = parseDecimal("value", value)
	if err != nil {
		return nil, err
	}

	if len(metadata) > 0 {
		plaintext, err := vaultcrypt.Decrypt(key, metadata)
		if err != nil {
			return nil, fmt.Errorf("decrypt metadata for snapshot %q: %w", snap.ID, err)
		}
		if err := json.Unmarshal(plaintext, &snap.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata for snapshot %q: %w", snap.ID, err)
		}
	}

	return &snap, nil
}
