package driven

import (
	"context"
	"time"

	"github.com/ericfisherdev/networthvault/internal/domain/model"
)

// SnapshotStore persists the append-only value history. Snapshots are never
// updated; they disappear only through the account-delete cascade or the
// retention sweep.
type SnapshotStore interface {
	// Append inserts one snapshot, sealing its metadata with the key.
	Append(ctx context.Context, key []byte, snapshot *model.HistoricalSnapshot) error

	// History returns an account's snapshots in ascending timestamp order.
	// Nil bounds mean unbounded; set bounds are inclusive.
	History(ctx context.Context, key []byte, accountID string, from, to *time.Time) ([]model.HistoricalSnapshot, error)

	// Latest returns the most recent snapshot for an account, or nil when
	// the account has no history yet.
	Latest(ctx context.Context, key []byte, accountID string) (*model.HistoricalSnapshot, error)

	// CountByAccount returns the number of snapshots for an account.
	CountByAccount(ctx context.Context, accountID string) (int64, error)

	// DeleteOlderThan removes snapshots before the cutoff, always keeping
	// each account's newest snapshot. Returns the number removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
