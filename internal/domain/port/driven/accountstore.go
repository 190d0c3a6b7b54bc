// Package driven defines the storage ports the application layer depends on.
// Implementations live under internal/adapter/driven.
package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/networthvault/internal/domain/model"
)

var (
	// ErrAccountNotFound indicates the requested account does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrAccountExists indicates an account with the same id already exists.
	ErrAccountExists = errors.New("account already exists")
)

// AccountFilter narrows List results. The zero value matches every account.
type AccountFilter struct {
	// Type restricts results to one account type when non-empty.
	Type model.AccountType
	// Demo restricts results to demo (true) or real (false) accounts when set.
	Demo *bool
}

// AccountRow is the per-row result of a listing: either a decoded account or
// the error that made this one row unreadable. A row-level failure never
// aborts the rest of the listing.
type AccountRow struct {
	// ID is always populated from the plaintext column, even when the
	// payload could not be decrypted or decoded.
	ID      string
	Account *model.Account
	Err     error
}

// AccountStore persists accounts with their payloads encrypted at rest.
// Every method taking a key seals or opens payloads with it. Mutations that
// carry a snapshot commit it in the same transaction as the row change.
//
// Insert returns ErrAccountExists when the id is already present.
// Update returns ErrAccountNotFound when the id is absent.
// Delete is idempotent: deleting a missing id succeeds.
// DeleteAll wipes every account (snapshots and positions cascade); it backs
// replace-mode imports.
type AccountStore interface {
	Insert(ctx context.Context, key []byte, account *model.Account, snapshot *model.HistoricalSnapshot) error
	Get(ctx context.Context, key []byte, id string) (*model.Account, error)
	List(ctx context.Context, key []byte, filter AccountFilter) ([]AccountRow, error)
	Update(ctx context.Context, key []byte, account *model.Account, snapshot *model.HistoricalSnapshot) error
	Delete(ctx context.Context, id string) error
	DeleteDemo(ctx context.Context) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
	Count(ctx context.Context) (int64, error)
}
