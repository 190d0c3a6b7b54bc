package application

import (
	"context"
	"sort"
	"time"

	"github.com/ericfisherdev/networthvault/internal/domain/model"
	"github.com/ericfisherdev/networthvault/internal/domain/port/driven"
	"github.com/ericfisherdev/networthvault/internal/vaultcrypt"
)

// In-memory port fakes shared by the service tests in this package. They
// keep decoded models instead of sealed blobs; per-row read failures are
// injected through the corrupt maps. The setting store is the exception and
// seals with the real crypto, because the auth tests prove wrong-password
// behavior through it.

func testSession() *Session {
	return newSession(sessionKey(0xAA), time.Hour)
}

// --- memSettingStore ---

type memSettingStore struct {
	plain     map[string]string
	encrypted map[string][]byte
}

func newMemSettingStore() *memSettingStore {
	return &memSettingStore{
		plain:     map[string]string{},
		encrypted: map[string][]byte{},
	}
}

func (m *memSettingStore) Put(_ context.Context, key, value string) error {
	m.plain[key] = value
	delete(m.encrypted, key)
	return nil
}

func (m *memSettingStore) Get(_ context.Context, key string) (string, error) {
	value, ok := m.plain[key]
	if !ok {
		return "", driven.ErrSettingNotFound
	}
	return value, nil
}

func (m *memSettingStore) PutEncrypted(_ context.Context, aeadKey []byte, key string, plaintext []byte) error {
	blob, err := vaultcrypt.Encrypt(aeadKey, plaintext)
	if err != nil {
		return err
	}
	m.encrypted[key] = blob
	delete(m.plain, key)
	return nil
}

func (m *memSettingStore) GetEncrypted(_ context.Context, aeadKey []byte, key string) ([]byte, error) {
	blob, ok := m.encrypted[key]
	if !ok {
		return nil, driven.ErrSettingNotFound
	}
	return vaultcrypt.Decrypt(aeadKey, blob)
}

func (m *memSettingStore) ListPlain(_ context.Context) (map[string]string, error) {
	out := make(map[string]string, len(m.plain))
	for k, v := range m.plain {
		out[k] = v
	}
	return out, nil
}

func (m *memSettingStore) Delete(_ context.Context, key string) error {
	delete(m.plain, key)
	delete(m.encrypted, key)
	return nil
}

// --- memSnapshotStore ---

type memSnapshotStore struct {
	snaps []model.HistoricalSnapshot
}

func newMemSnapshotStore() *memSnapshotStore {
	return &memSnapshotStore{}
}

func (m *memSnapshotStore) Append(_ context.Context, _ []byte, snapshot *model.HistoricalSnapshot) error {
	m.snaps = append(m.snaps, *snapshot)
	return nil
}

func (m *memSnapshotStore) History(_ context.Context, _ []byte, accountID string, from, to *time.Time) ([]model.HistoricalSnapshot, error) {
	var out []model.HistoricalSnapshot
	for _, snap := range m.snaps {
		if snap.AccountID != accountID {
			continue
		}
		if from != nil && snap.Timestamp.Before(*from) {
			continue
		}
		if to != nil && snap.Timestamp.After(*to) {
			continue
		}
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID < out[j].ID
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

func (m *memSnapshotStore) Latest(ctx context.Context, key []byte, accountID string) (*model.HistoricalSnapshot, error) {
	history, err := m.History(ctx, key, accountID, nil, nil)
	if err != nil || len(history) == 0 {
		return nil, err
	}
	return &history[len(history)-1], nil
}

func (m *memSnapshotStore) CountByAccount(_ context.Context, accountID string) (int64, error) {
	var count int64
	for _, snap := range m.snaps {
		if snap.AccountID == accountID {
			count++
		}
	}
	return count, nil
}

func (m *memSnapshotStore) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	newest := map[string]string{}
	newestAt := map[string]time.Time{}
	for _, snap := range m.snaps {
		at, ok := newestAt[snap.AccountID]
		if !ok || snap.Timestamp.After(at) || (snap.Timestamp.Equal(at) && snap.ID > newest[snap.AccountID]) {
			newest[snap.AccountID] = snap.ID
			newestAt[snap.AccountID] = snap.Timestamp
		}
	}

	var kept []model.HistoricalSnapshot
	var deleted int64
	for _, snap := range m.snaps {
		if snap.Timestamp.Before(cutoff) && newest[snap.AccountID] != snap.ID {
			deleted++
			continue
		}
		kept = append(kept, snap)
	}
	m.snaps = kept
	return deleted, nil
}

func (m *memSnapshotStore) deleteByAccount(accountID string) {
	var kept []model.HistoricalSnapshot
	for _, snap := range m.snaps {
		if snap.AccountID != accountID {
			kept = append(kept, snap)
		}
	}
	m.snaps = kept
}

// --- memAccountStore ---

type memAccountStore struct {
	accounts map[string]model.Account
	order    []string
	// corrupt marks account ids whose rows read back as unreadable.
	corrupt   map[string]error
	snapshots *memSnapshotStore
}

func newMemAccountStore(snapshots *memSnapshotStore) *memAccountStore {
	return &memAccountStore{
		accounts:  map[string]model.Account{},
		corrupt:   map[string]error{},
		snapshots: snapshots,
	}
}

func (m *memAccountStore) Insert(ctx context.Context, key []byte, account *model.Account, snapshot *model.HistoricalSnapshot) error {
	if _, ok := m.accounts[account.ID]; ok {
		return driven.ErrAccountExists
	}
	m.accounts[account.ID] = *account
	m.order = append(m.order, account.ID)
	if snapshot != nil && m.snapshots != nil {
		return m.snapshots.Append(ctx, key, snapshot)
	}
	return nil
}

func (m *memAccountStore) Get(_ context.Context, _ []byte, id string) (*model.Account, error) {
	if err, ok := m.corrupt[id]; ok {
		return nil, err
	}
	account, ok := m.accounts[id]
	if !ok {
		return nil, driven.ErrAccountNotFound
	}
	return &account, nil
}

func (m *memAccountStore) List(_ context.Context, _ []byte, filter driven.AccountFilter) ([]driven.AccountRow, error) {
	var rows []driven.AccountRow
	for _, id := range m.order {
		account, ok := m.accounts[id]
		if !ok {
			continue
		}
		if filter.Type != "" && account.Type != filter.Type {
			continue
		}
		if filter.Demo != nil && account.IsDemo != *filter.Demo {
			continue
		}
		if err, corrupted := m.corrupt[id]; corrupted {
			rows = append(rows, driven.AccountRow{ID: id, Err: err})
			continue
		}
		copied := account
		rows = append(rows, driven.AccountRow{ID: id, Account: &copied})
	}
	return rows, nil
}

func (m *memAccountStore) Update(ctx context.Context, key []byte, account *model.Account, snapshot *model.HistoricalSnapshot) error {
	if _, ok := m.accounts[account.ID]; !ok {
		return driven.ErrAccountNotFound
	}
	m.accounts[account.ID] = *account
	if snapshot != nil && m.snapshots != nil {
		return m.snapshots.Append(ctx, key, snapshot)
	}
	return nil
}

func (m *memAccountStore) Delete(_ context.Context, id string) error {
	if _, ok := m.accounts[id]; ok {
		delete(m.accounts, id)
		if m.snapshots != nil {
			m.snapshots.deleteByAccount(id)
		}
	}
	return nil
}

func (m *memAccountStore) DeleteDemo(ctx context.Context) (int64, error) {
	var deleted int64
	for id, account := range m.accounts {
		if account.IsDemo {
			_ = m.Delete(ctx, id)
			deleted++
		}
	}
	return deleted, nil
}

func (m *memAccountStore) DeleteAll(ctx context.Context) (int64, error) {
	deleted := int64(len(m.accounts))
	for id := range m.accounts {
		_ = m.Delete(ctx, id)
	}
	m.order = nil
	return deleted, nil
}

func (m *memAccountStore) Count(_ context.Context) (int64, error) {
	return int64(len(m.accounts)), nil
}

// --- memWatchlistStore ---

type memWatchlistStore struct {
	items map[string]model.WatchlistItem
	order []string
}

func newMemWatchlistStore() *memWatchlistStore {
	return &memWatchlistStore{items: map[string]model.WatchlistItem{}}
}

func (m *memWatchlistStore) Insert(_ context.Context, _ []byte, item *model.WatchlistItem) error {
	if _, ok := m.items[item.Symbol]; ok {
		return driven.ErrSymbolExists
	}
	m.items[item.Symbol] = *item
	m.order = append(m.order, item.Symbol)
	return nil
}

func (m *memWatchlistStore) GetBySymbol(_ context.Context, _ []byte, symbol string) (*model.WatchlistItem, error) {
	item, ok := m.items[symbol]
	if !ok {
		return nil, driven.ErrWatchlistNotFound
	}
	return &item, nil
}

func (m *memWatchlistStore) List(_ context.Context, _ []byte) ([]model.WatchlistItem, error) {
	var out []model.WatchlistItem
	for _, symbol := range m.order {
		if item, ok := m.items[symbol]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *memWatchlistStore) Update(_ context.Context, _ []byte, item *model.WatchlistItem) error {
	for symbol, existing := range m.items {
		if existing.ID == item.ID {
			delete(m.items, symbol)
			m.items[item.Symbol] = *item
			return nil
		}
	}
	return driven.ErrWatchlistNotFound
}

func (m *memWatchlistStore) Delete(_ context.Context, symbol string) error {
	if _, ok := m.items[symbol]; !ok {
		return driven.ErrWatchlistNotFound
	}
	delete(m.items, symbol)
	return nil
}

func (m *memWatchlistStore) DeleteDemo(_ context.Context) (int64, error) {
	var deleted int64
	for symbol, item := range m.items {
		if item.IsDemo {
			delete(m.items, symbol)
			deleted++
		}
	}
	return deleted, nil
}

func (m *memWatchlistStore) DeleteAll(_ context.Context) (int64, error) {
	deleted := int64(len(m.items))
	m.items = map[string]model.WatchlistItem{}
	m.order = nil
	return deleted, nil
}
