package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/networthvault/internal/domain/model"
	"github.com/ericfisherdev/networthvault/internal/domain/port/driven"
	"github.com/ericfisherdev/networthvault/internal/vaultcrypt"
)

// ErrBackupTooNew means the backup envelope was written by a newer build and
// cannot be imported safely.
var ErrBackupTooNew = errors.New("backup format is newer than this build supports")

// BackupService exports the whole vault into one encrypted blob and imports
// such blobs back. The envelope is sealed with the session key, so a backup
// opens only with the password that was active when it was written.
type BackupService struct {
	accounts  driven.AccountStore
	snapshots driven.SnapshotStore
	watchlist driven.WatchlistStore
	settings  driven.SettingStore
	logger    *slog.Logger
}

// NewBackupService creates a new BackupService.
func NewBackupService(accounts driven.AccountStore, snapshots driven.SnapshotStore, watchlist driven.WatchlistStore, settings driven.SettingStore) *BackupService {
	return &BackupService{
		accounts:  accounts,
		snapshots: snapshots,
		watchlist: watchlist,
		settings:  settings,
		logger:    slog.Default(),
	}
}

// ExportAll serializes every account, its history, the watchlist, and the
// plain app settings into one envelope and seals it with the session key.
// Unreadable records are skipped with a warning, never exported as garbage.
func (s *BackupService) ExportAll(ctx context.Context, session *Session) ([]byte, error) {
	key, err := session.Key()
	if err != nil {
		return nil, err
	}

	rows, err := s.accounts.List(ctx, key, driven.AccountFilter{})
	if err != nil {
		return nil, err
	}

	backup := model.Backup{
		StockPositions:      map[string][]model.BackupPosition{},
		HistoricalSnapshots: map[string][]model.BackupSnapshot{},
	}

	for _, row := range rows {
		if row.Err != nil {
			s.logger.Warn("skipping unreadable account in export", "account_id", row.ID, "error", row.Err)
			continue
		}

		entry, err := backupAccountFrom(row.Account)
		if err != nil {
			s.logger.Warn("skipping unexportable account", "account_id", row.ID, "error", err)
			continue
		}
		backup.Accounts = append(backup.Accounts, entry)

		if trading, ok := row.Account.Payload.(*model.TradingPayload); ok && len(trading.Positions) > 0 {
			backup.StockPositions[row.Account.ID] = backupPositionsFrom(trading.Positions)
		}

		history, err := s.snapshots.History(ctx, key, row.Account.ID, nil, nil)
		if err != nil {
			s.logger.Warn("skipping unreadable history in export", "account_id", row.ID, "error", err)
			continue
		}
		if len(history) > 0 {
			backup.HistoricalSnapshots[row.Account.ID] = backupSnapshotsFrom(history)
		}
	}

	items, err := s.watchlist.List(ctx, key)
	if err != nil {
		s.logger.Warn("skipping watchlist in export", "error", err)
	} else {
		backup.Watchlist = backupWatchlistFrom(items)
	}

	settings, err := s.settings.ListPlain(ctx)
	if err != nil {
		return nil, err
	}
	for k, v := range settings {
		if reservedSettingKey(k) {
			continue
		}
		if backup.AppSettings == nil {
			backup.AppSettings = map[string]string{}
		}
		backup.AppSettings[k] = v
	}

	backup.Metadata = model.BackupMetadata{
		BackupID:        uuid.NewString(),
		ExportTimestamp: time.Now().UTC(),
		BackupVersion:   model.BackupVersion,
		FormatVersion:   model.BackupFormatVersion,
		AccountCount:    len(backup.Accounts),
		PositionCount:   countPositions(backup.StockPositions),
		SnapshotCount:   countSnapshots(backup.HistoricalSnapshots),
		WatchlistCount:  len(backup.Watchlist),
	}

	plaintext, err := json.Marshal(backup)
	if err != nil {
		return nil, fmt.Errorf("marshal backup envelope: %w", err)
	}
	defer vaultcrypt.Zero(plaintext)

	blob, err := vaultcrypt.Encrypt(key, plaintext)
	if err != nil {
		return nil, fmt.Errorf("encrypt backup envelope: %w", err)
	}

	s.logger.Info("vault exported",
		"backup_id", backup.Metadata.BackupID,
		"accounts", backup.Metadata.AccountCount,
		"snapshots", backup.Metadata.SnapshotCount,
		"watchlist", backup.Metadata.WatchlistCount)

	return blob, nil
}

// ImportAll opens an exported blob and loads its contents into the vault.
// Merge mode keeps existing records and skips duplicates from the backup;
// replace mode wipes accounts and the watchlist first. A record that fails
// to import is skipped and reported in the result, never aborts the run.
func (s *BackupService) ImportAll(ctx context.Context, session *Session, blob []byte, mode model.ImportMode) (*model.ImportResult, error) {
	if !mode.Valid() {
		return nil, model.NewValidationError("mode", fmt.Sprintf("unknown import mode %q", mode))
	}

	key, err := session.Key()
	if err != nil {
		return nil, err
	}

	plaintext, err := vaultcrypt.Decrypt(key, blob)
	if err != nil {
		return nil, fmt.Errorf("open backup envelope: %w", err)
	}
	defer vaultcrypt.Zero(plaintext)

	var backup model.Backup
	if err := json.Unmarshal(plaintext, &backup); err != nil {
		return nil, model.NewValidationError("backup", fmt.Sprintf("not a valid backup envelope: %v", err))
	}
	if backup.Metadata.FormatVersion > model.BackupFormatVersion {
		return nil, fmt.Errorf("backup format version %d: %w", backup.Metadata.FormatVersion, ErrBackupTooNew)
	}

	if mode == model.ImportModeReplace {
		wiped, err := s.accounts.DeleteAll(ctx)
		if err != nil {
			return nil, err
		}
		wipedItems, err := s.watchlist.DeleteAll(ctx)
		if err != nil {
			return nil, err
		}
		s.logger.Info("vault wiped for replace import", "accounts", wiped, "watchlist", wipedItems)
	}

	result := &model.ImportResult{}

	for i := range backup.Accounts {
		s.importAccount(ctx, key, &backup, &backup.Accounts[i], result)
	}

	for i := range backup.Watchlist {
		s.importWatchlistItem(ctx, key, &backup.Watchlist[i], result)
	}

	for k, v := range backup.AppSettings {
		if reservedSettingKey(k) {
			continue
		}
		if err := s.settings.Put(ctx, k, v); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("setting %s: %v", k, err))
			continue
		}
		result.SettingsImported++
	}

	s.logger.Info("backup imported",
		"backup_id", backup.Metadata.BackupID,
		"mode", string(mode),
		"accounts_imported", result.AccountsImported,
		"accounts_skipped", result.AccountsSkipped,
		"snapshots_imported", result.SnapshotsImported,
		"watchlist_imported", result.WatchlistImported,
		"errors", len(result.Errors))

	return result, nil
}

func (s *BackupService) importAccount(ctx context.Context, key []byte, backup *model.Backup, entry *model.BackupAccount, result *model.ImportResult) {
	account, err := accountFromBackup(entry)
	if err != nil {
		result.AccountsSkipped++
		result.Errors = append(result.Errors, fmt.Sprintf("account %s: %v", entry.ID, err))
		return
	}

	if err := s.accounts.Insert(ctx, key, account, nil); err != nil {
		result.AccountsSkipped++
		if !errors.Is(err, driven.ErrAccountExists) {
			result.Errors = append(result.Errors, fmt.Sprintf("account %s: %v", entry.ID, err))
		}
		return
	}
	result.AccountsImported++

	if trading, ok := account.Payload.(*model.TradingPayload); ok {
		result.PositionsImported += len(trading.Positions)
	}

	for _, snap := range backup.HistoricalSnapshots[account.ID] {
		id := snap.ID
		if id == "" {
			id = uuid.NewString()
		}
		err := s.snapshots.Append(ctx, key, &model.HistoricalSnapshot{
			ID:         id,
			AccountID:  account.ID,
			Timestamp:  snap.Timestamp,
			Value:      snap.Value,
			ChangeType: snap.ChangeType,
			Metadata:   snap.Metadata,
		})
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("snapshot %s for account %s: %v", id, account.ID, err))
			continue
		}
		result.SnapshotsImported++
	}
}

func (s *BackupService) importWatchlistItem(ctx context.Context, key []byte, entry *model.BackupWatchlistItem, result *model.ImportResult) {
	item := &model.WatchlistItem{
		ID:                 entry.ID,
		Symbol:             model.NormalizeSymbol(entry.Symbol),
		Notes:              entry.Notes,
		AddedDate:          entry.AddedDate,
		CurrentPrice:       entry.CurrentPrice,
		LastPriceUpdate:    entry.LastPriceUpdate,
		DailyChange:        entry.DailyChange,
		DailyChangePercent: entry.DailyChangePercent,
		IsDemo:             entry.IsDemo,
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}

	if err := item.Validate(); err != nil {
		result.WatchlistSkipped++
		result.Errors = append(result.Errors, fmt.Sprintf("watchlist %s: %v", entry.Symbol, err))
		return
	}

	if err := s.watchlist.Insert(ctx, key, item); err != nil {
		result.WatchlistSkipped++
		if !errors.Is(err, driven.ErrSymbolExists) {
			result.Errors = append(result.Errors, fmt.Sprintf("watchlist %s: %v", item.Symbol, err))
		}
		return
	}
	result.WatchlistImported++
}

// reservedSettingKey reports whether a settings key is vault-local KDF or
// auth state that must never travel in a backup.
func reservedSettingKey(key string) bool {
	switch key {
	case settingKDFSalt, settingKDFIterations, settingAuthSentinel:
		return true
	}
	return false
}

func backupAccountFrom(account *model.Account) (model.BackupAccount, error) {
	data, err := model.MarshalPayload(account.Payload)
	if err != nil {
		return model.BackupAccount{}, err
	}
	return model.BackupAccount{
		ID:            account.ID,
		Name:          account.Name,
		Institution:   account.Institution,
		Type:          account.Type,
		CreatedDate:   account.CreatedDate,
		LastUpdated:   account.LastUpdated,
		SchemaVersion: account.SchemaVersion,
		IsDemo:        account.IsDemo,
		Data:          data,
	}, nil
}

func accountFromBackup(entry *model.BackupAccount) (*model.Account, error) {
	payload, err := model.UnmarshalPayload(entry.Type, entry.Data)
	if err != nil {
		return nil, err
	}

	account := &model.Account{
		ID:            entry.ID,
		Name:          entry.Name,
		Institution:   entry.Institution,
		Type:          entry.Type,
		CreatedDate:   entry.CreatedDate,
		LastUpdated:   entry.LastUpdated,
		SchemaVersion: entry.SchemaVersion,
		IsDemo:        entry.IsDemo,
		Payload:       payload,
	}
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	if account.SchemaVersion == 0 {
		account.SchemaVersion = 1
	}
	now := time.Now().UTC().Truncate(time.Second)
	if account.CreatedDate.IsZero() {
		account.CreatedDate = now
	}
	if account.LastUpdated.IsZero() {
		account.LastUpdated = now
	}
	if err := account.Validate(); err != nil {
		return nil, err
	}

	return account, nil
}

func backupSnapshotsFrom(history []model.HistoricalSnapshot) []model.BackupSnapshot {
	out := make([]model.BackupSnapshot, len(history))
	for i, snap := range history {
		out[i] = model.BackupSnapshot{
			ID:         snap.ID,
			Timestamp:  snap.Timestamp,
			Value:      snap.Value,
			ChangeType: snap.ChangeType,
			Metadata:   snap.Metadata,
		}
	}
	return out
}

func backupPositionsFrom(positions []model.StockPosition) []model.BackupPosition {
	out := make([]model.BackupPosition, len(positions))
	for i, pos := range positions {
		out[i] = model.BackupPosition{
			ID:              pos.ID,
			Symbol:          pos.Symbol,
			Shares:          pos.Shares,
			PurchasePrice:   pos.PurchasePrice,
			PurchaseDate:    pos.PurchaseDate,
			CurrentPrice:    pos.CurrentPrice,
			LastPriceUpdate: pos.LastPriceUpdate,
		}
	}
	return out
}

func backupWatchlistFrom(items []model.WatchlistItem) []model.BackupWatchlistItem {
	out := make([]model.BackupWatchlistItem, len(items))
	for i, item := range items {
		out[i] = model.BackupWatchlistItem{
			ID:                 item.ID,
			Symbol:             item.Symbol,
			Notes:              item.Notes,
			AddedDate:          item.AddedDate,
			CurrentPrice:       item.CurrentPrice,
			LastPriceUpdate:    item.LastPriceUpdate,
			DailyChange:        item.DailyChange,
			DailyChangePercent: item.DailyChangePercent,
			IsDemo:             item.IsDemo,
		}
	}
	return out
}

func countPositions(positions map[string][]model.BackupPosition) int {
	n := 0
	for _, list := range positions {
		n += len(list)
	}
	return n
}

func countSnapshots(snapshots map[string][]model.BackupSnapshot) int {
	n := 0
	for _, list := range snapshots {
		n += len(list)
	}
	return n
}
