package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// BackupVersion labels the backup envelope for humans.
	BackupVersion = "1.0"
	// BackupFormatVersion gates import compatibility: an envelope with a
	// higher format version than this is rejected.
	BackupFormatVersion = 1
)

// ImportMode selects how import treats records already in the vault.
type ImportMode string

const (
	// ImportModeMerge keeps existing records and skips duplicates from the backup.
	ImportModeMerge ImportMode = "merge"
	// ImportModeReplace wipes existing account data before importing.
	ImportModeReplace ImportMode = "replace"
)

// Valid reports whether m is a known import mode.
func (m ImportMode) Valid() bool {
	return m == ImportModeMerge || m == ImportModeReplace
}

// Backup is the plaintext export envelope. The whole envelope is serialized
// to JSON and sealed with the session key, so payloads inside it stay in the
// clear relative to the envelope.
type Backup struct {
	Metadata            BackupMetadata              `json:"backup_metadata"`
	Accounts            []BackupAccount             `json:"accounts"`
	StockPositions      map[string][]BackupPosition `json:"stock_positions,omitempty"`
	Watchlist           []BackupWatchlistItem       `json:"watchlist,omitempty"`
	HistoricalSnapshots map[string][]BackupSnapshot `json:"historical_snapshots,omitempty"`
	AppSettings         map[string]string           `json:"app_settings,omitempty"`
}

// BackupMetadata describes a backup envelope.
type BackupMetadata struct {
	BackupID        string    `json:"backup_id"`
	ExportTimestamp time.Time `json:"export_timestamp"`
	BackupVersion   string    `json:"backup_version"`
	FormatVersion   int       `json:"format_version"`
	AccountCount    int       `json:"account_count"`
	PositionCount   int       `json:"position_count"`
	SnapshotCount   int       `json:"snapshot_count"`
	WatchlistCount  int       `json:"watchlist_count"`
}

// BackupAccount is an account with its payload decrypted into plain JSON.
type BackupAccount struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Institution   string          `json:"institution"`
	Type          AccountType     `json:"type"`
	CreatedDate   time.Time       `json:"created_date"`
	LastUpdated   time.Time       `json:"last_updated"`
	SchemaVersion int             `json:"schema_version"`
	IsDemo        bool            `json:"is_demo"`
	Data          json.RawMessage `json:"data"`
}

// BackupPosition mirrors one stock_positions projection row.
type BackupPosition struct {
	ID              string           `json:"id"`
	Symbol          string           `json:"symbol"`
	Shares          decimal.Decimal  `json:"shares"`
	PurchasePrice   decimal.Decimal  `json:"purchase_price"`
	PurchaseDate    time.Time        `json:"purchase_date"`
	CurrentPrice    *decimal.Decimal `json:"current_price,omitempty"`
	LastPriceUpdate *time.Time       `json:"last_price_update,omitempty"`
}

// BackupSnapshot is a historical snapshot with decrypted metadata.
type BackupSnapshot struct {
	ID         string            `json:"id"`
	Timestamp  time.Time         `json:"timestamp"`
	Value      decimal.Decimal   `json:"value"`
	ChangeType ChangeType        `json:"change_type"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// BackupWatchlistItem is a watchlist entry with decrypted notes and prices.
type BackupWatchlistItem struct {
	ID                 string           `json:"id"`
	Symbol             string           `json:"symbol"`
	Notes              string           `json:"notes,omitempty"`
	AddedDate          time.Time        `json:"added_date"`
	CurrentPrice       *decimal.Decimal `json:"current_price,omitempty"`
	LastPriceUpdate    *time.Time       `json:"last_price_update,omitempty"`
	DailyChange        *decimal.Decimal `json:"daily_change,omitempty"`
	DailyChangePercent *decimal.Decimal `json:"daily_change_percent,omitempty"`
	IsDemo             bool             `json:"is_demo"`
}

// ImportResult reports what an import run accomplished. Per-record failures
// land in Errors and the matching skipped counter instead of aborting the run.
type ImportResult struct {
	AccountsImported  int
	AccountsSkipped   int
	PositionsImported int
	SnapshotsImported int
	WatchlistImported int
	WatchlistSkipped  int
	SettingsImported  int
	Errors            []string
}
