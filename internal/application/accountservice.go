package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ericfisherdev/networthvault/internal/domain/model"
	"github.com/ericfisherdev/networthvault/internal/domain/port/driven"
)

// AccountService implements the account CRUD use cases. Every value-changing
// write records a history snapshot in the same transaction as the account
// row, so the history can never disagree with the stored value.
type AccountService struct {
	accounts  driven.AccountStore
	positions driven.PositionStore
	logger    *slog.Logger
}

// NewAccountService creates a new AccountService.
func NewAccountService(accounts driven.AccountStore, positions driven.PositionStore) *AccountService {
	return &AccountService{
		accounts:  accounts,
		positions: positions,
		logger:    slog.Default(),
	}
}

// CreateAccount validates and stores a new account, recording its opening
// value as the first history snapshot. A missing id is assigned; timestamps
// default to now.
func (s *AccountService) CreateAccount(ctx context.Context, session *Session, account *model.Account) (*model.Account, error) {
	key, err := session.Key()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC().Truncate(time.Second)
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	if account.CreatedDate.IsZero() {
		account.CreatedDate = now
	}
	if account.LastUpdated.IsZero() {
		account.LastUpdated = now
	}
	if account.SchemaVersion == 0 {
		account.SchemaVersion = 1
	}

	if err := account.Validate(); err != nil {
		return nil, err
	}

	snapshot := snapshotFor(account, model.ChangeTypeInitialEntry, now)
	if err := s.accounts.Insert(ctx, key, account, snapshot); err != nil {
		return nil, err
	}

	s.logger.Info("account created", "account_id", account.ID, "type", account.Type)

	return account, nil
}

// GetAccount returns one account by id.
func (s *AccountService) GetAccount(ctx context.Context, session *Session, id string) (*model.Account, error) {
	key, err := session.Key()
	if err != nil {
		return nil, err
	}
	return s.accounts.Get(ctx, key, id)
}

// ListAccounts returns every readable account matching the filter. Rows that
// fail decryption or decoding are skipped with a warning and counted, never
// fatal: one corrupt record must not blank the rest of the portfolio.
func (s *AccountService) ListAccounts(ctx context.Context, session *Session, filter driven.AccountFilter) ([]model.Account, int, error) {
	key, err := session.Key()
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.accounts.List(ctx, key, filter)
	if err != nil {
		return nil, 0, err
	}

	accounts := make([]model.Account, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		if row.Err != nil {
			skipped++
			s.logger.Warn("skipping unreadable account", "account_id", row.ID, "error", row.Err)
			continue
		}
		accounts = append(accounts, *row.Account)
	}

	return accounts, skipped, nil
}

// UpdateAccount validates and rewrites an existing account. When the derived
// value changed, a MANUAL_UPDATE snapshot is committed with the row. The
// creation date of the stored row always wins over the caller's copy.
func (s *AccountService) UpdateAccount(ctx context.Context, session *Session, account *model.Account) error {
	key, err := session.Key()
	if err != nil {
		return err
	}

	if err := account.Validate(); err != nil {
		return err
	}

	existing, err := s.accounts.Get(ctx, key, account.ID)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Truncate(time.Second)
	account.CreatedDate = existing.CreatedDate
	account.LastUpdated = now
	if account.SchemaVersion == 0 {
		account.SchemaVersion = existing.SchemaVersion
	}

	var snapshot *model.HistoricalSnapshot
	if !existing.CurrentValue().Equal(account.CurrentValue()) {
		snapshot = snapshotFor(account, model.ChangeTypeManualUpdate, now)
	}

	if err := s.accounts.Update(ctx, key, account, snapshot); err != nil {
		return err
	}

	s.logger.Info("account updated", "account_id", account.ID, "snapshot", snapshot != nil)

	return nil
}

// DeleteAccount removes an account with its snapshots and positions.
// Deleting an absent id succeeds.
func (s *AccountService) DeleteAccount(ctx context.Context, id string) error {
	if err := s.accounts.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("account deleted", "account_id", id)
	return nil
}

// PurgeDemoAccounts removes every demo account and returns the count.
func (s *AccountService) PurgeDemoAccounts(ctx context.Context) (int64, error) {
	deleted, err := s.accounts.DeleteDemo(ctx)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.logger.Info("demo accounts purged", "count", deleted)
	}
	return deleted, nil
}

// CountAccounts returns the number of stored accounts, readable or not.
func (s *AccountService) CountAccounts(ctx context.Context) (int64, error) {
	return s.accounts.Count(ctx)
}

// NetWorth sums the current value of every readable account matching the
// filter. The skipped count reports accounts excluded as unreadable.
func (s *AccountService) NetWorth(ctx context.Context, session *Session, filter driven.AccountFilter) (decimal.Decimal, int, error) {
	accounts, skipped, err := s.ListAccounts(ctx, session, filter)
	if err != nil {
		return decimal.Zero, 0, err
	}

	total := decimal.Zero
	for i := range accounts {
		total = total.Add(accounts[i].CurrentValue())
	}

	return total, skipped, nil
}

// UpdatePositionPrices applies fresh quotes to a trading account's positions.
// When the account value moves, a STOCK_PRICE_UPDATE snapshot is committed
// with the row. Returns how many positions received a quote.
func (s *AccountService) UpdatePositionPrices(ctx context.Context, session *Session, accountID string, quotes map[string]decimal.Decimal) (int, error) {
	key, err := session.Key()
	if err != nil {
		return 0, err
	}

	account, err := s.accounts.Get(ctx, key, accountID)
	if err != nil {
		return 0, err
	}

	trading, ok := account.Payload.(*model.TradingPayload)
	if !ok {
		return 0, model.NewValidationError("type", fmt.Sprintf("account %q is not a trading account", accountID))
	}

	before := account.CurrentValue()
	now := time.Now().UTC().Truncate(time.Second)

	updated := 0
	for i := range trading.Positions {
		quote, ok := quotes[trading.Positions[i].Symbol]
		if !ok {
			continue
		}
		price := quote
		trading.Positions[i].CurrentPrice = &price
		trading.Positions[i].LastPriceUpdate = &now
		updated++
	}
	if updated == 0 {
		return 0, nil
	}

	account.LastUpdated = now

	var snapshot *model.HistoricalSnapshot
	if !before.Equal(account.CurrentValue()) {
		snapshot = snapshotFor(account, model.ChangeTypePriceUpdate, now)
	}

	if err := s.accounts.Update(ctx, key, account, snapshot); err != nil {
		return 0, err
	}

	s.logger.Info("position prices updated", "account_id", accountID, "positions", updated, "snapshot", snapshot != nil)

	return updated, nil
}

// HeldSymbols returns the distinct ticker symbols held across all trading
// accounts, from the plaintext projection.
func (s *AccountService) HeldSymbols(ctx context.Context) ([]string, error) {
	return s.positions.ListSymbols(ctx)
}

// snapshotFor builds the history entry committed alongside a value-changing
// account write.
func snapshotFor(account *model.Account, changeType model.ChangeType, at time.Time) *model.HistoricalSnapshot {
	return &model.HistoricalSnapshot{
		ID:         uuid.NewString(),
		AccountID:  account.ID,
		Timestamp:  at,
		Value:      account.CurrentValue(),
		ChangeType: changeType,
		Metadata: map[string]string{
			"account_name": account.Name,
			"institution":  account.Institution,
			"account_type": string(account.Type),
		},
	}
}
