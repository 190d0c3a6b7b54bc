package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ericfisherdev/networthvault/internal/domain/model"
	"github.com/ericfisherdev/networthvault/internal/domain/port/driven"
)

// DemoService seeds and clears sample data so a fresh vault has something to
// look at. Demo records carry the is_demo flag and can always be purged
// without touching real data.
type DemoService struct {
	accounts  driven.AccountStore
	watchlist driven.WatchlistStore
	logger    *slog.Logger
}

// NewDemoService creates a new DemoService.
func NewDemoService(accounts driven.AccountStore, watchlist driven.WatchlistStore) *DemoService {
	return &DemoService{
		accounts:  accounts,
		watchlist: watchlist,
		logger:    slog.Default(),
	}
}

// Seed replaces any existing demo data with one sample account of every type
// and a few watchlist entries.
func (s *DemoService) Seed(ctx context.Context, session *Session) error {
	key, err := session.Key()
	if err != nil {
		return err
	}

	if _, _, err := s.Purge(ctx); err != nil {
		return err
	}

	now := time.Now().UTC().Truncate(time.Second)
	for _, account := range demoAccounts(now) {
		if err := account.Validate(); err != nil {
			return fmt.Errorf("seed demo account %q: %w", account.ID, err)
		}
		snapshot := snapshotFor(account, model.ChangeTypeInitialEntry, now)
		if err := s.accounts.Insert(ctx, key, account, snapshot); err != nil {
			return fmt.Errorf("seed demo account %q: %w", account.ID, err)
		}
	}

	seeded := 0
	for _, item := range demoWatchlist(now) {
		err := s.watchlist.Insert(ctx, key, item)
		if errors.Is(err, driven.ErrSymbolExists) {
			s.logger.Warn("demo symbol already watched, skipping", "symbol", item.Symbol)
			continue
		}
		if err != nil {
			return fmt.Errorf("seed demo watchlist %q: %w", item.Symbol, err)
		}
		seeded++
	}

	s.logger.Info("demo data seeded", "accounts", len(demoAccounts(now)), "watchlist", seeded)
	return nil
}

// Purge deletes every demo account and watchlist entry, returning how many
// of each were removed.
func (s *DemoService) Purge(ctx context.Context) (int64, int64, error) {
	accounts, err := s.accounts.DeleteDemo(ctx)
	if err != nil {
		return 0, 0, err
	}
	items, err := s.watchlist.DeleteDemo(ctx)
	if err != nil {
		return accounts, 0, err
	}
	if accounts > 0 || items > 0 {
		s.logger.Info("demo data purged", "accounts", accounts, "watchlist", items)
	}
	return accounts, items, nil
}

// demoAccounts builds one sample account per type. Date-bearing payloads use
// now-relative dates so they stay valid no matter when the vault is seeded.
func demoAccounts(now time.Time) []*model.Account {
	dec := decimal.RequireFromString

	price := func(s string) *decimal.Decimal {
		d := dec(s)
		return &d
	}

	return []*model.Account{
		{
			ID:            "demo-savings",
			Name:          "Demo High-Yield Savings",
			Institution:   "Demo Bank",
			Type:          model.AccountTypeSavings,
			CreatedDate:   now,
			LastUpdated:   now,
			SchemaVersion: 1,
			IsDemo:        true,
			Payload: &model.SavingsPayload{
				CurrentBalance: dec("12500.00"),
				InterestRate:   dec("4.15"),
			},
		},
		{
			ID:            "demo-cd",
			Name:          "Demo 12-Month CD",
			Institution:   "Demo Bank",
			Type:          model.AccountTypeCD,
			CreatedDate:   now,
			LastUpdated:   now,
			SchemaVersion: 1,
			IsDemo:        true,
			Payload: &model.CDPayload{
				PrincipalAmount: dec("10000.00"),
				InterestRate:    dec("5.00"),
				MaturityDate:    now.AddDate(0, 9, 0),
				CurrentValue:    dec("10375.00"),
			},
		},
		{
			ID:            "demo-401k",
			Name:          "Demo 401(k)",
			Institution:   "Demo Retirement Co",
			Type:          model.AccountTypeRetirement,
			CreatedDate:   now,
			LastUpdated:   now,
			SchemaVersion: 1,
			IsDemo:        true,
			Payload: &model.RetirementPayload{
				CurrentBalance:       dec("68400.00"),
				EmployerMatch:        dec("4.00"),
				ContributionLimit:    dec("23500.00"),
				EmployerContribution: dec("2736.00"),
			},
		},
		{
			ID:            "demo-trading",
			Name:          "Demo Brokerage",
			Institution:   "Demo Securities",
			Type:          model.AccountTypeTrading,
			CreatedDate:   now,
			LastUpdated:   now,
			SchemaVersion: 1,
			IsDemo:        true,
			Payload: &model.TradingPayload{
				BrokerName:  "Demo Securities",
				CashBalance: dec("2150.75"),
				Positions: []model.StockPosition{
					{
						ID:            "demo-pos-aapl",
						Symbol:        "AAPL",
						Shares:        dec("10"),
						PurchasePrice: dec("178.25"),
						PurchaseDate:  now.AddDate(0, -6, 0),
						CurrentPrice:  price("195.40"),
					},
					{
						ID:            "demo-pos-vti",
						Symbol:        "VTI",
						Shares:        dec("25"),
						PurchasePrice: dec("241.10"),
						PurchaseDate:  now.AddDate(0, -3, 0),
					},
				},
			},
		},
		{
			ID:            "demo-ibonds",
			Name:          "Demo I Bonds",
			Institution:   "TreasuryDirect",
			Type:          model.AccountTypeIBonds,
			CreatedDate:   now,
			LastUpdated:   now,
			SchemaVersion: 1,
			IsDemo:        true,
			Payload: &model.IBondsPayload{
				PurchaseAmount: dec("10000.00"),
				PurchaseDate:   now.AddDate(-2, 0, 0),
				CurrentValue:   dec("10820.00"),
				FixedRate:      dec("0.90"),
				InflationRate:  dec("1.90"),
				MaturityDate:   now.AddDate(28, 0, 0),
			},
		},
		{
			ID:            "demo-hsa",
			Name:          "Demo HSA",
			Institution:   "Demo Health Trust",
			Type:          model.AccountTypeHSA,
			CreatedDate:   now,
			LastUpdated:   now,
			SchemaVersion: 1,
			IsDemo:        true,
			Payload: &model.HSAPayload{
				CurrentBalance:          dec("8900.00"),
				AnnualContributionLimit: dec("4300.00"),
				CurrentYearContribs:     dec("2100.00"),
				EmployerContributions:   dec("750.00"),
				InvestmentBalance:       dec("7400.00"),
				CashBalance:             dec("1500.00"),
			},
		},
	}
}

func demoWatchlist(now time.Time) []*model.WatchlistItem {
	return []*model.WatchlistItem{
		{
			ID:        "demo-watch-nvda",
			Symbol:    "NVDA",
			Notes:     "Waiting for a pullback before starting a position.",
			AddedDate: now,
			IsDemo:    true,
		},
		{
			ID:        "demo-watch-schd",
			Symbol:    "SCHD",
			Notes:     "Dividend ETF candidate for the taxable account.",
			AddedDate: now,
			IsDemo:    true,
		},
	}
}
