package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func validCD() *CDPayload {
	return &CDPayload{
		PrincipalAmount: dec("10000"),
		InterestRate:    dec("4.5"),
		MaturityDate:    time.Now().AddDate(1, 0, 0),
		CurrentValue:    dec("10150.25"),
	}
}

func validTrading() *TradingPayload {
	return &TradingPayload{
		BrokerName:  "Fidelity",
		CashBalance: dec("2500"),
		Positions: []StockPosition{
			{
				ID:            "pos-1",
				Symbol:        "AAPL",
				Shares:        dec("10"),
				PurchasePrice: dec("150"),
				PurchaseDate:  time.Now().AddDate(0, -6, 0),
			},
		},
	}
}

func TestAccountValidate(t *testing.T) {
	valid := Account{
		ID:          "acct-1",
		Name:        "Emergency Fund",
		Institution: "Ally",
		Type:        AccountTypeSavings,
		CreatedDate: time.Now(),
		LastUpdated: time.Now(),
		Payload:     &SavingsPayload{CurrentBalance: dec("1000"), InterestRate: dec("4.0")},
	}

	t.Run("valid account passes", func(t *testing.T) {
		assert.NoError(t, valid.Validate())
	})

	t.Run("empty name", func(t *testing.T) {
		a := valid
		a.Name = "  "
		assert.ErrorIs(t, a.Validate(), ErrValidation)
	})

	t.Run("empty institution", func(t *testing.T) {
		a := valid
		a.Institution = ""
		assert.ErrorIs(t, a.Validate(), ErrValidation)
	})

	t.Run("unknown type tag", func(t *testing.T) {
		a := valid
		a.Type = AccountType("CRYPTO")
		assert.ErrorIs(t, a.Validate(), ErrValidation)
	})

	t.Run("missing payload", func(t *testing.T) {
		a := valid
		a.Payload = nil
		assert.ErrorIs(t, a.Validate(), ErrValidation)
	})

	t.Run("payload type mismatch", func(t *testing.T) {
		a := valid
		a.Payload = validCD()
		err := a.Validate()
		require.ErrorIs(t, err, ErrValidation)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "payload", verr.Field)
	})
}

func TestPayloadValidation(t *testing.T) {
	tests := []struct {
		name    string
		payload Payload
		wantErr bool
		field   string
	}{
		{"valid CD", validCD(), false, ""},
		{
			"CD zero principal",
			&CDPayload{InterestRate: dec("1"), MaturityDate: time.Now().AddDate(1, 0, 0)},
			true, "principal_amount",
		},
		{
			"CD matured",
			&CDPayload{PrincipalAmount: dec("1000"), MaturityDate: time.Now().AddDate(-1, 0, 0)},
			true, "maturity_date",
		},
		{
			"CD negative rate",
			&CDPayload{PrincipalAmount: dec("1000"), InterestRate: dec("-0.1"), MaturityDate: time.Now().AddDate(1, 0, 0)},
			true, "interest_rate",
		},
		{"valid savings", &SavingsPayload{CurrentBalance: dec("0"), InterestRate: dec("0")}, false, ""},
		{"savings negative balance", &SavingsPayload{CurrentBalance: dec("-1")}, true, "current_balance"},
		{
			"valid 401k",
			&RetirementPayload{CurrentBalance: dec("85000"), EmployerMatch: dec("5"), ContributionLimit: dec("23000")},
			false, "",
		},
		{
			"401k zero contribution limit",
			&RetirementPayload{CurrentBalance: dec("85000")},
			true, "contribution_limit",
		},
		{"valid trading", validTrading(), false, ""},
		{"trading empty broker", &TradingPayload{CashBalance: dec("100")}, true, "broker_name"},
		{
			"trading negative cash",
			&TradingPayload{BrokerName: "Schwab", CashBalance: dec("-5")},
			true, "cash_balance",
		},
		{
			"valid i-bonds",
			&IBondsPayload{
				PurchaseAmount: dec("5000"),
				PurchaseDate:   time.Now().AddDate(-2, 0, 0),
				CurrentValue:   dec("5400"),
				FixedRate:      dec("0.9"),
				InflationRate:  dec("-0.2"),
				MaturityDate:   time.Now().AddDate(28, 0, 0),
			},
			false, "",
		},
		{
			"i-bonds future purchase date",
			&IBondsPayload{
				PurchaseAmount: dec("5000"),
				PurchaseDate:   time.Now().AddDate(0, 0, 2),
				MaturityDate:   time.Now().AddDate(30, 0, 2),
			},
			true, "purchase_date",
		},
		{
			"i-bonds maturity before purchase",
			&IBondsPayload{
				PurchaseAmount: dec("5000"),
				PurchaseDate:   time.Now().AddDate(-1, 0, 0),
				MaturityDate:   time.Now().AddDate(-2, 0, 0),
			},
			true, "maturity_date",
		},
		{
			"valid HSA",
			&HSAPayload{
				CurrentBalance:          dec("4000"),
				AnnualContributionLimit: dec("4300"),
				CurrentYearContribs:     dec("1200"),
				InvestmentBalance:       dec("2500"),
				CashBalance:             dec("1500"),
			},
			false, "",
		},
		{
			"HSA balance mismatch",
			&HSAPayload{
				CurrentBalance:          dec("4000"),
				AnnualContributionLimit: dec("4300"),
				InvestmentBalance:       dec("2500"),
				CashBalance:             dec("1000"),
			},
			true, "current_balance",
		},
		{
			"HSA contributions over limit",
			&HSAPayload{
				CurrentBalance:          dec("4000"),
				AnnualContributionLimit: dec("4300"),
				CurrentYearContribs:     dec("4301"),
				InvestmentBalance:       dec("2500"),
				CashBalance:             dec("1500"),
			},
			true, "current_year_contributions",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.payload.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrValidation)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestPayloadValues(t *testing.T) {
	assert.True(t, dec("10150.25").Equal(validCD().Value()))

	savings := &SavingsPayload{CurrentBalance: dec("1234.56")}
	assert.True(t, dec("1234.56").Equal(savings.Value()))

	// Trading: 2500 cash + 10 shares at purchase price 150 = 4000.
	trading := validTrading()
	assert.True(t, dec("4000").Equal(trading.Value()))

	// A fresh quote moves the market value and the gains.
	trading.Positions[0].CurrentPrice = decPtr("175.50")
	assert.True(t, dec("4255").Equal(trading.Value()))
	assert.True(t, dec("255").Equal(trading.TotalUnrealizedGainLoss()))
}

func TestHSAContributionHelpers(t *testing.T) {
	hsa := &HSAPayload{
		AnnualContributionLimit: dec("4300"),
		CurrentYearContribs:     dec("1075"),
	}

	assert.True(t, dec("3225").Equal(hsa.RemainingContributionCapacity()))
	assert.True(t, dec("25").Equal(hsa.ContributionProgress()))

	empty := &HSAPayload{}
	assert.True(t, decimal.Zero.Equal(empty.ContributionProgress()))
	assert.True(t, decimal.Zero.Equal(empty.RemainingContributionCapacity()))
}

func TestMarshalUnmarshalPayloadRoundTrip(t *testing.T) {
	payloads := []Payload{
		validCD(),
		&SavingsPayload{CurrentBalance: dec("900.10"), InterestRate: dec("3.85")},
		&RetirementPayload{CurrentBalance: dec("120000"), EmployerMatch: dec("6"), ContributionLimit: dec("23500"), EmployerContribution: dec("4800")},
		validTrading(),
		&HSAPayload{CurrentBalance: dec("10"), AnnualContributionLimit: dec("4300"), InvestmentBalance: dec("4"), CashBalance: dec("6")},
	}

	for _, p := range payloads {
		t.Run(string(p.AccountType()), func(t *testing.T) {
			data, err := MarshalPayload(p)
			require.NoError(t, err)

			got, err := UnmarshalPayload(p.AccountType(), data)
			require.NoError(t, err)

			assert.Equal(t, p.AccountType(), got.AccountType())
			assert.True(t, p.Value().Equal(got.Value()),
				"value changed across round trip: %s vs %s", p.Value(), got.Value())
		})
	}
}

func TestUnmarshalPayloadRejectsUnknownTag(t *testing.T) {
	_, err := UnmarshalPayload(AccountType("BONDS"), []byte(`{}`))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUnmarshalPayloadRejectsMalformedJSON(t *testing.T) {
	_, err := UnmarshalPayload(AccountTypeSavings, []byte(`{"current_balance": not-json`))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrValidation)
}

func TestStockPositionValidate(t *testing.T) {
	valid := StockPosition{
		Symbol:        "VTI",
		Shares:        dec("12.5"),
		PurchasePrice: dec("220.10"),
		PurchaseDate:  time.Now().AddDate(0, -1, 0),
	}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*StockPosition)
	}{
		{"empty symbol", func(p *StockPosition) { p.Symbol = " " }},
		{"zero shares", func(p *StockPosition) { p.Shares = decimal.Zero }},
		{"negative purchase price", func(p *StockPosition) { p.PurchasePrice = dec("-1") }},
		{"future purchase date", func(p *StockPosition) { p.PurchaseDate = time.Now().AddDate(0, 0, 3) }},
		{"zero current price", func(p *StockPosition) { p.CurrentPrice = decPtr("0") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			assert.ErrorIs(t, p.Validate(), ErrValidation)
		})
	}
}

func TestStockPositionMath(t *testing.T) {
	p := StockPosition{
		Symbol:        "MSFT",
		Shares:        dec("4"),
		PurchasePrice: dec("300"),
		PurchaseDate:  time.Now().AddDate(0, -3, 0),
	}

	// No quote yet: market value falls back to cost basis, gains are zero.
	assert.True(t, dec("1200").Equal(p.MarketValue()))
	assert.True(t, decimal.Zero.Equal(p.UnrealizedGainLoss()))
	assert.True(t, decimal.Zero.Equal(p.UnrealizedGainLossPercent()))

	p.CurrentPrice = decPtr("330")
	assert.True(t, dec("1320").Equal(p.MarketValue()))
	assert.True(t, dec("120").Equal(p.UnrealizedGainLoss()))
	assert.True(t, dec("10").Equal(p.UnrealizedGainLossPercent()))
}

func TestTradingPayloadPositionHelpers(t *testing.T) {
	trading := validTrading()

	require.NotNil(t, trading.Position("AAPL"))
	assert.Nil(t, trading.Position("TSLA"))

	assert.True(t, trading.RemovePosition("AAPL"))
	assert.False(t, trading.RemovePosition("AAPL"))
	assert.Empty(t, trading.Positions)
}

func TestWatchlistItemValidate(t *testing.T) {
	valid := WatchlistItem{
		ID:        "w-1",
		Symbol:    NormalizeSymbol(" brk.b "),
		AddedDate: time.Now(),
	}
	require.Equal(t, "BRK.B", valid.Symbol)
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		symbol string
	}{
		{"empty", ""},
		{"lowercase not normalized", "aapl"},
		{"too long", "ABCDEFGHIJK"},
		{"bad characters", "AA PL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := valid
			w.Symbol = tt.symbol
			assert.ErrorIs(t, w.Validate(), ErrValidation)
		})
	}

	t.Run("non-positive price", func(t *testing.T) {
		w := valid
		w.CurrentPrice = decPtr("0")
		assert.ErrorIs(t, w.Validate(), ErrValidation)
	})
}
