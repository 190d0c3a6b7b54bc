package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// hsaBalanceTolerance absorbs rounding drift when checking that the cash and
// investment portions of an HSA add up to its total balance.
var hsaBalanceTolerance = decimal.New(1, -2) // 0.01

// CDPayload holds certificate-of-deposit data: a fixed principal accruing
// interest until a maturity date.
type CDPayload struct {
	PrincipalAmount decimal.Decimal `json:"principal_amount"`
	InterestRate    decimal.Decimal `json:"interest_rate"`
	MaturityDate    time.Time       `json:"maturity_date"`
	CurrentValue    decimal.Decimal `json:"current_value"`
}

func (p *CDPayload) AccountType() AccountType { return AccountTypeCD }

func (p *CDPayload) Validate() error {
	if p.PrincipalAmount.Sign() <= 0 {
		return NewValidationError("principal_amount", "must be positive")
	}
	if p.InterestRate.IsNegative() {
		return NewValidationError("interest_rate", "cannot be negative")
	}
	if p.MaturityDate.IsZero() || !p.MaturityDate.After(time.Now()) {
		return NewValidationError("maturity_date", "must be in the future")
	}
	if p.CurrentValue.IsNegative() {
		return NewValidationError("current_value", "cannot be negative")
	}
	return nil
}

func (p *CDPayload) Value() decimal.Decimal { return p.CurrentValue }

// SavingsPayload holds a simple interest-bearing balance.
type SavingsPayload struct {
	CurrentBalance decimal.Decimal `json:"current_balance"`
	InterestRate   decimal.Decimal `json:"interest_rate"`
}

func (p *SavingsPayload) AccountType() AccountType { return AccountTypeSavings }

func (p *SavingsPayload) Validate() error {
	if p.CurrentBalance.IsNegative() {
		return NewValidationError("current_balance", "cannot be negative")
	}
	if p.InterestRate.IsNegative() {
		return NewValidationError("interest_rate", "cannot be negative")
	}
	return nil
}

func (p *SavingsPayload) Value() decimal.Decimal { return p.CurrentBalance }

// RetirementPayload holds 401k data: balance plus employer match terms.
type RetirementPayload struct {
	CurrentBalance       decimal.Decimal `json:"current_balance"`
	EmployerMatch        decimal.Decimal `json:"employer_match"`
	ContributionLimit    decimal.Decimal `json:"contribution_limit"`
	EmployerContribution decimal.Decimal `json:"employer_contribution"`
}

func (p *RetirementPayload) AccountType() AccountType { return AccountTypeRetirement }

func (p *RetirementPayload) Validate() error {
	if p.CurrentBalance.IsNegative() {
		return NewValidationError("current_balance", "cannot be negative")
	}
	if p.EmployerMatch.IsNegative() {
		return NewValidationError("employer_match", "cannot be negative")
	}
	if p.ContributionLimit.Sign() <= 0 {
		return NewValidationError("contribution_limit", "must be positive")
	}
	if p.EmployerContribution.IsNegative() {
		return NewValidationError("employer_contribution", "cannot be negative")
	}
	return nil
}

func (p *RetirementPayload) Value() decimal.Decimal { return p.CurrentBalance }

// TradingPayload holds a brokerage account: cash plus stock positions.
type TradingPayload struct {
	BrokerName  string          `json:"broker_name"`
	CashBalance decimal.Decimal `json:"cash_balance"`
	Positions   []StockPosition `json:"positions"`
}

func (p *TradingPayload) AccountType() AccountType { return AccountTypeTrading }

func (p *TradingPayload) Validate() error {
	if strings.TrimSpace(p.BrokerName) == "" {
		return NewValidationError("broker_name", "cannot be empty")
	}
	if p.CashBalance.IsNegative() {
		return NewValidationError("cash_balance", "cannot be negative")
	}
	for i := range p.Positions {
		if err := p.Positions[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Value is the cash balance plus the market value of every position.
func (p *TradingPayload) Value() decimal.Decimal {
	total := p.CashBalance
	for i := range p.Positions {
		total = total.Add(p.Positions[i].MarketValue())
	}
	return total
}

// TotalUnrealizedGainLoss sums unrealized gains and losses across positions.
func (p *TradingPayload) TotalUnrealizedGainLoss() decimal.Decimal {
	total := decimal.Zero
	for i := range p.Positions {
		total = total.Add(p.Positions[i].UnrealizedGainLoss())
	}
	return total
}

// Position returns the position with the given symbol, or nil.
func (p *TradingPayload) Position(symbol string) *StockPosition {
	for i := range p.Positions {
		if p.Positions[i].Symbol == symbol {
			return &p.Positions[i]
		}
	}
	return nil
}

// RemovePosition deletes the position with the given symbol and reports
// whether one was removed.
func (p *TradingPayload) RemovePosition(symbol string) bool {
	for i := range p.Positions {
		if p.Positions[i].Symbol == symbol {
			p.Positions = append(p.Positions[:i], p.Positions[i+1:]...)
			return true
		}
	}
	return false
}

// IBondsPayload holds treasury inflation bond data.
type IBondsPayload struct {
	PurchaseAmount decimal.Decimal `json:"purchase_amount"`
	PurchaseDate   time.Time       `json:"purchase_date"`
	CurrentValue   decimal.Decimal `json:"current_value"`
	FixedRate      decimal.Decimal `json:"fixed_rate"`
	InflationRate  decimal.Decimal `json:"inflation_rate"`
	MaturityDate   time.Time       `json:"maturity_date"`
}

func (p *IBondsPayload) AccountType() AccountType { return AccountTypeIBonds }

func (p *IBondsPayload) Validate() error {
	if p.PurchaseAmount.Sign() <= 0 {
		return NewValidationError("purchase_amount", "must be positive")
	}
	if p.PurchaseDate.IsZero() || p.PurchaseDate.After(time.Now()) {
		return NewValidationError("purchase_date", "cannot be in the future")
	}
	if p.CurrentValue.IsNegative() {
		return NewValidationError("current_value", "cannot be negative")
	}
	if p.FixedRate.IsNegative() {
		return NewValidationError("fixed_rate", "cannot be negative")
	}
	// The inflation rate may legitimately be negative.
	if p.MaturityDate.IsZero() || !p.MaturityDate.After(p.PurchaseDate) {
		return NewValidationError("maturity_date", "must be after the purchase date")
	}
	return nil
}

func (p *IBondsPayload) Value() decimal.Decimal { return p.CurrentValue }

// HSAPayload holds health-savings-account data with contribution tracking.
type HSAPayload struct {
	CurrentBalance          decimal.Decimal `json:"current_balance"`
	AnnualContributionLimit decimal.Decimal `json:"annual_contribution_limit"`
	CurrentYearContribs     decimal.Decimal `json:"current_year_contributions"`
	EmployerContributions   decimal.Decimal `json:"employer_contributions"`
	InvestmentBalance       decimal.Decimal `json:"investment_balance"`
	CashBalance             decimal.Decimal `json:"cash_balance"`
}

func (p *HSAPayload) AccountType() AccountType { return AccountTypeHSA }

func (p *HSAPayload) Validate() error {
	fields := []struct {
		name  string
		value decimal.Decimal
	}{
		{"current_balance", p.CurrentBalance},
		{"annual_contribution_limit", p.AnnualContributionLimit},
		{"current_year_contributions", p.CurrentYearContribs},
		{"employer_contributions", p.EmployerContributions},
		{"investment_balance", p.InvestmentBalance},
		{"cash_balance", p.CashBalance},
	}
	for _, f := range fields {
		if f.value.IsNegative() {
			return NewValidationError(f.name, "cannot be negative")
		}
	}

	diff := p.CashBalance.Add(p.InvestmentBalance).Sub(p.CurrentBalance).Abs()
	if diff.Cmp(hsaBalanceTolerance) > 0 {
		return NewValidationError("current_balance", "cash and investment balances must add up to the current balance")
	}

	if p.CurrentYearContribs.Cmp(p.AnnualContributionLimit) > 0 {
		return NewValidationError("current_year_contributions", "cannot exceed the annual contribution limit")
	}
	return nil
}

func (p *HSAPayload) Value() decimal.Decimal { return p.CurrentBalance }

// RemainingContributionCapacity is how much more can be contributed this year.
func (p *HSAPayload) RemainingContributionCapacity() decimal.Decimal {
	remaining := p.AnnualContributionLimit.Sub(p.CurrentYearContribs)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// ContributionProgress is the percentage of the annual limit used so far.
func (p *HSAPayload) ContributionProgress() decimal.Decimal {
	if p.AnnualContributionLimit.IsZero() {
		return decimal.Zero
	}
	return p.CurrentYearContribs.Div(p.AnnualContributionLimit).Mul(decimal.NewFromInt(100))
}
