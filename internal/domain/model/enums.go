package model

// AccountType is the discriminant tag for the account payload union.
// The string values are stored in the accounts.type column and in backups,
// so they must never change meaning.
type AccountType string

const (
	AccountTypeCD         AccountType = "CD"
	AccountTypeSavings    AccountType = "SAVINGS"
	AccountTypeRetirement AccountType = "401K"
	AccountTypeTrading    AccountType = "TRADING"
	AccountTypeIBonds     AccountType = "I_BONDS"
	AccountTypeHSA        AccountType = "HSA"
)

// AccountTypes lists every known discriminant in display order.
func AccountTypes() []AccountType {
	return []AccountType{
		AccountTypeCD,
		AccountTypeSavings,
		AccountTypeRetirement,
		AccountTypeTrading,
		AccountTypeIBonds,
		AccountTypeHSA,
	}
}

// Valid reports whether t is one of the known account types.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeCD, AccountTypeSavings, AccountTypeRetirement,
		AccountTypeTrading, AccountTypeIBonds, AccountTypeHSA:
		return true
	}
	return false
}

// ChangeType records why a historical snapshot was taken.
type ChangeType string

const (
	ChangeTypeManualUpdate ChangeType = "MANUAL_UPDATE"
	ChangeTypePriceUpdate  ChangeType = "STOCK_PRICE_UPDATE"
	ChangeTypeInitialEntry ChangeType = "INITIAL_ENTRY"
)

// Valid reports whether c is one of the known change types.
func (c ChangeType) Valid() bool {
	switch c {
	case ChangeTypeManualUpdate, ChangeTypePriceUpdate, ChangeTypeInitialEntry:
		return true
	}
	return false
}

// TrendDirection classifies how an account value is moving over a period.
type TrendDirection string

const (
	TrendIncreasing TrendDirection = "INCREASING"
	TrendDecreasing TrendDirection = "DECREASING"
	TrendStable     TrendDirection = "STABLE"
)
