package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Account is a single financial holding. The plaintext fields are stored as
// indexable columns; everything type-specific lives in Payload, which is
// serialized and encrypted into the accounts.encrypted_data blob. New account
// types are added by defining a new Payload variant, never by altering the
// physical table.
type Account struct {
	ID            string
	Name          string
	Institution   string
	Type          AccountType
	CreatedDate   time.Time
	LastUpdated   time.Time
	SchemaVersion int
	IsDemo        bool
	Payload       Payload
}

// Payload is the closed union of type-specific account data. Each variant
// validates its own invariants and knows how to compute the account's
// current value for snapshots and net-worth aggregation.
type Payload interface {
	// AccountType returns the discriminant this payload belongs to.
	AccountType() AccountType
	// Validate checks the variant's field invariants.
	Validate() error
	// Value returns the account's present worth.
	Value() decimal.Decimal
}

// Validate checks the account's common fields and its payload. The payload
// must be present and its discriminant must match the account's type tag.
func (a *Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return NewValidationError("name", "cannot be empty")
	}
	if strings.TrimSpace(a.Institution) == "" {
		return NewValidationError("institution", "cannot be empty")
	}
	if !a.Type.Valid() {
		return NewValidationError("type", fmt.Sprintf("unknown account type %q", a.Type))
	}
	if a.Payload == nil {
		return NewValidationError("payload", "missing type-specific data")
	}
	if a.Payload.AccountType() != a.Type {
		return NewValidationError("payload", fmt.Sprintf("payload is %s but account type is %s", a.Payload.AccountType(), a.Type))
	}
	return a.Payload.Validate()
}

// CurrentValue returns the payload's derived value, or zero when no payload
// is attached.
func (a *Account) CurrentValue() decimal.Decimal {
	if a.Payload == nil {
		return decimal.Zero
	}
	return a.Payload.Value()
}

// MarshalPayload serializes a payload variant to its JSON wire form, the
// plaintext that gets encrypted into the data blob.
func MarshalPayload(p Payload) ([]byte, error) {
	if p == nil {
		return nil, NewValidationError("payload", "missing type-specific data")
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", p.AccountType(), err)
	}
	return data, nil
}

// UnmarshalPayload decodes the JSON wire form into the variant selected by
// the account type tag. Shape errors are returned as-is so callers can treat
// an undecodable record as corrupt without aborting a whole listing.
func UnmarshalPayload(t AccountType, data []byte) (Payload, error) {
	var p Payload
	switch t {
	case AccountTypeCD:
		p = &CDPayload{}
	case AccountTypeSavings:
		p = &SavingsPayload{}
	case AccountTypeRetirement:
		p = &RetirementPayload{}
	case AccountTypeTrading:
		p = &TradingPayload{}
	case AccountTypeIBonds:
		p = &IBondsPayload{}
	case AccountTypeHSA:
		p = &HSAPayload{}
	default:
		return nil, NewValidationError("type", fmt.Sprintf("unknown account type %q", t))
	}

	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", t, err)
	}
	return p, nil
}
