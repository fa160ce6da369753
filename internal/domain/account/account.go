package account

import (
	"fmt"
	"time"

	"account-service/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
)

type AccountType string

const (
	TypeSavings   AccountType = "SAVINGS"
	TypeCurrent   AccountType = "CURRENT"
	TypeFixedTerm AccountType = "FIXED_TERM"
)

// IsKnown reports whether the type is one of the closed set of variants.
func (t AccountType) IsKnown() bool {
	return t == TypeSavings || t == TypeCurrent || t == TypeFixedTerm
}

func ParseAccountType(s string) (AccountType, error) {
	t := AccountType(s)
	if !t.IsKnown() {
		return "", fmt.Errorf("%w: unknown account type %q", apperrors.ErrInvalidAccountType, s)
	}
	return t, nil
}

// Account is a single bank account owned by a customer. The variant
// attributes are populated only for the matching Type: a SAVINGS account
// carries MonthlyMovementLimit, a CURRENT account carries MaintenanceFee
// and a FIXED_TERM account carries WithdrawalDate.
type Account struct {
	ID         string          `json:"id"`
	CustomerID string          `json:"customerId"`
	Type       AccountType     `json:"type"`
	Balance    decimal.Decimal `json:"balance"`

	MonthlyMovementLimit *int             `json:"monthlyMovementLimit,omitempty"`
	MaintenanceFee       *decimal.Decimal `json:"maintenanceFee,omitempty"`
	WithdrawalDate       *time.Time       `json:"withdrawalDate,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewAccount builds an unpersisted account. The id stays empty until the
// store assigns one on insert; the balance defaults to zero.
func NewAccount(customerID string, accountType AccountType) *Account {
	return &Account{
		CustomerID: customerID,
		Type:       accountType,
		Balance:    decimal.Zero,
	}
}

func (a *Account) SetBalance(balance decimal.Decimal) {
	if !a.Balance.Equal(balance) {
		a.Balance = balance
		a.UpdatedAt = time.Now()
	}
}

// Matured reports whether a fixed term account's withdrawal date has
// passed. Always false for other variants.
func (a *Account) Matured(asOf time.Time) bool {
	return a.Type == TypeFixedTerm && a.WithdrawalDate != nil && !a.WithdrawalDate.After(asOf)
}
