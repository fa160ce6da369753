package dto

import (
	"fmt"
	"strings"
	"time"

	"account-service/internal/domain/account"
	"account-service/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
)

type ErrorDetail struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// CreateAccountRequest is the payload for opening a new account. Balance
// is optional and defaults to zero; the variant fields must match the
// requested type.
type CreateAccountRequest struct {
	CustomerID           string           `json:"customerId"`
	Type                 string           `json:"type"`
	Balance              *decimal.Decimal `json:"balance,omitempty"`
	MonthlyMovementLimit *int             `json:"monthlyMovementLimit,omitempty"`
	MaintenanceFee       *decimal.Decimal `json:"maintenanceFee,omitempty"`
	WithdrawalDate       *time.Time       `json:"withdrawalDate,omitempty"`
}

func (r *CreateAccountRequest) Validate() error {
	if strings.TrimSpace(r.CustomerID) == "" {
		return fmt.Errorf("%w: customerId cannot be empty", apperrors.ErrInvalidArgument)
	}
	if strings.TrimSpace(r.Type) == "" {
		return fmt.Errorf("%w: type cannot be empty", apperrors.ErrInvalidArgument)
	}
	if r.Balance != nil && r.Balance.IsNegative() {
		return fmt.Errorf("%w: balance cannot be negative", apperrors.ErrInvalidArgument)
	}
	return nil
}

// ToAccount maps the request onto an unpersisted domain account. A
// current account with no fee in the payload gets a zero fee.
func (r *CreateAccountRequest) ToAccount() (*account.Account, error) {
	accountType, err := account.ParseAccountType(r.Type)
	if err != nil {
		return nil, err
	}

	acct := account.NewAccount(r.CustomerID, accountType)
	if r.Balance != nil {
		acct.Balance = *r.Balance
	}
	acct.MonthlyMovementLimit = r.MonthlyMovementLimit
	acct.MaintenanceFee = r.MaintenanceFee
	acct.WithdrawalDate = r.WithdrawalDate

	if accountType == account.TypeCurrent && acct.MaintenanceFee == nil {
		zero := decimal.Zero
		acct.MaintenanceFee = &zero
	}

	return acct, nil
}

type UpdateBalanceRequest struct {
	Balance decimal.Decimal `json:"balance"`
}

type AccountResponse struct {
	ID                   string           `json:"id"`
	CustomerID           string           `json:"customerId"`
	Type                 string           `json:"type"`
	Balance              decimal.Decimal  `json:"balance"`
	MonthlyMovementLimit *int             `json:"monthlyMovementLimit,omitempty"`
	MaintenanceFee       *decimal.Decimal `json:"maintenanceFee,omitempty"`
	WithdrawalDate       *time.Time       `json:"withdrawalDate,omitempty"`
	CreatedAt            time.Time        `json:"createdAt"`
	UpdatedAt            time.Time        `json:"updatedAt"`
}

func NewAccountResponse(acct *account.Account) AccountResponse {
	return AccountResponse{
		ID:                   acct.ID,
		CustomerID:           acct.CustomerID,
		Type:                 string(acct.Type),
		Balance:              acct.Balance,
		MonthlyMovementLimit: acct.MonthlyMovementLimit,
		MaintenanceFee:       acct.MaintenanceFee,
		WithdrawalDate:       acct.WithdrawalDate,
		CreatedAt:            acct.CreatedAt,
		UpdatedAt:            acct.UpdatedAt,
	}
}

func NewAccountListResponse(accts []*account.Account) []AccountResponse {
	resp := make([]AccountResponse, len(accts))
	for i, acct := range accts {
		resp[i] = NewAccountResponse(acct)
	}
	return resp
}
