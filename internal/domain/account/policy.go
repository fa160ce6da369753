package account

import (
	"fmt"

	"account-service/internal/pkg/apperrors"
)

// ValidateTypeAttributes is the account type policy: it checks that the
// variant attributes are well formed for the declared type and that no
// attribute of a different variant leaked in. Pure function, no store
// access.
func ValidateTypeAttributes(acct *Account) error {
	if acct == nil {
		return fmt.Errorf("%w: account cannot be nil", apperrors.ErrInvalidArgument)
	}

	switch acct.Type {
	case TypeSavings:
		if acct.MaintenanceFee != nil || acct.WithdrawalDate != nil {
			return foreignAttributeError(acct.Type)
		}
		if acct.MonthlyMovementLimit == nil || *acct.MonthlyMovementLimit <= 0 {
			return fmt.Errorf("%w: monthly movement limit must be positive", apperrors.ErrInvalidAccountData)
		}
	case TypeCurrent:
		if acct.MonthlyMovementLimit != nil || acct.WithdrawalDate != nil {
			return foreignAttributeError(acct.Type)
		}
		if acct.MaintenanceFee == nil || acct.MaintenanceFee.IsNegative() {
			return fmt.Errorf("%w: maintenance fee cannot be negative", apperrors.ErrInvalidAccountData)
		}
	case TypeFixedTerm:
		if acct.MonthlyMovementLimit != nil || acct.MaintenanceFee != nil {
			return foreignAttributeError(acct.Type)
		}
		if acct.WithdrawalDate == nil {
			return fmt.Errorf("%w: a specific withdrawal date is required", apperrors.ErrInvalidAccountData)
		}
	default:
		return fmt.Errorf("%w: unknown account type %q", apperrors.ErrInvalidAccountType, acct.Type)
	}

	return nil
}

func foreignAttributeError(t AccountType) error {
	return fmt.Errorf("%w: account of type %s carries attributes of a different variant", apperrors.ErrInvalidAccountData, t)
}
