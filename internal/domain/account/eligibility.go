package account

import (
	"context"
	"fmt"
	"log/slog"

	"account-service/internal/domain/customer"
	"account-service/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
)

// EligibilityEngine decides whether a customer may open a given account.
// PERSONAL customers may hold at most one account per type; BUSINESS
// customers may only open CURRENT accounts. It never persists anything
// itself.
type EligibilityEngine struct {
	repo   Repository
	logger *slog.Logger
}

func NewEligibilityEngine(repo Repository, logger *slog.Logger) *EligibilityEngine {
	if repo == nil {
		panic("account repository cannot be nil")
	}
	return &EligibilityEngine{
		repo:   repo,
		logger: logger.With(slog.String("component", "EligibilityEngine")),
	}
}

// CheckEligibility runs inside the creation transaction so that the
// existing-accounts read is covered by the per (customerId, type)
// creation lock.
func (e *EligibilityEngine) CheckEligibility(ctx context.Context, tx pgx.Tx, acct *Account, classification customer.Classification) error {
	switch classification {
	case customer.ClassificationPersonal:
		count, err := e.repo.CountByCustomerIDAndTypeInTx(ctx, tx, acct.CustomerID, acct.Type)
		if err != nil {
			e.logger.ErrorContext(ctx, "Failed to count existing accounts for eligibility check", slog.Any("error", err))
			return fmt.Errorf("failed to count existing accounts of type %s: %w", acct.Type, err)
		}
		if count > 0 {
			e.logger.WarnContext(ctx, "Personal customer already holds an account of the requested type",
				slog.String("customerID", acct.CustomerID), slog.String("accountType", string(acct.Type)))
			return fmt.Errorf("%w: the personal customer already has an account of type %s", apperrors.ErrMaximumAccountsReached, acct.Type)
		}
	case customer.ClassificationBusiness:
		if acct.Type != TypeCurrent {
			e.logger.WarnContext(ctx, "Business customer requested a non-current account",
				slog.String("customerID", acct.CustomerID), slog.String("accountType", string(acct.Type)))
			return fmt.Errorf("%w: invalid account type %s for business customer", apperrors.ErrInvalidAccountType, acct.Type)
		}
	default:
		e.logger.WarnContext(ctx, "Unrecognized customer classification",
			slog.String("customerID", acct.CustomerID), slog.String("classification", string(classification)))
		return fmt.Errorf("%w: unrecognized customer classification %q", apperrors.ErrInvalidAccountType, classification)
	}

	return nil
}
