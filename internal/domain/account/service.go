package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"account-service/internal/domain/customer"
	"account-service/internal/event"
	"account-service/internal/infrastructure/monitoring"
	"account-service/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Service orchestrates the account lifecycle. Creation runs the full
// pipeline of classification, eligibility and type policy before the
// account is persisted; reads and balance updates go straight to the
// repository.
type Service interface {
	CreateAccount(ctx context.Context, acct *Account) (*Account, error)
	GetAccount(ctx context.Context, accountID string) (*Account, error)
	ListAccountsForCustomer(ctx context.Context, customerID string) ([]*Account, error)
	ListAccountsOfType(ctx context.Context, customerID string, accountType AccountType) ([]*Account, error)
	GetFirstAccountOfType(ctx context.Context, customerID string, accountType AccountType) (*Account, error)
	UpdateBalance(ctx context.Context, accountID string, balance decimal.Decimal) (*Account, error)
	DeleteAccount(ctx context.Context, accountID string) error
}

type accountService struct {
	repo        Repository
	classifier  customer.Classifier
	eligibility *EligibilityEngine
	publisher   event.EventPublisher
	logger      *slog.Logger
}

func NewService(repo Repository, classifier customer.Classifier, eligibility *EligibilityEngine, publisher event.EventPublisher, logger *slog.Logger) Service {
	if repo == nil {
		panic("account repository cannot be nil")
	}
	if classifier == nil {
		panic("customer classifier cannot be nil")
	}
	if eligibility == nil {
		panic("eligibility engine cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &accountService{
		repo:        repo,
		classifier:  classifier,
		eligibility: eligibility,
		publisher:   publisher,
		logger:      logger.With(slog.String("component", "AccountService")),
	}
}

func (s *accountService) CreateAccount(ctx context.Context, acct *Account) (created *Account, err error) {
	if acct == nil {
		return nil, fmt.Errorf("%w: account cannot be nil", apperrors.ErrInvalidArgument)
	}
	logCtx := s.logger.With(slog.String("customerID", acct.CustomerID), slog.String("accountType", string(acct.Type)))
	logCtx.InfoContext(ctx, "Attempting to create account")

	if strings.TrimSpace(acct.CustomerID) == "" {
		monitoring.RecordAccountCreation("invalid_input")
		return nil, fmt.Errorf("%w: customer id cannot be blank", apperrors.ErrInvalidArgument)
	}
	if acct.ID != "" {
		monitoring.RecordAccountCreation("invalid_input")
		return nil, fmt.Errorf("%w: account id must not be set on creation", apperrors.ErrInvalidArgument)
	}
	if acct.Balance.IsNegative() {
		monitoring.RecordAccountCreation("invalid_input")
		return nil, fmt.Errorf("%w: initial balance cannot be negative", apperrors.ErrInvalidAccountData)
	}
	if !acct.Type.IsKnown() {
		monitoring.RecordAccountCreation("invalid_input")
		return nil, fmt.Errorf("%w: unknown account type %q", apperrors.ErrInvalidAccountType, acct.Type)
	}

	classification, err := s.classifier.GetClassification(ctx, acct.CustomerID)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to classify customer", slog.Any("error", err))
		monitoring.RecordAccountCreation("classification_failed")
		return nil, fmt.Errorf("%w: %v", apperrors.ErrClassificationUnavailable, err)
	}
	logCtx = logCtx.With(slog.String("classification", string(classification)))

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to begin transaction for account creation", slog.Any("error", err))
		monitoring.RecordAccountCreation("error")
		return nil, fmt.Errorf("failed to start account creation: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			logCtx.ErrorContext(ctx, "Panic recovered during account creation, rolling back", slog.Any("panic", p))
			_ = s.repo.RollbackTx(ctx, tx)
			monitoring.RecordAccountCreation("panic")
			panic(p)
		} else if err != nil {
			logCtx.WarnContext(ctx, "Rolling back account creation", slog.Any("error", err))
			if rbErr := s.repo.RollbackTx(ctx, tx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				logCtx.ErrorContext(ctx, "Failed to rollback transaction", slog.Any("rollbackError", rbErr))
			}
			monitoring.RecordAccountCreation(creationOutcome(err))
		} else {
			monitoring.RecordAccountCreation("created")
		}
	}()

	// Serializes racing creations for the same customer and type so the
	// one-per-type rule holds under concurrency.
	if classification == customer.ClassificationPersonal {
		if err = s.repo.AcquireCreationLockInTx(ctx, tx, acct.CustomerID, acct.Type); err != nil {
			return nil, fmt.Errorf("failed to acquire creation lock: %w", err)
		}
	}

	if err = s.eligibility.CheckEligibility(ctx, tx, acct, classification); err != nil {
		return nil, err
	}

	if err = ValidateTypeAttributes(acct); err != nil {
		return nil, err
	}

	created, err = s.repo.InsertInTx(ctx, tx, acct)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to insert account", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save account: %w", err)
	}

	if err = s.repo.CommitTx(ctx, tx); err != nil {
		logCtx.ErrorContext(ctx, "Failed to commit account creation", slog.Any("error", err))
		return nil, fmt.Errorf("failed to commit account creation: %w", err)
	}

	logCtx.InfoContext(ctx, "Account created successfully", slog.String("accountID", created.ID))
	s.publishCreatedEvent(ctx, created)

	return created, nil
}

func creationOutcome(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrMaximumAccountsReached):
		return "rejected_max_accounts"
	case errors.Is(err, apperrors.ErrInvalidAccountType):
		return "rejected_type"
	case errors.Is(err, apperrors.ErrInvalidAccountData):
		return "rejected_data"
	default:
		return "error"
	}
}

func (s *accountService) GetAccount(ctx context.Context, accountID string) (*Account, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, fmt.Errorf("%w: account id cannot be blank", apperrors.ErrInvalidArgument)
	}
	acct, err := s.repo.FindByID(ctx, accountID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.ErrorContext(ctx, "Failed to fetch account", slog.String("accountID", accountID), slog.Any("error", err))
		}
		return nil, err
	}
	return acct, nil
}

func (s *accountService) ListAccountsForCustomer(ctx context.Context, customerID string) ([]*Account, error) {
	if strings.TrimSpace(customerID) == "" {
		return nil, fmt.Errorf("%w: customer id cannot be blank", apperrors.ErrInvalidArgument)
	}
	accts, err := s.repo.FindByCustomerID(ctx, customerID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list accounts for customer", slog.String("customerID", customerID), slog.Any("error", err))
		return nil, err
	}
	return accts, nil
}

func (s *accountService) ListAccountsOfType(ctx context.Context, customerID string, accountType AccountType) ([]*Account, error) {
	if strings.TrimSpace(customerID) == "" {
		return nil, fmt.Errorf("%w: customer id cannot be blank", apperrors.ErrInvalidArgument)
	}
	if !accountType.IsKnown() {
		return nil, fmt.Errorf("%w: unknown account type %q", apperrors.ErrInvalidAccountType, accountType)
	}
	accts, err := s.repo.FindByCustomerIDAndType(ctx, customerID, accountType)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list accounts of type",
			slog.String("customerID", customerID), slog.String("accountType", string(accountType)), slog.Any("error", err))
		return nil, err
	}
	return accts, nil
}

func (s *accountService) GetFirstAccountOfType(ctx context.Context, customerID string, accountType AccountType) (*Account, error) {
	accts, err := s.ListAccountsOfType(ctx, customerID, accountType)
	if err != nil {
		return nil, err
	}
	if len(accts) == 0 {
		return nil, fmt.Errorf("%w: customer %s has no account of type %s", apperrors.ErrNotFound, customerID, accountType)
	}
	return accts[0], nil
}

// UpdateBalance replaces the account balance. No other attribute can be
// changed after creation.
func (s *accountService) UpdateBalance(ctx context.Context, accountID string, balance decimal.Decimal) (*Account, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, fmt.Errorf("%w: account id cannot be blank", apperrors.ErrInvalidArgument)
	}
	if balance.IsNegative() {
		return nil, fmt.Errorf("%w: balance cannot be negative", apperrors.ErrInvalidAccountData)
	}
	acct, err := s.repo.UpdateBalance(ctx, accountID, balance)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.ErrorContext(ctx, "Failed to update account balance", slog.String("accountID", accountID), slog.Any("error", err))
		}
		return nil, err
	}
	s.logger.InfoContext(ctx, "Account balance updated",
		slog.String("accountID", accountID), slog.String("balance", balance.String()))
	return acct, nil
}

func (s *accountService) DeleteAccount(ctx context.Context, accountID string) error {
	if strings.TrimSpace(accountID) == "" {
		return fmt.Errorf("%w: account id cannot be blank", apperrors.ErrInvalidArgument)
	}
	acct, err := s.repo.FindByID(ctx, accountID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, accountID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete account", slog.String("accountID", accountID), slog.Any("error", err))
		return err
	}
	s.logger.InfoContext(ctx, "Account deleted", slog.String("accountID", accountID))
	s.publishDeletedEvent(ctx, acct)
	return nil
}

func (s *accountService) publishCreatedEvent(ctx context.Context, acct *Account) {
	if s.publisher == nil {
		return
	}
	evt := event.AccountCreatedEvent{Timestamp: time.Now(), Payload: eventPayload(acct)}
	if err := s.publisher.PublishAccountCreated(ctx, evt); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish account created event",
			slog.String("accountID", acct.ID), slog.Any("error", err))
	}
}

func (s *accountService) publishDeletedEvent(ctx context.Context, acct *Account) {
	if s.publisher == nil {
		return
	}
	evt := event.AccountDeletedEvent{Timestamp: time.Now(), Payload: eventPayload(acct)}
	if err := s.publisher.PublishAccountDeleted(ctx, evt); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish account deleted event",
			slog.String("accountID", acct.ID), slog.Any("error", err))
	}
}

func eventPayload(acct *Account) event.AccountEventPayload {
	return event.AccountEventPayload{
		AccountID:      acct.ID,
		CustomerID:     acct.CustomerID,
		AccountType:    string(acct.Type),
		Balance:        acct.Balance,
		WithdrawalDate: acct.WithdrawalDate,
		MaintenanceFee: acct.MaintenanceFee,
	}
}
