package account

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type Repository interface {
	InsertInTx(ctx context.Context, tx pgx.Tx, acct *Account) (*Account, error)

	FindByID(ctx context.Context, accountID string) (*Account, error)

	FindByCustomerID(ctx context.Context, customerID string) ([]*Account, error)

	FindByCustomerIDAndType(ctx context.Context, customerID string, accountType AccountType) ([]*Account, error)

	CountByCustomerIDAndTypeInTx(ctx context.Context, tx pgx.Tx, customerID string, accountType AccountType) (int64, error)

	UpdateBalance(ctx context.Context, accountID string, balance decimal.Decimal) (*Account, error)

	Delete(ctx context.Context, accountID string) error

	FindMaturedFixedTerm(ctx context.Context, asOf time.Time) ([]*Account, error)

	// AcquireCreationLockInTx serializes concurrent creations for the
	// same (customerId, type) for the lifetime of the transaction.
	AcquireCreationLockInTx(ctx context.Context, tx pgx.Tx, customerID string, accountType AccountType) error

	BeginTx(ctx context.Context) (pgx.Tx, error)

	CommitTx(ctx context.Context, tx pgx.Tx) error

	RollbackTx(ctx context.Context, tx pgx.Tx) error
}
