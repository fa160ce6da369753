package postgres

import (
	"account-service/internal/domain/account"
	"account-service/internal/infrastructure/monitoring"
	"account-service/internal/pkg/apperrors"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
)

type DBPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Acquire(ctx context.Context) (*pgxpool.Conn, error)
	Close()
}

var _ DBPool = (*pgxpool.Pool)(nil)

var _ DBPool = (pgxmock.PgxPoolIface)(nil)

var errMsgFormat = "%w: %w"

const accountColumns = `id, customer_id, account_type, balance, monthly_movement_limit, maintenance_fee, withdrawal_date, created_at, updated_at`

type AccountRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ account.Repository = (*AccountRepository)(nil)

func NewAccountRepository(db DBPool, logger *slog.Logger) *AccountRepository {
	return &AccountRepository{db: db, logger: logger.With("component", "AccountRepository")}
}

func (r *AccountRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to begin transaction", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return tx, nil
}

func (r *AccountRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Commit(ctx); err != nil {
		r.logger.ErrorContext(ctx, "Failed to commit transaction", "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return nil
}

func (r *AccountRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	err := tx.Rollback(ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		r.logger.ErrorContext(ctx, "Failed to rollback transaction", "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return nil
}

// AcquireCreationLockInTx takes a transaction scoped advisory lock keyed
// on (customer_id, account_type). The lock is released automatically on
// commit or rollback.
func (r *AccountRepository) AcquireCreationLockInTx(ctx context.Context, tx pgx.Tx, customerID string, accountType account.AccountType) error {
	sql := `SELECT pg_advisory_xact_lock(hashtext($1), hashtext($2))`

	if _, err := tx.Exec(ctx, sql, customerID, string(accountType)); err != nil {
		r.logger.ErrorContext(ctx, "Failed to acquire creation advisory lock",
			"customer_id", customerID, "account_type", accountType, "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return nil
}

func (r *AccountRepository) InsertInTx(ctx context.Context, tx pgx.Tx, acct *account.Account) (*account.Account, error) {
	sql := `
        INSERT INTO accounts (customer_id, account_type, balance, monthly_movement_limit, maintenance_fee, withdrawal_date, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
        RETURNING ` + accountColumns

	created, err := scanAccount(tx.QueryRow(ctx, sql,
		acct.CustomerID, acct.Type, acct.Balance,
		acct.MonthlyMovementLimit, acct.MaintenanceFee, acct.WithdrawalDate,
	))
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert account", "customer_id", acct.CustomerID, "error", err)
		return nil, translateDBError(err, r.logger)
	}

	r.logger.InfoContext(ctx, "Account created in DB", "account_id", created.ID, "customer_id", created.CustomerID)
	return created, nil
}

func (r *AccountRepository) FindByID(ctx context.Context, accountID string) (*account.Account, error) {
	query := `
        SELECT ` + accountColumns + `
        FROM accounts
        WHERE id = $1`
	status := "success"
	startTime := time.Now()

	acct, err := scanAccount(r.db.QueryRow(ctx, query, accountID))

	if err != nil {
		status = "error"
	}
	monitoring.RecordDBQuery("FindByID", status, time.Since(startTime))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Account not found", "account_id", accountID)
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to get account by ID", "account_id", accountID, "error", err)
		return nil, translateDBError(err, r.logger)
	}
	return acct, nil
}

func (r *AccountRepository) FindByCustomerID(ctx context.Context, customerID string) ([]*account.Account, error) {
	query := `
        SELECT ` + accountColumns + `
        FROM accounts
        WHERE customer_id = $1
        ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query, customerID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query accounts by customer", "customer_id", customerID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	return r.collectAccounts(ctx, rows, customerID)
}

func (r *AccountRepository) FindByCustomerIDAndType(ctx context.Context, customerID string, accountType account.AccountType) ([]*account.Account, error) {
	query := `
        SELECT ` + accountColumns + `
        FROM accounts
        WHERE customer_id = $1 AND account_type = $2
        ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query, customerID, string(accountType))
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query accounts by customer and type",
			"customer_id", customerID, "account_type", accountType, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	return r.collectAccounts(ctx, rows, customerID)
}

func (r *AccountRepository) CountByCustomerIDAndTypeInTx(ctx context.Context, tx pgx.Tx, customerID string, accountType account.AccountType) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM accounts WHERE customer_id = $1 AND account_type = $2`
	err := tx.QueryRow(ctx, query, customerID, string(accountType)).Scan(&count)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to count accounts by customer and type",
			"customer_id", customerID, "account_type", accountType, "error", err)
		return 0, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return count, nil
}

func (r *AccountRepository) UpdateBalance(ctx context.Context, accountID string, balance decimal.Decimal) (*account.Account, error) {
	sql := `
        UPDATE accounts
        SET balance = $1, updated_at = NOW()
        WHERE id = $2
        RETURNING ` + accountColumns
	status := "success"
	startTime := time.Now()

	acct, err := scanAccount(r.db.QueryRow(ctx, sql, balance, accountID))

	if err != nil {
		status = "error"
	}
	monitoring.RecordDBQuery("UpdateBalance", status, time.Since(startTime))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Account not found for balance update", "account_id", accountID)
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to update account balance", "account_id", accountID, "error", err)
		return nil, translateDBError(err, r.logger)
	}

	r.logger.InfoContext(ctx, "Account balance updated in DB", "account_id", accountID)
	return acct, nil
}

func (r *AccountRepository) Delete(ctx context.Context, accountID string) error {
	sql := `DELETE FROM accounts WHERE id = $1`

	cmdTag, err := r.db.Exec(ctx, sql, accountID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete account", "account_id", accountID, "error", err)
		return translateDBError(err, r.logger)
	}
	if cmdTag.RowsAffected() == 0 {
		r.logger.WarnContext(ctx, "Account not found for deletion", "account_id", accountID)
		return apperrors.ErrNotFound
	}
	r.logger.InfoContext(ctx, "Account deleted from DB", "account_id", accountID)
	return nil
}

func (r *AccountRepository) FindMaturedFixedTerm(ctx context.Context, asOf time.Time) ([]*account.Account, error) {
	logCtx := r.logger.With(slog.String("operation", "FindMaturedFixedTerm"))
	logCtx.DebugContext(ctx, "Attempting to find matured fixed term accounts", slog.Time("as_of", asOf))

	query := `
        SELECT ` + accountColumns + `
        FROM accounts
        WHERE account_type = $1 AND withdrawal_date <= $2
        ORDER BY withdrawal_date ASC`

	rows, err := r.db.Query(ctx, query, string(account.TypeFixedTerm), asOf)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to query matured fixed term accounts", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to query matured accounts: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	accounts := make([]*account.Account, 0)
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			logCtx.ErrorContext(ctx, "Failed to scan matured account row", slog.Any("error", err))
			return nil, fmt.Errorf("%w: failed scanning matured account: %w", apperrors.ErrDatabase, err)
		}
		accounts = append(accounts, acct)
	}

	if err = rows.Err(); err != nil {
		logCtx.ErrorContext(ctx, "Error iterating matured account rows", slog.Any("error", err))
		return nil, fmt.Errorf("%w: error iterating matured accounts: %w", apperrors.ErrDatabase, err)
	}

	logCtx.DebugContext(ctx, "Finished finding matured fixed term accounts", slog.Int("count", len(accounts)))
	return accounts, nil
}

func (r *AccountRepository) collectAccounts(ctx context.Context, rows pgx.Rows, customerID string) ([]*account.Account, error) {
	accounts := make([]*account.Account, 0)
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan account row", "customer_id", customerID, "error", err)
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		accounts = append(accounts, acct)
	}

	if err := rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating account rows", "customer_id", customerID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	return accounts, nil
}

func scanAccount(row pgx.Row) (*account.Account, error) {
	var acct account.Account
	err := row.Scan(
		&acct.ID, &acct.CustomerID, &acct.Type, &acct.Balance,
		&acct.MonthlyMovementLimit, &acct.MaintenanceFee, &acct.WithdrawalDate,
		&acct.CreatedAt, &acct.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

func translateDBError(err error, contextLogger *slog.Logger) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" {
			contextLogger.Warn("Database unique constraint violation", "detail", pgErr.Detail, "constraint", pgErr.ConstraintName)
			return fmt.Errorf("%w: %s", apperrors.ErrAlreadyExists, pgErr.ConstraintName)
		}

		contextLogger.Error("PostgreSQL specific error", "code", pgErr.Code, "message", pgErr.Message, "detail", pgErr.Detail)
		return fmt.Errorf("%w: db error code %s", apperrors.ErrDatabase, pgErr.Code)
	}

	contextLogger.Error("Generic database error", "error", err)
	return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
}
