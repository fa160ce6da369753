package postgres

import (
	"account-service/internal/domain/account"
	"account-service/internal/pkg/apperrors"
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

const pgxmockExpectationsNotMetMsg = "there were unfulfilled pgxmock expectations"

var accountRows = []string{
	"id", "customer_id", "account_type", "balance",
	"monthly_movement_limit", "maintenance_fee", "withdrawal_date",
	"created_at", "updated_at",
}

func setupAccountRepo(t *testing.T) (context.Context, *AccountRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to open a stub database connection: %v", err)
	}

	ctx := context.Background()
	repo := NewAccountRepository(mockPool, logger)

	return ctx, repo, mockPool
}

func savingsRow(id string, limit int, now time.Time) []any {
	return []any{
		id, "c1", account.TypeSavings, decimal.NewFromInt(100),
		&limit, (*decimal.Decimal)(nil), (*time.Time)(nil),
		now, now,
	}
}

func TestInsertAccountWhenSuccess(t *testing.T) {
	ctx, repo, mockPool := setupAccountRepo(t)
	defer mockPool.Close()

	limit := 5
	acct := account.NewAccount("c1", account.TypeSavings)
	acct.Balance = decimal.NewFromInt(100)
	acct.MonthlyMovementLimit = &limit

	now := time.Now()

	mockPool.ExpectBegin()
	mockPool.ExpectQuery(regexp.QuoteMeta(`INSERT INTO accounts`)).WithArgs(
		acct.CustomerID, acct.Type, acct.Balance,
		acct.MonthlyMovementLimit, acct.MaintenanceFee, acct.WithdrawalDate,
	).WillReturnRows(pgxmock.NewRows(accountRows).AddRow(savingsRow("a1", limit, now)...))
	mockPool.ExpectCommit()

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)

	created, err := repo.InsertInTx(ctx, tx, acct)
	assert.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "a1", created.ID)
	assert.Equal(t, account.TypeSavings, created.Type)
	require.NotNil(t, created.MonthlyMovementLimit)
	assert.Equal(t, limit, *created.MonthlyMovementLimit)

	assert.NoError(t, repo.CommitTx(ctx, tx))
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestInsertAccountTranslatesUniqueViolation(t *testing.T) {
	ctx, repo, mockPool := setupAccountRepo(t)
	defer mockPool.Close()

	limit := 5
	acct := account.NewAccount("c1", account.TypeSavings)
	acct.MonthlyMovementLimit = &limit

	mockPool.ExpectBegin()
	mockPool.ExpectQuery(regexp.QuoteMeta(`INSERT INTO accounts`)).WithArgs(
		acct.CustomerID, acct.Type, acct.Balance,
		acct.MonthlyMovementLimit, acct.MaintenanceFee, acct.WithdrawalDate,
	).WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "accounts_pkey"})
	mockPool.ExpectRollback()

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)

	_, err = repo.InsertInTx(ctx, tx, acct)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)

	assert.NoError(t, repo.RollbackTx(ctx, tx))
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestFindByIDWhenSuccess(t *testing.T) {
	ctx, repo, mockPool := setupAccountRepo(t)
	defer mockPool.Close()

	limit := 3
	now := time.Now()

	mockPool.ExpectQuery(regexp.QuoteMeta(`SELECT`)).WithArgs("a1").
		WillReturnRows(pgxmock.NewRows(accountRows).AddRow(savingsRow("a1", limit, now)...))

	acct, err := repo.FindByID(ctx, "a1")
	assert.NoError(t, err)
	require.NotNil(t, acct)
	assert.Equal(t, "a1", acct.ID)
	assert.Equal(t, "c1", acct.CustomerID)
	assert.True(t, acct.Balance.Equal(decimal.NewFromInt(100)))
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestFindByIDWhenMissingReturnsNotFound(t *testing.T) {
	ctx, repo, mockPool := setupAccountRepo(t)
	defer mockPool.Close()

	mockPool.ExpectQuery(regexp.QuoteMeta(`SELECT`)).WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	acct, err := repo.FindByID(ctx, "missing")
	assert.Nil(t, acct)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestFindByCustomerIDReturnsAllAccounts(t *testing.T) {
	ctx, repo, mockPool := setupAccountRepo(t)
	defer mockPool.Close()

	limit := 3
	now := time.Now()

	mockPool.ExpectQuery(regexp.QuoteMeta(`WHERE customer_id = $1`)).WithArgs("c1").
		WillReturnRows(pgxmock.NewRows(accountRows).
			AddRow(savingsRow("a1", limit, now)...).
			AddRow(savingsRow("a2", limit, now)...))

	accts, err := repo.FindByCustomerID(ctx, "c1")
	assert.NoError(t, err)
	require.Len(t, accts, 2)
	assert.Equal(t, "a1", accts[0].ID)
	assert.Equal(t, "a2", accts[1].ID)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestFindByCustomerIDWhenNoAccountsReturnsEmptySlice(t *testing.T) {
	ctx, repo, mockPool := setupAccountRepo(t)
	defer mockPool.Close()

	mockPool.ExpectQuery(regexp.QuoteMeta(`WHERE customer_id = $1`)).WithArgs("c9").
		WillReturnRows(pgxmock.NewRows(accountRows))

	accts, err := repo.FindByCustomerID(ctx, "c9")
	assert.NoError(t, err)
	assert.NotNil(t, accts)
	assert.Empty(t, accts)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestFindByCustomerIDAndTypeFiltersByType(t *testing.T) {
	ctx, repo, mockPool := setupAccountRepo(t)
	defer mockPool.Close()

	limit := 3
	now := time.Now()

	mockPool.ExpectQuery(regexp.QuoteMeta(`WHERE customer_id = $1 AND account_type = $2`)).
		WithArgs("c1", string(account.TypeSavings)).
		WillReturnRows(pgxmock.NewRows(accountRows).AddRow(savingsRow("a1", limit, now)...))

	accts, err := repo.FindByCustomerIDAndType(ctx, "c1", account.TypeSavings)
	assert.NoError(t, err)
	require.Len(t, accts, 1)
	assert.Equal(t, account.TypeSavings, accts[0].Type)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestCountByCustomerIDAndTypeInTx(t *testing.T) {
	ctx, repo, mockPool := setupAccountRepo(t)
	defer mockPool.Close()

	mockPool.ExpectBegin()
	mockPool.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM accounts WHERE customer_id = $1 AND account_type = $2`)).
		WithArgs("c1", string(account.TypeSavings)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mockPool.ExpectRollback()

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)

	count, err := repo.CountByCustomerIDAndTypeInTx(ctx, tx, "c1", account.TypeSavings)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)

	assert.NoError(t, repo.RollbackTx(ctx, tx))
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestAcquireCreationLockInTx(t *testing.T) {
	ctx, repo, mockPool := setupAccountRepo(t)
	defer mockPool.Close()

	mockPool.ExpectBegin()
	mockPool.ExpectExec(regexp.QuoteMeta(`SELECT pg_advisory_xact_lock(hashtext($1), hashtext($2))`)).
		WithArgs("c1", string(account.TypeSavings)).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mockPool.ExpectRollback()

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)

	assert.NoError(t, repo.AcquireCreationLockInTx(ctx, tx, "c1", account.TypeSavings))
	assert.NoError(t, repo.RollbackTx(ctx, tx))
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestUpdateBalanceWhenSuccess(t *testing.T) {
	ctx, repo, mockPool := setupAccountRepo(t)
	defer mockPool.Close()

	limit := 3
	now := time.Now()
	newBalance := decimal.NewFromInt(100)

	mockPool.ExpectQuery(regexp.QuoteMeta(`UPDATE accounts`)).
		WithArgs(newBalance, "a1").
		WillReturnRows(pgxmock.NewRows(accountRows).AddRow(savingsRow("a1", limit, now)...))

	acct, err := repo.UpdateBalance(ctx, "a1", newBalance)
	assert.NoError(t, err)
	require.NotNil(t, acct)
	assert.True(t, acct.Balance.Equal(newBalance))
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestUpdateBalanceWhenMissingReturnsNotFound(t *testing.T) {
	ctx, repo, mockPool := setupAccountRepo(t)
	defer mockPool.Close()

	mockPool.ExpectQuery(regexp.QuoteMeta(`UPDATE accounts`)).
		WithArgs(decimal.NewFromInt(10), "missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.UpdateBalance(ctx, "missing", decimal.NewFromInt(10))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestDeleteWhenSuccess(t *testing.T) {
	ctx, repo, mockPool := setupAccountRepo(t)
	defer mockPool.Close()

	mockPool.ExpectExec(regexp.QuoteMeta(`DELETE FROM accounts WHERE id = $1`)).
		WithArgs("a1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	assert.NoError(t, repo.Delete(ctx, "a1"))
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestDeleteWhenMissingReturnsNotFound(t *testing.T) {
	ctx, repo, mockPool := setupAccountRepo(t)
	defer mockPool.Close()

	mockPool.ExpectExec(regexp.QuoteMeta(`DELETE FROM accounts WHERE id = $1`)).
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.Delete(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestFindMaturedFixedTerm(t *testing.T) {
	ctx, repo, mockPool := setupAccountRepo(t)
	defer mockPool.Close()

	now := time.Now()
	withdrawal := now.Add(-24 * time.Hour)

	mockPool.ExpectQuery(regexp.QuoteMeta(`WHERE account_type = $1 AND withdrawal_date <= $2`)).
		WithArgs(string(account.TypeFixedTerm), now).
		WillReturnRows(pgxmock.NewRows(accountRows).AddRow(
			"a3", "c2", account.TypeFixedTerm, decimal.NewFromInt(500),
			(*int)(nil), (*decimal.Decimal)(nil), &withdrawal,
			now, now,
		))

	accts, err := repo.FindMaturedFixedTerm(ctx, now)
	assert.NoError(t, err)
	require.Len(t, accts, 1)
	assert.Equal(t, account.TypeFixedTerm, accts[0].Type)
	require.NotNil(t, accts[0].WithdrawalDate)
	assert.True(t, accts[0].Matured(now))
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestTranslateDBError(t *testing.T) {
	t.Run("nil passes through", func(t *testing.T) {
		assert.NoError(t, translateDBError(nil, logger))
	})

	t.Run("no rows becomes not found", func(t *testing.T) {
		assert.ErrorIs(t, translateDBError(pgx.ErrNoRows, logger), apperrors.ErrNotFound)
	})

	t.Run("unique violation becomes already exists", func(t *testing.T) {
		err := translateDBError(&pgconn.PgError{Code: "23505", ConstraintName: "accounts_pkey"}, logger)
		assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
	})

	t.Run("other pg error becomes database error", func(t *testing.T) {
		err := translateDBError(&pgconn.PgError{Code: "42P01"}, logger)
		assert.ErrorIs(t, err, apperrors.ErrDatabase)
	})

	t.Run("generic error becomes database error", func(t *testing.T) {
		err := translateDBError(errors.New("boom"), logger)
		assert.ErrorIs(t, err, apperrors.ErrDatabase)
	})
}
