package account

import (
	"context"
	"io"
	"log/slog"
	"time"

	"account-service/internal/domain/customer"
	"account-service/internal/event"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

type MockRepository struct {
	mock.Mock
}

func (_m *MockRepository) InsertInTx(ctx context.Context, tx pgx.Tx, acct *Account) (*Account, error) {
	ret := _m.Called(ctx, tx, acct)

	var r0 *Account
	if rf, ok := ret.Get(0).(func(context.Context, pgx.Tx, *Account) *Account); ok {
		r0 = rf(ctx, tx, acct)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*Account)
		}
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, pgx.Tx, *Account) error); ok {
		r1 = rf(ctx, tx, acct)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

func (_m *MockRepository) FindByID(ctx context.Context, accountID string) (*Account, error) {
	ret := _m.Called(ctx, accountID)

	var r0 *Account
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Account)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) FindByCustomerID(ctx context.Context, customerID string) ([]*Account, error) {
	ret := _m.Called(ctx, customerID)

	var r0 []*Account
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*Account)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) FindByCustomerIDAndType(ctx context.Context, customerID string, accountType AccountType) ([]*Account, error) {
	ret := _m.Called(ctx, customerID, accountType)

	var r0 []*Account
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*Account)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) CountByCustomerIDAndTypeInTx(ctx context.Context, tx pgx.Tx, customerID string, accountType AccountType) (int64, error) {
	ret := _m.Called(ctx, tx, customerID, accountType)
	return ret.Get(0).(int64), ret.Error(1)
}

func (_m *MockRepository) UpdateBalance(ctx context.Context, accountID string, balance decimal.Decimal) (*Account, error) {
	ret := _m.Called(ctx, accountID, balance)

	var r0 *Account
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Account)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) Delete(ctx context.Context, accountID string) error {
	return _m.Called(ctx, accountID).Error(0)
}

func (_m *MockRepository) FindMaturedFixedTerm(ctx context.Context, asOf time.Time) ([]*Account, error) {
	ret := _m.Called(ctx, asOf)

	var r0 []*Account
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*Account)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) AcquireCreationLockInTx(ctx context.Context, tx pgx.Tx, customerID string, accountType AccountType) error {
	return _m.Called(ctx, tx, customerID, accountType).Error(0)
}

func (_m *MockRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	ret := _m.Called(ctx)

	var r0 pgx.Tx
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(pgx.Tx)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	return _m.Called(ctx, tx).Error(0)
}

func (_m *MockRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	return _m.Called(ctx, tx).Error(0)
}

type MockClassifier struct {
	mock.Mock
}

func (_m *MockClassifier) GetClassification(ctx context.Context, customerID string) (customer.Classification, error) {
	ret := _m.Called(ctx, customerID)
	return ret.Get(0).(customer.Classification), ret.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (_m *MockPublisher) PublishAccountCreated(ctx context.Context, evt event.AccountCreatedEvent) error {
	return _m.Called(ctx, evt).Error(0)
}

func (_m *MockPublisher) PublishAccountDeleted(ctx context.Context, evt event.AccountDeletedEvent) error {
	return _m.Called(ctx, evt).Error(0)
}

func (_m *MockPublisher) PublishAccountMatured(ctx context.Context, evt event.AccountMaturedEvent) error {
	return _m.Called(ctx, evt).Error(0)
}
