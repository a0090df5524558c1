package service

import (
	"context"

	"magdych/events"
	"magdych/models"

	"github.com/stretchr/testify/mock"
)

// MockStore is a mock implementation of Store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Begin(ctx context.Context) Tx {
	args := m.Called(ctx)
	return args.Get(0).(Tx)
}

func (m *MockStore) Get(id int64) (*models.Account, bool) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*models.Account), args.Bool(1)
}

func (m *MockStore) SnapshotAccounts() []*models.Account {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]*models.Account)
}

func (m *MockStore) Aggregate() *models.GlobalAggregate {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*models.GlobalAggregate)
}

// MockTx is a mock implementation of Tx
type MockTx struct {
	mock.Mock
}

func (m *MockTx) Account(id int64) (*models.Account, bool) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*models.Account), args.Bool(1)
}

func (m *MockTx) Put(acct *models.Account) {
	m.Called(acct)
}

func (m *MockTx) Aggregate() *models.GlobalAggregate {
	args := m.Called()
	return args.Get(0).(*models.GlobalAggregate)
}

func (m *MockTx) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTx) Rollback() {
	m.Called()
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Emit(ctx context.Context, event events.Event) {
	m.Called(ctx, event)
}
