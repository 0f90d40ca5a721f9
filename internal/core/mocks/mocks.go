package mocks

import (
	"context"

	"github.com/lorrc/broker-roster/internal/core/domain"
	"github.com/lorrc/broker-roster/internal/core/ports"
	"github.com/stretchr/testify/mock"
)

// MockBrokerRepository is a mock implementation of ports.BrokerRepository
type MockBrokerRepository struct {
	mock.Mock
}

var _ ports.BrokerRepository = (*MockBrokerRepository)(nil)

func NewMockBrokerRepository() *MockBrokerRepository {
	return &MockBrokerRepository{}
}

func (m *MockBrokerRepository) Create(ctx context.Context, broker *domain.Broker) (*domain.Broker, error) {
	args := m.Called(ctx, broker)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Broker), args.Error(1)
}

func (m *MockBrokerRepository) GetByID(ctx context.Context, id string) (*domain.Broker, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Broker), args.Error(1)
}

func (m *MockBrokerRepository) List(ctx context.Context, filter domain.StatusFilter) ([]*domain.Broker, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Broker), args.Error(1)
}

func (m *MockBrokerRepository) Update(ctx context.Context, broker *domain.Broker) (*domain.Broker, error) {
	args := m.Called(ctx, broker)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Broker), args.Error(1)
}

func (m *MockBrokerRepository) SetStatus(ctx context.Context, id string, isOnline bool) (*domain.Broker, error) {
	args := m.Called(ctx, id, isOnline)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Broker), args.Error(1)
}

func (m *MockBrokerRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBrokerRepository) CountByStatus(ctx context.Context) (*domain.BrokerStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BrokerStats), args.Error(1)
}

// MockBrokerService is a mock implementation of ports.BrokerService
type MockBrokerService struct {
	mock.Mock
}

var _ ports.BrokerService = (*MockBrokerService)(nil)

func NewMockBrokerService() *MockBrokerService {
	return &MockBrokerService{}
}

func (m *MockBrokerService) ListBrokers(ctx context.Context, filter domain.StatusFilter) ([]*domain.Broker, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Broker), args.Error(1)
}

func (m *MockBrokerService) GetBroker(ctx context.Context, brokerID string) (*domain.Broker, error) {
	args := m.Called(ctx, brokerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Broker), args.Error(1)
}

func (m *MockBrokerService) CreateBroker(ctx context.Context, params domain.BrokerParams) (*domain.Broker, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Broker), args.Error(1)
}

func (m *MockBrokerService) UpdateBroker(ctx context.Context, params ports.UpdateBrokerParams) (*domain.Broker, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Broker), args.Error(1)
}

func (m *MockBrokerService) SetStatus(ctx context.Context, params ports.SetStatusParams) (*domain.Broker, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Broker), args.Error(1)
}

func (m *MockBrokerService) DeleteBroker(ctx context.Context, brokerID string) error {
	args := m.Called(ctx, brokerID)
	return args.Error(0)
}

func (m *MockBrokerService) Stats(ctx context.Context) (*domain.BrokerStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BrokerStats), args.Error(1)
}

// MockChangeNotifier is a mock implementation of ports.ChangeNotifier
type MockChangeNotifier struct {
	mock.Mock
}

var _ ports.ChangeNotifier = (*MockChangeNotifier)(nil)

func NewMockChangeNotifier() *MockChangeNotifier {
	return &MockChangeNotifier{}
}

func (m *MockChangeNotifier) NotifyChanged(ctx context.Context) {
	m.Called(ctx)
}

// MockTransactionManager is a mock implementation of ports.TransactionManager.
// It runs fn inline unless the expectation returns an error.
type MockTransactionManager struct {
	mock.Mock
}

var _ ports.TransactionManager = (*MockTransactionManager)(nil)

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(ctx)
}
