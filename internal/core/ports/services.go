package ports

import (
	"context"

	"github.com/lorrc/broker-roster/internal/core/domain"
)

// UpdateBrokerParams defines the input for a partial broker update.
type UpdateBrokerParams struct {
	BrokerID string
	Update   domain.BrokerUpdate
}

// SetStatusParams defines the input for toggling a broker's availability.
type SetStatusParams struct {
	BrokerID string
	IsOnline bool
}

// BrokerService defines the core business operations for the roster.
type BrokerService interface {
	ListBrokers(ctx context.Context, filter domain.StatusFilter) ([]*domain.Broker, error)
	GetBroker(ctx context.Context, brokerID string) (*domain.Broker, error)
	CreateBroker(ctx context.Context, params domain.BrokerParams) (*domain.Broker, error)
	UpdateBroker(ctx context.Context, params UpdateBrokerParams) (*domain.Broker, error)
	SetStatus(ctx context.Context, params SetStatusParams) (*domain.Broker, error)
	DeleteBroker(ctx context.Context, brokerID string) error
	Stats(ctx context.Context) (*domain.BrokerStats, error)
}

// ChangeNotifier is invoked after every successful broker mutation.
// It never fails from the caller's point of view.
type ChangeNotifier interface {
	NotifyChanged(ctx context.Context)
}


// TransactionManager defines the port for running atomic operations.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
