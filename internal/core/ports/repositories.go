package ports

import (
	"context"

	"github.com/lorrc/broker-roster/internal/core/domain"
)

// BrokerRepository defines the port for broker persistence.
// Implementations return apperrors.ErrBrokerNotFound for missing rows and
// apperrors.ErrBrokerEmailExists when the email is already taken.
type BrokerRepository interface {
	Create(ctx context.Context, broker *domain.Broker) (*domain.Broker, error)
	GetByID(ctx context.Context, id string) (*domain.Broker, error)
	List(ctx context.Context, filter domain.StatusFilter) ([]*domain.Broker, error)
	Update(ctx context.Context, broker *domain.Broker) (*domain.Broker, error)
	SetStatus(ctx context.Context, id string, isOnline bool) (*domain.Broker, error)
	Delete(ctx context.Context, id string) error
	CountByStatus(ctx context.Context) (*domain.BrokerStats, error)
}
