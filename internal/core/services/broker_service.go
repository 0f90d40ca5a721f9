package services

import (
	"context"
	"strings"

	"github.com/lorrc/broker-roster/internal/core/domain"
	apperrors "github.com/lorrc/broker-roster/internal/core/errors"
	"github.com/lorrc/broker-roster/internal/core/ports"
)

// BrokerService implements business logic for the broker roster
type BrokerService struct {
	brokerRepo ports.BrokerRepository
	txManager  ports.TransactionManager
	notifier   ports.ChangeNotifier
}

var _ ports.BrokerService = (*BrokerService)(nil)

// NewBrokerService creates a new broker service
func NewBrokerService(
	brokerRepo ports.BrokerRepository,
	txManager ports.TransactionManager,
	notifier ports.ChangeNotifier,
) ports.BrokerService {
	return &BrokerService{
		brokerRepo: brokerRepo,
		txManager:  txManager,
		notifier:   notifier,
	}
}

// ListBrokers returns the roster, optionally narrowed by online status
func (s *BrokerService) ListBrokers(ctx context.Context, filter domain.StatusFilter) ([]*domain.Broker, error) {
	if filter == "" {
		filter = domain.FilterAll
	}
	if !filter.IsValid() {
		return nil, apperrors.ErrInvalidFilter
	}
	return s.brokerRepo.List(ctx, filter)
}

// GetBroker retrieves a single broker
func (s *BrokerService) GetBroker(ctx context.Context, brokerID string) (*domain.Broker, error) {
	if err := requireID(brokerID); err != nil {
		return nil, err
	}
	return s.brokerRepo.GetByID(ctx, brokerID)
}

// CreateBroker handles the use case for adding a broker to the roster
func (s *BrokerService) CreateBroker(ctx context.Context, params domain.BrokerParams) (*domain.Broker, error) {
	// 1. Create domain entity with validation
	broker, err := domain.NewBroker(params)
	if err != nil {
		return nil, err
	}

	// 2. Persist the broker
	created, err := s.brokerRepo.Create(ctx, broker)
	if err != nil {
		return nil, err
	}

	// 3. Tell every viewer to refetch
	s.notifier.NotifyChanged(ctx)

	return created, nil
}

// UpdateBroker applies a partial update to a broker's contact details
func (s *BrokerService) UpdateBroker(ctx context.Context, params ports.UpdateBrokerParams) (*domain.Broker, error) {
	if err := requireID(params.BrokerID); err != nil {
		return nil, err
	}

	var updated *domain.Broker
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		// 1. Fetch current state (locked for the rest of the transaction)
		broker, err := s.brokerRepo.GetByID(ctx, params.BrokerID)
		if err != nil {
			return err
		}

		// 2. Apply changes (domain validates the fields)
		if err := broker.Apply(params.Update); err != nil {
			return err
		}

		// 3. Persist changes
		updated, err = s.brokerRepo.Update(ctx, broker)
		return err
	})
	if err != nil {
		return nil, err
	}

	// 4. Notify only once the transaction has committed
	s.notifier.NotifyChanged(ctx)

	return updated, nil
}

// SetStatus toggles a broker between online and offline
func (s *BrokerService) SetStatus(ctx context.Context, params ports.SetStatusParams) (*domain.Broker, error) {
	if err := requireID(params.BrokerID); err != nil {
		return nil, err
	}

	updated, err := s.brokerRepo.SetStatus(ctx, params.BrokerID, params.IsOnline)
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyChanged(ctx)

	return updated, nil
}

// DeleteBroker removes a broker from the roster
func (s *BrokerService) DeleteBroker(ctx context.Context, brokerID string) error {
	if err := requireID(brokerID); err != nil {
		return err
	}

	if err := s.brokerRepo.Delete(ctx, brokerID); err != nil {
		return err
	}

	s.notifier.NotifyChanged(ctx)

	return nil
}

// Stats returns online/offline counts for the dashboard header
func (s *BrokerService) Stats(ctx context.Context) (*domain.BrokerStats, error) {
	return s.brokerRepo.CountByStatus(ctx)
}

func requireID(id string) error {
	if strings.TrimSpace(id) == "" {
		return apperrors.ErrBrokerIDRequired
	}
	return nil
}
