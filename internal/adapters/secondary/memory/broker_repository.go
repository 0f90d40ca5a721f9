// Package memory provides an in-process broker store for local development
// and tests. Data does not survive a restart.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/lorrc/broker-roster/internal/core/domain"
	apperrors "github.com/lorrc/broker-roster/internal/core/errors"
	"github.com/lorrc/broker-roster/internal/core/ports"
)

// BrokerRepository implements ports.BrokerRepository over a map
type BrokerRepository struct {
	mu      sync.RWMutex
	brokers map[string]*domain.Broker
}

var _ ports.BrokerRepository = (*BrokerRepository)(nil)

// NewBrokerRepository creates an empty in-memory broker repository
func NewBrokerRepository() *BrokerRepository {
	return &BrokerRepository{brokers: make(map[string]*domain.Broker)}
}

// Ping always succeeds
func (r *BrokerRepository) Ping(ctx context.Context) error {
	return nil
}

// Create stores a copy of the broker
func (r *BrokerRepository) Create(ctx context.Context, broker *domain.Broker) (*domain.Broker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.emailTaken(broker.Email, broker.ID) {
		return nil, apperrors.ErrBrokerEmailExists
	}

	r.brokers[broker.ID] = clone(broker)
	return clone(broker), nil
}

// GetByID returns a copy of the stored broker
func (r *BrokerRepository) GetByID(ctx context.Context, id string) (*domain.Broker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	broker, ok := r.brokers[id]
	if !ok {
		return nil, apperrors.ErrBrokerNotFound
	}
	return clone(broker), nil
}

// List returns brokers matching the filter ordered by creation time, then ID
func (r *BrokerRepository) List(ctx context.Context, filter domain.StatusFilter) ([]*domain.Broker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	brokers := make([]*domain.Broker, 0, len(r.brokers))
	for _, b := range r.brokers {
		if filter.Matches(b) {
			brokers = append(brokers, clone(b))
		}
	}

	sort.Slice(brokers, func(i, j int) bool {
		if brokers[i].CreatedAt.Equal(brokers[j].CreatedAt) {
			return brokers[i].ID < brokers[j].ID
		}
		return brokers[i].CreatedAt.Before(brokers[j].CreatedAt)
	})

	return brokers, nil
}

// Update replaces the broker's contact details
func (r *BrokerRepository) Update(ctx context.Context, broker *domain.Broker) (*domain.Broker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.brokers[broker.ID]
	if !ok {
		return nil, apperrors.ErrBrokerNotFound
	}
	if r.emailTaken(broker.Email, broker.ID) {
		return nil, apperrors.ErrBrokerEmailExists
	}

	existing.Name = broker.Name
	existing.Email = broker.Email
	existing.Phone = broker.Phone
	existing.PhotoURL = copyString(broker.PhotoURL)

	return clone(existing), nil
}

// SetStatus sets the broker's online flag
func (r *BrokerRepository) SetStatus(ctx context.Context, id string, isOnline bool) (*domain.Broker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	broker, ok := r.brokers[id]
	if !ok {
		return nil, apperrors.ErrBrokerNotFound
	}
	broker.SetOnline(isOnline)
	return clone(broker), nil
}

// Delete removes a broker
func (r *BrokerRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.brokers[id]; !ok {
		return apperrors.ErrBrokerNotFound
	}
	delete(r.brokers, id)
	return nil
}

// CountByStatus returns total, online and offline counts
func (r *BrokerRepository) CountByStatus(ctx context.Context) (*domain.BrokerStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &domain.BrokerStats{Total: len(r.brokers)}
	for _, b := range r.brokers {
		if b.IsOnline {
			stats.Online++
		}
	}
	stats.Offline = stats.Total - stats.Online
	return stats, nil
}

// emailTaken reports whether another broker already uses the email.
// Callers must hold the lock.
func (r *BrokerRepository) emailTaken(email, exceptID string) bool {
	for id, b := range r.brokers {
		if id != exceptID && strings.EqualFold(b.Email, email) {
			return true
		}
	}
	return false
}

func clone(b *domain.Broker) *domain.Broker {
	c := *b
	c.PhotoURL = copyString(b.PhotoURL)
	return &c
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
