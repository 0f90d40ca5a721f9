package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/lorrc/broker-roster/internal/core/domain"
	apperrors "github.com/lorrc/broker-roster/internal/core/errors"
	"github.com/lorrc/broker-roster/internal/core/mocks"
	"github.com/lorrc/broker-roster/internal/core/ports"
	"github.com/lorrc/broker-roster/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func newService() (ports.BrokerService, *mocks.MockBrokerRepository, *mocks.MockChangeNotifier) {
	repo := mocks.NewMockBrokerRepository()
	notifier := mocks.NewMockChangeNotifier()
	txManager := mocks.NewMockTransactionManager()
	txManager.On("WithTransaction", mock.Anything).Return(nil)
	return services.NewBrokerService(repo, txManager, notifier), repo, notifier
}

func TestBrokerService_CreateBroker(t *testing.T) {
	ctx := context.Background()

	t.Run("success notifies once after persisting", func(t *testing.T) {
		svc, repo, notifier := newService()

		var persisted bool
		repo.On("Create", ctx, mock.AnythingOfType("*domain.Broker")).
			Run(func(args mock.Arguments) { persisted = true }).
			Return(&domain.Broker{ID: "b-1", Name: "Ana"}, nil)
		notifier.On("NotifyChanged", ctx).
			Run(func(args mock.Arguments) {
				assert.True(t, persisted, "notification must follow the store write")
			}).
			Return()

		broker, err := svc.CreateBroker(ctx, domain.BrokerParams{
			Name:  "Ana",
			Email: "ana@example.com",
			Phone: "11999990000",
		})

		require.NoError(t, err)
		assert.Equal(t, "b-1", broker.ID)
		repo.AssertExpectations(t)
		notifier.AssertNumberOfCalls(t, "NotifyChanged", 1)
	})

	t.Run("validation error skips store and notification", func(t *testing.T) {
		svc, repo, notifier := newService()

		broker, err := svc.CreateBroker(ctx, domain.BrokerParams{Name: "Ana"})

		assert.Nil(t, broker)
		var validationErr *apperrors.ValidationErrors
		assert.ErrorAs(t, err, &validationErr)
		repo.AssertNotCalled(t, "Create")
		notifier.AssertNotCalled(t, "NotifyChanged")
	})

	t.Run("store failure does not notify", func(t *testing.T) {
		svc, repo, notifier := newService()

		repo.On("Create", ctx, mock.Anything).Return(nil, apperrors.ErrBrokerEmailExists)

		_, err := svc.CreateBroker(ctx, domain.BrokerParams{
			Name:  "Ana",
			Email: "ana@example.com",
			Phone: "1",
		})

		assert.ErrorIs(t, err, apperrors.ErrBrokerEmailExists)
		notifier.AssertNotCalled(t, "NotifyChanged")
	})
}

func TestBrokerService_UpdateBroker(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		svc, repo, notifier := newService()

		existing := &domain.Broker{ID: "b-1", Name: "Ana", Email: "ana@example.com", Phone: "1"}
		repo.On("GetByID", ctx, "b-1").Return(existing, nil)
		repo.On("Update", ctx, mock.MatchedBy(func(b *domain.Broker) bool {
			return b.ID == "b-1" && b.Name == "Ana Lima" && b.Phone == "1"
		})).Return(&domain.Broker{ID: "b-1", Name: "Ana Lima", Email: "ana@example.com", Phone: "1"}, nil)
		notifier.On("NotifyChanged", ctx).Return()

		broker, err := svc.UpdateBroker(ctx, ports.UpdateBrokerParams{
			BrokerID: "b-1",
			Update:   domain.BrokerUpdate{Name: strPtr("Ana Lima")},
		})

		require.NoError(t, err)
		assert.Equal(t, "Ana Lima", broker.Name)
		repo.AssertExpectations(t)
		notifier.AssertNumberOfCalls(t, "NotifyChanged", 1)
	})

	t.Run("not found", func(t *testing.T) {
		svc, repo, notifier := newService()

		repo.On("GetByID", ctx, "missing").Return(nil, apperrors.ErrBrokerNotFound)

		_, err := svc.UpdateBroker(ctx, ports.UpdateBrokerParams{
			BrokerID: "missing",
			Update:   domain.BrokerUpdate{Name: strPtr("X")},
		})

		assert.ErrorIs(t, err, apperrors.ErrBrokerNotFound)
		repo.AssertNotCalled(t, "Update")
		notifier.AssertNotCalled(t, "NotifyChanged")
	})

	t.Run("invalid update", func(t *testing.T) {
		svc, repo, notifier := newService()

		repo.On("GetByID", ctx, "b-1").
			Return(&domain.Broker{ID: "b-1", Name: "Ana", Email: "ana@example.com", Phone: "1"}, nil)

		_, err := svc.UpdateBroker(ctx, ports.UpdateBrokerParams{
			BrokerID: "b-1",
			Update:   domain.BrokerUpdate{Email: strPtr("nope")},
		})

		require.Error(t, err)
		repo.AssertNotCalled(t, "Update")
		notifier.AssertNotCalled(t, "NotifyChanged")
	})

	t.Run("transaction failure does not notify", func(t *testing.T) {
		repo := mocks.NewMockBrokerRepository()
		notifier := mocks.NewMockChangeNotifier()
		txManager := mocks.NewMockTransactionManager()
		txManager.On("WithTransaction", ctx).Return(errors.New("could not begin"))
		svc := services.NewBrokerService(repo, txManager, notifier)

		_, err := svc.UpdateBroker(ctx, ports.UpdateBrokerParams{
			BrokerID: "b-1",
			Update:   domain.BrokerUpdate{Name: strPtr("X")},
		})

		assert.Error(t, err)
		repo.AssertNotCalled(t, "GetByID")
		notifier.AssertNotCalled(t, "NotifyChanged")
	})

	t.Run("blank id", func(t *testing.T) {
		svc, repo, _ := newService()

		_, err := svc.UpdateBroker(ctx, ports.UpdateBrokerParams{BrokerID: " "})

		assert.ErrorIs(t, err, apperrors.ErrBrokerIDRequired)
		repo.AssertNotCalled(t, "GetByID")
	})
}

func TestBrokerService_SetStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("toggle online", func(t *testing.T) {
		svc, repo, notifier := newService()

		repo.On("SetStatus", ctx, "b-1", true).Return(&domain.Broker{ID: "b-1", IsOnline: true}, nil)
		notifier.On("NotifyChanged", ctx).Return()

		broker, err := svc.SetStatus(ctx, ports.SetStatusParams{BrokerID: "b-1", IsOnline: true})

		require.NoError(t, err)
		assert.True(t, broker.IsOnline)
		notifier.AssertNumberOfCalls(t, "NotifyChanged", 1)
	})

	t.Run("store error", func(t *testing.T) {
		svc, repo, notifier := newService()

		repo.On("SetStatus", ctx, "b-1", false).Return(nil, errors.New("connection reset"))

		_, err := svc.SetStatus(ctx, ports.SetStatusParams{BrokerID: "b-1"})

		assert.Error(t, err)
		notifier.AssertNotCalled(t, "NotifyChanged")
	})
}

func TestBrokerService_DeleteBroker(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		svc, repo, notifier := newService()

		repo.On("Delete", ctx, "b-1").Return(nil)
		notifier.On("NotifyChanged", ctx).Return()

		require.NoError(t, svc.DeleteBroker(ctx, "b-1"))
		notifier.AssertNumberOfCalls(t, "NotifyChanged", 1)
	})

	t.Run("not found", func(t *testing.T) {
		svc, repo, notifier := newService()

		repo.On("Delete", ctx, "b-1").Return(apperrors.ErrBrokerNotFound)

		assert.ErrorIs(t, svc.DeleteBroker(ctx, "b-1"), apperrors.ErrBrokerNotFound)
		notifier.AssertNotCalled(t, "NotifyChanged")
	})
}

func TestBrokerService_ListBrokers(t *testing.T) {
	ctx := context.Background()

	t.Run("empty filter lists all", func(t *testing.T) {
		svc, repo, notifier := newService()

		repo.On("List", ctx, domain.FilterAll).Return([]*domain.Broker{{ID: "a"}, {ID: "b"}}, nil)

		brokers, err := svc.ListBrokers(ctx, "")

		require.NoError(t, err)
		assert.Len(t, brokers, 2)
		notifier.AssertNotCalled(t, "NotifyChanged")
	})

	t.Run("invalid filter", func(t *testing.T) {
		svc, repo, _ := newService()

		_, err := svc.ListBrokers(ctx, domain.StatusFilter("busy"))

		assert.ErrorIs(t, err, apperrors.ErrInvalidFilter)
		repo.AssertNotCalled(t, "List")
	})
}

func TestBrokerService_Stats(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newService()

	repo.On("CountByStatus", ctx).Return(&domain.BrokerStats{Total: 3, Online: 1, Offline: 2}, nil)

	stats, err := svc.Stats(ctx)

	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Online)
}
