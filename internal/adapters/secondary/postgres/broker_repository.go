package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lorrc/broker-roster/internal/core/domain"
	apperrors "github.com/lorrc/broker-roster/internal/core/errors"
	"github.com/lorrc/broker-roster/internal/core/ports"
	"github.com/lorrc/broker-roster/internal/core/utils"
)

const (
	brokerColumns = `id, name, email, phone, photo_url, is_online, created_at`

	// uniqueViolation is the PostgreSQL error code for unique_violation
	uniqueViolation = "23505"
)

// BrokerRepository implements ports.BrokerRepository using PostgreSQL
type BrokerRepository struct {
	pool *pgxpool.Pool
}

var _ ports.BrokerRepository = (*BrokerRepository)(nil)

// NewBrokerRepository creates a new broker repository
func NewBrokerRepository(pool *pgxpool.Pool) *BrokerRepository {
	return &BrokerRepository{pool: pool}
}

// Ping checks database connectivity for health probes
func (r *BrokerRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Create inserts a new broker
func (r *BrokerRepository) Create(ctx context.Context, broker *domain.Broker) (*domain.Broker, error) {
	row := GetDBTX(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO brokers (id, name, email, phone, photo_url, is_online, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+brokerColumns,
		broker.ID,
		broker.Name,
		broker.Email,
		broker.Phone,
		utils.ToNullString(broker.PhotoURL),
		broker.IsOnline,
		broker.CreatedAt,
	)

	created, err := scanBroker(row)
	if err != nil {
		return nil, mapError("create broker", err)
	}
	return created, nil
}

// GetByID retrieves a broker by ID. Inside a transaction the row is
// locked until the transaction ends.
func (r *BrokerRepository) GetByID(ctx context.Context, id string) (*domain.Broker, error) {
	query := `SELECT ` + brokerColumns + ` FROM brokers WHERE id = $1`
	if _, inTx := TxFromContext(ctx); inTx {
		query += ` FOR UPDATE`
	}

	broker, err := scanBroker(GetDBTX(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError("get broker", err)
	}
	return broker, nil
}

// List returns brokers matching the filter in creation order
func (r *BrokerRepository) List(ctx context.Context, filter domain.StatusFilter) ([]*domain.Broker, error) {
	query := `SELECT ` + brokerColumns + ` FROM brokers`
	var args []any

	switch filter {
	case domain.FilterOnline:
		query += ` WHERE is_online = $1`
		args = append(args, true)
	case domain.FilterOffline:
		query += ` WHERE is_online = $1`
		args = append(args, false)
	}
	query += ` ORDER BY created_at, id`

	rows, err := GetDBTX(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list brokers: %w", err)
	}
	defer rows.Close()

	brokers := make([]*domain.Broker, 0)
	for rows.Next() {
		broker, err := scanBroker(rows)
		if err != nil {
			return nil, fmt.Errorf("scan broker: %w", err)
		}
		brokers = append(brokers, broker)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list brokers: %w", err)
	}

	return brokers, nil
}

// Update persists the broker's contact details
func (r *BrokerRepository) Update(ctx context.Context, broker *domain.Broker) (*domain.Broker, error) {
	row := GetDBTX(ctx, r.pool).QueryRow(ctx, `
		UPDATE brokers
		SET name = $2, email = $3, phone = $4, photo_url = $5
		WHERE id = $1
		RETURNING `+brokerColumns,
		broker.ID,
		broker.Name,
		broker.Email,
		broker.Phone,
		utils.ToNullString(broker.PhotoURL),
	)

	updated, err := scanBroker(row)
	if err != nil {
		return nil, mapError("update broker", err)
	}
	return updated, nil
}

// SetStatus sets the broker's online flag
func (r *BrokerRepository) SetStatus(ctx context.Context, id string, isOnline bool) (*domain.Broker, error) {
	row := GetDBTX(ctx, r.pool).QueryRow(ctx, `
		UPDATE brokers SET is_online = $2
		WHERE id = $1
		RETURNING `+brokerColumns,
		id, isOnline,
	)

	updated, err := scanBroker(row)
	if err != nil {
		return nil, mapError("set broker status", err)
	}
	return updated, nil
}

// Delete removes a broker
func (r *BrokerRepository) Delete(ctx context.Context, id string) error {
	tag, err := GetDBTX(ctx, r.pool).Exec(ctx, `DELETE FROM brokers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete broker: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrBrokerNotFound
	}
	return nil
}

// CountByStatus returns total, online and offline counts in one query
func (r *BrokerRepository) CountByStatus(ctx context.Context) (*domain.BrokerStats, error) {
	var total, online int
	err := GetDBTX(ctx, r.pool).QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE is_online)
		FROM brokers`,
	).Scan(&total, &online)
	if err != nil {
		return nil, fmt.Errorf("count brokers: %w", err)
	}

	return &domain.BrokerStats{
		Total:   total,
		Online:  online,
		Offline: total - online,
	}, nil
}

// --- Helpers ---

func scanBroker(row pgx.Row) (*domain.Broker, error) {
	var (
		broker   domain.Broker
		photoURL pgtype.Text
	)

	if err := row.Scan(
		&broker.ID,
		&broker.Name,
		&broker.Email,
		&broker.Phone,
		&photoURL,
		&broker.IsOnline,
		&broker.CreatedAt,
	); err != nil {
		return nil, err
	}

	broker.PhotoURL = utils.FromNullString(photoURL)
	return &broker, nil
}

// mapError translates driver errors into domain errors
func mapError(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrBrokerNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return apperrors.ErrBrokerEmailExists
	}

	return fmt.Errorf("%s: %w", op, err)
}
