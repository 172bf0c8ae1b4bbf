package settlement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/glowly/booking-service/internal/domain"
	"github.com/glowly/booking-service/pkg/dbmetrics"
	"github.com/glowly/booking-service/pkg/psqlbuilder"
)

// pgUniqueViolation код ошибки PostgreSQL при нарушении уникального индекса
const pgUniqueViolation = "23505"

// Repository репозиторий записей о движении депозита
// Таблица append-only: только вставка и чтение, никаких обновлений и удалений
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create записывает движение денег по бронированию
// Уникальный индекс по booking_id гарантирует ровно одно движение на бронирование:
// повторная вставка возвращает ErrAlreadySettled
func (r *Repository) Create(ctx context.Context, s *domain.Settlement) (*domain.Settlement, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("settlements").
		Columns(
			"booking_id",
			"kind",
			"reason",
			"amount",
			"operation_key",
		).
		Values(
			s.BookingID,
			s.Kind,
			s.Reason,
			s.Amount,
			s.OperationKey,
		).
		Suffix("RETURNING id, created_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&s.ID, &createdAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation {
			return nil, ErrAlreadySettled
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	s.CreatedAt = createdAt.Time

	return s, nil
}

// GetByBookingID получает движение денег по бронированию
func (r *Repository) GetByBookingID(ctx context.Context, bookingID int64) (*domain.Settlement, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"booking_id",
		"kind",
		"reason",
		"amount",
		"operation_key",
		"created_at",
	).
		From("settlements").
		Where(squirrel.Eq{"booking_id": bookingID}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByBookingID - build select query: %v", ErrBuildQuery, err)
	}

	var s domain.Settlement
	var createdAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&s.ID,
		&s.BookingID,
		&s.Kind,
		&s.Reason,
		&s.Amount,
		&s.OperationKey,
		&createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrSettlementNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByBookingID - scan settlement: %v", ErrScanRow, err)
	}

	s.CreatedAt = createdAt.Time

	return &s, nil
}
