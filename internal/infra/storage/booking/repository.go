package booking

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/glowly/booking-service/internal/domain"
	"github.com/glowly/booking-service/pkg/dbmetrics"
	"github.com/glowly/booking-service/pkg/psqlbuilder"
)

// bookingColumns полный список колонок таблицы bookings в порядке сканирования
var bookingColumns = []string{
	"id",
	"salon_id",
	"service_id",
	"customer_id",
	"booking_date",
	"start_time",
	"duration_minutes",
	"total_price",
	"deposit_amount",
	"remaining_amount",
	"status",
	"customer_name",
	"customer_phone",
	"customer_email",
	"customer_country_code",
	"customer_request",
	"rejection_reason",
	"payment_id",
	"created_at",
	"updated_at",
	"deposit_paid_at",
	"confirmed_at",
	"rejected_at",
	"completed_at",
}

// Repository репозиторий для работы с бронированиями
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новое бронирование
// Если в контексте передана активная транзакция (через context.Value), использует её.
// Создание всегда должно идти внутри сериализуемой транзакции вместе с проверкой
// занятости слота - иначе два клиента могут занять один интервал
func (r *Repository) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("bookings").
		Columns(
			"salon_id",
			"service_id",
			"customer_id",
			"booking_date",
			"start_time",
			"duration_minutes",
			"total_price",
			"deposit_amount",
			"remaining_amount",
			"status",
			"customer_name",
			"customer_phone",
			"customer_email",
			"customer_country_code",
			"customer_request",
			"payment_id",
			"deposit_paid_at",
		).
		Values(
			booking.SalonID,
			booking.ServiceID,
			booking.CustomerID,
			booking.BookingDate,
			booking.StartTime,
			booking.DurationMinutes,
			booking.TotalPrice,
			booking.DepositAmount,
			booking.RemainingAmount,
			booking.Status,
			booking.CustomerName,
			booking.CustomerPhone,
			booking.CustomerEmail,
			booking.CustomerCountryCode,
			booking.CustomerRequest,
			booking.PaymentID,
			booking.DepositPaidAt,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&booking.ID,
		&createdAt,
		&updatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	booking.CreatedAt = createdAt.Time
	booking.UpdatedAt = updatedAt.Time

	return booking, nil
}

// GetByID получает бронирование по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	booking, err := r.scanBooking(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan booking: %v", ErrScanRow, err)
	}

	return booking, nil
}

// GetActiveBySalonAndDate получает активные бронирования салона на дату
// Внутри транзакции добавляет FOR UPDATE - так проверка занятости слота и
// вставка нового бронирования сериализуются между конкурентными запросами
func (r *Repository) GetActiveBySalonAndDate(ctx context.Context, salonID int64, date time.Time) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"salon_id": salonID}).
		Where(squirrel.Eq{"booking_date": date}).
		Where(squirrel.Eq{"status": statusStrings(domain.ActiveStatuses)}).
		OrderBy("start_time ASC")

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetActiveBySalonAndDate - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetActiveBySalonAndDate - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanBookings(rows)
}

// GetWithFilter получает бронирования с гибкой фильтрацией
// Поддерживает фильтрацию по салону, статусу и периоду - все опционально
func (r *Repository) GetWithFilter(ctx context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings")

	if filter.SalonID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"salon_id": *filter.SalonID})
	}
	if filter.CustomerID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"customer_id": *filter.CustomerID})
	}
	if filter.Status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.StartDate != nil {
		selectBuilder = selectBuilder.Where(squirrel.GtOrEq{"booking_date": *filter.StartDate})
	}
	if filter.EndDate != nil {
		selectBuilder = selectBuilder.Where(squirrel.LtOrEq{"booking_date": *filter.EndDate})
	}

	// Для конкретной даты сортируем по времени начала, иначе - сначала новые
	if filter.StartDate != nil && filter.EndDate != nil && filter.StartDate.Equal(*filter.EndDate) {
		selectBuilder = selectBuilder.OrderBy("start_time ASC")
	} else {
		selectBuilder = selectBuilder.OrderBy("booking_date DESC, start_time DESC")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetWithFilter - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetWithFilter - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanBookings(rows)
}

// ListExpiredWaiting получает бронирования, у которых истекло окно подтверждения
// Дедлайн вычисляется от created_at, поэтому выборка корректна и после рестарта процесса
func (r *Repository) ListExpiredWaiting(ctx context.Context, now time.Time) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	cutoff := now.Add(-domain.ApprovalTTL)

	query, args, err := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"status": domain.StatusWaitingConfirmation}).
		Where(squirrel.LtOrEq{"created_at": cutoff}).
		OrderBy("created_at ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListExpiredWaiting - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListExpiredWaiting - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanBookings(rows)
}

/// ListPendingRefunds получает бронирования с невыполненным возвратом депозита:
// зависшие в refund_pending и отмены клиентом без записи в settlements
// Используется фоновой сверкой для повторных попыток возврата
func (r *Repository) ListPendingRefunds(ctx context.Context) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	prefixed := make([]string, len(bookingColumns))
	for i, c := range bookingColumns {
		prefixed[i] = "b." + c
	}

	query, args, err := psqlbuilder.Select(prefixed...).
		From("bookings b").
		LeftJoin("settlements s ON s.booking_id = b.id").
		Where(squirrel.Or{
			squirrel.Eq{"b.status": domain.StatusRefundPending},
			squirrel.And{
				squirrel.Eq{"b.status": domain.StatusCancelledByCustomer},
				squirrel.Eq{"s.id": nil},
			},
		}).
		OrderBy("b.created_at ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListPendingRefunds - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListPendingRefunds - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanBookings(rows)
}

// StatusUpdate дополнительные поля, выставляемые вместе со сменой статуса
// Поля-отметки времени записываются один раз и никогда не очищаются
type StatusUpdate struct {
	RejectionReason *string
	RejectedAt      *time.Time
	ConfirmedAt     *time.Time
	CompletedAt     *time.Time
}

// UpdateStatusFrom атомарно меняет статус бронирования с from на to (compare-and-swap)
// Если строка существует, но статус уже не from - возвращает ErrStatusConflict:
// конкурентный переход победил, вызывающая сторона должна перечитать состояние
func (r *Repository) UpdateStatusFrom(ctx context.Context, id int64, from, to domain.BookingStatus, upd StatusUpdate) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	updateBuilder := psqlbuilder.Update("bookings").
		Set("status", to).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"status": from})

	if upd.RejectionReason != nil {
		updateBuilder = updateBuilder.Set("rejection_reason", *upd.RejectionReason)
	}
	if upd.RejectedAt != nil {
		updateBuilder = updateBuilder.Set("rejected_at", *upd.RejectedAt)
	}
	if upd.ConfirmedAt != nil {
		updateBuilder = updateBuilder.Set("confirmed_at", *upd.ConfirmedAt)
	}
	if upd.CompletedAt != nil {
		updateBuilder = updateBuilder.Set("completed_at", *upd.CompletedAt)
	}

	query, args, err := updateBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatusFrom - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: UpdateStatusFrom - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatusFrom - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		// Либо бронирования нет, либо статус уже изменился - различаем
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrStatusConflict
	}

	return nil
}

// scanner общий интерфейс *sql.Row и *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanBooking сканирует одну строку результата в бронирование
func (r *Repository) scanBooking(row scanner) (*domain.Booking, error) {
	var booking domain.Booking
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&booking.ID,
		&booking.SalonID,
		&booking.ServiceID,
		&booking.CustomerID,
		&booking.BookingDate,
		&booking.StartTime,
		&booking.DurationMinutes,
		&booking.TotalPrice,
		&booking.DepositAmount,
		&booking.RemainingAmount,
		&booking.Status,
		&booking.CustomerName,
		&booking.CustomerPhone,
		&booking.CustomerEmail,
		&booking.CustomerCountryCode,
		&booking.CustomerRequest,
		&booking.RejectionReason,
		&booking.PaymentID,
		&createdAt,
		&updatedAt,
		&booking.DepositPaidAt,
		&booking.ConfirmedAt,
		&booking.RejectedAt,
		&booking.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	booking.CreatedAt = createdAt.Time
	booking.UpdatedAt = updatedAt.Time

	return &booking, nil
}

// scanBookings сканирует результаты запроса в слайс бронирований
func (r *Repository) scanBookings(rows *sql.Rows) ([]*domain.Booking, error) {
	bookings := make([]*domain.Booking, 0)

	for rows.Next() {
		booking, err := r.scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanBookings - scan row: %v", ErrScanRow, err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanBookings - rows error: %v", ErrScanRow, err)
	}

	return bookings, nil
}

// statusStrings конвертирует статусы в строки для squirrel.Eq
func statusStrings(statuses []domain.BookingStatus) []string {
	result := make([]string, len(statuses))
	for i, s := range statuses {
		result[i] = string(s)
	}
	return result
}
