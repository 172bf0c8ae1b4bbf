package expire_bookings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowly/booking-service/internal/domain"
	bookingRepo "github.com/glowly/booking-service/internal/infra/storage/booking"
	"github.com/glowly/booking-service/pkg/ptr"
)

type fakeBookingRepo struct {
	byID map[int64]*domain.Booking
}

func newFakeBookingRepo(bookings ...*domain.Booking) *fakeBookingRepo {
	r := &fakeBookingRepo{byID: make(map[int64]*domain.Booking)}
	for _, b := range bookings {
		r.byID[b.ID] = b
	}
	return r
}

func (r *fakeBookingRepo) ListExpiredWaiting(_ context.Context, now time.Time) ([]*domain.Booking, error) {
	var result []*domain.Booking
	for _, b := range r.byID {
		if b.Status == domain.StatusWaitingConfirmation && !b.CreatedAt.After(now.Add(-domain.ApprovalTTL)) {
			copied := *b
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *fakeBookingRepo) ListPendingRefunds(_ context.Context) ([]*domain.Booking, error) {
	var result []*domain.Booking
	for _, b := range r.byID {
		if b.Status == domain.StatusRefundPending {
			copied := *b
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *fakeBookingRepo) UpdateStatusFrom(_ context.Context, id int64, from, to domain.BookingStatus, upd bookingRepo.StatusUpdate) error {
	b, ok := r.byID[id]
	if !ok {
		return bookingRepo.ErrBookingNotFound
	}
	if b.Status != from {
		return bookingRepo.ErrStatusConflict
	}
	b.Status = to
	if upd.RejectionReason != nil {
		b.RejectionReason = upd.RejectionReason
	}
	if upd.RejectedAt != nil {
		b.RejectedAt = upd.RejectedAt
	}
	return nil
}

type fakeSettlementService struct {
	refunds   []int64
	refundErr error
}

func (s *fakeSettlementService) Refund(_ context.Context, b *domain.Booking, reason domain.SettlementReason) (*domain.Settlement, error) {
	if s.refundErr != nil {
		return nil, s.refundErr
	}
	s.refunds = append(s.refunds, b.ID)
	return &domain.Settlement{BookingID: b.ID, Kind: domain.SettlementRefund, Reason: reason}, nil
}

type fixedTime struct{ now time.Time }

func (f fixedTime) Now() time.Time { return f.now }

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type countingMetrics struct {
	expired int
}

func (m *countingMetrics) IncBookingExpired() { m.expired++ }

var testNow = time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

func waitingBooking(id int64, age time.Duration) *domain.Booking {
	return &domain.Booking{
		ID:        id,
		SalonID:   5,
		Status:    domain.StatusWaitingConfirmation,
		PaymentID: "pay-1",
		CreatedAt: testNow.Add(-age),
	}
}

func newTestUseCase(repo *fakeBookingRepo, settlements *fakeSettlementService, metrics *countingMetrics) *UseCase {
	var m Metrics
	if metrics != nil {
		m = metrics
	}
	return NewUseCase(repo, settlements, m, nopLogger{}).WithTimeProvider(fixedTime{now: testNow})
}

func TestUseCase_Execute(t *testing.T) {
	t.Run("expires overdue bookings and refunds them in one run", func(t *testing.T) {
		repo := newFakeBookingRepo(
			waitingBooking(1, 25*time.Hour),
			waitingBooking(2, 2*time.Hour),
		)
		settlements := &fakeSettlementService{}
		metrics := &countingMetrics{}
		uc := newTestUseCase(repo, settlements, metrics)

		result, err := uc.Execute(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 1, result.Expired)
		assert.Equal(t, 1, result.Refunded)
		assert.Equal(t, 1, metrics.expired)

		assert.Equal(t, domain.StatusRefunded, repo.byID[1].Status)
		require.NotNil(t, repo.byID[1].RejectionReason)
		assert.Equal(t, domain.TimeoutRejectionReason, *repo.byID[1].RejectionReason)
		require.NotNil(t, repo.byID[1].RejectedAt)

		// Свежее бронирование не тронуто
		assert.Equal(t, domain.StatusWaitingConfirmation, repo.byID[2].Status)
	})

	t.Run("booking exactly at the deadline is expired", func(t *testing.T) {
		repo := newFakeBookingRepo(waitingBooking(1, domain.ApprovalTTL))
		uc := newTestUseCase(repo, &fakeSettlementService{}, nil)

		result, err := uc.Execute(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, result.Expired)
	})

	t.Run("gateway failure leaves the booking in refund_pending for the next run", func(t *testing.T) {
		repo := newFakeBookingRepo(waitingBooking(1, 25*time.Hour))
		settlements := &fakeSettlementService{refundErr: errors.New("gateway down")}
		uc := newTestUseCase(repo, settlements, nil)

		result, err := uc.Execute(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 1, result.Expired)
		assert.Equal(t, 0, result.Refunded)
		assert.Equal(t, domain.StatusRefundPending, repo.byID[1].Status)

		// Шлюз ожил - следующий прогон доводит возврат
		settlements.refundErr = nil
		result, err = uc.Execute(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 0, result.Expired)
		assert.Equal(t, 1, result.Refunded)
		assert.Equal(t, domain.StatusRefunded, repo.byID[1].Status)
	})

	t.Run("stuck manager rejection is picked up with its original reason", func(t *testing.T) {
		stuck := &domain.Booking{
			ID:              7,
			Status:          domain.StatusRefundPending,
			PaymentID:       "pay-7",
			RejectionReason: ptr.Ptr("master is unavailable"),
			CreatedAt:       testNow.Add(-3 * time.Hour),
		}
		repo := newFakeBookingRepo(stuck)
		settlements := &fakeSettlementService{}
		uc := newTestUseCase(repo, settlements, nil)

		result, err := uc.Execute(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 1, result.Refunded)
		assert.Equal(t, domain.StatusRefunded, repo.byID[7].Status)
		assert.Equal(t, []int64{7}, settlements.refunds)
	})

	t.Run("run with nothing to do is a no-op", func(t *testing.T) {
		repo := newFakeBookingRepo(waitingBooking(1, time.Hour))
		settlements := &fakeSettlementService{}
		uc := newTestUseCase(repo, settlements, nil)

		result, err := uc.Execute(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 0, result.Expired)
		assert.Equal(t, 0, result.Refunded)
		assert.Empty(t, settlements.refunds)
	})
}
