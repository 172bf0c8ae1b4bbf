package bookings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowly/booking-service/internal/domain"
	bookingRepo "github.com/glowly/booking-service/internal/infra/storage/booking"
	"github.com/glowly/booking-service/internal/integrations/catalogservice"
	"github.com/glowly/booking-service/internal/service/bookings/models"
	settlementSvc "github.com/glowly/booking-service/internal/service/settlement"
	"github.com/glowly/booking-service/pkg/ptr"
	"github.com/glowly/booking-service/pkg/types"
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

func (r *fakeBookingRepo) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	b, ok := r.byID[id]
	if !ok {
		return nil, bookingRepo.ErrBookingNotFound
	}
	copied := *b
	return &copied, nil
}

func (r *fakeBookingRepo) GetWithFilter(_ context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error) {
	var result []*domain.Booking
	for _, b := range r.byID {
		if filter.SalonID != nil && b.SalonID != *filter.SalonID {
			continue
		}
		if filter.CustomerID != nil && b.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.Status != nil && b.Status != *filter.Status {
			continue
		}
		copied := *b
		result = append(result, &copied)
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
	if upd.ConfirmedAt != nil {
		b.ConfirmedAt = upd.ConfirmedAt
	}
	if upd.CompletedAt != nil {
		b.CompletedAt = upd.CompletedAt
	}
	return nil
}

type settlementCall struct {
	kind      domain.SettlementKind
	bookingID int64
	reason    domain.SettlementReason
}

type fakeSettlementService struct {
	calls     []settlementCall
	refundErr error
}

func (s *fakeSettlementService) Refund(_ context.Context, b *domain.Booking, reason domain.SettlementReason) (*domain.Settlement, error) {
	if s.refundErr != nil {
		return nil, s.refundErr
	}
	s.calls = append(s.calls, settlementCall{kind: domain.SettlementRefund, bookingID: b.ID, reason: reason})
	return &domain.Settlement{BookingID: b.ID, Kind: domain.SettlementRefund, Reason: reason}, nil
}

func (s *fakeSettlementService) Payout(_ context.Context, b *domain.Booking, reason domain.SettlementReason) (*domain.Settlement, error) {
	s.calls = append(s.calls, settlementCall{kind: domain.SettlementPayout, bookingID: b.ID, reason: reason})
	return &domain.Settlement{BookingID: b.ID, Kind: domain.SettlementPayout, Reason: reason}, nil
}

type fakeCatalogClient struct {
	salons map[int64]*catalogservice.Salon
}

func (c *fakeCatalogClient) GetSalon(_ context.Context, salonID int64) (*catalogservice.Salon, error) {
	salon, ok := c.salons[salonID]
	if !ok {
		return nil, catalogservice.ErrSalonNotFound
	}
	return salon, nil
}

type fixedTime struct{ now time.Time }

func (f fixedTime) Now() time.Time { return f.now }

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

const (
	managerID  = int64(10)
	customerID = int64(77)
	otherUser  = int64(99)
)

var testNow = time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

func waitingBooking() *domain.Booking {
	return &domain.Booking{
		ID:              1,
		SalonID:         5,
		ServiceID:       3,
		BookingDate:     time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		StartTime:       types.TimeString("14:00"),
		DurationMinutes: 60,
		TotalPrice:      85000,
		DepositAmount:   domain.DepositAmount,
		RemainingAmount: 65000,
		Status:          domain.StatusWaitingConfirmation,
		CustomerID:      customerID,
		CustomerName:    "Анна",
		CustomerPhone:   "+79990001122",
		PaymentID:       "pay-1",
		CreatedAt:       testNow.Add(-2 * time.Hour),
		UpdatedAt:       testNow.Add(-2 * time.Hour),
		DepositPaidAt:   ptr.Ptr(testNow.Add(-2 * time.Hour)),
	}
}

func confirmedBooking() *domain.Booking {
	b := waitingBooking()
	b.Status = domain.StatusConfirmed
	b.ConfirmedAt = ptr.Ptr(testNow.Add(-time.Hour))
	return b
}

func newTestService(repo *fakeBookingRepo, settlements *fakeSettlementService) *Service {
	catalog := &fakeCatalogClient{salons: map[int64]*catalogservice.Salon{
		5: {ID: 5, Name: "Glow Studio", IsActive: true, ManagerIDs: []int64{managerID}},
	}}
	return NewService(repo, settlements, catalog, fixedTime{now: testNow}, nopLogger{})
}

func TestService_Approve(t *testing.T) {
	t.Run("manager confirms a waiting booking", func(t *testing.T) {
		repo := newFakeBookingRepo(waitingBooking())
		svc := newTestService(repo, &fakeSettlementService{})

		resp, err := svc.Approve(context.Background(), managerID, 1)
		require.NoError(t, err)

		assert.Equal(t, string(domain.StatusConfirmed), resp.Status)
		require.NotNil(t, resp.ConfirmedAt)
		assert.Nil(t, resp.ApprovalDeadline)
		assert.Equal(t, domain.StatusConfirmed, repo.byID[1].Status)
	})

	t.Run("non-manager is denied", func(t *testing.T) {
		repo := newFakeBookingRepo(waitingBooking())
		svc := newTestService(repo, &fakeSettlementService{})

		_, err := svc.Approve(context.Background(), otherUser, 1)
		assert.ErrorIs(t, err, ErrAccessDenied)
		assert.Equal(t, domain.StatusWaitingConfirmation, repo.byID[1].Status)
	})

	t.Run("unknown booking", func(t *testing.T) {
		svc := newTestService(newFakeBookingRepo(), &fakeSettlementService{})

		_, err := svc.Approve(context.Background(), managerID, 404)
		assert.ErrorIs(t, err, ErrBookingNotFound)
	})

	t.Run("approve after timeout reports expiry, not a generic transition error", func(t *testing.T) {
		expired := waitingBooking()
		expired.Status = domain.StatusRefundPending
		expired.RejectionReason = ptr.Ptr(domain.TimeoutRejectionReason)
		repo := newFakeBookingRepo(expired)
		svc := newTestService(repo, &fakeSettlementService{})

		_, err := svc.Approve(context.Background(), managerID, 1)
		assert.ErrorIs(t, err, ErrBookingExpired)
	})

	t.Run("approve of a completed booking is an invalid transition", func(t *testing.T) {
		done := waitingBooking()
		done.Status = domain.StatusCompleted
		svc := newTestService(newFakeBookingRepo(done), &fakeSettlementService{})

		_, err := svc.Approve(context.Background(), managerID, 1)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestService_Reject(t *testing.T) {
	t.Run("manager rejects and the deposit is refunded", func(t *testing.T) {
		repo := newFakeBookingRepo(waitingBooking())
		settlements := &fakeSettlementService{}
		svc := newTestService(repo, settlements)

		resp, err := svc.Reject(context.Background(), 1, &models.RejectBookingRequest{
			UserID: managerID,
			Reason: ptr.Ptr("master is unavailable"),
		})
		require.NoError(t, err)

		assert.Equal(t, string(domain.StatusRefunded), resp.Status)
		require.NotNil(t, resp.RejectionReason)
		assert.Equal(t, "master is unavailable", *resp.RejectionReason)
		require.Len(t, settlements.calls, 1)
		assert.Equal(t, domain.SettlementRefund, settlements.calls[0].kind)
		assert.Equal(t, domain.ReasonRejected, settlements.calls[0].reason)
	})

	t.Run("gateway failure leaves the booking in refund_pending", func(t *testing.T) {
		repo := newFakeBookingRepo(waitingBooking())
		settlements := &fakeSettlementService{refundErr: errors.New("gateway down")}
		svc := newTestService(repo, settlements)

		resp, err := svc.Reject(context.Background(), 1, &models.RejectBookingRequest{UserID: managerID})
		require.NoError(t, err)

		assert.Equal(t, string(domain.StatusRefundPending), resp.Status)
	})

	t.Run("already settled refund still closes the transition", func(t *testing.T) {
		repo := newFakeBookingRepo(waitingBooking())
		settlements := &fakeSettlementService{refundErr: settlementSvc.ErrAlreadySettled}
		svc := newTestService(repo, settlements)

		resp, err := svc.Reject(context.Background(), 1, &models.RejectBookingRequest{UserID: managerID})
		require.NoError(t, err)

		assert.Equal(t, string(domain.StatusRefunded), resp.Status)
	})
}

func TestService_Complete(t *testing.T) {
	t.Run("completing pays the salon out", func(t *testing.T) {
		repo := newFakeBookingRepo(confirmedBooking())
		settlements := &fakeSettlementService{}
		svc := newTestService(repo, settlements)

		resp, err := svc.Complete(context.Background(), managerID, 1)
		require.NoError(t, err)

		assert.Equal(t, string(domain.StatusCompleted), resp.Status)
		require.NotNil(t, resp.CompletedAt)
		require.Len(t, settlements.calls, 1)
		assert.Equal(t, domain.SettlementPayout, settlements.calls[0].kind)
		assert.Equal(t, domain.ReasonCompleted, settlements.calls[0].reason)
	})

	t.Run("waiting booking cannot be completed", func(t *testing.T) {
		repo := newFakeBookingRepo(waitingBooking())
		svc := newTestService(repo, &fakeSettlementService{})

		_, err := svc.Complete(context.Background(), managerID, 1)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestService_MarkNoShow(t *testing.T) {
	t.Run("no-show keeps the deposit and pays the salon out", func(t *testing.T) {
		repo := newFakeBookingRepo(confirmedBooking())
		settlements := &fakeSettlementService{}
		svc := newTestService(repo, settlements)

		resp, err := svc.MarkNoShow(context.Background(), managerID, 1)
		require.NoError(t, err)

		assert.Equal(t, string(domain.StatusNoShow), resp.Status)
		require.Len(t, settlements.calls, 1)
		assert.Equal(t, domain.SettlementPayout, settlements.calls[0].kind)
		assert.Equal(t, domain.ReasonNoShow, settlements.calls[0].reason)
	})
}

func TestService_CancelByCustomer(t *testing.T) {
	t.Run("owner cancels a confirmed booking and gets the deposit back", func(t *testing.T) {
		repo := newFakeBookingRepo(confirmedBooking())
		settlements := &fakeSettlementService{}
		svc := newTestService(repo, settlements)

		resp, err := svc.CancelByCustomer(context.Background(), customerID, 1)
		require.NoError(t, err)

		assert.Equal(t, string(domain.StatusCancelledByCustomer), resp.Status)
		require.Len(t, settlements.calls, 1)
		assert.Equal(t, domain.SettlementRefund, settlements.calls[0].kind)
		assert.Equal(t, domain.ReasonCancelledByCustomer, settlements.calls[0].reason)
	})

	t.Run("only the owner may cancel", func(t *testing.T) {
		repo := newFakeBookingRepo(confirmedBooking())
		svc := newTestService(repo, &fakeSettlementService{})

		_, err := svc.CancelByCustomer(context.Background(), otherUser, 1)
		assert.ErrorIs(t, err, ErrAccessDenied)
		assert.Equal(t, domain.StatusConfirmed, repo.byID[1].Status)
	})

	t.Run("gateway failure does not undo the cancellation", func(t *testing.T) {
		repo := newFakeBookingRepo(confirmedBooking())
		settlements := &fakeSettlementService{refundErr: errors.New("gateway down")}
		svc := newTestService(repo, settlements)

		resp, err := svc.CancelByCustomer(context.Background(), customerID, 1)
		require.NoError(t, err)
		assert.Equal(t, string(domain.StatusCancelledByCustomer), resp.Status)
	})
}

func TestService_GetByID(t *testing.T) {
	t.Run("owner sees approval deadline fields on a waiting booking", func(t *testing.T) {
		repo := newFakeBookingRepo(waitingBooking())
		svc := newTestService(repo, &fakeSettlementService{})

		resp, err := svc.GetByID(context.Background(), customerID, 1)
		require.NoError(t, err)

		require.NotNil(t, resp.TimeRemainingSeconds)
		assert.Equal(t, int64(22*3600), *resp.TimeRemainingSeconds)
		require.NotNil(t, resp.Urgent)
		assert.False(t, *resp.Urgent)
	})

	t.Run("manager of the salon has access", func(t *testing.T) {
		repo := newFakeBookingRepo(waitingBooking())
		svc := newTestService(repo, &fakeSettlementService{})

		_, err := svc.GetByID(context.Background(), managerID, 1)
		require.NoError(t, err)
	})

	t.Run("stranger is denied", func(t *testing.T) {
		repo := newFakeBookingRepo(waitingBooking())
		svc := newTestService(repo, &fakeSettlementService{})

		_, err := svc.GetByID(context.Background(), otherUser, 1)
		assert.ErrorIs(t, err, ErrAccessDenied)
	})
}

func TestService_List(t *testing.T) {
	t.Run("without salonId returns the caller's own bookings", func(t *testing.T) {
		mine := waitingBooking()
		foreign := confirmedBooking()
		foreign.ID = 2
		foreign.CustomerID = otherUser
		repo := newFakeBookingRepo(mine, foreign)
		svc := newTestService(repo, &fakeSettlementService{})

		resp, err := svc.List(context.Background(), &models.ListBookingsRequest{UserID: customerID})
		require.NoError(t, err)

		require.Equal(t, 1, resp.Total)
		assert.Equal(t, int64(1), resp.Bookings[0].ID)
	})

	t.Run("salon listing requires manager access", func(t *testing.T) {
		repo := newFakeBookingRepo(waitingBooking())
		svc := newTestService(repo, &fakeSettlementService{})

		_, err := svc.List(context.Background(), &models.ListBookingsRequest{
			UserID:  otherUser,
			SalonID: ptr.Ptr(int64(5)),
		})
		assert.ErrorIs(t, err, ErrAccessDenied)
	})

	t.Run("unknown status filter is rejected", func(t *testing.T) {
		repo := newFakeBookingRepo(waitingBooking())
		svc := newTestService(repo, &fakeSettlementService{})

		_, err := svc.List(context.Background(), &models.ListBookingsRequest{
			UserID: customerID,
			Status: ptr.Ptr("archived"),
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}
