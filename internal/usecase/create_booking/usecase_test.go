package create_booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowly/booking-service/internal/domain"
	"github.com/glowly/booking-service/internal/integrations/catalogservice"
	"github.com/glowly/booking-service/internal/integrations/paymentservice"
	"github.com/glowly/booking-service/pkg/ptr"
	"github.com/glowly/booking-service/pkg/types"
)

type fakeBookingRepo struct {
	active  []*domain.Booking
	created []*domain.Booking
	nextID  int64
}

func (r *fakeBookingRepo) Create(_ context.Context, booking *domain.Booking) (*domain.Booking, error) {
	r.nextID++
	booking.ID = r.nextID
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = booking.CreatedAt
	r.created = append(r.created, booking)
	return booking, nil
}

func (r *fakeBookingRepo) GetActiveBySalonAndDate(_ context.Context, _ int64, _ time.Time) ([]*domain.Booking, error) {
	return r.active, nil
}

type fakeCatalogClient struct {
	salon   *catalogservice.Salon
	service *catalogservice.Service
}

func (c *fakeCatalogClient) GetSalon(_ context.Context, salonID int64) (*catalogservice.Salon, error) {
	if c.salon == nil || c.salon.ID != salonID {
		return nil, catalogservice.ErrSalonNotFound
	}
	return c.salon, nil
}

func (c *fakeCatalogClient) GetService(_ context.Context, _, serviceID int64) (*catalogservice.Service, error) {
	if c.service == nil || c.service.ID != serviceID {
		return nil, catalogservice.ErrServiceNotFound
	}
	return c.service, nil
}

type fakePaymentClient struct {
	charges   []*paymentservice.ChargeRequest
	refunds   []*paymentservice.RefundRequest
	chargeErr error
}

func (p *fakePaymentClient) Charge(_ context.Context, req *paymentservice.ChargeRequest) (*paymentservice.ChargeResult, error) {
	if p.chargeErr != nil {
		return nil, p.chargeErr
	}
	p.charges = append(p.charges, req)
	return &paymentservice.ChargeResult{PaymentID: "pay-1", Amount: req.Amount}, nil
}

func (p *fakePaymentClient) Refund(_ context.Context, req *paymentservice.RefundRequest) (*paymentservice.RefundResult, error) {
	p.refunds = append(p.refunds, req)
	return &paymentservice.RefundResult{RefundID: "re-1", Amount: req.Amount}, nil
}

// fakeTxManager выполняет функцию без настоящей транзакции
type fakeTxManager struct{}

func (fakeTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixedTime struct{ now time.Time }

func (f fixedTime) Now() time.Time { return f.now }

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// Воскресенье 8-е, бронируем на понедельник 9-е
var (
	testNow  = time.Date(2025, 6, 8, 12, 0, 0, 0, time.UTC)
	testDate = time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)
)

func testSalon() *catalogservice.Salon {
	return &catalogservice.Salon{
		ID:       5,
		Name:     "Glow Studio",
		IsActive: true,
		WorkingHours: catalogservice.WorkingHours{
			Monday: catalogservice.DaySchedule{
				IsOpen:    true,
				OpenTime:  ptr.Ptr("10:00"),
				CloseTime: ptr.Ptr("20:00"),
			},
		},
	}
}

func testService() *catalogservice.Service {
	return &catalogservice.Service{
		ID:              3,
		SalonID:         5,
		Name:            "Окрашивание",
		DurationMinutes: 60,
		Price:           85000,
		IsActive:        true,
	}
}

func testRequest() *Request {
	return &Request{
		UserID:        77,
		SalonID:       5,
		ServiceID:     3,
		Date:          testDate,
		StartTime:     types.TimeString("14:00"),
		CustomerName:  "Анна",
		CustomerPhone: "+79990001122",
	}
}

func newTestUseCase(repo *fakeBookingRepo, catalog *fakeCatalogClient, payments *fakePaymentClient) *UseCase {
	return NewUseCase(repo, catalog, payments, fakeTxManager{}, nil, nopLogger{}).
		WithTimeProvider(fixedTime{now: testNow})
}

func TestUseCase_Execute(t *testing.T) {
	t.Run("creates a waiting booking with the deposit charged", func(t *testing.T) {
		repo := &fakeBookingRepo{}
		payments := &fakePaymentClient{}
		uc := newTestUseCase(repo, &fakeCatalogClient{salon: testSalon(), service: testService()}, payments)

		resp, err := uc.Execute(context.Background(), testRequest())
		require.NoError(t, err)

		assert.Equal(t, string(domain.StatusWaitingConfirmation), resp.Status)
		assert.Equal(t, int64(85000), resp.TotalPrice)
		assert.Equal(t, domain.DepositAmount, resp.DepositAmount)
		assert.Equal(t, int64(65000), resp.RemainingAmount)
		require.NotNil(t, resp.DepositPaidAt)
		require.NotNil(t, resp.ApprovalDeadline)

		require.Len(t, payments.charges, 1)
		assert.Equal(t, domain.DepositAmount, payments.charges[0].Amount)
		assert.Empty(t, payments.refunds)

		require.Len(t, repo.created, 1)
		assert.Equal(t, "pay-1", repo.created[0].PaymentID)
		assert.Equal(t, 60, repo.created[0].DurationMinutes)
	})

	t.Run("occupied slot is rejected before any money moves", func(t *testing.T) {
		repo := &fakeBookingRepo{active: []*domain.Booking{{
			Status:          domain.StatusConfirmed,
			StartTime:       types.TimeString("14:00"),
			DurationMinutes: 60,
		}}}
		payments := &fakePaymentClient{}
		uc := newTestUseCase(repo, &fakeCatalogClient{salon: testSalon(), service: testService()}, payments)

		_, err := uc.Execute(context.Background(), testRequest())
		assert.ErrorIs(t, err, ErrSlotNotAvailable)
		assert.Empty(t, payments.charges)
	})

	t.Run("adjacent booking does not block the slot", func(t *testing.T) {
		repo := &fakeBookingRepo{active: []*domain.Booking{{
			Status:          domain.StatusConfirmed,
			StartTime:       types.TimeString("13:00"),
			DurationMinutes: 60,
		}}}
		uc := newTestUseCase(repo, &fakeCatalogClient{salon: testSalon(), service: testService()}, &fakePaymentClient{})

		_, err := uc.Execute(context.Background(), testRequest())
		require.NoError(t, err)
	})

	t.Run("declined deposit leaves no booking", func(t *testing.T) {
		repo := &fakeBookingRepo{}
		payments := &fakePaymentClient{chargeErr: paymentservice.ErrPaymentDeclined}
		uc := newTestUseCase(repo, &fakeCatalogClient{salon: testSalon(), service: testService()}, payments)

		_, err := uc.Execute(context.Background(), testRequest())
		assert.ErrorIs(t, err, ErrPaymentDeclined)
		assert.Empty(t, repo.created)
	})

	t.Run("losing the slot inside the transaction refunds the charge", func(t *testing.T) {
		repo := &slotLostRepo{}
		payments := &fakePaymentClient{}
		uc := newTestUseCase(&fakeBookingRepo{}, &fakeCatalogClient{salon: testSalon(), service: testService()}, payments)
		uc.bookingRepo = repo

		_, err := uc.Execute(context.Background(), testRequest())
		assert.ErrorIs(t, err, ErrSlotNotAvailable)

		require.Len(t, payments.refunds, 1)
		assert.Equal(t, domain.DepositAmount, payments.refunds[0].Amount)
		assert.Equal(t, "pay-1", payments.refunds[0].PaymentID)
		assert.Contains(t, payments.refunds[0].OperationKey, "compensate-")
	})

	t.Run("price below deposit is rejected", func(t *testing.T) {
		service := testService()
		service.Price = 15000
		uc := newTestUseCase(&fakeBookingRepo{}, &fakeCatalogClient{salon: testSalon(), service: service}, &fakePaymentClient{})

		_, err := uc.Execute(context.Background(), testRequest())
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("closed day is rejected", func(t *testing.T) {
		req := testRequest()
		req.Date = time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC) // вторник без расписания
		uc := newTestUseCase(&fakeBookingRepo{}, &fakeCatalogClient{salon: testSalon(), service: testService()}, &fakePaymentClient{})

		_, err := uc.Execute(context.Background(), req)
		assert.ErrorIs(t, err, ErrSalonClosed)
	})

	t.Run("off-grid start time is rejected", func(t *testing.T) {
		req := testRequest()
		req.StartTime = types.TimeString("14:10")
		uc := newTestUseCase(&fakeBookingRepo{}, &fakeCatalogClient{salon: testSalon(), service: testService()}, &fakePaymentClient{})

		_, err := uc.Execute(context.Background(), req)
		assert.ErrorIs(t, err, ErrInvalidTimeSlot)
	})

	t.Run("service not fitting before closing is rejected", func(t *testing.T) {
		req := testRequest()
		req.StartTime = types.TimeString("19:30")
		uc := newTestUseCase(&fakeBookingRepo{}, &fakeCatalogClient{salon: testSalon(), service: testService()}, &fakePaymentClient{})

		_, err := uc.Execute(context.Background(), req)
		assert.ErrorIs(t, err, ErrInvalidTimeSlot)
	})

	t.Run("date in the past is rejected", func(t *testing.T) {
		req := testRequest()
		req.Date = testNow.AddDate(0, 0, -1)
		uc := newTestUseCase(&fakeBookingRepo{}, &fakeCatalogClient{salon: testSalon(), service: testService()}, &fakePaymentClient{})

		_, err := uc.Execute(context.Background(), req)
		assert.ErrorIs(t, err, ErrInvalidDate)
	})

	t.Run("inactive salon is rejected", func(t *testing.T) {
		salon := testSalon()
		salon.IsActive = false
		uc := newTestUseCase(&fakeBookingRepo{}, &fakeCatalogClient{salon: salon, service: testService()}, &fakePaymentClient{})

		_, err := uc.Execute(context.Background(), testRequest())
		assert.ErrorIs(t, err, ErrSalonInactive)
	})

	t.Run("unknown service is rejected", func(t *testing.T) {
		uc := newTestUseCase(&fakeBookingRepo{}, &fakeCatalogClient{salon: testSalon()}, &fakePaymentClient{})

		_, err := uc.Execute(context.Background(), testRequest())
		assert.ErrorIs(t, err, ErrServiceNotFound)
	})

	t.Run("missing customer name is rejected", func(t *testing.T) {
		req := testRequest()
		req.CustomerName = ""
		uc := newTestUseCase(&fakeBookingRepo{}, &fakeCatalogClient{salon: testSalon(), service: testService()}, &fakePaymentClient{})

		_, err := uc.Execute(context.Background(), req)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

// slotLostRepo имитирует проигрыш гонки: вне транзакции слот свободен,
// а повторная проверка под блокировкой находит конкурента
type slotLostRepo struct {
	calls int
}

func (r *slotLostRepo) Create(_ context.Context, _ *domain.Booking) (*domain.Booking, error) {
	return nil, errors.New("unreachable")
}

func (r *slotLostRepo) GetActiveBySalonAndDate(_ context.Context, _ int64, _ time.Time) ([]*domain.Booking, error) {
	r.calls++
	if r.calls == 1 {
		return nil, nil
	}
	return []*domain.Booking{{
		Status:          domain.StatusConfirmed,
		StartTime:       types.TimeString("14:00"),
		DurationMinutes: 60,
	}}, nil
}
