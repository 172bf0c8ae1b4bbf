package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	approveBookingHandler "github.com/glowly/booking-service/internal/api/handlers/approve_booking"
	cancelBookingHandler "github.com/glowly/booking-service/internal/api/handlers/cancel_booking"
	completeBookingHandler "github.com/glowly/booking-service/internal/api/handlers/complete_booking"
	createBookingHandler "github.com/glowly/booking-service/internal/api/handlers/create_booking"
	getAvailableSlotsHandler "github.com/glowly/booking-service/internal/api/handlers/get_available_slots"
	getBookingHandler "github.com/glowly/booking-service/internal/api/handlers/get_booking"
	listBookingsHandler "github.com/glowly/booking-service/internal/api/handlers/list_bookings"
	markNoShowHandler "github.com/glowly/booking-service/internal/api/handlers/mark_no_show"
	rejectBookingHandler "github.com/glowly/booking-service/internal/api/handlers/reject_booking"
	"github.com/glowly/booking-service/internal/api/middleware"
	"github.com/glowly/booking-service/internal/config"
	bookingRepo "github.com/glowly/booking-service/internal/infra/storage/booking"
	settlementRepo "github.com/glowly/booking-service/internal/infra/storage/settlement"
	catalogServiceClient "github.com/glowly/booking-service/internal/integrations/catalogservice"
	paymentServiceClient "github.com/glowly/booking-service/internal/integrations/paymentservice"
	bookingsService "github.com/glowly/booking-service/internal/service/bookings"
	settlementService "github.com/glowly/booking-service/internal/service/settlement"
	createBookingUC "github.com/glowly/booking-service/internal/usecase/create_booking"
	expireBookingsUC "github.com/glowly/booking-service/internal/usecase/expire_bookings"
	getAvailableSlotsUC "github.com/glowly/booking-service/internal/usecase/get_available_slots"
	"github.com/glowly/booking-service/pkg/dbmetrics"
	"github.com/glowly/booking-service/pkg/logger"
	"github.com/glowly/booking-service/pkg/metrics"
	"github.com/glowly/booking-service/pkg/simpletxmanager"
	"github.com/glowly/booking-service/pkg/txmanager"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting booking-service...")
	log.Info("Configuration loaded from config.toml")

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// Инициализируем интеграционных клиентов
	catalogClient := catalogServiceClient.NewClient(
		cfg.CatalogService.URL,
		time.Duration(cfg.CatalogService.Timeout)*time.Second,
		log,
	)
	paymentClient := paymentServiceClient.NewClient(
		cfg.PaymentService.URL,
		time.Duration(cfg.PaymentService.Timeout)*time.Second,
		log,
	)
	log.Info("Integration clients initialized (CatalogService=%s timeout=%ds, PaymentService=%s timeout=%ds)",
		cfg.CatalogService.URL, cfg.CatalogService.Timeout, cfg.PaymentService.URL, cfg.PaymentService.Timeout)

	// Инициализируем репозитории и transaction manager (с метриками или без)
	var (
		bookingRepository    *bookingRepo.Repository
		settlementRepository *settlementRepo.Repository
		txMgr                *txmanager.TransactionManager
	)

	if cfg.Metrics.Enabled {
		wrappedDB := dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Metrics.ServiceName, stopMetricsCh)
		log.Info("Database metrics collection started")

		bookingRepository = bookingRepo.NewRepository(wrappedDB)
		settlementRepository = settlementRepo.NewRepository(wrappedDB)
		txMgr = txmanager.NewTransactionManager(wrappedDB)
	} else {
		bookingRepository = bookingRepo.NewRepository(db)
		settlementRepository = settlementRepo.NewRepository(db)
		txMgr = simpletxmanager.NewTransactionManager(db)
	}

	// Типизированный nil в интерфейсе не равен nil - поэтому отдельные переменные
	var (
		settlementMetrics settlementService.Metrics
		createMetrics     createBookingUC.Metrics
		expireMetrics     expireBookingsUC.Metrics
	)
	if cfg.Metrics.Enabled {
		settlementMetrics = metricsCollector
		createMetrics = metricsCollector
		expireMetrics = metricsCollector
	}

	// Инициализируем сервисы
	settlementSvc := settlementService.NewService(
		settlementRepository,
		paymentClient,
		log,
		settlementMetrics,
	)
	bookingSvc := bookingsService.NewService(
		bookingRepository,
		settlementSvc,
		catalogClient,
		&bookingsService.RealTimeProvider{},
		log,
	)

	// Инициализируем use cases
	createBookingUseCase := createBookingUC.NewUseCase(
		bookingRepository,
		catalogClient,
		paymentClient,
		txMgr,
		createMetrics,
		log,
	)
	getAvailableSlotsUseCase := getAvailableSlotsUC.NewUseCase(
		bookingRepository,
		catalogClient,
		log,
	)
	expireBookingsUseCase := expireBookingsUC.NewUseCase(
		bookingRepository,
		settlementSvc,
		expireMetrics,
		log,
	)

	// Инициализируем handlers
	createBooking := createBookingHandler.NewHandler(createBookingUseCase, log)
	getAvailableSlots := getAvailableSlotsHandler.NewHandler(getAvailableSlotsUseCase, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	listBookings := listBookingsHandler.NewHandler(bookingSvc, log)
	approveBooking := approveBookingHandler.NewHandler(bookingSvc, log)
	rejectBooking := rejectBookingHandler.NewHandler(bookingSvc, log)
	completeBooking := completeBookingHandler.NewHandler(bookingSvc, log)
	markNoShow := markNoShowHandler.NewHandler(bookingSvc, log)
	cancelBooking := cancelBookingHandler.NewHandler(bookingSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics(metricsCollector))
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// Health endpoint для проб оркестратора
	r.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		if err := db.PingContext(req.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// Публичные роуты (без аутентификации)
	api.HandleFunc("/salons/{salonId}/available-slots", getAvailableSlots.Handle).Methods(http.MethodGet)

	// Защищенные роуты (требуют X-User-ID header)
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	protected.HandleFunc("/bookings", createBooking.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/bookings", listBookings.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/bookings/{bookingId}/approve", approveBooking.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/bookings/{bookingId}/reject", rejectBooking.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/bookings/{bookingId}/complete", completeBooking.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/bookings/{bookingId}/no-show", markNoShow.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/bookings/{bookingId}/cancel", cancelBooking.Handle).Methods(http.MethodPatch)

	// Запускаем фоновый планировщик истечений
	schedulerCtx, stopScheduler := context.WithCancel(context.Background())
	schedulerDone := make(chan struct{})

	if cfg.Scheduler.Enabled {
		interval := time.Duration(cfg.Scheduler.SweepIntervalSeconds) * time.Second
		go runScheduler(schedulerCtx, schedulerDone, expireBookingsUseCase, interval, log)
		log.Info("Expiry scheduler started with interval %s", interval)
	} else {
		close(schedulerDone)
		log.Info("Expiry scheduler disabled")
	}

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Останавливаем планировщик и сбор метрик
	stopScheduler()
	<-schedulerDone

	if cfg.Metrics.Enabled {
		close(stopMetricsCh)
		log.Info("Metrics collection stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}

// runScheduler гоняет планировщик истечений по тикеру до отмены контекста
// Первый прогон выполняется сразу: после рестарта просроченные бронирования
// не должны ждать целый интервал
func runScheduler(
	ctx context.Context,
	done chan<- struct{},
	uc *expireBookingsUC.UseCase,
	interval time.Duration,
	log *logger.Logger,
) {
	defer close(done)

	sweep := func() {
		if _, err := uc.Execute(ctx); err != nil {
			log.Error("Expiry scheduler: sweep failed: %v", err)
		}
	}

	sweep()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep()
		}
	}
}
