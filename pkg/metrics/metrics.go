package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics набор метрик сервиса для Prometheus
type Metrics struct {
	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Connection pool БД (заполняется dbmetrics)
	DBPoolConnections *prometheus.GaugeVec
	DBQueryDuration   *prometheus.HistogramVec

	// Бизнес-метрики
	BookingsCreatedTotal prometheus.Counter
	BookingsExpiredTotal prometheus.Counter
	SettlementsTotal     *prometheus.CounterVec
}

// New создает и регистрирует метрики в default registry
func New(serviceName string) *Metrics {
	constLabels := prometheus.Labels{"service": serviceName}

	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests",
			ConstLabels: constLabels,
		}, []string{"method", "path", "status"}),

		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request duration in seconds",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "path"}),

		DBPoolConnections: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_pool_connections",
			Help:        "Database connection pool state",
			ConstLabels: constLabels,
		}, []string{"state"}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "db_query_duration_seconds",
			Help:        "Database query duration in seconds",
			ConstLabels: constLabels,
			Buckets:     []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"operation"}),

		BookingsCreatedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name:        "bookings_created_total",
			Help:        "Total number of bookings created",
			ConstLabels: constLabels,
		}),

		BookingsExpiredTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name:        "bookings_expired_total",
			Help:        "Total number of bookings auto-expired by the approval deadline",
			ConstLabels: constLabels,
		}),

		SettlementsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "settlements_total",
			Help:        "Total number of recorded settlements by kind",
			ConstLabels: constLabels,
		}, []string{"kind"}),
	}
}

// IncBookingCreated увеличивает счетчик созданных бронирований
func (m *Metrics) IncBookingCreated() {
	m.BookingsCreatedTotal.Inc()
}

// IncBookingExpired увеличивает счетчик автоистекших бронирований
func (m *Metrics) IncBookingExpired() {
	m.BookingsExpiredTotal.Inc()
}

// IncSettlement увеличивает счетчик движений денег по виду
func (m *Metrics) IncSettlement(kind string) {
	m.SettlementsTotal.WithLabelValues(kind).Inc()
}
