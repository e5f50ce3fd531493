// Package metrics registers the Prometheus collectors exported on /metrics.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/SscSPs/settlement_engine/internal/apperrors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

const namespace = "settlement"

const (
	ResultOK           = "ok"
	ResultValidation   = "validation"
	ResultNotFound     = "not_found"
	ResultConflict     = "conflict"
	ResultConservation = "conservation"
	ResultInvalidState = "invalid_state"
	ResultForbidden    = "forbidden"
	ResultError        = "error"
)

// Metrics is safe to use as a nil pointer; every recorder becomes a no-op.
type Metrics struct {
	gatherer prometheus.Gatherer

	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	operations      *prometheus.CounterVec
	allocatedAmount *prometheus.CounterVec
	importRows      *prometheus.CounterVec
	statusChanges   *prometheus.CounterVec
}

// New registers every collector on reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		gatherer: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_operations_total",
			Help:      "Ledger mutations by operation and outcome.",
		}, []string{"operation", "result"}),
		allocatedAmount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "allocated_amount_total",
			Help:      "Sum of committed allocation amounts by direction and currency.",
		}, []string{"operation", "currency"}),
		importRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_rows_total",
			Help:      "CSV import rows by outcome.",
		}, []string{"outcome"}),
		statusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoice_status_changes_total",
			Help:      "Invoice status changes applied by the refresh sweep, by new status.",
		}, []string{"status"}),
	}
	reg.MustRegister(m.httpRequests, m.httpDuration, m.operations, m.allocatedAmount, m.importRows, m.statusChanges)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Result maps an operation error to its metric label.
func Result(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, apperrors.ErrValidation):
		return ResultValidation
	case errors.Is(err, apperrors.ErrNotFound):
		return ResultNotFound
	case errors.Is(err, apperrors.ErrConcurrencyConflict), errors.Is(err, apperrors.ErrDuplicate):
		return ResultConflict
	case errors.Is(err, apperrors.ErrConservationViolation):
		return ResultConservation
	case errors.Is(err, apperrors.ErrInvalidStateTransition):
		return ResultInvalidState
	case errors.Is(err, apperrors.ErrForbidden):
		return ResultForbidden
	}
	return ResultError
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveOperation(operation string, err error) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, Result(err)).Inc()
}

func (m *Metrics) AddAllocated(operation, currency string, amount decimal.Decimal) {
	if m == nil {
		return
	}
	m.allocatedAmount.WithLabelValues(operation, currency).Add(amount.InexactFloat64())
}

func (m *Metrics) ObserveImport(imported, skipped, rejected int) {
	if m == nil {
		return
	}
	m.importRows.WithLabelValues("imported").Add(float64(imported))
	m.importRows.WithLabelValues("skipped").Add(float64(skipped))
	m.importRows.WithLabelValues("rejected").Add(float64(rejected))
}

func (m *Metrics) ObserveStatusChange(status string) {
	if m == nil {
		return
	}
	m.statusChanges.WithLabelValues(status).Inc()
}
