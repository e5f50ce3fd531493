package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/SscSPs/settlement_engine/internal/apperrors"
	portsrepo "github.com/SscSPs/settlement_engine/internal/core/ports/repositories"
	"github.com/SscSPs/settlement_engine/internal/middleware"
	"github.com/SscSPs/settlement_engine/internal/platform/clock"
	"github.com/SscSPs/settlement_engine/internal/platform/metrics"
	"github.com/SscSPs/settlement_engine/internal/utils/pagination"
	"github.com/google/uuid"
)

// BaseService provides common functionality for all services
type BaseService struct {
	Clock   clock.Clock
	NewID   func() string
	Metrics *metrics.Metrics

	defaultPageSize int
	maxPageSize     int
}

// ServiceOption configures the services built by this package.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	base      BaseService
	locker    portsrepo.LedgerLocker
	importTTL time.Duration
}

// WithClock replaces the wall clock, typically with a clock.FakeClock in tests.
func WithClock(c clock.Clock) ServiceOption {
	return func(o *serviceOptions) {
		if c != nil {
			o.base.Clock = c
		}
	}
}

// WithIDGenerator replaces uuid.NewString for record IDs.
func WithIDGenerator(fn func() string) ServiceOption {
	return func(o *serviceOptions) {
		if fn != nil {
			o.base.NewID = fn
		}
	}
}

func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(o *serviceOptions) {
		o.base.Metrics = m
	}
}

// WithLedgerLocker serializes allocation changes per entity across replicas.
func WithLedgerLocker(l portsrepo.LedgerLocker) ServiceOption {
	return func(o *serviceOptions) {
		if l != nil {
			o.locker = l
		}
	}
}

func WithPageSizes(defaultSize, maxSize int) ServiceOption {
	return func(o *serviceOptions) {
		o.base.defaultPageSize = defaultSize
		o.base.maxPageSize = maxSize
	}
}

// WithImportTTL sets how long a previewed import stays committable.
func WithImportTTL(d time.Duration) ServiceOption {
	return func(o *serviceOptions) {
		if d > 0 {
			o.importTTL = d
		}
	}
}

func buildOptions(opts []ServiceOption) serviceOptions {
	o := serviceOptions{
		base: BaseService{
			Clock:           clock.System{},
			NewID:           uuid.NewString,
			defaultPageSize: pagination.DefaultPageSize,
			maxPageSize:     pagination.MaxPageSize,
		},
		importTTL: time.Hour,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (s *BaseService) now() time.Time {
	return s.Clock.Now().UTC()
}

func (s *BaseService) page(p pagination.Params) pagination.Params {
	return p.Normalize(s.defaultPageSize, s.maxPageSize)
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return middleware.GetLoggerFromCtx(ctx)
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	s.GetLogger(ctx).Error(msg, args...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Debug(msg, keyvals...)
}

// LogFailure logs err at error level only when it is not an expected business outcome.
// Expected business outcomes go to debug.
func (s *BaseService) LogFailure(ctx context.Context, err error, msg string, keyvals ...any) {
	if isExpected(err) {
		s.LogDebug(ctx, msg, append([]any{slog.String("error", err.Error())}, keyvals...)...)
		return
	}
	s.LogError(ctx, err, msg, keyvals...)
}

func isExpected(err error) bool {
	for _, target := range []error{
		apperrors.ErrValidation,
		apperrors.ErrNotFound,
		apperrors.ErrDuplicate,
		apperrors.ErrInvalidStateTransition,
		apperrors.ErrConservationViolation,
		apperrors.ErrConcurrencyConflict,
		apperrors.ErrForbidden,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
