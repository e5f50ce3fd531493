package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/settlement_engine/internal/apperrors"
	portsrepo "github.com/SscSPs/settlement_engine/internal/core/ports/repositories"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lockReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

const (
	defaultLockTTL       = 30 * time.Second
	defaultWaitTimeout   = 5 * time.Second
	defaultRetryInterval = 50 * time.Millisecond
	releaseTimeout       = 2 * time.Second
)

// RedisLocker takes a SET NX lock per entity ledger. The lock expires after ttl so a
// crashed holder cannot wedge the ledger.
type RedisLocker struct {
	client        redis.UniversalClient
	script        *redis.Script
	prefix        string
	ttl           time.Duration
	waitTimeout   time.Duration
	retryInterval time.Duration
	logger        *slog.Logger
}

var _ portsrepo.LedgerLocker = (*RedisLocker)(nil)

// RedisLockerOption configures a RedisLocker.
type RedisLockerOption func(*RedisLocker)

func WithLockTTL(ttl time.Duration) RedisLockerOption {
	return func(l *RedisLocker) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

func WithWaitTimeout(d time.Duration) RedisLockerOption {
	return func(l *RedisLocker) {
		if d > 0 {
			l.waitTimeout = d
		}
	}
}

func WithRetryInterval(d time.Duration) RedisLockerOption {
	return func(l *RedisLocker) {
		if d > 0 {
			l.retryInterval = d
		}
	}
}

func WithKeyPrefix(prefix string) RedisLockerOption {
	return func(l *RedisLocker) {
		l.prefix = prefix
	}
}

func WithLockLogger(logger *slog.Logger) RedisLockerOption {
	return func(l *RedisLocker) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewRedisLocker returns nil when client is nil.
func NewRedisLocker(client redis.UniversalClient, opts ...RedisLockerOption) *RedisLocker {
	if client == nil {
		return nil
	}
	l := &RedisLocker{
		client:        client,
		script:        redis.NewScript(lockReleaseScript),
		prefix:        "settlement:ledger:",
		ttl:           defaultLockTTL,
		waitTimeout:   defaultWaitTimeout,
		retryInterval: defaultRetryInterval,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Key is the Redis key guarding entityID's ledger.
func (l *RedisLocker) Key(entityID string) string {
	return l.prefix + entityID
}

// Acquire polls SET NX until it wins, ctx is done or the wait timeout passes.
func (l *RedisLocker) Acquire(ctx context.Context, entityID string) (func(), error) {
	if l == nil || l.client == nil {
		return nil, errors.New("lock client not configured")
	}
	if entityID == "" {
		return nil, fmt.Errorf("%w: lock key is empty", apperrors.ErrValidation)
	}

	waitCtx, cancel := context.WithTimeout(ctx, l.waitTimeout)
	defer cancel()

	key := l.Key(entityID)
	token := uuid.NewString()
	for {
		ok, err := l.client.SetNX(waitCtx, key, token, l.ttl).Result()
		if err != nil && waitCtx.Err() == nil {
			return nil, fmt.Errorf("acquire ledger lock %s: %w", entityID, err)
		}
		if ok {
			return l.releaser(key, token), nil
		}

		timer := time.NewTimer(l.retryInterval)
		select {
		case <-waitCtx.Done():
			timer.Stop()
			return nil, fmt.Errorf("%w: ledger %s is busy: %v", apperrors.ErrConcurrencyConflict, entityID, waitCtx.Err())
		case <-timer.C:
		}
	}
}

func (l *RedisLocker) releaser(key, token string) func() {
	released := false
	return func() {
		if released {
			return
		}
		released = true
		ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		if err := l.script.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			l.logger.Warn("Failed to release ledger lock", slog.String("key", key), slog.String("error", err.Error()))
		}
	}
}
