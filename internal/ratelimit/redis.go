package ratelimit

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/passguard/passguard/internal/common"
	"github.com/passguard/passguard/internal/logging"
)

const (
	attemptsKeyPrefix = "login:attempts:"
	lockoutKeyPrefix  = "login:lockout:"
)

// RedisLimiter counts attempts in Redis so the budget holds across
// processes. Any Redis error switches the call into failsafe mode: the
// attempt is allowed and a warning is logged, so an unavailable Redis can
// never lock every user out of the vault.
type RedisLimiter struct {
	client *redis.Client
	cfg    Config
	logger logging.Logger
}

// NewRedisLimiter wraps the given client.
func NewRedisLimiter(client *redis.Client, cfg Config, logger logging.Logger) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		cfg:    cfg.normalized(),
		logger: logger.With("module", "rate_limiter"),
	}
}

func (r *RedisLimiter) Allow(ctx context.Context, key string) error {
	locked, err := r.client.Exists(ctx, lockoutKeyPrefix+key).Result()
	if err != nil {
		return r.failsafe(ctx, err)
	}
	if locked > 0 {
		return common.ErrRateLimited
	}

	attempts, err := r.client.Incr(ctx, attemptsKeyPrefix+key).Result()
	if err != nil {
		return r.failsafe(ctx, err)
	}
	if attempts == 1 {
		if err := r.client.Expire(ctx, attemptsKeyPrefix+key, r.cfg.Window).Err(); err != nil {
			return r.failsafe(ctx, err)
		}
	}

	if attempts > int64(r.cfg.MaxAttempts) {
		if err := r.client.Set(ctx, lockoutKeyPrefix+key, 1, r.cfg.Lockout).Err(); err != nil {
			return r.failsafe(ctx, err)
		}
		return common.ErrRateLimited
	}
	return nil
}

func (r *RedisLimiter) Reset(ctx context.Context, key string) {
	if err := r.client.Del(ctx, attemptsKeyPrefix+key, lockoutKeyPrefix+key).Err(); err != nil {
		r.logger.Warn(ctx, "rate limiter reset failed", "error", err.Error())
	}
}

func (r *RedisLimiter) failsafe(ctx context.Context, err error) error {
	r.logger.Warn(ctx, "redis unavailable, rate limiter in failsafe mode", "error", err.Error())
	return nil
}
