package authinfra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/konnected/identity/pkg/iam/auth"
	"github.com/konnected/identity/pkg/kernel"
	"github.com/konnected/identity/pkg/logx"
)

// RedisLoginThrottle counts failed login attempts per (tenant, email) in a
// sliding window. Redis being unreachable never blocks a login; the throttle
// fails open and logs.
type RedisLoginThrottle struct {
	client      *redis.Client
	maxAttempts int
	window      time.Duration
}

var _ auth.LoginThrottle = (*RedisLoginThrottle)(nil)

func NewRedisLoginThrottle(client *redis.Client, maxAttempts int, window time.Duration) *RedisLoginThrottle {
	return &RedisLoginThrottle{
		client:      client,
		maxAttempts: maxAttempts,
		window:      window,
	}
}

func (t *RedisLoginThrottle) key(tenantID kernel.TenantID, email string) string {
	return fmt.Sprintf("login_attempts:%s:%s", tenantID, strings.ToLower(email))
}

func (t *RedisLoginThrottle) Allow(ctx context.Context, tenantID kernel.TenantID, email string) bool {
	count, err := t.client.Get(ctx, t.key(tenantID, email)).Int()
	if err != nil {
		if err != redis.Nil {
			logx.WithError(err).Warn("Login throttle unavailable, allowing attempt")
		}
		return true
	}
	return count < t.maxAttempts
}

func (t *RedisLoginThrottle) RecordFailure(ctx context.Context, tenantID kernel.TenantID, email string) {
	key := t.key(tenantID, email)
	pipe := t.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, t.window)
	if _, err := pipe.Exec(ctx); err != nil {
		logx.WithError(err).Warn("Failed to record login failure")
		return
	}

	if int(incr.Val()) == t.maxAttempts {
		logx.WithFields(logx.Fields{
			"tenant_id": tenantID.String(),
			"email":     email,
		}).Warn("Login throttle threshold reached")
	}
}

func (t *RedisLoginThrottle) Reset(ctx context.Context, tenantID kernel.TenantID, email string) {
	if err := t.client.Del(ctx, t.key(tenantID, email)).Err(); err != nil {
		logx.WithError(err).Warn("Failed to reset login throttle")
	}
}
