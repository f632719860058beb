package authinfra

import (
	"context"
	"time"

	"github.com/konnected/identity/pkg/iam/auth"
	"github.com/konnected/identity/pkg/logx"
)

// TokenCleanup periodically purges expired refresh tokens.
type TokenCleanup struct {
	repo     auth.TokenRepository
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

func NewTokenCleanup(repo auth.TokenRepository, interval time.Duration) *TokenCleanup {
	return &TokenCleanup{
		repo:     repo,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the cleanup loop until Stop is called.
func (c *TokenCleanup) Start() {
	go func() {
		defer close(c.done)
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.sweep()
			case <-c.stop:
				return
			}
		}
	}()
}

// Stop halts the loop and waits for an in-flight sweep to finish.
func (c *TokenCleanup) Stop() {
	close(c.stop)
	<-c.done
}

func (c *TokenCleanup) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := c.repo.DeleteExpired(ctx)
	if err != nil {
		logx.WithError(err).Error("Refresh token cleanup failed")
		return
	}
	if n > 0 {
		logx.WithField("deleted", n).Info("Purged expired refresh tokens")
	}
}
