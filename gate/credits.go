// Package gate holds the preconditions checked before a run starts: credit
// availability and URL admissibility.
package gate

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/use-agent/sitebrief/config"
)

// CreditChecker reports whether a user may start a run.
type CreditChecker interface {
	HasCredits(ctx context.Context, userID string) (bool, error)
}

// Unlimited grants every user credits. It is used when no credit store is
// configured.
type Unlimited struct{}

func (Unlimited) HasCredits(context.Context, string) (bool, error) { return true, nil }

// RedisCredits reads a user's remaining credits from "<prefix><userID>".
// A missing key means zero credits.
type RedisCredits struct {
	rdb     redis.UniversalClient
	prefix  string
	timeout time.Duration
}

// NewRedisCredits wraps an existing client.
func NewRedisCredits(rdb redis.UniversalClient, prefix string, timeout time.Duration) *RedisCredits {
	return &RedisCredits{rdb: rdb, prefix: prefix, timeout: timeout}
}

// NewCreditChecker returns a RedisCredits for cfg, or Unlimited when no
// redis address is configured.
func NewCreditChecker(cfg config.CreditsConfig) CreditChecker {
	if cfg.RedisAddr == "" {
		return Unlimited{}
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return NewRedisCredits(rdb, cfg.KeyPrefix, cfg.Timeout)
}

func (c *RedisCredits) HasCredits(ctx context.Context, userID string) (bool, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	val, err := c.rdb.Get(ctx, c.prefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("credits: read balance: %w", err)
	}
	n, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return false, fmt.Errorf("credits: balance %q is not a number", val)
	}
	return n > 0, nil
}
