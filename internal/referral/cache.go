package referral

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	activeCountKeyPrefix = "gainvault:referrals:active:"
	defaultCountTTL      = 5 * time.Minute
)

// CachedProvider caches active-referral counts in Redis in front of another
// provider. Upline walks are never cached: they feed money movement and must
// see the current graph. Cache failures fall through to the source provider.
type CachedProvider struct {
	source Provider
	cache  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedProvider wraps source with a Redis count cache.
func NewCachedProvider(source Provider, cache *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedProvider {
	if ttl <= 0 {
		ttl = defaultCountTTL
	}
	return &CachedProvider{source: source, cache: cache, ttl: ttl, logger: logger}
}

func (p *CachedProvider) Upline(ctx context.Context, accountID string, maxDepth int) ([]string, error) {
	return p.source.Upline(ctx, accountID, maxDepth)
}

func (p *CachedProvider) ActiveReferralCount(ctx context.Context, accountID string) (int, error) {
	key := activeCountKeyPrefix + accountID

	cached, err := p.cache.Get(ctx, key).Result()
	if err == nil {
		if count, convErr := strconv.Atoi(cached); convErr == nil {
			return count, nil
		}
	} else if err != redis.Nil {
		p.logger.Warn("referral count cache read failed", "account_id", accountID, "error", err)
	}

	count, err := p.source.ActiveReferralCount(ctx, accountID)
	if err != nil {
		return 0, err
	}

	if err := p.cache.Set(ctx, key, strconv.Itoa(count), p.ttl).Err(); err != nil {
		p.logger.Warn("referral count cache write failed", "account_id", accountID, "error", err)
	}

	return count, nil
}

// Invalidate drops the cached count after a downline becomes active.
func (p *CachedProvider) Invalidate(ctx context.Context, accountID string) error {
	return p.cache.Del(ctx, activeCountKeyPrefix+accountID).Err()
}

// NoopInvalidator satisfies Invalidator where no cache is wired.
type NoopInvalidator struct{}

func (NoopInvalidator) Invalidate(context.Context, string) error { return nil }
