package reputation

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"freightdispatch/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultCacheTTL  = 15 * time.Minute
	unknownScore     = "unknown"
	defaultKeyPrefix = "freightdispatch:reputation:"
)

// CachedSource keeps scores, including "no score", in Redis for a while.
// Redis failures are logged and the lookup goes to the wrapped source.
type CachedSource struct {
	next   ports.ReputationSource
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

func NewCachedSource(next ports.ReputationSource, client redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *CachedSource {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedSource{
		next:   next,
		client: client,
		ttl:    ttl,
		prefix: defaultKeyPrefix,
		logger: logger.With("component", "reputation-cache"),
	}
}

func (c *CachedSource) GetReputationScore(ctx context.Context, carrierID string) (float64, bool, error) {
	key := c.prefix + carrierID

	cached, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		if cached == unknownScore {
			return 0, false, nil
		}
		if score, perr := strconv.ParseFloat(cached, 64); perr == nil {
			return score, true, nil
		}
		c.logger.WarnContext(ctx, "dropping malformed cached score", "carrier_id", carrierID, "value", cached)
	case !errors.Is(err, redis.Nil):
		c.logger.WarnContext(ctx, "reputation cache read failed", "carrier_id", carrierID, "error", err)
	}

	score, known, err := c.next.GetReputationScore(ctx, carrierID)
	if err != nil {
		return 0, false, err
	}

	value := unknownScore
	if known {
		value = strconv.FormatFloat(score, 'f', -1, 64)
	}
	if err := c.client.Set(ctx, key, value, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "reputation cache write failed", "carrier_id", carrierID, "error", err)
	}
	return score, known, nil
}
