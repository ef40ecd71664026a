package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/turtacn/syclop/internal/domain/run"
	"github.com/turtacn/syclop/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/syclop/pkg/errors"
)

const (
	defaultKeyPrefix = "syclop:"
	defaultTTL       = 24 * time.Hour
	estimateKeyPart  = "estimates:"
)

// EstimateCache stores per-region valid fractions as JSON arrays under
// <prefix>estimates:<fingerprint>.
type EstimateCache struct {
	client *Client
	logger logging.Logger
	prefix string
	ttl    time.Duration
	group  singleflight.Group
}

var _ run.EstimateCache = (*EstimateCache)(nil)

// CacheOption configures an EstimateCache.
type CacheOption func(*EstimateCache)

// WithPrefix sets the key prefix.  The default is "syclop:".
func WithPrefix(prefix string) CacheOption {
	return func(c *EstimateCache) { c.prefix = prefix }
}

// WithTTL sets the expiry of stored entries.  The default is 24h.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *EstimateCache) { c.ttl = ttl }
}

// NewEstimateCache returns a cache backed by client.  A nil log is replaced
// by a no-op logger.
func NewEstimateCache(client *Client, log logging.Logger, opts ...CacheOption) *EstimateCache {
	if log == nil {
		log = logging.NewNopLogger()
	}
	c := &EstimateCache{
		client: client,
		logger: log,
		prefix: defaultKeyPrefix,
		ttl:    defaultTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *EstimateCache) key(fingerprint string) string {
	return c.prefix + estimateKeyPart + fingerprint
}

// GetValidFractions returns the cached fractions for fingerprint.
func (c *EstimateCache) GetValidFractions(ctx context.Context, fingerprint string) ([]float64, bool, error) {
	data, err := c.client.Get(ctx, c.key(fingerprint)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, errors.ErrCodeCacheError, "failed to read region estimates")
	}
	var fractions []float64
	if err := json.Unmarshal(data, &fractions); err != nil {
		c.logger.Warn("Discarding corrupt estimate cache entry",
			logging.String("fingerprint", fingerprint), logging.Err(err))
		return nil, false, nil
	}
	return fractions, true, nil
}

// SetValidFractions stores fractions for fingerprint with the configured TTL.
func (c *EstimateCache) SetValidFractions(ctx context.Context, fingerprint string, fractions []float64) error {
	data, err := json.Marshal(fractions)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode region estimates")
	}
	if err := c.client.Set(ctx, c.key(fingerprint), data, c.ttl).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to write region estimates")
	}
	return nil
}

// GetOrCompute returns the cached fractions or calls compute once per
// fingerprint across concurrent callers and stores its result.  A failed
// write is logged and does not fail the call.
func (c *EstimateCache) GetOrCompute(ctx context.Context, fingerprint string, compute func() ([]float64, error)) ([]float64, bool, error) {
	if fractions, ok, err := c.GetValidFractions(ctx, fingerprint); err != nil || ok {
		return fractions, ok, err
	}
	v, err, _ := c.group.Do(fingerprint, func() (interface{}, error) {
		fractions, err := compute()
		if err != nil {
			return nil, err
		}
		if err := c.SetValidFractions(ctx, fingerprint, fractions); err != nil {
			c.logger.Warn("Failed to cache region estimates",
				logging.String("fingerprint", fingerprint), logging.Err(err))
		}
		return fractions, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.([]float64), false, nil
}

// Invalidate removes the entry for fingerprint.
func (c *EstimateCache) Invalidate(ctx context.Context, fingerprint string) error {
	if err := c.client.Del(ctx, c.key(fingerprint)).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to invalidate region estimates")
	}
	return nil
}
