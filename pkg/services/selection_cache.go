package services

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ekaya-inc/orderdesk/pkg/models"
)

// CitiesToken is the cache generation a miss observed. SetCities stores a list
// only under the generation it was read at, so a list read before an
// invalidation is never served after it.
type CitiesToken struct {
	generation int64
	valid      bool
}

// SelectionCache holds CitiesOf results between writes. A miss or a cache
// failure always falls through to the database.
type SelectionCache interface {
	// GetCities returns the cached list, or on a miss the token to hand to
	// SetCities once the list has been read from the database.
	GetCities(ctx context.Context, countryID int64) ([]models.Option, CitiesToken, bool)
	SetCities(ctx context.Context, countryID int64, token CitiesToken, cities []models.Option)
	// InvalidateCities drops cached lists and advances their generation.
	// Call it after the write commits.
	InvalidateCities(ctx context.Context, countryIDs ...int64)
}

type noopSelectionCache struct{}

// NewNoopSelectionCache returns a cache that never hits.
func NewNoopSelectionCache() SelectionCache {
	return noopSelectionCache{}
}

func (noopSelectionCache) GetCities(context.Context, int64) ([]models.Option, CitiesToken, bool) {
	return nil, CitiesToken{}, false
}
func (noopSelectionCache) SetCities(context.Context, int64, CitiesToken, []models.Option) {}
func (noopSelectionCache) InvalidateCities(context.Context, ...int64)                    {}

// cachedCities is the stored entry. It only counts as a hit while Generation
// equals the country's current generation counter.
type cachedCities struct {
	Generation int64           `json:"generation"`
	Cities     []models.Option `json:"cities"`
}

// RedisSelectionCache stores city lists as JSON strings with a TTL, next to a
// per-country generation counter that every invalidation increments.
type RedisSelectionCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	logger *zap.Logger
}

// NewRedisSelectionCache creates a Redis-backed SelectionCache.
func NewRedisSelectionCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisSelectionCache {
	return &RedisSelectionCache{
		client: client,
		ttl:    ttl,
		prefix: "orderdesk:cities:",
		logger: logger.Named("selection-cache"),
	}
}

var _ SelectionCache = (*RedisSelectionCache)(nil)

func (c *RedisSelectionCache) key(countryID int64) string {
	return c.prefix + strconv.FormatInt(countryID, 10)
}

func (c *RedisSelectionCache) generationKey(countryID int64) string {
	return c.prefix + "gen:" + strconv.FormatInt(countryID, 10)
}

func (c *RedisSelectionCache) GetCities(ctx context.Context, countryID int64) ([]models.Option, CitiesToken, bool) {
	values, err := c.client.MGet(ctx, c.generationKey(countryID), c.key(countryID)).Result()
	if err != nil {
		c.logger.Warn("Failed to read cached cities", zap.Int64("country_id", countryID), zap.Error(err))
		return nil, CitiesToken{}, false
	}

	var generation int64
	if s, ok := values[0].(string); ok {
		generation, err = strconv.ParseInt(s, 10, 64)
		if err != nil {
			c.logger.Warn("Discarding corrupt cities generation", zap.Int64("country_id", countryID), zap.Error(err))
			return nil, CitiesToken{}, false
		}
	}
	token := CitiesToken{generation: generation, valid: true}

	s, ok := values[1].(string)
	if !ok {
		return nil, token, false
	}
	var entry cachedCities
	if err := json.Unmarshal([]byte(s), &entry); err != nil {
		c.logger.Warn("Discarding corrupt cached cities", zap.Int64("country_id", countryID), zap.Error(err))
		return nil, token, false
	}
	if entry.Generation != generation {
		return nil, token, false
	}
	return entry.Cities, token, true
}

func (c *RedisSelectionCache) SetCities(ctx context.Context, countryID int64, token CitiesToken, cities []models.Option) {
	if !token.valid {
		return
	}
	data, err := json.Marshal(cachedCities{Generation: token.generation, Cities: cities})
	if err != nil {
		c.logger.Warn("Failed to encode cities for cache", zap.Error(err))
		return
	}

	// Skip the write when an invalidation has moved the generation on since
	// the token was taken. A write that races past this check stores an entry
	// GetCities will not accept.
	current, err := c.client.Get(ctx, c.generationKey(countryID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		c.logger.Warn("Failed to read cities generation", zap.Int64("country_id", countryID), zap.Error(err))
		return
	}
	if current != token.generation {
		c.logger.Debug("Not caching cities read before an invalidation",
			zap.Int64("country_id", countryID),
			zap.Int64("read_generation", token.generation),
			zap.Int64("current_generation", current))
		return
	}

	if err := c.client.Set(ctx, c.key(countryID), data, c.ttl).Err(); err != nil {
		c.logger.Warn("Failed to cache cities", zap.Int64("country_id", countryID), zap.Error(err))
	}
}

func (c *RedisSelectionCache) InvalidateCities(ctx context.Context, countryIDs ...int64) {
	if len(countryIDs) == 0 {
		return
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range countryIDs {
			pipe.Incr(ctx, c.generationKey(id))
			pipe.Del(ctx, c.key(id))
		}
		return nil
	})
	if err != nil {
		c.logger.Warn("Failed to invalidate cached cities", zap.Int64s("country_ids", countryIDs), zap.Error(err))
	}
}
