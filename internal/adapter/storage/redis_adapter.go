package storage

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	stockKeyPrefix    = "stock:"
	idempotencyKeyTTL = 24 * time.Hour
)

// reserveStockScript decrements the cached counter only when enough units
// remain, so concurrent reservations cannot overdraw.
var reserveStockScript = redis.NewScript(`
local key = KEYS[1]
local wanted = tonumber(ARGV[1])

local current = redis.call('GET', key)
if not current then
	return 0
end

if tonumber(current) >= wanted then
	redis.call('DECRBY', key, wanted)
	return 1
end

return 0
`)

// RedisStockCache implements port.StockCache on a Redis counter per ISBN.
type RedisStockCache struct {
	client *redis.Client
}

func NewRedisStockCache(client *redis.Client) *RedisStockCache {
	return &RedisStockCache{client: client}
}

func (r *RedisStockCache) Reserve(ctx context.Context, isbn string, quantity int) (bool, error) {
	result, err := reserveStockScript.Run(ctx, r.client, []string{stockKeyPrefix + isbn}, quantity).Int()
	if err != nil {
		return false, err
	}
	return result == 1, nil
}

func (r *RedisStockCache) Release(ctx context.Context, isbn string, quantity int) error {
	return r.client.IncrBy(ctx, stockKeyPrefix+isbn, int64(quantity)).Err()
}

func (r *RedisStockCache) SetStock(ctx context.Context, isbn string, quantity int) error {
	return r.client.Set(ctx, stockKeyPrefix+isbn, quantity, 0).Err()
}

func (r *RedisStockCache) GetStock(ctx context.Context, isbn string) (int, bool, error) {
	qty, err := r.client.Get(ctx, stockKeyPrefix+isbn).Int()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return qty, true, nil
}

func (r *RedisStockCache) SetIdempotency(ctx context.Context, key string) (bool, error) {
	return r.client.SetNX(ctx, key, 1, idempotencyKeyTTL).Result()
}

func (r *RedisStockCache) ReleaseIdempotency(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}
