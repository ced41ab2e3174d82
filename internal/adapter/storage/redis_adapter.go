package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/pos/internal/core/cart"
	"github.com/rl1809/pos/internal/port"
)

const (
	cartKeyPrefix     = "cart:"
	idempotencyKeyTTL = 24 * time.Hour
	defaultCartTTL    = 30 * time.Minute
)

// RedisAdapter parks carts between requests and holds checkout idempotency keys.
type RedisAdapter struct {
	client  *redis.Client
	cartTTL time.Duration
}

func NewRedisAdapter(client *redis.Client, cartTTL time.Duration) *RedisAdapter {
	if cartTTL <= 0 {
		cartTTL = defaultCartTTL
	}
	return &RedisAdapter{client: client, cartTTL: cartTTL}
}

func (r *RedisAdapter) GetCart(ctx context.Context, sellerID string) (*cart.Cart, error) {
	data, err := r.client.Get(ctx, cartKey(sellerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, port.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	c := cart.New()
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return c, nil
}

// SaveCart stores the cart with a jittered TTL so idle carts do not all expire
// at once.
func (r *RedisAdapter) SaveCart(ctx context.Context, sellerID string, c *cart.Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	ttl := r.cartTTL + time.Duration(rand.Int64N(int64(r.cartTTL/10)+1))
	if err := r.client.Set(ctx, cartKey(sellerID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisAdapter) DeleteCart(ctx context.Context, sellerID string) error {
	if err := r.client.Del(ctx, cartKey(sellerID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (r *RedisAdapter) SetIdempotency(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, key, 1, idempotencyKeyTTL).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

func (r *RedisAdapter) ReleaseIdempotency(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *RedisAdapter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func cartKey(sellerID string) string {
	return cartKeyPrefix + sellerID
}
