package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"creditmart/internal/domain/model"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = 15 * time.Minute

func NewRedisCache(client *redis.Client, baseTTL time.Duration) *RedisCache {
	if baseTTL <= 0 {
		baseTTL = defaultTTL
	}
	return &RedisCache{
		client:  client,
		baseTTL: baseTTL,
	}
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

// NewClient connects and pings once so a bad address fails at start-up.
func NewClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// 保存するのは明細だけ。価格と商品名は読み出し時に商品テーブルから付け直す
type cachedLine struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"productId"`
	Quantity  int64     `json:"quantity"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Get returns the cached cart lines without product data.
func (r RedisCache) Get(ctx context.Context, userID string) ([]model.CartItem, error) {
	data, err := r.client.Get(ctx, cacheKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var cached []cachedLine
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}

	lines := make([]model.CartItem, 0, len(cached))
	for _, c := range cached {
		lines = append(lines, model.CartItem{
			ID:        c.ID,
			UserID:    userID,
			ProductID: c.ProductID,
			Quantity:  c.Quantity,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		})
	}
	return lines, nil
}

func (r RedisCache) Set(ctx context.Context, userID string, lines []model.CartItem) error {
	cached := make([]cachedLine, 0, len(lines))
	for _, l := range lines {
		cached = append(cached, cachedLine{
			ID:        l.ID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			CreatedAt: l.CreatedAt,
			UpdatedAt: l.UpdatedAt,
		})
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	// 期限が一斉に切れないようにずらす
	jitter := time.Duration(rand.Int63n(int64(r.baseTTL / 3)))
	if err := r.client.Set(ctx, cacheKey(userID), data, r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r RedisCache) Delete(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, cacheKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(userID string) string {
	return fmt.Sprintf("cart:%s", userID)
}
