package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nlevin/shortly/internal/models"
)

// TTL bounds how long a cached URL snapshot may disagree with the store.
const TTL = 24 * time.Hour

type URLCache struct {
	client *redis.Client
}

func NewURLCache(addr, password string) (*URLCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &URLCache{client: client}, nil
}

func (c *URLCache) Get(ctx context.Context, hash string) (*models.URL, bool, error) {
	val, err := c.client.Get(ctx, hash).Result()
	if err == redis.Nil {
		return nil, false, nil
	} else if err != nil {
		return nil, false, fmt.Errorf("get cache: %w", err)
	}

	var url models.URL
	if err := json.Unmarshal([]byte(val), &url); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached url: %w", err)
	}

	return &url, true, nil
}

func (c *URLCache) Set(ctx context.Context, url *models.URL) error {
	data, err := json.Marshal(url)
	if err != nil {
		return fmt.Errorf("marshal url: %w", err)
	}

	if err := c.client.Set(ctx, url.Hash, data, TTL).Err(); err != nil {
		return fmt.Errorf("set cache: %w", err)
	}

	return nil
}

func (c *URLCache) Delete(ctx context.Context, hash string) error {
	if err := c.client.Del(ctx, hash).Err(); err != nil {
		return fmt.Errorf("delete cache: %w", err)
	}

	return nil
}

func (c *URLCache) Close() error {
	return c.client.Close()
}
