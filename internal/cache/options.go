package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/unclebandit/crm-campaign-backend/internal/model"
)

const optionsKey = "campaign:options"

// OptionsCache keeps the campaign form options in Redis for a fixed TTL.
type OptionsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewOptionsCache(addr string, ttl time.Duration) (*OptionsCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &OptionsCache{client: client, ttl: ttl}, nil
}

// Get reports false on a cache miss.
func (c *OptionsCache) Get(ctx context.Context) (*model.CampaignOptions, bool, error) {
	data, err := c.client.Get(ctx, optionsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var opts model.CampaignOptions
	if err := json.Unmarshal(data, &opts); err != nil {
		return nil, false, fmt.Errorf("decode cached options: %w", err)
	}
	return &opts, true, nil
}

func (c *OptionsCache) Set(ctx context.Context, opts *model.CampaignOptions) error {
	data, err := json.Marshal(opts)
	if err != nil {
		return fmt.Errorf("encode options: %w", err)
	}
	if err := c.client.Set(ctx, optionsKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Invalidate drops the cached options after the source tables are reloaded.
func (c *OptionsCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, optionsKey).Err()
}

func (c *OptionsCache) Close() error {
	return c.client.Close()
}
