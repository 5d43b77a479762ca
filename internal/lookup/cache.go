package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/welfaredesk/welfaredesk/internal/backend"
)

const (
	keyPrefix   = "welfaredesk:lookup"
	bumpChannel = "welfaredesk:lookup.bump"
)

// Cache is the shared Redis tier. Each entity has its own version counter so
// one entity can be invalidated without touching the others.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper. A nil client disables the tier.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func versionKey(entity string) string {
	return keyPrefix + ":version:" + entity
}

// Version returns the entity's cache version, initialising when missing.
func (c *Cache) Version(ctx context.Context, entity string) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, versionKey(entity)).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.SetNX(ctx, versionKey(entity), 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, versionKey(entity)).Int64()
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// BuildKey composes the entity cache key with its current version.
func (c *Cache) BuildKey(ctx context.Context, entity string) (string, error) {
	ver, err := c.Version(ctx, entity)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%s:%d", keyPrefix, entity, ver), nil
}

// Get reads cached options. ok is false on a miss.
func (c *Cache) Get(ctx context.Context, key string) ([]backend.Option, bool, error) {
	if c == nil || c.client == nil {
		return nil, false, nil
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var opts []backend.Option
	if err := json.Unmarshal(payload, &opts); err != nil {
		return nil, false, err
	}
	return opts, true, nil
}

// Set stores options under key.
func (c *Cache) Set(ctx context.Context, key string, opts []backend.Option) error {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := json.Marshal(opts)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, c.ttl).Err()
}

// Bump invalidates an entity by incrementing its version and announcing the
// change to other instances.
func (c *Cache) Bump(ctx context.Context, entity string) error {
	if c == nil || c.client == nil {
		return nil
	}
	if err := c.client.Incr(ctx, versionKey(entity)).Err(); err != nil {
		return err
	}
	return c.client.Publish(ctx, bumpChannel, entity).Err()
}

// ListenForInvalidation calls onBump for every entity bumped by any instance
// until ctx is cancelled.
func (c *Cache) ListenForInvalidation(ctx context.Context, logger *slog.Logger, onBump func(entity string)) {
	if c == nil || c.client == nil || onBump == nil {
		return
	}
	pubsub := c.client.Subscribe(ctx, bumpChannel)
	go func() {
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if msg.Payload == "" {
					continue
				}
				if logger != nil {
					logger.Debug("lookup invalidated", slog.String("entity", msg.Payload))
				}
				onBump(msg.Payload)
			}
		}
	}()
}
