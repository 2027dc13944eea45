// Package cache keeps generated worlds in Redis so each seed and size is generated once.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	dmn "github.com/beka-birhanu/vinom-caves/domain"
	"github.com/beka-birhanu/vinom-caves/service/i"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
)

const (
	// default prefix for redis keys
	defaultPrefix = "vinom-caves"

	// how long a generation lock survives a crashed holder
	lockExpiry = 10 * time.Second

	// world key format: prefix, seed, width, height
	worldKeyFmt = "%s:world:%d:%dx%d"
)

// RedisWorldCache stores generated grids as BSON documents with a TTL.
type RedisWorldCache struct {
	client *redis.Client
	locker *redsync.Redsync
	ttl    time.Duration
	prefix string
	logger i.Logger
}

// NewRedisWorldCache initializes a RedisWorldCache with the provided Redis client and TTL.
func NewRedisWorldCache(client *redis.Client, ttlSeconds int, logger i.Logger) (*RedisWorldCache, error) {
	if ttlSeconds <= 0 {
		return nil, fmt.Errorf("invalid cache ttl: %d", ttlSeconds)
	}

	cache := &RedisWorldCache{
		client: client,
		ttl:    time.Duration(ttlSeconds) * time.Second,
		prefix: defaultPrefix,
		logger: logger,
	}
	pool := goredis.NewPool(client)
	cache.locker = redsync.New(pool)
	return cache, nil
}

// Get returns the cached world or an error wrapping dmn.ErrCacheMiss.
func (c *RedisWorldCache) Get(ctx context.Context, seed uint32, width, height int) (*dmn.CachedWorld, error) {
	key := c.key(seed, width, height)
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", dmn.ErrCacheMiss, key)
	}
	if err != nil {
		return nil, err
	}

	var cached dmn.CachedWorld
	if err := bson.Unmarshal(raw, &cached); err != nil {
		c.logger.Warning(fmt.Sprintf("dropping undecodable entry %s: %s", key, err))
		_ = c.client.Del(ctx, key).Err()
		return nil, fmt.Errorf("%w: %s", dmn.ErrCacheMiss, key)
	}

	c.logger.Info(fmt.Sprintf("cache hit: %s", key))
	return &cached, nil
}

// Put stores world, replacing any previous entry and restarting its TTL.
func (c *RedisWorldCache) Put(ctx context.Context, world *dmn.CachedWorld) error {
	raw, err := bson.Marshal(world)
	if err != nil {
		return err
	}

	key := c.key(world.Seed, world.Width, world.Height)
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return err
	}

	c.logger.Info(fmt.Sprintf("cached world: %s", key))
	return nil
}

// Lock obtains the generation lock for one seed and size.
func (c *RedisWorldCache) Lock(ctx context.Context, seed uint32, width, height int) (func(), error) {
	mutex := c.locker.NewMutex(c.key(seed, width, height)+":generate_lock", redsync.WithExpiry(lockExpiry))
	if err := mutex.LockContext(ctx); err != nil {
		return nil, err
	}

	return func() {
		_, _ = mutex.UnlockContext(context.Background())
	}, nil
}

func (c *RedisWorldCache) key(seed uint32, width, height int) string {
	return fmt.Sprintf(worldKeyFmt, c.prefix, seed, width, height)
}
