package sharedstate

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Store backed by a Redis server.
type Redis struct {
	cli *redis.Client
}

// ConnectRedis connects and pings the server to ensure the connection works.
func ConnectRedis(ctx context.Context, addr string) (*Redis, error) {
	cli := redis.NewClient(&redis.Options{Addr: addr})
	if err := cli.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Redis{cli: cli}, nil
}

// casScript swaps the value only when the current one matches, refreshing the
// key TTL on success. ARGV[3] is the TTL in milliseconds, "0" for none.
var casScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  if ARGV[3] ~= "0" then
    redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
  else
    redis.call("SET", KEYS[1], ARGV[2])
  end
  return 1
end
return 0`)

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.cli.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return val, true, nil
}

func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := r.cli.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *Redis) CompareAndSwap(ctx context.Context, key, old, value string, ttl time.Duration) (bool, error) {
	if old == "" {
		ok, err := r.cli.SetNX(ctx, key, value, ttl).Result()
		if err != nil {
			return false, fmt.Errorf("redis setnx: %w", err)
		}
		return ok, nil
	}
	ttlMillis := strconv.FormatInt(ttl.Milliseconds(), 10)
	res, err := casScript.Run(ctx, r.cli, []string{key}, old, value, ttlMillis).Int()
	if err != nil {
		return false, fmt.Errorf("redis cas: %w", err)
	}
	return res == 1, nil
}

// Close releases the underlying client.
func (r *Redis) Close() error {
	return r.cli.Close()
}
