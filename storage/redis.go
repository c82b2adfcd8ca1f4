package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis is a Backend persisting entries in Redis under a shared prefix, so
// session state survives process restarts and is visible across processes.
//
// Redis instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis describes the newredis operation and its observable behavior.
//
// The prefix namespaces all entries, typically one prefix per end user.
func NewRedis(client redis.UniversalClient, prefix string) (*Redis, error) {
	if client == nil {
		return nil, errors.New("nil redis client")
	}
	if prefix == "" {
		prefix = "ig"
	}
	return &Redis{client: client, prefix: prefix}, nil
}

func (r *Redis) key(key string) string {
	return fmt.Sprintf("%s:store:%s", r.prefix, key)
}

// Get describes the get operation and its observable behavior.
func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Set describes the set operation and its observable behavior.
func (r *Redis) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, r.key(key), value, 0).Err()
}

// Delete describes the delete operation and its observable behavior.
func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}
