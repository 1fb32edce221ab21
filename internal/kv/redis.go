package kv

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v7"
)

// Redis shares the session between console processes on different hosts.
type Redis struct {
	client *redis.Client
	prefix string
}

var _ Store = (*Redis)(nil)

// OpenRedis connects and pings the server. Keys are namespaced by prefix.
func OpenRedis(addr, pwd string, db int, prefix string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: pwd,
		DB:       db,
	})
	if err := client.Ping().Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("kv: redis ping %s: %w", addr, err)
	}
	return &Redis{client: client, prefix: prefix}, nil
}

func (r *Redis) key(k string) string { return r.prefix + k }

func (r *Redis) Get(key string) (string, error) {
	v, err := r.client.Get(r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return v, err
}

func (r *Redis) Set(key, value string, exp time.Duration) error {
	if exp < 0 {
		exp = 0
	}
	return r.client.Set(r.key(key), value, exp).Err()
}

// SetMany uses MSET, which redis applies atomically.
func (r *Redis) SetMany(values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	pairs := make([]interface{}, 0, len(values)*2)
	for k, v := range values {
		pairs = append(pairs, r.key(k), v)
	}
	return r.client.MSet(pairs...).Err()
}

func (r *Redis) Del(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.key(k)
	}
	return r.client.Del(full...).Err()
}

func (r *Redis) Close() error { return r.client.Close() }
