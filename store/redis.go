package store

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

const defaultKeyPrefix = "ivtrader:risk:"

type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	// Prefix is prepended to the day key. Empty uses "ivtrader:risk:".
	Prefix string
	// TTL expires old days; zero keeps them.
	TTL time.Duration
}

// Redis stores each day's snapshot as a hash.
type Redis struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis connects and pings the server.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &Redis{client: client, prefix: prefix, ttl: cfg.TTL}, nil
}

func (r *Redis) key(day string) string { return r.prefix + day }

func (r *Redis) Load(ctx context.Context, day string) (map[string]string, error) {
	kv, err := r.client.HGetAll(ctx, r.key(day)).Result()
	if err != nil {
		return nil, err
	}
	if len(kv) == 0 {
		return nil, ErrNotFound
	}
	return kv, nil
}

func (r *Redis) Save(ctx context.Context, day string, kv map[string]string) error {
	fields := make(map[string]interface{}, len(kv))
	for k, v := range kv {
		fields[k] = v
	}

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, r.key(day), fields)
	if r.ttl > 0 {
		pipe.Expire(ctx, r.key(day), r.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (r *Redis) Delete(ctx context.Context, day string) error {
	return r.client.Del(ctx, r.key(day)).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
