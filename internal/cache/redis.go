package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore — реализация Store поверх Redis для работы нескольких
// инстансов обработчика: состояние сессий и платёжные токены должны
// быть видны любому из них.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore подключается к Redis по URL и проверяет соединение.
func NewRedisStore(url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("cache: некорректный redis url: %w", err)
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("cache: не удалось подключиться к redis: %w", err)
	}

	return &RedisStore{rdb: rdb}, nil
}

func (rs *RedisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := rs.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCacheMiss
		}
		return "", fmt.Errorf("cache: get %w", err)
	}
	return value, nil
}

func (rs *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := rs.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("cache: set %w", err)
	}
	return nil
}

func (rs *RedisStore) Delete(ctx context.Context, key string) error {
	if err := rs.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("cache: delete %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis.
func (rs *RedisStore) Close() error {
	return rs.rdb.Close()
}
