package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss возвращается, когда ключ отсутствует или его TTL истёк.
var ErrCacheMiss = errors.New("cache: key not found")

// Store — эфемерное key-value хранилище для межсобытийной корреляции:
// состояние диалога, подключи многошаговых сценариев, платёжные токены.
// Никогда не используется как основное хранилище данных.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
