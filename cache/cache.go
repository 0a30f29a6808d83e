// Package cache хранит короткоживущие сериализованные значения:
// в Redis, если он настроен, или в памяти процесса.
package cache

import (
	"context"
	"time"
)

// Cache хранилище строковых значений с временем жизни
type Cache interface {
	// Get возвращает значение и признак его наличия
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
