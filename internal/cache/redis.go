// Package cache реализует кэш и счетчики попыток на основе Redis.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/magabrotheeeer/healthlife-backend/internal/config"
)

// Cache инкапсулирует клиент Redis.
type Cache struct {
	DB *redis.Client
}

// InitServer подключается к Redis и проверяет соединение.
func InitServer(ctx context.Context, cfg config.RedisConnection) (*Cache, error) {
	const op = "cache.InitServer"
	db := redis.NewClient(&redis.Options{
		Addr:         cfg.AddressRedis,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Username:     cfg.User,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.TimeoutRedis,
		WriteTimeout: cfg.TimeoutRedis,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Cache{DB: db}, nil
}

// Get читает значение по ключу и десериализует его в result.
// Возвращает false без ошибки, если ключа нет.
func (c *Cache) Get(ctx context.Context, key string, result any) (bool, error) {
	const op = "cache.Get"
	val, err := c.DB.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if err = json.Unmarshal([]byte(val), result); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// Set сохраняет значение по ключу с заданным временем жизни.
func (c *Cache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.DB.Set(ctx, key, jsonData, expiration).Err()
}

// Invalidate удаляет ключ.
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	return c.DB.Del(ctx, key).Err()
}

// IncrAttempts увеличивает счетчик попыток по ключу и возвращает новое
// значение. Окно задается при первой попытке: последующие инкременты
// TTL не продлевают.
func (c *Cache) IncrAttempts(ctx context.Context, key string, window time.Duration) (int64, error) {
	const op = "cache.IncrAttempts"
	n, err := c.DB.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if n == 1 {
		if err = c.DB.Expire(ctx, key, window).Err(); err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
	}
	return n, nil
}
