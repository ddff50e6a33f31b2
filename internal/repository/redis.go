package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"stayhub/internal/config"
	"stayhub/internal/models"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss сигнализирует об отсутствии записи в кэше
var ErrCacheMiss = errors.New("cache miss")

type RedisAvailabilityCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}

	return redis.NewClient(options)
}

func NewRedisAvailabilityCache(client *redis.Client, ttl time.Duration) *RedisAvailabilityCache {
	return &RedisAvailabilityCache{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisAvailabilityCache) GetVersion(ctx context.Context, roomTypeID int64) (int64, error) {
	if r.client == nil {
		return 0, fmt.Errorf("redis client is nil")
	}
	key := versionKey(roomTypeID)
	version, err := r.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get availability version: %w", err)
	}
	return version, nil
}

func (r *RedisAvailabilityCache) BumpVersion(ctx context.Context, roomTypeID int64) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Incr(ctx, versionKey(roomTypeID)).Err(); err != nil {
		return fmt.Errorf("failed to bump availability version: %w", err)
	}
	return nil
}

func (r *RedisAvailabilityCache) GetRange(ctx context.Context, roomTypeID, version int64, from, to time.Time) ([]models.DayAvailability, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	val, err := r.client.Get(ctx, rangeKey(roomTypeID, version, from, to)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get availability range from redis: %w", err)
	}

	var days []models.DayAvailability
	if err := json.Unmarshal([]byte(val), &days); err != nil {
		return nil, fmt.Errorf("failed to unmarshal availability range: %w", err)
	}
	return days, nil
}

func (r *RedisAvailabilityCache) SetRange(ctx context.Context, roomTypeID, version int64, from, to time.Time, days []models.DayAvailability) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	data, err := json.Marshal(days)
	if err != nil {
		return fmt.Errorf("failed to marshal availability range: %w", err)
	}

	if err := r.client.Set(ctx, rangeKey(roomTypeID, version, from, to), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set availability range in redis: %w", err)
	}
	return nil
}

func versionKey(roomTypeID int64) string {
	return fmt.Sprintf("avail_ver:%d", roomTypeID)
}

func rangeKey(roomTypeID, version int64, from, to time.Time) string {
	return fmt.Sprintf("avail:%d:%d:%s:%s",
		roomTypeID, version, from.Format("2006-01-02"), to.Format("2006-01-02"))
}

// Ping проверяет соединение с Redis
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
