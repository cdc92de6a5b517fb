package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/CultureBotAI/CultureMech-sub001/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisStore 以 Redis 為後端的持久化快取
type RedisStore struct {
	client *redis.Client
	stats  counters
}

// NewRedisStore 連線 Redis 並建立快取後端
func NewRedisStore(addr string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	// 測試連接
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	common.LogInfo("快取已開啟",
		zap.String("後端", "redis"),
		zap.String("位址", addr),
	)
	return &RedisStore{client: client}, nil
}

func redisKey(key string) string {
	return "lookup:" + key
}

// Get 獲取快取條目；損壞的條目視為未命中
func (r *RedisStore) Get(ctx context.Context, key string) (*Entry, error) {
	data, err := r.client.Get(ctx, redisKey(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			r.stats.miss()
			return nil, common.ErrCacheMiss
		}
		r.stats.err()
		common.LogWarn("快取讀取失敗，視為未命中", zap.Error(err))
		return nil, common.ErrCacheMiss
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		r.stats.err()
		common.LogWarn("快取條目損壞，視為未命中",
			zap.String("鍵", key),
			zap.Error(err),
		)
		return nil, common.ErrCacheMiss
	}
	r.stats.hit()
	return &e, nil
}

// Set 設置快取條目；TTL 為零，條目存續直到手動清除
func (r *RedisStore) Set(ctx context.Context, key string, e *Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	if err := r.client.Set(ctx, redisKey(key), data, 0).Err(); err != nil {
		r.stats.err()
		return fmt.Errorf("failed to set cache entry: %w", err)
	}
	return nil
}

// Stats 獲取快取統計
func (r *RedisStore) Stats() Stats {
	return r.stats.snapshot()
}

// Close 關閉連線
func (r *RedisStore) Close() error {
	return r.client.Close()
}
