// Package cache 提供 Redis 缓存操作的封装
// 记录最近一次活跃的会话，进程重启后回到该会话
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"ai-chatbot/internal/config"
)

// activeSessionKey 最近活跃会话的键
const activeSessionKey = "chatbot:active_session"

// RedisCache 封装 Redis 客户端，提供业务相关的缓存操作
type RedisCache struct {
	client *redis.Client // Redis 客户端实例
}

// NewRedisCache 创建 RedisCache 实例
// 参数:
//   - cfg: Redis 连接配置
//
// 返回:
//   - *RedisCache: 缓存实例
//   - error: 连接错误
func NewRedisCache(ctx context.Context, cfg config.RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

// Close 关闭 Redis 连接
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// ==================== 会话缓存 ====================

// SetActiveSession 记录当前活跃会话
func (c *RedisCache) SetActiveSession(ctx context.Context, sessionID int64) error {
	return c.client.Set(ctx, activeSessionKey, sessionID, 0).Err()
}

// GetActiveSession 获取最近活跃的会话
// 返回:
//   - int64: 会话ID，没有记录返回 0
//   - error: Redis 操作错误
func (c *RedisCache) GetActiveSession(ctx context.Context) (int64, error) {
	val, err := c.client.Get(ctx, activeSessionKey).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt active session %q: %w", val, err)
	}
	return id, nil
}
