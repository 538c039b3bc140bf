package storage

import (
	"context"
	"fmt"
	"time"

	"ai-interview-go/internal/config"
	"ai-interview-go/internal/constants"
	"ai-interview-go/internal/logger"
	"ai-interview-go/internal/tracing"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
)

// ErrNotFound 键不存在，对底层 redis.Nil 的抽象
var ErrNotFound = redis.Nil

// Redis 包装 Redis 客户端，会话存储建立在它之上
type Redis struct {
	Client *redis.Client
	config *config.RedisConfig
}

// NewRedisAdapter 创建 Redis 客户端连接
func NewRedisAdapter(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis 配置不能为空")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis 地址不能为空")
	}

	opt := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,

		// 连接池设置
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,

		// 超时设置
		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,

		// 重试设置
		MaxRetries:      cfg.MaxRetries,
		MinRetryBackoff: time.Duration(cfg.MinRetryBackoffMS) * time.Millisecond,
		MaxRetryBackoff: time.Duration(cfg.MaxRetryBackoffMS) * time.Millisecond,

		// 连接生命周期
		ConnMaxLifetime: time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute,
		ConnMaxIdleTime: time.Duration(cfg.ConnMaxIdleTimeMinutes) * time.Minute,
	}

	client := redis.NewClient(opt)

	// 添加 OpenTelemetry 钩子，记录所有 Redis 操作
	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("为 Redis 添加 OpenTelemetry 追踪失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("连接 Redis (%s) 失败: %w", cfg.Address, err)
	}

	return &Redis{
		Client: client,
		config: cfg,
	}, nil
}

// Close 关闭 Redis 连接
func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// Ping 检查 Redis 连接
func (r *Redis) Ping(ctx context.Context) error {
	if r.Client == nil {
		return fmt.Errorf("redis 客户端未初始化")
	}
	return r.Client.Ping(ctx).Err()
}

// CacheProfile 缓存用户的最终档案 JSON，供后续面试定制开场问题
func (r *Redis) CacheProfile(ctx context.Context, userID string, profileJSON []byte, ttl time.Duration) error {
	if userID == "" {
		return fmt.Errorf("userID 不能为空")
	}
	key := fmt.Sprintf(constants.KeyInterviewProfile, userID)
	if err := r.Client.Set(ctx, key, profileJSON, ttl).Err(); err != nil {
		return fmt.Errorf("缓存用户档案失败: %w", err)
	}
	logger.Debug().Str("key", tracing.SafeRedisKey(key)).Dur("ttl", ttl).Msg("用户档案已写入缓存")
	return nil
}

// GetCachedProfile 读取缓存的用户档案，不存在时返回 ErrNotFound
func (r *Redis) GetCachedProfile(ctx context.Context, userID string) ([]byte, error) {
	key := fmt.Sprintf(constants.KeyInterviewProfile, userID)
	data, err := r.Client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("读取缓存档案失败: %w", err)
	}
	return data, nil
}
