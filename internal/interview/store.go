package interview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"ai-interview-go/internal/constants"
)

// ErrSessionNotFound 会话不存在
var ErrSessionNotFound = errors.New("interview session not found")

// SessionStore 会话状态存储接口
type SessionStore interface {
	// Get 读取会话状态，不存在时返回 ErrSessionNotFound
	Get(ctx context.Context, sessionID string) (*SessionState, error)
	// Set 保存会话状态，并刷新过期时间
	Set(ctx context.Context, state *SessionState) error
	// Delete 删除会话状态，不存在时不报错
	Delete(ctx context.Context, sessionID string) error
}

// RedisSessionStore 基于 Redis 的会话存储
// 整个状态 JSON 序列化后存为单个 STRING，每次保存刷新 TTL
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionStore 创建 Redis 会话存储并验证连通性
// ttl 为 0 时使用默认 TTL
func NewRedisSessionStore(client *redis.Client, ttl time.Duration) (*RedisSessionStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client 不能为空")
	}
	if ttl <= 0 {
		ttl = constants.DefaultSessionTTL
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("连接 Redis 失败: %w", err)
	}

	return &RedisSessionStore{client: client, ttl: ttl}, nil
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf(constants.KeyInterviewSession, sessionID)
}

// Get 实现 SessionStore 接口
func (s *RedisSessionStore) Get(ctx context.Context, sessionID string) (*SessionState, error) {
	data, err := s.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("读取会话 %s 失败: %w", sessionID, err)
	}

	var state SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("反序列化会话 %s 失败: %w", sessionID, err)
	}
	state.ensureModuleMaps()

	return &state, nil
}

// Set 实现 SessionStore 接口
func (s *RedisSessionStore) Set(ctx context.Context, state *SessionState) error {
	if state == nil {
		return fmt.Errorf("会话状态不能为空")
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("序列化会话 %s 失败: %w", state.SessionID, err)
	}

	if err := s.client.Set(ctx, sessionKey(state.SessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("保存会话 %s 失败: %w", state.SessionID, err)
	}
	return nil
}

// Delete 实现 SessionStore 接口
func (s *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("删除会话 %s 失败: %w", sessionID, err)
	}
	return nil
}

var _ SessionStore = (*RedisSessionStore)(nil)

// MemorySessionStore 进程内会话存储，用于测试和本地开发
// 按 JSON 快照保存，避免调用方共享可变状态
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string][]byte
}

// NewMemorySessionStore 创建内存会话存储
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string][]byte),
	}
}

// Get 实现 SessionStore 接口
func (s *MemorySessionStore) Get(ctx context.Context, sessionID string) (*SessionState, error) {
	s.mu.RLock()
	data, ok := s.sessions[sessionID]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}

	var state SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("反序列化会话 %s 失败: %w", sessionID, err)
	}
	state.ensureModuleMaps()

	return &state, nil
}

// Set 实现 SessionStore 接口
func (s *MemorySessionStore) Set(ctx context.Context, state *SessionState) error {
	if state == nil {
		return fmt.Errorf("会话状态不能为空")
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("序列化会话 %s 失败: %w", state.SessionID, err)
	}

	s.mu.Lock()
	s.sessions[state.SessionID] = data
	s.mu.Unlock()
	return nil
}

// Delete 实现 SessionStore 接口
func (s *MemorySessionStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return nil
}

var _ SessionStore = (*MemorySessionStore)(nil)
