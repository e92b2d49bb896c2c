package cache

import (
	"context"
	"sync"
	"time"
)

// Cache 通用 KV 缓存
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// ==================== 内存实现 ====================

// cacheItem 内部结构，包含值和过期时间
type cacheItem struct {
	value      []byte
	expiration time.Time
}

// MemoryCache 进程内缓存（sync.Map 保证并发安全）
type MemoryCache struct {
	items sync.Map
	now   func() time.Time
}

// NewMemory 创建内存缓存
func NewMemory() *MemoryCache {
	return &MemoryCache{now: time.Now}
}

func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, ok := m.items.Load(key)
	if !ok {
		return nil, false, nil
	}

	item := val.(cacheItem)
	if !item.expiration.IsZero() && m.now().After(item.expiration) {
		m.items.Delete(key) // 懒删除
		return nil, false, nil
	}
	return item.value, true, nil
}

// Set ttl <= 0 表示永不过期
func (m *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	item := cacheItem{value: value}
	if ttl > 0 {
		item.expiration = m.now().Add(ttl)
	}
	m.items.Store(key, item)
	return nil
}

func (m *MemoryCache) Delete(ctx context.Context, key string) error {
	m.items.Delete(key)
	return nil
}

// ==================== 空实现 ====================

type NoopCache struct{}

func NewNoop() *NoopCache {
	return &NoopCache{}
}

func (n *NoopCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

func (n *NoopCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return nil
}

func (n *NoopCache) Delete(ctx context.Context, key string) error {
	return nil
}
