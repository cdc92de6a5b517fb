package cache

import (
	"context"
	"sync"

	"github.com/CultureBotAI/CultureMech-sub001/internal/pkg/common"
)

// MemoryStore 進程內的記憶體快取後端；快取停用時的退路，也供測試使用
type MemoryStore struct {
	mu    sync.RWMutex
	store map[string]Entry
	stats counters
}

// NewMemoryStore 創建記憶體快取後端
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		store: make(map[string]Entry),
	}
}

// Get 獲取快取條目
func (m *MemoryStore) Get(ctx context.Context, key string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.store[key]
	if !ok {
		m.stats.miss()
		return nil, common.ErrCacheMiss
	}
	m.stats.hit()
	out := entry
	return &out, nil
}

// Set 設置快取條目
func (m *MemoryStore) Set(ctx context.Context, key string, e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[key] = *e
	return nil
}

// Stats 獲取快取統計
func (m *MemoryStore) Stats() Stats {
	return m.stats.snapshot()
}

// Close 關閉後端
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store = make(map[string]Entry)
	return nil
}
