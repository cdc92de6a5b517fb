// Package cache 提供外部查詢結果的持久化快取。
// 鍵為（正規形式、目標本體、搜尋階段）三元組的雜湊；值為該次查詢的
// 原始候選清單，或明確的「查無結果」墓碑，避免重跑時重發失敗的查詢。
// 不做淘汰：條目存續直到手動清除。
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/CultureBotAI/CultureMech-sub001/internal/core/mapping"
	"github.com/CultureBotAI/CultureMech-sub001/internal/infrastructure/config"
)

// Entry 單次外部查詢的快取條目；Payload 保存服務的原始回應
type Entry struct {
	Form      string          `json:"form"`
	Ontology  string          `json:"ontology"`
	Stage     mapping.Stage   `json:"stage"`
	Found     bool            `json:"found"` // false 即「查無結果」墓碑
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Stats 快取統計
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Errors int64 `json:"errors"`
}

// Store 快取後端介面：讀取並發安全，寫入為冪等的 last-writer-wins
type Store interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Set(ctx context.Context, key string, e *Entry) error
	Stats() Stats
	Close() error
}

// Key 生成快取鍵：SHA-256(形式|本體|階段)
func Key(form, ontology string, stage mapping.Stage) string {
	hash := sha256.Sum256([]byte(form + "|" + ontology + "|" + string(stage)))
	return hex.EncodeToString(hash[:])
}

// New 依設定建立快取後端；快取停用時退回只存活於進程內的記憶體後端
func New(cfg *config.CacheConfig) (Store, error) {
	if !cfg.Enabled {
		return NewMemoryStore(), nil
	}
	switch cfg.Backend {
	case "sqlite":
		return NewSQLiteStore(cfg.Path)
	case "redis":
		return NewRedisStore(cfg.Addr)
	default:
		return nil, fmt.Errorf("unknown cache backend: %s", cfg.Backend)
	}
}

// counters 各後端共用的統計計數
type counters struct {
	hits   int64
	misses int64
	errors int64
}

func (c *counters) hit()  { atomic.AddInt64(&c.hits, 1) }
func (c *counters) miss() { atomic.AddInt64(&c.misses, 1) }
func (c *counters) err()  { atomic.AddInt64(&c.errors, 1) }

func (c *counters) snapshot() Stats {
	return Stats{
		Hits:   atomic.LoadInt64(&c.hits),
		Misses: atomic.LoadInt64(&c.misses),
		Errors: atomic.LoadInt64(&c.errors),
	}
}
