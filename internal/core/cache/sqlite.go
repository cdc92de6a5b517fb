package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/CultureBotAI/CultureMech-sub001/internal/pkg/common"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// SQLiteStore 以 SQLite 檔案為後端的持久化快取，跨進程重啟存續
type SQLiteStore struct {
	db    *sql.DB
	stats counters
}

// NewSQLiteStore 開啟（或建立）SQLite 快取檔
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open cache db: %w", err)
	}

	const schema = `
CREATE TABLE IF NOT EXISTS lookup_cache (
	key        TEXT PRIMARY KEY,
	form       TEXT NOT NULL,
	ontology   TEXT NOT NULL,
	stage      TEXT NOT NULL,
	found      INTEGER NOT NULL,
	payload    TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init cache schema: %w", err)
	}

	common.LogInfo("快取已開啟",
		zap.String("後端", "sqlite"),
		zap.String("路徑", path),
	)
	return &SQLiteStore{db: db}, nil
}

// Get 獲取快取條目；損壞的條目視為未命中，不中止解析
func (s *SQLiteStore) Get(ctx context.Context, key string) (*Entry, error) {
	var e Entry
	var found int
	var payload string
	row := s.db.QueryRowContext(ctx,
		`SELECT form, ontology, stage, found, payload, created_at FROM lookup_cache WHERE key = ?`, key)
	if err := row.Scan(&e.Form, &e.Ontology, &e.Stage, &found, &payload, &e.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			s.stats.miss()
			return nil, common.ErrCacheMiss
		}
		s.stats.err()
		common.LogWarn("快取讀取失敗，視為未命中", zap.Error(err))
		return nil, common.ErrCacheMiss
	}

	e.Found = found != 0
	if e.Found {
		if payload == "" || !json.Valid([]byte(payload)) {
			// 損壞條目視為未命中，觸發重新查詢
			s.stats.err()
			common.LogWarn("快取條目損壞，視為未命中",
				zap.String("鍵", key),
			)
			return nil, common.ErrCacheMiss
		}
		e.Payload = json.RawMessage(payload)
	}
	s.stats.hit()
	return &e, nil
}

// Set 設置快取條目；同鍵覆寫（last-writer-wins）
func (s *SQLiteStore) Set(ctx context.Context, key string, e *Entry) error {
	found := 0
	if e.Found {
		found = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO lookup_cache (key, form, ontology, stage, found, payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		key, e.Form, e.Ontology, string(e.Stage), found, string(e.Payload), e.CreatedAt)
	if err != nil {
		s.stats.err()
		return fmt.Errorf("failed to set cache entry: %w", err)
	}
	return nil
}

// Stats 獲取快取統計
func (s *SQLiteStore) Stats() Stats {
	return s.stats.snapshot()
}

// Close 關閉快取資料庫
func (s *SQLiteStore) Close() error {
	stats := s.stats.snapshot()
	common.LogInfo("快取已關閉",
		zap.Int64("命中次數", stats.Hits),
		zap.Int64("未命中次數", stats.Misses),
	)
	return s.db.Close()
}
