package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/CultureBotAI/CultureMech-sub001/internal/core/mapping"
	"github.com/CultureBotAI/CultureMech-sub001/internal/infrastructure/config"
	"github.com/CultureBotAI/CultureMech-sub001/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyDeterministic(t *testing.T) {
	k1 := Key("sodium chloride", "chebi", mapping.StageExact)
	k2 := Key("sodium chloride", "chebi", mapping.StageExact)
	assert.Equal(t, k1, k2)

	// 三元組任一部分不同，鍵就不同
	assert.NotEqual(t, k1, Key("sodium chloride", "chebi", mapping.StageSynonym))
	assert.NotEqual(t, k1, Key("sodium chloride", "foodon", mapping.StageExact))
	assert.NotEqual(t, k1, Key("potassium chloride", "chebi", mapping.StageExact))
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	key := Key("glucose", "chebi", mapping.StageExact)

	_, err := store.Get(ctx, key)
	assert.ErrorIs(t, err, common.ErrCacheMiss)

	entry := &Entry{
		Form:      "glucose",
		Ontology:  "chebi",
		Stage:     mapping.StageExact,
		Found:     true,
		Payload:   json.RawMessage(`[{"obo_id":"CHEBI:17234","label":"glucose"}]`),
		CreatedAt: time.Now(),
	}
	require.NoError(t, store.Set(ctx, key, entry))

	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, got.Found)
	assert.JSONEq(t, string(entry.Payload), string(got.Payload))

	stats := store.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

// 墓碑條目：查無結果也要快取，避免重發失敗查詢
func TestMemoryStoreTombstone(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	key := Key("no such thing", "chebi", mapping.StageExact)

	require.NoError(t, store.Set(ctx, key, &Entry{
		Form:     "no such thing",
		Ontology: "chebi",
		Stage:    mapping.StageExact,
		Found:    false,
	}))

	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, got.Found)
	assert.Empty(t, got.Payload)
}

func TestNewDisabledFallsBackToMemory(t *testing.T) {
	store, err := New(&config.CacheConfig{Enabled: false})
	require.NoError(t, err)
	_, ok := store.(*MemoryStore)
	assert.True(t, ok)
}

func TestNewUnknownBackend(t *testing.T) {
	_, err := New(&config.CacheConfig{Enabled: true, Backend: "cassandra"})
	assert.Error(t, err)
}
