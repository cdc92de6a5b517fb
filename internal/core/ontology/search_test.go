package ontology

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/CultureBotAI/CultureMech-sub001/internal/core/cache"
	"github.com/CultureBotAI/CultureMech-sub001/internal/core/mapping"
	"github.com/CultureBotAI/CultureMech-sub001/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) *config.OntologyConfig {
	return &config.OntologyConfig{
		BaseURL:        baseURL,
		Timeout:        5 * time.Second,
		MinInterval:    0,
		MaxInFlight:    2,
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		RowLimit:       10,
	}
}

func writeDocs(w http.ResponseWriter, docs []Doc) {
	resp := map[string]interface{}{
		"response": map[string]interface{}{
			"numFound": len(docs),
			"docs":     docs,
		},
	}
	json.NewEncoder(w).Encode(resp)
}

func newSearcher(t *testing.T, handler http.HandlerFunc) (*Searcher, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewClient(testConfig(srv.URL))
	return NewSearcher(client, cache.NewMemoryStore(), false), srv
}

func TestExactStage(t *testing.T) {
	s, _ := newSearcher(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ontology") != "chebi" {
			writeDocs(w, nil)
			return
		}
		writeDocs(w, []Doc{
			{OboID: "CHEBI:26710", Label: "Sodium Chloride", OntologyName: "chebi"},
		})
	})

	c := s.Search(context.Background(), "sodium chloride")
	require.NotNil(t, c)
	assert.Equal(t, mapping.StageExact, c.Stage)
	assert.Equal(t, "CHEBI:26710", c.ObjectID)
}

// 變音符號不影響精確匹配
func TestExactStageDiacritics(t *testing.T) {
	s, _ := newSearcher(t, func(w http.ResponseWriter, r *http.Request) {
		writeDocs(w, []Doc{
			{OboID: "CHEBI:27732", Label: "caféine", OntologyName: "chebi"},
		})
	})

	c := s.Search(context.Background(), "cafeine")
	require.NotNil(t, c)
	assert.Equal(t, mapping.StageExact, c.Stage)
}

func TestSynonymStage(t *testing.T) {
	s, _ := newSearcher(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		// 精確階段查不到
		if q.Get("exact") == "true" {
			writeDocs(w, nil)
			return
		}
		writeDocs(w, []Doc{
			{OboID: "CHEBI:17234", Label: "glucose", OntologyName: "chebi", Synonyms: []string{"dextrose", "grape sugar"}},
		})
	})

	c := s.Search(context.Background(), "dextrose")
	require.NotNil(t, c)
	assert.Equal(t, mapping.StageSynonym, c.Stage)
	assert.Equal(t, "glucose", c.ObjectLabel)
}

func TestMultiOntologyStagePriority(t *testing.T) {
	var uberonQueried atomic.Bool
	s, _ := newSearcher(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("ontology") {
		case "foodon":
			writeDocs(w, []Doc{
				{OboID: "FOODON:03315426", Label: "yeast extract", OntologyName: "foodon", Score: 8.5},
			})
		case "uberon":
			uberonQueried.Store(true)
			writeDocs(w, []Doc{
				{OboID: "UBERON:0001977", Label: "blood serum", OntologyName: "uberon", Score: 7.0},
			})
		default:
			writeDocs(w, nil)
		}
	})

	c := s.Search(context.Background(), "yeast extract")
	require.NotNil(t, c)
	assert.Equal(t, mapping.StageMultiOntology, c.Stage)
	// FOODON 優先於 UBERON
	assert.Equal(t, "FOODON:03315426", c.ObjectID)
}

// 無生物性關鍵詞時不觸發多本體搜尋
func TestMultiOntologySkippedWithoutKeyword(t *testing.T) {
	var ontologies []string
	s, _ := newSearcher(t, func(w http.ResponseWriter, r *http.Request) {
		ontologies = append(ontologies, r.URL.Query().Get("ontology"))
		writeDocs(w, nil)
	})

	c := s.Search(context.Background(), "unobtainium chloride")
	assert.Nil(t, c)
	for _, o := range ontologies {
		assert.Equal(t, "chebi", o)
	}
}

func TestFuzzyStage(t *testing.T) {
	s, _ := newSearcher(t, func(w http.ResponseWriter, r *http.Request) {
		writeDocs(w, []Doc{
			{OboID: "CHEBI:26710", Label: "sodium chloride", OntologyName: "chebi"},
			{OboID: "CHEBI:99999", Label: "completely different", OntologyName: "chebi"},
		})
	})

	// 一字之差，相似度遠高於 0.8
	c := s.Search(context.Background(), "sodium chlorid")
	require.NotNil(t, c)
	assert.Equal(t, mapping.StageFuzzy, c.Stage)
	assert.Equal(t, "CHEBI:26710", c.ObjectID)
	assert.GreaterOrEqual(t, c.Score, 0.8)
}

func TestFuzzyStageRejectsLowSimilarity(t *testing.T) {
	s, _ := newSearcher(t, func(w http.ResponseWriter, r *http.Request) {
		writeDocs(w, []Doc{
			{OboID: "CHEBI:12345", Label: "something unrelated", OntologyName: "chebi"},
		})
	})

	assert.Nil(t, s.Search(context.Background(), "magnesium sulfate"))
}

func TestFuzzyTieBreak(t *testing.T) {
	// 兩個同分候選：取標籤較短者；標籤同長取編號較小者
	a := &mapping.Candidate{ObjectID: "CHEBI:200", ObjectLabel: "abcd", Score: 0.9}
	b := &mapping.Candidate{ObjectID: "CHEBI:100", ObjectLabel: "abcde", Score: 0.9}
	assert.True(t, fuzzyBetter(a, b))

	c := &mapping.Candidate{ObjectID: "CHEBI:100", ObjectLabel: "abcd", Score: 0.9}
	assert.True(t, fuzzyBetter(c, a))
	assert.False(t, fuzzyBetter(a, c))
}

// 快取：同一（形式、本體、階段）只發一次網路請求，之後走快取（含墓碑）
func TestLookupCachesResultsAndTombstones(t *testing.T) {
	var calls atomic.Int64
	s, _ := newSearcher(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeDocs(w, nil)
	})

	ctx := context.Background()
	s.Search(ctx, "unobtainium chloride")
	first := calls.Load()
	s.Search(ctx, "unobtainium chloride")
	assert.Equal(t, first, calls.Load(), "second run should be served from cache")

	m := s.Metrics()
	assert.Greater(t, m.CacheHits, int64(0))
}

// refresh 模式跳過快取讀取但仍寫入
func TestRefreshBypassesCacheReads(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeDocs(w, nil)
	}))
	t.Cleanup(srv.Close)

	store := cache.NewMemoryStore()
	client := NewClient(testConfig(srv.URL))
	s := NewSearcher(client, store, true)

	ctx := context.Background()
	s.Search(ctx, "unobtainium chloride")
	first := calls.Load()
	s.Search(ctx, "unobtainium chloride")
	assert.Greater(t, calls.Load(), first, "refresh mode must re-issue queries")
}

// 暫時性 5xx 經退避重試後成功
func TestRetryOnTransientError(t *testing.T) {
	var calls atomic.Int64
	s, _ := newSearcher(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeDocs(w, []Doc{
			{OboID: "CHEBI:26710", Label: "sodium chloride", OntologyName: "chebi"},
		})
	})

	c := s.Search(context.Background(), "sodium chloride")
	require.NotNil(t, c)
	assert.Equal(t, "CHEBI:26710", c.ObjectID)
}

// 重試耗盡降級為該階段未命中，不是致命錯誤
func TestRetriesExhaustedDegradesToMiss(t *testing.T) {
	s, _ := newSearcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	assert.Nil(t, s.Search(context.Background(), "sodium chloride"))
	assert.Greater(t, s.Metrics().APIErrors, int64(0))
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, similarity("abc", "abc"))
	assert.InDelta(t, 0.8, similarity("abcde", "abcdx"), 0.001)
	assert.Equal(t, 1.0, similarity("", ""))
}

func TestCurieNumber(t *testing.T) {
	assert.Equal(t, 26710, curieNumber("CHEBI:26710"))
	assert.Greater(t, curieNumber("not-a-curie"), 1<<30)
}

func TestLimiterSpacing(t *testing.T) {
	l := NewLimiter(20*time.Millisecond, 1)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, l.Acquire(ctx))
	l.Release()
	require.NoError(t, l.Acquire(ctx))
	l.Release()
	require.NoError(t, l.Acquire(ctx))
	l.Release()

	// 三次取得至少間隔兩個最小間隔
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}
