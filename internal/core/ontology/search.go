package ontology

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
	"unicode"

	"github.com/CultureBotAI/CultureMech-sub001/internal/core/cache"
	"github.com/CultureBotAI/CultureMech-sub001/internal/core/mapping"
	"github.com/CultureBotAI/CultureMech-sub001/internal/pkg/common"

	"github.com/agnivade/levenshtein"
	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	ontologyCHEBI  = "chebi"
	ontologyFOODON = "foodon"
	ontologyUBERON = "uberon"

	// fuzzySimilarityFloor 模糊匹配的接受下限
	fuzzySimilarityFloor = 0.8
	// multiRelevanceFloor 多本體搜尋的相關度下限
	multiRelevanceFloor = 0.5
)

// multiOntologyOrder 多本體搜尋的固定優先序：FOODON 先於 UBERON；
// 兩者都符合關鍵詞啟發時記錄而不猜測語義上「較好」的選擇
var multiOntologyOrder = []string{ontologyFOODON, ontologyUBERON}

// bioKeywords 觸發多本體搜尋的關鍵詞集合
var bioKeywords = []string{
	"extract", "serum", "broth", "blood", "peptone", "tryptone",
	"yeast", "meat", "beef", "liver", "heart", "brain", "milk",
	"rumen", "soil", "infusion", "tissue", "plasma", "juice", "flour",
}

// stripAccents 去除變音符號的轉換鏈
var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldKey 比較用鍵：小寫並去除變音符號
func foldKey(s string) string {
	out, _, err := transform.String(stripAccents, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

// Metrics 搜尋過程的執行期計數，由解析報告讀取
type Metrics struct {
	cacheHits   int64
	cacheMisses int64
	apiErrors   int64
}

// MetricsSnapshot 計數快照
type MetricsSnapshot struct {
	CacheHits   int64 `json:"cache_hits"`
	CacheMisses int64 `json:"cache_misses"`
	APIErrors   int64 `json:"api_errors"`
}

// Snapshot 取得目前計數
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		CacheHits:   atomic.LoadInt64(&m.cacheHits),
		CacheMisses: atomic.LoadInt64(&m.cacheMisses),
		APIErrors:   atomic.LoadInt64(&m.apiErrors),
	}
}

// Searcher 多階段本體搜尋：字典未命中後的外部查詢路徑
type Searcher struct {
	client  *Client
	store   cache.Store
	refresh bool // true 時跳過快取讀取（仍寫入新結果）
	metrics Metrics
}

// NewSearcher 創建多階段搜尋器
func NewSearcher(client *Client, store cache.Store, refresh bool) *Searcher {
	return &Searcher{
		client:  client,
		store:   store,
		refresh: refresh,
	}
}

// Metrics 取得執行期計數
func (s *Searcher) Metrics() MetricsSnapshot {
	return s.metrics.Snapshot()
}

// Search 依固定優先序嘗試各階段，回傳第一個通過該階段接受規則的候選；
// 全部落空回傳 nil。任何網路失敗都降級為該階段未命中，不會中止解析。
func (s *Searcher) Search(ctx context.Context, form string) *mapping.Candidate {
	if c := s.exactStage(ctx, form); c != nil {
		return c
	}
	if c := s.synonymStage(ctx, form); c != nil {
		return c
	}
	if c := s.multiOntologyStage(ctx, form); c != nil {
		return c
	}
	return s.fuzzyStage(ctx, form)
}

// exactStage 對主化學本體做精確標籤匹配（不分大小寫與變音符號）
func (s *Searcher) exactStage(ctx context.Context, form string) *mapping.Candidate {
	docs := s.lookup(ctx, form, ontologyCHEBI, mapping.StageExact, SearchOpts{Exact: true})
	want := foldKey(form)
	for _, d := range docs {
		if foldKey(d.Label) == want {
			return &mapping.Candidate{
				ObjectID:    d.OboID,
				ObjectLabel: d.Label,
				Ontology:    ontologyCHEBI,
				Stage:       mapping.StageExact,
				Score:       1.0,
			}
		}
	}
	return nil
}

// synonymStage 任一註冊同義詞等於正規形式即命中
func (s *Searcher) synonymStage(ctx context.Context, form string) *mapping.Candidate {
	docs := s.lookup(ctx, form, ontologyCHEBI, mapping.StageSynonym, SearchOpts{
		QueryFields: []string{"label", "synonym"},
	})
	want := foldKey(form)
	for _, d := range docs {
		for _, syn := range d.Synonyms {
			if foldKey(syn) == want {
				return &mapping.Candidate{
					ObjectID:    d.OboID,
					ObjectLabel: d.Label,
					Ontology:    ontologyCHEBI,
					Stage:       mapping.StageSynonym,
					Score:       1.0,
				}
			}
		}
	}
	return nil
}

// multiOntologyStage 形式帶有生物性關鍵詞時，依固定優先序查詢
// 食品／生物材料本體與解剖結構本體，取第一個超過相關度下限的最佳命中
func (s *Searcher) multiOntologyStage(ctx context.Context, form string) *mapping.Candidate {
	if !hasBioKeyword(form) {
		return nil
	}

	var first *mapping.Candidate
	for _, onto := range multiOntologyOrder {
		docs := s.lookup(ctx, form, onto, mapping.StageMultiOntology, SearchOpts{})
		best := bestByScore(docs)
		if best == nil || best.Score < multiRelevanceFloor {
			continue
		}
		c := &mapping.Candidate{
			ObjectID:    best.OboID,
			ObjectLabel: best.Label,
			Ontology:    onto,
			Stage:       mapping.StageMultiOntology,
			Score:       best.Score,
		}
		if first == nil {
			first = c
		} else {
			// 兩個本體都有合格命中：按優先序取第一個，記錄而不猜測
			common.LogInfo("多本體搜尋出現並列命中，依固定優先序取捨",
				zap.String("名稱", form),
				zap.String("採用", first.ObjectID),
				zap.String("捨棄", c.ObjectID),
			)
			break
		}
	}
	return first
}

// fuzzyStage 最後手段：對主化學本體做編輯距離相似度匹配，
// 相似度 ≥ 0.8 才接受；並列時取標籤較短者，再取本體數字編號較小者
func (s *Searcher) fuzzyStage(ctx context.Context, form string) *mapping.Candidate {
	docs := s.lookup(ctx, form, ontologyCHEBI, mapping.StageFuzzy, SearchOpts{})
	want := foldKey(form)

	var best *mapping.Candidate
	for _, d := range docs {
		sim := similarity(want, foldKey(d.Label))
		if sim < fuzzySimilarityFloor {
			continue
		}
		c := &mapping.Candidate{
			ObjectID:    d.OboID,
			ObjectLabel: d.Label,
			Ontology:    ontologyCHEBI,
			Stage:       mapping.StageFuzzy,
			Score:       sim,
		}
		if best == nil || fuzzyBetter(c, best) {
			best = c
		}
	}
	return best
}

// fuzzyBetter 模糊階段的確定性排序：分數高者勝；同分取標籤較短者；
// 再同取 CURIE 數字編號較小者
func fuzzyBetter(a, b *mapping.Candidate) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if len(a.ObjectLabel) != len(b.ObjectLabel) {
		return len(a.ObjectLabel) < len(b.ObjectLabel)
	}
	return curieNumber(a.ObjectID) < curieNumber(b.ObjectID)
}

// similarity 以 Levenshtein 距離計算 0.0–1.0 相似度：1 - 距離/較長長度
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := len([]rune(a))
	if lb := len([]rune(b)); lb > maxLen {
		maxLen = lb
	}
	if maxLen == 0 {
		return 1.0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(dist)/float64(maxLen)
}

// curieNumber 取 CURIE 冒號後的數字部分；無法解析時回傳最大值使其排最後
func curieNumber(curie string) int {
	idx := strings.LastIndex(curie, ":")
	if idx < 0 {
		return int(^uint(0) >> 1)
	}
	n, err := strconv.Atoi(curie[idx+1:])
	if err != nil {
		return int(^uint(0) >> 1)
	}
	return n
}

// hasBioKeyword 判斷正規形式是否帶有生物性產品／解剖材料關鍵詞
func hasBioKeyword(form string) bool {
	lower := strings.ToLower(form)
	for _, kw := range bioKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// bestByScore 取分數最高的候選；同分取標籤較短者以保持確定性
func bestByScore(docs []Doc) *Doc {
	var best *Doc
	for i := range docs {
		d := &docs[i]
		if best == nil || d.Score > best.Score ||
			(d.Score == best.Score && len(d.Label) < len(best.Label)) {
			best = d
		}
	}
	return best
}

// lookup 單一（形式、本體、階段）查詢：先查快取（含墓碑），
// 未命中才發出網路請求並把結果（或明確的「查無結果」）寫回快取。
// 網路重試耗盡時回傳空結果且不寫墓碑，下次執行仍會重試。
func (s *Searcher) lookup(ctx context.Context, form, onto string, stage mapping.Stage, opts SearchOpts) []Doc {
	key := cache.Key(form, onto, stage)

	if !s.refresh {
		if entry, err := s.store.Get(ctx, key); err == nil {
			atomic.AddInt64(&s.metrics.cacheHits, 1)
			common.LogCacheHit(string(stage), form)
			if !entry.Found {
				return nil
			}
			var docs []Doc
			if err := json.Unmarshal(entry.Payload, &docs); err != nil {
				common.LogWarn("快取內容無法解析，改發查詢",
					zap.String("名稱", form),
					zap.Error(err),
				)
			} else {
				return docs
			}
		} else {
			atomic.AddInt64(&s.metrics.cacheMisses, 1)
			common.LogCacheMiss(string(stage), form)
		}
	}

	docs, _, err := s.client.Search(ctx, form, onto, opts)
	if err != nil {
		atomic.AddInt64(&s.metrics.apiErrors, 1)
		return nil
	}

	payload, err := json.Marshal(docs)
	if err != nil {
		return docs
	}
	entry := &cache.Entry{
		Form:      form,
		Ontology:  onto,
		Stage:     stage,
		Found:     len(docs) > 0,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Set(ctx, key, entry); err != nil {
		common.LogWarn("快取寫入失敗",
			zap.String("名稱", form),
			zap.Error(err),
		)
	}
	return docs
}
