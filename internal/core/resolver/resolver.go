// Package resolver 串接正規化、字典與本體搜尋的解析管線，
// 以固定數量的 worker 併發處理成分名清單。
package resolver

import (
	"context"
	"regexp"
	"sync"

	"github.com/CultureBotAI/CultureMech-sub001/internal/core/dictionary"
	"github.com/CultureBotAI/CultureMech-sub001/internal/core/mapping"
	"github.com/CultureBotAI/CultureMech-sub001/internal/core/normalize"
	"github.com/CultureBotAI/CultureMech-sub001/internal/core/ontology"
	"github.com/CultureBotAI/CultureMech-sub001/internal/pkg/common"

	"go.uber.org/zap"
)

// Tool 寫入每筆映射的 mapping_tool 欄位
const Tool = "culturemech-resolver/1.0.0"

// 指向來源文件的佔位名稱，不是化學品，直接視為未映射
var placeholderRe = regexp.MustCompile(`(?i)^see\s+(source|medium)`)

// Result 單一成分名的解析結果
type Result struct {
	Raw         string          // 原始名稱
	Form        string          // 正規化後形式
	Stage       mapping.Stage   // 命中階段；未映射時為空
	Placeholder bool            // 佔位名稱，未經任何搜尋
	Mapping     mapping.Mapping // 輸出紀錄
}

// Resolver 解析管線
type Resolver struct {
	dict     *dictionary.Dictionary
	searcher *ontology.Searcher
	workers  int
}

// New 創建解析管線；workers 小於 1 時視為 1
func New(dict *dictionary.Dictionary, searcher *ontology.Searcher, workers int) *Resolver {
	if workers < 1 {
		workers = 1
	}
	return &Resolver{
		dict:     dict,
		searcher: searcher,
		workers:  workers,
	}
}

// Run 解析整份名稱清單並回傳映射表與執行統計。
// 各 worker 獨立處理名稱，速率控制在搜尋客戶端內部完成；
// ctx 取消時停止派發新工作，已在途的查詢由客戶端自行中斷。
func (r *Resolver) Run(ctx context.Context, names []string) (*mapping.Table, *Report) {
	report := NewReport()
	common.LogInfo("開始解析",
		zap.String("run_id", report.RunID),
		zap.Int("名稱數", len(names)),
		zap.Int("worker數", r.workers),
	)

	jobs := make(chan string)
	results := make(chan Result, r.workers)

	var wg sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for raw := range jobs {
				results <- r.resolveOne(ctx, raw)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, raw := range names {
			select {
			case jobs <- raw:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	table := mapping.NewTable()
	for res := range results {
		table.Put(res.Mapping)
		report.Record(res)
	}

	report.Finish(r.searcher.Metrics())
	report.LogSummary()
	return table, report
}

// resolveOne 依序嘗試：佔位守衛、正規化、字典、本體搜尋。
// 任一階段命中即停；全部落空產生未映射紀錄。
func (r *Resolver) resolveOne(ctx context.Context, raw string) Result {
	subjectID := mapping.SubjectID(raw)

	if placeholderRe.MatchString(raw) {
		common.LogDebug("佔位名稱跳過搜尋", zap.String("名稱", raw))
		return Result{
			Raw:         raw,
			Form:        raw,
			Placeholder: true,
			Mapping:     mapping.NewUnmapped(subjectID, raw, Tool),
		}
	}

	form := normalize.Normalize(raw)

	candidate := r.dict.Lookup(form)
	if candidate == nil {
		candidate = r.searcher.Search(ctx, form)
	}

	if candidate == nil {
		common.LogDebug("查無映射",
			zap.String("名稱", raw),
			zap.String("正規化", form),
		)
		return Result{
			Raw:     raw,
			Form:    form,
			Mapping: mapping.NewUnmapped(subjectID, raw, Tool),
		}
	}

	conf := Score(candidate)
	common.LogDebug("解析命中",
		zap.String("名稱", raw),
		zap.String("正規化", form),
		zap.String("階段", string(candidate.Stage)),
		zap.String("目標", candidate.ObjectID),
		zap.Float64("信心", conf),
	)

	return Result{
		Raw:   raw,
		Form:  form,
		Stage: candidate.Stage,
		Mapping: mapping.Mapping{
			SubjectID:     subjectID,
			SubjectLabel:  raw,
			PredicateID:   mapping.Predicate(candidate.Stage),
			ObjectID:      candidate.ObjectID,
			ObjectLabel:   candidate.ObjectLabel,
			Justification: mapping.Justification(candidate.Stage),
			Confidence:    conf,
			Tool:          Tool,
		},
	}
}
