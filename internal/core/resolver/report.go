package resolver

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/CultureBotAI/CultureMech-sub001/internal/core/mapping"
	"github.com/CultureBotAI/CultureMech-sub001/internal/core/ontology"
	"github.com/CultureBotAI/CultureMech-sub001/internal/pkg/common"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Report 單次執行的統計彙總。計數由結果收集 goroutine 單線程累加，
// 不需要額外同步。
type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time

	Total       int
	Placeholder int
	Unmapped    int
	ByStage     map[mapping.Stage]int

	Ontology ontology.MetricsSnapshot
}

// NewReport 創建帶唯一執行 ID 的統計彙總
func NewReport() *Report {
	return &Report{
		RunID:     uuid.New().String(),
		StartedAt: time.Now(),
		ByStage:   make(map[mapping.Stage]int),
	}
}

// Record 累計單筆解析結果
func (r *Report) Record(res Result) {
	r.Total++
	if res.Placeholder {
		r.Placeholder++
	}
	if res.Mapping.Unmapped() {
		r.Unmapped++
		return
	}
	r.ByStage[res.Stage]++
}

// Coverage 已映射比例；無輸入時定義為 0
func (r *Report) Coverage() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Total-r.Unmapped) / float64(r.Total)
}

// Finish 記錄結束時間與外部查詢計數
func (r *Report) Finish(m ontology.MetricsSnapshot) {
	r.FinishedAt = time.Now()
	r.Ontology = m
}

// 階段在報告中的輸出順序
var stageOrder = []mapping.Stage{
	mapping.StageDictionary,
	mapping.StageExact,
	mapping.StageSynonym,
	mapping.StageMultiOntology,
	mapping.StageFuzzy,
}

// Write 輸出人類可讀的執行摘要
func (r *Report) Write(w io.Writer) error {
	fmt.Fprintf(w, "run_id\t%s\n", r.RunID)
	fmt.Fprintf(w, "duration\t%s\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(w, "total\t%d\n", r.Total)
	for _, stage := range stageOrder {
		fmt.Fprintf(w, "stage_%s\t%d\n", stage, r.ByStage[stage])
	}
	// 未在固定順序中的階段（理論上不存在）仍要輸出
	var extra []string
	for stage := range r.ByStage {
		if !knownStage(stage) {
			extra = append(extra, string(stage))
		}
	}
	sort.Strings(extra)
	for _, stage := range extra {
		fmt.Fprintf(w, "stage_%s\t%d\n", stage, r.ByStage[mapping.Stage(stage)])
	}
	fmt.Fprintf(w, "placeholder\t%d\n", r.Placeholder)
	fmt.Fprintf(w, "unmapped\t%d\n", r.Unmapped)
	fmt.Fprintf(w, "coverage\t%.4f\n", r.Coverage())
	fmt.Fprintf(w, "cache_hits\t%d\n", r.Ontology.CacheHits)
	fmt.Fprintf(w, "cache_misses\t%d\n", r.Ontology.CacheMisses)
	fmt.Fprintf(w, "api_errors\t%d\n", r.Ontology.APIErrors)
	return nil
}

func knownStage(s mapping.Stage) bool {
	for _, k := range stageOrder {
		if k == s {
			return true
		}
	}
	return false
}

// LogSummary 以結構化日誌輸出摘要，供簡潔模式顯示
func (r *Report) LogSummary() {
	common.LogInfo("解析完成",
		zap.String("run_id", r.RunID),
		zap.Int("總數", r.Total),
		zap.Int("未映射", r.Unmapped),
		zap.Float64("覆蓋率", r.Coverage()),
		zap.Int64("快取命中", r.Ontology.CacheHits),
		zap.Int64("快取未命中", r.Ontology.CacheMisses),
		zap.Int64("API錯誤", r.Ontology.APIErrors),
		zap.Duration("耗時", r.FinishedAt.Sub(r.StartedAt)),
	)
}
