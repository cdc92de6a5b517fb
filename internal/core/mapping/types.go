// Package mapping 定義解析結果的資料型別與 SSSOM 風格映射表的讀寫。
package mapping

// Stage 產生候選的搜尋階段
type Stage string

// 搜尋階段，依優先序排列
const (
	StageDictionary    Stage = "dictionary"
	StageExact         Stage = "exact"
	StageSynonym       Stage = "synonym"
	StageMultiOntology Stage = "multi_ontology"
	StageFuzzy         Stage = "fuzzy"
)

// 謂詞詞彙表
const (
	PredicateExactMatch = "skos:exactMatch"
	PredicateCloseMatch = "skos:closeMatch"
	PredicateUnmapped   = "sssom:NoMapping"
)

// 各階段的 mapping_justification 代碼（semapv 詞彙）
var stageJustifications = map[Stage]string{
	StageDictionary:    "semapv:ManualMappingCuration",
	StageExact:         "semapv:LexicalMatching",
	StageSynonym:       "semapv:BackgroundKnowledgeBasedMatching",
	StageMultiOntology: "semapv:CompositeMatching",
	StageFuzzy:         "semapv:LexicalSimilarityThresholdMatching",
}

// Justification 回傳階段對應的 mapping_justification 代碼
func Justification(stage Stage) string {
	if j, ok := stageJustifications[stage]; ok {
		return j
	}
	return "semapv:UnspecifiedMatching"
}

// Predicate 回傳階段對應的謂詞：dictionary/exact/synonym 視為精確匹配，其餘為近似匹配
func Predicate(stage Stage) string {
	switch stage {
	case StageDictionary, StageExact, StageSynonym:
		return PredicateExactMatch
	default:
		return PredicateCloseMatch
	}
}

// Candidate 單一搜尋階段回傳的暫態候選
type Candidate struct {
	ObjectID    string  // 目標本體 CURIE
	ObjectLabel string  // 目標詞條標籤
	Ontology    string  // 目標本體命名空間（chebi、foodon、uberon）
	Stage       Stage   // 產生此候選的階段
	Score       float64 // 階段自身的原始相似度／相關度分數
}

// Mapping 持久化的輸出紀錄，每個不同的原始成分名一筆
type Mapping struct {
	SubjectID     string  // 命名空間化的原始成分名
	SubjectLabel  string  // 原始成分名（逐字保留）
	PredicateID   string  // skos:exactMatch / skos:closeMatch / sssom:NoMapping
	ObjectID      string  // 目標本體 CURIE；未映射時為空
	ObjectLabel   string  // 目標詞條標籤
	Justification string  // 產生階段的 semapv 代碼
	Confidence    float64 // [0,1]；未映射必為 0
	Tool          string  // 產生工具與版本
}

// Unmapped 判斷此筆是否為未映射紀錄
func (m Mapping) Unmapped() bool {
	return m.PredicateID == PredicateUnmapped
}

// NewUnmapped 建立未映射紀錄；不變量：confidence = 0 且 object 為空
func NewUnmapped(subjectID, subjectLabel, tool string) Mapping {
	return Mapping{
		SubjectID:    subjectID,
		SubjectLabel: subjectLabel,
		PredicateID:  PredicateUnmapped,
		Tool:         tool,
	}
}
