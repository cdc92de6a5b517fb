// Package dictionary 載入人工維護的靜態對照表並提供查詢。
// 字典命中的信任度高於任何外部搜尋結果，且不需網路存取。
package dictionary

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/CultureBotAI/CultureMech-sub001/internal/core/mapping"
	"github.com/CultureBotAI/CultureMech-sub001/internal/pkg/common"

	"go.uber.org/zap"
)

// 字典檔名，依查詢優先序排列
var tableFiles = []string{
	"biological_products.tsv",
	"chemical_formulas.tsv",
	"buffer_compounds.tsv",
	"gases.tsv",
}

// entry 單一字典條目
type entry struct {
	objectID    string
	objectLabel string
	ontology    string
}

// table 一份載入後的字典表
type table struct {
	name    string
	entries map[string]entry // 鍵為小寫正規形式
}

// Dictionary 四份有序字典表的唯讀集合
type Dictionary struct {
	tables []table
}

// Load 從目錄載入全部字典表；任一檔案缺失即為致命的配置錯誤
func Load(dir string) (*Dictionary, error) {
	d := &Dictionary{}
	total := 0
	for _, name := range tableFiles {
		path := filepath.Join(dir, name)
		entries, err := loadTable(path)
		if err != nil {
			return nil, common.NewConfigError(fmt.Sprintf("failed to load dictionary %s: %v", name, err))
		}
		d.tables = append(d.tables, table{name: strings.TrimSuffix(name, ".tsv"), entries: entries})
		total += len(entries)
	}

	common.LogInfo("字典已載入",
		zap.String("目錄", dir),
		zap.Int("表數", len(d.tables)),
		zap.Int("條目數", total),
	)
	return d, nil
}

// loadTable 讀入單一 TSV 字典檔：term、object_id、object_label、ontology 四欄，# 開頭為註解
func loadTable(path string) (map[string]entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	entries := make(map[string]entry)
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 4 {
			return nil, fmt.Errorf("line %d: expected 4 tab-separated fields, got %d", lineNo, len(fields))
		}
		key := strings.ToLower(strings.TrimSpace(fields[0]))
		entries[key] = entry{
			objectID:    strings.TrimSpace(fields[1]),
			objectLabel: strings.TrimSpace(fields[2]),
			ontology:    strings.TrimSpace(fields[3]),
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Lookup 依序在四份表中做不分大小寫的精確查詢，回傳第一個命中；查無回傳 nil
func (d *Dictionary) Lookup(form string) *mapping.Candidate {
	key := strings.ToLower(strings.TrimSpace(form))
	if key == "" {
		return nil
	}
	for _, t := range d.tables {
		if e, ok := t.entries[key]; ok {
			return &mapping.Candidate{
				ObjectID:    e.objectID,
				ObjectLabel: e.objectLabel,
				Ontology:    e.ontology,
				Stage:       mapping.StageDictionary,
				Score:       1.0,
			}
		}
	}
	return nil
}

// Size 回傳全部表的條目總數
func (d *Dictionary) Size() int {
	n := 0
	for _, t := range d.tables {
		n += len(t.entries)
	}
	return n
}
