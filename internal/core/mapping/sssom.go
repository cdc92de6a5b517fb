package mapping

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// SubjectPrefix 成分名主體的 CURIE 前綴
const SubjectPrefix = "ingredient:"

// 輸出表的欄位順序
var columns = []string{
	"subject_id",
	"subject_label",
	"predicate_id",
	"object_id",
	"object_label",
	"mapping_justification",
	"confidence",
	"mapping_tool",
}

// curieMap 檔頭註解中宣告的前綴對應
var curieMap = [][2]string{
	{"CHEBI", "http://purl.obolibrary.org/obo/CHEBI_"},
	{"FOODON", "http://purl.obolibrary.org/obo/FOODON_"},
	{"UBERON", "http://purl.obolibrary.org/obo/UBERON_"},
	{"ENVO", "http://purl.obolibrary.org/obo/ENVO_"},
	{"semapv", "https://w3id.org/semapv/vocab/"},
	{"skos", "http://www.w3.org/2004/02/skos/core#"},
	{"sssom", "https://w3id.org/sssom/"},
	{"ingredient", "https://w3id.org/culturemech/ingredient/"},
}

// SubjectID 把原始成分名轉成命名空間化的主體識別符
func SubjectID(name string) string {
	return SubjectPrefix + url.PathEscape(name)
}

// Table 以主體為鍵的映射表
type Table struct {
	rows map[string]Mapping
}

// NewTable 建立空映射表
func NewTable() *Table {
	return &Table{rows: make(map[string]Mapping)}
}

// Len 回傳表中紀錄數
func (t *Table) Len() int {
	return len(t.rows)
}

// Get 取出主體對應的紀錄
func (t *Table) Get(subjectID string) (Mapping, bool) {
	m, ok := t.rows[subjectID]
	return m, ok
}

// Put 無條件寫入一筆紀錄
func (t *Table) Put(m Mapping) {
	t.rows[m.SubjectID] = m
}

// Merge 併入新紀錄：信心較高者勝；同信心保留較新的 justification；
// 未映射結果不覆蓋既有映射，除非 force
func (t *Table) Merge(m Mapping, force bool) {
	prev, ok := t.rows[m.SubjectID]
	if !ok {
		t.rows[m.SubjectID] = m
		return
	}
	if m.Unmapped() && !prev.Unmapped() && !force {
		return
	}
	if force || m.Confidence >= prev.Confidence {
		t.rows[m.SubjectID] = m
	}
}

// Rows 回傳依 subject_id 字典序排序的所有紀錄，確保輸出順序穩定、diff 可讀
func (t *Table) Rows() []Mapping {
	rows := make([]Mapping, 0, len(t.rows))
	for _, m := range t.rows {
		rows = append(rows, m)
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].SubjectID < rows[j].SubjectID
	})
	return rows
}

// WriteOptions 輸出表的來源資訊
type WriteOptions struct {
	Tool        string    // mapping_tool 欄與檔頭的工具識別
	License     string    // 檔頭授權宣告
	GeneratedAt time.Time // 檔頭生成日期；由呼叫方注入以保證重跑輸出可重現
}

// Write 以 SSSOM 風格 TSV 寫出映射表：檔頭為 # 註解的來源資訊，
// 內容依 subject_id 字典序
func (t *Table) Write(w io.Writer, opts WriteOptions) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "# curie_map:")
	for _, cm := range curieMap {
		fmt.Fprintf(bw, "#   %s: %s\n", cm[0], cm[1])
	}
	if opts.License != "" {
		fmt.Fprintf(bw, "# license: %s\n", opts.License)
	}
	fmt.Fprintf(bw, "# mapping_date: %s\n", opts.GeneratedAt.Format("2006-01-02"))
	if opts.Tool != "" {
		fmt.Fprintf(bw, "# mapping_tool: %s\n", opts.Tool)
	}
	fmt.Fprintln(bw, strings.Join(columns, "\t"))

	for _, m := range t.Rows() {
		fields := []string{
			m.SubjectID,
			m.SubjectLabel,
			m.PredicateID,
			m.ObjectID,
			m.ObjectLabel,
			m.Justification,
			strconv.FormatFloat(m.Confidence, 'f', 2, 64),
			m.Tool,
		}
		fmt.Fprintln(bw, strings.Join(fields, "\t"))
	}

	return bw.Flush()
}

// WriteFile 把映射表寫入檔案
func (t *Table) WriteFile(path string, opts WriteOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()
	return t.Write(f, opts)
}

// Read 讀入既有的映射表；# 開頭的註解行與表頭行跳過
func Read(r io.Reader) (*Table, error) {
	t := NewTable()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if fields[0] == "subject_id" {
			continue
		}
		if len(fields) < len(columns) {
			return nil, fmt.Errorf("malformed mapping row: %q", line)
		}
		conf, err := strconv.ParseFloat(fields[6], 64)
		if err != nil {
			return nil, fmt.Errorf("malformed confidence in row %q: %w", line, err)
		}
		t.Put(Mapping{
			SubjectID:     fields[0],
			SubjectLabel:  fields[1],
			PredicateID:   fields[2],
			ObjectID:      fields[3],
			ObjectLabel:   fields[4],
			Justification: fields[5],
			Confidence:    conf,
			Tool:          fields[7],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read mapping table: %w", err)
	}
	return t, nil
}

// ReadFile 從檔案讀入既有的映射表；檔案不存在時回傳空表
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewTable(), nil
		}
		return nil, fmt.Errorf("failed to open mapping table: %w", err)
	}
	defer f.Close()
	return Read(f)
}
