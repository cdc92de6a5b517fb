package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/CultureBotAI/CultureMech-sub001/internal/core/cache"
	"github.com/CultureBotAI/CultureMech-sub001/internal/core/dictionary"
	"github.com/CultureBotAI/CultureMech-sub001/internal/core/mapping"
	"github.com/CultureBotAI/CultureMech-sub001/internal/core/ontology"
	"github.com/CultureBotAI/CultureMech-sub001/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDict(t *testing.T, entries map[string][3]string) *dictionary.Dictionary {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"biological_products.tsv": "",
		"chemical_formulas.tsv":   "",
		"buffer_compounds.tsv":    "",
		"gases.tsv":               "",
	}
	var buf bytes.Buffer
	for term, e := range entries {
		buf.WriteString(term + "\t" + e[0] + "\t" + e[1] + "\t" + e[2] + "\n")
	}
	files["chemical_formulas.tsv"] = buf.String()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("# term\tobject_id\tobject_label\tontology\n"+content), 0o644))
	}
	d, err := dictionary.Load(dir)
	require.NoError(t, err)
	return d
}

func stubSearcher(t *testing.T, calls *atomic.Int64, docsByQuery map[string][]ontology.Doc) *ontology.Searcher {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		docs := docsByQuery[r.URL.Query().Get("q")]
		json.NewEncoder(w).Encode(map[string]interface{}{
			"response": map[string]interface{}{"numFound": len(docs), "docs": docs},
		})
	}))
	t.Cleanup(srv.Close)
	client := ontology.NewClient(&config.OntologyConfig{
		BaseURL:        srv.URL,
		Timeout:        5 * time.Second,
		MaxInFlight:    2,
		MaxRetries:     1,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
		RowLimit:       10,
	})
	return ontology.NewSearcher(client, cache.NewMemoryStore(), false)
}

// 佔位名稱不做任何查詢，直接成為未映射紀錄
func TestPlaceholderGuard(t *testing.T) {
	var calls atomic.Int64
	r := New(writeDict(t, nil), stubSearcher(t, &calls, nil), 1)

	table, report := r.Run(context.Background(), []string{"See source for vitamin solution"})
	require.Equal(t, 1, table.Len())
	row := table.Rows()[0]
	assert.True(t, row.Unmapped())
	assert.Equal(t, mapping.PredicateUnmapped, row.PredicateID)
	assert.Empty(t, row.ObjectID)
	assert.Zero(t, row.Confidence)
	assert.Equal(t, int64(0), calls.Load(), "placeholder must not reach the network")
	assert.Equal(t, 1, report.Placeholder)
}

// 字典命中走固定信心值與精確匹配謂詞，且不發網路請求
func TestDictionaryHit(t *testing.T) {
	var calls atomic.Int64
	dict := writeDict(t, map[string][3]string{
		"iron(II) sulfate": {"CHEBI:75832", "iron(2+) sulfate", "chebi"},
	})
	r := New(dict, stubSearcher(t, &calls, nil), 1)

	table, report := r.Run(context.Background(), []string{"FeSO4·4H2O"})
	require.Equal(t, 1, table.Len())
	row := table.Rows()[0]
	assert.Equal(t, "FeSO4·4H2O", row.SubjectLabel)
	assert.Equal(t, "CHEBI:75832", row.ObjectID)
	assert.Equal(t, mapping.PredicateExactMatch, row.PredicateID)
	assert.Equal(t, "semapv:ManualMappingCuration", row.Justification)
	assert.Equal(t, 0.98, row.Confidence)
	assert.Equal(t, Tool, row.Tool)
	assert.Equal(t, int64(0), calls.Load())
	assert.Equal(t, 1, report.ByStage[mapping.StageDictionary])
}

// 字典未命中時落到本體搜尋
func TestFallsThroughToSearch(t *testing.T) {
	s := stubSearcher(t, nil, map[string][]ontology.Doc{
		"sodium chloride": {
			{OboID: "CHEBI:26710", Label: "sodium chloride", OntologyName: "chebi"},
		},
	})
	r := New(writeDict(t, nil), s, 2)

	table, _ := r.Run(context.Background(), []string{"NaCl"})
	require.Equal(t, 1, table.Len())
	row := table.Rows()[0]
	assert.Equal(t, "CHEBI:26710", row.ObjectID)
	assert.Equal(t, 0.95, row.Confidence)
	assert.Equal(t, "semapv:LexicalMatching", row.Justification)
}

// 未映射不變量：信心為 0、object 欄位為空
func TestUnmappedInvariant(t *testing.T) {
	r := New(writeDict(t, nil), stubSearcher(t, nil, nil), 1)

	table, report := r.Run(context.Background(), []string{"unobtainium chloride"})
	row := table.Rows()[0]
	assert.True(t, row.Unmapped())
	assert.Empty(t, row.ObjectID)
	assert.Empty(t, row.ObjectLabel)
	assert.Zero(t, row.Confidence)
	assert.Equal(t, 1, report.Unmapped)
	assert.Equal(t, 0.0, report.Coverage())
}

// 多 worker 下輸出與輸入順序無關：兩次執行寫出逐位相同的表
func TestRunDeterministic(t *testing.T) {
	dict := writeDict(t, map[string][3]string{
		"iron(II) sulfate":  {"CHEBI:75832", "iron(2+) sulfate", "chebi"},
		"magnesium sulfate": {"CHEBI:32599", "magnesium sulfate", "chebi"},
		"calcium chloride":  {"CHEBI:3312", "calcium chloride", "chebi"},
	})
	names := []string{"FeSO4·4H2O", "MgSO4·7H2O", "calcium chloride", "unobtainium chloride"}
	reversed := []string{"unobtainium chloride", "calcium chloride", "MgSO4·7H2O", "FeSO4·4H2O"}

	opts := mapping.WriteOptions{Tool: Tool, GeneratedAt: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)}

	r1 := New(dict, stubSearcher(t, nil, nil), 4)
	t1, _ := r1.Run(context.Background(), names)
	var b1 bytes.Buffer
	require.NoError(t, t1.Write(&b1, opts))

	r2 := New(dict, stubSearcher(t, nil, nil), 4)
	t2, _ := r2.Run(context.Background(), reversed)
	var b2 bytes.Buffer
	require.NoError(t, t2.Write(&b2, opts))

	assert.Equal(t, b1.String(), b2.String())
}

func TestScore(t *testing.T) {
	cases := []struct {
		name string
		c    mapping.Candidate
		want float64
	}{
		{"dictionary", mapping.Candidate{Stage: mapping.StageDictionary}, 0.98},
		{"exact", mapping.Candidate{Stage: mapping.StageExact}, 0.95},
		{"synonym", mapping.Candidate{Stage: mapping.StageSynonym}, 0.92},
		{"multi foodon", mapping.Candidate{Stage: mapping.StageMultiOntology, Ontology: "foodon"}, 0.85},
		{"multi uberon", mapping.Candidate{Stage: mapping.StageMultiOntology, Ontology: "uberon"}, 0.80},
		{"fuzzy scaled", mapping.Candidate{Stage: mapping.StageFuzzy, Score: 0.9}, 0.72},
		{"fuzzy floor", mapping.Candidate{Stage: mapping.StageFuzzy, Score: 0.5}, 0.50},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, Score(&tc.c), 1e-9)
		})
	}
}

// 模糊命中的信心值必定低於任何精確階段的信心值
func TestFuzzyConfidenceBelowExactStages(t *testing.T) {
	top := Score(&mapping.Candidate{Stage: mapping.StageFuzzy, Score: 1.0})
	assert.Less(t, top, Score(&mapping.Candidate{Stage: mapping.StageSynonym}))
}

func TestReadNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ingredients.tsv")
	content := "# comment\ningredient\nyeast extract\tignored column\n\nNaCl\nyeast extract\n  KH2PO4  \n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	names, err := ReadNames(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"yeast extract", "NaCl", "KH2PO4"}, names)
}

func TestReadNamesMissingFile(t *testing.T) {
	_, err := ReadNames(filepath.Join(t.TempDir(), "nope.tsv"))
	assert.Error(t, err)
}

func TestReportWrite(t *testing.T) {
	rep := NewReport()
	rep.Record(Result{Stage: mapping.StageDictionary, Mapping: mapping.Mapping{PredicateID: mapping.PredicateExactMatch}})
	rep.Record(Result{Mapping: mapping.NewUnmapped("ingredient:x", "x", Tool)})
	rep.Finish(ontology.MetricsSnapshot{CacheHits: 3, CacheMisses: 1})

	assert.Equal(t, 2, rep.Total)
	assert.Equal(t, 1, rep.Unmapped)
	assert.InDelta(t, 0.5, rep.Coverage(), 1e-9)

	var buf bytes.Buffer
	require.NoError(t, rep.Write(&buf))
	out := buf.String()
	assert.Contains(t, out, "total\t2")
	assert.Contains(t, out, "stage_dictionary\t1")
	assert.Contains(t, out, "coverage\t0.5000")
	assert.Contains(t, out, "cache_hits\t3")
}
