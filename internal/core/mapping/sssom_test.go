package mapping

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(subject string, conf float64, pred string) Mapping {
	return Mapping{
		SubjectID:     SubjectID(subject),
		SubjectLabel:  subject,
		PredicateID:   pred,
		ObjectID:      "CHEBI:26710",
		ObjectLabel:   "sodium chloride",
		Justification: Justification(StageExact),
		Confidence:    conf,
		Tool:          "culturemech-resolver/1.0.0",
	}
}

func TestSubjectID(t *testing.T) {
	assert.Equal(t, "ingredient:NaCl", SubjectID("NaCl"))
	// 空格與特殊字符需百分號編碼
	assert.Equal(t, "ingredient:yeast%20extract", SubjectID("yeast extract"))
}

func TestPredicateByStage(t *testing.T) {
	assert.Equal(t, PredicateExactMatch, Predicate(StageDictionary))
	assert.Equal(t, PredicateExactMatch, Predicate(StageExact))
	assert.Equal(t, PredicateExactMatch, Predicate(StageSynonym))
	assert.Equal(t, PredicateCloseMatch, Predicate(StageMultiOntology))
	assert.Equal(t, PredicateCloseMatch, Predicate(StageFuzzy))
}

func TestJustificationDistinctPerStage(t *testing.T) {
	seen := map[string]Stage{}
	for _, stage := range []Stage{StageDictionary, StageExact, StageSynonym, StageMultiOntology, StageFuzzy} {
		j := Justification(stage)
		prev, dup := seen[j]
		assert.False(t, dup, "justification %q shared by %s and %s", j, prev, stage)
		seen[j] = stage
	}
}

func TestMergeHigherConfidenceWins(t *testing.T) {
	table := NewTable()
	table.Merge(sample("NaCl", 0.80, PredicateCloseMatch), false)
	table.Merge(sample("NaCl", 0.95, PredicateExactMatch), false)

	m, ok := table.Get(SubjectID("NaCl"))
	require.True(t, ok)
	assert.Equal(t, 0.95, m.Confidence)
	assert.Equal(t, PredicateExactMatch, m.PredicateID)

	// 較低信心不覆蓋
	table.Merge(sample("NaCl", 0.50, PredicateCloseMatch), false)
	m, _ = table.Get(SubjectID("NaCl"))
	assert.Equal(t, 0.95, m.Confidence)
}

func TestMergeUnmappedNeverOverwritesWithoutForce(t *testing.T) {
	table := NewTable()
	table.Merge(sample("NaCl", 0.95, PredicateExactMatch), false)

	unmapped := NewUnmapped(SubjectID("NaCl"), "NaCl", "culturemech-resolver/1.0.0")
	table.Merge(unmapped, false)
	m, _ := table.Get(SubjectID("NaCl"))
	assert.False(t, m.Unmapped())

	// force 時才允許覆蓋
	table.Merge(unmapped, true)
	m, _ = table.Get(SubjectID("NaCl"))
	assert.True(t, m.Unmapped())
	assert.Zero(t, m.Confidence)
	assert.Empty(t, m.ObjectID)
}

func TestWriteDeterministicOrder(t *testing.T) {
	table := NewTable()
	table.Put(sample("zinc sulfate", 0.95, PredicateExactMatch))
	table.Put(sample("NaCl", 0.95, PredicateExactMatch))
	table.Put(NewUnmapped(SubjectID("See source for composition"), "See source for composition", "culturemech-resolver/1.0.0"))

	opts := WriteOptions{
		Tool:        "culturemech-resolver/1.0.0",
		License:     "https://creativecommons.org/publicdomain/zero/1.0/",
		GeneratedAt: time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC),
	}

	var first, second bytes.Buffer
	require.NoError(t, table.Write(&first, opts))
	require.NoError(t, table.Write(&second, opts))

	// 同一張表重複寫出必須逐位元組一致
	assert.Equal(t, first.String(), second.String())

	lines := strings.Split(strings.TrimRight(first.String(), "\n"), "\n")
	var dataLines []string
	for _, l := range lines {
		if !strings.HasPrefix(l, "#") && !strings.HasPrefix(l, "subject_id") {
			dataLines = append(dataLines, l)
		}
	}
	require.Len(t, dataLines, 3)
	// subject_id 字典序
	assert.True(t, strings.HasPrefix(dataLines[0], "ingredient:NaCl\t"))
	assert.True(t, strings.HasPrefix(dataLines[1], "ingredient:See%20source"))
	assert.True(t, strings.HasPrefix(dataLines[2], "ingredient:zinc%20sulfate\t"))

	assert.Contains(t, first.String(), "# mapping_date: 2026-08-30")
	assert.Contains(t, first.String(), "# curie_map:")
}

func TestWriteReadRoundTrip(t *testing.T) {
	table := NewTable()
	table.Put(sample("NaCl", 0.95, PredicateExactMatch))
	table.Put(NewUnmapped(SubjectID("mystery broth"), "mystery broth", "culturemech-resolver/1.0.0"))

	var buf bytes.Buffer
	opts := WriteOptions{Tool: "culturemech-resolver/1.0.0", GeneratedAt: time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, table.Write(&buf, opts))

	got, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, table.Len(), got.Len())

	m, ok := got.Get(SubjectID("NaCl"))
	require.True(t, ok)
	assert.Equal(t, "CHEBI:26710", m.ObjectID)
	assert.Equal(t, 0.95, m.Confidence)

	u, ok := got.Get(SubjectID("mystery broth"))
	require.True(t, ok)
	assert.True(t, u.Unmapped())
	assert.Zero(t, u.Confidence)
	assert.Empty(t, u.ObjectID)
}

func TestReadMalformedRow(t *testing.T) {
	_, err := Read(strings.NewReader("ingredient:x\tonly-two-fields\n"))
	assert.Error(t, err)
}
