package resolver

import (
	"github.com/CultureBotAI/CultureMech-sub001/internal/core/mapping"
)

// 各階段的基準信心值。階段優先序與信心值同向：
// 越早命中的階段給越高的信心。
const (
	confidenceDictionary = 0.98
	confidenceExact      = 0.95
	confidenceSynonym    = 0.92
	confidenceFoodOn     = 0.85
	confidenceAnatomy    = 0.80
	fuzzyFactor          = 0.80
	fuzzyFloor           = 0.50
)

// Score 由候選的產生階段決定信心值。
// 多本體階段依命中本體給分；模糊階段按相似度折算並設下限，
// 確保任何被接受的模糊命中信心不低於 0.5。
func Score(c *mapping.Candidate) float64 {
	switch c.Stage {
	case mapping.StageDictionary:
		return confidenceDictionary
	case mapping.StageExact:
		return confidenceExact
	case mapping.StageSynonym:
		return confidenceSynonym
	case mapping.StageMultiOntology:
		if c.Ontology == "uberon" {
			return confidenceAnatomy
		}
		return confidenceFoodOn
	case mapping.StageFuzzy:
		conf := fuzzyFactor * c.Score
		if conf < fuzzyFloor {
			return fuzzyFloor
		}
		return conf
	default:
		return 0
	}
}
