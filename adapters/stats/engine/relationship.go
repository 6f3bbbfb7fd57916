package engine

import (
	"fmt"
	"math"
	"sort"

	"surveystat/domain/core"
	"surveystat/domain/stats"
)

// evaluateKeyRelationships evaluates the labelled pairs in the order given.
// Pairs naming an indicator absent from the matrix are skipped.
func (e *StatsEngine) evaluateKeyRelationships(matrix *stats.Matrix, key []stats.KeyRelationship) []stats.PairResult {
	index := make(map[core.IndicatorCode]int, matrix.Size())
	for i, c := range matrix.Codes {
		index[c] = i
	}

	out := make([]stats.PairResult, 0, len(key))
	for _, rel := range key {
		i, okX := index[rel.X]
		j, okY := index[rel.Y]
		if !okX || !okY {
			e.logger.Debug("skipping key relationship %s/%s: indicator not in matrix", rel.X, rel.Y)
			continue
		}
		res := e.EvaluatePair(matrix, i, j)
		res.Label = rel.Label
		if res.Label == "" {
			res.Label = fmt.Sprintf("%s ↔ %s", rel.X, rel.Y)
		}
		res.Order = len(out)
		out = append(out, res)
	}
	return out
}

// SortByAbsT orders results by descending |t|. Ties keep enumeration order
// and NaN statistics sink to the end.
func SortByAbsT(results []stats.PairResult) {
	sort.SliceStable(results, func(a, b int) bool {
		ta, tb := results[a].T, results[b].T
		switch {
		case math.IsNaN(ta):
			return false
		case math.IsNaN(tb):
			return true
		default:
			return math.Abs(ta) > math.Abs(tb)
		}
	})
}

// Summarize counts tiers over all pairs and strengths over key relationships.
func Summarize(a *stats.Analysis) stats.Summary {
	s := stats.Summary{
		TotalPairs:       len(a.Pairs),
		TierCounts:       make(map[stats.SignificanceTier]int, len(stats.Tiers)),
		StrengthCounts:   make(map[stats.Strength]int, len(stats.Strengths)),
		CriticalT:        a.CriticalT,
		DegreesOfFreedom: a.DegreesOfFreedom,
	}
	for _, tier := range stats.Tiers {
		s.TierCounts[tier] = 0
	}
	for _, strength := range stats.Strengths {
		s.StrengthCounts[strength] = 0
	}

	for _, p := range a.Pairs {
		s.TierCounts[p.Significance]++
		if p.Valid {
			s.ValidPairs++
		}
		if p.Significant {
			s.SignificantPairs++
		}
	}
	for _, p := range a.Key {
		s.StrengthCounts[p.Strength]++
	}
	return s
}
