// Package search retrieves chunks for a question from the lexical and dense
// indices and fuses the two ranked lists into one.
package search

import (
	"sort"

	"github.com/hyperjump/kotae/internal/keyword"
	"github.com/hyperjump/kotae/internal/vector"
)

// DefaultRRFConstant is the rank offset used by reciprocal rank fusion.
const DefaultRRFConstant = 60

// FusedResult holds a chunk ID and its fused lexical/dense scores.
type FusedResult struct {
	ChunkID      string
	Score        float64
	LexicalScore float64
	DenseScore   float64
}

// NormalizeKeywordScores normalizes keyword scores to [0,1] by max.
func NormalizeKeywordScores(results []*keyword.KeywordResult) map[string]float64 {
	if len(results) == 0 {
		return make(map[string]float64)
	}
	maxScore := results[0].Score
	for _, r := range results {
		if r.Score > maxScore {
			maxScore = r.Score
		}
	}
	normalized := make(map[string]float64)
	for _, r := range results {
		if maxScore > 0 {
			normalized[r.ID] = r.Score / maxScore
		} else {
			normalized[r.ID] = 0
		}
	}
	return normalized
}

// NormalizeDenseScores clamps cosine scores to [0,1].
func NormalizeDenseScores(results []*vector.VectorResult) map[string]float64 {
	normalized := make(map[string]float64)
	for _, r := range results {
		normalized[r.ID] = vector.ClampUnit(r.Score)
	}
	return normalized
}

// collect returns one FusedResult per distinct chunk ID, lexical hits first,
// each carrying its normalized per-retriever scores.
func collect(lexical []*keyword.KeywordResult, dense []*vector.VectorResult) []*FusedResult {
	lexScores := NormalizeKeywordScores(lexical)
	denseScores := NormalizeDenseScores(dense)
	byID := make(map[string]*FusedResult, len(lexical)+len(dense))
	out := make([]*FusedResult, 0, len(lexical)+len(dense))
	add := func(id string) {
		if _, ok := byID[id]; ok {
			return
		}
		r := &FusedResult{ChunkID: id, LexicalScore: lexScores[id], DenseScore: denseScores[id]}
		byID[id] = r
		out = append(out, r)
	}
	for _, r := range lexical {
		add(r.ID)
	}
	for _, r := range dense {
		add(r.ID)
	}
	return out
}

// Fuse merges lexical and dense results by weighted normalized score. A chunk
// returned by both retrievers appears once. Ties keep lexical order first.
func Fuse(lexical []*keyword.KeywordResult, dense []*vector.VectorResult, lexicalWeight, denseWeight float64) []*FusedResult {
	results := collect(lexical, dense)
	for _, r := range results {
		r.Score = (lexicalWeight * r.LexicalScore) + (denseWeight * r.DenseScore)
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	return results
}

// FuseRRF merges lexical and dense results by weighted reciprocal rank:
// each list contributes weight / (c + rank), rank starting at 1.
func FuseRRF(lexical []*keyword.KeywordResult, dense []*vector.VectorResult, lexicalWeight, denseWeight float64, c int) []*FusedResult {
	if c <= 0 {
		c = DefaultRRFConstant
	}
	lexRank := make(map[string]int, len(lexical))
	for i, r := range lexical {
		if _, ok := lexRank[r.ID]; !ok {
			lexRank[r.ID] = i + 1
		}
	}
	denseRank := make(map[string]int, len(dense))
	for i, r := range dense {
		if _, ok := denseRank[r.ID]; !ok {
			denseRank[r.ID] = i + 1
		}
	}

	results := collect(lexical, dense)
	for _, r := range results {
		if rank, ok := lexRank[r.ChunkID]; ok {
			r.Score += lexicalWeight / float64(c+rank)
		}
		if rank, ok := denseRank[r.ChunkID]; ok {
			r.Score += denseWeight / float64(c+rank)
		}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	return results
}
