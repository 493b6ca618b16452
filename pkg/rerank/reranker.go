// Package rerank turns a coarse similarity-ranked candidate list into a
// small, relevant, non-redundant subset for the generation context.
package rerank

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"ai-helpdesk-be/pkg/scoring"
)

// Mode selects the reranking objective.
type Mode string

const (
	// ModeRelevanceOnly sorts candidates by relevance score alone.
	ModeRelevanceOnly Mode = "RELEVANCE_ONLY"
	// ModeRelevanceDiversity applies Maximal Marginal Relevance: relevance
	// traded off against similarity to already-selected candidates.
	ModeRelevanceDiversity Mode = "RELEVANCE_DIVERSITY"
)

// DefaultLambda weights relevance at 70% in diversity mode.
const DefaultLambda = 0.7

// ErrScoreCountMismatch reports a scoring backend that returned a different
// number of scores than pairs requested. Results cannot be trusted to align,
// so the rerank call fails instead of guessing.
var ErrScoreCountMismatch = errors.New("scoring provider returned mismatched score count")

// Candidate is a retrieved fragment competing for a slot in the generation
// context. The reranker attaches Score but never touches Content or Metadata.
type Candidate struct {
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata"`
	Score    float64                `json:"score"`
}

// Config encapsulates reranking parameters.
type Config struct {
	Mode   Mode
	TopN   int
	Lambda float64
}

// DefaultConfig returns the validated operating point: retrieval over-fetches,
// diversity reranking shrinks to three.
func DefaultConfig() Config {
	return Config{
		Mode:   ModeRelevanceDiversity,
		TopN:   3,
		Lambda: DefaultLambda,
	}
}

// Reranker scores and selects candidates through an injected scoring backend.
type Reranker struct {
	scorer scoring.ScoringProvider
}

func NewReranker(scorer scoring.ScoringProvider) *Reranker {
	return &Reranker{scorer: scorer}
}

// Rerank returns the min(cfg.TopN, len(candidates)) best candidates for the
// query under the configured mode. The input slice is never mutated; returned
// candidates are copies with Score attached. Scoring errors are returned
// verbatim apart from call-site context; there are no retries here.
func (r *Reranker) Rerank(ctx context.Context, query string, candidates []Candidate, cfg Config) ([]Candidate, error) {
	if cfg.Lambda < 0 || cfg.Lambda > 1 {
		return nil, fmt.Errorf("lambda out of range [0,1]: %v", cfg.Lambda)
	}

	if len(candidates) == 0 || cfg.TopN <= 0 {
		return []Candidate{}, nil
	}

	switch cfg.Mode {
	case ModeRelevanceOnly:
		return r.rerankByRelevance(ctx, query, candidates, cfg.TopN)
	case ModeRelevanceDiversity:
		// With no surplus to trade off, diversity selection degenerates to
		// relevance ordering. Documented shortcut, skips the pairwise matrix.
		if len(candidates) <= cfg.TopN {
			return r.rerankByRelevance(ctx, query, candidates, cfg.TopN)
		}
		return r.rerankByDiversity(ctx, query, candidates, cfg.TopN, cfg.Lambda)
	default:
		return nil, fmt.Errorf("unknown rerank mode: %q", cfg.Mode)
	}
}

// rerankByRelevance scores each candidate once against the query and returns
// the top n by descending score, ties kept in original retrieval order.
func (r *Reranker) rerankByRelevance(ctx context.Context, query string, candidates []Candidate, topN int) ([]Candidate, error) {
	scores, err := r.scoreAgainstQuery(ctx, query, candidates)
	if err != nil {
		return nil, err
	}

	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	if topN > len(order) {
		topN = len(order)
	}

	result := make([]Candidate, 0, topN)
	for _, idx := range order[:topN] {
		c := candidates[idx]
		c.Score = scores[idx]
		result = append(result, c)
	}
	return result, nil
}

// rerankByDiversity implements Maximal Marginal Relevance. Relevance scores
// are min-max normalized into [0,1]; pairwise similarity is computed once per
// unordered pair; selection is greedy and strictly sequential.
func (r *Reranker) rerankByDiversity(ctx context.Context, query string, candidates []Candidate, topN int, lambda float64) ([]Candidate, error) {
	// 1. Relevance of every candidate to the query, one call per pair.
	scores, err := r.scoreAgainstQuery(ctx, query, candidates)
	if err != nil {
		return nil, err
	}
	normRel := normalizeMinMax(scores)

	// 2. Candidate-candidate similarity matrix.
	sim, err := r.similarityMatrix(ctx, candidates)
	if err != nil {
		return nil, err
	}

	// 3. Greedy selection maximizing the MMR objective.
	n := len(candidates)
	selected := make([]int, 0, topN)
	isSelected := make([]bool, n)

	for len(selected) < topN && len(selected) < n {
		best := -1
		bestScore := 0.0

		for i := 0; i < n; i++ {
			if isSelected[i] {
				continue
			}

			maxSim := 0.0
			for _, s := range selected {
				if sim[i][s] > maxSim {
					maxSim = sim[i][s]
				}
			}

			mmr := lambda*normRel[i] - (1-lambda)*maxSim
			// Strict comparison keeps the earliest candidate on ties.
			if best == -1 || mmr > bestScore {
				best = i
				bestScore = mmr
			}
		}

		selected = append(selected, best)
		isSelected[best] = true
	}

	// 4. Result in selection order, raw relevance scores attached.
	result := make([]Candidate, 0, len(selected))
	for _, idx := range selected {
		c := candidates[idx]
		c.Score = scores[idx]
		result = append(result, c)
	}
	return result, nil
}

// scoreAgainstQuery scores every (query, candidate) pair in one batch and
// enforces the one-score-per-pair contract.
func (r *Reranker) scoreAgainstQuery(ctx context.Context, query string, candidates []Candidate) ([]float64, error) {
	pairs := make([]scoring.Pair, len(candidates))
	for i, c := range candidates {
		pairs[i] = scoring.Pair{Left: query, Right: c.Content}
	}

	scores, err := r.scorer.ScorePairs(ctx, pairs)
	if err != nil {
		return nil, fmt.Errorf("score candidates: %w", err)
	}
	if len(scores) != len(pairs) {
		return nil, fmt.Errorf("%w: requested %d, got %d", ErrScoreCountMismatch, len(pairs), len(scores))
	}
	return scores, nil
}

// similarityMatrix scores each unordered candidate pair once and mirrors the
// result into a symmetric matrix with 1.0 on the diagonal.
func (r *Reranker) similarityMatrix(ctx context.Context, candidates []Candidate) ([][]float64, error) {
	n := len(candidates)

	pairs := make([]scoring.Pair, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, scoring.Pair{Left: candidates[i].Content, Right: candidates[j].Content})
		}
	}

	scores, err := r.scorer.ScorePairs(ctx, pairs)
	if err != nil {
		return nil, fmt.Errorf("score candidate pairs: %w", err)
	}
	if len(scores) != len(pairs) {
		return nil, fmt.Errorf("%w: requested %d, got %d", ErrScoreCountMismatch, len(pairs), len(scores))
	}

	sim := make([][]float64, n)
	for i := range sim {
		sim[i] = make([]float64, n)
		sim[i][i] = 1.0
	}

	k := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			s := normalizeSimilarity(scores[k])
			sim[i][j] = s
			sim[j][i] = s
			k++
		}
	}
	return sim, nil
}

// normalizeSimilarity maps a raw pair score onto [0,1] so the MMR objective
// stays well-defined: negative scores (cosine-style backends) via (s+1)/2,
// everything clipped into the unit interval.
func normalizeSimilarity(s float64) float64 {
	if s < 0 {
		s = (s + 1) / 2
	}
	if s > 1 {
		return 1.0
	}
	if s < 0 {
		return 0.0
	}
	return s
}

// normalizeMinMax rescales scores into [0,1] across the batch. When every
// score is equal the spread is zero, so all candidates count as fully
// relevant rather than dividing by zero.
func normalizeMinMax(scores []float64) []float64 {
	min, max := scores[0], scores[0]
	for _, s := range scores[1:] {
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}

	norm := make([]float64, len(scores))
	if max == min {
		for i := range norm {
			norm[i] = 1.0
		}
		return norm
	}
	for i, s := range scores {
		norm[i] = (s - min) / (max - min)
	}
	return norm
}
