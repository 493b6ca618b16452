package scoring

import (
	"context"
)

// Pair is a single scoring request: how relevant is Right with respect to Left.
// Left is a query for query-document pairs, or another document's content for
// document-document similarity.
type Pair struct {
	Left  string
	Right string
}

// ScoringProvider defines the contract for any relevance-scoring backend.
type ScoringProvider interface {
	// ScorePairs scores every pair and returns exactly one score per pair,
	// in request order. Raw scores are not assumed bounded; callers that
	// need a bounded scale normalize the result themselves.
	ScorePairs(ctx context.Context, pairs []Pair) ([]float64, error)
}
