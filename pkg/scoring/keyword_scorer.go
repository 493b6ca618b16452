package scoring

import (
	"context"
	"strings"
	"unicode"
)

// KeywordScorer scores by lexical token overlap. No network, no model; meant
// for development setups and as the fallback when no scoring backend is
// configured. Tokenization is unicode-aware so Arabic text works as well as
// English.
type KeywordScorer struct{}

var _ ScoringProvider = &KeywordScorer{}

func NewKeywordScorer() *KeywordScorer {
	return &KeywordScorer{}
}

func (s *KeywordScorer) ScorePairs(ctx context.Context, pairs []Pair) ([]float64, error) {
	scores := make([]float64, len(pairs))
	for i, p := range pairs {
		scores[i] = overlapScore(p.Left, p.Right)
	}
	return scores, nil
}

// overlapScore is the fraction of left-side tokens present in the right side.
func overlapScore(left, right string) float64 {
	leftTokens := tokenize(left)
	if len(leftTokens) == 0 {
		return 0
	}

	rightSet := make(map[string]bool)
	for _, tok := range tokenize(right) {
		rightSet[tok] = true
	}

	matched := 0
	for _, tok := range leftTokens {
		if rightSet[tok] {
			matched++
		}
	}
	return float64(matched) / float64(len(leftTokens))
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
