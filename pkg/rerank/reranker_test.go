package rerank

import (
	"context"
	"errors"
	"testing"

	"ai-helpdesk-be/pkg/scoring"
)

// fakeScorer is a deterministic ScoringProvider for tests. It counts batch
// calls and pairs so call-count contracts can be asserted.
type fakeScorer struct {
	scoreFn   func(p scoring.Pair) float64
	err       error
	shortBy   int // return this many fewer scores than requested
	calls     int
	pairsSeen int
}

func (f *fakeScorer) ScorePairs(ctx context.Context, pairs []scoring.Pair) ([]float64, error) {
	f.calls++
	f.pairsSeen += len(pairs)
	if f.err != nil {
		return nil, f.err
	}
	scores := make([]float64, 0, len(pairs))
	for _, p := range pairs {
		scores = append(scores, f.scoreFn(p))
	}
	if f.shortBy > 0 {
		scores = scores[:len(scores)-f.shortBy]
	}
	return scores, nil
}

// scoreByContent builds a scoreFn for query-candidate scoring keyed on the
// candidate content, with symmetric lookup for candidate-candidate pairs.
func scoreByContent(query string, relevance map[string]float64, similarity map[[2]string]float64) func(scoring.Pair) float64 {
	return func(p scoring.Pair) float64 {
		if p.Left == query {
			return relevance[p.Right]
		}
		if s, ok := similarity[[2]string{p.Left, p.Right}]; ok {
			return s
		}
		if s, ok := similarity[[2]string{p.Right, p.Left}]; ok {
			return s
		}
		return 0
	}
}

func makeCandidates(contents ...string) []Candidate {
	out := make([]Candidate, len(contents))
	for i, c := range contents {
		out[i] = Candidate{
			Content:  c,
			Metadata: map[string]interface{}{"document_id": c},
		}
	}
	return out
}

func contentsOf(result []Candidate) []string {
	out := make([]string, len(result))
	for i, c := range result {
		out[i] = c.Content
	}
	return out
}

func equalContents(a []string, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRerankEmptyCandidates(t *testing.T) {
	for _, mode := range []Mode{ModeRelevanceOnly, ModeRelevanceDiversity} {
		scorer := &fakeScorer{scoreFn: func(scoring.Pair) float64 { return 1 }}
		r := NewReranker(scorer)

		result, err := r.Rerank(context.Background(), "anything", nil, Config{Mode: mode, TopN: 3, Lambda: DefaultLambda})
		if err != nil {
			t.Fatalf("mode %s: unexpected error: %v", mode, err)
		}
		if len(result) != 0 {
			t.Errorf("mode %s: result length = %d, want 0", mode, len(result))
		}
		if scorer.calls != 0 {
			t.Errorf("mode %s: scorer called %d times for empty input, want 0", mode, scorer.calls)
		}
	}
}

func TestRerankResultLength(t *testing.T) {
	tests := []struct {
		name       string
		candidates int
		topN       int
		want       int
	}{
		{"fewer candidates than topN", 2, 5, 2},
		{"equal", 3, 3, 3},
		{"surplus", 6, 3, 3},
		{"single", 1, 3, 1},
		{"topN zero", 4, 0, 0},
	}

	for _, mode := range []Mode{ModeRelevanceOnly, ModeRelevanceDiversity} {
		for _, tt := range tests {
			t.Run(string(mode)+"/"+tt.name, func(t *testing.T) {
				contents := make([]string, tt.candidates)
				for i := range contents {
					contents[i] = string(rune('a' + i))
				}
				scorer := &fakeScorer{scoreFn: func(scoring.Pair) float64 { return 0.5 }}
				r := NewReranker(scorer)

				result, err := r.Rerank(context.Background(), "q", makeCandidates(contents...), Config{Mode: mode, TopN: tt.topN, Lambda: DefaultLambda})
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if len(result) != tt.want {
					t.Errorf("result length = %d, want %d", len(result), tt.want)
				}
			})
		}
	}
}

func TestRelevanceOnlyOrdering(t *testing.T) {
	relevance := map[string]float64{
		"low":    0.2,
		"high":   0.9,
		"mid":    0.5,
		"high-2": 0.9, // tie with "high", listed later
	}
	scorer := &fakeScorer{scoreFn: scoreByContent("q", relevance, nil)}
	r := NewReranker(scorer)

	candidates := makeCandidates("low", "high", "mid", "high-2")
	result, err := r.Rerank(context.Background(), "q", candidates, Config{Mode: ModeRelevanceOnly, TopN: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Descending by score, tie broken by original retrieval order.
	want := []string{"high", "high-2", "mid", "low"}
	if got := contentsOf(result); !equalContents(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}

	for i := 1; i < len(result); i++ {
		if result[i].Score > result[i-1].Score {
			t.Errorf("result not sorted by descending score at %d: %v > %v", i, result[i].Score, result[i-1].Score)
		}
	}

	if scorer.calls != 1 || scorer.pairsSeen != len(candidates) {
		t.Errorf("scoring calls = %d batches / %d pairs, want 1 batch / %d pairs", scorer.calls, scorer.pairsSeen, len(candidates))
	}
}

func TestDiversityBypassMatchesRelevanceOnly(t *testing.T) {
	relevance := map[string]float64{"a": 0.3, "b": 0.8, "c": 0.5}

	run := func(mode Mode) []Candidate {
		scorer := &fakeScorer{scoreFn: scoreByContent("q", relevance, nil)}
		r := NewReranker(scorer)
		result, err := r.Rerank(context.Background(), "q", makeCandidates("a", "b", "c"), Config{Mode: mode, TopN: 3, Lambda: DefaultLambda})
		if err != nil {
			t.Fatalf("mode %s: unexpected error: %v", mode, err)
		}
		// No surplus means no pairwise similarity batch in either mode.
		if scorer.calls != 1 {
			t.Errorf("mode %s: scorer batches = %d, want 1", mode, scorer.calls)
		}
		return result
	}

	relevanceOnly := run(ModeRelevanceOnly)
	diversity := run(ModeRelevanceDiversity)

	if !equalContents(contentsOf(relevanceOnly), contentsOf(diversity)) {
		t.Errorf("bypass mismatch: relevance-only %v, diversity %v", contentsOf(relevanceOnly), contentsOf(diversity))
	}
	for i := range relevanceOnly {
		if relevanceOnly[i].Score != diversity[i].Score {
			t.Errorf("score mismatch at %d: %v vs %v", i, relevanceOnly[i].Score, diversity[i].Score)
		}
	}
}

func TestDiversityLambdaOneMatchesRelevanceOnly(t *testing.T) {
	relevance := map[string]float64{"a": 0.1, "b": 0.9, "c": 0.4, "d": 0.7, "e": 0.2}
	similarity := map[[2]string]float64{} // defaults to 0 for every pair

	roScorer := &fakeScorer{scoreFn: scoreByContent("q", relevance, similarity)}
	ro, err := NewReranker(roScorer).Rerank(context.Background(), "q", makeCandidates("a", "b", "c", "d", "e"), Config{Mode: ModeRelevanceOnly, TopN: 3})
	if err != nil {
		t.Fatalf("relevance-only: %v", err)
	}

	divScorer := &fakeScorer{scoreFn: scoreByContent("q", relevance, similarity)}
	div, err := NewReranker(divScorer).Rerank(context.Background(), "q", makeCandidates("a", "b", "c", "d", "e"), Config{Mode: ModeRelevanceDiversity, TopN: 3, Lambda: 1.0})
	if err != nil {
		t.Fatalf("diversity: %v", err)
	}

	if !equalContents(contentsOf(ro), contentsOf(div)) {
		t.Errorf("lambda=1.0 order %v, want relevance-only order %v", contentsOf(div), contentsOf(ro))
	}
}

func TestDiversityPrefersNonRedundantCandidate(t *testing.T) {
	// "dup" is a near-copy of the top candidate; diversity mode should skip
	// it in favor of the less relevant but unrelated "other".
	relevance := map[string]float64{"top": 1.0, "dup": 0.9, "other": 0.5}
	similarity := map[[2]string]float64{
		{"top", "dup"}:   0.95,
		{"top", "other"}: 0.1,
		{"dup", "other"}: 0.1,
	}

	scorer := &fakeScorer{scoreFn: scoreByContent("q", relevance, similarity)}
	r := NewReranker(scorer)
	candidates := makeCandidates("top", "dup", "other")

	div, err := r.Rerank(context.Background(), "q", candidates, Config{Mode: ModeRelevanceDiversity, TopN: 2, Lambda: 0.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{"top", "other"}; !equalContents(contentsOf(div), want) {
		t.Errorf("diversity selection = %v, want %v", contentsOf(div), want)
	}

	// Relevance + C(n,2) similarity pairs, all batched before selection.
	wantPairs := 3 + 3
	if scorer.pairsSeen != wantPairs {
		t.Errorf("pairs scored = %d, want %d", scorer.pairsSeen, wantPairs)
	}

	// Same inputs under relevance-only keep the duplicate.
	roScorer := &fakeScorer{scoreFn: scoreByContent("q", relevance, similarity)}
	ro, err := NewReranker(roScorer).Rerank(context.Background(), "q", candidates, Config{Mode: ModeRelevanceOnly, TopN: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{"top", "dup"}; !equalContents(contentsOf(ro), want) {
		t.Errorf("relevance-only selection = %v, want %v", contentsOf(ro), want)
	}
}

func TestSimilarityMatrixProperties(t *testing.T) {
	// Raw scores include negatives (cosine-style) and overshoots; the matrix
	// must come out symmetric, unit-diagonal, and bounded to [0,1].
	similarity := map[[2]string]float64{
		{"a", "b"}: -0.5, // maps to 0.25
		{"a", "c"}: 1.7,  // clips to 1.0
		{"b", "c"}: 0.4,
	}
	scorer := &fakeScorer{scoreFn: scoreByContent("q", nil, similarity)}
	r := NewReranker(scorer)

	sim, err := r.similarityMatrix(context.Background(), makeCandidates("a", "b", "c"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := range sim {
		if sim[i][i] != 1.0 {
			t.Errorf("diagonal [%d][%d] = %v, want 1.0", i, i, sim[i][i])
		}
		for j := range sim[i] {
			if sim[i][j] != sim[j][i] {
				t.Errorf("matrix not symmetric at [%d][%d]: %v vs %v", i, j, sim[i][j], sim[j][i])
			}
			if sim[i][j] < 0 || sim[i][j] > 1 {
				t.Errorf("similarity [%d][%d] = %v out of [0,1]", i, j, sim[i][j])
			}
		}
	}

	if got, want := sim[0][1], 0.25; got != want {
		t.Errorf("negative raw score mapped to %v, want %v", got, want)
	}
	if got, want := sim[0][2], 1.0; got != want {
		t.Errorf("overshooting raw score clipped to %v, want %v", got, want)
	}
	if got, want := sim[1][2], 0.4; got != want {
		t.Errorf("in-range raw score = %v, want %v", got, want)
	}

	// Diagonal is fixed, not scored: C(3,2) pairs only.
	if scorer.pairsSeen != 3 {
		t.Errorf("pairs scored = %d, want 3", scorer.pairsSeen)
	}
}

func TestRerankPropagatesScorerError(t *testing.T) {
	scorerErr := errors.New("scoring backend unreachable")

	for _, mode := range []Mode{ModeRelevanceOnly, ModeRelevanceDiversity} {
		scorer := &fakeScorer{err: scorerErr}
		r := NewReranker(scorer)

		_, err := r.Rerank(context.Background(), "q", makeCandidates("a", "b", "c", "d"), Config{Mode: mode, TopN: 2, Lambda: DefaultLambda})
		if !errors.Is(err, scorerErr) {
			t.Errorf("mode %s: error = %v, want wrapped %v", mode, err, scorerErr)
		}
	}
}

func TestRerankScoreCountMismatch(t *testing.T) {
	scorer := &fakeScorer{
		scoreFn: func(scoring.Pair) float64 { return 0.5 },
		shortBy: 1,
	}
	r := NewReranker(scorer)

	_, err := r.Rerank(context.Background(), "q", makeCandidates("a", "b", "c"), Config{Mode: ModeRelevanceOnly, TopN: 2})
	if !errors.Is(err, ErrScoreCountMismatch) {
		t.Errorf("error = %v, want ErrScoreCountMismatch", err)
	}
}

func TestRerankInvalidConfig(t *testing.T) {
	scorer := &fakeScorer{scoreFn: func(scoring.Pair) float64 { return 0.5 }}
	r := NewReranker(scorer)
	candidates := makeCandidates("a", "b")

	if _, err := r.Rerank(context.Background(), "q", candidates, Config{Mode: ModeRelevanceDiversity, TopN: 1, Lambda: 1.5}); err == nil {
		t.Error("lambda > 1 accepted, want error")
	}
	if _, err := r.Rerank(context.Background(), "q", candidates, Config{Mode: ModeRelevanceDiversity, TopN: 1, Lambda: -0.1}); err == nil {
		t.Error("lambda < 0 accepted, want error")
	}
	if _, err := r.Rerank(context.Background(), "q", candidates, Config{Mode: Mode("BOGUS"), TopN: 1}); err == nil {
		t.Error("unknown mode accepted, want error")
	}
}

func TestRerankDoesNotMutateInput(t *testing.T) {
	relevance := map[string]float64{"a": 0.9, "b": 0.1}
	scorer := &fakeScorer{scoreFn: scoreByContent("q", relevance, nil)}
	r := NewReranker(scorer)

	candidates := makeCandidates("a", "b")
	if _, err := r.Rerank(context.Background(), "q", candidates, Config{Mode: ModeRelevanceOnly, TopN: 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, c := range candidates {
		if c.Score != 0 {
			t.Errorf("input candidate %d mutated: score = %v", i, c.Score)
		}
	}
}
