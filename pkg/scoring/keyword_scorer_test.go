package scoring

import (
	"context"
	"math"
	"testing"
)

func TestKeywordScorerScorePairs(t *testing.T) {
	tests := []struct {
		name string
		pair Pair
		want float64
	}{
		{
			name: "full overlap",
			pair: Pair{Left: "reset password", Right: "how to reset your password"},
			want: 1.0,
		},
		{
			name: "partial overlap",
			pair: Pair{Left: "reset my password now", Right: "password reset guide"},
			want: 0.5,
		},
		{
			name: "no overlap",
			pair: Pair{Left: "refund policy", Right: "wifi keeps disconnecting"},
			want: 0,
		},
		{
			name: "case insensitive",
			pair: Pair{Left: "RESET Password", Right: "password reset"},
			want: 1.0,
		},
		{
			name: "punctuation ignored",
			pair: Pair{Left: "reset, password!", Right: "reset password"},
			want: 1.0,
		},
		{
			name: "empty left side",
			pair: Pair{Left: "", Right: "anything"},
			want: 0,
		},
		{
			name: "empty right side",
			pair: Pair{Left: "reset password", Right: ""},
			want: 0,
		},
		{
			name: "arabic overlap",
			pair: Pair{Left: "إعادة تعيين كلمة المرور", Right: "دليل إعادة تعيين كلمة المرور"},
			want: 1.0,
		},
		{
			name: "arabic no overlap",
			pair: Pair{Left: "إعادة تعيين كلمة المرور", Right: "سياسة الاسترداد"},
			want: 0,
		},
		{
			name: "numbers count as tokens",
			pair: Pair{Left: "error 404", Right: "the page returned 404"},
			want: 0.5,
		},
	}

	scorer := NewKeywordScorer()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scores, err := scorer.ScorePairs(context.Background(), []Pair{tt.pair})
			if err != nil {
				t.Fatalf("ScorePairs returned error: %v", err)
			}
			if len(scores) != 1 {
				t.Fatalf("expected 1 score, got %d", len(scores))
			}
			if math.Abs(scores[0]-tt.want) > 1e-9 {
				t.Errorf("score = %v, want %v", scores[0], tt.want)
			}
		})
	}
}

func TestKeywordScorerBatchOrder(t *testing.T) {
	scorer := NewKeywordScorer()

	pairs := []Pair{
		{Left: "reset password", Right: "reset password"},
		{Left: "reset password", Right: "no match here"},
		{Left: "reset password", Right: "password only"},
	}

	scores, err := scorer.ScorePairs(context.Background(), pairs)
	if err != nil {
		t.Fatalf("ScorePairs returned error: %v", err)
	}
	if len(scores) != len(pairs) {
		t.Fatalf("expected %d scores, got %d", len(pairs), len(scores))
	}

	if scores[0] != 1.0 {
		t.Errorf("scores[0] = %v, want 1.0", scores[0])
	}
	if scores[1] != 0 {
		t.Errorf("scores[1] = %v, want 0", scores[1])
	}
	if scores[2] != 0.5 {
		t.Errorf("scores[2] = %v, want 0.5", scores[2])
	}
}

func TestKeywordScorerEmptyInput(t *testing.T) {
	scorer := NewKeywordScorer()

	scores, err := scorer.ScorePairs(context.Background(), nil)
	if err != nil {
		t.Fatalf("ScorePairs returned error: %v", err)
	}
	if len(scores) != 0 {
		t.Errorf("expected no scores for empty input, got %d", len(scores))
	}
}
