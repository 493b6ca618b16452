package scoring

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"ai-helpdesk-be/pkg/llm"
)

// LLMScorer grades relevance by asking the chat model for a 0-10 rating and
// scaling it into [0,1]. Expensive but works with any provider the factory
// can build, so it needs no extra serving infrastructure.
type LLMScorer struct {
	provider llm.LLMProvider
}

var _ ScoringProvider = &LLMScorer{}

func NewLLMScorer(provider llm.LLMProvider) *LLMScorer {
	return &LLMScorer{provider: provider}
}

var scorePattern = regexp.MustCompile(`\d+(\.\d+)?`)

const llmScorePrompt = `Rate how relevant the document is to the query on a scale of 0 to 10.
0 means completely unrelated, 10 means a direct answer.
The query and document may be in Arabic or English.
Reply with ONLY the number.

Query: %s

Document: %s

Score:`

func (s *LLMScorer) ScorePairs(ctx context.Context, pairs []Pair) ([]float64, error) {
	scores := make([]float64, len(pairs))
	for i, p := range pairs {
		prompt := fmt.Sprintf(llmScorePrompt, p.Left, truncate(p.Right, 2000))

		reply, err := s.provider.Generate(ctx, prompt, llm.WithTemperature(0.0))
		if err != nil {
			return nil, fmt.Errorf("score pair %d: %w", i, err)
		}

		score, err := parseScore(reply)
		if err != nil {
			return nil, fmt.Errorf("score pair %d: %w", i, err)
		}
		scores[i] = score / 10.0
	}
	return scores, nil
}

// parseScore extracts the first number from the model reply. Models
// occasionally wrap the rating in prose despite the instruction.
func parseScore(reply string) (float64, error) {
	match := scorePattern.FindString(strings.TrimSpace(reply))
	if match == "" {
		return 0, fmt.Errorf("no numeric score in model reply: %q", truncate(reply, 80))
	}
	score, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, fmt.Errorf("parse score %q: %w", match, err)
	}
	if score < 0 {
		score = 0
	}
	if score > 10 {
		score = 10
	}
	return score, nil
}

// truncate cuts on rune boundaries so Arabic text survives intact.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
