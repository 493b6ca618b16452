package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// CrossEncoderScorer scores pairs against a TEI-style /rerank endpoint
// (text-embeddings-inference, bge-reranker and friends). The endpoint takes
// one query plus a batch of texts, so consecutive pairs sharing the same
// left side are sent as a single request.
type CrossEncoderScorer struct {
	BaseURL string
	Model   string
	Client  *http.Client
}

var _ ScoringProvider = &CrossEncoderScorer{}

func NewCrossEncoderScorer(baseURL, model string) *CrossEncoderScorer {
	return &CrossEncoderScorer{
		BaseURL: baseURL,
		Model:   model,
		Client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type rerankRequest struct {
	Model string   `json:"model,omitempty"`
	Query string   `json:"query"`
	Texts []string `json:"texts"`
}

type rerankResult struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

func (s *CrossEncoderScorer) ScorePairs(ctx context.Context, pairs []Pair) ([]float64, error) {
	scores := make([]float64, len(pairs))

	// Batch runs of pairs that share the same query text.
	start := 0
	for start < len(pairs) {
		end := start + 1
		for end < len(pairs) && pairs[end].Left == pairs[start].Left {
			end++
		}

		texts := make([]string, 0, end-start)
		for _, p := range pairs[start:end] {
			texts = append(texts, p.Right)
		}

		batch, err := s.scoreBatch(ctx, pairs[start].Left, texts)
		if err != nil {
			return nil, err
		}
		copy(scores[start:end], batch)

		start = end
	}

	return scores, nil
}

func (s *CrossEncoderScorer) scoreBatch(ctx context.Context, query string, texts []string) ([]float64, error) {
	payload, err := json.Marshal(rerankRequest{
		Model: s.Model,
		Query: query,
		Texts: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := s.BaseURL + "/rerank"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reranker request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reranker error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	// The endpoint returns results sorted by score, each tagged with the
	// input index. Map them back to input order.
	var results []rerankResult
	if err := json.Unmarshal(bodyBytes, &results); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	scores := make([]float64, len(texts))
	seen := make([]bool, len(texts))
	for _, r := range results {
		if r.Index < 0 || r.Index >= len(texts) {
			return nil, fmt.Errorf("reranker returned out-of-range index %d for batch of %d", r.Index, len(texts))
		}
		scores[r.Index] = r.Score
		seen[r.Index] = true
	}
	for i, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("reranker returned no score for text %d", i)
		}
	}

	return scores, nil
}
