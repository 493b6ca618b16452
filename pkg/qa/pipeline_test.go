package qa

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"testing"

	"ai-helpdesk-be/pkg/classify"
	"ai-helpdesk-be/pkg/embedding"
	"ai-helpdesk-be/pkg/llm"
	"ai-helpdesk-be/pkg/rerank"
	"ai-helpdesk-be/pkg/scoring"

	"github.com/google/uuid"
)

var errBackend = errors.New("backend unavailable")

type fakeEmbedder struct {
	calls int
	tasks []string
	err   error
}

func (f *fakeEmbedder) Generate(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	f.calls++
	f.tasks = append(f.tasks, taskType)
	if f.err != nil {
		return nil, f.err
	}
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{0.1, 0.2, 0.3}},
	}, nil
}

type fakeRetriever struct {
	calls      int
	lastTopK   int
	candidates []rerank.Candidate
	err        error
}

func (f *fakeRetriever) Search(ctx context.Context, vector []float32, topK int) ([]rerank.Candidate, error) {
	f.calls++
	f.lastTopK = topK
	if f.err != nil {
		return nil, f.err
	}
	return f.candidates, nil
}

// fakeScorer scores each pair by looking up its right-hand text, so tests
// can pin an exact ranking.
type fakeScorer struct {
	calls  int
	scores map[string]float64
	err    error
}

func (f *fakeScorer) ScorePairs(ctx context.Context, pairs []scoring.Pair) ([]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]float64, len(pairs))
	for i, pair := range pairs {
		s, ok := f.scores[pair.Right]
		if !ok {
			s = 0.5
		}
		out[i] = s
	}
	return out, nil
}

type fakeLLM struct {
	generateCalls int
	prompts       []string
	reply         string
	err           error
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	f.generateCalls++
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type fakeMemory struct {
	mu          sync.Mutex
	turns       map[uuid.UUID][]Turn
	appendCalls int
	getErr      error
	appendErr   error
}

func newFakeMemory() *fakeMemory {
	return &fakeMemory{turns: make(map[uuid.UUID][]Turn)}
}

func (f *fakeMemory) GetRecent(ctx context.Context, sessionID uuid.UUID, limit int) ([]Turn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	all := f.turns[sessionID]
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	out := make([]Turn, len(all))
	copy(out, all)
	return out, nil
}

func (f *fakeMemory) Append(ctx context.Context, sessionID uuid.UUID, turns ...Turn) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appendCalls++
	if f.appendErr != nil {
		return f.appendErr
	}
	f.turns[sessionID] = append(f.turns[sessionID], turns...)
	return nil
}

func (f *fakeMemory) seed(sessionID uuid.UUID, contents ...string) {
	for i, c := range contents {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		f.turns[sessionID] = append(f.turns[sessionID], Turn{Role: role, Content: c})
	}
}

type pipelineFixture struct {
	embedder  *fakeEmbedder
	retriever *fakeRetriever
	scorer    *fakeScorer
	llm       *fakeLLM
	memory    *fakeMemory
	pipeline  *Pipeline
}

func newPipelineFixture() *pipelineFixture {
	f := &pipelineFixture{
		embedder: &fakeEmbedder{},
		retriever: &fakeRetriever{candidates: []rerank.Candidate{
			{
				Content: "Refunds are processed within fourteen days of the request.",
				Metadata: map[string]interface{}{
					MetadataDocumentID: "doc-refund",
					MetadataTitle:      "Refund Policy",
				},
			},
			{
				Content: "Refund requests require the original purchase receipt.",
				Metadata: map[string]interface{}{
					MetadataDocumentID: "doc-refund",
					MetadataTitle:      "Refund Policy",
				},
			},
			{
				Content: "تتم معالجة طلبات الاسترجاع خلال أربعة عشر يوما.",
				Metadata: map[string]interface{}{
					MetadataDocumentID: "doc-refund-ar",
					MetadataTitle:      "سياسة الاسترجاع",
				},
			},
		}},
		scorer: &fakeScorer{scores: map[string]float64{
			"Refunds are processed within fourteen days of the request.": 0.9,
			"Refund requests require the original purchase receipt.":     0.8,
			"تتم معالجة طلبات الاسترجاع خلال أربعة عشر يوما.":             0.7,
		}},
		llm:    &fakeLLM{reply: "The refund window is fourteen days."},
		memory: newFakeMemory(),
	}
	f.pipeline = NewPipeline(
		f.embedder,
		f.retriever,
		rerank.NewReranker(f.scorer),
		f.llm,
		f.memory,
		DefaultConfig(),
		log.New(io.Discard, "", 0),
	)
	return f
}

func TestAnswerGreetingIsContextFree(t *testing.T) {
	f := newPipelineFixture()
	sessionID := uuid.New()

	res, err := f.pipeline.Answer(context.Background(), sessionID, "hello there")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if res.Category != classify.CategoryGreeting {
		t.Errorf("Category = %s, want %s", res.Category, classify.CategoryGreeting)
	}
	if f.embedder.calls != 0 || f.retriever.calls != 0 || f.scorer.calls != 0 {
		t.Errorf("greeting touched retrieval capabilities: embed=%d search=%d score=%d",
			f.embedder.calls, f.retriever.calls, f.scorer.calls)
	}
	if f.llm.generateCalls != 1 {
		t.Errorf("generateCalls = %d, want 1", f.llm.generateCalls)
	}
	if res.Sources == nil || len(res.Sources) != 0 {
		t.Errorf("Sources = %v, want empty slice", res.Sources)
	}

	turns := f.memory.turns[sessionID]
	if len(turns) != 2 {
		t.Fatalf("appended %d turns, want 2", len(turns))
	}
	if turns[0].Role != RoleUser || turns[0].Content != "hello there" {
		t.Errorf("first turn = %+v, want user query", turns[0])
	}
	if turns[1].Role != RoleAssistant || turns[1].Content != res.Reply {
		t.Errorf("second turn = %+v, want assistant reply", turns[1])
	}
}

func TestAnswerCalculationIsContextFree(t *testing.T) {
	f := newPipelineFixture()

	res, err := f.pipeline.Answer(context.Background(), uuid.New(), "كم يساوي ٥ + ٣")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if res.Category != classify.CategoryCalculation {
		t.Errorf("Category = %s, want %s", res.Category, classify.CategoryCalculation)
	}
	if f.embedder.calls != 0 || f.retriever.calls != 0 {
		t.Errorf("calculation touched retrieval: embed=%d search=%d", f.embedder.calls, f.retriever.calls)
	}
	if len(f.llm.prompts) != 1 || !strings.Contains(f.llm.prompts[0], "كم يساوي ٥ + ٣") {
		t.Errorf("prompt does not carry the query: %q", f.llm.prompts)
	}
}

func TestAnswerSmallTalkLoadsShortHistory(t *testing.T) {
	f := newPipelineFixture()
	sessionID := uuid.New()
	f.memory.seed(sessionID,
		"oldest question", "oldest answer",
		"recent question", "recent answer",
		"latest question", "latest answer",
	)

	res, err := f.pipeline.Answer(context.Background(), sessionID, "who are you?")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if res.Category != classify.CategorySimpleAnswer {
		t.Errorf("Category = %s, want %s", res.Category, classify.CategorySimpleAnswer)
	}
	if f.embedder.calls != 0 || f.retriever.calls != 0 {
		t.Errorf("small talk touched retrieval: embed=%d search=%d", f.embedder.calls, f.retriever.calls)
	}

	// SmallTalkHistory is 4, so the oldest pair must be cut off.
	prompt := f.llm.prompts[0]
	if !strings.Contains(prompt, "latest question") {
		t.Errorf("prompt missing recent history:\n%s", prompt)
	}
	if strings.Contains(prompt, "oldest question") {
		t.Errorf("prompt carries history beyond the small-talk limit:\n%s", prompt)
	}
}

func TestAnswerRetrievalFlow(t *testing.T) {
	f := newPipelineFixture()
	sessionID := uuid.New()

	res, err := f.pipeline.Answer(context.Background(), sessionID, "ما هي سياسة الاسترجاع؟")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if res.Category != classify.CategoryRetrieval {
		t.Errorf("Category = %s, want %s", res.Category, classify.CategoryRetrieval)
	}
	if f.embedder.calls != 1 || f.embedder.tasks[0] != embedding.TaskRetrievalQuery {
		t.Errorf("embedder calls = %d tasks = %v, want one %s call",
			f.embedder.calls, f.embedder.tasks, embedding.TaskRetrievalQuery)
	}
	if f.retriever.lastTopK != 10 {
		t.Errorf("search topK = %d, want the over-fetch count 10", f.retriever.lastTopK)
	}
	if f.scorer.calls == 0 {
		t.Error("reranker never consulted the scorer")
	}

	prompt := f.llm.prompts[0]
	for _, want := range []string{"Refund Policy", "Refunds are processed", "ما هي سياسة الاسترجاع؟"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}

	wantSources := []Source{
		{DocumentID: "doc-refund", Title: "Refund Policy"},
		{DocumentID: "doc-refund-ar", Title: "سياسة الاسترجاع"},
	}
	if len(res.Sources) != len(wantSources) {
		t.Fatalf("Sources = %v, want %v", res.Sources, wantSources)
	}
	for i, want := range wantSources {
		if res.Sources[i] != want {
			t.Errorf("Sources[%d] = %v, want %v", i, res.Sources[i], want)
		}
	}

	turns := f.memory.turns[sessionID]
	if len(turns) != 2 {
		t.Fatalf("appended %d turns, want 2", len(turns))
	}
	assistant := turns[1]
	if assistant.Category != classify.CategoryRetrieval {
		t.Errorf("assistant turn category = %s, want %s", assistant.Category, classify.CategoryRetrieval)
	}
	if len(assistant.Sources) != len(wantSources) {
		t.Errorf("assistant turn sources = %v, want %v", assistant.Sources, wantSources)
	}
	if user := turns[0]; user.Category != "" || len(user.Sources) != 0 {
		t.Errorf("user turn carries assistant-only fields: %+v", user)
	}
}

func TestAnswerSecondQuerySeesFirstTurns(t *testing.T) {
	f := newPipelineFixture()
	sessionID := uuid.New()
	ctx := context.Background()

	if _, err := f.pipeline.Answer(ctx, sessionID, "what is the refund policy?"); err != nil {
		t.Fatalf("first Answer() error = %v", err)
	}
	if strings.Contains(f.llm.prompts[0], "<conversation_history>") {
		t.Errorf("first prompt carries a history block for an empty session:\n%s", f.llm.prompts[0])
	}

	f.llm.reply = "Yes, laptops are covered."
	if _, err := f.pipeline.Answer(ctx, sessionID, "does that apply to laptops?"); err != nil {
		t.Fatalf("second Answer() error = %v", err)
	}

	second := f.llm.prompts[1]
	if !strings.Contains(second, "<conversation_history>") {
		t.Errorf("second prompt missing the history block:\n%s", second)
	}
	for _, want := range []string{"what is the refund policy?", "The refund window is fourteen days."} {
		if !strings.Contains(second, want) {
			t.Errorf("second prompt missing prior turn %q:\n%s", want, second)
		}
	}
}

func TestAnswerZeroCandidatesSkipsGeneration(t *testing.T) {
	f := newPipelineFixture()
	f.retriever.candidates = nil
	sessionID := uuid.New()

	res, err := f.pipeline.Answer(context.Background(), sessionID, "ما هي سياسة الاسترجاع؟")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if res.Reply != notFoundReply {
		t.Errorf("Reply = %q, want the fixed not-found reply", res.Reply)
	}
	if f.llm.generateCalls != 0 {
		t.Errorf("generateCalls = %d, want 0 on the zero-result path", f.llm.generateCalls)
	}
	if f.scorer.calls != 0 {
		t.Errorf("scorer calls = %d, want 0 on the zero-result path", f.scorer.calls)
	}
	if res.Sources == nil || len(res.Sources) != 0 {
		t.Errorf("Sources = %v, want empty slice", res.Sources)
	}
	// The terminal answer is still a response and still gets recorded.
	if got := len(f.memory.turns[sessionID]); got != 2 {
		t.Errorf("appended %d turns, want 2", got)
	}
}

func TestAnswerCapabilityErrorAppendsNothing(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		mutate func(*pipelineFixture)
	}{
		{
			name:   "history load fails",
			query:  "what is the refund policy?",
			mutate: func(f *pipelineFixture) { f.memory.getErr = errBackend },
		},
		{
			name:   "embedding fails",
			query:  "what is the refund policy?",
			mutate: func(f *pipelineFixture) { f.embedder.err = errBackend },
		},
		{
			name:   "retrieval fails",
			query:  "what is the refund policy?",
			mutate: func(f *pipelineFixture) { f.retriever.err = errBackend },
		},
		{
			name:   "scoring fails",
			query:  "what is the refund policy?",
			mutate: func(f *pipelineFixture) { f.scorer.err = errBackend },
		},
		{
			name:   "generation fails",
			query:  "hello",
			mutate: func(f *pipelineFixture) { f.llm.err = errBackend },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPipelineFixture()
			tt.mutate(f)
			sessionID := uuid.New()

			res, err := f.pipeline.Answer(context.Background(), sessionID, tt.query)
			if err == nil {
				t.Fatal("Answer() error = nil, want failure")
			}
			if !errors.Is(err, errBackend) {
				t.Errorf("error chain %v does not carry the backend error", err)
			}
			if res != nil {
				t.Errorf("result = %+v, want nil on failure", res)
			}
			if f.memory.appendCalls != 0 {
				t.Errorf("appendCalls = %d, want 0 after a failed query", f.memory.appendCalls)
			}
			if got := len(f.memory.turns[sessionID]); got != 0 {
				t.Errorf("session holds %d turns after a failed query, want 0", got)
			}
		})
	}
}

func TestAnswerAppendErrorFailsQuery(t *testing.T) {
	f := newPipelineFixture()
	f.memory.appendErr = errBackend
	sessionID := uuid.New()

	_, err := f.pipeline.Answer(context.Background(), sessionID, "hello")
	if !errors.Is(err, errBackend) {
		t.Errorf("Answer() error = %v, want the append failure", err)
	}
	if got := len(f.memory.turns[sessionID]); got != 0 {
		t.Errorf("session holds %d turns, want 0", got)
	}
}

func TestAnswerCancelledBeforeAppend(t *testing.T) {
	f := newPipelineFixture()
	sessionID := uuid.New()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The fakes ignore ctx, so only the pre-append gate can observe the
	// cancellation here.
	_, err := f.pipeline.Answer(ctx, sessionID, "hello")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Answer() error = %v, want context.Canceled", err)
	}
	if f.memory.appendCalls != 0 {
		t.Errorf("appendCalls = %d, want 0 for a cancelled query", f.memory.appendCalls)
	}
}

func TestAnswerConcurrentSameSession(t *testing.T) {
	f := newPipelineFixture()
	sessionID := uuid.New()

	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := f.pipeline.Answer(context.Background(), sessionID, fmt.Sprintf("hello %d", i)); err != nil {
				t.Errorf("Answer() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	turns := f.memory.turns[sessionID]
	if len(turns) != 2*n {
		t.Fatalf("appended %d turns, want %d", len(turns), 2*n)
	}
	for i := 0; i < len(turns); i += 2 {
		if turns[i].Role != RoleUser || turns[i+1].Role != RoleAssistant {
			t.Fatalf("turn pair at %d is torn: %s then %s", i, turns[i].Role, turns[i+1].Role)
		}
	}
}
