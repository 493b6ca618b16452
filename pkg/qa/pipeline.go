package qa

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"ai-helpdesk-be/pkg/classify"
	"ai-helpdesk-be/pkg/embedding"
	"ai-helpdesk-be/pkg/llm"
	"ai-helpdesk-be/pkg/qa/prompt"
	"ai-helpdesk-be/pkg/rerank"

	"github.com/google/uuid"
)

// Config encapsulates the pipeline tunables.
type Config struct {
	// RetrieveTopK is the over-fetch count: wider than the final context so
	// the reranker has material to diversify.
	RetrieveTopK int
	// RerankTopN is the final context size after reranking.
	RerankTopN   int
	RerankMode   rerank.Mode
	RerankLambda float64
	// HistoryLimit caps the turns loaded for the retrieval branch;
	// SmallTalkHistory is the shorter cap for the simple-answer branch.
	HistoryLimit     int
	SmallTalkHistory int
}

// DefaultConfig returns the validated operating point: retrieve 10, rerank
// to 3 with diversity weighting.
func DefaultConfig() Config {
	return Config{
		RetrieveTopK:     10,
		RerankTopN:       3,
		RerankMode:       rerank.ModeRelevanceDiversity,
		RerankLambda:     rerank.DefaultLambda,
		HistoryLimit:     10,
		SmallTalkHistory: 4,
	}
}

// notFoundReply is the terminal answer for the zero-result path. Fixed text,
// both languages: with nothing retrieved there is nothing to ground a
// generation call on.
const notFoundReply = "لم أجد معلومات ذات صلة في قاعدة المعرفة. حاول إعادة صياغة السؤال.\n" +
	"I couldn't find relevant information in the knowledge base. Try rephrasing the question."

// Pipeline processes each query to a terminal state: classify, branch,
// respond. All external capabilities are injected; the pipeline owns only
// the control flow and the per-session append discipline.
type Pipeline struct {
	embedder  embedding.EmbeddingProvider
	retriever Retriever
	reranker  *rerank.Reranker
	llm       llm.LLMProvider
	memory    ConversationStore
	config    Config
	locks     *keyedMutex
	logger    *log.Logger
}

func NewPipeline(
	embedder embedding.EmbeddingProvider,
	retriever Retriever,
	reranker *rerank.Reranker,
	llmProvider llm.LLMProvider,
	memory ConversationStore,
	config Config,
	logger *log.Logger,
) *Pipeline {
	return &Pipeline{
		embedder:  embedder,
		retriever: retriever,
		reranker:  reranker,
		llm:       llmProvider,
		memory:    memory,
		config:    config,
		locks:     newKeyedMutex(),
		logger:    logger,
	}
}

// Answer runs one query through the pipeline. Any capability failure aborts
// the query with nothing written to memory; the two conversation turns are
// appended only after a response is fully produced.
func (p *Pipeline) Answer(ctx context.Context, sessionID uuid.UUID, query string) (*Result, error) {
	receivedAt := time.Now()

	// ═══════════════════════════════════════════════════════════════
	// PHASE 1: CLASSIFY
	// ═══════════════════════════════════════════════════════════════
	category := classify.Classify(query)
	p.logger.Printf("[CLASSIFY] %s for query: %s", category, truncate(query, 50))

	// ═══════════════════════════════════════════════════════════════
	// PHASE 2: BRANCH
	// ═══════════════════════════════════════════════════════════════
	var (
		reply   string
		sources []Source
		err     error
	)

	switch category {
	case classify.CategoryGreeting:
		// Context-free: no history, no retrieval.
		reply, err = p.generate(ctx, prompt.BuildGreeting(query))
	case classify.CategoryCalculation:
		reply, err = p.generate(ctx, prompt.BuildCalculation(query))
	case classify.CategorySimpleAnswer:
		reply, err = p.answerSmallTalk(ctx, sessionID, query)
	default:
		reply, sources, err = p.answerFromDocuments(ctx, sessionID, query)
	}
	if err != nil {
		return nil, err
	}
	if sources == nil {
		sources = []Source{}
	}

	// ═══════════════════════════════════════════════════════════════
	// PHASE 3: RESPOND
	// ═══════════════════════════════════════════════════════════════
	result := &Result{
		Reply:    reply,
		Sources:  sources,
		Category: category,
	}
	if err := p.appendTurns(ctx, sessionID, query, receivedAt, result); err != nil {
		return nil, fmt.Errorf("append conversation turns: %w", err)
	}

	return result, nil
}

// answerSmallTalk answers identity/small-talk queries from a short slice of
// recent history. Only this non-retrieval branch sees history at all.
func (p *Pipeline) answerSmallTalk(ctx context.Context, sessionID uuid.UUID, query string) (string, error) {
	turns, err := p.memory.GetRecent(ctx, sessionID, p.config.SmallTalkHistory)
	if err != nil {
		return "", fmt.Errorf("load history: %w", err)
	}
	return p.generate(ctx, prompt.BuildSmallTalk(query, toLLMMessages(turns)))
}

// answerFromDocuments is the retrieval branch: history, embed, over-fetch,
// rerank, assemble context, generate.
func (p *Pipeline) answerFromDocuments(ctx context.Context, sessionID uuid.UUID, query string) (string, []Source, error) {
	// 1. Conversation history for the session (empty if none).
	turns, err := p.memory.GetRecent(ctx, sessionID, p.config.HistoryLimit)
	if err != nil {
		return "", nil, fmt.Errorf("load history: %w", err)
	}
	history := toLLMMessages(turns)

	// 2. Embed the query.
	embedRes, err := p.embedder.Generate(ctx, query, embedding.TaskRetrievalQuery)
	if err != nil {
		return "", nil, fmt.Errorf("embed query: %w", err)
	}

	// 3. Over-fetch candidates by vector similarity.
	candidates, err := p.retriever.Search(ctx, embedRes.Embedding.Values, p.config.RetrieveTopK)
	if err != nil {
		return "", nil, fmt.Errorf("search candidates: %w", err)
	}
	p.logger.Printf("[RETRIEVE] %d candidates for query: %s", len(candidates), truncate(query, 50))

	// Zero results is a terminal answer, not an error.
	if len(candidates) == 0 {
		return notFoundReply, []Source{}, nil
	}

	// 4. Shrink to the final context set.
	reranked, err := p.reranker.Rerank(ctx, query, candidates, rerank.Config{
		Mode:   p.config.RerankMode,
		TopN:   p.config.RerankTopN,
		Lambda: p.config.RerankLambda,
	})
	if err != nil {
		return "", nil, fmt.Errorf("rerank candidates: %w", err)
	}
	p.logger.Printf("[RERANK] kept %d of %d candidates", len(reranked), len(candidates))

	// 5. Assemble the context block in rank order and generate.
	contextBlock := buildContextBlock(reranked)
	promptText := prompt.NewContextualBuilder(query, contextBlock, history).Build()

	reply, err := p.generate(ctx, promptText)
	if err != nil {
		return "", nil, err
	}

	return reply, extractSources(reranked), nil
}

// appendTurns persists the user query and the produced reply as one
// all-or-nothing unit. Appends for the same session are serialized; the
// lock is never held across the embedding/retrieval/scoring/generation
// calls that happened before this point.
func (p *Pipeline) appendTurns(ctx context.Context, sessionID uuid.UUID, query string, receivedAt time.Time, result *Result) error {
	p.locks.Lock(sessionID)
	defer p.locks.Unlock(sessionID)

	// Last point where the query may be abandoned. Once the append starts
	// it runs to completion so no session ends up with half a turn pair.
	if err := ctx.Err(); err != nil {
		return err
	}

	// The user turn is stamped at query arrival, the assistant turn at
	// persistence time, so chronological order survives a created_at sort.
	appendCtx := context.WithoutCancel(ctx)
	return p.memory.Append(appendCtx, sessionID,
		Turn{Role: RoleUser, Content: query, Timestamp: receivedAt},
		Turn{
			Role:      RoleAssistant,
			Content:   result.Reply,
			Timestamp: time.Now(),
			Category:  result.Category,
			Sources:   result.Sources,
		},
	)
}

func (p *Pipeline) generate(ctx context.Context, promptText string) (string, error) {
	reply, err := p.llm.Generate(ctx, promptText)
	if err != nil {
		return "", fmt.Errorf("generate response: %w", err)
	}
	return strings.TrimSpace(reply), nil
}

// buildContextBlock concatenates reranked content in rank order, each
// fragment under its document title.
func buildContextBlock(candidates []rerank.Candidate) string {
	var block strings.Builder
	for i, c := range candidates {
		title, _ := c.Metadata[MetadataTitle].(string)
		if title == "" {
			title = fmt.Sprintf("Fragment %d", i+1)
		}
		block.WriteString(fmt.Sprintf("--- %s ---\n", title))
		block.WriteString(c.Content)
		block.WriteString("\n")
	}
	return block.String()
}

// extractSources maps reranked candidates to source references, deduplicated
// by document in rank order.
func extractSources(candidates []rerank.Candidate) []Source {
	sources := make([]Source, 0, len(candidates))
	seen := make(map[string]bool)
	for _, c := range candidates {
		id, _ := c.Metadata[MetadataDocumentID].(string)
		if id == "" || seen[id] {
			continue
		}
		title, _ := c.Metadata[MetadataTitle].(string)
		sources = append(sources, Source{DocumentID: id, Title: title})
		seen[id] = true
	}
	return sources
}

func toLLMMessages(turns []Turn) []llm.Message {
	messages := make([]llm.Message, 0, len(turns))
	for _, t := range turns {
		role := "user"
		if t.Role == RoleAssistant || t.Role == "model" {
			role = "assistant"
		}
		messages = append(messages, llm.Message{
			Role:    role,
			Content: t.Content,
		})
	}
	return messages
}

// truncate cuts on rune boundaries so Arabic log lines stay valid UTF-8.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
