package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"ai-helpdesk-be/internal/config"
	"ai-helpdesk-be/internal/repository"
	"ai-helpdesk-be/internal/repository/memory"
	"ai-helpdesk-be/internal/repository/unitofwork"
	"ai-helpdesk-be/pkg/database"
	"ai-helpdesk-be/pkg/embedding"
	"ai-helpdesk-be/pkg/embedding/jina"
	"ai-helpdesk-be/pkg/llm/factory"
	"ai-helpdesk-be/pkg/qa"
	"ai-helpdesk-be/pkg/rerank"
	"ai-helpdesk-be/pkg/scoring"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

// Console chat against the live knowledge base. Conversation memory stays
// in process, so the chat tables are never touched.
func main() {
	cfg := config.Load()

	if cfg.Database.Connection == "" {
		log.Fatal("DB_CONNECTION_STRING required")
	}
	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatal(err)
	}
	uowFactory := unitofwork.NewRepositoryFactory(db)

	var embProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embProvider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaEmbeddingModel)
	} else if cfg.Ai.EmbeddingProvider == "jina" {
		embProvider = jina.NewJinaProvider(cfg.Keys.Jina)
	} else {
		embProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
	}

	llmAPIKey := cfg.Keys.GoogleGemini
	if cfg.Ai.LLMProvider == "huggingface" {
		llmAPIKey = cfg.Keys.HuggingFace
	}
	llmProvider, err := factory.NewLLMProvider(cfg.Ai.LLMProvider, cfg.Ai.LLMModel, cfg.Ai.OllamaBaseURL, llmAPIKey)
	if err != nil {
		log.Fatal(err)
	}

	var scorer scoring.ScoringProvider
	switch cfg.Ai.ScoringProvider {
	case "cross-encoder":
		scorer = scoring.NewCrossEncoderScorer(cfg.Ai.RerankerBaseURL, cfg.Ai.RerankerModel)
	case "keyword":
		scorer = scoring.NewKeywordScorer()
	default:
		scorer = scoring.NewLLMScorer(llmProvider)
	}

	qaConfig := qa.DefaultConfig()
	qaConfig.RetrieveTopK = cfg.Ai.RetrieveTopK
	qaConfig.RerankTopN = cfg.Ai.RerankTopN
	qaConfig.RerankLambda = cfg.Ai.RerankLambda
	qaConfig.RerankMode = rerank.Mode(cfg.Ai.RerankMode)
	qaConfig.HistoryLimit = cfg.Ai.HistoryLimit

	pipeline := qa.NewPipeline(
		embProvider,
		repository.NewChunkRetriever(uowFactory),
		rerank.NewReranker(scorer),
		llmProvider,
		memory.NewConversationStore(),
		qaConfig,
		log.Default(),
	)

	sessionID := uuid.New()
	color.Cyan("💬 Helpdesk chat console (session %s)", sessionID)
	color.Cyan("Ask in Arabic or English. Type 'exit' to quit.\n")

	ctx := context.Background()
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			break
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		if query == "exit" || query == "quit" {
			break
		}

		result, err := pipeline.Answer(ctx, sessionID, query)
		if err != nil {
			color.Red("Error: %v", err)
			continue
		}

		color.Yellow("[%s]", result.Category)
		fmt.Println(result.Reply)
		for _, src := range result.Sources {
			color.Green("  source: %s (%s)", src.Title, src.DocumentID)
		}
		fmt.Println()
	}
}
