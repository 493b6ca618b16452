package bootstrap

import (
	"context"
	"log"

	"ai-helpdesk-be/internal/config"
	"ai-helpdesk-be/internal/controller"
	"ai-helpdesk-be/internal/handler"
	"ai-helpdesk-be/internal/pkg/logger"
	"ai-helpdesk-be/internal/repository"
	"ai-helpdesk-be/internal/repository/unitofwork"
	"ai-helpdesk-be/internal/service"
	"ai-helpdesk-be/internal/websocket"
	"ai-helpdesk-be/pkg/embedding"
	"ai-helpdesk-be/pkg/embedding/jina"
	"ai-helpdesk-be/pkg/llm/factory"
	"ai-helpdesk-be/pkg/qa"
	"ai-helpdesk-be/pkg/rerank"
	"ai-helpdesk-be/pkg/scoring"

	pktNats "ai-helpdesk-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AssistantController controller.IAssistantController
	DocumentController  controller.IDocumentController

	// Background Services (Exposed for main.go to run)
	IngestionService service.IIngestionService

	// WebSockets & Notification
	NotificationHandler *handler.NotificationHandler
	WebSocketHub        *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	// Initialize Embedding Provider based on Config
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaEmbeddingModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaEmbeddingModel)
	} else if cfg.Ai.EmbeddingProvider == "jina" {
		embeddingProvider = jina.NewJinaProvider(cfg.Keys.Jina)
		log.Printf("[INFO] Using Embedding Provider: JINA AI")
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	// Initialize LLM Provider based on Config
	llmAPIKey := cfg.Keys.GoogleGemini
	if cfg.Ai.LLMProvider == "huggingface" {
		llmAPIKey = cfg.Keys.HuggingFace
	}
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		llmAPIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// Initialize Scoring Provider for the reranker
	var scorer scoring.ScoringProvider
	switch cfg.Ai.ScoringProvider {
	case "cross-encoder":
		scorer = scoring.NewCrossEncoderScorer(cfg.Ai.RerankerBaseURL, cfg.Ai.RerankerModel)
		log.Printf("[INFO] Using Scoring Provider: CROSS-ENCODER (%s)", cfg.Ai.RerankerModel)
	case "keyword":
		scorer = scoring.NewKeywordScorer()
		log.Printf("[INFO] Using Scoring Provider: KEYWORD")
	default:
		scorer = scoring.NewLLMScorer(llmProvider)
		log.Printf("[INFO] Using Scoring Provider: LLM (%s)", cfg.Ai.LLMModel)
	}

	// 3.5 Infrastructure (Moved up for dependency injection)
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/notification.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 4. QA Pipeline
	qaConfig := qa.DefaultConfig()
	qaConfig.RetrieveTopK = cfg.Ai.RetrieveTopK
	qaConfig.RerankTopN = cfg.Ai.RerankTopN
	qaConfig.RerankLambda = cfg.Ai.RerankLambda
	qaConfig.RerankMode = rerank.Mode(cfg.Ai.RerankMode)
	qaConfig.HistoryLimit = cfg.Ai.HistoryLimit

	pipeline := qa.NewPipeline(
		embeddingProvider,
		repository.NewChunkRetriever(uowFactory),
		rerank.NewReranker(scorer),
		llmProvider,
		repository.NewGormConversationStore(uowFactory),
		qaConfig,
		log.Default(),
	)

	// 5. Services
	publisherService := service.NewPublisherService(cfg.Keys.IngestTopic, pubSub)
	ingestionService := service.NewIngestionService(
		pubSub,
		cfg.Keys.IngestTopic,
		uowFactory,
		embeddingProvider,
		natsPub,
	)

	assistantService := service.NewAssistantService(uowFactory, pipeline, sysLogger)
	documentService := service.NewDocumentService(uowFactory, publisherService)

	// 6. Notification System
	notifService := service.NewNotificationService(natsSub, wsHub, wsLogger) // Hub implements NotificationDelivery

	// Start Service (Worker)
	if natsSub != nil {
		go notifService.Start()
	}

	// Handler
	notifHandler := handler.NewNotificationHandler(natsPub, wsHub, wsLogger)

	// 7. Controllers
	// Note: We return the container with public fields for the server to register
	return &Container{
		NotificationHandler: notifHandler,
		WebSocketHub:        wsHub,

		AssistantController: controller.NewAssistantController(assistantService),
		DocumentController:  controller.NewDocumentController(documentService),

		IngestionService: ingestionService,
	}
}
