package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Keys     APIKeys
	Ai       AIConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	GoogleGemini string
	Jina         string
	HuggingFace  string
	IngestTopic  string // Document ingestion topic
}

type AIConfig struct {
	EmbeddingProvider    string // "gemini", "ollama" or "jina"
	OllamaBaseURL        string
	OllamaEmbeddingModel string
	LLMProvider          string // "ollama", "gemini" or "huggingface"
	LLMModel             string // e.g. "llama3", "qwen2.5"
	ScoringProvider      string // "llm", "cross-encoder" or "keyword"
	RerankerBaseURL      string // TEI-compatible /rerank endpoint
	RerankerModel        string

	// Retrieval pipeline tunables.
	RetrieveTopK int
	RerankTopN   int
	RerankLambda float64
	RerankMode   string // "RELEVANCE_ONLY" or "RELEVANCE_DIVERSITY"
	HistoryLimit int    // Turns loaded for the retrieval branch
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			Jina:         getEnv("JINA_API_KEY", ""),
			HuggingFace:  getEnv("HUGGINGFACE_API_KEY", ""),
			IngestTopic:  getEnv("INGEST_DOCUMENT_TOPIC_NAME", "INGEST_DOCUMENT"),
		},
		Ai: AIConfig{
			EmbeddingProvider:    getEnv("EMBEDDING_PROVIDER", "ollama"),
			OllamaBaseURL:        getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaEmbeddingModel: getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:          getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:             getEnv("LLM_MODEL", "llama3"),
			ScoringProvider:      getEnv("SCORING_PROVIDER", "llm"),
			RerankerBaseURL:      getEnv("RERANKER_BASE_URL", "http://localhost:8080"),
			RerankerModel:        getEnv("RERANKER_MODEL", "BAAI/bge-reranker-v2-m3"),
			RetrieveTopK:         getEnvAsInt("RETRIEVE_TOP_K", 10),
			RerankTopN:           getEnvAsInt("RERANK_TOP_N", 3),
			RerankLambda:         getEnvAsFloat("RERANK_LAMBDA", 0.7),
			RerankMode:           getEnv("RERANK_MODE", "RELEVANCE_DIVERSITY"),
			HistoryLimit:         getEnvAsInt("CHAT_HISTORY_LIMIT", 10),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}
