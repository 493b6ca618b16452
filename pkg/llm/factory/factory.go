package factory

import (
	"ai-helpdesk-be/pkg/llm"
	"ai-helpdesk-be/pkg/llm/gemini"
	"ai-helpdesk-be/pkg/llm/huggingface"
	"ai-helpdesk-be/pkg/llm/ollama"
	"fmt"
)

// NewLLMProvider builds the configured chat backend. baseURL only applies to
// ollama; apiKey is the key for whichever hosted provider is selected.
func NewLLMProvider(providerType, modelName, baseURL, apiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case "gemini":
		if apiKey == "" {
			return nil, fmt.Errorf("gemini provider requires an API key")
		}
		return gemini.NewGeminiProvider(apiKey, modelName), nil
	case "huggingface":
		if apiKey == "" {
			return nil, fmt.Errorf("huggingface provider requires an API key")
		}
		return huggingface.NewHuggingFaceProvider(apiKey, "", modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
