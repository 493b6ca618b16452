//go:build ignore

package main

import (
	"context"
	"fmt"
	"log"
	"math"

	"ai-helpdesk-be/internal/config"
	"ai-helpdesk-be/pkg/embedding"
)

// CosineSimilarity calculates similarity between two vectors
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0.0
	}
	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i] * b[i])
		normA += float64(a[i] * a[i])
		normB += float64(b[i] * b[i])
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Checks that the configured providers keep an Arabic question close to its
// English counterpart in embedding space. A KB where the two languages do
// not align retrieves nothing cross-language.
func main() {
	cfg := config.Load()
	ctx := context.Background()

	// 1. Initialize Providers
	fmt.Println("--- Initializing Providers ---")
	gemini := embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
	nomic := embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaEmbeddingModel)

	// 2. Define Test Cases
	text1 := "How do I reset my password?"
	text2 := "كيف يمكنني إعادة تعيين كلمة المرور؟"        // Same question in Arabic
	text3 := "The refund is returned within ten business days" // Different topic

	fmt.Println("\n--- Generating Embeddings ---")

	generate := func(name string, p embedding.EmbeddingProvider, t1, t2, t3 string) ([]float32, []float32, []float32) {
		fmt.Printf("\n[%s] Generating...\n", name)

		v1, err := p.Generate(ctx, t1, embedding.TaskRetrievalQuery)
		if err != nil {
			log.Printf("Error %s (Text 1): %v", name, err)
			return nil, nil, nil
		}
		fmt.Printf("[%s] Text 1 Dimensions: %d\n", name, len(v1.Embedding.Values))

		v2, err := p.Generate(ctx, t2, embedding.TaskRetrievalQuery)
		if err != nil {
			log.Printf("Error %s (Text 2): %v", name, err)
			return nil, nil, nil
		}

		v3, err := p.Generate(ctx, t3, embedding.TaskRetrievalDocument)
		if err != nil {
			log.Printf("Error %s (Text 3): %v", name, err)
			return nil, nil, nil
		}

		return v1.Embedding.Values, v2.Embedding.Values, v3.Embedding.Values
	}

	// 3. Run Gemini
	g1, g2, g3 := generate("GEMINI", gemini, text1, text2, text3)

	// 4. Run Nomic
	n1, n2, n3 := generate("NOMIC", nomic, text1, text2, text3)

	// 5. Compare Similarity
	fmt.Println("\n--- Cross-Language Similarity Comparison ---")
	fmt.Println("(Higher is better, 1.0 = identical)")

	if g1 != nil && g2 != nil && g3 != nil {
		fmt.Printf("\n[GEMINI]\n")
		fmt.Printf("Similarity (EN vs AR - Same question): %.4f\n", CosineSimilarity(g1, g2))
		fmt.Printf("Similarity (EN vs Different topic): %.4f\n", CosineSimilarity(g1, g3))
	}

	if n1 != nil && n2 != nil && n3 != nil {
		fmt.Printf("\n[NOMIC]\n")
		fmt.Printf("Similarity (EN vs AR - Same question): %.4f\n", CosineSimilarity(n1, n2))
		fmt.Printf("Similarity (EN vs Different topic): %.4f\n", CosineSimilarity(n1, n3))
	}

	fmt.Println("\n--- Conclusion ---")
	fmt.Println("The AR/EN pair should score well above the different-topic pair.")
}
