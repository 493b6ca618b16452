package contract

import (
	"context"

	"ai-helpdesk-be/internal/entity"
	"ai-helpdesk-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ScoredChunk wraps a DocumentChunk with its similarity score and the
// owning document's display fields, hydrated in one query.
type ScoredChunk struct {
	Chunk            *entity.DocumentChunk
	DocumentTitle    string
	DocumentLanguage string
	Similarity       float64 // 0.0 to 1.0 (1.0 = identical)
}

type DocumentChunkRepository interface {
	Create(ctx context.Context, chunk *entity.DocumentChunk) error
	CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.DocumentChunk, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentChunk, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// SearchSimilar returns the closest chunks by cosine similarity across
	// the whole knowledge base, best first.
	SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]*ScoredChunk, error)
}
