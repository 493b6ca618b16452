package repository

import (
	"context"

	"ai-helpdesk-be/internal/repository/unitofwork"
	"ai-helpdesk-be/pkg/qa"
	"ai-helpdesk-be/pkg/rerank"
)

// ChunkRetriever adapts pgvector similarity search over document chunks to
// the pipeline's retrieval boundary. Results arrive best-first with the
// similarity attached as the provisional score.
type ChunkRetriever struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewChunkRetriever(uowFactory unitofwork.RepositoryFactory) *ChunkRetriever {
	return &ChunkRetriever{
		uowFactory: uowFactory,
	}
}

func (r *ChunkRetriever) Search(ctx context.Context, vector []float32, topK int) ([]rerank.Candidate, error) {
	uow := r.uowFactory.NewUnitOfWork(ctx)
	scored, err := uow.DocumentChunkRepository().SearchSimilar(ctx, vector, topK)
	if err != nil {
		return nil, err
	}

	candidates := make([]rerank.Candidate, len(scored))
	for i, sc := range scored {
		candidates[i] = rerank.Candidate{
			Content: sc.Chunk.Content,
			Metadata: map[string]interface{}{
				qa.MetadataDocumentID: sc.Chunk.DocumentId.String(),
				qa.MetadataTitle:      sc.DocumentTitle,
				qa.MetadataLanguage:   sc.DocumentLanguage,
				qa.MetadataChunkIndex: sc.Chunk.ChunkIndex,
			},
			Score: sc.Similarity,
		}
	}
	return candidates, nil
}
