// Package qa runs the per-query answering pipeline: classify, optionally
// retrieve and rerank, generate, then persist the conversation turns.
package qa

import (
	"context"
	"time"

	"ai-helpdesk-be/pkg/classify"
	"ai-helpdesk-be/pkg/rerank"

	"github.com/google/uuid"
)

// Turn roles as stored in conversation memory.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Candidate metadata keys the retrieval side fills in and the pipeline reads
// back out when building source references.
const (
	MetadataDocumentID = "document_id"
	MetadataTitle      = "title"
	MetadataLanguage   = "language"
	MetadataChunkIndex = "chunk_index"
)

// Turn is one conversation entry. Memory is append-only from the pipeline's
// point of view; turns are never edited or removed here. Category and
// Sources are set on assistant turns only.
type Turn struct {
	Role      string            `json:"role"`
	Content   string            `json:"content"`
	Timestamp time.Time         `json:"timestamp"`
	Category  classify.Category `json:"category,omitempty"`
	Sources   []Source          `json:"sources,omitempty"`
}

// Source points at a document that contributed context to an answer.
type Source struct {
	DocumentID string `json:"document_id"`
	Title      string `json:"title"`
}

// Result is the terminal output of one answered query.
type Result struct {
	Reply    string            `json:"reply"`
	Sources  []Source          `json:"sources"`
	Category classify.Category `json:"category"`
}

// Retriever fetches the top-K most similar candidates for a query vector,
// ordered by descending similarity, with provisional scores attached.
type Retriever interface {
	Search(ctx context.Context, vector []float32, topK int) ([]rerank.Candidate, error)
}

// ConversationStore is the session memory boundary. GetRecent returns up to
// limit turns in chronological order. A single Append call is the
// all-or-nothing unit: either every turn in it is persisted or none are.
type ConversationStore interface {
	GetRecent(ctx context.Context, sessionID uuid.UUID, limit int) ([]Turn, error)
	Append(ctx context.Context, sessionID uuid.UUID, turns ...Turn) error
}
