package entity

import (
	"time"

	"github.com/google/uuid"
)

// SourceRef points at a knowledge-base document that grounded an answer.
type SourceRef struct {
	DocumentId uuid.UUID `json:"document_id"`
	Title      string    `json:"title"`
}

type ChatMessage struct {
	Id            uuid.UUID
	Content       string
	Role          string
	Category      string
	Sources       []SourceRef
	ChatSessionId uuid.UUID
	CreatedAt     time.Time
	UpdatedAt     *time.Time
	DeletedAt     *time.Time
	IsDeleted     bool
}
