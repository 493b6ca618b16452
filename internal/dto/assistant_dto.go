package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSessionResponse struct {
	Id uuid.UUID `json:"id"`
}

type GetAllSessionsResponse struct {
	Id        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// SourceDTO points at a knowledge base document that grounded a reply.
type SourceDTO struct {
	DocumentId uuid.UUID `json:"document_id"`
	Title      string    `json:"title"`
}

type GetChatHistoryResponse struct {
	Id        uuid.UUID   `json:"id"`
	Role      string      `json:"role"`
	Content   string      `json:"content"`
	Category  string      `json:"category,omitempty"`
	Sources   []SourceDTO `json:"sources,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

type QueryRequest struct {
	ChatSessionId uuid.UUID `json:"chat_session_id" validate:"required"`
	Query         string    `json:"query" validate:"required"`
}

type QueryResponseChat struct {
	Id        uuid.UUID   `json:"id"`
	Content   string      `json:"content"`
	Role      string      `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
	Sources   []SourceDTO `json:"sources,omitempty"`
}

type QueryResponse struct {
	ChatSessionId    uuid.UUID          `json:"chat_session_id"`
	ChatSessionTitle string             `json:"title"`
	Category         string             `json:"category"`
	Sent             *QueryResponseChat `json:"sent"`
	Reply            *QueryResponseChat `json:"reply"`
}

type DeleteSessionRequest struct {
	ChatSessionId uuid.UUID `json:"chat_session_id"`
}
