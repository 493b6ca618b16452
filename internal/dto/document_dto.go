package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateDocumentRequest struct {
	Title    string `json:"title" validate:"required"`
	Content  string `json:"content" validate:"required"`
	Language string `json:"language" validate:"omitempty,oneof=ar en"`
}

type CreateDocumentResponse struct {
	Id     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

type UpdateDocumentRequest struct {
	Id       uuid.UUID
	Title    string `json:"title" validate:"required"`
	Content  string `json:"content" validate:"required"`
	Language string `json:"language" validate:"omitempty,oneof=ar en"`
}

type UpdateDocumentResponse struct {
	Id     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

type ShowDocumentResponse struct {
	Id         uuid.UUID  `json:"id"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	Language   string     `json:"language,omitempty"`
	Status     string     `json:"status"`
	ChunkCount int64      `json:"chunk_count"`
	UploadedBy uuid.UUID  `json:"uploaded_by"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at"`
}

type ListDocumentsResponse struct {
	Id        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	Language  string     `json:"language,omitempty"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}
