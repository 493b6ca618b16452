package dto

import "github.com/google/uuid"

// PublishIngestDocumentMessage is the internal queue payload that triggers
// chunking and embedding for one document.
type PublishIngestDocumentMessage struct {
	DocumentId uuid.UUID `json:"document_id"`
}
