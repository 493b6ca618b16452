package model

import (
	"time"

	"github.com/google/uuid"
)

// Notification is the real-time payload pushed over the websocket hub.
// Notifications are ephemeral: delivered to connected clients and gone,
// never written to the database.
type Notification struct {
	Id        uuid.UUID              `json:"id"`
	UserId    uuid.UUID              `json:"user_id"`
	Type      string                 `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}
