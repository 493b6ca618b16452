package entity

import (
	"time"

	"github.com/google/uuid"
)

type Document struct {
	Id         uuid.UUID
	Title      string
	Content    string
	Language   string
	Status     string
	UploadedBy uuid.UUID
	CreatedAt  time.Time
	UpdatedAt  *time.Time
	DeletedAt  *time.Time
	IsDeleted  bool
}
