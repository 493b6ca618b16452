package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type DocumentChunk struct {
	Id         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Content    string          `gorm:"type:text"`
	Embedding  pgvector.Vector `gorm:"type:vector(768)"` // nomic-embed-text and text-embedding-004 are 768-dim
	DocumentId uuid.UUID       `gorm:"type:uuid;not null;index"`
	ChunkIndex int             `gorm:"default:0"` // 0-based index for ordering
	CreatedAt  time.Time       `gorm:"autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime"`
	DeletedAt  gorm.DeletedAt  `gorm:"index"`
}

func (DocumentChunk) TableName() string {
	return "document_chunks"
}
