package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Document struct {
	Id         uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title      string         `gorm:"type:text;not null"`
	Content    string         `gorm:"type:text;not null"`
	Language   string         `gorm:"type:varchar(10)"` // "ar", "en" or empty for mixed
	Status     string         `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	UploadedBy uuid.UUID      `gorm:"type:uuid;not null;index"`
	CreatedAt  time.Time      `gorm:"autoCreateTime"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime"`
	DeletedAt  gorm.DeletedAt `gorm:"index"`
}

func (Document) TableName() string {
	return "documents"
}
