package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByStatus struct {
	Status string
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

type ByDocumentID struct {
	DocumentID uuid.UUID
}

func (s ByDocumentID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("document_id = ?", s.DocumentID)
}

type ByUploadedBy struct {
	UserID uuid.UUID
}

func (s ByUploadedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("uploaded_by = ?", s.UserID)
}
