package db_models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

type DocumentStatus string

const (
	DocumentPending DocumentStatus = "pending"
	DocumentReady   DocumentStatus = "ready"
	DocumentFailed  DocumentStatus = "failed"
)

// Document is an uploaded travel guide. Documents are shared knowledge for every account.
type Document struct {
	BaseModel
	AccountID  *uuid.UUID `gorm:"type:uuid;index"`
	Name       string     `gorm:"size:64"`
	FileName   string
	Status     DocumentStatus `gorm:"size:16;default:pending"`
	Error      string
	ChunkCount int
	Tags       pq.StringArray `gorm:"type:text[]"`
	Chunks     []Chunk        `gorm:"constraint:OnDelete:CASCADE"`
}

// Chunk is one overlapping window of a document's text. The vector column has no
// fixed dimension so the embedding model can be swapped without a migration.
type Chunk struct {
	ID         uint      `gorm:"primaryKey"`
	DocumentID uuid.UUID `gorm:"type:uuid;index"`
	Position   int
	Content    string          `gorm:"type:text"`
	Embedding  pgvector.Vector `gorm:"type:vector"`
	CreatedAt  time.Time       `gorm:"autoCreateTime"`
}
