package storage

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

// User owns contents, queries and tasks. Account management lives elsewhere;
// this table only anchors ownership.
type User struct {
	ID        uint   `gorm:"primaryKey"`
	Username  string `gorm:"size:80;uniqueIndex;not null"`
	CreatedAt time.Time
}

// Model identifies which embedding model produced a given vector.
type Model struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:50;not null"`
	Description string `gorm:"size:250"`
}

// Embedding is a fixed-length vector plus the modality of its subspace.
// Rows are immutable once written; a recompute creates a new row.
type Embedding struct {
	ID       uint            `gorm:"primaryKey"`
	Vector   pgvector.Vector `gorm:"type:vector"`
	Modality string          `gorm:"size:10;not null"`
	ModelID  uint            `gorm:"index;not null"`
}

// Content is a persisted uploaded artifact. EmbeddingID stays NULL until the
// ingestion job completes; search filters such rows out.
type Content struct {
	ID            uint    `gorm:"primaryKey"`
	ContentPath   string  `gorm:"size:250;uniqueIndex;not null"`
	ContentTag    bool    `gorm:"default:true"`
	ContentSize   float64 // kilobytes
	Modality      string  `gorm:"size:10;not null"`
	ThumbnailPath *string `gorm:"size:250"`
	UploadDate    time.Time `gorm:"autoCreateTime"`
	UserID        uint      `gorm:"index;not null"`
	EmbeddingID   *uint     `gorm:"uniqueIndex"`
	Embedding     *Embedding
}

// Query is the historical record of one search request. Never mutated.
type Query struct {
	ID          uint   `gorm:"primaryKey"`
	Text        string `gorm:"size:250;not null"`
	Timestamp   time.Time `gorm:"autoCreateTime"`
	UserID      uint      `gorm:"index;not null"`
	EmbeddingID uint      `gorm:"uniqueIndex;not null"`
	Embedding   Embedding
}

// SearchRecord is one ranked (content, query) pairing. Written in a batch
// after ranking, read-only afterwards.
type SearchRecord struct {
	ID              uint    `gorm:"primaryKey"`
	SimilarityScore float64 `gorm:"not null"`
	Modality        string  `gorm:"size:10;not null"`
	RetrievedAt     time.Time `gorm:"autoCreateTime"`
	ContentID       uint      `gorm:"index;not null"`
	QueryID         uint      `gorm:"index;not null"`
}

// Task tracks one asynchronous embedding job against the job system.
type Task struct {
	ID          uint   `gorm:"primaryKey"`
	TaskID      string `gorm:"size:250;uniqueIndex;not null"`
	Status      string `gorm:"size:50;not null;default:PENDING"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	CompletedAt *time.Time
	Result      *string `gorm:"size:500"`
	ContentID   uint    `gorm:"index;not null"`
	UserID      uint    `gorm:"index;not null"`
}
