package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// defaultModelName names the row seeded when no model exists yet.
// Model selection per user is a deferred feature; every embedding is
// attributed to this model.
const defaultModelName = "default"

// ModelStore defines the interface for embedding model bookkeeping.
type ModelStore interface {
	// GetOrCreateDefault returns the default model row, creating it on
	// first use.
	GetOrCreateDefault(ctx context.Context) (*Model, error)
}

// EmbeddingStore defines the interface for embedding row creation.
// Embeddings are immutable; there is deliberately no update operation.
type EmbeddingStore interface {
	// Create inserts a new embedding row.
	Create(ctx context.Context, embedding *Embedding) error
}

// ModelRepo provides methods for model bookkeeping.
// It implements the ModelStore interface.
type ModelRepo struct {
	db *gorm.DB
}

// NewModelRepo creates a new ModelRepo.
func NewModelRepo(db *gorm.DB) *ModelRepo {
	return &ModelRepo{db: db}
}

// GetOrCreateDefault returns the default model row, creating it on first use.
func (r *ModelRepo) GetOrCreateDefault(ctx context.Context) (*Model, error) {
	var model Model
	err := r.db.WithContext(ctx).
		Where("name = ?", defaultModelName).
		First(&model).Error
	if err == nil {
		return &model, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to query model: %w", err)
	}

	model = Model{Name: defaultModelName, Description: "default model created by system"}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return nil, fmt.Errorf("failed to create default model: %w", err)
	}
	return &model, nil
}

// EmbeddingRepo provides methods for embedding row creation.
// It implements the EmbeddingStore interface.
type EmbeddingRepo struct {
	db *gorm.DB
}

// NewEmbeddingRepo creates a new EmbeddingRepo.
func NewEmbeddingRepo(db *gorm.DB) *EmbeddingRepo {
	return &EmbeddingRepo{db: db}
}

// Create inserts a new embedding row.
func (r *EmbeddingRepo) Create(ctx context.Context, embedding *Embedding) error {
	if err := r.db.WithContext(ctx).Create(embedding).Error; err != nil {
		return fmt.Errorf("failed to create embedding: %w", err)
	}
	return nil
}
