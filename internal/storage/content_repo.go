package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// ContentStore defines the interface for content storage operations.
type ContentStore interface {
	// Create inserts a new content row.
	Create(ctx context.Context, content *Content) error
	// ListByUser returns all contents owned by the user, newest first.
	ListByUser(ctx context.Context, userID uint) ([]Content, error)
	// GetByID returns one content scoped to its owner.
	// Returns ErrNotFound if missing or owned by someone else.
	GetByID(ctx context.Context, userID, contentID uint) (*Content, error)
	// AttachEmbedding links a newly created embedding to the content.
	// Called exactly once per content, by the ingestion worker.
	AttachEmbedding(ctx context.Context, contentID, embeddingID uint) error
	// Delete removes the content together with its embedding, search
	// records and tasks, in one transaction.
	Delete(ctx context.Context, content *Content) error
}

// ContentRepo provides methods for content operations.
// It implements the ContentStore interface.
type ContentRepo struct {
	db *gorm.DB
}

// NewContentRepo creates a new ContentRepo.
func NewContentRepo(db *gorm.DB) *ContentRepo {
	return &ContentRepo{db: db}
}

// Create inserts a new content row.
func (r *ContentRepo) Create(ctx context.Context, content *Content) error {
	if err := r.db.WithContext(ctx).Create(content).Error; err != nil {
		return fmt.Errorf("failed to create content: %w", err)
	}
	return nil
}

// ListByUser returns all contents owned by the user, newest first.
func (r *ContentRepo) ListByUser(ctx context.Context, userID uint) ([]Content, error) {
	var contents []Content
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("upload_date DESC").
		Find(&contents).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list contents: %w", err)
	}
	return contents, nil
}

// GetByID returns one content scoped to its owner.
func (r *ContentRepo) GetByID(ctx context.Context, userID, contentID uint) (*Content, error) {
	var content Content
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", contentID, userID).
		First(&content).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query content: %w", err)
	}
	return &content, nil
}

// AttachEmbedding links a newly created embedding to the content.
func (r *ContentRepo) AttachEmbedding(ctx context.Context, contentID, embeddingID uint) error {
	res := r.db.WithContext(ctx).
		Model(&Content{}).
		Where("id = ?", contentID).
		Update("embedding_id", embeddingID)
	if res.Error != nil {
		return fmt.Errorf("failed to attach embedding: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the content together with its embedding, search records
// and tasks, in one transaction.
func (r *ContentRepo) Delete(ctx context.Context, content *Content) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("content_id = ?", content.ID).Delete(&SearchRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Where("content_id = ?", content.ID).Delete(&Task{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&Content{}, content.ID).Error; err != nil {
			return err
		}
		if content.EmbeddingID != nil {
			if err := tx.Delete(&Embedding{}, *content.EmbeddingID).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete content: %w", err)
	}
	return nil
}
