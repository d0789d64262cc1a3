package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// QueryStore defines the interface for query history operations.
type QueryStore interface {
	// Create inserts a query row together with its embedding row.
	Create(ctx context.Context, query *Query) error
	// ListByUser returns the user's queries, newest first.
	ListByUser(ctx context.Context, userID uint) ([]Query, error)
	// GetByID returns one query scoped to its owner.
	// Returns ErrNotFound if missing or owned by someone else.
	GetByID(ctx context.Context, userID, queryID uint) (*Query, error)
	// Delete removes the query, its embedding and its search records.
	Delete(ctx context.Context, query *Query) error
}

// QueryRepo provides methods for query history operations.
// It implements the QueryStore interface.
type QueryRepo struct {
	db *gorm.DB
}

// NewQueryRepo creates a new QueryRepo.
func NewQueryRepo(db *gorm.DB) *QueryRepo {
	return &QueryRepo{db: db}
}

// Create inserts a query row together with its embedding row.
func (r *QueryRepo) Create(ctx context.Context, query *Query) error {
	if err := r.db.WithContext(ctx).Create(query).Error; err != nil {
		return fmt.Errorf("failed to create query: %w", err)
	}
	return nil
}

// ListByUser returns the user's queries, newest first.
func (r *QueryRepo) ListByUser(ctx context.Context, userID uint) ([]Query, error) {
	var queries []Query
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC").
		Find(&queries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list queries: %w", err)
	}
	return queries, nil
}

// GetByID returns one query scoped to its owner.
func (r *QueryRepo) GetByID(ctx context.Context, userID, queryID uint) (*Query, error) {
	var query Query
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", queryID, userID).
		First(&query).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query search history: %w", err)
	}
	return &query, nil
}

// Delete removes the query, its embedding and its search records.
func (r *QueryRepo) Delete(ctx context.Context, query *Query) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("query_id = ?", query.ID).Delete(&SearchRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&Query{}, query.ID).Error; err != nil {
			return err
		}
		return tx.Delete(&Embedding{}, query.EmbeddingID).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete query: %w", err)
	}
	return nil
}
