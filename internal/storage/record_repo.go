package storage

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// SearchRecordStore defines the interface for search record persistence.
type SearchRecordStore interface {
	// CreateBatch inserts all records for one query in a single
	// transaction. A failure rolls back every record in the batch.
	CreateBatch(ctx context.Context, records []SearchRecord) error
	// ListByQuery returns the records for a query, best score first.
	ListByQuery(ctx context.Context, queryID uint) ([]SearchRecord, error)
}

// SearchRecordRepo provides methods for search record persistence.
// It implements the SearchRecordStore interface.
type SearchRecordRepo struct {
	db *gorm.DB
}

// NewSearchRecordRepo creates a new SearchRecordRepo.
func NewSearchRecordRepo(db *gorm.DB) *SearchRecordRepo {
	return &SearchRecordRepo{db: db}
}

// CreateBatch inserts all records for one query in a single transaction.
func (r *SearchRecordRepo) CreateBatch(ctx context.Context, records []SearchRecord) error {
	if len(records) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&records).Error
	})
	if err != nil {
		return fmt.Errorf("failed to persist search records: %w", err)
	}
	return nil
}

// ListByQuery returns the records for a query, best score first.
func (r *SearchRecordRepo) ListByQuery(ctx context.Context, queryID uint) ([]SearchRecord, error) {
	var records []SearchRecord
	err := r.db.WithContext(ctx).
		Where("query_id = ?", queryID).
		Order("similarity_score DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list search records: %w", err)
	}
	return records, nil
}
