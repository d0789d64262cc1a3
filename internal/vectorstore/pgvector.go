package vectorstore

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"modalsearch/internal/contextutil"
	"modalsearch/internal/service"
)

// PgvectorStore implements Searcher on the pgvector extension of the
// relational database. The query vector is bound as a typed parameter,
// never interpolated into SQL.
type PgvectorStore struct {
	db         *gorm.DB
	vectorSize int
}

// NewPgvectorStore creates a pgvector-backed searcher.
// vectorSize must match the embeddings column dimensionality.
func NewPgvectorStore(db *gorm.DB, vectorSize int) *PgvectorStore {
	return &PgvectorStore{db: db, vectorSize: vectorSize}
}

// searchRow mirrors the projection of the nearest-neighbor query.
type searchRow struct {
	ContentID uint
	Score     float64
}

// SearchByModality returns up to k candidates nearest to vec within one
// modality subspace, scoped to the owner. Raw score is the negated inner
// product distance, so higher means more similar. Contents whose embedding
// has not been computed yet (NULL vector) never match.
func (s *PgvectorStore) SearchByModality(ctx context.Context, vec []float32, mod string, userID uint, k int) ([]Candidate, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if len(vec) != s.vectorSize {
		return nil, fmt.Errorf("%w: query vector has %d dimensions, index expects %d",
			service.ErrDimensionMismatch, len(vec), s.vectorSize)
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}

	query := pgvector.NewVector(vec)

	var rows []searchRow
	err := s.db.WithContext(ctx).Raw(`
		SELECT
			c.id AS content_id,
			(e.vector <#> ?) * -1 AS score
		FROM contents c
		JOIN embeddings e ON c.embedding_id = e.id
		WHERE c.user_id = ?
		  AND e.modality = ?
		  AND e.vector IS NOT NULL
		ORDER BY e.vector <#> ? ASC
		LIMIT ?`,
		query, userID, mod, query, k,
	).Scan(&rows).Error
	if err != nil {
		logger.ErrorContext(ctx, "nearest-neighbor query failed", "modality", mod, "error", err)
		return nil, fmt.Errorf("failed to search %s embeddings: %w", mod, err)
	}

	candidates := make([]Candidate, 0, len(rows))
	for _, row := range rows {
		candidates = append(candidates, Candidate{
			ContentID: row.ContentID,
			Score:     row.Score,
			Modality:  mod,
		})
	}

	logger.DebugContext(ctx, "modality search completed", "modality", mod, "k", k, "candidates", len(candidates))
	return candidates, nil
}
