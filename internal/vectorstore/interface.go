package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_searcher.go -package=mocks modalsearch/internal/vectorstore Searcher

import "context"

// Candidate is one row returned by a per-modality nearest-neighbor query,
// before fusion and filtering. Score is oriented so higher means more
// similar, with identical operator semantics across modalities.
type Candidate struct {
	ContentID uint
	Score     float64
	Modality  string
}

// Searcher defines the interface for modality-scoped similarity search.
type Searcher interface {
	// SearchByModality returns up to k candidates whose embeddings are
	// closest to vec, restricted to contents owned by userID whose
	// embedding carries the given modality. Results are nearest-first.
	SearchByModality(ctx context.Context, vec []float32, mod string, userID uint, k int) ([]Candidate, error)
}
