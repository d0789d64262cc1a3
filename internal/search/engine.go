package search

import (
	"context"
	"fmt"
	"sort"

	"github.com/pgvector/pgvector-go"

	"modalsearch/internal/contextutil"
	"modalsearch/internal/modality"
	"modalsearch/internal/service"
	"modalsearch/internal/storage"
	"modalsearch/internal/vectorstore"
)

// Request describes one search call against the engine.
type Request struct {
	// UserID scopes retrieval to contents owned by this user.
	UserID uint
	// Vector is the (possibly combined) query embedding.
	Vector []float32
	// Modality is the query's dominant modality label.
	Modality string
	// DisplayText is the human-readable form stored on the query row.
	DisplayText string
	// Limit caps the final result list. Zero selects the configured default.
	Limit int
	// TargetModalities restricts which subspaces are searched.
	// Empty means all three.
	TargetModalities []string
}

// Result is one ranked entry of the final list.
type Result struct {
	ContentID uint    `json:"content_id"`
	Score     float64 `json:"similarity_score"`
	Modality  string  `json:"modality"`
}

// Response carries the ranked results and the persisted query id.
type Response struct {
	QueryID uint
	Results []Result
}

// Engine runs modality-aware similarity search with cross-modality fusion.
type Engine interface {
	// Search retrieves per-modality candidates, fuses and ranks them, and
	// persists the query and its search records.
	Search(ctx context.Context, req Request) (Response, error)
}

type searchEngine struct {
	searcher       vectorstore.Searcher
	queries        storage.QueryStore
	records        storage.SearchRecordStore
	models         storage.ModelStore
	policy         FusionPolicy
	candidateWidth int
	defaultLimit   int
}

// NewEngine creates a search engine. candidateWidth is the per-modality
// retrieval cap and must be at least as wide as the largest expected limit
// so cross-modality re-ranking has material to work with.
func NewEngine(
	searcher vectorstore.Searcher,
	queries storage.QueryStore,
	records storage.SearchRecordStore,
	models storage.ModelStore,
	policy FusionPolicy,
	candidateWidth int,
	defaultLimit int,
) Engine {
	return &searchEngine{
		searcher:       searcher,
		queries:        queries,
		records:        records,
		models:         models,
		policy:         policy,
		candidateWidth: candidateWidth,
		defaultLimit:   defaultLimit,
	}
}

// Search retrieves per-modality candidates, fuses and ranks them, and
// persists the query and its search records.
//
// The query row is created before retrieval and deliberately survives a
// later persistence failure: history may contain queries with zero records.
func (e *searchEngine) Search(ctx context.Context, req Request) (Response, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if len(req.Vector) == 0 {
		return Response{}, fmt.Errorf("%w: empty query vector", service.ErrInvalidInput)
	}
	if !modality.Valid(req.Modality) {
		return Response{}, fmt.Errorf("%w: %q", service.ErrUnsupportedModality, req.Modality)
	}

	limit := req.Limit
	if limit == 0 {
		limit = e.defaultLimit
	}
	if limit < 0 {
		return Response{}, fmt.Errorf("%w: negative limit", service.ErrInvalidInput)
	}

	targets := req.TargetModalities
	if len(targets) == 0 {
		targets = modality.All
	}
	for _, t := range targets {
		if !modality.Valid(t) {
			return Response{}, fmt.Errorf("%w: target %q", service.ErrUnsupportedModality, t)
		}
	}

	model, err := e.models.GetOrCreateDefault(ctx)
	if err != nil {
		return Response{}, service.WrapError(err, "failed to resolve embedding model")
	}

	query := &storage.Query{
		Text:   req.DisplayText,
		UserID: req.UserID,
		Embedding: storage.Embedding{
			Vector:   pgvector.NewVector(req.Vector),
			Modality: req.Modality,
			ModelID:  model.ID,
		},
	}
	if err := e.queries.Create(ctx, query); err != nil {
		return Response{}, service.WrapError(err, "failed to record query")
	}

	logger.InfoContext(ctx, "search started",
		"query_id", query.ID,
		"query_modality", req.Modality,
		"targets", targets,
		"limit", limit,
		"policy", e.policy.Name(),
	)

	// Sequential per-modality retrieval; subqueries are independent and
	// commutative with respect to the final merge.
	var merged []vectorstore.Candidate
	for _, target := range targets {
		candidates, err := e.searcher.SearchByModality(ctx, req.Vector, target, req.UserID, e.candidateWidth)
		if err != nil {
			logger.ErrorContext(ctx, "modality search failed", "query_id", query.ID, "modality", target, "error", err)
			return Response{}, service.WrapError(err, "search failed")
		}
		fused := e.policy.Apply(req.Modality, target, candidates)
		logger.DebugContext(ctx, "modality group fused",
			"modality", target,
			"retrieved", len(candidates),
			"kept", len(fused),
		)
		merged = append(merged, fused...)
	}

	// Stable sort: ties keep per-modality insertion order.
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})
	if len(merged) > limit {
		merged = merged[:limit]
	}

	records := make([]storage.SearchRecord, 0, len(merged))
	results := make([]Result, 0, len(merged))
	for _, c := range merged {
		records = append(records, storage.SearchRecord{
			SimilarityScore: c.Score,
			Modality:        c.Modality,
			ContentID:       c.ContentID,
			QueryID:         query.ID,
		})
		results = append(results, Result{
			ContentID: c.ContentID,
			Score:     c.Score,
			Modality:  c.Modality,
		})
	}

	if err := e.records.CreateBatch(ctx, records); err != nil {
		logger.ErrorContext(ctx, "search record batch failed", "query_id", query.ID, "records", len(records), "error", err)
		return Response{}, fmt.Errorf("%w: %v", service.ErrSearchPersistence, err)
	}

	logger.InfoContext(ctx, "search completed", "query_id", query.ID, "results", len(results))
	return Response{QueryID: query.ID, Results: results}, nil
}
