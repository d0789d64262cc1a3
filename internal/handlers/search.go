package handlers

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"modalsearch/internal/contextutil"
	"modalsearch/internal/embedding"
	"modalsearch/internal/files"
	"modalsearch/internal/search"
	"modalsearch/internal/storage"
)

// SearchHandler handles multipart search requests and query history.
type SearchHandler struct {
	producer  *embedding.Producer
	engine    search.Engine
	queries   storage.QueryStore
	records   storage.SearchRecordStore
	fileStore files.Store
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(
	producer *embedding.Producer,
	engine search.Engine,
	queries storage.QueryStore,
	records storage.SearchRecordStore,
	fileStore files.Store,
) *SearchHandler {
	return &SearchHandler{
		producer:  producer,
		engine:    engine,
		queries:   queries,
		records:   records,
		fileStore: fileStore,
	}
}

// SearchResponse is returned from a successful search.
type SearchResponse struct {
	QueryID uint            `json:"query_id"`
	Results []search.Result `json:"results"`
}

// QueryResponse is one entry of the query history.
type QueryResponse struct {
	ID        uint   `json:"id"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// Search embeds every text field and file part of the multipart request,
// combines them into one query vector and runs the engine. Query files
// land in the scratch area and are reclaimed by the cleaner, not here.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	userID, ok := requestUser(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart body")
		return
	}

	texts := r.MultipartForm.Value["text"]
	fileParts := r.MultipartForm.File["file"]
	if len(texts) == 0 && len(fileParts) == 0 {
		writeError(w, http.StatusBadRequest, "At least one text or file part is required")
		return
	}

	limit := 0
	if raw := r.FormValue("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = parsed
	}
	targets := r.MultipartForm.Value["target_modality"]

	var (
		vectors    [][]float32
		modalities []string
		display    []string
	)
	for _, text := range texts {
		vec, mod, err := h.producer.EmbedText(ctx, text)
		if err != nil {
			handleServiceError(w, ctx, err, "Failed to embed query text")
			return
		}
		vectors = append(vectors, vec)
		modalities = append(modalities, mod)
		display = append(display, text)
	}
	for _, part := range fileParts {
		file, err := part.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "Unreadable file part")
			return
		}
		relPath, _, err := h.fileStore.SaveQueryFile(userID, part.Filename, file)
		_ = file.Close()
		if err != nil {
			logger.ErrorContext(ctx, "failed to store query file", "filename", part.Filename, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to store query file")
			return
		}
		absPath, err := h.fileStore.Resolve(relPath)
		if err != nil {
			handleServiceError(w, ctx, err, "Failed to embed query file")
			return
		}

		vec, mod, err := h.producer.EmbedFile(ctx, absPath)
		if err != nil {
			handleServiceError(w, ctx, err, "Failed to embed query file")
			return
		}
		vectors = append(vectors, vec)
		modalities = append(modalities, mod)
		display = append(display, filepath.Base(part.Filename))
	}

	vector, dominant, err := search.Combine(vectors, modalities)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to combine query parts")
		return
	}

	resp, err := h.engine.Search(ctx, search.Request{
		UserID:           userID,
		Vector:           vector,
		Modality:         dominant,
		DisplayText:      strings.Join(display, "; "),
		Limit:            limit,
		TargetModalities: targets,
	})
	if err != nil {
		handleServiceError(w, ctx, err, "Search failed")
		return
	}

	writeJSON(w, http.StatusOK, SearchResponse{QueryID: resp.QueryID, Results: resp.Results})
}

// History returns the caller's past queries, newest first.
func (h *SearchHandler) History(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := requestUser(w, r)
	if !ok {
		return
	}

	rows, err := h.queries.ListByUser(ctx, userID)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to list queries")
		return
	}

	out := make([]QueryResponse, 0, len(rows))
	for _, q := range rows {
		out = append(out, QueryResponse{
			ID:        q.ID,
			Text:      q.Text,
			Timestamp: q.Timestamp.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// Records returns the persisted results of one past query.
func (h *SearchHandler) Records(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := requestUser(w, r)
	if !ok {
		return
	}
	queryID, err := strconv.ParseUint(chi.URLParam(r, "queryID"), 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid query id")
		return
	}

	if _, err := h.queries.GetByID(ctx, userID, uint(queryID)); err != nil {
		handleServiceError(w, ctx, err, "Failed to load query")
		return
	}
	rows, err := h.records.ListByQuery(ctx, uint(queryID))
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to list search records")
		return
	}

	results := make([]search.Result, 0, len(rows))
	for _, rec := range rows {
		results = append(results, search.Result{
			ContentID: rec.ContentID,
			Score:     rec.SimilarityScore,
			Modality:  rec.Modality,
		})
	}
	writeJSON(w, http.StatusOK, SearchResponse{QueryID: uint(queryID), Results: results})
}

// Delete removes one query and its records from the history.
func (h *SearchHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	userID, ok := requestUser(w, r)
	if !ok {
		return
	}
	queryID, err := strconv.ParseUint(chi.URLParam(r, "queryID"), 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid query id")
		return
	}

	query, err := h.queries.GetByID(ctx, userID, uint(queryID))
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to load query")
		return
	}
	if err := h.queries.Delete(ctx, query); err != nil {
		handleServiceError(w, ctx, err, "Failed to delete query")
		return
	}

	logger.InfoContext(ctx, "query deleted", "query_id", query.ID)
	w.WriteHeader(http.StatusNoContent)
}
