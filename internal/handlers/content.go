package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"modalsearch/internal/contextutil"
	"modalsearch/internal/embedding"
	"modalsearch/internal/files"
	"modalsearch/internal/jobs"
	"modalsearch/internal/modality"
	"modalsearch/internal/storage"
)

// maxUploadBytes caps multipart memory buffering; larger parts spill to disk.
const maxUploadBytes = 64 << 20

// ContentHandler handles content upload and library management.
type ContentHandler struct {
	fileStore files.Store
	contents  storage.ContentStore
	tasks     storage.TaskStore
	producer  *embedding.Producer
}

// NewContentHandler creates a new ContentHandler.
func NewContentHandler(
	fileStore files.Store,
	contents storage.ContentStore,
	tasks storage.TaskStore,
	producer *embedding.Producer,
) *ContentHandler {
	return &ContentHandler{
		fileStore: fileStore,
		contents:  contents,
		tasks:     tasks,
		producer:  producer,
	}
}

// ContentResponse is the JSON shape of one content row.
type ContentResponse struct {
	ID          uint    `json:"id"`
	ContentPath string  `json:"content_path"`
	ContentTag  bool    `json:"content_tag"`
	SizeKB      float64 `json:"size_kb"`
	Modality    string  `json:"modality"`
	UploadDate  string  `json:"upload_date"`
	Embedded    bool    `json:"embedded"`
	Thumbnail   *string `json:"thumbnail_path,omitempty"`
}

// UploadResponse is returned from a successful upload.
type UploadResponse struct {
	Content ContentResponse `json:"content"`
	TaskID  string          `json:"task_id"`
}

func contentResponse(c *storage.Content) ContentResponse {
	return ContentResponse{
		ID:          c.ID,
		ContentPath: c.ContentPath,
		ContentTag:  c.ContentTag,
		SizeKB:      c.ContentSize,
		Modality:    c.Modality,
		UploadDate:  c.UploadDate.UTC().Format(time.RFC3339),
		Embedded:    c.EmbeddingID != nil,
		Thumbnail:   c.ThumbnailPath,
	}
}

// Upload accepts a multipart content file, stores it and schedules its
// embedding. The response carries the task id for progress polling; the
// content is invisible to search until the job attaches an embedding.
func (h *ContentHandler) Upload(w http.ResponseWriter, r *http.Request) {
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
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "File is required")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	mod, ok := modality.FromPath(header.Filename)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unsupported file type: %s", header.Filename))
		return
	}
	tag := r.FormValue("tag") != "false"

	relPath, size, err := h.fileStore.SaveFile(userID, header.Filename, file)
	if err != nil {
		logger.ErrorContext(ctx, "failed to store upload", "filename", header.Filename, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to store file")
		return
	}

	content := &storage.Content{
		ContentPath: relPath,
		ContentTag:  tag,
		ContentSize: float64(size) / 1024,
		Modality:    mod,
		UserID:      userID,
	}
	if err := h.contents.Create(ctx, content); err != nil {
		logger.ErrorContext(ctx, "failed to create content row", "path", relPath, "error", err)
		if delErr := h.fileStore.Delete(relPath); delErr != nil {
			logger.WarnContext(ctx, "failed to remove orphaned upload", "path", relPath, "error", delErr)
		}
		writeError(w, http.StatusInternalServerError, "Failed to save content")
		return
	}

	absPath, err := h.fileStore.Resolve(relPath)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to schedule embedding")
		return
	}
	jobID, err := h.producer.EnqueueFile(ctx, content.ID, absPath, mod)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to schedule embedding")
		return
	}

	task := &storage.Task{
		TaskID:    jobID,
		Status:    jobs.StatusPending,
		ContentID: content.ID,
		UserID:    userID,
	}
	if err := h.tasks.Create(ctx, task); err != nil {
		// The job is already queued; tracking degrades to the queue's
		// own status keys.
		logger.ErrorContext(ctx, "failed to create task row", "job_id", jobID, "error", err)
	}

	logger.InfoContext(ctx, "content uploaded", "content_id", content.ID, "modality", mod, "task_id", jobID)
	writeJSON(w, http.StatusCreated, UploadResponse{Content: contentResponse(content), TaskID: jobID})
}

// List returns the caller's content library.
func (h *ContentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := requestUser(w, r)
	if !ok {
		return
	}

	rows, err := h.contents.ListByUser(ctx, userID)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to list contents")
		return
	}

	out := make([]ContentResponse, 0, len(rows))
	for i := range rows {
		out = append(out, contentResponse(&rows[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// Get returns one content row scoped to its owner.
func (h *ContentHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := requestUser(w, r)
	if !ok {
		return
	}
	contentID, err := strconv.ParseUint(chi.URLParam(r, "contentID"), 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid content id")
		return
	}

	content, err := h.contents.GetByID(ctx, userID, uint(contentID))
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to load content")
		return
	}
	writeJSON(w, http.StatusOK, contentResponse(content))
}

// Delete removes a content row, its dependents and the stored file.
func (h *ContentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	userID, ok := requestUser(w, r)
	if !ok {
		return
	}
	contentID, err := strconv.ParseUint(chi.URLParam(r, "contentID"), 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid content id")
		return
	}

	content, err := h.contents.GetByID(ctx, userID, uint(contentID))
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to load content")
		return
	}
	if err := h.contents.Delete(ctx, content); err != nil {
		handleServiceError(w, ctx, err, "Failed to delete content")
		return
	}
	// Rows are gone; a leftover file only wastes disk and the next sweep
	// of the operator's choosing can reclaim it.
	if err := h.fileStore.Delete(content.ContentPath); err != nil {
		logger.WarnContext(ctx, "failed to remove content file", "path", content.ContentPath, "error", err)
	}

	logger.InfoContext(ctx, "content deleted", "content_id", content.ID)
	w.WriteHeader(http.StatusNoContent)
}
