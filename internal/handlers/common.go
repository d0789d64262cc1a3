// Package handlers implements the HTTP endpoints of the search backend.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"modalsearch/internal/contextutil"
	"modalsearch/internal/service"
	"modalsearch/internal/storage"
)

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// requestUser extracts the caller's user id from the request context and
// writes a 401 when it is absent.
func requestUser(w http.ResponseWriter, r *http.Request) (uint, bool) {
	userID, ok := contextutil.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "User identity required")
		return 0, false
	}
	return userID, true
}

// handleServiceError maps service sentinels to HTTP status codes.
func handleServiceError(w http.ResponseWriter, ctx context.Context, err error, defaultMsg string) {
	logger := contextutil.LoggerFromContext(ctx)

	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUnsupportedModality):
		writeError(w, http.StatusBadRequest, "Unsupported file type")
	case errors.Is(err, service.ErrEmbeddingTimeout):
		logger.WarnContext(ctx, "embedding timed out", "error", err)
		writeError(w, http.StatusGatewayTimeout, "Embedding timed out")
	case errors.Is(err, service.ErrJobSystemUnavailable):
		logger.ErrorContext(ctx, "job system unavailable", "error", err)
		writeError(w, http.StatusServiceUnavailable, "Background processing unavailable")
	default:
		logger.ErrorContext(ctx, defaultMsg, "error", err)
		writeError(w, http.StatusInternalServerError, defaultMsg)
	}
}
