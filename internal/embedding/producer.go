package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"modalsearch/internal/contextutil"
	"modalsearch/internal/jobs"
	"modalsearch/internal/modality"
	"modalsearch/internal/service"
)

// FileJobPayload is the payload of a process_file job.
type FileJobPayload struct {
	ContentID uint   `json:"content_id"`
	Path      string `json:"path"`
	Modality  string `json:"modality"`
}

// FileJobResult is stored as the result of a successful process_file job.
type FileJobResult struct {
	ContentID   uint `json:"content_id"`
	EmbeddingID uint `json:"embedding_id"`
}

// QueryJobPayload is the payload of a process_query job. Exactly one of
// Text or Path is set.
type QueryJobPayload struct {
	Text     string `json:"text,omitempty"`
	Path     string `json:"path,omitempty"`
	Modality string `json:"modality"`
}

// QueryJobResult carries the query vector back to the waiting caller.
type QueryJobResult struct {
	Vector   []float32 `json:"vector"`
	Modality string    `json:"modality"`
}

// Producer is the API-side entry point to the embedding pipeline. Content
// embeddings are fire-and-forget; query embeddings block for the result
// within a fixed window.
type Producer struct {
	queue       jobs.Client
	syncTimeout time.Duration
}

// NewProducer creates a producer over the job queue. syncTimeout bounds
// how long interactive callers wait for a query embedding.
func NewProducer(queue jobs.Client, syncTimeout time.Duration) *Producer {
	return &Producer{queue: queue, syncTimeout: syncTimeout}
}

// EnqueueFile schedules embedding generation for stored content and
// returns the job id for status tracking.
func (p *Producer) EnqueueFile(ctx context.Context, contentID uint, path, mod string) (string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	payload := FileJobPayload{ContentID: contentID, Path: path, Modality: mod}
	jobID, err := p.queue.Enqueue(ctx, jobs.JobProcessFile, payload, jobs.PriorityNormal)
	if err != nil {
		return "", p.mapQueueError(err)
	}

	logger.InfoContext(ctx, "content embedding scheduled", "job_id", jobID, "content_id", contentID, "modality", mod)
	return jobID, nil
}

// EmbedText embeds a query text snippet synchronously.
func (p *Producer) EmbedText(ctx context.Context, text string) ([]float32, string, error) {
	if text == "" {
		return nil, "", fmt.Errorf("%w: empty query text", service.ErrInvalidInput)
	}
	return p.embedQuery(ctx, QueryJobPayload{Text: text, Modality: modality.Text})
}

// EmbedFile embeds a query file synchronously. The modality is inferred
// from the file extension.
func (p *Producer) EmbedFile(ctx context.Context, path string) ([]float32, string, error) {
	mod, ok := modality.FromPath(path)
	if !ok {
		return nil, "", fmt.Errorf("%w: %q", service.ErrUnsupportedModality, path)
	}
	return p.embedQuery(ctx, QueryJobPayload{Path: path, Modality: mod})
}

// embedQuery runs a high-priority job and waits for its vector. The wait
// is a hard bound: a slow worker yields ErrEmbeddingTimeout and the caller
// never sees a partial vector.
func (p *Producer) embedQuery(ctx context.Context, payload QueryJobPayload) ([]float32, string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	jobID, err := p.queue.Enqueue(ctx, jobs.JobProcessQuery, payload, jobs.PriorityHigh)
	if err != nil {
		return nil, "", p.mapQueueError(err)
	}

	var result QueryJobResult
	if err := p.queue.Wait(ctx, jobID, p.syncTimeout, &result); err != nil {
		if errors.Is(err, jobs.ErrWaitTimeout) {
			logger.WarnContext(ctx, "query embedding timed out", "job_id", jobID, "timeout", p.syncTimeout)
			return nil, "", fmt.Errorf("%w: job %s", service.ErrEmbeddingTimeout, jobID)
		}
		return nil, "", p.mapQueueError(err)
	}

	if len(result.Vector) == 0 {
		return nil, "", fmt.Errorf("query embedding job %s returned an empty vector", jobID)
	}
	return result.Vector, result.Modality, nil
}

func (p *Producer) mapQueueError(err error) error {
	if errors.Is(err, jobs.ErrUnavailable) {
		return fmt.Errorf("%w: %v", service.ErrJobSystemUnavailable, err)
	}
	return err
}
