package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/pgvector/pgvector-go"

	"modalsearch/internal/contextutil"
	"modalsearch/internal/jobs"
	"modalsearch/internal/modality"
	"modalsearch/internal/storage"
)

// Processor is the worker-side half of the pipeline. It owns the encoder
// and turns queued jobs into embedding rows or query vectors.
//
// The encoder is built lazily on first use and shared read-only afterwards,
// so a worker that only drains the queue never pays for model wiring, and
// concurrent first jobs cannot double-construct it.
type Processor struct {
	newEncoder func() Encoder
	initOnce   sync.Once
	encoder    Encoder

	contents   storage.ContentStore
	embeddings storage.EmbeddingStore
	models     storage.ModelStore
}

// NewProcessor creates a processor. newEncoder is invoked exactly once, on
// the first job that needs it.
func NewProcessor(
	newEncoder func() Encoder,
	contents storage.ContentStore,
	embeddings storage.EmbeddingStore,
	models storage.ModelStore,
) *Processor {
	return &Processor{
		newEncoder: newEncoder,
		contents:   contents,
		embeddings: embeddings,
		models:     models,
	}
}

func (p *Processor) enc() Encoder {
	p.initOnce.Do(func() {
		p.encoder = p.newEncoder()
	})
	return p.encoder
}

// Register wires the processor's handlers into a worker pool.
func (p *Processor) Register(w *jobs.Worker) {
	w.Handle(jobs.JobProcessFile, p.ProcessFile)
	w.Handle(jobs.JobProcessQuery, p.ProcessQuery)
}

// ProcessFile embeds stored content and attaches the resulting embedding
// row to it. The content row exists before the job does, so attachment
// failures surface as job failures, not silent drops.
func (p *Processor) ProcessFile(ctx context.Context, job *jobs.Job) (any, error) {
	logger := contextutil.LoggerFromContext(ctx)

	var payload FileJobPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode file job payload: %w", err)
	}
	if !modality.Valid(payload.Modality) {
		return nil, fmt.Errorf("unsupported modality %q", payload.Modality)
	}

	vec, err := p.enc().EncodeFile(ctx, payload.Path, payload.Modality)
	if err != nil {
		return nil, fmt.Errorf("failed to encode content %d: %w", payload.ContentID, err)
	}

	model, err := p.models.GetOrCreateDefault(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve embedding model: %w", err)
	}

	row := &storage.Embedding{
		Vector:   pgvector.NewVector(vec),
		Modality: payload.Modality,
		ModelID:  model.ID,
	}
	if err := p.embeddings.Create(ctx, row); err != nil {
		return nil, fmt.Errorf("failed to store embedding: %w", err)
	}
	if err := p.contents.AttachEmbedding(ctx, payload.ContentID, row.ID); err != nil {
		return nil, fmt.Errorf("failed to attach embedding to content %d: %w", payload.ContentID, err)
	}

	logger.InfoContext(ctx, "content embedded",
		"content_id", payload.ContentID,
		"embedding_id", row.ID,
		"modality", payload.Modality,
	)
	return FileJobResult{ContentID: payload.ContentID, EmbeddingID: row.ID}, nil
}

// ProcessQuery embeds a query input and returns the vector as the job
// result. Nothing is persisted; the waiting API side owns the query row.
func (p *Processor) ProcessQuery(ctx context.Context, job *jobs.Job) (any, error) {
	var payload QueryJobPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode query job payload: %w", err)
	}

	switch {
	case payload.Text != "":
		vec, err := p.enc().EncodeText(ctx, payload.Text)
		if err != nil {
			return nil, fmt.Errorf("failed to encode query text: %w", err)
		}
		return QueryJobResult{Vector: vec, Modality: modality.Text}, nil
	case payload.Path != "":
		if !modality.Valid(payload.Modality) {
			return nil, fmt.Errorf("unsupported modality %q", payload.Modality)
		}
		vec, err := p.enc().EncodeFile(ctx, payload.Path, payload.Modality)
		if err != nil {
			return nil, fmt.Errorf("failed to encode query file: %w", err)
		}
		return QueryJobResult{Vector: vec, Modality: payload.Modality}, nil
	default:
		return nil, fmt.Errorf("query job carries neither text nor file")
	}
}
