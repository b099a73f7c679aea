package service

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/coveway/textvec/internal/domain"
)

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// ChunkStore defines the repository interface for chunk persistence
type ChunkStore interface {
	Upsert(ctx context.Context, collection string, rec domain.Record) error
	DeleteSource(ctx context.Context, collection, source string) error
}

// DocumentSource supplies the documents for an ingest run. Load
// returns the readable documents, a per-item failure for each
// unreadable one, and a non-nil error only when listing the source
// itself failed.
type DocumentSource interface {
	Name() string
	Load(ctx context.Context) ([]domain.Document, []domain.ItemFailure, error)
}

// IngestService runs the chunk-embed-upsert pipeline. Everything is
// strictly sequential: one document, one chunk, one embedding call,
// one upsert at a time.
type IngestService struct {
	client     EmbeddingClient
	store      ChunkStore
	collection string
	chunkCfg   ChunkConfig
}

// NewIngestService creates an IngestService with the default chunk size.
func NewIngestService(client EmbeddingClient, store ChunkStore, collection string) *IngestService {
	return NewIngestServiceWithChunkConfig(client, store, collection, DefaultChunkConfig())
}

func NewIngestServiceWithChunkConfig(client EmbeddingClient, store ChunkStore, collection string, cfg ChunkConfig) *IngestService {
	if cfg.MaxChars <= 0 {
		cfg = DefaultChunkConfig()
	}
	return &IngestService{
		client:     client,
		store:      store,
		collection: collection,
		chunkCfg:   cfg,
	}
}

// Run ingests every document the source yields and aggregates the
// outcome into a report. Per-item failures never abort the run; only
// a source listing failure does.
func (s *IngestService) Run(ctx context.Context, src DocumentSource) (*domain.IngestReport, error) {
	report := &domain.IngestReport{
		RunID:  uuid.NewString(),
		Source: src.Name(),
	}

	docs, loadFailures, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}

	report.FilesSeen = len(docs) + len(loadFailures)
	report.Failures = append(report.Failures, loadFailures...)

	for _, doc := range docs {
		log.Printf("processing file: %s", doc.Name)
		written, failures := s.IngestDocument(ctx, doc)
		report.ChunksWritten += written
		report.Failures = append(report.Failures, failures...)
		if len(failures) == 0 {
			report.FilesIngested++
		}
	}

	return report, nil
}

// IngestDocument chunks a single document, embeds each chunk, and
// upserts the records. Existing chunks for the document are replaced
// so indices stay contiguous when a document shrinks. A failed embed
// or upsert is recorded against the chunk id and the remaining chunks
// still go through.
func (s *IngestService) IngestDocument(ctx context.Context, doc domain.Document) (int, []domain.ItemFailure) {
	chunks := ChunkDocument(doc, s.chunkCfg)
	if len(chunks) == 0 {
		return 0, nil
	}

	if err := s.store.DeleteSource(ctx, s.collection, doc.Name); err != nil {
		return 0, []domain.ItemFailure{{Item: doc.Name, Err: err}}
	}

	written := 0
	var failures []domain.ItemFailure
	for _, chunk := range chunks {
		embedding, err := s.client.GenerateEmbedding(ctx, chunk.Text)
		if err != nil {
			failures = append(failures, domain.ItemFailure{Item: chunk.ID(), Err: err})
			continue
		}

		rec := domain.Record{Chunk: chunk, Embedding: embedding}
		if err := s.store.Upsert(ctx, s.collection, rec); err != nil {
			failures = append(failures, domain.ItemFailure{Item: chunk.ID(), Err: err})
			continue
		}

		log.Printf("stored chunk %s", chunk.ID())
		written++
	}

	return written, failures
}
