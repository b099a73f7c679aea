// Package repository persists chunk embeddings in Postgres+pgvector.
package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/coveway/textvec/internal/domain"
)

// dbtx is the subset of pgx operations the repositories need, satisfied
// by both *pgxpool.Pool and pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ChunkRepository handles persistence of chunk embeddings.
type ChunkRepository struct {
	db dbtx
}

func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{db: pool}
}

func NewChunkRepositoryWithTx(tx dbtx) *ChunkRepository {
	return &ChunkRepository{db: tx}
}

// Upsert inserts a record into the collection, replacing any existing
// record with the same id.
func (r *ChunkRepository) Upsert(ctx context.Context, collection string, rec domain.Record) error {
	now := time.Now().UTC()
	_, err := r.db.Exec(ctx,
		`INSERT INTO chunks
			(id, collection, source, chunk_index, content, embedding, created_at, updated_at)
		 VALUES
			($1, $2, $3, $4, $5, $6, $7, $7)
		 ON CONFLICT (collection, id) DO UPDATE SET
			source = EXCLUDED.source,
			chunk_index = EXCLUDED.chunk_index,
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding,
			updated_at = EXCLUDED.updated_at`,
		rec.Chunk.ID(),
		collection,
		rec.Chunk.Source,
		rec.Chunk.Index,
		rec.Chunk.Text,
		pgvector.NewVector(rec.Embedding),
		now,
	)
	return err
}

// DeleteSource removes every chunk a source document contributed to a
// collection. Re-ingesting a shrunken document must not leave a stale
// tail of higher-indexed chunks behind.
func (r *ChunkRepository) DeleteSource(ctx context.Context, collection, source string) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM chunks WHERE collection = $1 AND source = $2`,
		collection, source,
	)
	return err
}

// Search returns the topK nearest chunks in the collection by cosine
// distance, highest score first.
func (r *ChunkRepository) Search(ctx context.Context, collection string, embedding []float32, topK int) ([]domain.Match, error) {
	if topK <= 0 {
		topK = 4
	}

	vec := pgvector.NewVector(embedding)

	rows, err := r.db.Query(ctx,
		`SELECT id, content, 1.0 / (1.0 + (embedding <=> $1)) AS score
		 FROM chunks
		 WHERE collection = $2
		 ORDER BY embedding <=> $1
		 LIMIT $3`,
		vec, collection, topK,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]domain.Match, 0, topK)
	for rows.Next() {
		var m domain.Match
		if err := rows.Scan(&m.ID, &m.Text, &m.Score); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}

	return matches, rows.Err()
}

// Count returns the number of chunks stored in a collection.
func (r *ChunkRepository) Count(ctx context.Context, collection string) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM chunks WHERE collection = $1`,
		collection,
	).Scan(&count)
	return count, err
}
