package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/coveway/textvec/internal/domain"
)

// SearchStore defines the repository interface for nearest-neighbor queries
type SearchStore interface {
	Search(ctx context.Context, collection string, embedding []float32, topK int) ([]domain.Match, error)
}

// SearchService embeds a query and runs a top-k similarity search
// against a collection.
type SearchService struct {
	client     EmbeddingClient
	store      SearchStore
	collection string
}

func NewSearchService(client EmbeddingClient, store SearchStore, collection string) *SearchService {
	return &SearchService{
		client:     client,
		store:      store,
		collection: collection,
	}
}

// Search returns up to topK matches ordered by descending score. An
// empty result is a valid outcome, not an error.
func (s *SearchService) Search(ctx context.Context, query string, topK int) ([]domain.Match, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrEmptyQuery
	}

	embedding, err := s.client.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	matches, err := s.store.Search(ctx, s.collection, embedding, topK)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	return matches, nil
}
