package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/coveway/textvec/internal/domain"
)

// MockEmbeddingClient mocks the OpenAI client
type MockEmbeddingClient struct {
	mock.Mock
}

func (m *MockEmbeddingClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

// MockChunkStore mocks the chunk repository
type MockChunkStore struct {
	mock.Mock
}

func (m *MockChunkStore) Upsert(ctx context.Context, collection string, rec domain.Record) error {
	args := m.Called(ctx, collection, rec)
	return args.Error(0)
}

func (m *MockChunkStore) DeleteSource(ctx context.Context, collection, source string) error {
	args := m.Called(ctx, collection, source)
	return args.Error(0)
}

// stubSource is a DocumentSource with canned results.
type stubSource struct {
	name     string
	docs     []domain.Document
	failures []domain.ItemFailure
	err      error
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Load(ctx context.Context) ([]domain.Document, []domain.ItemFailure, error) {
	return s.docs, s.failures, s.err
}

func TestIngestService_IngestDocument_Success(t *testing.T) {
	mockClient := new(MockEmbeddingClient)
	mockStore := new(MockChunkStore)
	svc := NewIngestServiceWithChunkConfig(mockClient, mockStore, "docs", ChunkConfig{MaxChars: 3})

	ctx := context.Background()
	doc := domain.Document{Name: "facts.txt", Text: "a b c"}
	embedding := []float32{0.1, 0.2, 0.3}

	mockStore.On("DeleteSource", ctx, "docs", "facts.txt").Return(nil)
	for _, text := range []string{"a", "b", "c"} {
		mockClient.On("GenerateEmbedding", ctx, text).Return(embedding, nil)
	}
	mockStore.On("Upsert", ctx, "docs", mock.MatchedBy(func(rec domain.Record) bool {
		return rec.Chunk.Source == "facts.txt" && rec.Chunk.Index >= 1 && rec.Chunk.Index <= 3
	})).Return(nil).Times(3)

	written, failures := svc.IngestDocument(ctx, doc)

	assert.Equal(t, 3, written)
	assert.Empty(t, failures)
	mockClient.AssertExpectations(t)
	mockStore.AssertExpectations(t)
}

func TestIngestService_IngestDocument_EmptyDocument(t *testing.T) {
	mockClient := new(MockEmbeddingClient)
	mockStore := new(MockChunkStore)
	svc := NewIngestService(mockClient, mockStore, "docs")

	written, failures := svc.IngestDocument(context.Background(), domain.Document{Name: "empty.txt"})

	assert.Zero(t, written)
	assert.Empty(t, failures)
	// An empty document writes nothing and must not touch the store.
	mockStore.AssertNotCalled(t, "DeleteSource")
	mockClient.AssertNotCalled(t, "GenerateEmbedding")
}

func TestIngestService_IngestDocument_EmbeddingFailureIsIsolated(t *testing.T) {
	mockClient := new(MockEmbeddingClient)
	mockStore := new(MockChunkStore)
	svc := NewIngestServiceWithChunkConfig(mockClient, mockStore, "docs", ChunkConfig{MaxChars: 3})

	ctx := context.Background()
	doc := domain.Document{Name: "facts.txt", Text: "a b c"}
	embedding := []float32{0.5}
	embedErr := errors.New("rate limited")

	mockStore.On("DeleteSource", ctx, "docs", "facts.txt").Return(nil)
	mockClient.On("GenerateEmbedding", ctx, "a").Return(embedding, nil)
	mockClient.On("GenerateEmbedding", ctx, "b").Return(nil, embedErr)
	mockClient.On("GenerateEmbedding", ctx, "c").Return(embedding, nil)
	mockStore.On("Upsert", ctx, "docs", mock.Anything).Return(nil).Times(2)

	written, failures := svc.IngestDocument(ctx, doc)

	assert.Equal(t, 2, written)
	require.Len(t, failures, 1)
	assert.Equal(t, "facts.txt-chunk-2", failures[0].Item)
	assert.ErrorIs(t, failures[0].Err, embedErr)
	mockStore.AssertExpectations(t)
}

func TestIngestService_IngestDocument_UpsertFailureIsIsolated(t *testing.T) {
	mockClient := new(MockEmbeddingClient)
	mockStore := new(MockChunkStore)
	svc := NewIngestServiceWithChunkConfig(mockClient, mockStore, "docs", ChunkConfig{MaxChars: 3})

	ctx := context.Background()
	doc := domain.Document{Name: "facts.txt", Text: "a b"}
	embedding := []float32{0.5}
	storeErr := errors.New("connection reset")

	mockStore.On("DeleteSource", ctx, "docs", "facts.txt").Return(nil)
	mockClient.On("GenerateEmbedding", ctx, mock.Anything).Return(embedding, nil)
	mockStore.On("Upsert", ctx, "docs", mock.MatchedBy(func(rec domain.Record) bool {
		return rec.Chunk.Index == 1
	})).Return(storeErr)
	mockStore.On("Upsert", ctx, "docs", mock.MatchedBy(func(rec domain.Record) bool {
		return rec.Chunk.Index == 2
	})).Return(nil)

	written, failures := svc.IngestDocument(ctx, doc)

	assert.Equal(t, 1, written)
	require.Len(t, failures, 1)
	assert.Equal(t, "facts.txt-chunk-1", failures[0].Item)
}

func TestIngestService_IngestDocument_DeleteSourceFailureSkipsDocument(t *testing.T) {
	mockClient := new(MockEmbeddingClient)
	mockStore := new(MockChunkStore)
	svc := NewIngestService(mockClient, mockStore, "docs")

	ctx := context.Background()
	deleteErr := errors.New("deadlock detected")
	mockStore.On("DeleteSource", ctx, "docs", "facts.txt").Return(deleteErr)

	written, failures := svc.IngestDocument(ctx, domain.Document{Name: "facts.txt", Text: "hello"})

	assert.Zero(t, written)
	require.Len(t, failures, 1)
	assert.Equal(t, "facts.txt", failures[0].Item)
	mockClient.AssertNotCalled(t, "GenerateEmbedding")
}

func TestIngestService_Run_AggregatesReport(t *testing.T) {
	mockClient := new(MockEmbeddingClient)
	mockStore := new(MockChunkStore)
	svc := NewIngestServiceWithChunkConfig(mockClient, mockStore, "docs", ChunkConfig{MaxChars: 512})

	ctx := context.Background()
	src := &stubSource{
		name: "./documents",
		docs: []domain.Document{
			{Name: "one.txt", Text: "first document"},
			{Name: "two.txt", Text: "second document"},
		},
		failures: []domain.ItemFailure{{Item: "locked.txt", Err: errors.New("permission denied")}},
	}
	embedding := []float32{0.1}

	mockStore.On("DeleteSource", ctx, "docs", mock.Anything).Return(nil)
	mockClient.On("GenerateEmbedding", ctx, "first document").Return(embedding, nil)
	mockClient.On("GenerateEmbedding", ctx, "second document").Return(nil, errors.New("boom"))
	mockStore.On("Upsert", ctx, "docs", mock.Anything).Return(nil)

	report, err := svc.Run(ctx, src)

	require.NoError(t, err)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, "./documents", report.Source)
	assert.Equal(t, 3, report.FilesSeen)
	assert.Equal(t, 1, report.FilesIngested)
	assert.Equal(t, 1, report.ChunksWritten)
	require.Len(t, report.Failures, 2)
	assert.Equal(t, "locked.txt", report.Failures[0].Item)
	assert.Equal(t, "two.txt-chunk-1", report.Failures[1].Item)
	assert.True(t, report.Failed())
}

func TestIngestService_Run_ListingFailureAborts(t *testing.T) {
	mockClient := new(MockEmbeddingClient)
	mockStore := new(MockChunkStore)
	svc := NewIngestService(mockClient, mockStore, "docs")

	listErr := errors.New("no such directory")
	report, err := svc.Run(context.Background(), &stubSource{name: "./missing", err: listErr})

	assert.Nil(t, report)
	assert.ErrorIs(t, err, listErr)
	mockClient.AssertNotCalled(t, "GenerateEmbedding")
}
