//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coveway/textvec/internal/api/handlers"
	"github.com/coveway/textvec/internal/repository"
	"github.com/coveway/textvec/internal/server"
	"github.com/coveway/textvec/internal/service"
	"github.com/coveway/textvec/internal/source"
	"github.com/coveway/textvec/internal/testutil"
)

const embeddingDims = 1536

// hashEmbedder derives a deterministic unit vector from the text so
// the pipeline can run end to end without a live embedding API.
// Identical text always maps to the identical vector.
type hashEmbedder struct{}

func (hashEmbedder) GenerateEmbedding(_ context.Context, text string) ([]float32, error) {
	sum := sha256.Sum256([]byte(text))
	vec := make([]float32, embeddingDims)
	var norm float64
	for i := range vec {
		b := sum[(i*4)%len(sum):]
		bits := binary.LittleEndian.Uint32(append([]byte{}, b[0], b[1], b[2], byte(i)))
		v := float64(bits%1000)/500.0 - 1.0
		vec[i] = float32(v)
		norm += v * v
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec, nil
}

// TestEnv wires a real Postgres container, the repository, the ingest
// service and an in-process HTTP server around a deterministic embedder.
type TestEnv struct {
	T         *testing.T
	Ctx       context.Context
	Pool      *pgxpool.Pool
	IngestSvc *service.IngestService
	Server    *httptest.Server
	DocsDir   string
}

func SetupEnv(t *testing.T) *TestEnv {
	ctx := context.Background()

	pc := testutil.NewPostgresContainer(ctx, t)
	t.Cleanup(func() { pc.Terminate(ctx) })

	pool := testutil.NewTestPool(ctx, t, pc)
	t.Cleanup(pool.Close)

	repo := repository.NewChunkRepository(pool)
	embedder := hashEmbedder{}

	ingestSvc := service.NewIngestServiceWithChunkConfig(embedder, repo, "documents", service.ChunkConfig{MaxChars: 64})
	searchSvc := service.NewSearchService(embedder, repo, "documents")

	router := server.NewRouter(server.RouterConfig{
		SearchHandler: handlers.NewSearchHandler(searchSvc, 4),
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &TestEnv{
		T:         t,
		Ctx:       ctx,
		Pool:      pool,
		IngestSvc: ingestSvc,
		Server:    srv,
		DocsDir:   t.TempDir(),
	}
}

// WriteDoc drops a .txt file into the env's documents directory.
func (env *TestEnv) WriteDoc(name, text string) {
	env.T.Helper()
	if err := os.WriteFile(filepath.Join(env.DocsDir, name), []byte(text), 0o644); err != nil {
		env.T.Fatalf("failed to write document %s: %v", name, err)
	}
}

// Ingest runs a full ingest pass over the documents directory.
func (env *TestEnv) Ingest() {
	env.T.Helper()
	report, err := env.IngestSvc.Run(env.Ctx, source.NewDirSource(env.DocsDir))
	if err != nil {
		env.T.Fatalf("ingest failed: %v", err)
	}
	if report.Failed() {
		env.T.Fatalf("ingest had failures: %v", report.Failures)
	}
}

type searchResponse struct {
	Data struct {
		Matches []struct {
			ID    string  `json:"id"`
			Score float32 `json:"score"`
			Text  string  `json:"text"`
		} `json:"matches"`
	} `json:"data"`
}

// Search posts a query to the running server and decodes the response.
func (env *TestEnv) Search(query string, topK int) (int, *searchResponse) {
	env.T.Helper()

	body := map[string]any{"query": query}
	if topK > 0 {
		body["top_k"] = topK
	}
	payload, err := json.Marshal(body)
	if err != nil {
		env.T.Fatalf("failed to marshal request: %v", err)
	}

	resp, err := http.Post(env.Server.URL+"/search", "application/json", bytes.NewReader(payload))
	if err != nil {
		env.T.Fatalf("search request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, nil
	}

	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		env.T.Fatalf("failed to decode response: %v", err)
	}
	return resp.StatusCode, &out
}

// ChunkCount reports how many chunks are stored for the collection.
func (env *TestEnv) ChunkCount() int64 {
	env.T.Helper()
	var count int64
	if err := env.Pool.QueryRow(env.Ctx, "SELECT COUNT(*) FROM chunks WHERE collection = $1", "documents").Scan(&count); err != nil {
		env.T.Fatalf("failed to count chunks: %v", err)
	}
	return count
}

func chunkID(source string, index int) string {
	return fmt.Sprintf("%s-chunk-%d", source, index)
}
