package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/coveway/textvec/internal/config"
	"github.com/coveway/textvec/internal/database"
	"github.com/coveway/textvec/internal/domain"
	"github.com/coveway/textvec/internal/openai"
	"github.com/coveway/textvec/internal/repository"
	"github.com/coveway/textvec/internal/service"
	gopenai "github.com/sashabaranov/go-openai"
)

// SearchCmd returns the search command
func SearchCmd() *cobra.Command {
	var (
		topK       int
		outputJSON bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find chunks similar to a query",
		Long: `Embeds the query text and returns the stored chunks closest to it by
cosine similarity, best match first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(args[0], topK, outputJSON)
		},
	}

	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "Number of results to return (default from config)")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "Print results as JSON")

	return cmd
}

func runSearch(query string, topK int, outputJSON bool) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if !cfg.HasOpenAI() {
		return domain.ErrMissingAPIKey
	}
	if cfg.DatabaseURL == "" {
		return domain.ErrMissingDatabaseURL
	}

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	client := openai.NewClientWithConfig(openai.Config{
		APIKey:              cfg.OpenAIAPIKey,
		EmbeddingModel:      gopenai.EmbeddingModel(cfg.EmbeddingModel),
		EmbeddingDimensions: cfg.EmbeddingDimensions,
	})

	if topK <= 0 {
		topK = cfg.TopK
	}

	repo := repository.NewChunkRepository(pool)
	searchSvc := service.NewSearchService(client, repo, cfg.Collection)

	matches, err := searchSvc.Search(ctx, query, topK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if outputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(matches)
	}

	printMatches(matches)
	return nil
}

func printMatches(matches []domain.Match) {
	if len(matches) == 0 {
		fmt.Println("No similar results found.")
		return
	}

	fmt.Printf("Found %d result(s):\n\n", len(matches))
	for i, m := range matches {
		fmt.Printf("%d. Score: %.4f\n", i+1, m.Score)
		fmt.Printf("   ID: %s\n", m.ID)
		fmt.Printf("   Text: %s\n\n", m.Text)
	}
}
