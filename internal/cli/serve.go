package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/coveway/textvec/internal/api/handlers"
	"github.com/coveway/textvec/internal/config"
	"github.com/coveway/textvec/internal/database"
	"github.com/coveway/textvec/internal/domain"
	"github.com/coveway/textvec/internal/openai"
	"github.com/coveway/textvec/internal/repository"
	"github.com/coveway/textvec/internal/server"
	"github.com/coveway/textvec/internal/service"
	gopenai "github.com/sashabaranov/go-openai"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	var (
		port      string
		noMigrate bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP search API",
		Long:  `Starts an HTTP server exposing similarity search over the collection.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port, noMigrate)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (default from config)")
	cmd.Flags().BoolVar(&noMigrate, "no-migrate", false, "Skip schema provisioning on startup")

	return cmd
}

func runServe(port string, noMigrate bool) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	shutdownTelemetry := initTelemetry(cfg)
	defer shutdownTelemetry()

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
	log.Println("connected to database")

	if !noMigrate {
		if err := database.Migrate(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to provision vector schema: %w", err)
		}
	}

	client := openai.NewClientWithConfig(openai.Config{
		APIKey:              cfg.OpenAIAPIKey,
		EmbeddingModel:      gopenai.EmbeddingModel(cfg.EmbeddingModel),
		EmbeddingDimensions: cfg.EmbeddingDimensions,
	})

	repo := repository.NewChunkRepository(pool)
	searchSvc := service.NewSearchService(client, repo, cfg.Collection)
	searchHandler := handlers.NewSearchHandler(searchSvc, cfg.TopK)

	router := server.NewRouter(server.RouterConfig{
		SearchHandler: searchHandler,
	})

	if port == "" {
		port = cfg.Port
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}
