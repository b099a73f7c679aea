package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/coveway/textvec/internal/config"
	"github.com/coveway/textvec/internal/database"
	"github.com/coveway/textvec/internal/domain"
	"github.com/coveway/textvec/internal/jobs"
	"github.com/coveway/textvec/internal/openai"
	"github.com/coveway/textvec/internal/repository"
	"github.com/coveway/textvec/internal/service"
	"github.com/coveway/textvec/internal/source"
	"github.com/coveway/textvec/internal/telemetry"
	gopenai "github.com/sashabaranov/go-openai"
)

// IngestCmd returns the ingest command
func IngestCmd() *cobra.Command {
	var (
		fromS3    bool
		watch     bool
		interval  time.Duration
		chunkSize int
		noMigrate bool
	)

	cmd := &cobra.Command{
		Use:   "ingest [dir]",
		Short: "Chunk, embed, and store text documents",
		Long: `Reads .txt files from a directory (default ./documents), splits them
into word-aligned chunks, embeds each chunk, and upserts the vectors
into the configured collection. With --s3 the documents are read from
the configured S3 bucket instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) > 0 {
				dir = args[0]
			}
			return runIngest(dir, fromS3, watch, interval, chunkSize, noMigrate)
		},
	}

	cmd.Flags().BoolVar(&fromS3, "s3", false, "Ingest from the configured S3 bucket instead of a directory")
	cmd.Flags().BoolVar(&watch, "watch", false, "Keep running and re-ingest the source on an interval")
	cmd.Flags().DurationVar(&interval, "interval", 5*time.Minute, "Poll interval for --watch")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "Maximum chunk size in characters (default from config)")
	cmd.Flags().BoolVar(&noMigrate, "no-migrate", false, "Skip schema provisioning on startup")

	return cmd
}

func runIngest(dir string, fromS3, watch bool, interval time.Duration, chunkSize int, noMigrate bool) error {
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

	// Provision the vector schema before any processing; a failure
	// here aborts the run.
	if !noMigrate {
		if err := database.Migrate(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to provision vector schema: %w", err)
		}
	}

	src, err := buildSource(ctx, cfg, dir, fromS3)
	if err != nil {
		return err
	}

	client := openai.NewClientWithConfig(openai.Config{
		APIKey:              cfg.OpenAIAPIKey,
		EmbeddingModel:      gopenai.EmbeddingModel(cfg.EmbeddingModel),
		EmbeddingDimensions: cfg.EmbeddingDimensions,
	})

	if chunkSize <= 0 {
		chunkSize = cfg.ChunkSize
	}

	repo := repository.NewChunkRepository(pool)
	ingestSvc := service.NewIngestServiceWithChunkConfig(client, repo, cfg.Collection, service.ChunkConfig{MaxChars: chunkSize})

	if watch {
		return runWatch(ingestSvc, src, interval)
	}

	report, err := ingestSvc.Run(ctx, src)
	if err != nil {
		telemetry.CaptureError(ctx, err)
		return fmt.Errorf("ingest failed: %w", err)
	}

	printReport(ctx, report)
	return nil
}

func runWatch(ingestSvc *service.IngestService, src service.DocumentSource, interval time.Duration) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// One pass up front so the collection is populated before the
	// first tick.
	report, err := ingestSvc.Run(ctx, src)
	if err != nil {
		return fmt.Errorf("initial ingest failed: %w", err)
	}
	printReport(ctx, report)

	processor := jobs.NewIngestProcessor(ingestSvc, src)
	worker := jobs.NewWorker(processor, interval)
	worker.Start(ctx)

	return nil
}

func buildSource(ctx context.Context, cfg *config.Config, dir string, fromS3 bool) (service.DocumentSource, error) {
	if fromS3 {
		if !cfg.HasS3() {
			return nil, fmt.Errorf("--s3 requires TEXTVEC_S3_ENDPOINT, TEXTVEC_S3_ACCESS_KEY_ID, TEXTVEC_S3_SECRET_ACCESS_KEY and TEXTVEC_S3_BUCKET")
		}
		s3Src, err := source.NewS3Source(ctx, source.S3SourceConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			UsePathStyle:    true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 source: %w", err)
		}
		return s3Src, nil
	}

	if dir == "" {
		dir = cfg.DocumentsDir
	}
	return source.NewDirSource(dir), nil
}

func printReport(ctx context.Context, report *domain.IngestReport) {
	for _, failure := range report.Failures {
		log.Printf("ingest failure: %v", failure)
		telemetry.CaptureError(ctx, failure)
	}
	fmt.Println(report)
}

func initTelemetry(cfg *config.Config) func() {
	if cfg.SentryDSN == "" {
		return func() {}
	}

	sampleRate := 0.1
	if cfg.Environment == "development" {
		sampleRate = 1.0
	}

	shutdown, err := telemetry.Init(telemetry.Config{
		DSN:              cfg.SentryDSN,
		Environment:      cfg.Environment,
		TracesSampleRate: sampleRate,
		Debug:            cfg.Debug,
	})
	if err != nil {
		log.Printf("telemetry init failed (continuing without tracing): %v", err)
		return func() {}
	}
	return shutdown
}
