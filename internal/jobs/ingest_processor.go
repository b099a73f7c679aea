package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/coveway/textvec/internal/domain"
	"github.com/coveway/textvec/internal/service"
)

// Ingester defines the interface for running a full ingest pass
type Ingester interface {
	Run(ctx context.Context, src service.DocumentSource) (*domain.IngestReport, error)
}

// IngestProcessor re-runs ingestion of a document source on each poll
// tick. Re-ingesting an unchanged file replaces its chunks with
// identical records, so repeated passes are safe.
type IngestProcessor struct {
	ingester Ingester
	src      service.DocumentSource
}

// NewIngestProcessor creates a new IngestProcessor instance
func NewIngestProcessor(ingester Ingester, src service.DocumentSource) *IngestProcessor {
	return &IngestProcessor{
		ingester: ingester,
		src:      src,
	}
}

// ProcessJobs implements the JobProcessor interface
func (p *IngestProcessor) ProcessJobs(ctx context.Context) error {
	report, err := p.ingester.Run(ctx, p.src)
	if err != nil {
		return fmt.Errorf("ingest pass failed: %w", err)
	}

	log.Printf("ingest pass finished: %s", report)
	for _, failure := range report.Failures {
		log.Printf("ingest failure: %v", failure)
	}

	return nil
}
