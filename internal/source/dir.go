// Package source provides document sources for the ingest pipeline.
package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/coveway/textvec/internal/domain"
)

const textExtension = ".txt"

// DirSource reads .txt files from the immediate entries of a local
// directory. Other files are skipped without error, and an unreadable
// file is reported as a per-item failure rather than aborting the
// scan. Only a listing failure aborts.
type DirSource struct {
	dir string
}

func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

func (s *DirSource) Name() string {
	return s.dir
}

// Load enumerates the directory and reads every .txt file as UTF-8 text.
func (s *DirSource) Load(ctx context.Context) ([]domain.Document, []domain.ItemFailure, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list directory %s: %w", s.dir, err)
	}

	var docs []domain.Document
	var failures []domain.ItemFailure
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return docs, failures, err
		}
		if entry.IsDir() || filepath.Ext(entry.Name()) != textExtension {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			failures = append(failures, domain.ItemFailure{Item: entry.Name(), Err: err})
			continue
		}

		docs = append(docs, domain.Document{Name: entry.Name(), Text: string(data)})
	}

	return docs, failures, nil
}
