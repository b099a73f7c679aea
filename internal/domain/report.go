package domain

import "fmt"

// ItemFailure records a single recoverable failure during an ingest
// run: an unreadable file, a failed embedding call, or a failed
// upsert. The run continues past it.
type ItemFailure struct {
	Item string
	Err  error
}

func (f ItemFailure) Error() string {
	return fmt.Sprintf("%s: %v", f.Item, f.Err)
}

func (f ItemFailure) Unwrap() error {
	return f.Err
}

// IngestReport aggregates the outcome of one ingest run. Per-item
// failures are collected here instead of aborting the run; the caller
// decides what to do with them.
type IngestReport struct {
	RunID         string
	Source        string
	FilesSeen     int
	FilesIngested int
	ChunksWritten int
	Failures      []ItemFailure
}

// Failed reports whether any item failed during the run.
func (r *IngestReport) Failed() bool {
	return len(r.Failures) > 0
}

// AddFailure appends a per-item failure to the report.
func (r *IngestReport) AddFailure(item string, err error) {
	r.Failures = append(r.Failures, ItemFailure{Item: item, Err: err})
}

func (r *IngestReport) String() string {
	return fmt.Sprintf("run %s: %d/%d files ingested, %d chunks written, %d failures",
		r.RunID, r.FilesIngested, r.FilesSeen, r.ChunksWritten, len(r.Failures))
}
