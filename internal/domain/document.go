package domain

import "fmt"

// Document is a raw text file as loaded from a source. It only lives
// long enough to be chunked.
type Document struct {
	Name string
	Text string
}

// Chunk is a bounded-length, word-aligned segment of a document.
type Chunk struct {
	Source string
	Index  int
	Text   string
}

// ID returns the chunk's stable identity within a collection.
// Indices are 1-based and contiguous per source document.
func (c Chunk) ID() string {
	return fmt.Sprintf("%s-chunk-%d", c.Source, c.Index)
}

// Record is a chunk together with its embedding, ready to be upserted
// into a collection.
type Record struct {
	Chunk     Chunk
	Embedding []float32
}

// Match is a single search hit ordered by descending score.
type Match struct {
	ID    string
	Score float32
	Text  string
}
