package service

import (
	"strings"
	"unicode/utf8"

	"github.com/coveway/textvec/internal/domain"
)

// ChunkConfig controls chunking for document embeddings.
type ChunkConfig struct {
	MaxChars int
}

// DefaultChunkConfig provides the default chunk size.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{MaxChars: 512}
}

// ChunkText splits text into word-aligned chunks by greedily
// accumulating whitespace-separated words. The running buffer is
// measured in runes, counting a separator after every word; when the
// next word would push it past MaxChars the chunk closes and the word
// starts a new one. Words are never split, so a single word longer
// than MaxChars is placed alone in its own oversized chunk — that is
// the one case where a chunk exceeds the limit. Joining the chunks
// with single spaces reproduces the whitespace-normalized input.
// Blank input yields no chunks.
func ChunkText(text string, cfg ChunkConfig) []string {
	if cfg.MaxChars <= 0 {
		cfg = DefaultChunkConfig()
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	chunks := make([]string, 0, 8)
	var buf strings.Builder
	width := 0

	for _, word := range words {
		wlen := utf8.RuneCountInString(word)
		if width > 0 && width+wlen+1 > cfg.MaxChars {
			chunks = append(chunks, buf.String())
			buf.Reset()
			width = 0
		}
		if width > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(word)
		width += wlen + 1
	}

	if buf.Len() > 0 {
		chunks = append(chunks, buf.String())
	}

	return chunks
}

// ChunkDocument chunks a document and assigns 1-based, contiguous
// chunk indices keyed to the document name.
func ChunkDocument(doc domain.Document, cfg ChunkConfig) []domain.Chunk {
	parts := ChunkText(doc.Text, cfg)
	chunks := make([]domain.Chunk, 0, len(parts))
	for i, part := range parts {
		chunks = append(chunks, domain.Chunk{
			Source: doc.Name,
			Index:  i + 1,
			Text:   part,
		})
	}
	return chunks
}
