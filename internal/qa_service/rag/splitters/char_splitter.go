package splitters

import (
	"fmt"
	"strings"

	"docqa/internal/qa_service/rag/interfaces"
	"docqa/internal/qa_service/rag/pipeline"
	"docqa/internal/qa_service/rag/schema"
)

// CharSplitter cuts document text into fixed-size overlapping windows of
// runes. Consecutive chunks advance by ChunkSize-ChunkOverlap runes, so
// every rune of the document lands in at least one chunk.
type CharSplitter struct {
	ChunkSize    int
	ChunkOverlap int
}

// NewCharSplitter creates a CharSplitter. The overlap must be strictly
// smaller than the chunk size, otherwise the window would never advance.
func NewCharSplitter(chunkSize, chunkOverlap int) (*CharSplitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if chunkOverlap < 0 {
		return nil, fmt.Errorf("chunk overlap must not be negative, got %d", chunkOverlap)
	}
	if chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap (%d) must be smaller than chunk size (%d)", chunkOverlap, chunkSize)
	}
	return &CharSplitter{ChunkSize: chunkSize, ChunkOverlap: chunkOverlap}, nil
}

// Split concatenates the pages and walks a sliding window over the result.
// Each chunk records the 1-based page its first rune falls on. A document
// with no non-whitespace text yields an EmptyDocumentError.
func (s *CharSplitter) Split(pages []schema.Page) ([]schema.Chunk, error) {
	var sb strings.Builder
	// pageStarts[i] is the rune offset where pages[i] begins.
	pageStarts := make([]int, len(pages))
	total := 0
	for i, p := range pages {
		pageStarts[i] = total
		sb.WriteString(p.Text)
		total += len([]rune(p.Text))
	}

	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return nil, &pipeline.EmptyDocumentError{}
	}

	runes := []rune(text)
	stride := s.ChunkSize - s.ChunkOverlap

	var chunks []schema.Chunk
	for start := 0; start < len(runes); start += stride {
		end := start + s.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}

		chunks = append(chunks, schema.Chunk{
			Seq:   len(chunks),
			Text:  string(runes[start:end]),
			Start: start,
			End:   end,
			Page:  pageAt(pages, pageStarts, start),
		})

		if end == len(runes) {
			break
		}
	}

	return chunks, nil
}

// pageAt returns the page number owning the rune at offset.
func pageAt(pages []schema.Page, pageStarts []int, offset int) int {
	page := 1
	for i := range pages {
		if pageStarts[i] > offset {
			break
		}
		page = pages[i].Number
	}
	return page
}

// compile-time check to ensure CharSplitter implements the Splitter interface
var _ interfaces.Splitter = (*CharSplitter)(nil)
