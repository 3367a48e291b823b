package interfaces

import (
	"context"

	"docqa/internal/qa_service/rag/schema"
)

// Loader fetches a document from a source URL and returns its pages in order.
type Loader interface {
	Load(ctx context.Context, url string) ([]schema.Page, error)
}

// Splitter cuts extracted pages into retrieval-sized chunks.
type Splitter interface {
	Split(pages []schema.Page) ([]schema.Chunk, error)
}

// EmbeddingModel turns text into dense vectors. EmbedBatch preserves input
// order and returns exactly one vector per input.
type EmbeddingModel interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// LLM generates a completion for a single prompt.
type LLM interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// IndexSession is a scoped vector index that lives for a single pipeline run.
// Open provisions the namespace, Upsert and Query operate within it, and
// Close tears it down. Close must be safe to call more than once and safe to
// call even if Open failed partway.
type IndexSession interface {
	Open(ctx context.Context) error
	Upsert(ctx context.Context, chunks []schema.Chunk, vectors [][]float32) error
	Query(ctx context.Context, vector []float32, topK int) ([]schema.ScoredChunk, error)
	Close() error
}
