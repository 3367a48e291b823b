package schema

// Page is a single page of extracted document text, 1-based.
type Page struct {
	Number int
	Text   string
}

// Chunk is a contiguous window of document text produced by a splitter.
// Start and End are rune offsets into the concatenated document text,
// half-open. Seq is the chunk's position in document order.
type Chunk struct {
	Seq   int
	Text  string
	Start int
	End   int
	Page  int
}

// ScoredChunk pairs a chunk with its similarity score from a query.
type ScoredChunk struct {
	Chunk Chunk
	Score float32
}
