package pipeline

import "fmt"

// FetchError means the source document could not be downloaded.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch document %q: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ExtractionError means the downloaded bytes could not be parsed as a document.
type ExtractionError struct {
	URL string
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to extract text from %q: %v", e.URL, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// EmptyDocumentError means extraction succeeded but yielded no usable text.
type EmptyDocumentError struct {
	URL string
}

func (e *EmptyDocumentError) Error() string {
	return fmt.Sprintf("document %q contains no extractable text", e.URL)
}

// EmbeddingServiceError wraps a failure from the embedding backend.
type EmbeddingServiceError struct {
	Err error
}

func (e *EmbeddingServiceError) Error() string {
	return fmt.Sprintf("embedding service failed: %v", e.Err)
}

func (e *EmbeddingServiceError) Unwrap() error { return e.Err }

// IndexProvisionError means the per-request vector namespace could not be
// created or populated. The run cannot proceed.
type IndexProvisionError struct {
	Session string
	Err     error
}

func (e *IndexProvisionError) Error() string {
	return fmt.Sprintf("failed to provision index session %q: %v", e.Session, e.Err)
}

func (e *IndexProvisionError) Unwrap() error { return e.Err }

// IndexQueryError means a retrieval query against the session failed. It is
// scoped to a single question.
type IndexQueryError struct {
	Session string
	Err     error
}

func (e *IndexQueryError) Error() string {
	return fmt.Sprintf("query against index session %q failed: %v", e.Session, e.Err)
}

func (e *IndexQueryError) Unwrap() error { return e.Err }

// GenerationError means the LLM call for a single question failed.
type GenerationError struct {
	Question string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("answer generation failed for question %q: %v", e.Question, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
