package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"docqa/internal/qa_service/rag/interfaces"
	"docqa/internal/qa_service/rag/schema"
	"docqa/pkg/logger"
)

// Options tune a pipeline run.
type Options struct {
	// TopK is how many chunks each question retrieves as context.
	TopK int
	// FailFast aborts the whole request on the first per-question failure.
	// When false, a failed question degrades to an error placeholder while
	// its siblings proceed.
	FailFast bool
	// QuestionWorkers bounds how many questions are answered concurrently.
	QuestionWorkers int
}

// SessionFactory builds a fresh index session for one run.
type SessionFactory func(sessionID string) interfaces.IndexSession

// Pipeline answers a batch of questions against a single document. Each Run
// fetches the document, chunks and embeds it, indexes the vectors into an
// ephemeral session, answers every question from that session, and tears
// the session down. A Pipeline is stateless across runs and safe for
// concurrent use.
type Pipeline struct {
	loader     interfaces.Loader
	splitter   interfaces.Splitter
	embedder   interfaces.EmbeddingModel
	llm        interfaces.LLM
	newSession SessionFactory
	opts       Options
	log        *logger.Logger
}

// New assembles a Pipeline from its component ports.
func New(loader interfaces.Loader, splitter interfaces.Splitter, embedder interfaces.EmbeddingModel, llm interfaces.LLM, newSession SessionFactory, opts Options, log *logger.Logger) *Pipeline {
	return &Pipeline{
		loader:     loader,
		splitter:   splitter,
		embedder:   embedder,
		llm:        llm,
		newSession: newSession,
		opts:       opts,
		log:        log,
	}
}

// Run executes the full pipeline for one document URL and its questions.
// The returned answers align with the input questions by index. A fatal
// stage failure (fetch, extraction, embedding, index provisioning) returns
// a single error and no answers; per-question failures degrade according
// to Options.FailFast.
func (p *Pipeline) Run(ctx context.Context, documentURL string, questions []string) ([]string, error) {
	sessionID := uuid.New().String()
	log := p.log.WithSession(sessionID)

	log.Info(fmt.Sprintf("pipeline run started: url=%s questions=%d", documentURL, len(questions)))

	pages, err := p.loader.Load(ctx, documentURL)
	if err != nil {
		return nil, err
	}
	totalChars := 0
	for _, pg := range pages {
		totalChars += len([]rune(pg.Text))
	}
	log.Info(fmt.Sprintf("extracted %d pages, %d characters", len(pages), totalChars))

	chunks, err := p.splitter.Split(pages)
	if err != nil {
		var empty *EmptyDocumentError
		if errors.As(err, &empty) && empty.URL == "" {
			return nil, &EmptyDocumentError{URL: documentURL}
		}
		return nil, err
	}
	log.Info(fmt.Sprintf("document split into %d chunks", len(chunks)))

	vectors, err := p.embedChunks(ctx, chunks)
	if err != nil {
		return nil, err
	}

	session := p.newSession(sessionID)
	if err := session.Open(ctx); err != nil {
		return nil, err
	}
	// Teardown is best-effort and must run on every exit path. A failure
	// here is logged and never overrides the computed answers.
	defer func() {
		if cerr := session.Close(); cerr != nil {
			log.Warn(fmt.Sprintf("failed to tear down index session: %v", cerr))
		}
	}()

	if err := session.Upsert(ctx, chunks, vectors); err != nil {
		return nil, err
	}

	answers, err := p.answerAll(ctx, session, questions)
	if err != nil {
		return nil, err
	}

	log.Info("pipeline run finished")
	return answers, nil
}

// embedChunks embeds every chunk text in document order.
func (p *Pipeline) embedChunks(ctx context.Context, chunks []schema.Chunk) ([][]float32, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, &EmbeddingServiceError{Err: err}
	}
	return vectors, nil
}
