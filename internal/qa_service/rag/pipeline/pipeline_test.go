package pipeline

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"docqa/internal/qa_service/rag/interfaces"
	"docqa/internal/qa_service/rag/schema"
	"docqa/pkg/logger"
)

// --- test doubles ---

type fakeLoader struct {
	pages []schema.Page
	err   error
	calls int32
}

func (f *fakeLoader) Load(ctx context.Context, url string) ([]schema.Page, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	return f.pages, nil
}

type fakeSplitter struct {
	chunks []schema.Chunk
	err    error
}

func (f *fakeSplitter) Split(pages []schema.Page) ([]schema.Chunk, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.chunks, nil
}

type fakeEmbedder struct {
	batchErr error
	embedErr error
	calls    int32
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	return []float32{float32(len(text)), 0, 0}, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 0, 0}
	}
	return out, nil
}

func (f *fakeEmbedder) Dimension() int { return 3 }

type fakeLLM struct {
	// failOn makes Generate fail for prompts containing this substring.
	failOn string
	calls  int32
}

var questionRe = regexp.MustCompile(`(?m)^Question: (.*)$`)

func (f *fakeLLM) Generate(ctx context.Context, prompt string) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.failOn != "" && strings.Contains(prompt, f.failOn) {
		return "", errors.New("model unavailable")
	}
	// Echo the question back so tests can verify answer alignment.
	if m := questionRe.FindStringSubmatch(prompt); m != nil {
		return "answer to: " + m[1], nil
	}
	return "generic answer", nil
}

type fakeSession struct {
	openErr   error
	upsertErr error
	queryErr  error

	mu         sync.Mutex
	opened     bool
	closeCount int
	queryCalls int
}

func (f *fakeSession) Open(ctx context.Context) error {
	if f.openErr != nil {
		return f.openErr
	}
	f.mu.Lock()
	f.opened = true
	f.mu.Unlock()
	return nil
}

func (f *fakeSession) Upsert(ctx context.Context, chunks []schema.Chunk, vectors [][]float32) error {
	return f.upsertErr
}

func (f *fakeSession) Query(ctx context.Context, vector []float32, topK int) ([]schema.ScoredChunk, error) {
	f.mu.Lock()
	f.queryCalls++
	f.mu.Unlock()
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return []schema.ScoredChunk{
		{Chunk: schema.Chunk{Seq: 0, Text: "relevant context", Page: 1}, Score: 0.9},
	}, nil
}

func (f *fakeSession) Close() error {
	f.mu.Lock()
	f.closeCount++
	f.mu.Unlock()
	return nil
}

func (f *fakeSession) closes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closeCount
}

// --- fixtures ---

func testChunks() []schema.Chunk {
	return []schema.Chunk{
		{Seq: 0, Text: "alpha", Start: 0, End: 5, Page: 1},
		{Seq: 1, Text: "beta", Start: 3, End: 7, Page: 1},
	}
}

type fixture struct {
	loader   *fakeLoader
	splitter *fakeSplitter
	embedder *fakeEmbedder
	llm      *fakeLLM
	session  *fakeSession
	opts     Options
}

func newFixture() *fixture {
	return &fixture{
		loader:   &fakeLoader{pages: []schema.Page{{Number: 1, Text: "alpha beta"}}},
		splitter: &fakeSplitter{chunks: testChunks()},
		embedder: &fakeEmbedder{},
		llm:      &fakeLLM{},
		session:  &fakeSession{},
		opts:     Options{TopK: 3, QuestionWorkers: 2},
	}
}

func (f *fixture) pipeline() *Pipeline {
	factory := func(sessionID string) interfaces.IndexSession { return f.session }
	return New(f.loader, f.splitter, f.embedder, f.llm, factory, f.opts, logger.New("test", ""))
}

// --- tests ---

func TestRun_AnswersAlignWithQuestions(t *testing.T) {
	f := newFixture()
	questions := []string{"what is alpha?", "what is beta?", "what is gamma?"}

	answers, err := f.pipeline().Run(context.Background(), "http://example.com/doc.pdf", questions)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(answers) != len(questions) {
		t.Fatalf("got %d answers for %d questions", len(answers), len(questions))
	}
	for i, q := range questions {
		want := "answer to: " + q
		if answers[i] != want {
			t.Errorf("answers[%d] = %q, want %q", i, answers[i], want)
		}
	}
	if got := f.session.closes(); got != 1 {
		t.Errorf("session closed %d times, want 1", got)
	}
}

func TestRun_FetchFailureIsFatal(t *testing.T) {
	f := newFixture()
	f.loader.err = &FetchError{URL: "http://example.com/doc.pdf", Err: errors.New("404")}

	_, err := f.pipeline().Run(context.Background(), "http://example.com/doc.pdf", []string{"q1"})

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	// Nothing downstream may run.
	if f.embedder.calls != 0 {
		t.Errorf("embedder called %d times after fetch failure", f.embedder.calls)
	}
	if f.llm.calls != 0 {
		t.Errorf("llm called %d times after fetch failure", f.llm.calls)
	}
	if got := f.session.closes(); got != 0 {
		t.Errorf("session closed %d times but was never opened", got)
	}
}

func TestRun_EmptyDocumentCarriesURL(t *testing.T) {
	f := newFixture()
	f.splitter.err = &EmptyDocumentError{}

	_, err := f.pipeline().Run(context.Background(), "http://example.com/blank.pdf", []string{"q1"})

	var emptyErr *EmptyDocumentError
	if !errors.As(err, &emptyErr) {
		t.Fatalf("expected EmptyDocumentError, got %v", err)
	}
	if emptyErr.URL != "http://example.com/blank.pdf" {
		t.Errorf("error URL = %q", emptyErr.URL)
	}
	if f.embedder.calls != 0 {
		t.Errorf("embedder called %d times for an empty document", f.embedder.calls)
	}
}

func TestRun_EmbeddingFailureIsFatal(t *testing.T) {
	f := newFixture()
	f.embedder.batchErr = errors.New("quota exhausted")

	_, err := f.pipeline().Run(context.Background(), "http://example.com/doc.pdf", []string{"q1"})

	var embedErr *EmbeddingServiceError
	if !errors.As(err, &embedErr) {
		t.Fatalf("expected EmbeddingServiceError, got %v", err)
	}
	if got := f.session.closes(); got != 0 {
		t.Errorf("session closed %d times but was never opened", got)
	}
}

func TestRun_CloseRunsOnEveryExitPath(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*fixture)
	}{
		{"upsert failure", func(f *fixture) { f.session.upsertErr = errors.New("insert failed") }},
		{"query failure fail-fast", func(f *fixture) {
			f.session.queryErr = errors.New("search failed")
			f.opts.FailFast = true
		}},
		{"generation failure fail-fast", func(f *fixture) {
			f.llm.failOn = "Question:"
			f.opts.FailFast = true
		}},
		{"query failure best-effort", func(f *fixture) { f.session.queryErr = errors.New("search failed") }},
		{"success", func(f *fixture) {}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			tc.mutate(f)

			_, _ = f.pipeline().Run(context.Background(), "http://example.com/doc.pdf", []string{"q1", "q2"})

			if got := f.session.closes(); got != 1 {
				t.Errorf("session closed %d times, want exactly 1", got)
			}
		})
	}
}

func TestRun_BestEffortFillsPlaceholder(t *testing.T) {
	f := newFixture()
	f.llm.failOn = "what is beta?"

	answers, err := f.pipeline().Run(context.Background(), "http://example.com/doc.pdf",
		[]string{"what is alpha?", "what is beta?"})
	if err != nil {
		t.Fatalf("best-effort run returned error: %v", err)
	}

	if answers[0] != "answer to: what is alpha?" {
		t.Errorf("answers[0] = %q", answers[0])
	}
	if answers[1] != ErrorPlaceholder {
		t.Errorf("answers[1] = %q, want the error placeholder", answers[1])
	}
}

func TestRun_FailFastAbortsOnQuestionFailure(t *testing.T) {
	f := newFixture()
	f.llm.failOn = "what is beta?"
	f.opts.FailFast = true

	answers, err := f.pipeline().Run(context.Background(), "http://example.com/doc.pdf",
		[]string{"what is alpha?", "what is beta?"})

	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	if answers != nil {
		t.Errorf("expected no answers on fail-fast abort, got %v", answers)
	}
	if got := f.session.closes(); got != 1 {
		t.Errorf("session closed %d times, want 1", got)
	}
}

func TestRun_ManyQuestionsPreserveOrder(t *testing.T) {
	f := newFixture()
	f.opts.QuestionWorkers = 4

	questions := make([]string, 20)
	for i := range questions {
		questions[i] = fmt.Sprintf("question number %d?", i)
	}

	answers, err := f.pipeline().Run(context.Background(), "http://example.com/doc.pdf", questions)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for i, q := range questions {
		if answers[i] != "answer to: "+q {
			t.Errorf("answers[%d] = %q, want echo of %q", i, answers[i], q)
		}
	}
}

func TestBuildPrompt_ContainsContextAndSentinel(t *testing.T) {
	hits := []schema.ScoredChunk{
		{Chunk: schema.Chunk{Seq: 0, Text: "premium is 500", Page: 3}, Score: 0.8},
	}

	prompt := buildPrompt("what is the premium?", hits)

	if !strings.Contains(prompt, "premium is 500") {
		t.Error("prompt is missing the retrieved context")
	}
	if !strings.Contains(prompt, "[page 3]") {
		t.Error("prompt is missing the page attribution")
	}
	if !strings.Contains(prompt, NotFoundAnswer) {
		t.Error("prompt is missing the insufficient-context instruction")
	}
	if !strings.Contains(prompt, "what is the premium?") {
		t.Error("prompt is missing the question")
	}
}
