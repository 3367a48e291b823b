package pipeline

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"docqa/internal/qa_service/rag/interfaces"
	"docqa/internal/qa_service/rag/schema"
)

// NotFoundAnswer is what the model is instructed to say when the retrieved
// context does not contain the answer.
const NotFoundAnswer = "The answer is not available in the provided document."

// ErrorPlaceholder fills an answer slot whose question failed while the
// request as a whole ran in best-effort mode.
const ErrorPlaceholder = "An error occurred while answering this question."

const promptTemplate = `You are a precise question answering assistant. Answer the question using ONLY the context below.
If the context does not contain the information needed, reply exactly: "%s"
Do not use outside knowledge. Do not speculate.

Context:
%s

Question: %s

Answer:`

// answerAll answers every question against the shared index session with
// bounded concurrency. The result slice is aligned to the input order
// regardless of completion order. In best-effort mode a failed question
// fills its slot with ErrorPlaceholder; in fail-fast mode the first failure
// cancels the siblings and is returned.
func (p *Pipeline) answerAll(ctx context.Context, session interfaces.IndexSession, questions []string) ([]string, error) {
	answers := make([]string, len(questions))

	workers := p.opts.QuestionWorkers
	if workers <= 0 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, question := range questions {
		g.Go(func() error {
			answer, err := p.answerOne(gctx, session, question)
			if err != nil {
				if p.opts.FailFast {
					return err
				}
				p.log.Warn(fmt.Sprintf("question %d degraded to placeholder: %v", i, err))
				answers[i] = ErrorPlaceholder
				return nil
			}
			answers[i] = answer
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return answers, nil
}

// answerOne embeds the question, retrieves its context and asks the LLM.
func (p *Pipeline) answerOne(ctx context.Context, session interfaces.IndexSession, question string) (string, error) {
	vector, err := p.embedder.Embed(ctx, question)
	if err != nil {
		return "", &EmbeddingServiceError{Err: err}
	}

	hits, err := session.Query(ctx, vector, p.opts.TopK)
	if err != nil {
		return "", err
	}

	answer, err := p.llm.Generate(ctx, buildPrompt(question, hits))
	if err != nil {
		return "", &GenerationError{Question: question, Err: err}
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", &GenerationError{Question: question, Err: fmt.Errorf("model returned an empty response")}
	}
	return answer, nil
}

// buildPrompt assembles the grounded prompt from the retrieved chunks.
// Chunks appear in retrieval order with their page of origin.
func buildPrompt(question string, hits []schema.ScoredChunk) string {
	if len(hits) == 0 {
		return fmt.Sprintf(promptTemplate, NotFoundAnswer, "(no relevant context was found)", question)
	}
	var sb strings.Builder
	for _, h := range hits {
		fmt.Fprintf(&sb, "[page %d] %s\n\n", h.Chunk.Page, h.Chunk.Text)
	}
	return fmt.Sprintf(promptTemplate, NotFoundAnswer, strings.TrimSpace(sb.String()), question)
}
