package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"docqa/internal/models"
	"docqa/internal/qa_service/dal"
	"docqa/internal/qa_service/rag/pipeline"
	"docqa/pkg/logger"
)

const serviceName = "qa_service"

// Retrieval quality improves when terse questions carry the vocabulary the
// source documents actually use. Keys are matched case-insensitively against
// the question; the mapped terms are appended before embedding.
// The first matching topic wins, so order matters.
var retrievalHints = []struct{ topic, terms string }{
	{"entry age", "minimum maximum entry age eligibility"},
	{"maturity benefit", "maturity benefit sum assured policy term"},
	{"death benefit", "death benefit sum assured nominee"},
	{"rider", "rider add-on additional benefit"},
	{"premium", "premium payment frequency terms"},
	{"policy loan", "policy loan advance surrender"},
	{"free look", "free look period cancellation"},
	{"suicide", "suicide exclusion clause"},
	{"revival", "revival reinstatement lapse"},
	{"tax benefit", "tax benefit 80C 10(10D) deduction"},
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// Service ties the question answering pipeline to request bookkeeping.
type Service struct {
	pipeline *pipeline.Pipeline
	logs     *dal.QueryLogDAL // nil when MySQL is unavailable; logging degrades silently
}

// New creates a Service. logs may be nil.
func New(p *pipeline.Pipeline, logs *dal.QueryLogDAL) *Service {
	return &Service{pipeline: p, logs: logs}
}

// AnswerDocumentQuestions runs the pipeline for one document and its
// questions, returning answers aligned to the question order. The outcome
// is recorded in the query log on a best-effort basis.
func (s *Service) AnswerDocumentQuestions(ctx context.Context, documentURL string, questions []string) ([]string, error) {
	traceID := uuid.New().String()
	log := logger.New(serviceName, traceID)

	enhanced := make([]string, len(questions))
	for i, q := range questions {
		enhanced[i] = enhanceQuestion(strings.TrimSpace(q))
	}

	start := time.Now()
	answers, err := s.pipeline.Run(ctx, documentURL, enhanced)
	duration := time.Since(start)

	if err != nil {
		log.WithError(models.ErrorInfo{Message: err.Error()}).
			Error(fmt.Sprintf("request failed after %s", duration))
		s.record(traceID, documentURL, len(questions), "failed", duration, err)
		return nil, err
	}

	for i, a := range answers {
		answers[i] = cleanAnswer(a)
	}

	status := "success"
	for _, a := range answers {
		if a == pipeline.ErrorPlaceholder {
			status = "partial"
			break
		}
	}

	log.Info(fmt.Sprintf("request finished in %s: status=%s questions=%d", duration, status, len(questions)))
	s.record(traceID, documentURL, len(questions), status, duration, nil)
	return answers, nil
}

// record writes one query log row. Failures are swallowed: bookkeeping must
// never affect the caller's answers.
func (s *Service) record(traceID, documentURL string, questionCount int, status string, duration time.Duration, runErr error) {
	if s.logs == nil {
		return
	}

	entry := &models.QueryLog{
		SessionID:     traceID,
		DocumentURL:   documentURL,
		QuestionCount: questionCount,
		Status:        status,
		DurationMs:    duration.Milliseconds(),
	}
	if runErr != nil {
		msg := runErr.Error()
		if len(msg) > 1024 {
			msg = msg[:1024]
		}
		entry.ErrorMessage = msg
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.logs.Create(ctx, entry); err != nil {
		logger.New(serviceName, traceID).Warn(fmt.Sprintf("failed to write query log: %v", err))
	}
}

// enhanceQuestion appends domain vocabulary for known topics.
func enhanceQuestion(question string) string {
	lower := strings.ToLower(question)
	for _, hint := range retrievalHints {
		if strings.Contains(lower, hint.topic) {
			return question + " " + hint.terms
		}
	}
	return question
}

// Overlong answer bounds: answers past maxAnswerLen are cut back to the
// first maxSentences sentences.
const (
	maxAnswerLen = 600
	maxSentences = 4
)

var sentenceEndRe = regexp.MustCompile(`[.!?]\s+`)

// cleanAnswer normalizes whitespace, caps rambling answers, and guards
// against degenerate model output that slipped past the generation layer.
func cleanAnswer(answer string) string {
	answer = strings.TrimSpace(whitespaceRe.ReplaceAllString(answer, " "))
	if len(answer) < 5 {
		return pipeline.NotFoundAnswer
	}

	if len(answer) > maxAnswerLen {
		ends := sentenceEndRe.FindAllStringIndex(answer, maxSentences)
		if len(ends) == maxSentences {
			answer = strings.TrimSpace(answer[:ends[maxSentences-1][0]+1])
		}
	}
	return answer
}
