package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"docqa/internal/database/milvus"
	"docqa/internal/qa_service/rag/pipeline"
	"docqa/internal/qa_service/service"
)

// Handler wires the HTTP endpoints to the QA service.
type Handler struct {
	service *service.Service
	milvus  *milvus.MilvusClient
	// secrets maps a secret's name to its configured value; an empty value
	// marks the deployment as not ready.
	secrets map[string]string
}

// NewHandler creates a new Handler instance.
func NewHandler(s *service.Service, mc *milvus.MilvusClient, secrets map[string]string) *Handler {
	return &Handler{service: s, milvus: mc, secrets: secrets}
}

// RunRequest defines the JSON body of a QA run.
type RunRequest struct {
	Documents string   `json:"documents" binding:"required,url"`
	Questions []string `json:"questions" binding:"required,min=1,dive,required"`
}

// RunResponse carries one answer per input question, in input order.
type RunResponse struct {
	Answers []string `json:"answers"`
}

// Run handles POST /api/v1/qa/run.
func (h *Handler) Run(c *gin.Context) {
	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	answers, err := h.service.AnswerDocumentQuestions(c.Request.Context(), req.Documents, req.Questions)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, RunResponse{Answers: answers})
}

// statusForError maps a fatal pipeline error onto an HTTP status.
func statusForError(err error) int {
	var (
		fetchErr     *pipeline.FetchError
		extractErr   *pipeline.ExtractionError
		emptyErr     *pipeline.EmptyDocumentError
		embedErr     *pipeline.EmbeddingServiceError
		provisionErr *pipeline.IndexProvisionError
	)
	switch {
	case errors.As(err, &fetchErr), errors.As(err, &extractErr), errors.As(err, &emptyErr):
		// The caller supplied a document we could not use.
		return http.StatusUnprocessableEntity
	case errors.As(err, &embedErr), errors.As(err, &provisionErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Health handles GET /health. It reports unhealthy when a required secret
// is absent or the vector store does not respond.
func (h *Handler) Health(c *gin.Context) {
	for name, value := range h.secrets {
		if value == "" {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  fmt.Sprintf("required secret %q is not configured", name),
			})
			return
		}
	}

	checkCtx, checkCancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer checkCancel()
	if err := h.milvus.HealthCheck(checkCtx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
