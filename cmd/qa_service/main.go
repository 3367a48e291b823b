package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"docqa/internal/config"
	"docqa/internal/database/milvus"
	"docqa/internal/database/mysql"
	"docqa/internal/embedding"
	"docqa/internal/llm"
	"docqa/internal/qa_service/api"
	"docqa/internal/qa_service/dal"
	"docqa/internal/qa_service/rag/interfaces"
	"docqa/internal/qa_service/rag/loaders"
	"docqa/internal/qa_service/rag/pipeline"
	"docqa/internal/qa_service/rag/splitters"
	"docqa/internal/qa_service/rag/storages/vectorstore"
	"docqa/internal/qa_service/service"
	"docqa/pkg/logger"
)

const httpPort = ":8080"

func main() {
	// 1. Load environment, then configuration (secrets come in via ${VAR}
	// expansion inside the YAML).
	_ = godotenv.Load()

	cfg, err := config.LoadConfig("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Initialize Logger
	logger.Init(logger.ParseLevel(cfg.Logger.Level))
	appLogger := logger.New("qa_service", "")
	appLogger.Info("Starting QA Service...")

	// 3. Initialize Dependencies
	ctx := context.Background()

	milvusClient, err := milvus.GetClient(ctx, &cfg.Databases.Milvus)
	if err != nil {
		log.Fatalf("Failed to connect to Milvus: %v", err)
	}
	defer milvusClient.Close()

	if err := milvusClient.EnsureCollection(ctx); err != nil {
		log.Fatalf("Failed to prepare Milvus collection: %v", err)
	}

	// MySQL only backs request bookkeeping; the service runs without it.
	var queryLogDal *dal.QueryLogDAL
	if db, err := mysql.GetDB(&cfg.Databases.MySQL); err != nil {
		appLogger.Warn(fmt.Sprintf("MySQL unavailable, query logging disabled: %v", err))
	} else {
		queryLogDal = dal.NewQueryLogDAL(db)
	}

	embedder, err := embedding.NewEmdModel(cfg.Embedding)
	if err != nil {
		log.Fatalf("Failed to create embedding client: %v", err)
	}
	if embedder.Dimension() != cfg.Databases.Milvus.Dimension {
		log.Fatalf("Embedding dimension %d does not match Milvus collection dimension %d",
			embedder.Dimension(), cfg.Databases.Milvus.Dimension)
	}

	llmClient, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		log.Fatalf("Failed to create LLM client: %v", err)
	}

	loader := loaders.NewPdfURLLoader(time.Duration(cfg.Pipeline.FetchTimeoutSecs) * time.Second)
	splitter, err := splitters.NewCharSplitter(cfg.Pipeline.ChunkSize, cfg.Pipeline.ChunkOverlap)
	if err != nil {
		log.Fatalf("Invalid chunking parameters: %v", err)
	}

	// 4. Assemble the pipeline and service
	newSession := func(sessionID string) interfaces.IndexSession {
		return vectorstore.NewMilvusSession(milvusClient, sessionID)
	}

	qaPipeline := pipeline.New(loader, splitter, embedder, llmClient, newSession, pipeline.Options{
		TopK:            cfg.Pipeline.TopK,
		FailFast:        cfg.Pipeline.FailFast,
		QuestionWorkers: cfg.Pipeline.QuestionWorkers,
	}, appLogger)

	qaService := service.New(qaPipeline, queryLogDal)

	secrets := map[string]string{
		"auth.bearerToken": cfg.Auth.BearerToken,
	}
	switch cfg.Embedding.Provider {
	case "huggingface":
		secrets["embedding.huggingface.apiKey"] = cfg.Embedding.HuggingFace.APIKey
	default:
		secrets["embedding.gemini.apiKey"] = cfg.Embedding.Gemini.APIKey
	}
	switch cfg.LLM.Provider {
	case "groq":
		secrets["llm.groq.apiKey"] = cfg.LLM.Groq.APIKey
	default:
		secrets["llm.gemini.apiKey"] = cfg.LLM.Gemini.APIKey
	}

	handler := api.NewHandler(qaService, milvusClient, secrets)

	// 5. Start the HTTP server
	gin.SetMode(gin.ReleaseMode)
	router := api.SetupRouter(handler, cfg)

	srv := &http.Server{
		Addr:    httpPort,
		Handler: router,
	}

	go func() {
		appLogger.Info(fmt.Sprintf("HTTP server listening at %s", httpPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to serve HTTP: %v", err)
		}
	}()

	// 6. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(fmt.Sprintf("Server forced to shutdown: %v", err))
	}
	appLogger.Info("Server gracefully stopped")
}
