package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig_ExpandsEnvAndAppliesDefaults(t *testing.T) {
	t.Setenv("TEST_GROQ_KEY", "gsk_test_123")

	path := writeConfig(t, `
app:
  name: "docqa"
llm:
  provider: "groq"
  groq:
    apiKey: "${TEST_GROQ_KEY}"
    model: "llama-3.3-70b-versatile"
databases:
  milvus:
    address: "localhost:19530"
    collection: "chunks"
    dimension: 384
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.LLM.Groq.APIKey != "gsk_test_123" {
		t.Errorf("APIKey = %q, env expansion failed", cfg.LLM.Groq.APIKey)
	}
	if cfg.Pipeline.ChunkSize != 1000 || cfg.Pipeline.ChunkOverlap != 200 {
		t.Errorf("pipeline defaults not applied: size=%d overlap=%d", cfg.Pipeline.ChunkSize, cfg.Pipeline.ChunkOverlap)
	}
	if cfg.Pipeline.TopK != 5 || cfg.Pipeline.QuestionWorkers != 4 {
		t.Errorf("pipeline defaults not applied: topK=%d workers=%d", cfg.Pipeline.TopK, cfg.Pipeline.QuestionWorkers)
	}
	if cfg.LLM.Groq.BaseURL != "https://api.groq.com/openai/v1" {
		t.Errorf("groq baseURL default not applied: %q", cfg.LLM.Groq.BaseURL)
	}
	if cfg.Databases.Milvus.MetricType != "COSINE" {
		t.Errorf("milvus metric default not applied: %q", cfg.Databases.Milvus.MetricType)
	}
}

func TestLoadConfig_RejectsOverlapNotSmallerThanChunkSize(t *testing.T) {
	path := writeConfig(t, `
pipeline:
  chunkSize: 100
  chunkOverlap: 100
databases:
  milvus:
    dimension: 384
`)

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected validation error for overlap >= chunk size")
	}
}

func TestLoadConfig_RejectsMissingDimension(t *testing.T) {
	path := writeConfig(t, `
databases:
  milvus:
    address: "localhost:19530"
`)

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected validation error for missing milvus dimension")
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
