package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// HuggingFaceModel 是一个用于 Hugging Face Inference API 的 Embedding 模型客户端。
// 默认模型 bge-small-en-v1.5 产生 384 维的归一化向量，适合余弦相似度检索。
type HuggingFaceModel struct {
	client    *http.Client // HTTP 客户端实例。
	model     string       // 要使用的模型名称。
	apiKey    string       // Hugging Face API 密钥。
	baseURL   string       // Hugging Face Inference API 的基准 URL。
	dimension int          // 该模型的向量维度。
}

// NewHuggingFaceModel 创建一个新的 HuggingFaceModel 客户端。
//
// 参数:
//
//	apiKey: Hugging Face 的 API 密钥。
//	modelName: 要使用的模型名称。
//	baseURL: Inference API 的基准 URL。如果为空，则默认为官方地址。
//	dimension: 该模型的向量维度。
//
// 返回值:
//
//	*HuggingFaceModel: 新创建的 HuggingFaceModel 客户端实例。
//	error: 如果创建客户端失败，则返回错误。
func NewHuggingFaceModel(apiKey, modelName, baseURL string, dimension int) (*HuggingFaceModel, error) {
	if baseURL == "" {
		baseURL = "https://api-inference.huggingface.co/pipeline/feature-extraction/"
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("invalid embedding dimension: %d", dimension)
	}
	return &HuggingFaceModel{
		client:    &http.Client{},
		model:     modelName,
		apiKey:    apiKey,
		baseURL:   baseURL,
		dimension: dimension,
	}, nil
}

// Embed 使用 Hugging Face Inference API 为单个文本生成嵌入向量。
func (m *HuggingFaceModel) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedBatch 使用 Hugging Face Inference API 为一批文本生成嵌入向量。
// 返回的向量与输入文本一一对应。
func (m *HuggingFaceModel) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	// 准备请求载荷。normalize_embeddings 保证向量归一化，
	// 使内积与余弦相似度等价。
	payload := map[string]interface{}{
		"inputs": texts,
		"options": map[string]bool{
			"wait_for_model": true, // 等待模型加载。
		},
	}

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", m.baseURL+m.model, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close() // 确保在函数退出时关闭响应体。

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("embedding request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var embeddings [][]float32
	if err := json.NewDecoder(resp.Body).Decode(&embeddings); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	// Inference API 必须为每个输入返回一个向量。
	if len(embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(embeddings))
	}
	for i, emb := range embeddings {
		if len(emb) != m.dimension {
			return nil, fmt.Errorf("embedding %d has dimension %d, expected %d", i, len(emb), m.dimension)
		}
	}

	return embeddings, nil
}

// Dimension 返回配置的向量维度。
func (m *HuggingFaceModel) Dimension() int {
	return m.dimension
}
