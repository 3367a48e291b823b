package embedding

import (
	"fmt"

	"docqa/internal/config"
)

// NewEmdModel 根据配置创建并返回一个新的 Embedding 模型实例。
//
// 参数:
//
//	cfg: Embedding 配置部分，provider 决定使用哪个提供商。
//
// 返回值:
//
//	Embedding: 新创建的 Embedding 模型实例。
//	error: 如果提供商不支持或模型初始化失败，则返回错误。
func NewEmdModel(cfg config.EmbeddingConfig) (Embedding, error) {
	// 根据提供商类型创建相应的 Embedding 模型实例。
	switch cfg.Provider {
	case "gemini":
		return NewGoogleModel(cfg.Gemini.APIKey, cfg.Gemini.Model)
	case "huggingface":
		return NewHuggingFaceModel(cfg.HuggingFace.APIKey, cfg.HuggingFace.Model, cfg.HuggingFace.BaseURL, cfg.HuggingFace.Dimension)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider) // 如果提供商不支持，返回错误。
	}
}
