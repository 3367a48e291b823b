package llm

import (
	"context"
	"fmt"

	"docqa/internal/config"
)

// LLM 定义了所有大型语言模型客户端必须实现的通用接口。
// 问答管道只需要一次性的文本补全，不需要流式输出和工具调用。
type LLM interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// NewClient 是一个工厂函数，根据提供的配置创建并返回一个实现了 LLM 接口的客户端。
func NewClient(ctx context.Context, cfg config.LLMConfig) (LLM, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGemini(ctx, cfg.Gemini.Model, cfg.Gemini.APIKey)
	case "groq":
		return NewGroq(cfg.Groq.Model, cfg.Groq.APIKey, cfg.Groq.BaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
