package llm

import (
	"context"
	"fmt"

	openai "github.com/meguminnnnnnnnn/go-openai"
)

// Groq 是一个实现了 LLM 接口的结构体，通过 OpenAI 兼容接口与 Groq API 交互。
type Groq struct {
	client *openai.Client // OpenAI 兼容客户端实例。
	model  string         // 要使用的模型名称。
}

// NewGroq 创建一个新的 Groq 客户端。
//
// 参数:
//
//	model: 要使用的 Groq 模型名称。
//	apiKey: Groq API 密钥。
//	baseURL: Groq 的 OpenAI 兼容接口地址。
//
// 返回值:
//
//	*Groq: 新创建的 Groq 客户端实例。
func NewGroq(model, apiKey, baseURL string) *Groq {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL

	return &Groq{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Generate 向 Groq API 发送单个提示词并返回文本回答。
func (g *Groq) Generate(ctx context.Context, prompt string) (string, error) {
	temperature := float32(0)
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: &temperature,
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("groq response contained no choices")
	}

	return resp.Choices[0].Message.Content, nil
}
