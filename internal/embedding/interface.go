package embedding

import "context"

// Embedding 定义了所有 embedding 模型需要实现的接口。
// 对固定的模型版本，同一文本必须产生同一向量，否则检索结果不可复现。
type Embedding interface {
	// Embed 为单个文本生成嵌入向量。
	//
	// 参数:
	//   ctx: 上下文，用于控制操作的生命周期。
	//   text: 要生成嵌入向量的文本。
	//
	// 返回值:
	//   []float32: 生成的嵌入向量。
	//   error: 如果生成嵌入向量失败，则返回错误。
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch 为一批文本生成嵌入向量。
	// 返回的切片与输入文本一一对应，顺序保持不变。
	//
	// 参数:
	//   ctx: 上下文，用于控制操作的生命周期。
	//   texts: 要生成嵌入向量的文本切片。
	//
	// 返回值:
	//   [][]float32: 生成的嵌入向量切片，长度等于输入长度。
	//   error: 如果生成嵌入向量失败，则返回错误。
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension 返回该模型生成向量的固定维度。
	// 索引中的切块向量与查询向量必须同维。
	Dimension() int
}
