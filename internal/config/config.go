package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AppInfo 对应 'app' 部分，包含应用程序的基本信息。
type AppInfo struct {
	Name        string `yaml:"name"`        // 应用程序名称
	Version     string `yaml:"version"`     // 应用程序版本
	Environment string `yaml:"environment"` // 运行环境 (例如: "development", "production")
}

// AuthConfig 用于配置请求认证。
// 本服务使用静态 Bearer 令牌认证，所有请求必须携带该令牌。
type AuthConfig struct {
	BearerToken string `yaml:"bearerToken"` // 静态 Bearer 令牌
}

// LoggerConfig 定义了日志记录器的配置。
type LoggerConfig struct {
	Level string `yaml:"level"` // 日志级别 (例如: "info", "debug", "warn", "error")
}

// PipelineConfig 定义了文档问答管道的核心参数。
type PipelineConfig struct {
	ChunkSize        int  `yaml:"chunkSize"`        // 切块窗口大小 (字符数)
	ChunkOverlap     int  `yaml:"chunkOverlap"`     // 相邻切块的重叠字符数 (必须小于 chunkSize)
	TopK             int  `yaml:"topK"`             // 每个问题检索的切块数量
	FailFast         bool `yaml:"failFast"`         // true: 单个问题失败时终止整个请求; false: 尽力而为
	QuestionWorkers  int  `yaml:"questionWorkers"`  // 并发回答问题的工作协程数上限
	FetchTimeoutSecs int  `yaml:"fetchTimeoutSecs"` // 下载文档的超时时间 (秒)
}

// GeminiConfig 包含了 Gemini 模型的配置。
type GeminiConfig struct {
	APIKey string `yaml:"apiKey"` // Gemini API 密钥
	Model  string `yaml:"model"`  // Gemini 模型名称
}

// HuggingFaceConfig 包含了 Hugging Face Inference API 的配置。
type HuggingFaceConfig struct {
	APIKey    string `yaml:"apiKey"`    // Hugging Face API 密钥
	Model     string `yaml:"model"`     // 模型名称 (例如: "BAAI/bge-small-en-v1.5")
	BaseURL   string `yaml:"baseURL"`   // Inference API 基准 URL (可选)
	Dimension int    `yaml:"dimension"` // 该模型的向量维度 (bge-small 为 384)
}

// GroqConfig 包含了 Groq (OpenAI 兼容) 模型的配置。
type GroqConfig struct {
	APIKey  string `yaml:"apiKey"`  // Groq API 密钥
	Model   string `yaml:"model"`   // 模型名称
	BaseURL string `yaml:"baseURL"` // OpenAI 兼容端点 (默认: "https://api.groq.com/openai/v1")
}

// EmbeddingConfig 包含了不同Embedding提供商的配置。
type EmbeddingConfig struct {
	Provider    string            `yaml:"provider"`    // Embedding提供商 (例如: "gemini", "huggingface")
	Gemini      GeminiConfig      `yaml:"gemini"`      // Gemini 模型配置
	HuggingFace HuggingFaceConfig `yaml:"huggingface"` // Hugging Face 模型配置
}

// LLMConfig 包含了不同LLM提供商的配置。
type LLMConfig struct {
	Provider string       `yaml:"provider"` // LLM提供商 (例如: "gemini", "groq")
	Gemini   GeminiConfig `yaml:"gemini"`   // Gemini 模型配置
	Groq     GroqConfig   `yaml:"groq"`     // Groq 模型配置
}

// MilvusConfig 定义了 Milvus 数据库的连接和集合配置。
// 每个请求在该集合下创建一个独立分区作为一次性的向量索引命名空间。
type MilvusConfig struct {
	Address    string `yaml:"address"`    // Milvus 服务地址
	Collection string `yaml:"collection"` // 集合名称
	Dimension  int    `yaml:"dimension"`  // 向量维度 (必须与 Embedding 模型一致)
	MetricType string `yaml:"metricType"` // 相似度度量类型 (例如: "COSINE", "L2")
}

// MySQLConfig 定义了 MySQL 数据库的连接配置。
type MySQLConfig struct {
	Address         string `yaml:"address"`         // MySQL 服务器地址
	Username        string `yaml:"username"`        // 用户名
	Password        string `yaml:"password"`        // 密码
	Database        string `yaml:"database"`        // 数据库名称
	MaxOpenConns    int    `yaml:"maxOpenConns"`    // 最大打开连接数
	MaxIdleConns    int    `yaml:"maxIdleConns"`    // 最大空闲连接数
	ConnMaxLifetime int    `yaml:"connMaxLifetime"` // 连接最大生命周期 (秒)
}

// DatabaseConfigs 包含所有数据库的配置。
type DatabaseConfigs struct {
	Milvus MilvusConfig `yaml:"milvus"` // Milvus 数据库配置
	MySQL  MySQLConfig  `yaml:"mysql"`  // MySQL 数据库配置 (仅用于请求记录)
}

// TokenBucketConfig 定义了令牌桶算法的配置。
type TokenBucketConfig struct {
	Rate     float64 `yaml:"rate"` // 每秒速率
	Capacity int     `yaml:"capacity"`
}

// RateLimiterConfig 定义了限流器的配置。
type RateLimiterConfig struct {
	Enabled     bool              `yaml:"enabled"`
	TokenBucket TokenBucketConfig `yaml:"tokenBucket"`
}

// MiddlewareConfig 包含所有中间件的配置。
type MiddlewareConfig struct {
	RateLimiter RateLimiterConfig `yaml:"rateLimiter"`
}

// AppConfig 是整个 YAML 文件的根结构，包含了应用程序的所有配置。
type AppConfig struct {
	App        AppInfo          `yaml:"app"`        // 应用程序信息
	Auth       AuthConfig       `yaml:"auth"`       // 认证配置
	Logger     LoggerConfig     `yaml:"logger"`     // 日志记录器配置
	Pipeline   PipelineConfig   `yaml:"pipeline"`   // 问答管道配置
	Embedding  EmbeddingConfig  `yaml:"embedding"`  // Embedding 配置部分
	LLM        LLMConfig        `yaml:"llm"`        // LLM 配置部分
	Databases  DatabaseConfigs  `yaml:"databases"`  // 数据库配置
	Middleware MiddlewareConfig `yaml:"middleware"` // 中间件配置
}

// LoadConfig 函数从指定路径加载并解析 YAML 配置文件。
// 解析之前会对文件内容做环境变量展开 (例如 "${GROQ_API_KEY}")，
// 以避免把密钥硬编码在配置文件中。
//
// 参数:
//
//	path: YAML 配置文件的路径。
//
// 返回值:
//
//	*AppConfig: 解析后的应用程序配置结构体。
//	error: 如果文件读取、解析或校验失败，则返回错误。
func LoadConfig(path string) (*AppConfig, error) {
	// 读取 YAML 文件内容。
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("无法读取 YAML 文件 '%s': %w", path, err)
	}

	// 展开形如 ${VAR} 的环境变量引用。
	expanded := os.ExpandEnv(string(yamlFile))

	var cfg AppConfig
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("解析 YAML 文件失败: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults 为缺省的管道参数填充默认值。
func applyDefaults(cfg *AppConfig) {
	if cfg.Pipeline.ChunkSize == 0 {
		cfg.Pipeline.ChunkSize = 1000
	}
	if cfg.Pipeline.ChunkOverlap == 0 {
		cfg.Pipeline.ChunkOverlap = 200
	}
	if cfg.Pipeline.TopK == 0 {
		cfg.Pipeline.TopK = 5
	}
	if cfg.Pipeline.QuestionWorkers == 0 {
		cfg.Pipeline.QuestionWorkers = 4
	}
	if cfg.Pipeline.FetchTimeoutSecs == 0 {
		cfg.Pipeline.FetchTimeoutSecs = 60
	}
	if cfg.Embedding.HuggingFace.Dimension == 0 {
		cfg.Embedding.HuggingFace.Dimension = 384
	}
	if cfg.LLM.Groq.BaseURL == "" {
		cfg.LLM.Groq.BaseURL = "https://api.groq.com/openai/v1"
	}
	if cfg.Databases.Milvus.MetricType == "" {
		cfg.Databases.Milvus.MetricType = "COSINE"
	}
}

// validate 校验配置中相互约束的字段。
func validate(cfg *AppConfig) error {
	if cfg.Pipeline.ChunkOverlap >= cfg.Pipeline.ChunkSize {
		return fmt.Errorf("chunkOverlap (%d) 必须小于 chunkSize (%d)",
			cfg.Pipeline.ChunkOverlap, cfg.Pipeline.ChunkSize)
	}
	if cfg.Databases.Milvus.Dimension <= 0 {
		return fmt.Errorf("databases.milvus.dimension 必须为正数")
	}
	return nil
}
