package milvus

import (
	"context"
	"fmt"
	"log"
	"sync"

	"docqa/internal/config"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

// 集合 Schema 中的字段名。每个请求的切块向量写入同一个集合下
// 以会话 ID 命名的独立分区。
const (
	FieldID        = "id"        // 切块主键: "<session>:<seq>"
	FieldSeq       = "seq"       // 切块在文档中的序号 (0 起始)
	FieldText      = "text"      // 切块文本内容
	FieldPage      = "page"      // 切块起始位置所在的页码 (1 起始)
	FieldEmbedding = "embedding" // 切块的向量表示

	textMaxLength = 65535
	idMaxLength   = 96
)

var (
	instance *MilvusClient
	once     sync.Once
	initErr  error
)

// MilvusClient 包含了 Milvus 客户端实例和相关配置。
type MilvusClient struct {
	Client client.Client        // Milvus 客户端实例。
	Config *config.MilvusConfig // Milvus 配置。
}

// GetClient 使用单例模式创建并返回一个 Milvus 客户端实例。
func GetClient(ctx context.Context, cfg *config.MilvusConfig) (*MilvusClient, error) {
	once.Do(func() {
		// 使用配置中的地址创建 Milvus 客户端。
		c, err := client.NewClient(ctx, client.Config{Address: cfg.Address})
		if err != nil {
			initErr = fmt.Errorf("无法连接到 Milvus: %w", err)
			return
		}
		log.Println("✅ 成功连接到 Milvus!")
		instance = &MilvusClient{Client: c, Config: cfg}
	})
	return instance, initErr
}

// Close 安全地关闭与 Milvus 的连接。
func (c *MilvusClient) Close() {
	if c.Client != nil {
		c.Client.Close()
		log.Println("ℹ️ 已安全关闭 Milvus 连接。")
	}
}

// HealthCheck 检查 Milvus 连接的健康状况。
func (c *MilvusClient) HealthCheck(ctx context.Context) error {
	if c.Client == nil {
		return fmt.Errorf("Milvus client is nil")
	}
	_, err := c.Client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("Milvus health check failed: %w", err)
	}
	return nil
}

// EnsureCollection 确保问答服务使用的集合存在并已加载。
// 集合只创建一次；每个请求只新建/删除自己的分区。
func (c *MilvusClient) EnsureCollection(ctx context.Context) error {
	collName := c.Config.Collection
	exists, err := c.Client.HasCollection(ctx, collName)
	if err != nil {
		return fmt.Errorf("检查集合是否存在时出错: %w", err)
	}

	if !exists {
		schema := entity.NewSchema().
			WithName(collName).
			WithDescription("per-request document chunk vectors").
			WithField(entity.NewField().WithName(FieldID).
				WithDataType(entity.FieldTypeVarChar).WithMaxLength(idMaxLength).
				WithIsPrimaryKey(true)).
			WithField(entity.NewField().WithName(FieldSeq).
				WithDataType(entity.FieldTypeInt64)).
			WithField(entity.NewField().WithName(FieldText).
				WithDataType(entity.FieldTypeVarChar).WithMaxLength(textMaxLength)).
			WithField(entity.NewField().WithName(FieldPage).
				WithDataType(entity.FieldTypeInt64)).
			WithField(entity.NewField().WithName(FieldEmbedding).
				WithDataType(entity.FieldTypeFloatVector).WithDim(int64(c.Config.Dimension)))

		if err := c.Client.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
			return fmt.Errorf("创建集合失败: %w", err)
		}

		idx, err := entity.NewIndexIvfFlat(entity.MetricType(c.Config.MetricType), 128)
		if err != nil {
			return fmt.Errorf("构建索引失败: %w", err)
		}
		if err := c.Client.CreateIndex(ctx, collName, FieldEmbedding, idx, false); err != nil {
			return fmt.Errorf("为字段 '%s' 创建索引失败: %w", FieldEmbedding, err)
		}
		log.Printf("✅ 成功创建集合: %s", collName)
	}

	if err := c.Client.LoadCollection(ctx, collName, false); err != nil {
		return fmt.Errorf("加载 Milvus 集合 '%s' 失败: %w", collName, err)
	}
	return nil
}

// CreatePartition 创建一个新的分区。
func (c *MilvusClient) CreatePartition(ctx context.Context, partitionName string) error {
	collName := c.Config.Collection
	err := c.Client.CreatePartition(ctx, collName, partitionName)
	if err != nil {
		return fmt.Errorf("为集合 '%s' 创建分区 '%s' 失败: %w", collName, partitionName, err)
	}
	log.Printf("✅ 成功创建分区: %s", partitionName)
	return nil
}

// HasPartition 检查指定的分区是否存在。
func (c *MilvusClient) HasPartition(ctx context.Context, partitionName string) (bool, error) {
	collName := c.Config.Collection
	partitions, err := c.Client.ShowPartitions(ctx, collName)
	if err != nil {
		return false, fmt.Errorf("无法获取集合 '%s' 的分区列表: %w", collName, err)
	}

	for _, p := range partitions {
		if p.Name == partitionName {
			return true, nil
		}
	}
	return false, nil
}

// DropPartition 删除一个分区及其中的所有向量。
func (c *MilvusClient) DropPartition(ctx context.Context, partitionName string) error {
	collName := c.Config.Collection
	err := c.Client.DropPartition(ctx, collName, partitionName)
	if err != nil {
		return fmt.Errorf("为集合 '%s' 删除分区 '%s' 失败: %w", collName, partitionName, err)
	}
	log.Printf("✅ 成功删除分区: %s", partitionName)
	return nil
}

// InsertBatch 将一批切块及其向量写入指定分区。
// 所有切片的长度必须一致。
func (c *MilvusClient) InsertBatch(ctx context.Context, partitionName string, ids []string, seqs []int64, texts []string, pages []int64, vectors [][]float32) error {
	if len(ids) != len(vectors) || len(ids) != len(texts) || len(ids) != len(seqs) || len(ids) != len(pages) {
		return fmt.Errorf("mismatch between column lengths: ids=%d seqs=%d texts=%d pages=%d vectors=%d",
			len(ids), len(seqs), len(texts), len(pages), len(vectors))
	}
	if len(ids) == 0 {
		return nil // Nothing to insert
	}

	idCol := entity.NewColumnVarChar(FieldID, ids)
	seqCol := entity.NewColumnInt64(FieldSeq, seqs)
	textCol := entity.NewColumnVarChar(FieldText, texts)
	pageCol := entity.NewColumnInt64(FieldPage, pages)
	vectorCol := entity.NewColumnFloatVector(FieldEmbedding, c.Config.Dimension, vectors)

	_, err := c.Client.Insert(ctx, c.Config.Collection, partitionName, idCol, seqCol, textCol, pageCol, vectorCol)
	if err != nil {
		return fmt.Errorf("failed to batch insert data into Milvus: %w", err)
	}
	return nil
}

// Flush 手动触发一次刷新操作，保证分区中的数据对搜索可见。
func (c *MilvusClient) Flush(ctx context.Context) error {
	collName := c.Config.Collection
	if err := c.Client.Flush(ctx, collName, false); err != nil {
		return fmt.Errorf("刷新集合 '%s' 失败: %w", collName, err)
	}
	return nil
}

// SearchPartition 在指定的分区中执行向量相似度搜索。
func (c *MilvusClient) SearchPartition(ctx context.Context, partitionName string, topK int, vector []float32) ([]client.SearchResult, error) {
	collName := c.Config.Collection

	sp, _ := entity.NewIndexIvfFlatSearchParam(10)
	searchVectors := []entity.Vector{entity.FloatVector(vector)}
	outputFields := []string{FieldID, FieldSeq, FieldText, FieldPage}

	log.Printf("⏳ 正在分区 '%s' 中搜索 (TopK=%d)...", partitionName, topK)
	results, err := c.Client.Search(
		ctx,
		collName,
		[]string{partitionName},
		"",
		outputFields,
		searchVectors,
		FieldEmbedding,
		entity.MetricType(c.Config.MetricType),
		topK,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("在分区 '%s' 中搜索失败: %w", partitionName, err)
	}
	return results, nil
}
