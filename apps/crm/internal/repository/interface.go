package repository

import (
	"context"

	"PipelineCRM/model"
)

// ==================== 关系边 Repository ====================

// IRelationRepository 关系边数据访问接口。
// 所有读操作返回的都是独立副本，调用方可以随意修改而不影响存储。
// 每个方法对应一条 SQL（单语句事务）；跨多条边的复合操作（如合并重连）
// 由服务层逐边调用完成，中途崩溃时每条已写入的边各自保持良构。
type IRelationRepository interface {
	// GetByFrom 查询以 contactId 为规范起点的所有边
	GetByFrom(ctx context.Context, contactId string) ([]*model.RelationshipEdge, error)

	// GetByTo 查询以 contactId 为规范终点的所有边
	GetByTo(ctx context.Context, contactId string) ([]*model.RelationshipEdge, error)

	// GetByEdgeKey 按规范边键查询，未命中返回 (nil, nil)
	GetByEdgeKey(ctx context.Context, edgeKey string) (*model.RelationshipEdge, error)

	// ListTouching 查询与 contactId 相连的所有边（from/to 两个索引的并集）
	ListTouching(ctx context.Context, contactId string) ([]*model.RelationshipEdge, error)

	// ListTouchingMany 一次查询与任一 contactId 相连的所有边，整批只走一趟存储
	ListTouchingMany(ctx context.Context, contactIds []string) ([]*model.RelationshipEdge, error)

	// Add 新增边，id 或 edge_key 冲突时返回 ErrDuplicateKey
	Add(ctx context.Context, edge *model.RelationshipEdge) error

	// Update 按 id 整行覆盖更新，目标不存在时返回 ErrRecordNotFound
	Update(ctx context.Context, edge *model.RelationshipEdge) error

	// Delete 按 id 删除，目标不存在时返回 ErrRecordNotFound
	Delete(ctx context.Context, id string) error

	// CountByFrom 统计以 contactId 为起点的边数
	CountByFrom(ctx context.Context, contactId string) (int64, error)

	// CountByTo 统计以 contactId 为终点的边数
	CountByTo(ctx context.Context, contactId string) (int64, error)
}

// ==================== 通用文档 Repository ====================

// GetOpts 文档读取选项。
type GetOpts struct {
	// IncludeDeleted 为 true 时连同待删除/已删除的行一起返回。
	// 软删除服务的读路径必须看到全量状态才能正确决策。
	IncludeDeleted bool
}

// IDocumentRepository 通用文档库数据访问接口，按 (collection, docId) 定位。
// 未命中统一返回 (nil, nil) 而不是错误：上层对 NotFound 的语义是静默跳过。
type IDocumentRepository interface {
	// Get 读取单个文档
	Get(ctx context.Context, collection, docId string, opts GetOpts) (*model.Document, error)

	// Put 写入文档（upsert），已存在时整行覆盖
	Put(ctx context.Context, doc *model.Document) error

	// Delete 物理删除文档（仅诊断/清理路径使用，业务删除走软删除服务）
	Delete(ctx context.Context, collection, docId string) error

	// GetAll 读取集合全量文档
	GetAll(ctx context.Context, collection string, opts GetOpts) ([]*model.Document, error)

	// ListPending 列出集合内处于待删除状态的文档（启动恢复扫描用）
	ListPending(ctx context.Context, collection string) ([]*model.Document, error)
}
