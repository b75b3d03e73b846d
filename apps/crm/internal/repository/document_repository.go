package repository

import (
	"context"
	"errors"

	"PipelineCRM/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// documentRepositoryImpl 通用文档库数据访问层实现
type documentRepositoryImpl struct {
	db *gorm.DB
}

// NewDocumentRepository 创建文档仓储实例
func NewDocumentRepository(db *gorm.DB) IDocumentRepository {
	return &documentRepositoryImpl{db: db}
}

// Get 读取单个文档
// 默认过滤已删除行；opts.IncludeDeleted 打开后返回全量状态，
// 软删除服务靠这个读路径看到待删除/已删除的行再做决策
func (r *documentRepositoryImpl) Get(ctx context.Context, collection, docId string, opts GetOpts) (*model.Document, error) {
	query := r.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", collection, docId)
	if !opts.IncludeDeleted {
		query = query.Where("is_deleted = ?", false)
	}

	var doc model.Document
	err := query.First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, WrapDBError(err)
	}
	return &doc, nil
}

// Put 写入文档（upsert）
// 采用 INSERT ON CONFLICT 整行覆盖：不存在"查不到然后插入报错"的时间差
func (r *documentRepositoryImpl) Put(ctx context.Context, doc *model.Document) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "collection"}, {Name: "doc_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"data":               doc.Data,
			"deleted_at_pending": doc.DeletedAtPending,
			"deleted_at":         doc.DeletedAt,
			"is_deleted":         doc.IsDeleted,
			"pending_backup":     doc.PendingBackup,
			"updated_at":         doc.UpdatedAt,
		}),
	}).Create(doc).Error

	if err != nil {
		return WrapDBError(err)
	}
	return nil
}

// Delete 物理删除文档
func (r *documentRepositoryImpl) Delete(ctx context.Context, collection, docId string) error {
	result := r.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", collection, docId).
		Delete(&model.Document{})
	if result.Error != nil {
		return WrapDBError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// GetAll 读取集合全量文档
func (r *documentRepositoryImpl) GetAll(ctx context.Context, collection string, opts GetOpts) ([]*model.Document, error) {
	query := r.db.WithContext(ctx).
		Where("collection = ?", collection)
	if !opts.IncludeDeleted {
		query = query.Where("is_deleted = ?", false)
	}

	var docs []*model.Document
	if err := query.Order("doc_id ASC").Find(&docs).Error; err != nil {
		return nil, WrapDBError(err)
	}
	return docs, nil
}

// ListPending 列出集合内处于待删除状态的文档
// 命中 idx_doc_pending 部分索引，进程启动时逐集合扫一遍重建撤销组
func (r *documentRepositoryImpl) ListPending(ctx context.Context, collection string) ([]*model.Document, error) {
	var docs []*model.Document
	if err := r.db.WithContext(ctx).
		Where("collection = ? AND deleted_at_pending IS NOT NULL", collection).
		Order("deleted_at_pending ASC").
		Find(&docs).Error; err != nil {
		return nil, WrapDBError(err)
	}
	return docs, nil
}
