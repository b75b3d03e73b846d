package repository

import (
	"context"
	"errors"

	"PipelineCRM/model"

	"gorm.io/gorm"
)

// relationRepositoryImpl 关系边数据访问层实现
type relationRepositoryImpl struct {
	db *gorm.DB
}

// NewRelationRepository 创建关系边仓储实例
func NewRelationRepository(db *gorm.DB) IRelationRepository {
	return &relationRepositoryImpl{db: db}
}

// GetByFrom 查询以 contactId 为规范起点的所有边
func (r *relationRepositoryImpl) GetByFrom(ctx context.Context, contactId string) ([]*model.RelationshipEdge, error) {
	var edges []*model.RelationshipEdge
	if err := r.db.WithContext(ctx).
		Where("from_id = ?", contactId).
		Find(&edges).Error; err != nil {
		return nil, WrapDBError(err)
	}
	return edges, nil
}

// GetByTo 查询以 contactId 为规范终点的所有边
func (r *relationRepositoryImpl) GetByTo(ctx context.Context, contactId string) ([]*model.RelationshipEdge, error) {
	var edges []*model.RelationshipEdge
	if err := r.db.WithContext(ctx).
		Where("to_id = ?", contactId).
		Find(&edges).Error; err != nil {
		return nil, WrapDBError(err)
	}
	return edges, nil
}

// GetByEdgeKey 按规范边键查询
// 未命中返回 (nil, nil)：边不存在对调用方是正常分支，不算错误
func (r *relationRepositoryImpl) GetByEdgeKey(ctx context.Context, edgeKey string) (*model.RelationshipEdge, error) {
	var edge model.RelationshipEdge
	err := r.db.WithContext(ctx).
		Where("edge_key = ?", edgeKey).
		First(&edge).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, WrapDBError(err)
	}
	return &edge, nil
}

// ListTouching 查询与 contactId 相连的所有边
// 一条 SQL 同时命中 idx_edge_from / idx_edge_to 两个索引；
// 规范方向下 from_id != to_id，两个条件不会重复匹配同一行
func (r *relationRepositoryImpl) ListTouching(ctx context.Context, contactId string) ([]*model.RelationshipEdge, error) {
	var edges []*model.RelationshipEdge
	if err := r.db.WithContext(ctx).
		Where("from_id = ? OR to_id = ?", contactId, contactId).
		Find(&edges).Error; err != nil {
		return nil, WrapDBError(err)
	}
	return edges, nil
}

// ListTouchingMany 一次查询与任一 contactId 相连的所有边
// 批量列表页只发一条 IN 查询而不是每个id一趟往返，按id分桶由服务层做
func (r *relationRepositoryImpl) ListTouchingMany(ctx context.Context, contactIds []string) ([]*model.RelationshipEdge, error) {
	if len(contactIds) == 0 {
		return nil, nil
	}
	var edges []*model.RelationshipEdge
	if err := r.db.WithContext(ctx).
		Where("from_id IN ? OR to_id IN ?", contactIds, contactIds).
		Find(&edges).Error; err != nil {
		return nil, WrapDBError(err)
	}
	return edges, nil
}

// Add 新增边
// id 由服务层生成且不复用，id/edge_key 冲突直接报 ErrDuplicateKey 给上层判重
func (r *relationRepositoryImpl) Add(ctx context.Context, edge *model.RelationshipEdge) error {
	if err := r.db.WithContext(ctx).Create(edge).Error; err != nil {
		return WrapDBError(err)
	}
	return nil
}

// Update 按 id 整行覆盖更新
// 合并重连会改写 from_id/to_id/edge_key，必须用 Save 整行写而不是 Updates 选列
func (r *relationRepositoryImpl) Update(ctx context.Context, edge *model.RelationshipEdge) error {
	result := r.db.WithContext(ctx).
		Model(&model.RelationshipEdge{}).
		Where("id = ?", edge.Id).
		Updates(map[string]interface{}{
			"from_id":    edge.FromId,
			"to_id":      edge.ToId,
			"edge_key":   edge.EdgeKey,
			"role":       edge.Role,
			"updated_at": edge.UpdatedAt,
		})
	if result.Error != nil {
		return WrapDBError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// Delete 按 id 删除
func (r *relationRepositoryImpl) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.RelationshipEdge{})
	if result.Error != nil {
		return WrapDBError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// CountByFrom 统计以 contactId 为起点的边数
func (r *relationRepositoryImpl) CountByFrom(ctx context.Context, contactId string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&model.RelationshipEdge{}).
		Where("from_id = ?", contactId).
		Count(&count).Error; err != nil {
		return 0, WrapDBError(err)
	}
	return count, nil
}

// CountByTo 统计以 contactId 为终点的边数
func (r *relationRepositoryImpl) CountByTo(ctx context.Context, contactId string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&model.RelationshipEdge{}).
		Where("to_id = ?", contactId).
		Count(&count).Error; err != nil {
		return 0, WrapDBError(err)
	}
	return count, nil
}
