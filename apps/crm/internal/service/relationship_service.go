package service

import (
	"context"
	"errors"
	"runtime"
	"strconv"
	"strings"
	"time"

	"PipelineCRM/apps/crm/internal/notify"
	"PipelineCRM/apps/crm/internal/repository"
	"PipelineCRM/config"
	"PipelineCRM/model"
	"PipelineCRM/pkg/logger"
	"PipelineCRM/pkg/metrics"

	"github.com/bwmarrin/snowflake"
	lru "github.com/hashicorp/golang-lru/v2"
)

// relationshipServiceImpl 联系人关系图服务实现
type relationshipServiceImpl struct {
	repo       repository.IRelationRepository
	hub        *notify.Hub
	activity   ActivityLogger
	node       *snowflake.Node
	countCache *lru.Cache[string, int64]
	yieldEvery int
}

// NewRelationshipService 创建关系图服务实例
func NewRelationshipService(
	repo repository.IRelationRepository,
	hub *notify.Hub,
	activity ActivityLogger,
	cfg config.CRMConfig,
) (RelationshipService, error) {
	// 单进程本地应用，snowflake 节点号固定即可
	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, err
	}

	cacheSize := cfg.LinkCountCacheSize
	if cacheSize <= 0 {
		cacheSize = 1024
	}
	countCache, err := lru.New[string, int64](cacheSize)
	if err != nil {
		return nil, err
	}

	if activity == nil {
		activity = NopActivityLogger{}
	}

	return &relationshipServiceImpl{
		repo:       repo,
		hub:        hub,
		activity:   activity,
		node:       node,
		countCache: countCache,
		yieldEvery: cfg.RepointYieldEvery,
	}, nil
}

// NormalizePair 规范化无序联系人对。
// 排序就是普通的字符串字典序比较，作为确定性的平局裁决，
// 同一无序对不论参数顺序都映射到同一个 edgeKey。
func (s *relationshipServiceImpl) NormalizePair(a, b string) (NormalizedPair, error) {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)

	if a == "" || b == "" {
		return NormalizedPair{}, ErrEmptyContactId
	}
	if a == b {
		return NormalizedPair{}, ErrSelfLink
	}

	fromId, toId := a, b
	if fromId > toId {
		fromId, toId = toId, fromId
	}

	return NormalizedPair{
		FromId:  fromId,
		ToId:    toId,
		EdgeKey: fromId + model.EdgeKeySeparator + toId,
	}, nil
}

// LinkContacts 建立或更新关系。
// 幂等语义：
// - 边不存在 → 新建，changed=true；
// - 边存在且角色不同 → 只更新角色并刷新 updated_at，changed=true；
// - 边存在且角色相同 → 不写存储，changed=false。
// 每次调用固定发出一条变更通知（changed 字段透传给消费方自行取舍）。
func (s *relationshipServiceImpl) LinkContacts(ctx context.Context, a, b, role string) (*LinkResult, error) {
	pair, err := s.NormalizePair(a, b)
	if err != nil {
		return nil, err
	}
	role = model.NormalizeRole(role)

	result, err := s.upsertEdge(ctx, pair, role)
	if err != nil {
		return nil, err
	}

	if result.Changed {
		s.invalidateCounts(pair.FromId, pair.ToId)
		s.activity.Log(ctx, "建立联系人关系", map[string]interface{}{
			"fromId": pair.FromId,
			"toId":   pair.ToId,
			"role":   role,
		})
	}
	metrics.RelationshipOps.WithLabelValues("link", strconv.FormatBool(result.Changed)).Inc()

	s.hub.Publish(ctx, notify.Change{
		Topic: notify.TopicRelationships,
		Op:    notify.OpLink,
		Ids:   []string{pair.FromId, pair.ToId},
		Detail: map[string]interface{}{
			"changed": result.Changed,
			"edgeId":  result.Edge.Id,
			"role":    result.Edge.Role,
		},
	})

	return result, nil
}

// upsertEdge 在规范对上创建或更新边。
// 并发建边撞到唯一键时重读一次转入更新路径，不把冲突暴露给调用方。
func (s *relationshipServiceImpl) upsertEdge(ctx context.Context, pair NormalizedPair, role string) (*LinkResult, error) {
	now := time.Now().UnixMilli()

	existing, err := s.repo.GetByEdgeKey(ctx, pair.EdgeKey)
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}

	if existing != nil {
		if existing.Role == role {
			return &LinkResult{Edge: existing, Changed: false}, nil
		}
		existing.Role = role
		existing.UpdatedAt = now
		if err := s.repo.Update(ctx, existing); err != nil {
			return nil, errors.Join(ErrStoreUnavailable, err)
		}
		return &LinkResult{Edge: existing, Changed: true}, nil
	}

	edge := &model.RelationshipEdge{
		Id:        s.node.Generate().String(),
		FromId:    pair.FromId,
		ToId:      pair.ToId,
		EdgeKey:   pair.EdgeKey,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = s.repo.Add(ctx, edge)
	if err == nil {
		return &LinkResult{Edge: edge, Changed: true}, nil
	}
	if !errors.Is(err, repository.ErrDuplicateKey) {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}

	// 唯一键冲突：同一对的边刚被并发写入，重读后按更新路径处理
	existing, err = s.repo.GetByEdgeKey(ctx, pair.EdgeKey)
	if err != nil || existing == nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	if existing.Role == role {
		return &LinkResult{Edge: existing, Changed: false}, nil
	}
	existing.Role = role
	existing.UpdatedAt = now
	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	return &LinkResult{Edge: existing, Changed: true}, nil
}

// UnlinkContacts 解除关系。
// 幂等：边本就不存在时返回 changed=false，不算错误；通知照常发出。
func (s *relationshipServiceImpl) UnlinkContacts(ctx context.Context, a, b string) (bool, error) {
	pair, err := s.NormalizePair(a, b)
	if err != nil {
		return false, err
	}

	edge, err := s.repo.GetByEdgeKey(ctx, pair.EdgeKey)
	if err != nil {
		return false, errors.Join(ErrStoreUnavailable, err)
	}

	changed := false
	if edge != nil {
		err := s.repo.Delete(ctx, edge.Id)
		switch {
		case err == nil:
			changed = true
		case errors.Is(err, repository.ErrRecordNotFound):
			// 并发下已被别处删掉，按幂等处理
		default:
			return false, errors.Join(ErrStoreUnavailable, err)
		}
	}

	if changed {
		s.invalidateCounts(pair.FromId, pair.ToId)
		s.activity.Log(ctx, "解除联系人关系", map[string]interface{}{
			"fromId": pair.FromId,
			"toId":   pair.ToId,
		})
	}
	metrics.RelationshipOps.WithLabelValues("unlink", strconv.FormatBool(changed)).Inc()

	s.hub.Publish(ctx, notify.Change{
		Topic: notify.TopicRelationships,
		Op:    notify.OpUnlink,
		Ids:   []string{pair.FromId, pair.ToId},
		Detail: map[string]interface{}{
			"changed": changed,
		},
	})

	return changed, nil
}

// ListLinksFor 查询单个联系人的全部关联。
// from/to 两个索引的并集按边id去重（规范方向下不会真的重复，纯防御），
// 每条边映射成以对端为主体的邻居视图。
func (s *relationshipServiceImpl) ListLinksFor(ctx context.Context, contactId string) (*LinkView, error) {
	contactId = strings.TrimSpace(contactId)
	if contactId == "" {
		return nil, ErrEmptyContactId
	}

	fromEdges, err := s.repo.GetByFrom(ctx, contactId)
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	toEdges, err := s.repo.GetByTo(ctx, contactId)
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}

	view := &LinkView{
		Edges:     make([]*model.RelationshipEdge, 0, len(fromEdges)+len(toEdges)),
		Neighbors: make([]Neighbor, 0, len(fromEdges)+len(toEdges)),
	}
	seen := make(map[string]struct{}, len(fromEdges)+len(toEdges))
	for _, edge := range append(fromEdges, toEdges...) {
		if _, ok := seen[edge.Id]; ok {
			continue
		}
		seen[edge.Id] = struct{}{}
		view.Edges = append(view.Edges, edge)
		view.Neighbors = append(view.Neighbors, Neighbor{
			ContactId: edge.OtherEnd(contactId),
			Role:      edge.Role,
			EdgeId:    edge.Id,
		})
	}

	return view, nil
}

// ListLinksForMany 批量查询多个联系人的关联。
// UI 一次渲染整页联系人时调用，整批合成一条 IN 查询，不做每个id一趟往返；
// 查询失败时整批降级为空列表并记日志，不向调用方报错。
func (s *relationshipServiceImpl) ListLinksForMany(ctx context.Context, contactIds []string) (map[string][]Neighbor, error) {
	ids := make([]string, 0, len(contactIds))
	result := make(map[string][]Neighbor, len(contactIds))
	for _, contactId := range contactIds {
		contactId = strings.TrimSpace(contactId)
		if contactId == "" {
			continue
		}
		if _, ok := result[contactId]; ok {
			continue
		}
		ids = append(ids, contactId)
		result[contactId] = []Neighbor{}
	}
	if len(ids) == 0 {
		return result, nil
	}

	edges, err := s.repo.ListTouchingMany(ctx, ids)
	if err != nil {
		repository.LogDBError(ctx, err)
		return result, nil
	}

	// 同一条边可能同时命中两个请求的id，各自的桶都要有
	seen := make(map[string]struct{}, len(edges))
	for _, edge := range edges {
		if _, ok := seen[edge.Id]; ok {
			continue
		}
		seen[edge.Id] = struct{}{}
		for _, contactId := range []string{edge.FromId, edge.ToId} {
			if _, ok := result[contactId]; !ok {
				continue
			}
			result[contactId] = append(result[contactId], Neighbor{
				ContactId: edge.OtherEnd(contactId),
				Role:      edge.Role,
				EdgeId:    edge.Id,
			})
		}
	}

	return result, nil
}

// CountLinks 查询联系人关联数。
// 角标场景只要数字不要边内容，from/to 两个计数索引相加即可；
// 结果进 LRU，任何触及该联系人的变更都会使缓存失效。
func (s *relationshipServiceImpl) CountLinks(ctx context.Context, contactId string) (int64, error) {
	contactId = strings.TrimSpace(contactId)
	if contactId == "" {
		return 0, ErrEmptyContactId
	}

	if count, ok := s.countCache.Get(contactId); ok {
		return count, nil
	}

	fromCount, err := s.repo.CountByFrom(ctx, contactId)
	if err != nil {
		return 0, errors.Join(ErrStoreUnavailable, err)
	}
	toCount, err := s.repo.CountByTo(ctx, contactId)
	if err != nil {
		return 0, errors.Join(ErrStoreUnavailable, err)
	}

	total := fromCount + toCount
	s.countCache.Add(contactId, total)
	return total, nil
}

// RepointLinks 合并联系人时的图改接。
// 对每条触及 loser 的边：
// - 对端为空或就是 winner → 丢弃（否则会变成自环/重复边），计入 dropped；
// - (winner, 对端) 的规范对已有另一条边 → 丢弃当前边，计入 merged（存活边已承载该关系）；
// - 否则原地改写 from/to/edge_key（保留 id 和角色），计入 moved。
// 每处理 yieldEvery 条边让出一次调度器，大图合并不长时间占住协程；
// 单条边失败跳过并记日志，整批不中断；全程只发一条 repointed 通知。
// 多条边跨多个单语句事务，中途崩溃时已改写的边各自良构，可接受。
func (s *relationshipServiceImpl) RepointLinks(ctx context.Context, winnerId, loserId string) (*RepointResult, error) {
	winnerId = strings.TrimSpace(winnerId)
	loserId = strings.TrimSpace(loserId)
	if winnerId == "" || loserId == "" {
		return nil, ErrEmptyContactId
	}
	if winnerId == loserId {
		return nil, ErrMergeSameContact
	}

	edges, err := s.repo.ListTouching(ctx, loserId)
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}

	now := time.Now().UnixMilli()
	result := &RepointResult{}
	touched := map[string]struct{}{winnerId: {}, loserId: {}}

	for i, edge := range edges {
		if s.yieldEvery > 0 && i > 0 && i%s.yieldEvery == 0 {
			runtime.Gosched()
		}

		otherId := edge.OtherEnd(loserId)

		// 自环或已是 winner 的边：直接丢弃
		if otherId == "" || otherId == winnerId {
			if err := s.repo.Delete(ctx, edge.Id); err != nil && !errors.Is(err, repository.ErrRecordNotFound) {
				repository.LogDBError(ctx, err)
				metrics.RepointEdges.WithLabelValues("failed").Inc()
				continue
			}
			result.Dropped++
			metrics.RepointEdges.WithLabelValues("dropped").Inc()
			continue
		}
		touched[otherId] = struct{}{}

		// winnerId != otherId 且两者非空，规范化不会失败
		pair, err := s.NormalizePair(winnerId, otherId)
		if err != nil {
			repository.LogDBError(ctx, err)
			metrics.RepointEdges.WithLabelValues("failed").Inc()
			continue
		}

		existing, err := s.repo.GetByEdgeKey(ctx, pair.EdgeKey)
		if err != nil {
			repository.LogDBError(ctx, err)
			metrics.RepointEdges.WithLabelValues("failed").Inc()
			continue
		}

		if existing != nil && existing.Id != edge.Id {
			// 目标对已有存活边，当前边被吸收
			if err := s.repo.Delete(ctx, edge.Id); err != nil && !errors.Is(err, repository.ErrRecordNotFound) {
				repository.LogDBError(ctx, err)
				metrics.RepointEdges.WithLabelValues("failed").Inc()
				continue
			}
			result.Merged++
			metrics.RepointEdges.WithLabelValues("merged").Inc()
			continue
		}

		// 原地改写身份，保留 id 与角色
		edge.FromId = pair.FromId
		edge.ToId = pair.ToId
		edge.EdgeKey = pair.EdgeKey
		edge.UpdatedAt = now
		if err := s.repo.Update(ctx, edge); err != nil {
			repository.LogDBError(ctx, err)
			metrics.RepointEdges.WithLabelValues("failed").Inc()
			continue
		}
		result.Moved++
		metrics.RepointEdges.WithLabelValues("moved").Inc()
	}

	for contactId := range touched {
		s.countCache.Remove(contactId)
	}

	s.activity.Log(ctx, "合并联系人关系改接", map[string]interface{}{
		"winnerId": winnerId,
		"loserId":  loserId,
		"moved":    result.Moved,
		"dropped":  result.Dropped,
		"merged":   result.Merged,
	})
	metrics.RelationshipOps.WithLabelValues("repoint", "true").Inc()

	logger.Info(ctx, "合并重连完成",
		logger.String("winner_id", winnerId),
		logger.String("loser_id", loserId),
		logger.Int("moved", result.Moved),
		logger.Int("dropped", result.Dropped),
		logger.Int("merged", result.Merged),
	)

	s.hub.Publish(ctx, notify.Change{
		Topic: notify.TopicRelationships,
		Op:    notify.OpRepointed,
		Ids:   []string{winnerId, loserId},
		Detail: map[string]interface{}{
			"moved":   result.Moved,
			"dropped": result.Dropped,
			"merged":  result.Merged,
		},
	})

	return result, nil
}

// invalidateCounts 使相关联系人的角标计数缓存失效。
func (s *relationshipServiceImpl) invalidateCounts(contactIds ...string) {
	for _, contactId := range contactIds {
		s.countCache.Remove(contactId)
	}
}
