package v1

import (
	"PipelineCRM/apps/crm/internal/dto"
	"PipelineCRM/apps/crm/internal/middleware"
	"PipelineCRM/apps/crm/internal/service"
	"PipelineCRM/consts"
	"PipelineCRM/pkg/logger"
	"PipelineCRM/pkg/result"

	"github.com/gin-gonic/gin"
)

// RelationshipHandler 关系图处理器
type RelationshipHandler struct {
	relationshipService service.RelationshipService
}

// NewRelationshipHandler 创建关系图处理器
func NewRelationshipHandler(relationshipService service.RelationshipService) *RelationshipHandler {
	return &RelationshipHandler{
		relationshipService: relationshipService,
	}
}

// Link 建立关系接口
// @Summary 建立两个联系人之间的关系
// @Tags 关系图接口
// @Accept json
// @Produce json
// @Param request body dto.LinkContactsRequest true "建立关系请求"
// @Success 200 {object} dto.LinkContactsResponse
// @Router /api/v1/relationship/link [post]
func (h *RelationshipHandler) Link(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	var req dto.LinkContactsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// 参数错误由客户端输入导致，属于正常业务流程，不记录日志
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	linkResult, err := h.relationshipService.LinkContacts(ctx, req.ContactA, req.ContactB, req.Role)
	if err != nil {
		code := ExtractErrorCode(err)
		if consts.IsNonServerError(int(code)) {
			result.Fail(c, nil, code)
			return
		}
		logger.Error(ctx, "建立关系服务内部错误",
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, code)
		return
	}

	result.Success(c, dto.ConvertLinkContactsResponse(linkResult))
}

// Unlink 解除关系接口
// @Summary 解除两个联系人之间的关系
// @Tags 关系图接口
// @Accept json
// @Produce json
// @Param request body dto.UnlinkContactsRequest true "解除关系请求"
// @Success 200 {object} dto.UnlinkContactsResponse
// @Router /api/v1/relationship/unlink [post]
func (h *RelationshipHandler) Unlink(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	var req dto.UnlinkContactsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	changed, err := h.relationshipService.UnlinkContacts(ctx, req.ContactA, req.ContactB)
	if err != nil {
		code := ExtractErrorCode(err)
		if consts.IsNonServerError(int(code)) {
			result.Fail(c, nil, code)
			return
		}
		logger.Error(ctx, "解除关系服务内部错误",
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, code)
		return
	}

	result.Success(c, &dto.UnlinkContactsResponse{Changed: changed})
}

// List 查询单个联系人关联接口
// @Summary 查询单个联系人的全部关联
// @Tags 关系图接口
// @Produce json
// @Param contactId query string true "联系人id"
// @Success 200 {object} dto.ListLinksResponse
// @Router /api/v1/relationship/list [get]
func (h *RelationshipHandler) List(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	var req dto.ListLinksRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	view, err := h.relationshipService.ListLinksFor(ctx, req.ContactId)
	if err != nil {
		code := ExtractErrorCode(err)
		if consts.IsNonServerError(int(code)) {
			result.Fail(c, nil, code)
			return
		}
		logger.Error(ctx, "查询关联服务内部错误",
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, code)
		return
	}

	result.Success(c, dto.ConvertListLinksResponse(req.ContactId, view))
}

// ListMany 批量查询关联接口
// @Summary 批量查询多个联系人的关联
// @Tags 关系图接口
// @Accept json
// @Produce json
// @Param request body dto.ListLinksManyRequest true "批量查询请求"
// @Success 200 {object} dto.ListLinksManyResponse
// @Router /api/v1/relationship/list-many [post]
func (h *RelationshipHandler) ListMany(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	var req dto.ListLinksManyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	links, err := h.relationshipService.ListLinksForMany(ctx, req.ContactIds)
	if err != nil {
		code := ExtractErrorCode(err)
		if consts.IsNonServerError(int(code)) {
			result.Fail(c, nil, code)
			return
		}
		logger.Error(ctx, "批量查询关联服务内部错误",
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, code)
		return
	}

	result.Success(c, dto.ConvertListLinksManyResponse(links))
}

// Count 查询关联数接口
// @Summary 查询联系人的关联数
// @Tags 关系图接口
// @Produce json
// @Param contactId query string true "联系人id"
// @Success 200 {object} dto.CountLinksResponse
// @Router /api/v1/relationship/count [get]
func (h *RelationshipHandler) Count(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	var req dto.CountLinksRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	count, err := h.relationshipService.CountLinks(ctx, req.ContactId)
	if err != nil {
		code := ExtractErrorCode(err)
		if consts.IsNonServerError(int(code)) {
			result.Fail(c, nil, code)
			return
		}
		logger.Error(ctx, "查询关联数服务内部错误",
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, code)
		return
	}

	result.Success(c, &dto.CountLinksResponse{ContactId: req.ContactId, Count: count})
}

// Repoint 合并改接接口
// @Summary 合并联系人时把被合并方的关系整体改接到保留方
// @Tags 关系图接口
// @Accept json
// @Produce json
// @Param request body dto.RepointLinksRequest true "合并改接请求"
// @Success 200 {object} dto.RepointLinksResponse
// @Router /api/v1/relationship/repoint [post]
func (h *RelationshipHandler) Repoint(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	var req dto.RepointLinksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	repointResult, err := h.relationshipService.RepointLinks(ctx, req.WinnerId, req.LoserId)
	if err != nil {
		code := ExtractErrorCode(err)
		if consts.IsNonServerError(int(code)) {
			result.Fail(c, nil, code)
			return
		}
		logger.Error(ctx, "合并改接服务内部错误",
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, code)
		return
	}

	result.Success(c, dto.ConvertRepointLinksResponse(repointResult))
}
