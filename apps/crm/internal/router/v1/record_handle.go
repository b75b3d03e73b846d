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

// RecordHandler 记录软删除处理器
type RecordHandler struct {
	softDeleteService service.SoftDeleteService
}

// NewRecordHandler 创建记录软删除处理器
func NewRecordHandler(softDeleteService service.SoftDeleteService) *RecordHandler {
	return &RecordHandler{
		softDeleteService: softDeleteService,
	}
}

// Delete 单条软删除接口
// @Summary 软删除单条记录，单独成一个撤销组
// @Tags 记录接口
// @Accept json
// @Produce json
// @Param request body dto.SoftDeleteSingleRequest true "单条软删除请求"
// @Success 200 {object} dto.SoftDeleteResponse
// @Router /api/v1/record/delete [post]
func (h *RecordHandler) Delete(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	var req dto.SoftDeleteSingleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	group, err := h.softDeleteService.SoftDeleteSingle(ctx, req.Store, req.Id)
	if err != nil {
		code := ExtractErrorCode(err)
		if consts.IsNonServerError(int(code)) {
			result.Fail(c, nil, code)
			return
		}
		logger.Error(ctx, "软删除服务内部错误",
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, code)
		return
	}

	result.Success(c, dto.ConvertSoftDeleteResponse(group))
}

// DeleteMany 批量软删除接口
// @Summary 批量软删除记录，整批归入一个撤销组
// @Tags 记录接口
// @Accept json
// @Produce json
// @Param request body dto.SoftDeleteRequest true "批量软删除请求"
// @Success 200 {object} dto.SoftDeleteResponse
// @Router /api/v1/record/delete-many [post]
func (h *RecordHandler) DeleteMany(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	var req dto.SoftDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	refs := make([]service.RecordRef, 0, len(req.Records))
	for _, record := range req.Records {
		refs = append(refs, service.RecordRef{Store: record.Store, Id: record.Id})
	}

	group, err := h.softDeleteService.SoftDeleteMany(ctx, refs)
	if err != nil {
		code := ExtractErrorCode(err)
		if consts.IsNonServerError(int(code)) {
			result.Fail(c, nil, code)
			return
		}
		logger.Error(ctx, "软删除服务内部错误",
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, code)
		return
	}

	// group 为 nil 时所有记录都被跳过，返回空组而不是错误
	result.Success(c, dto.ConvertSoftDeleteResponse(group))
}

// Undo 撤销删除接口
// @Summary 整组撤销待删除记录
// @Tags 记录接口
// @Accept json
// @Produce json
// @Param request body dto.UndoRequest true "撤销请求"
// @Success 200 {object} dto.UndoResponse
// @Router /api/v1/record/undo [post]
func (h *RecordHandler) Undo(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	var req dto.UndoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	restored := h.softDeleteService.UndoGroup(ctx, req.GroupId)
	result.Success(c, &dto.UndoResponse{Restored: restored})
}

// Finalize 立即终删接口
// @Summary 跳过撤销窗口，立即终删一个待删除组
// @Tags 记录接口
// @Accept json
// @Produce json
// @Param request body dto.FinalizeRequest true "终删请求"
// @Success 200 {object} dto.FinalizeResponse
// @Router /api/v1/record/finalize [post]
func (h *RecordHandler) Finalize(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	var req dto.FinalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	finalized := h.softDeleteService.FinalizeGroup(ctx, req.GroupId)
	result.Success(c, &dto.FinalizeResponse{Finalized: finalized})
}

// Groups 撤销组列表接口
// @Summary 查看当前等待终删的撤销组（诊断用）
// @Tags 记录接口
// @Produce json
// @Success 200 {object} dto.ListGroupsResponse
// @Router /api/v1/record/groups [get]
func (h *RecordHandler) Groups(c *gin.Context) {
	result.Success(c, dto.ConvertListGroupsResponse(h.softDeleteService.Groups()))
}
