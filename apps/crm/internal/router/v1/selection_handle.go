package v1

import (
	"PipelineCRM/apps/crm/internal/dto"
	"PipelineCRM/apps/crm/internal/service"
	"PipelineCRM/consts"
	"PipelineCRM/pkg/result"

	"github.com/gin-gonic/gin"
)

// SelectionHandler 选区处理器
type SelectionHandler struct {
	selectionService service.SelectionService
}

// NewSelectionHandler 创建选区处理器
func NewSelectionHandler(selectionService service.SelectionService) *SelectionHandler {
	return &SelectionHandler{
		selectionService: selectionService,
	}
}

// Select 加选接口
// @Summary 把一组id加入当前选区
// @Tags 选区接口
// @Accept json
// @Produce json
// @Param request body dto.SelectRequest true "加选请求"
// @Router /api/v1/selection/select [post]
func (h *SelectionHandler) Select(c *gin.Context) {
	var req dto.SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}
	if !service.IsValidSelectionType(req.Type) {
		result.Fail(c, nil, consts.CodeInvalidSelectionType)
		return
	}

	h.selectionService.Select(req.Ids, req.Type, req.Reason)
	result.Success(c, h.currentState())
}

// Deselect 去选接口
// @Summary 把一组id移出当前选区
// @Tags 选区接口
// @Accept json
// @Produce json
// @Param request body dto.DeselectRequest true "去选请求"
// @Router /api/v1/selection/deselect [post]
func (h *SelectionHandler) Deselect(c *gin.Context) {
	var req dto.DeselectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}
	if !service.IsValidSelectionType(req.Type) {
		result.Fail(c, nil, consts.CodeInvalidSelectionType)
		return
	}

	h.selectionService.Deselect(req.Ids, req.Type, req.Reason)
	result.Success(c, h.currentState())
}

// Toggle 翻转选中状态接口
// @Summary 翻转单个id的选中状态
// @Tags 选区接口
// @Accept json
// @Produce json
// @Param request body dto.ToggleRequest true "翻转请求"
// @Router /api/v1/selection/toggle [post]
func (h *SelectionHandler) Toggle(c *gin.Context) {
	var req dto.ToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}
	if !service.IsValidSelectionType(req.Type) {
		result.Fail(c, nil, consts.CodeInvalidSelectionType)
		return
	}

	h.selectionService.Toggle(req.Id, req.Type, req.Reason)
	result.Success(c, h.currentState())
}

// Set 整体替换选区接口
// @Summary 用给定集合整体替换当前选区
// @Tags 选区接口
// @Accept json
// @Produce json
// @Param request body dto.SetSelectionRequest true "替换请求"
// @Router /api/v1/selection/set [post]
func (h *SelectionHandler) Set(c *gin.Context) {
	var req dto.SetSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}
	if !service.IsValidSelectionType(req.Type) {
		result.Fail(c, nil, consts.CodeInvalidSelectionType)
		return
	}

	h.selectionService.Set(req.Ids, req.Type, req.Reason)
	result.Success(c, h.currentState())
}

// Clear 清空选区接口
// @Summary 清空当前选区
// @Tags 选区接口
// @Accept json
// @Produce json
// @Param request body dto.ClearSelectionRequest true "清空请求"
// @Router /api/v1/selection/clear [post]
func (h *SelectionHandler) Clear(c *gin.Context) {
	var req dto.ClearSelectionRequest
	// 请求体可以为空
	_ = c.ShouldBindJSON(&req)

	h.selectionService.Clear(req.Reason)
	result.Success(c, h.currentState())
}

// Get 查询选区接口
// @Summary 查询当前选区状态
// @Tags 选区接口
// @Produce json
// @Success 200 {object} dto.SelectionStateResponse
// @Router /api/v1/selection [get]
func (h *SelectionHandler) Get(c *gin.Context) {
	result.Success(c, h.currentState())
}

func (h *SelectionHandler) currentState() *dto.SelectionStateResponse {
	return &dto.SelectionStateResponse{
		Ids:  h.selectionService.GetSelection(),
		Type: h.selectionService.GetSelectionType(),
	}
}
