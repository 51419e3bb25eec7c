package handler

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"sched-master/backend/internal/api/middleware"
	"sched-master/backend/internal/dto"
	"sched-master/backend/internal/service"
	"sched-master/backend/pkg/response"
)

// WorkspaceHandler 排班工作区 HTTP 处理器
type WorkspaceHandler struct {
	workspaceSvc service.WorkspaceService
}

// NewWorkspaceHandler 创建 WorkspaceHandler
func NewWorkspaceHandler(workspaceSvc service.WorkspaceService) *WorkspaceHandler {
	return &WorkspaceHandler{workspaceSvc: workspaceSvc}
}

// GetWorkspace 获取两个数据集与冲突汇总
// GET /api/v1/schedules
func (h *WorkspaceHandler) GetWorkspace(c *gin.Context) {
	response.OK(c, h.workspaceSvc.State(c.Request.Context()))
}

// Paste 粘贴文本整体替换数据集
// POST /api/v1/schedules/:kind/paste
func (h *WorkspaceHandler) Paste(c *gin.Context) {
	kind, ok := MustGetKind(c)
	if !ok {
		return
	}

	var req dto.PasteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if middleware.IsBodyTooLarge(err) {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
			return
		}
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "参数校验失败", err.Error())
		return
	}

	result, err := h.workspaceSvc.Paste(c.Request.Context(), kind, req.Text)
	if err != nil {
		h.handleWorkspaceError(c, err)
		return
	}

	response.OK(c, result)
}

// ImportWorkbook 上传 .xlsx 整体替换数据集（读取第一个工作表）
// POST /api/v1/schedules/:kind/import
func (h *WorkspaceHandler) ImportWorkbook(c *gin.Context) {
	kind, ok := MustGetKind(c)
	if !ok {
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		if middleware.IsBodyTooLarge(err) {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
			return
		}
		response.BadRequest(c, 10001, "请上传文件（字段名 file）")
		return
	}
	if ext := strings.ToLower(filepath.Ext(fh.Filename)); ext != ".xlsx" && ext != ".xlsm" {
		response.BadRequest(c, 12006, "仅支持 .xlsx 文件")
		return
	}

	file, err := fh.Open()
	if err != nil {
		response.BadRequest(c, 12006, "无法读取上传的工作簿")
		return
	}
	defer file.Close()

	result, err := h.workspaceSvc.ImportWorkbook(c.Request.Context(), kind, file)
	if err != nil {
		h.handleWorkspaceError(c, err)
		return
	}

	response.OK(c, result)
}

// UpdateRecord 编辑单条记录
// PUT /api/v1/schedules/:kind/records/:index
func (h *WorkspaceHandler) UpdateRecord(c *gin.Context) {
	kind, ok := MustGetKind(c)
	if !ok {
		return
	}
	idx, ok := MustGetIndex(c)
	if !ok {
		return
	}

	var req dto.UpdateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "参数校验失败", err.Error())
		return
	}

	state, err := h.workspaceSvc.UpdateRecord(c.Request.Context(), kind, idx, &req)
	if err != nil {
		h.handleWorkspaceError(c, err)
		return
	}

	response.OK(c, state)
}

// DeleteRecord 删除单条记录
// DELETE /api/v1/schedules/:kind/records/:index
func (h *WorkspaceHandler) DeleteRecord(c *gin.Context) {
	kind, ok := MustGetKind(c)
	if !ok {
		return
	}
	idx, ok := MustGetIndex(c)
	if !ok {
		return
	}

	state, err := h.workspaceSvc.DeleteRecord(c.Request.Context(), kind, idx)
	if err != nil {
		h.handleWorkspaceError(c, err)
		return
	}

	response.OK(c, state)
}

// Clear 清空数据集
// DELETE /api/v1/schedules/:kind
func (h *WorkspaceHandler) Clear(c *gin.Context) {
	kind, ok := MustGetKind(c)
	if !ok {
		return
	}

	state, err := h.workspaceSvc.Clear(c.Request.Context(), kind)
	if err != nil {
		h.handleWorkspaceError(c, err)
		return
	}

	response.OK(c, state)
}

// Undo 撤销
// POST /api/v1/schedules/:kind/undo
func (h *WorkspaceHandler) Undo(c *gin.Context) {
	kind, ok := MustGetKind(c)
	if !ok {
		return
	}

	state, err := h.workspaceSvc.Undo(c.Request.Context(), kind)
	if err != nil {
		h.handleWorkspaceError(c, err)
		return
	}

	response.OK(c, state)
}

// Redo 重做
// POST /api/v1/schedules/:kind/redo
func (h *WorkspaceHandler) Redo(c *gin.Context) {
	kind, ok := MustGetKind(c)
	if !ok {
		return
	}

	state, err := h.workspaceSvc.Redo(c.Request.Context(), kind)
	if err != nil {
		h.handleWorkspaceError(c, err)
		return
	}

	response.OK(c, state)
}

func (h *WorkspaceHandler) handleWorkspaceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidKind):
		response.BadRequest(c, 12001, "排班类型必须为 work 或 rest")
	case errors.Is(err, service.ErrRecordIndexOutOfRange):
		response.NotFound(c, 12002, "记录不存在")
	case errors.Is(err, service.ErrNothingToUndo):
		response.Conflict(c, 12003, "没有可撤销的操作")
	case errors.Is(err, service.ErrNothingToRedo):
		response.Conflict(c, 12004, "没有可重做的操作")
	case errors.Is(err, service.ErrPasteTooLarge):
		response.Error(c, http.StatusRequestEntityTooLarge, 12005, "粘贴内容过大")
	case errors.Is(err, service.ErrInvalidWorkbook):
		response.BadRequest(c, 12006, "无法读取上传的工作簿")
	default:
		response.InternalError(c)
	}
}
