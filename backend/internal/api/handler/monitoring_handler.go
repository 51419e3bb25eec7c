package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"sched-master/backend/internal/dto"
	"sched-master/backend/internal/service"
	"sched-master/backend/pkg/response"
)

// MonitoringHandler 网点上传监控 HTTP 处理器
type MonitoringHandler struct {
	monitoringSvc service.MonitoringService
}

// NewMonitoringHandler 创建 MonitoringHandler
func NewMonitoringHandler(monitoringSvc service.MonitoringService) *MonitoringHandler {
	return &MonitoringHandler{monitoringSvc: monitoringSvc}
}

// ListBranches 获取网点列表
// GET /api/v1/monitoring/branches
func (h *MonitoringHandler) ListBranches(c *gin.Context) {
	branches, err := h.monitoringSvc.ListBranches(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": branches})
}

// CreateBranch 新增网点（可为空白行）
// POST /api/v1/monitoring/branches
func (h *MonitoringHandler) CreateBranch(c *gin.Context) {
	var req dto.CreateBranchRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "参数校验失败", err.Error())
			return
		}
	}

	branch, err := h.monitoringSvc.CreateBranch(c.Request.Context(), &req, CallerName(c))
	if err != nil {
		h.handleMonitoringError(c, err)
		return
	}

	response.Created(c, branch)
}

// UpdateBranch 更新网点单元格
// PUT /api/v1/monitoring/branches/:id
func (h *MonitoringHandler) UpdateBranch(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "网点ID不能为空")
		return
	}

	var req dto.UpdateBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "参数校验失败", err.Error())
		return
	}

	branch, err := h.monitoringSvc.UpdateBranch(c.Request.Context(), id, &req, CallerName(c))
	if err != nil {
		h.handleMonitoringError(c, err)
		return
	}

	response.OK(c, branch)
}

// DeleteBranch 删除网点
// DELETE /api/v1/monitoring/branches/:id
func (h *MonitoringHandler) DeleteBranch(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "网点ID不能为空")
		return
	}

	if err := h.monitoringSvc.DeleteBranch(c.Request.Context(), id); err != nil {
		h.handleMonitoringError(c, err)
		return
	}

	response.OK(c, nil)
}

// GetProgress 当前上传进度
// GET /api/v1/monitoring/progress
func (h *MonitoringHandler) GetProgress(c *gin.Context) {
	progress, err := h.monitoringSvc.Progress(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, progress)
}

// ListPeriods 已归档月份
// GET /api/v1/monitoring/periods
func (h *MonitoringHandler) ListPeriods(c *gin.Context) {
	periods, err := h.monitoringSvc.ListPeriods(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": periods})
}

// ArchivePeriod 将当前网点状态归档到指定月份
// POST /api/v1/monitoring/periods/:period/entries
func (h *MonitoringHandler) ArchivePeriod(c *gin.Context) {
	result, err := h.monitoringSvc.ArchivePeriod(c.Request.Context(), c.Param("period"), CallerName(c))
	if err != nil {
		h.handleMonitoringError(c, err)
		return
	}

	response.Created(c, result)
}

// GetPeriodEntries 查看某月归档
// GET /api/v1/monitoring/periods/:period/entries
func (h *MonitoringHandler) GetPeriodEntries(c *gin.Context) {
	result, err := h.monitoringSvc.GetPeriodEntries(c.Request.Context(), c.Param("period"))
	if err != nil {
		h.handleMonitoringError(c, err)
		return
	}

	response.OK(c, result)
}

// ExportReport 导出月度监控报表
// GET /api/v1/monitoring/reports?month=1&year=2025
func (h *MonitoringHandler) ExportReport(c *gin.Context) {
	var req dto.ReportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "month 与 year 为必填参数")
		return
	}

	buf, filename, err := h.monitoringSvc.ExportReport(c.Request.Context(), &req)
	if err != nil {
		h.handleMonitoringError(c, err)
		return
	}

	response.File(c, filename, response.MIMEXlsx, buf.Bytes())
}

func (h *MonitoringHandler) handleMonitoringError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrBranchNotFound):
		response.NotFound(c, 18001, "网点不存在")
	case errors.Is(err, service.ErrBranchVersionConflict):
		response.Conflict(c, 18002, "网点已被他人修改，请刷新后重试")
	case errors.Is(err, service.ErrInvalidPeriod):
		response.BadRequest(c, 18003, "月份格式必须为 YYYY-MM")
	case errors.Is(err, service.ErrProgressNotFound):
		response.NotFound(c, 18004, "该月份没有归档的上传记录")
	case errors.Is(err, service.ErrExportNoData):
		response.BadRequest(c, 16101, "没有可导出的数据")
	default:
		response.InternalError(c)
	}
}
