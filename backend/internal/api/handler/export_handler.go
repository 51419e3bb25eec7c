package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"sched-master/backend/internal/dto"
	"sched-master/backend/internal/service"
	"sched-master/backend/pkg/response"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportDataset 导出 WS / RD 为 Excel
// GET /api/v1/schedules/:kind/export?branch=xxx&month=1&year=2025
func (h *ExportHandler) ExportDataset(c *gin.Context) {
	kind, ok := MustGetKind(c)
	if !ok {
		return
	}

	var req dto.ExportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "参数校验失败", err.Error())
		return
	}

	buf, filename, err := h.exportSvc.ExportDataset(c.Request.Context(), kind, &req)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	response.File(c, filename, response.MIMEXlsx, buf.Bytes())
}

// ExportRestCalendar 导出休息日为 iCalendar
// GET /api/v1/schedules/rest/calendar?branch=xxx
func (h *ExportHandler) ExportRestCalendar(c *gin.Context) {
	buf, filename, err := h.exportSvc.ExportRestCalendar(c.Request.Context(), c.Query("branch"))
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	response.File(c, filename, response.MIMECalendar, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNoData):
		response.BadRequest(c, 16101, "没有可导出的排班数据")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		response.InternalError(c)
	}
}
