package dto

import "sched-master/backend/internal/schedule"

// ── 排班工作区 DTO ──

// PasteRequest 粘贴导入请求（整体替换该类数据集）
type PasteRequest struct {
	Text string `json:"text" binding:"required"`
}

// UpdateRecordRequest 编辑单条记录；未提供的字段保持不变
type UpdateRecordRequest struct {
	EmployeeNo *string `json:"employeeNo" binding:"omitempty,max=50"`
	Name       *string `json:"name"       binding:"omitempty,max=200"`
	Position   *string `json:"position"   binding:"omitempty,max=100"`
	Date       *string `json:"date"       binding:"omitempty,max=50"`
	DayOfWeek  *string `json:"dayOfWeek"  binding:"omitempty,max=20"`
	ShiftCode  *string `json:"shiftCode"  binding:"omitempty,max=50"`
}

// DatasetState 单个数据集的当前状态
type DatasetState struct {
	Records   []schedule.Record `json:"records"`
	CanUndo   bool              `json:"canUndo"`
	CanRedo   bool              `json:"canRedo"`
	CanExport bool              `json:"canExport"`
}

// WorkspaceResponse 两个数据集及冲突汇总
type WorkspaceResponse struct {
	Work    DatasetState     `json:"work"`
	Rest    DatasetState     `json:"rest"`
	Summary schedule.Summary `json:"summary"`
}

// ImportResponse 粘贴 / 上传导入结果
type ImportResponse struct {
	Kind      schedule.Kind      `json:"kind"`
	Mode      schedule.ParseMode `json:"mode"`
	HeaderRow int                `json:"headerRow"`
	Imported  int                `json:"imported"`
	Warnings  []string           `json:"warnings,omitempty"`
	Workspace *WorkspaceResponse `json:"workspace"`
}

// ExportRequest 导出参数；月份 / 年份缺省时取数据中最早的日期
type ExportRequest struct {
	Branch string `form:"branch" binding:"omitempty,max=100"`
	Month  int    `form:"month"  binding:"omitempty,min=1,max=12"`
	Year   int    `form:"year"   binding:"omitempty,min=1900,max=9999"`
}
