package dto

// ── 网点上传监控 DTO ──

// CreateBranchRequest 新增网点；字段均可为空（先加空白行再逐格填写）
type CreateBranchRequest struct {
	PosCode    string `json:"pos_code"    binding:"omitempty,max=50"`
	BranchName string `json:"branch_name" binding:"omitempty,max=200"`
	SapCode    string `json:"sap_code"    binding:"omitempty,max=50"`
}

// UpdateBranchRequest 更新网点单元格；Version 用于乐观锁
type UpdateBranchRequest struct {
	PosCode      *string `json:"pos_code"      binding:"omitempty,max=50"`
	BranchName   *string `json:"branch_name"   binding:"omitempty,max=200"`
	SapCode      *string `json:"sap_code"      binding:"omitempty,max=50"`
	IsUploaded   *bool   `json:"is_uploaded"`
	UploadedBy   *string `json:"uploaded_by"   binding:"omitempty,max=200"`
	UploadedDate *string `json:"uploaded_date" binding:"omitempty,max=20"`
	Version      int     `json:"version"       binding:"required,min=1"`
}

// BranchResponse 网点信息
type BranchResponse struct {
	ID           string `json:"id"`
	PosCode      string `json:"pos_code"`
	BranchName   string `json:"branch_name"`
	SapCode      string `json:"sap_code"`
	IsUploaded   bool   `json:"is_uploaded"`
	UploadedBy   string `json:"uploaded_by"`
	UploadedDate string `json:"uploaded_date"`
	Version      int    `json:"version"`
	UpdatedAt    string `json:"updated_at"`
}

// ProgressResponse 上传进度；无网点时 Text 为 "N/A"
type ProgressResponse struct {
	Total      int    `json:"total"`
	Uploaded   int    `json:"uploaded"`
	Percentage int    `json:"percentage"`
	Text       string `json:"text"`
}

// ProgressEntryResponse 月度归档中的一行
type ProgressEntryResponse struct {
	PosCode      string `json:"pos_code"`
	BranchName   string `json:"branch_name"`
	SapCode      string `json:"sap_code"`
	IsUploaded   bool   `json:"is_uploaded"`
	UploadedBy   string `json:"uploaded_by"`
	UploadedDate string `json:"uploaded_date"`
}

// PeriodEntriesResponse 某月归档
type PeriodEntriesResponse struct {
	Period   string                  `json:"period"`
	Entries  []ProgressEntryResponse `json:"entries"`
	Progress ProgressResponse        `json:"progress"`
}

// ReportRequest 月度报表参数
type ReportRequest struct {
	Month int `form:"month" binding:"required,min=1,max=12"`
	Year  int `form:"year"  binding:"required,min=1900,max=9999"`
}
