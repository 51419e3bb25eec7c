package model

// Branch 上传监控中的网点 — 对应 monitoring_branches
type Branch struct {
	BranchID     string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"branch_id"`
	PosCode      string `gorm:"type:varchar(50);not null;default:''"            json:"pos_code"`
	BranchName   string `gorm:"type:varchar(200);not null;default:''"           json:"branch_name"`
	SapCode      string `gorm:"type:varchar(50);not null;default:''"            json:"sap_code"`
	IsUploaded   bool   `gorm:"not null;default:false"                          json:"is_uploaded"`
	UploadedBy   string `gorm:"type:varchar(200);not null;default:''"           json:"uploaded_by"`
	UploadedDate string `gorm:"type:varchar(20);not null;default:''"            json:"uploaded_date"`
	VersionedModel
}

// TableName 指定表名
func (Branch) TableName() string { return "monitoring_branches" }

// ProgressEntry 某月（Period = "YYYY-MM"）归档时的网点上传状态 — 对应 monitoring_progress_entries
type ProgressEntry struct {
	EntryID      string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"entry_id"`
	Period       string `gorm:"type:varchar(7);not null;index"                  json:"period"`
	PosCode      string `gorm:"type:varchar(50);not null;default:''"            json:"pos_code"`
	BranchName   string `gorm:"type:varchar(200);not null;default:''"           json:"branch_name"`
	SapCode      string `gorm:"type:varchar(50);not null;default:''"            json:"sap_code"`
	IsUploaded   bool   `gorm:"not null;default:false"                          json:"is_uploaded"`
	UploadedBy   string `gorm:"type:varchar(200);not null;default:''"           json:"uploaded_by"`
	UploadedDate string `gorm:"type:varchar(20);not null;default:''"            json:"uploaded_date"`
	BaseModel
}

// TableName 指定表名
func (ProgressEntry) TableName() string { return "monitoring_progress_entries" }
