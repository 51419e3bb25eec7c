package dto

// ── 通用响应 ──

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status     string `json:"status"`
	Redis      string `json:"redis"`
	Monitoring string `json:"monitoring"`
}
