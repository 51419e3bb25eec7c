package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"sched-master/backend/internal/dto"
	"sched-master/backend/internal/model"
	"sched-master/backend/internal/repository"
	pkgerrors "sched-master/backend/pkg/errors"
)

// ── 上传监控模块业务错误 ──

var (
	ErrBranchNotFound        = errors.New("网点不存在")
	ErrBranchVersionConflict = errors.New("网点已被他人修改，请刷新后重试")
	ErrInvalidPeriod         = errors.New("月份格式必须为 YYYY-MM")
	ErrProgressNotFound      = errors.New("该月份没有归档的上传记录")
)

// DefaultCallerName 未提供操作人时写入 uploadedBy 的名称
const DefaultCallerName = "User"

var rePeriod = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// MonitoringService 网点上传监控业务接口
//
// 设计说明：
//   - 网点列表按 POS 代码排序；新增网点允许全部字段为空，再逐格编辑
//   - 勾选 / 取消 "已上传" 时自动填写 / 清空上传人与上传日期（显式传入的值优先）
//   - 更新使用乐观锁，多人同时编辑时后提交者收到冲突错误
//   - 月度归档把当前网点状态整体复制到 YYYY-MM 下，重复归档覆盖旧数据
type MonitoringService interface {
	ListBranches(ctx context.Context) ([]dto.BranchResponse, error)
	CreateBranch(ctx context.Context, req *dto.CreateBranchRequest, caller string) (*dto.BranchResponse, error)
	UpdateBranch(ctx context.Context, id string, req *dto.UpdateBranchRequest, caller string) (*dto.BranchResponse, error)
	DeleteBranch(ctx context.Context, id string) error
	Progress(ctx context.Context) (*dto.ProgressResponse, error)

	ArchivePeriod(ctx context.Context, period string, caller string) (*dto.PeriodEntriesResponse, error)
	ListPeriods(ctx context.Context) ([]string, error)
	GetPeriodEntries(ctx context.Context, period string) (*dto.PeriodEntriesResponse, error)
	// ExportReport 导出月度报表；该月未归档时使用当前网点状态
	ExportReport(ctx context.Context, req *dto.ReportRequest) (*bytes.Buffer, string, error)
}

type monitoringService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewMonitoringService 创建 MonitoringService 实例
func NewMonitoringService(repo *repository.Repository, logger *zap.Logger) MonitoringService {
	return &monitoringService{repo: repo, logger: logger, now: time.Now}
}

// ────────────────────── ListBranches ──────────────────────

func (s *monitoringService) ListBranches(ctx context.Context) ([]dto.BranchResponse, error) {
	branches, err := s.repo.Branch.List(ctx)
	if err != nil {
		s.logger.Error("查询网点列表失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.BranchResponse, 0, len(branches))
	for i := range branches {
		result = append(result, *toBranchResponse(&branches[i]))
	}
	return result, nil
}

// ────────────────────── CreateBranch ──────────────────────

func (s *monitoringService) CreateBranch(ctx context.Context, req *dto.CreateBranchRequest, caller string) (*dto.BranchResponse, error) {
	caller = callerName(caller)
	branch := &model.Branch{
		PosCode:    strings.TrimSpace(req.PosCode),
		BranchName: strings.TrimSpace(req.BranchName),
		SapCode:    strings.TrimSpace(req.SapCode),
	}
	branch.UpdatedBy = &caller
	branch.Version = 1

	if err := s.repo.Branch.Create(ctx, branch); err != nil {
		s.logger.Error("新增网点失败", zap.Error(err))
		return nil, err
	}
	return toBranchResponse(branch), nil
}

// ────────────────────── UpdateBranch ──────────────────────

func (s *monitoringService) UpdateBranch(ctx context.Context, id string, req *dto.UpdateBranchRequest, caller string) (*dto.BranchResponse, error) {
	branch, err := s.repo.Branch.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBranchNotFound
		}
		return nil, err
	}
	if branch.Version != req.Version {
		return nil, ErrBranchVersionConflict
	}

	caller = callerName(caller)
	if req.PosCode != nil {
		branch.PosCode = strings.TrimSpace(*req.PosCode)
	}
	if req.BranchName != nil {
		branch.BranchName = strings.TrimSpace(*req.BranchName)
	}
	if req.SapCode != nil {
		branch.SapCode = strings.TrimSpace(*req.SapCode)
	}
	if req.IsUploaded != nil && *req.IsUploaded != branch.IsUploaded {
		branch.IsUploaded = *req.IsUploaded
		if branch.IsUploaded {
			branch.UploadedBy = caller
			branch.UploadedDate = s.now().Format("01/02/2006")
		} else {
			branch.UploadedBy = ""
			branch.UploadedDate = ""
		}
	}
	if req.UploadedBy != nil {
		branch.UploadedBy = strings.TrimSpace(*req.UploadedBy)
	}
	if req.UploadedDate != nil {
		branch.UploadedDate = strings.TrimSpace(*req.UploadedDate)
	}
	branch.UpdatedBy = &caller

	if err := s.repo.Branch.Update(ctx, branch); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, ErrBranchVersionConflict
		}
		s.logger.Error("更新网点失败", zap.String("branch_id", id), zap.Error(err))
		return nil, err
	}
	branch.UpdatedAt = s.now()

	return toBranchResponse(branch), nil
}

// ────────────────────── DeleteBranch ──────────────────────

func (s *monitoringService) DeleteBranch(ctx context.Context, id string) error {
	if _, err := s.repo.Branch.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBranchNotFound
		}
		return err
	}
	return s.repo.Branch.Delete(ctx, id)
}

// ────────────────────── Progress ──────────────────────

func (s *monitoringService) Progress(ctx context.Context) (*dto.ProgressResponse, error) {
	branches, err := s.repo.Branch.List(ctx)
	if err != nil {
		return nil, err
	}
	uploaded := 0
	for _, b := range branches {
		if b.IsUploaded {
			uploaded++
		}
	}
	p := computeProgress(len(branches), uploaded)
	return &p, nil
}

// computeProgress 无网点时显示 "N/A"，否则 "P% (u/t)"
func computeProgress(total, uploaded int) dto.ProgressResponse {
	if total == 0 {
		return dto.ProgressResponse{Text: "N/A"}
	}
	pct := int(math.Round(float64(uploaded) / float64(total) * 100))
	return dto.ProgressResponse{
		Total:      total,
		Uploaded:   uploaded,
		Percentage: pct,
		Text:       fmt.Sprintf("%d%% (%d/%d)", pct, uploaded, total),
	}
}

// ────────────────────── ArchivePeriod ──────────────────────

func (s *monitoringService) ArchivePeriod(ctx context.Context, period string, caller string) (*dto.PeriodEntriesResponse, error) {
	if !rePeriod.MatchString(period) {
		return nil, ErrInvalidPeriod
	}
	branches, err := s.repo.Branch.List(ctx)
	if err != nil {
		return nil, err
	}

	caller = callerName(caller)
	entries := make([]model.ProgressEntry, 0, len(branches))
	for _, b := range branches {
		e := model.ProgressEntry{
			PosCode:      b.PosCode,
			BranchName:   b.BranchName,
			SapCode:      b.SapCode,
			IsUploaded:   b.IsUploaded,
			UploadedBy:   b.UploadedBy,
			UploadedDate: b.UploadedDate,
		}
		e.UpdatedBy = &caller
		entries = append(entries, e)
	}

	if err := s.repo.Progress.ReplacePeriod(ctx, period, entries); err != nil {
		s.logger.Error("归档月度进度失败", zap.String("period", period), zap.Error(err))
		return nil, err
	}

	s.logger.Info("月度进度已归档", zap.String("period", period), zap.Int("branches", len(entries)))
	return toPeriodEntries(period, entries), nil
}

// ────────────────────── ListPeriods ──────────────────────

func (s *monitoringService) ListPeriods(ctx context.Context) ([]string, error) {
	periods, err := s.repo.Progress.ListPeriods(ctx)
	if err != nil {
		return nil, err
	}
	if periods == nil {
		periods = []string{}
	}
	return periods, nil
}

// ────────────────────── GetPeriodEntries ──────────────────────

func (s *monitoringService) GetPeriodEntries(ctx context.Context, period string) (*dto.PeriodEntriesResponse, error) {
	if !rePeriod.MatchString(period) {
		return nil, ErrInvalidPeriod
	}
	entries, err := s.repo.Progress.ListByPeriod(ctx, period)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrProgressNotFound
	}
	return toPeriodEntries(period, entries), nil
}

// ═══════════════════════════════════════════════════════════
// ExportReport — 导出月度上传监控报表
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - Sheet "Header"：A1 为报表标题与月份
//   - Sheet "Progress Data"：每个网点一行
// 文件名：Monitoring_Report_<年>_<月(两位)>.xlsx

var reportColumns = []string{"POS Code", "Branch Name", "SAP Code", "Uploaded", "Uploaded By", "Upload Date"}

func (s *monitoringService) ExportReport(ctx context.Context, req *dto.ReportRequest) (*bytes.Buffer, string, error) {
	period := fmt.Sprintf("%04d-%02d", req.Year, req.Month)

	entries, err := s.repo.Progress.ListByPeriod(ctx, period)
	if err != nil {
		return nil, "", err
	}
	if len(entries) == 0 {
		// 未归档的月份：使用当前网点状态
		branches, err := s.repo.Branch.List(ctx)
		if err != nil {
			return nil, "", err
		}
		for _, b := range branches {
			entries = append(entries, model.ProgressEntry{
				PosCode:      b.PosCode,
				BranchName:   b.BranchName,
				SapCode:      b.SapCode,
				IsUploaded:   b.IsUploaded,
				UploadedBy:   b.UploadedBy,
				UploadedDate: b.UploadedDate,
			})
		}
	}
	if len(entries) == 0 {
		return nil, "", ErrExportNoData
	}

	f := excelize.NewFile()
	defer f.Close()

	const headerSheet, dataSheet = "Header", "Progress Data"
	if err := f.SetSheetName("Sheet1", headerSheet); err != nil {
		return nil, "", s.reportFail(err)
	}
	if _, err := f.NewSheet(dataSheet); err != nil {
		return nil, "", s.reportFail(err)
	}

	title := fmt.Sprintf("Branch Upload Monitoring Report\nMonth: %s %d", time.Month(req.Month).String(), req.Year)
	_ = f.SetCellValue(headerSheet, "A1", title)
	wrap, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12},
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	_ = f.SetCellStyle(headerSheet, "A1", "A1", wrap)
	_ = f.SetColWidth(headerSheet, "A", "A", 45)
	_ = f.SetRowHeight(headerSheet, 1, 36)

	bold, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	for i, h := range reportColumns {
		_ = f.SetCellValue(dataSheet, cellName(i, 1), h)
	}
	_ = f.SetCellStyle(dataSheet, cellName(0, 1), cellName(len(reportColumns)-1, 1), bold)

	uploaded := 0
	for i, e := range entries {
		row := i + 2
		status := "No"
		if e.IsUploaded {
			status = "Yes"
			uploaded++
		}
		values := []string{e.PosCode, e.BranchName, e.SapCode, status, e.UploadedBy, e.UploadedDate}
		for col, v := range values {
			_ = f.SetCellValue(dataSheet, cellName(col, row), v)
		}
	}
	progress := computeProgress(len(entries), uploaded)
	summaryRow := len(entries) + 3
	_ = f.SetCellValue(dataSheet, cellName(0, summaryRow), "Progress")
	_ = f.SetCellValue(dataSheet, cellName(1, summaryRow), progress.Text)
	_ = f.SetCellStyle(dataSheet, cellName(0, summaryRow), cellName(0, summaryRow), bold)
	_ = f.SetColWidth(dataSheet, "A", "F", 16)
	_ = f.SetColWidth(dataSheet, "B", "B", 28)

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, "", s.reportFail(err)
	}

	filename := fmt.Sprintf("Monitoring_Report_%04d_%02d.xlsx", req.Year, req.Month)
	return buf, filename, nil
}

func (s *monitoringService) reportFail(err error) error {
	s.logger.Error("生成监控报表失败", zap.Error(err))
	return ErrExportGenerateFail
}

// ── 辅助函数 ──

func callerName(caller string) string {
	caller = strings.TrimSpace(caller)
	if caller == "" {
		return DefaultCallerName
	}
	return caller
}

func toBranchResponse(b *model.Branch) *dto.BranchResponse {
	resp := &dto.BranchResponse{
		ID:           b.BranchID,
		PosCode:      b.PosCode,
		BranchName:   b.BranchName,
		SapCode:      b.SapCode,
		IsUploaded:   b.IsUploaded,
		UploadedBy:   b.UploadedBy,
		UploadedDate: b.UploadedDate,
		Version:      b.Version,
	}
	if !b.UpdatedAt.IsZero() {
		resp.UpdatedAt = b.UpdatedAt.Format(time.RFC3339)
	}
	return resp
}

func toPeriodEntries(period string, entries []model.ProgressEntry) *dto.PeriodEntriesResponse {
	list := make([]dto.ProgressEntryResponse, 0, len(entries))
	uploaded := 0
	for _, e := range entries {
		if e.IsUploaded {
			uploaded++
		}
		list = append(list, dto.ProgressEntryResponse{
			PosCode:      e.PosCode,
			BranchName:   e.BranchName,
			SapCode:      e.SapCode,
			IsUploaded:   e.IsUploaded,
			UploadedBy:   e.UploadedBy,
			UploadedDate: e.UploadedDate,
		})
	}
	return &dto.PeriodEntriesResponse{
		Period:   period,
		Entries:  list,
		Progress: computeProgress(len(entries), uploaded),
	}
}
