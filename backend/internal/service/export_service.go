package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"sched-master/backend/internal/dto"
	"sched-master/backend/internal/schedule"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoData       = errors.New("没有可导出的排班数据")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 导出数据来自 WorkspaceService 的当前数据集，导出不修改任何状态
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
//   - Excel 格式：单个 "Sheet1"，首行为表头，日期单元格写为真实日期并使用 mm/dd/yy 格式
//   - 休息日另可导出为 iCalendar，每条可识别日期的记录一个全天事件
type ExportService interface {
	// ExportDataset 导出 WS / RD 数据集为 Excel
	ExportDataset(ctx context.Context, kind schedule.Kind, req *dto.ExportRequest) (*bytes.Buffer, string, error)
	// ExportRestCalendar 导出休息日为 .ics
	ExportRestCalendar(ctx context.Context, branch string) (*bytes.Buffer, string, error)
}

type exportService struct {
	workspace     WorkspaceService
	defaultBranch string
	logger        *zap.Logger
	now           func() time.Time
}

// NewExportService 创建 ExportService 实例
func NewExportService(workspace WorkspaceService, defaultBranch string, logger *zap.Logger) ExportService {
	return newExportService(workspace, defaultBranch, logger, time.Now)
}

func newExportService(workspace WorkspaceService, defaultBranch string, logger *zap.Logger, now func() time.Time) *exportService {
	if defaultBranch == "" {
		defaultBranch = "UnnamedBranch"
	}
	return &exportService{workspace: workspace, defaultBranch: defaultBranch, logger: logger, now: now}
}

const (
	exportSheet      = "Sheet1"
	exportDateFormat = "mm/dd/yy"
)

var exportHeaders = map[schedule.Kind][]string{
	schedule.KindWork: {"Employee Number", "Work Date", "Shift Code"},
	schedule.KindRest: {"Employee No", "Rest Day Date"},
}

// ═══════════════════════════════════════════════════════════
// ExportDataset — 导出排班数据集为 Excel
// ═══════════════════════════════════════════════════════════
//
// 文件名：<网点>_<WS|RD>_<月份缩写><年份>.xlsx，如 Makati_WS_Jan2025.xlsx
// 月份 / 年份优先取请求参数，否则取数据中最早的可识别日期，再否则取当前时间。
// 无法识别的日期按原文写入文本单元格。

func (s *exportService) ExportDataset(_ context.Context, kind schedule.Kind, req *dto.ExportRequest) (*bytes.Buffer, string, error) {
	records := s.workspace.Records(kind)
	if len(records) == 0 {
		return nil, "", ErrExportNoData
	}
	if req == nil {
		req = &dto.ExportRequest{}
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, "", s.generateFail(err)
	}
	fmtCode := exportDateFormat
	dateStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &fmtCode})
	if err != nil {
		return nil, "", s.generateFail(err)
	}

	// 表头
	headers := exportHeaders[kind]
	for i, h := range headers {
		_ = f.SetCellValue(exportSheet, cellName(i, 1), h)
	}
	_ = f.SetCellStyle(exportSheet, cellName(0, 1), cellName(len(headers)-1, 1), headerStyle)

	// 数据行
	for i, r := range records {
		row := i + 2
		_ = f.SetCellValue(exportSheet, cellName(0, row), r.EmployeeNo)

		dateCell := cellName(1, row)
		if t, ok := schedule.ParseDisplayDate(r.Date); ok {
			_ = f.SetCellValue(exportSheet, dateCell, t)
			_ = f.SetCellStyle(exportSheet, dateCell, dateCell, dateStyle)
		} else {
			_ = f.SetCellValue(exportSheet, dateCell, r.Date)
		}

		if kind == schedule.KindWork {
			_ = f.SetCellValue(exportSheet, cellName(2, row), r.ShiftCode)
		}
	}

	_ = f.SetColWidth(exportSheet, "A", "A", 18)
	_ = f.SetColWidth(exportSheet, "B", "B", 14)
	if kind == schedule.KindWork {
		_ = f.SetColWidth(exportSheet, "C", "C", 12)
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, "", s.generateFail(err)
	}

	month, year := s.exportPeriod(records, req)
	filename := fmt.Sprintf("%s_%s_%s%d.xlsx",
		s.branchName(req.Branch), kind.Label(), month.String()[:3], year)

	s.logger.Info("导出排班数据",
		zap.String("kind", string(kind)),
		zap.Int("records", len(records)),
		zap.String("filename", filename),
	)
	return buf, filename, nil
}

// exportPeriod 确定文件名中的月份与年份
func (s *exportService) exportPeriod(records []schedule.Record, req *dto.ExportRequest) (time.Month, int) {
	var earliest time.Time
	for _, r := range records {
		t, ok := schedule.ParseDisplayDate(r.Date)
		if !ok {
			continue
		}
		if earliest.IsZero() || t.Before(earliest) {
			earliest = t
		}
	}
	if earliest.IsZero() {
		earliest = s.now()
	}

	month, year := earliest.Month(), earliest.Year()
	if req.Month >= 1 && req.Month <= 12 {
		month = time.Month(req.Month)
	}
	if req.Year > 0 {
		year = req.Year
	}
	return month, year
}

// reUnsafeFilename 文件名中不允许出现的字符
var reUnsafeFilename = regexp.MustCompile(`[\\/:*?"<>|\x00-\x1f]+`)

// branchName 清理网点名称，空值回落到默认网点名
func (s *exportService) branchName(raw string) string {
	name := strings.TrimSpace(reUnsafeFilename.ReplaceAllString(raw, " "))
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return s.defaultBranch
	}
	return name
}

// ═══════════════════════════════════════════════════════════
// ExportRestCalendar — 导出休息日为 iCalendar
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportRestCalendar(_ context.Context, branch string) (*bytes.Buffer, string, error) {
	records := s.workspace.Records(schedule.KindRest)
	name := s.branchName(branch)

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//sched-master//rest days//EN")
	cal.SetName(name + " Rest Days")

	stamp := s.now().UTC()
	events := 0
	for i, r := range records {
		day, ok := schedule.ParseDisplayDate(r.Date)
		if !ok {
			continue
		}

		uid := fmt.Sprintf("rd-%d-%s-%s@sched-master", i, sanitizeUID(r.EmployeeNo), day.Format("20060102"))
		event := cal.AddEvent(uid)
		event.SetDtStampTime(stamp)
		event.SetAllDayStartAt(day)
		event.SetAllDayEndAt(day.AddDate(0, 0, 1))
		event.SetSummary(restEventSummary(r))
		if r.Position != "" {
			event.SetDescription("Position: " + r.Position)
		}
		events++
	}
	if events == 0 {
		return nil, "", ErrExportNoData
	}

	buf := bytes.NewBufferString(cal.Serialize())
	filename := fmt.Sprintf("%s_RD.ics", name)

	s.logger.Info("导出休息日日历", zap.Int("events", events), zap.String("filename", filename))
	return buf, filename, nil
}

func restEventSummary(r schedule.Record) string {
	who := strings.TrimSpace(r.EmployeeNo + " " + r.Name)
	if who == "" {
		who = "(No EmpNo)"
	}
	return "Rest Day: " + who
}

var reUIDUnsafe = regexp.MustCompile(`[^A-Za-z0-9]+`)

func sanitizeUID(s string) string {
	s = reUIDUnsafe.ReplaceAllString(s, "")
	if s == "" {
		return "x"
	}
	return s
}

// ── 辅助函数 ──

func (s *exportService) generateFail(err error) error {
	s.logger.Error("生成导出文件失败", zap.Error(err))
	return ErrExportGenerateFail
}

// cellName 列号从 0 开始，行号从 1 开始
func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col+1, row)
	return name
}
