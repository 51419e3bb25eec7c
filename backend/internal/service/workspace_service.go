package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"sched-master/backend/config"
	"sched-master/backend/internal/dto"
	"sched-master/backend/internal/repository"
	"sched-master/backend/internal/schedule"
)

// ── 排班工作区业务错误 ──

var (
	ErrInvalidKind           = errors.New("排班类型必须为 work 或 rest")
	ErrRecordIndexOutOfRange = errors.New("记录序号超出范围")
	ErrNothingToUndo         = errors.New("没有可撤销的操作")
	ErrNothingToRedo         = errors.New("没有可重做的操作")
	ErrPasteTooLarge         = errors.New("粘贴内容过大")
	ErrInvalidWorkbook       = errors.New("无法读取上传的工作簿")
)

// ParseKind 解析路由中的排班类型
func ParseKind(s string) (schedule.Kind, error) {
	kind, err := schedule.ParseKind(s)
	if err != nil {
		return "", ErrInvalidKind
	}
	return kind, nil
}

// WorkspaceService 排班工作区业务接口
//
// 设计说明：
//   - 工作排班 (WS) 与休息日排班 (RD) 两个数据集由本服务独占，所有变更串行执行
//   - 每次变更前保存撤销快照，变更后对两个数据集整体重算冲突，再持久化变更的数据集
//   - 粘贴 / 上传为整体替换；解析得不到任何记录时不替换，只返回提示
//   - 快照存储不可用时仅保存在内存中，不影响任何操作
type WorkspaceService interface {
	// Load 启动时从快照存储恢复两个数据集
	Load(ctx context.Context) error
	State(ctx context.Context) *dto.WorkspaceResponse
	Paste(ctx context.Context, kind schedule.Kind, text string) (*dto.ImportResponse, error)
	ImportWorkbook(ctx context.Context, kind schedule.Kind, r io.Reader) (*dto.ImportResponse, error)
	UpdateRecord(ctx context.Context, kind schedule.Kind, index int, req *dto.UpdateRecordRequest) (*dto.WorkspaceResponse, error)
	DeleteRecord(ctx context.Context, kind schedule.Kind, index int) (*dto.WorkspaceResponse, error)
	Clear(ctx context.Context, kind schedule.Kind) (*dto.WorkspaceResponse, error)
	Undo(ctx context.Context, kind schedule.Kind) (*dto.WorkspaceResponse, error)
	Redo(ctx context.Context, kind schedule.Kind) (*dto.WorkspaceResponse, error)
	// Records 当前带冲突标注的记录副本（导出使用）
	Records(kind schedule.Kind) []schedule.Record
}

type workspaceService struct {
	mu sync.Mutex

	repo   *repository.Repository
	parser *schedule.Parser
	dates  *schedule.DateNormalizer
	engine *schedule.Engine
	logger *zap.Logger

	maxPasteBytes int

	work    []schedule.Record
	rest    []schedule.Record
	summary schedule.Summary
	history map[schedule.Kind]*schedule.History
}

// NewWorkspaceService 创建 WorkspaceService 实例
func NewWorkspaceService(cfg *config.ScheduleConfig, repo *repository.Repository, logger *zap.Logger) WorkspaceService {
	return newWorkspaceService(cfg, repo, logger, time.Now)
}

func newWorkspaceService(cfg *config.ScheduleConfig, repo *repository.Repository, logger *zap.Logger, now func() time.Time) *workspaceService {
	dates := schedule.NewDateNormalizer(now)
	s := &workspaceService{
		repo:          repo,
		parser:        schedule.NewParser(dates),
		dates:         dates,
		engine:        schedule.NewEngine(cfg.MaxWeekendGroups, cfg.LeadershipPositions),
		logger:        logger,
		maxPasteBytes: cfg.MaxPasteBytes,
		work:          []schedule.Record{},
		rest:          []schedule.Record{},
		summary:       schedule.Summary{Lines: []string{}},
		history: map[schedule.Kind]*schedule.History{
			schedule.KindWork: schedule.NewHistory(cfg.HistoryDepth),
			schedule.KindRest: schedule.NewHistory(cfg.HistoryDepth),
		},
	}
	return s
}

// ────────────────────── Load ──────────────────────

func (s *workspaceService) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.repo.Dataset == nil {
		s.logger.Info("未配置快照存储，排班数据仅保存在内存中")
		return nil
	}

	var loadErr error
	for _, kind := range []schedule.Kind{schedule.KindWork, schedule.KindRest} {
		records, err := s.repo.Dataset.Load(ctx, kind)
		if err != nil {
			// 与本地存储损坏时的处理一致：以空数据集启动
			s.logger.Warn("加载排班快照失败，以空数据集启动", zap.String("kind", string(kind)), zap.Error(err))
			loadErr = errors.Join(loadErr, err)
			continue
		}
		s.set(kind, records)
	}
	s.recheck()

	s.logger.Info("排班快照加载完成",
		zap.Int("work", len(s.work)),
		zap.Int("rest", len(s.rest)),
		zap.Int("conflicts", s.summary.Count),
	)
	return loadErr
}

// ────────────────────── State ──────────────────────

func (s *workspaceService) State(_ context.Context) *dto.WorkspaceResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// ────────────────────── Paste / ImportWorkbook ──────────────────────

func (s *workspaceService) Paste(ctx context.Context, kind schedule.Kind, text string) (*dto.ImportResponse, error) {
	if s.maxPasteBytes > 0 && len(text) > s.maxPasteBytes {
		return nil, ErrPasteTooLarge
	}
	return s.replace(ctx, kind, s.parser.ParseText(text, kind), "paste")
}

func (s *workspaceService) ImportWorkbook(ctx context.Context, kind schedule.Kind, r io.Reader) (*dto.ImportResponse, error) {
	rows, err := readFirstSheet(r)
	if err != nil {
		s.logger.Warn("读取上传工作簿失败", zap.Error(err))
		return nil, ErrInvalidWorkbook
	}
	return s.replace(ctx, kind, s.parser.ParseRows(rows, kind), "workbook")
}

// readFirstSheet 读取第一个工作表；日期按原始序列号读出，交给 DateNormalizer 处理
func readFirstSheet(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("工作簿中没有工作表")
	}
	raw, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(raw))
	for _, row := range raw {
		if isBlankRow(row) {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func (s *workspaceService) replace(ctx context.Context, kind schedule.Kind, parsed schedule.ParseResult, source string) (*dto.ImportResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp := &dto.ImportResponse{
		Kind:      kind,
		Mode:      parsed.Mode,
		HeaderRow: parsed.HeaderRow,
		Imported:  len(parsed.Records),
		Warnings:  parsed.Warnings,
	}

	// 整体替换：只有表头的粘贴同样清空该数据集（可撤销）
	s.mutate(ctx, kind, parsed.Records)

	s.logger.Info("排班数据导入完成",
		zap.String("kind", string(kind)),
		zap.String("source", source),
		zap.String("mode", string(parsed.Mode)),
		zap.Int("records", len(parsed.Records)),
		zap.Int("warnings", len(parsed.Warnings)),
	)
	if parsed.Mode == schedule.ModeFallback {
		s.logger.Debug("未识别到列结构，使用自由文本解析", zap.String("kind", string(kind)))
	}

	resp.Workspace = s.snapshot()
	return resp, nil
}

// ────────────────────── UpdateRecord / DeleteRecord / Clear ──────────────────────

func (s *workspaceService) UpdateRecord(ctx context.Context, kind schedule.Kind, index int, req *dto.UpdateRecordRequest) (*dto.WorkspaceResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.records(kind)
	if index < 0 || index >= len(current) {
		return nil, ErrRecordIndexOutOfRange
	}

	next := schedule.CloneRecords(current)
	r := &next[index]
	if req.EmployeeNo != nil {
		r.EmployeeNo = strings.TrimSpace(*req.EmployeeNo)
	}
	if req.Name != nil {
		r.Name = strings.TrimSpace(*req.Name)
	}
	if req.Position != nil {
		r.Position = strings.TrimSpace(*req.Position)
	}
	if req.DayOfWeek != nil {
		r.DayOfWeek = strings.TrimSpace(*req.DayOfWeek)
	}
	if req.ShiftCode != nil && kind == schedule.KindWork {
		r.ShiftCode = strings.TrimSpace(*req.ShiftCode)
	}
	if req.Date != nil {
		date, ok := s.dates.Resolve(*req.Date)
		r.Date = date
		r.DateUnparsed = !ok
	}

	s.mutate(ctx, kind, next)
	return s.snapshot(), nil
}

func (s *workspaceService) DeleteRecord(ctx context.Context, kind schedule.Kind, index int) (*dto.WorkspaceResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.records(kind)
	if index < 0 || index >= len(current) {
		return nil, ErrRecordIndexOutOfRange
	}

	next := make([]schedule.Record, 0, len(current)-1)
	next = append(next, current[:index]...)
	next = append(next, current[index+1:]...)

	s.mutate(ctx, kind, schedule.CloneRecords(next))
	return s.snapshot(), nil
}

func (s *workspaceService) Clear(ctx context.Context, kind schedule.Kind) (*dto.WorkspaceResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.records(kind)) > 0 {
		s.mutate(ctx, kind, []schedule.Record{})
	}
	return s.snapshot(), nil
}

// ────────────────────── Undo / Redo ──────────────────────

func (s *workspaceService) Undo(ctx context.Context, kind schedule.Kind) (*dto.WorkspaceResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.history[kind].Undo(s.records(kind))
	if !ok {
		return nil, ErrNothingToUndo
	}
	s.apply(ctx, kind, prev)
	return s.snapshot(), nil
}

func (s *workspaceService) Redo(ctx context.Context, kind schedule.Kind) (*dto.WorkspaceResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, ok := s.history[kind].Redo(s.records(kind))
	if !ok {
		return nil, ErrNothingToRedo
	}
	s.apply(ctx, kind, next)
	return s.snapshot(), nil
}

// ────────────────────── Records ──────────────────────

func (s *workspaceService) Records(kind schedule.Kind) []schedule.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return schedule.CloneRecords(s.records(kind))
}

// ── 内部辅助方法（调用方持有锁） ──

// mutate 保存撤销快照后替换数据集
func (s *workspaceService) mutate(ctx context.Context, kind schedule.Kind, next []schedule.Record) {
	s.history[kind].Save(s.records(kind))
	s.apply(ctx, kind, next)
}

// apply 替换数据集、重算冲突并持久化
func (s *workspaceService) apply(ctx context.Context, kind schedule.Kind, next []schedule.Record) {
	s.set(kind, next)
	s.recheck()
	s.persist(ctx, kind)
}

func (s *workspaceService) records(kind schedule.Kind) []schedule.Record {
	if kind == schedule.KindWork {
		return s.work
	}
	return s.rest
}

func (s *workspaceService) set(kind schedule.Kind, records []schedule.Record) {
	if records == nil {
		records = []schedule.Record{}
	}
	if kind == schedule.KindWork {
		s.work = records
	} else {
		s.rest = records
	}
}

func (s *workspaceService) recheck() {
	res := s.engine.Recheck(s.work, s.rest)
	s.work, s.rest, s.summary = res.Work, res.Rest, res.Summary
}

// persist 持久化失败只记录日志，不回滚内存状态
func (s *workspaceService) persist(ctx context.Context, kind schedule.Kind) {
	if s.repo.Dataset == nil {
		return
	}
	if err := s.repo.Dataset.Save(ctx, kind, s.records(kind)); err != nil {
		s.logger.Warn("保存排班快照失败", zap.String("kind", string(kind)), zap.Error(err))
	}
}

func (s *workspaceService) snapshot() *dto.WorkspaceResponse {
	state := func(kind schedule.Kind) dto.DatasetState {
		records := schedule.CloneRecords(s.records(kind))
		return dto.DatasetState{
			Records:   records,
			CanUndo:   s.history[kind].CanUndo(),
			CanRedo:   s.history[kind].CanRedo(),
			CanExport: len(records) > 0,
		}
	}
	lines := append([]string{}, s.summary.Lines...)
	return &dto.WorkspaceResponse{
		Work:    state(schedule.KindWork),
		Rest:    state(schedule.KindRest),
		Summary: schedule.Summary{Count: s.summary.Count, Lines: lines},
	}
}
