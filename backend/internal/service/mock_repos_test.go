package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"gorm.io/gorm"

	"sched-master/backend/internal/model"
	"sched-master/backend/internal/repository"
	"sched-master/backend/internal/schedule"
	pkgerrors "sched-master/backend/pkg/errors"
)

// ── Mock BranchRepository ──

type mockBranchRepo struct {
	branches map[string]*model.Branch
	seq      int
	listErr  error
}

func newMockBranchRepo() *mockBranchRepo {
	return &mockBranchRepo{branches: make(map[string]*model.Branch)}
}

func (m *mockBranchRepo) Create(_ context.Context, branch *model.Branch) error {
	if branch.BranchID == "" {
		m.seq++
		branch.BranchID = fmt.Sprintf("branch-%d", m.seq)
	}
	if branch.Version == 0 {
		branch.Version = 1
	}
	cp := *branch
	m.branches[branch.BranchID] = &cp
	return nil
}

func (m *mockBranchRepo) GetByID(_ context.Context, id string) (*model.Branch, error) {
	if b, ok := m.branches[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockBranchRepo) List(_ context.Context) ([]model.Branch, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var result []model.Branch
	for _, b := range m.branches {
		result = append(result, *b)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].PosCode < result[j].PosCode })
	return result, nil
}

func (m *mockBranchRepo) Update(_ context.Context, branch *model.Branch) error {
	stored, ok := m.branches[branch.BranchID]
	if !ok || stored.Version != branch.Version {
		return pkgerrors.ErrOptimisticLock
	}
	branch.Version++
	cp := *branch
	m.branches[branch.BranchID] = &cp
	return nil
}

func (m *mockBranchRepo) Delete(_ context.Context, id string) error {
	delete(m.branches, id)
	return nil
}

// ── Mock ProgressRepository ──

type mockProgressRepo struct {
	periods map[string][]model.ProgressEntry
}

func newMockProgressRepo() *mockProgressRepo {
	return &mockProgressRepo{periods: make(map[string][]model.ProgressEntry)}
}

func (m *mockProgressRepo) ReplacePeriod(_ context.Context, period string, entries []model.ProgressEntry) error {
	for i := range entries {
		entries[i].Period = period
	}
	m.periods[period] = append([]model.ProgressEntry(nil), entries...)
	return nil
}

func (m *mockProgressRepo) ListByPeriod(_ context.Context, period string) ([]model.ProgressEntry, error) {
	return append([]model.ProgressEntry(nil), m.periods[period]...), nil
}

func (m *mockProgressRepo) ListPeriods(_ context.Context) ([]string, error) {
	var result []string
	for p := range m.periods {
		result = append(result, p)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(result)))
	return result, nil
}

// ── Mock DatasetRepository ──

type mockDatasetRepo struct {
	mu      sync.Mutex
	data    map[schedule.Kind][]schedule.Record
	saves   int
	saveErr error
	loadErr error
}

func newMockDatasetRepo() *mockDatasetRepo {
	return &mockDatasetRepo{data: make(map[schedule.Kind][]schedule.Record)}
}

func (m *mockDatasetRepo) Load(_ context.Context, kind schedule.Kind) ([]schedule.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	out := schedule.CloneRecords(m.data[kind])
	if out == nil {
		out = []schedule.Record{}
	}
	return out, nil
}

func (m *mockDatasetRepo) Save(_ context.Context, kind schedule.Kind, records []schedule.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	if kind != schedule.KindWork && kind != schedule.KindRest {
		return errors.New("unknown kind")
	}
	m.data[kind] = schedule.StripConflicts(records)
	return nil
}

// ── 聚合 ──

type testRepos struct {
	branch   *mockBranchRepo
	progress *mockProgressRepo
	dataset  *mockDatasetRepo
}

func newTestRepos() *testRepos {
	return &testRepos{
		branch:   newMockBranchRepo(),
		progress: newMockProgressRepo(),
		dataset:  newMockDatasetRepo(),
	}
}

func (r *testRepos) toRepository() *repository.Repository {
	return &repository.Repository{
		Branch:   r.branch,
		Progress: r.progress,
		Dataset:  r.dataset,
	}
}
