package schedule

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// ── 冲突检测 ──────────────────────────────────────────────
//
// 规则按固定顺序执行，每条规则追加原因；ConflictType 取第一条命中的规则：
//   1. 工作/休息同日
//   2. 同一数据集内重复日期
//   3. 休息日员工不在工作排班中
//   4. 多名领导同日休息
//   5. 周末休息组过多（按 ISO 周分组）
//
// Recheck 不修改入参，返回重新标注后的副本。
// ─────────────────────────────────────────────────────────────

// DefaultMaxWeekendGroups 每名员工允许的周末休息组上限
const DefaultMaxWeekendGroups = 2

// DefaultLeadershipPositions 不允许同日休息的领导职位
var DefaultLeadershipPositions = []string{"Branch Head", "Site Supervisor", "OIC"}

// 星期索引：Sun=0 … Sat=6
var (
	coreWeekendDays = map[time.Weekday]bool{time.Friday: true, time.Saturday: true, time.Sunday: true}
	bridgeDays      = map[time.Weekday]bool{time.Thursday: true, time.Monday: true}
)

func isWeekendCandidate(d time.Weekday) bool {
	return coreWeekendDays[d] || bridgeDays[d]
}

// Summary 冲突汇总
type Summary struct {
	Count int      `json:"count"`
	Lines []string `json:"lines"`
}

// Result 冲突检测结果
type Result struct {
	Work    []Record `json:"work"`
	Rest    []Record `json:"rest"`
	Summary Summary  `json:"summary"`
}

// Engine 冲突检测引擎
type Engine struct {
	maxWeekendGroups int
	leaders          map[string]bool
}

// NewEngine 创建引擎；参数非法时回落到默认值
func NewEngine(maxWeekendGroups int, leadershipPositions []string) *Engine {
	if maxWeekendGroups <= 0 {
		maxWeekendGroups = DefaultMaxWeekendGroups
	}
	if len(leadershipPositions) == 0 {
		leadershipPositions = DefaultLeadershipPositions
	}
	leaders := make(map[string]bool, len(leadershipPositions))
	for _, p := range leadershipPositions {
		leaders[normalizePosition(p)] = true
	}
	return &Engine{maxWeekendGroups: maxWeekendGroups, leaders: leaders}
}

func normalizePosition(p string) string {
	return strings.ToLower(strings.Join(strings.Fields(p), " "))
}

// Recheck 重置并重新计算两份数据集的冲突标记
func (e *Engine) Recheck(work, rest []Record) Result {
	w := CloneRecords(work)
	r := CloneRecords(rest)
	if w == nil {
		w = []Record{}
	}
	if r == nil {
		r = []Record{}
	}
	for i := range w {
		w[i].resetConflict()
	}
	for i := range r {
		r[i].resetConflict()
	}

	e.checkSameDate(w, r)
	e.checkDuplicates(w, "Work Schedule")
	e.checkDuplicates(r, "Rest Day Schedule")
	e.checkMissing(w, r)
	e.checkLeadership(r)
	e.checkWeekends(r)

	for i := range w {
		if w[i].Conflict {
			w[i].ConflictReason = w[i].ConflictType.Label()
		}
	}
	for i := range r {
		if r[i].Conflict {
			r[i].ConflictReason = r[i].ConflictType.Label()
		}
	}

	return Result{Work: w, Rest: r, Summary: summarize(w, r)}
}

// checkSameDate 规则 1：工作排班中每个键只取第一次出现
func (e *Engine) checkSameDate(work, rest []Record) {
	firstWork := make(map[string]int)
	for i := range work {
		key, ok := work[i].matchKey()
		if !ok {
			continue
		}
		if _, seen := firstWork[key]; !seen {
			firstWork[key] = i
		}
	}

	for ri := range rest {
		key, ok := rest[ri].matchKey()
		if !ok {
			continue
		}
		wi, found := firstWork[key]
		if !found {
			continue
		}
		rest[ri].flag(ConflictSameDate, fmt.Sprintf("Has rest day on same date as Work Schedule (WS row #%d)", wi+1))
		work[wi].flag(ConflictSameDate, fmt.Sprintf("Has work schedule on same date as Rest Day (RD row #%d)", ri+1))
	}
}

// checkDuplicates 规则 2：之后的每次重复都与第一次出现配对
func (e *Engine) checkDuplicates(records []Record, label string) {
	first := make(map[string]int)
	for i := range records {
		key, ok := records[i].matchKey()
		if !ok {
			continue
		}
		fi, seen := first[key]
		if !seen {
			first[key] = i
			continue
		}
		records[i].flag(ConflictDuplicate, fmt.Sprintf("Duplicate date in %s (row #%d)", label, fi+1))
		records[fi].flag(ConflictDuplicate, fmt.Sprintf("Duplicate date in %s (row #%d)", label, i+1))
	}
}

// checkMissing 规则 3
func (e *Engine) checkMissing(work, rest []Record) {
	workNos := make(map[string]bool, len(work))
	// 工号出现在工作排班任意一行即可，不要求该行有日期
	for i := range work {
		if work[i].EmployeeNo != "" {
			workNos[work[i].EmployeeNo] = true
		}
	}
	for i := range rest {
		if _, ok := rest[i].matchKey(); !ok {
			continue
		}
		if !workNos[rest[i].EmployeeNo] {
			rest[i].flag(ConflictMissing, "Employee not found in Work Schedule")
		}
	}
}

// checkLeadership 规则 4：按日期分组，按日期首次出现顺序输出
func (e *Engine) checkLeadership(rest []Record) {
	byDate := make(map[string][]int)
	var dates []string
	for i := range rest {
		if _, ok := rest[i].matchKey(); !ok {
			continue
		}
		if !e.leaders[normalizePosition(rest[i].Position)] {
			continue
		}
		if _, seen := byDate[rest[i].Date]; !seen {
			dates = append(dates, rest[i].Date)
		}
		byDate[rest[i].Date] = append(byDate[rest[i].Date], i)
	}

	for _, date := range dates {
		idxs := byDate[date]
		if len(idxs) <= 1 {
			continue
		}
		for _, i := range idxs {
			rest[i].flag(ConflictLeadership, fmt.Sprintf("Multiple leaders resting on %s", date))
		}
	}
}

// checkWeekends 规则 5
func (e *Engine) checkWeekends(rest []Record) {
	// 员工 → ISO 周 → 候选日
	weeks := make(map[string]map[string][]time.Weekday)
	// 每条记录的星期，-1 表示日期无法解析
	weekdays := make([]time.Weekday, len(rest))

	for i := range rest {
		weekdays[i] = -1
		if _, ok := rest[i].matchKey(); !ok {
			continue
		}
		t, ok := ParseDisplayDate(rest[i].Date)
		if !ok {
			continue
		}
		weekdays[i] = t.Weekday()

		emp := rest[i].EmployeeNo
		if weeks[emp] == nil {
			weeks[emp] = make(map[string][]time.Weekday)
		}
		key := isoWeekKey(t)
		if isWeekendCandidate(t.Weekday()) {
			weeks[emp][key] = append(weeks[emp][key], t.Weekday())
		}
	}

	totals := make(map[string]int, len(weeks))
	for emp, byWeek := range weeks {
		total := 0
		for _, days := range byWeek {
			total += countWeekendGroups(days)
		}
		totals[emp] = total
	}

	for i := range rest {
		total := totals[rest[i].EmployeeNo]
		if total <= e.maxWeekendGroups || weekdays[i] < 0 || !isWeekendCandidate(weekdays[i]) {
			continue
		}
		rest[i].flag(ConflictWeekend, fmt.Sprintf("Exceeded limit: %d weekend rest groups (max %d allowed)", total, e.maxWeekendGroups))
	}
}

// isoWeekKey ISO 8601 周键：包含当年第一个星期四的周为第 1 周
func isoWeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%d", year, week)
}

// countWeekendGroups 统计一周内的周末休息组
//
// 按星期索引排序后合并：相邻（差 1）或 周五→周一 视为同组，同一天重复另起一组；
// 只含周四/周一的组不计数。
func countWeekendGroups(days []time.Weekday) int {
	if len(days) == 0 {
		return 0
	}
	sorted := append([]time.Weekday(nil), days...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	groups := 0
	hasCore := coreWeekendDays[sorted[0]]
	for i := 1; i < len(sorted); i++ {
		prev, curr := sorted[i-1], sorted[i]
		if curr-prev == 1 || (prev == time.Friday && curr == time.Monday) {
			hasCore = hasCore || coreWeekendDays[curr]
			continue
		}
		if hasCore {
			groups++
		}
		hasCore = coreWeekendDays[curr]
	}
	if hasCore {
		groups++
	}
	return groups
}

func summarize(work, rest []Record) Summary {
	s := Summary{Lines: []string{}}
	add := func(kind Kind, r Record) {
		if !r.Conflict {
			return
		}
		emp := r.EmployeeNo
		if emp == "" {
			emp = "(No EmpNo)"
		}
		s.Count++
		s.Lines = append(s.Lines, fmt.Sprintf("%s | %s %s — %s", kind.Label(), emp, r.Name, strings.Join(r.ConflictReasons, "; ")))
	}
	for _, r := range work {
		add(KindWork, r)
	}
	for _, r := range rest {
		add(KindRest, r)
	}
	return s
}
