package schedule

import "strings"

// ── 列映射检测 ──────────────────────────────────────────────
//
// 两阶段：
//   1. 表头识别：前 20 行中第一行能同时解析出 工号/姓名/日期 的即为表头（先到先得，不比较优劣）
//   2. 类型推断：无表头时取前 5 行，按列统计识别类型的众数
//
// 推断结果字段过少或行过窄时放弃映射，由调用方改走自由 token 解析。
// ─────────────────────────────────────────────────────────────

const (
	headerScanRows  = 20
	inferSampleRows = 5
	minMappedFields = 2
	minAvgRowWidth  = 3
)

// Field 目标字段
type Field string

const (
	FieldEmployeeNo Field = "employeeNo"
	FieldName       Field = "name"
	FieldPosition   Field = "position"
	FieldDate       Field = "date"
	FieldShiftCode  Field = "shiftCode"
	FieldDayOfWeek  Field = "dayOfWeek"
)

// Fields 字段顺序（表头匹配与输出都按此顺序）
var Fields = []Field{FieldEmployeeNo, FieldName, FieldPosition, FieldDate, FieldShiftCode, FieldDayOfWeek}

// headerAliases 表头别名（小写、去冒号后精确匹配）
func headerAliases(kind Kind) map[Field][]string {
	dateAliases := []string{"work date", "date"}
	if kind == KindRest {
		dateAliases = []string{"rest day date", "date", "rest day"}
	}
	return map[Field][]string{
		FieldEmployeeNo: {"employee no.", "employee no", "emp no", "emp no.", "employee number", "id"},
		FieldName:       {"name", "employee name", "fullname"},
		FieldPosition:   {"position", "designation", "role", "title"},
		FieldDate:       dateAliases,
		FieldShiftCode:  {"shift code", "shift", "scode"},
		FieldDayOfWeek:  {"day of week", "day"},
	}
}

// tagFields 推断阶段：值类型 → 字段
var tagFields = map[Field]Tag{
	FieldEmployeeNo: TagEmployeeNo,
	FieldName:       TagName,
	FieldPosition:   TagPosition,
	FieldDate:       TagDate,
	FieldShiftCode:  TagShiftCode,
	FieldDayOfWeek:  TagDayOfWeek,
}

// ColumnMapping 列映射检测结果
//
// HeaderRow 为 -1 表示没有表头行；Columns 中不存在的字段即"缺失"，与列 0 区分。
// Structured 为 false 时映射不可用，调用方必须改走自由解析。
type ColumnMapping struct {
	Columns    map[Field]int
	HeaderRow  int
	Structured bool
}

// Index 返回字段所在列
func (m ColumnMapping) Index(f Field) (int, bool) {
	idx, ok := m.Columns[f]
	return idx, ok
}

// DetectColumns 检测列映射；从不返回错误，不可用时 Structured=false
func DetectColumns(rows [][]string, kind Kind) ColumnMapping {
	if m, ok := detectHeader(rows, kind); ok {
		return m
	}
	return inferColumns(rows, kind)
}

func normalizeHeaderCell(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, ":", "")
	return strings.TrimSpace(s)
}

func detectHeader(rows [][]string, kind Kind) (ColumnMapping, bool) {
	aliases := headerAliases(kind)
	limit := len(rows)
	if limit > headerScanRows {
		limit = headerScanRows
	}

	for i := 0; i < limit; i++ {
		cells := make([]string, len(rows[i]))
		for j, c := range rows[i] {
			cells[j] = normalizeHeaderCell(c)
		}

		cols := make(map[Field]int)
		for _, f := range Fields {
			if idx := indexOfAlias(cells, aliases[f]); idx >= 0 {
				cols[f] = idx
			}
		}

		_, hasEmp := cols[FieldEmployeeNo]
		_, hasName := cols[FieldName]
		_, hasDate := cols[FieldDate]
		if hasEmp && hasName && hasDate {
			return ColumnMapping{Columns: cols, HeaderRow: i, Structured: true}, true
		}
	}
	return ColumnMapping{}, false
}

func indexOfAlias(cells []string, aliases []string) int {
	for i, c := range cells {
		for _, a := range aliases {
			if c == a {
				return i
			}
		}
	}
	return -1
}

func inferColumns(rows [][]string, kind Kind) ColumnMapping {
	none := ColumnMapping{HeaderRow: -1}
	if len(rows) == 0 {
		return none
	}

	sample := rows
	if len(sample) > inferSampleRows {
		sample = sample[:inferSampleRows]
	}
	colCount := 0
	for _, r := range sample {
		if len(r) > colCount {
			colCount = len(r)
		}
	}

	bestTypes := make([]Tag, colCount)
	for col := 0; col < colCount; col++ {
		bestTypes[col] = dominantTag(sample, col)
	}

	cols := make(map[Field]int)
	for _, f := range Fields {
		if f == FieldShiftCode && kind != KindWork {
			continue
		}
		for col, t := range bestTypes {
			if t == tagFields[f] {
				cols[f] = col
				break
			}
		}
	}

	totalWidth := 0
	for _, r := range rows {
		totalWidth += len(r)
	}
	avgWidth := float64(totalWidth) / float64(len(rows))
	if len(cols) < minMappedFields || avgWidth < minAvgRowWidth {
		return none
	}
	return ColumnMapping{Columns: cols, HeaderRow: -1, Structured: true}
}

// dominantTag 统计某列的非 unknown 类型众数；票数相同取先出现者
func dominantTag(sample [][]string, col int) Tag {
	counts := make(map[Tag]int)
	var order []Tag
	for _, r := range sample {
		if col >= len(r) {
			continue
		}
		v := strings.TrimSpace(r[col])
		if v == "" {
			continue
		}
		t := Classify(v, CellMode)
		if t == TagUnknown {
			continue
		}
		if counts[t] == 0 {
			order = append(order, t)
		}
		counts[t]++
	}

	best := TagUnknown
	bestCount := 0
	for _, t := range order {
		if counts[t] > bestCount {
			best, bestCount = t, counts[t]
		}
	}
	return best
}
