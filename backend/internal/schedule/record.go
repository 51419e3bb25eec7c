package schedule

import (
	"fmt"
	"strings"
)

// ── 排班数据类型 ──

// Kind 数据集类型：工作排班 (WS) 或休息日排班 (RD)
type Kind string

const (
	KindWork Kind = "work"
	KindRest Kind = "rest"
)

// ParseKind 解析路由参数中的数据集类型
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindWork:
		return KindWork, nil
	case KindRest:
		return KindRest, nil
	}
	return "", fmt.Errorf("未知的排班类型 %q", s)
}

// Label 返回导出文件名与汇总行使用的缩写
func (k Kind) Label() string {
	if k == KindWork {
		return "WS"
	}
	return "RD"
}

// ConflictType 冲突类型；空字符串表示无冲突
type ConflictType string

const (
	ConflictNone       ConflictType = ""
	ConflictSameDate   ConflictType = "sameDate"
	ConflictDuplicate  ConflictType = "duplicate"
	ConflictMissing    ConflictType = "missing"
	ConflictLeadership ConflictType = "leadership"
	ConflictWeekend    ConflictType = "weekend"
)

// conflictLabels 行内显示的简短说明
var conflictLabels = map[ConflictType]string{
	ConflictSameDate:   "Same date conflict",
	ConflictDuplicate:  "Duplicate date",
	ConflictMissing:    "Not in WS",
	ConflictLeadership: "Leadership overlap",
	ConflictWeekend:    "Too many weekends",
}

// Label 返回冲突类型对应的简短说明
func (t ConflictType) Label() string {
	if l, ok := conflictLabels[t]; ok {
		return l
	}
	return "Conflict detected"
}

// Record 一行排班数据（工作或休息日）
//
// Conflict* 字段由 ConflictEngine 每次全量重算，不作为数据来源持久化语义。
type Record struct {
	EmployeeNo string `json:"employeeNo"`
	Name       string `json:"name"`
	Position   string `json:"position"`
	Date       string `json:"date"`
	DayOfWeek  string `json:"dayOfWeek"`
	ShiftCode  string `json:"shiftCode,omitempty"`

	// DateUnparsed 原始日期无法识别，Date 保留原文
	DateUnparsed bool `json:"dateUnparsed,omitempty"`

	Conflict        bool         `json:"conflict"`
	ConflictType    ConflictType `json:"conflictType"`
	ConflictReasons []string     `json:"conflictReasons"`
	ConflictReason  string       `json:"conflictReason"`
}

// matchKey 返回 (工号, 日期) 匹配键；任一为空时 ok=false，不参与任何匹配规则
func (r *Record) matchKey() (string, bool) {
	if r.EmployeeNo == "" || r.Date == "" {
		return "", false
	}
	return r.EmployeeNo + "|" + r.Date, true
}

func (r *Record) resetConflict() {
	r.Conflict = false
	r.ConflictType = ConflictNone
	r.ConflictReasons = nil
	r.ConflictReason = ""
}

// flag 标记冲突；类型先写入者优先
func (r *Record) flag(t ConflictType, reason string) {
	r.Conflict = true
	if r.ConflictType == ConflictNone {
		r.ConflictType = t
	}
	r.ConflictReasons = append(r.ConflictReasons, reason)
}

// StripConflicts 返回去掉冲突标注的副本（持久化前使用，冲突状态总是由 Recheck 重新计算）
func StripConflicts(in []Record) []Record {
	out := CloneRecords(in)
	for i := range out {
		out[i].resetConflict()
	}
	return out
}

// CloneRecords 深拷贝记录切片
func CloneRecords(in []Record) []Record {
	if in == nil {
		return nil
	}
	out := make([]Record, len(in))
	for i, r := range in {
		out[i] = r
		if r.ConflictReasons != nil {
			out[i].ConflictReasons = append([]string(nil), r.ConflictReasons...)
		}
	}
	return out
}
