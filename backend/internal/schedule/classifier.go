package schedule

import (
	"regexp"
	"strings"
)

// ── 单值类型识别 ──────────────────────────────────────────────
//
// 职责：把粘贴文本中的单个 token / 单元格识别为语义类型。
//
// 识别顺序即优先级（先命中者胜）：一个 3 位数字既像工号也可能出现在班次代码里，
// 调整顺序会静默改变解析结果，所以顺序集中在 classifierRules 一张表里。
// ─────────────────────────────────────────────────────────────

// Tag 值类型标签
type Tag string

const (
	TagDate       Tag = "date"
	TagDayOfWeek  Tag = "dayOfWeek"
	TagEmployeeNo Tag = "employeeNo"
	TagShiftCode  Tag = "shiftCode"
	TagPosition   Tag = "position"
	TagNamePart   Tag = "namePart"
	TagName       Tag = "name"
	TagUnknown    Tag = "unknown"
)

// ClassifyMode 识别模式
type ClassifyMode int

const (
	// TokenMode 自由 token 解析：姓名片段只允许字母
	TokenMode ClassifyMode = iota
	// CellMode 列类型推断：姓名允许字母与内部空格
	CellMode
)

var (
	reSlashDate = regexp.MustCompile(`^\d{1,2}[/-]\d{1,2}[/-]\d{2,4}$`)
	reISODate   = regexp.MustCompile(`^\d{4}-\d{1,2}-\d{1,2}$`)
	reDayOfWeek = regexp.MustCompile(`(?i)^(sun(day)?|mon(day)?|tue(s|sday)?|wed(nesday)?|thu(rs|rsday)?|fri(day)?|sat(urday)?)$`)
	reEmployee  = regexp.MustCompile(`^[A-Za-z]{0,4}\d{1,6}$`)
	reShiftCode = regexp.MustCompile(`^[A-Za-z]{3}-\d{3}$`)
	rePosition  = regexp.MustCompile(`(?i)^(cashier|manager|supervisor|assistant|oic|head|lead|ia|mac|expert|branch\s*head)$`)
	reNamePart  = regexp.MustCompile(`^[A-Za-z]+$`)
	reNameCell  = regexp.MustCompile(`^[A-Za-z]+(\s+[A-Za-z]+)*$`)
)

type classifierRule struct {
	tag   Tag
	match func(v string, mode ClassifyMode) bool
}

// classifierRules 优先级表
var classifierRules = []classifierRule{
	{TagDate, func(v string, _ ClassifyMode) bool { return reSlashDate.MatchString(v) || reISODate.MatchString(v) }},
	{TagDayOfWeek, func(v string, _ ClassifyMode) bool { return reDayOfWeek.MatchString(v) }},
	{TagEmployeeNo, func(v string, _ ClassifyMode) bool { return reEmployee.MatchString(v) }},
	{TagShiftCode, func(v string, _ ClassifyMode) bool { return reShiftCode.MatchString(v) }},
	{TagPosition, func(v string, _ ClassifyMode) bool { return rePosition.MatchString(v) }},
	{TagNamePart, func(v string, mode ClassifyMode) bool { return mode == TokenMode && reNamePart.MatchString(v) }},
	{TagName, func(v string, mode ClassifyMode) bool { return mode == CellMode && reNameCell.MatchString(v) }},
}

// Classify 识别单个值的类型；对任意字符串都返回恰好一个标签
func Classify(v string, mode ClassifyMode) Tag {
	v = strings.TrimSpace(v)
	if v == "" {
		return TagUnknown
	}
	for _, rule := range classifierRules {
		if rule.match(v, mode) {
			return rule.tag
		}
	}
	return TagUnknown
}
