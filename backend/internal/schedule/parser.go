package schedule

import (
	"fmt"
	"regexp"
	"strings"
)

// ── 粘贴文本解析 ──────────────────────────────────────────────
//
// 粘贴内容 → 行/单元格 → ColumnMapper →
//   - 结构化模式：按列映射切片
//   - 自由模式：逐 token 识别类型后拼装
// 最后所有日期统一经 DateNormalizer 规范化。
// ─────────────────────────────────────────────────────────────

// ParseMode 解析模式
type ParseMode string

const (
	ModeStructured ParseMode = "structured"
	ModeFallback   ParseMode = "fallback"
)

var reWideGap = regexp.MustCompile(`\s{2,}|\t`)

// ParseResult 解析结果
//
// Warnings 汇报非致命情况（未识别表头、无法识别的日期、无数据行），不会中断解析。
type ParseResult struct {
	Records   []Record  `json:"records"`
	Mode      ParseMode `json:"mode"`
	HeaderRow int       `json:"headerRow"`
	Warnings  []string  `json:"warnings,omitempty"`
}

// Parser 粘贴文本解析器
type Parser struct {
	dates *DateNormalizer
}

// NewParser 创建解析器
func NewParser(dates *DateNormalizer) *Parser {
	if dates == nil {
		dates = NewDateNormalizer(nil)
	}
	return &Parser{dates: dates}
}

// SplitRows 按行拆分粘贴文本：去首尾空白、丢弃空行；优先 Tab 分隔，否则按 2 个以上空白分隔
func SplitRows(text string) [][]string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var rows [][]string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.Contains(line, "\t") {
			rows = append(rows, strings.Split(line, "\t"))
		} else {
			rows = append(rows, reWideGap.Split(line, -1))
		}
	}
	return rows
}

// ParseText 解析粘贴文本
func (p *Parser) ParseText(text string, kind Kind) ParseResult {
	return p.ParseRows(SplitRows(text), kind)
}

// ParseRows 解析已拆分的行（粘贴文本或上传的工作表）
func (p *Parser) ParseRows(rows [][]string, kind Kind) ParseResult {
	result := ParseResult{Records: []Record{}, HeaderRow: -1}
	if len(rows) == 0 {
		result.Mode = ModeFallback
		result.Warnings = append(result.Warnings, "粘贴内容为空")
		return result
	}

	mapping := DetectColumns(rows, kind)
	if mapping.Structured {
		result.Mode = ModeStructured
		result.HeaderRow = mapping.HeaderRow
		result.Records = structuredRecords(rows, mapping, kind)
	} else {
		result.Mode = ModeFallback
		result.Warnings = append(result.Warnings, "未识别到表头或列结构，已按自由文本解析")
		result.Records = fallbackRecords(rows, kind)
	}

	for i := range result.Records {
		r := &result.Records[i]
		date, ok := p.dates.Resolve(r.Date)
		r.Date = date
		r.DateUnparsed = !ok
		if !ok {
			result.Warnings = append(result.Warnings, fmt.Sprintf("第 %d 行日期无法识别: %q", i+1, date))
		}
	}

	if len(result.Records) == 0 {
		result.Warnings = append(result.Warnings, "没有可导入的数据行")
	}
	return result
}

func structuredRecords(rows [][]string, mapping ColumnMapping, kind Kind) []Record {
	start := mapping.HeaderRow + 1
	records := make([]Record, 0, len(rows)-start)
	for _, row := range rows[start:] {
		cell := func(f Field) string {
			idx, ok := mapping.Index(f)
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}
		r := Record{
			EmployeeNo: cell(FieldEmployeeNo),
			Name:       cell(FieldName),
			Position:   cell(FieldPosition),
			Date:       cell(FieldDate),
			DayOfWeek:  cell(FieldDayOfWeek),
		}
		if kind == KindWork {
			r.ShiftCode = cell(FieldShiftCode)
		}
		records = append(records, r)
	}
	return records
}

// fallbackRecords 自由 token 解析：姓名片段、职位片段累加，其余类型每行先到先得，未知 token 丢弃
func fallbackRecords(rows [][]string, kind Kind) []Record {
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		var r Record
		var nameParts, positionParts []string
		for _, tok := range strings.Fields(strings.Join(row, " ")) {
			switch Classify(tok, TokenMode) {
			case TagNamePart:
				nameParts = append(nameParts, tok)
			case TagPosition:
				positionParts = append(positionParts, tok)
			case TagDate:
				setOnce(&r.Date, tok)
			case TagDayOfWeek:
				setOnce(&r.DayOfWeek, tok)
			case TagEmployeeNo:
				setOnce(&r.EmployeeNo, tok)
			case TagShiftCode:
				if kind == KindWork {
					setOnce(&r.ShiftCode, tok)
				}
			}
		}
		r.Name = strings.Join(nameParts, " ")
		r.Position = strings.Join(positionParts, " ")
		records = append(records, r)
	}
	return records
}

func setOnce(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}
