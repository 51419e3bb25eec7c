package schedule

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ── 日期规范化 ──────────────────────────────────────────────
//
// 输入可能是：电子表格序列号 (45678)、"22-Nov"、"11/22/25"、ISO 日期或 time.Time。
// 统一输出 MM/DD/YYYY。所有尝试都失败时原样返回输入，不报错；
// 调用方可通过 Resolve 的 ok 标记得知日期未被识别。
// ─────────────────────────────────────────────────────────────

// DisplayLayout 规范化后的日期显示格式
const DisplayLayout = "01/02/2006"

// serialThreshold 大于该值的数字按电子表格序列号处理
const serialThreshold = 20000

// maxSerial 电子表格可表示的最大序列号（9999-12-31）
const maxSerial = 2958465

// serialEpoch 电子表格序列号纪元（兼容 1900 闰年 bug 的约定）
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

var (
	reDayMonthShort = regexp.MustCompile(`^(\d{1,2})[-\s]([A-Za-z]{3,})$`)
	reDayMonthAny   = regexp.MustCompile(`(\d{1,2})-(\w{3,})`)
	reMultiSpace    = regexp.MustCompile(`\s+`)
)

// genericLayouts 通用解析尝试的格式（按顺序）
var genericLayouts = []string{
	"1/2/2006",
	"1/2/06",
	"2006/1/2",
	"2006-1-2",
	"Jan 2 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"January 2, 2006",
	"Jan 2 06",
	"Jan 2, 06",
	"2 Jan 2006",
	"2 January 2006",
	"2-Jan-2006",
	"2-Jan-06",
	"Mon Jan 2 2006",
	"Monday, January 2, 2006",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

var monthNames = []string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

// DateNormalizer 日期规范化器
type DateNormalizer struct {
	now func() time.Time
}

// NewDateNormalizer 创建规范化器；now 用于 "22-Nov" 这类无年份写法补全当年，nil 时取系统时间
func NewDateNormalizer(now func() time.Time) *DateNormalizer {
	if now == nil {
		now = time.Now
	}
	return &DateNormalizer{now: now}
}

// Normalize 规范化日期，无法识别时原样返回
func (n *DateNormalizer) Normalize(raw any) string {
	s, _ := n.Resolve(raw)
	return s
}

// Resolve 规范化日期；ok=false 表示输入非空但无法识别，返回值为原文
func (n *DateNormalizer) Resolve(raw any) (string, bool) {
	switch v := raw.(type) {
	case nil:
		return "", true
	case time.Time:
		if v.IsZero() {
			return "", true
		}
		return v.Format(DisplayLayout), true
	case *time.Time:
		if v == nil || v.IsZero() {
			return "", true
		}
		return v.Format(DisplayLayout), true
	case int:
		return n.resolveNumber(float64(v), strconv.Itoa(v))
	case int64:
		return n.resolveNumber(float64(v), strconv.FormatInt(v, 10))
	case float64:
		return n.resolveNumber(v, strconv.FormatFloat(v, 'f', -1, 64))
	case string:
		return n.resolveString(v)
	}
	return "", true
}

func (n *DateNormalizer) resolveNumber(f float64, text string) (string, bool) {
	if f == 0 {
		return "", true
	}
	if isSerial(f) {
		return SerialToTime(f).Format(DisplayLayout), true
	}
	return text, false
}

func (n *DateNormalizer) resolveString(raw string) (string, bool) {
	str := strings.TrimSpace(raw)
	if str == "" {
		return "", true
	}

	// 1. 电子表格序列号
	if f, err := strconv.ParseFloat(str, 64); err == nil && isSerial(f) {
		return SerialToTime(f).Format(DisplayLayout), true
	}

	// 2. "22-Nov" / "22 Nov"：补当年
	if m := reDayMonthShort.FindStringSubmatch(str); m != nil {
		if t, ok := n.dayMonthThisYear(m[1], m[2]); ok {
			return t.Format(DisplayLayout), true
		}
	}

	// 3. 任意位置的 "22-Nov" 改写为 "Nov 22" 再通用解析
	if loc := reDayMonthAny.FindStringSubmatchIndex(str); loc != nil {
		rewritten := str[:loc[0]] + str[loc[4]:loc[5]] + " " + str[loc[2]:loc[3]] + str[loc[1]:]
		if t, ok := parseGeneric(rewritten); ok {
			return t.Format(DisplayLayout), true
		}
	}

	// 4. 含 / 或 - 的数字格式：统一为 /
	if strings.ContainsAny(str, "/-") {
		if t, ok := parseGeneric(strings.ReplaceAll(str, "-", "/")); ok {
			return t.Format(DisplayLayout), true
		}
	}

	// 5. 原文通用解析
	if t, ok := parseGeneric(str); ok {
		return t.Format(DisplayLayout), true
	}

	return raw, false
}

func (n *DateNormalizer) dayMonthThisYear(dayText, monthText string) (time.Time, bool) {
	day, err := strconv.Atoi(dayText)
	if err != nil {
		return time.Time{}, false
	}
	month, ok := lookupMonth(monthText)
	if !ok {
		return time.Time{}, false
	}
	t := time.Date(n.now().Year(), month, day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

func lookupMonth(name string) (time.Month, bool) {
	lower := strings.ToLower(name)
	if len(lower) < 3 {
		return 0, false
	}
	for i, full := range monthNames {
		if strings.HasPrefix(full, lower) {
			return time.Month(i + 1), true
		}
	}
	return 0, false
}

func parseGeneric(s string) (time.Time, bool) {
	s = reMultiSpace.ReplaceAllString(strings.TrimSpace(s), " ")
	for _, layout := range genericLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// isSerial Inf/NaN 及超出范围的数字不是日期
func isSerial(f float64) bool {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return false
	}
	return f > serialThreshold && f <= maxSerial
}

// SerialToTime 电子表格序列号转日期（忽略小数部分的时刻）
func SerialToTime(serial float64) time.Time {
	return serialEpoch.AddDate(0, 0, int(math.Floor(serial)))
}

// TimeToSerial 日期转电子表格序列号
func TimeToSerial(t time.Time) float64 {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return math.Round(d.Sub(serialEpoch).Hours() / 24)
}

// ParseDisplayDate 解析规范化后的日期；兼容少数未规范化的常见写法
func ParseDisplayDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(DisplayLayout, s); err == nil {
		return t, true
	}
	return parseGeneric(s)
}
