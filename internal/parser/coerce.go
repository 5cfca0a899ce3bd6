package parser

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// 9999-12-31 对应的 Excel 序列号；1904 日期系统整体少 1462 天
const (
	maxExcelSerial  = 2958465
	date1904DayDiff = 1462
)

// 文本日期按顺序尝试的格式，均按 UTC 解析
var dateLayouts = []string{
	"2006-1-2",
	"2006/1/2",
	"2006.1.2",
	"2006-1-2 15:04:05",
	"2006-1-2 15:04",
	"2006/1/2 15:04:05",
	"2006/1/2 15:04",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	"1/2/2006",
	"2006年1月2日",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"02-Jan-2006",
	"20060102",
}

// ToNumber 宽松数值转换：空、非数值、非有限值一律为 0。
// 不做四舍五入，也不解析千分位和货币符号。
func ToNumber(c Cell) float64 {
	if c.Kind == CellEmpty {
		return 0
	}
	f, ok := parseNumber(c.Raw)
	if !ok {
		return 0
	}
	return f
}

func parseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ToDate 将单元格解析为 UTC 零点的日历日期
// 支持 Excel 日期序列号（按单元格所属工作簿的日期系统）和常见文本日期；时分秒被丢弃。
func ToDate(c Cell) (time.Time, error) {
	raw := strings.TrimSpace(c.Raw)
	if c.Kind == CellEmpty || raw == "" {
		return time.Time{}, &InvalidDateError{Raw: c.Raw}
	}

	limit := float64(maxExcelSerial)
	if c.Date1904 {
		limit -= date1904DayDiff
	}
	if serial, ok := parseNumber(raw); ok && serial > 0 && serial <= limit {
		t, err := excelize.ExcelDateToTime(serial, c.Date1904)
		if err != nil {
			return time.Time{}, &InvalidDateError{Raw: c.Raw}
		}
		return truncateDay(t), nil
	}

	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, raw, time.UTC)
		if err == nil {
			return truncateDay(t.UTC()), nil
		}
	}
	return time.Time{}, &InvalidDateError{Raw: c.Raw}
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AddDays 按 UTC 日历加减天数
func AddDays(d time.Time, n int) time.Time {
	return d.AddDate(0, 0, n)
}
