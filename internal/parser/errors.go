package parser

import (
	"errors"
	"fmt"
	"strings"
)

// 解析错误分类；除 ErrEmptySheet 外均使整次解析失败。
var (
	// ErrMalformedInput: 字节无法解码为电子表格。
	ErrMalformedInput = errors.New("malformed spreadsheet")
	// ErrEmptySheet: 第一个工作表没有数据行，调用方按空结果处理。
	ErrEmptySheet = errors.New("sheet has no data rows")
	// ErrMissingHeader: 缺少必需表头。
	ErrMissingHeader = errors.New("missing headers")
	// ErrUnrecognizedLayout: 既无 Date 列，也无按天的流量列。
	ErrUnrecognizedLayout = errors.New("unrecognized layout: no Date column and no day-indexed columns (e.g. \"Procurement Qty Day 1\")")
	// ErrInvalidDate: 日期单元格无法解析。
	ErrInvalidDate = errors.New("invalid date")
)

// MissingHeaderError 列出所有缺失的表头
type MissingHeaderError struct {
	Layout  LayoutMode
	Missing []string
}

func (e *MissingHeaderError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingHeader, strings.Join(e.Missing, ", "))
}

func (e *MissingHeaderError) Unwrap() error { return ErrMissingHeader }

// InvalidDateError 记录无法解析的原始值
type InvalidDateError struct {
	Raw   string
	RowNo int
}

func (e *InvalidDateError) Error() string {
	if e.RowNo > 0 {
		return fmt.Sprintf("%s %q (row %d)", ErrInvalidDate, e.Raw, e.RowNo)
	}
	return fmt.Sprintf("%s %q", ErrInvalidDate, e.Raw)
}

func (e *InvalidDateError) Unwrap() error { return ErrInvalidDate }
