package parser

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// CellKind 单元格取值类型
type CellKind int

const (
	CellEmpty  CellKind = iota // 空单元格（区别于 0 和 ""）
	CellNumber                 // 数值（含日期序列号）
	CellText                   // 文本
)

// Cell 原始单元格
type Cell struct {
	Kind CellKind
	Raw  string

	// Date1904 工作簿使用 1904 日期系统，数值按该纪元解释为日期
	Date1904 bool
}

// IsEmpty 单元格是否为空（空白文本也视为空）
func (c Cell) IsEmpty() bool {
	return c.Kind == CellEmpty || (c.Kind == CellText && strings.TrimSpace(c.Raw) == "")
}

// RawRow 一行原始数据，按列顺序保存，可按表头访问
type RawRow struct {
	RowNo   int // Excel 行号（从 1 开始，表头为第 1 行）
	headers []string
	cells   []Cell
}

// Cell 按列索引取值，越界返回空单元格
func (r RawRow) Cell(idx int) Cell {
	if idx < 0 || idx >= len(r.cells) {
		return Cell{Kind: CellEmpty}
	}
	return r.cells[idx]
}

// Get 按原始表头取值（同名表头取第一列）
func (r RawRow) Get(header string) Cell {
	for i, h := range r.headers {
		if h == header {
			return r.Cell(i)
		}
	}
	return Cell{Kind: CellEmpty}
}

// Len 列数（按表头计）
func (r RawRow) Len() int {
	return len(r.headers)
}

// Sheet 第一个工作表的解析结果
type Sheet struct {
	Name     string
	Headers  []string
	Rows     []RawRow
	Date1904 bool
}

// LayoutMode 表格布局
type LayoutMode string

const (
	LayoutNarrow LayoutMode = "narrow" // 一行 = 一个产品一天，含 Date 列
	LayoutWide   LayoutMode = "wide"   // 一行 = 一个产品，按天重复列
)

// RoleKind 列角色
type RoleKind int

const (
	RoleNone RoleKind = iota
	RoleIdentifier
	RoleProductName
	RoleDate
	RoleStartDate
	RoleOpeningInventory
	RoleFlow
)

// Flow 流量字段
type Flow int

const (
	ProcurementQty Flow = iota
	ProcurementPrice
	SalesQty
	SalesPrice
)

// String 返回表头显示名
func (f Flow) String() string {
	switch f {
	case ProcurementQty:
		return "Procurement Qty"
	case ProcurementPrice:
		return "Procurement Price"
	case SalesQty:
		return "Sales Qty"
	case SalesPrice:
		return "Sales Price"
	}
	return fmt.Sprintf("Flow(%d)", int(f))
}

var allFlows = []Flow{ProcurementQty, ProcurementPrice, SalesQty, SalesPrice}

// ColumnRole 一个表头的语义角色
// Day 对 OpeningInventory 和 Flow 有效：0 表示表头不带天数后缀
type ColumnRole struct {
	Kind RoleKind
	Flow Flow
	Day  int
}

// String 返回角色显示名，用于报错与日志
func (r ColumnRole) String() string {
	switch r.Kind {
	case RoleIdentifier:
		return "ID"
	case RoleProductName:
		return "Product Name"
	case RoleDate:
		return "Date"
	case RoleStartDate:
		return "Start Date"
	case RoleOpeningInventory:
		if r.Day > 0 {
			return fmt.Sprintf("Opening Inventory Day %d", r.Day)
		}
		return "Opening Inventory"
	case RoleFlow:
		if r.Day > 0 {
			return fmt.Sprintf("%s Day %d", r.Flow, r.Day)
		}
		return r.Flow.String()
	}
	return "-"
}

// DailyFact 标准日度事实记录
type DailyFact struct {
	ProductName string    `json:"product_name"`
	ExternalID  *string   `json:"external_id"`
	Date        time.Time `json:"date"`
	OpenInv     float64   `json:"open_inv"`
	ProcQty     float64   `json:"proc_qty"`
	ProcPrice   float64   `json:"proc_price"`
	SalesQty    float64   `json:"sales_qty"`
	SalesPrice  float64   `json:"sales_price"`
}

// NaturalKey 产品键：优先 external_id，没有就用名称
func (f DailyFact) NaturalKey() string {
	if f.ExternalID != nil {
		return "id:" + *f.ExternalID
	}
	return "name:" + f.ProductName
}

// MarshalJSON 日期输出为 YYYY-MM-DD
func (f DailyFact) MarshalJSON() ([]byte, error) {
	type plain DailyFact
	return json.Marshal(struct {
		plain
		Date string `json:"date"`
	}{plain: plain(f), Date: f.DateString()})
}

// DateString 以 YYYY-MM-DD 返回日期
func (f DailyFact) DateString() string {
	return f.Date.Format(DateLayout)
}

// DateLayout 日度事实的日期格式
const DateLayout = "2006-01-02"

// ParseReport 一次解析的摘要（用于导入日志）
type ParseReport struct {
	SheetName   string     `json:"sheetName"`
	Layout      LayoutMode `json:"layout"`
	Days        []int      `json:"days,omitempty"`
	TotalRows   int        `json:"totalRows"`
	SkippedRows int        `json:"skippedRows"`
	Records     int        `json:"records"`
	Duplicates  []string   `json:"duplicates,omitempty"`
}
