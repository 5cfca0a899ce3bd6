package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ReadSheet 读取工作簿的第一个工作表
// 第一行为表头；完全空白的数据行被忽略；其后的工作表不读取。
func ReadSheet(data []byte) (*Sheet, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no worksheet", ErrMalformedInput)
	}
	name := sheets[0]

	props, err := file.GetWorkbookProps()
	if err != nil {
		return nil, fmt.Errorf("%w: read workbook properties: %v", ErrMalformedInput, err)
	}
	date1904 := props.Date1904 != nil && *props.Date1904

	// 取原始值：日期单元格返回序列号而不是按格式渲染的文本
	rows, err := file.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrMalformedInput, name, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrEmptySheet, name)
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	sheet := &Sheet{Name: name, Headers: headers, Date1904: date1904}
	for rowIdx := 1; rowIdx < len(rows); rowIdx++ {
		row := NewRawRow(rowIdx+1, headers, rows[rowIdx])
		if row.blank() {
			continue
		}
		if date1904 {
			row.useDate1904()
		}
		sheet.Rows = append(sheet.Rows, row)
	}

	if len(sheet.Rows) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrEmptySheet, name)
	}
	return sheet, nil
}

// NewRawRow 按表头构造一行；超出表头的单元格被丢弃，缺失的补为空
func NewRawRow(rowNo int, headers []string, values []string) RawRow {
	cells := make([]Cell, len(headers))
	for i := range headers {
		if i < len(values) {
			cells[i] = classifyCell(values[i])
		}
	}
	return RawRow{RowNo: rowNo, headers: headers, cells: cells}
}

func classifyCell(raw string) Cell {
	if raw == "" {
		return Cell{Kind: CellEmpty}
	}
	if _, ok := parseNumber(raw); ok {
		return Cell{Kind: CellNumber, Raw: raw}
	}
	return Cell{Kind: CellText, Raw: raw}
}

func (r RawRow) useDate1904() {
	for i := range r.cells {
		r.cells[i].Date1904 = true
	}
}

func (r RawRow) blank() bool {
	for _, c := range r.cells {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}
