package parser

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"
)

// buildWorkbook 生成只有一个工作表的 xlsx 字节
func buildWorkbook(t *testing.T, headers []string, rows ...[]interface{}) []byte {
	t.Helper()
	return buildWorkbookSheets(t, map[string][][]interface{}{}, headers, rows...)
}

// buildWorkbook1904 与 buildWorkbook 相同，但工作簿使用 1904 日期系统
func buildWorkbook1904(t *testing.T, headers []string, rows ...[]interface{}) []byte {
	t.Helper()

	wb, err := excelize.OpenReader(bytes.NewReader(buildWorkbook(t, headers, rows...)))
	if err != nil {
		t.Fatalf("OpenReader failed: %v", err)
	}
	t.Cleanup(func() { _ = wb.Close() })
	date1904 := true
	if err := wb.SetWorkbookProps(&excelize.WorkbookPropsOptions{Date1904: &date1904}); err != nil {
		t.Fatalf("SetWorkbookProps failed: %v", err)
	}
	buf, err := wb.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer failed: %v", err)
	}
	return buf.Bytes()
}

// buildWorkbookSheets 第一个工作表写入 headers/rows，extra 追加到其后的工作表
func buildWorkbookSheets(t *testing.T, extra map[string][][]interface{}, headers []string, rows ...[]interface{}) []byte {
	t.Helper()

	wb := excelize.NewFile()
	t.Cleanup(func() { _ = wb.Close() })

	sheet := wb.GetSheetName(wb.GetActiveSheetIndex())
	head := make([]interface{}, 0, len(headers))
	for _, h := range headers {
		head = append(head, h)
	}
	if err := wb.SetSheetRow(sheet, "A1", &head); err != nil {
		t.Fatalf("SetSheetRow header failed: %v", err)
	}
	writeRows(t, wb, sheet, 2, rows)

	for name, extraRows := range extra {
		if _, err := wb.NewSheet(name); err != nil {
			t.Fatalf("NewSheet %s failed: %v", name, err)
		}
		writeRows(t, wb, name, 1, extraRows)
	}

	buf, err := wb.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer failed: %v", err)
	}
	return buf.Bytes()
}

func writeRows(t *testing.T, wb *excelize.File, sheet string, startRow int, rows [][]interface{}) {
	t.Helper()
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, startRow+i)
		if err != nil {
			t.Fatalf("CoordinatesToCellName failed: %v", err)
		}
		row := rows[i]
		if err := wb.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("SetSheetRow %s failed: %v", cell, err)
		}
	}
}

// rawRow 直接构造一行，值按 Excel 原始值写法给出
func rawRow(headers []string, values ...string) RawRow {
	return NewRawRow(2, headers, values)
}

func mustClassify(t *testing.T, headers []string) *Classification {
	t.Helper()
	c, err := Classify(headers)
	if err != nil {
		t.Fatalf("Classify(%v) failed: %v", headers, err)
	}
	return c
}

func approxEqual(a, b float64) bool {
	d := a - b
	return d > -1e-9 && d < 1e-9
}
