package exporter

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"retaildash/internal/chart"
	"retaildash/internal/store"
)

// 工作表名称；日度数据必须是第一个工作表，导出文件可直接重新导入
const (
	FactsSheet   = "Daily Facts"
	SummarySheet = "Summary"
)

// FactsHeaders 导出的日度数据表头（窄表布局）
var FactsHeaders = []string{
	"ID", "Product Name", "Date", "Opening Inventory",
	"Procurement Qty", "Procurement Price", "Sales Qty", "Sales Price",
}

var summaryHeaders = []string{
	"Product ID", "Product Name", "Days", "Procurement Amount", "Sales Amount", "Last Opening Inventory",
}

// Source 导出所需的只读数据
type Source interface {
	ListProducts(ctx context.Context, tenant int64) ([]store.Product, error)
	ListDailyFacts(ctx context.Context, tenant int64, ids []int64) (map[int64][]store.DailyFactRow, error)
}

// Exporter 日度数据导出器
type Exporter struct {
	source Source
}

// NewExporter 创建导出器
func NewExporter(source Source) *Exporter {
	return &Exporter{source: source}
}

// ExportOptions 导出选项
type ExportOptions struct {
	Tenant     int64
	ProductIDs []int64 // 为空时导出租户全部商品
	Progress   func(ProgressEvent)
}

// Export 生成工作簿；调用方负责 Close
func (e *Exporter) Export(ctx context.Context, opts ExportOptions) (*excelize.File, error) {
	progress := newProgressReporter(opts.Progress)
	progress.report(0, "读取商品")
	products, err := e.selectProducts(ctx, opts.Tenant, opts.ProductIDs)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	facts := map[int64][]store.DailyFactRow{}
	if len(ids) > 0 {
		facts, err = e.source.ListDailyFacts(ctx, opts.Tenant, ids)
		if err != nil {
			return nil, err
		}
	}
	progress.report(20, "读取日度数据")

	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), FactsSheet); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := writeFactsSheet(f, products, facts, progress); err != nil {
		_ = f.Close()
		return nil, err
	}
	progress.report(90, "写入汇总")
	if err := writeSummarySheet(f, products, facts); err != nil {
		_ = f.Close()
		return nil, err
	}

	f.SetActiveSheet(0)
	progress.report(100, "导出完成")
	return f, nil
}

// selectProducts 过滤出租户拥有的商品，按 product_id 升序
func (e *Exporter) selectProducts(ctx context.Context, tenant int64, ids []int64) ([]store.Product, error) {
	all, err := e.source.ListProducts(ctx, tenant)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return all, nil
	}
	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := make([]store.Product, 0, len(ids))
	for _, p := range all {
		if want[p.ID] {
			out = append(out, p)
		}
	}
	return out, nil
}

func writeFactsSheet(f *excelize.File, products []store.Product, facts map[int64][]store.DailyFactRow, progress *progressReporter) error {
	sw, err := f.NewStreamWriter(FactsSheet)
	if err != nil {
		return err
	}
	if err := sw.SetRow("A1", toRow(FactsHeaders)); err != nil {
		return err
	}

	rowNo := 2
	for i, p := range products {
		var ext interface{}
		if p.ExternalID != "" {
			ext = p.ExternalID
		}
		for _, r := range facts[p.ID] {
			cell, err := excelize.CoordinatesToCellName(1, rowNo)
			if err != nil {
				return err
			}
			// 日期以文本写出，避免时区与单元格格式影响
			values := []interface{}{ext, p.Name, r.Date, r.OpenInv, r.ProcQty, r.ProcPrice, r.SalesQty, r.SalesPrice}
			if err := sw.SetRow(cell, values); err != nil {
				return err
			}
			rowNo++
		}
		progress.report(20+70*(i+1)/len(products), fmt.Sprintf("写入商品 %s", p.Name))
	}
	return sw.Flush()
}

func writeSummarySheet(f *excelize.File, products []store.Product, facts map[int64][]store.DailyFactRow) error {
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(SummarySheet, "A1", &summaryHeaders); err != nil {
		return err
	}

	totals := chart.Summarize(facts)
	for i, p := range products {
		t := totals[p.ID]
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{p.ID, p.Name, t.Days, t.Procurement, t.Sales, t.LastInventory}
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func toRow(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
