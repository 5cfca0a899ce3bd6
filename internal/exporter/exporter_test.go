package exporter

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"retaildash/internal/importer"
	"retaildash/internal/parser"
	"retaildash/internal/store"
)

func seededStore(t *testing.T) *store.Store {
	t.Helper()

	st, err := store.New(filepath.Join(t.TempDir(), "retaildash.db"))
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	wb := excelize.NewFile()
	defer wb.Close()
	rows := [][]interface{}{
		{"ID", "Product Name", "Date", "Opening Inventory", "Procurement Qty", "Procurement Price", "Sales Qty", "Sales Price"},
		{"A1", "Widget", "2024-01-02", 12, 0, 2, 4, 3},
		{"A1", "Widget", "2024-01-01", 10, 5, 2, 3, 0.1},
		{nil, "Gizmo", "2024-01-01", 1, 1, 1, 1, 1},
	}
	for i := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := wb.SetSheetRow("Sheet1", cell, &rows[i]); err != nil {
			t.Fatalf("SetSheetRow failed: %v", err)
		}
	}
	buf, err := wb.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer failed: %v", err)
	}
	if _, err := importer.NewCoordinator(st, nil, 2).Run(context.Background(), importer.ImportOptions{
		Tenant: 1, Filename: "seed.xlsx", Data: buf.Bytes(),
	}); err != nil {
		t.Fatalf("seed import failed: %v", err)
	}
	return st
}

func TestExport_RoundTripsThroughParser(t *testing.T) {
	t.Parallel()

	st := seededStore(t)
	var events []ProgressEvent
	f, err := NewExporter(st).Export(context.Background(), ExportOptions{
		Tenant:   1,
		Progress: func(e ProgressEvent) { events = append(events, e) },
	})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	defer f.Close()

	if sheets := f.GetSheetList(); len(sheets) != 2 || sheets[0] != FactsSheet || sheets[1] != SummarySheet {
		t.Fatalf("unexpected sheets: %v", sheets)
	}
	if last := events[len(events)-1]; last.Percent != 100 {
		t.Fatalf("last progress=%+v, want 100", last)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer failed: %v", err)
	}
	facts, err := parser.Parse(buf.Bytes())
	if err != nil {
		t.Fatalf("exported workbook should parse: %v", err)
	}
	if len(facts) != 3 {
		t.Fatalf("got %d facts, want 3", len(facts))
	}
	// 商品按 product_id，日期升序
	first := facts[0]
	if first.ProductName != "Widget" || first.ExternalID == nil || *first.ExternalID != "A1" || first.DateString() != "2024-01-01" || first.SalesPrice != 0.1 {
		t.Fatalf("unexpected first fact: %+v", first)
	}
	if facts[1].DateString() != "2024-01-02" || facts[1].OpenInv != 12 {
		t.Fatalf("unexpected second fact: %+v", facts[1])
	}
	if facts[2].ProductName != "Gizmo" || facts[2].ExternalID != nil {
		t.Fatalf("name-keyed product should export without ID: %+v", facts[2])
	}
}

func TestExport_SummarySheet(t *testing.T) {
	t.Parallel()

	st := seededStore(t)
	f, err := NewExporter(st).Export(context.Background(), ExportOptions{Tenant: 1})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SummarySheet)
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d summary rows, want 3", len(rows))
	}
	// Widget: 采购 5×2 + 0×2 = 10，销售 3×0.1 + 4×3 = 12.3
	widget := rows[1]
	if widget[1] != "Widget" || widget[2] != "2" || widget[3] != "10" || widget[4] != "12.3" || widget[5] != "12" {
		t.Fatalf("unexpected widget summary: %v", widget)
	}
}

func TestExport_FiltersToOwnedProducts(t *testing.T) {
	t.Parallel()

	st := seededStore(t)
	ctx := context.Background()
	products, _ := st.ListProducts(ctx, 1)

	f, err := NewExporter(st).Export(ctx, ExportOptions{Tenant: 1, ProductIDs: []int64{products[1].ID, 9999}})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	defer f.Close()
	rows, _ := f.GetRows(FactsSheet)
	if len(rows) != 2 || rows[1][1] != "Gizmo" {
		t.Fatalf("unexpected rows: %v", rows)
	}

	// 其他租户看不到数据，但仍得到带表头的工作簿
	other, err := NewExporter(st).Export(ctx, ExportOptions{Tenant: 2})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	defer other.Close()
	rows, _ = other.GetRows(FactsSheet)
	if len(rows) != 1 {
		t.Fatalf("foreign tenant should get header only, got %v", rows)
	}
}

func TestProgressReporter_Monotonic(t *testing.T) {
	t.Parallel()

	var got []int
	r := newProgressReporter(func(e ProgressEvent) { got = append(got, e.Percent) })
	for _, p := range []int{-5, 10, 10, 5, 150, 100} {
		r.report(p, "stage")
	}
	want := []int{0, 10, 100}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}

	// 未设置回调时不做任何事
	newProgressReporter(nil).report(50, "stage")
}
