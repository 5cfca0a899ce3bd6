package chart

import (
	"testing"

	"retaildash/internal/store"
)

func TestToSeries(t *testing.T) {
	t.Parallel()

	series := ToSeries(map[int64][]store.DailyFactRow{
		1: {
			{Date: "2024-01-02", OpenInv: 90, ProcQty: 0, ProcPrice: 2, SalesQty: 10, SalesPrice: 3},
			{Date: "2024-01-01", OpenInv: 100, ProcQty: 20, ProcPrice: 2, SalesQty: 30, SalesPrice: 3},
		},
		2: {},
	})

	pts := series[1]
	if len(pts) != 2 {
		t.Fatalf("got %d points, want 2", len(pts))
	}
	want := []Point{
		{Day: 1, Procurement: 40, Sales: 90, Inventory: 100},
		{Day: 2, Procurement: 0, Sales: 30, Inventory: 90},
	}
	for i := range want {
		if pts[i] != want[i] {
			t.Fatalf("point %d=%+v, want %+v", i, pts[i], want[i])
		}
	}
	if p, ok := series[2]; !ok || len(p) != 0 {
		t.Fatalf("product without rows should map to empty series, got %v", p)
	}
}

func TestToSeries_DecimalAmounts(t *testing.T) {
	t.Parallel()

	series := ToSeries(map[int64][]store.DailyFactRow{
		1: {{Date: "2024-01-01", ProcQty: 3, ProcPrice: 0.1, SalesQty: 0.7, SalesPrice: 0.1}},
	})
	p := series[1][0]
	// 浮点直接相乘分别得到 0.30000000000000004 和 0.06999999999999999
	if p.Procurement != 0.3 || p.Sales != 0.07 {
		t.Fatalf("amounts=%v,%v want 0.3,0.07", p.Procurement, p.Sales)
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	totals := Summarize(map[int64][]store.DailyFactRow{
		7: {
			{Date: "2024-01-03", OpenInv: 80, ProcQty: 1, ProcPrice: 0.1},
			{Date: "2024-01-01", OpenInv: 100, ProcQty: 2, ProcPrice: 0.1, SalesQty: 1, SalesPrice: 5},
		},
		8: nil,
	})
	got := totals[7]
	if got.Days != 2 || got.Procurement != 0.3 || got.Sales != 5 || got.LastInventory != 80 {
		t.Fatalf("unexpected totals: %+v", got)
	}
	if totals[8] != (Totals{}) {
		t.Fatalf("empty product totals=%+v", totals[8])
	}
}
