package parser

import (
	"errors"
	"testing"
	"time"
)

func TestCarryInventory(t *testing.T) {
	t.Parallel()

	days := []DayFlow{
		{Day: 1, ProcQty: 20, SalesQty: 30},
		{Day: 2, ProcQty: 0, SalesQty: 10},
		{Day: 3, ProcQty: 15, SalesQty: 5},
		{Day: 4},
	}
	got := CarryInventory(100, days)
	want := []float64{100, 90, 80, 90}
	for i := range want {
		if !approxEqual(got[i], want[i]) {
			t.Fatalf("day %d inventory=%v, want %v (all=%v)", days[i].Day, got[i], want[i], got)
		}
	}

	if out := CarryInventory(5, nil); len(out) != 0 {
		t.Fatalf("empty input should give empty output, got %v", out)
	}
}

// open[d] = open[1] + Σ_{i<d}(proc_qty[i] - sales_qty[i])
func TestCarryInventory_MatchesPrefixSum(t *testing.T) {
	t.Parallel()

	days := make([]DayFlow, 30)
	for i := range days {
		days[i] = DayFlow{Day: i + 1, ProcQty: float64((i * 7) % 11), SalesQty: float64((i * 5) % 9)}
	}
	got := CarryInventory(42, days)

	sum := 42.0
	for i := range days {
		if !approxEqual(got[i], sum) {
			t.Fatalf("day %d inventory=%v, want %v", i+1, got[i], sum)
		}
		sum += days[i].ProcQty - days[i].SalesQty
	}
}

func TestExpandRow_WideScenarioB(t *testing.T) {
	t.Parallel()

	headers := []string{
		"Product Name", "Opening Inventory Day 1",
		"Procurement Qty Day 1", "Sales Qty Day 1",
		"Procurement Qty Day 2", "Sales Qty Day 2",
	}
	c := mustClassify(t, headers)

	facts, err := ExpandRow(rawRow(headers, "Gadget", "100", "20", "30", "0", "10"), c)
	if err != nil {
		t.Fatalf("ExpandRow failed: %v", err)
	}
	if len(facts) != 2 {
		t.Fatalf("got %d facts, want 2", len(facts))
	}
	if facts[0].OpenInv != 100 || facts[1].OpenInv != 90 {
		t.Fatalf("open_inv=%v,%v, want 100,90", facts[0].OpenInv, facts[1].OpenInv)
	}
	anchor := WideAnchorDate()
	if !facts[0].Date.Equal(anchor) || !facts[1].Date.Equal(anchor.AddDate(0, 0, 1)) {
		t.Fatalf("dates=%v,%v", facts[0].Date, facts[1].Date)
	}
	if facts[0].ExternalID != nil {
		t.Fatalf("external id should be nil without an ID column")
	}
	// 缺失的价格列按 0
	if facts[0].ProcPrice != 0 || facts[1].SalesPrice != 0 {
		t.Fatalf("absent price columns should read 0: %+v", facts)
	}
}

func TestExpandRow_WideStartDateAndGaps(t *testing.T) {
	t.Parallel()

	headers := []string{
		"ID", "Product Name", "Start Date", "Opening Inventory",
		"Procurement Qty Day 1", "Sales Qty Day 1", "Sales Price Day 1",
		"Procurement Qty Day 4", "Sales Qty Day 4",
	}
	c := mustClassify(t, headers)

	facts, err := ExpandRow(rawRow(headers, " P-1 ", "Widget", "2024-03-10", "50", "10", "5", "2.5", "1", "7"), c)
	if err != nil {
		t.Fatalf("ExpandRow failed: %v", err)
	}
	if len(facts) != 2 {
		t.Fatalf("got %d facts, want 2", len(facts))
	}
	if facts[0].ExternalID == nil || *facts[0].ExternalID != "P-1" {
		t.Fatalf("external id=%v", facts[0].ExternalID)
	}
	if facts[0].DateString() != "2024-03-10" || facts[1].DateString() != "2024-03-13" {
		t.Fatalf("dates=%s,%s", facts[0].DateString(), facts[1].DateString())
	}
	if facts[1].OpenInv != 55 {
		t.Fatalf("day 4 open_inv=%v, want 55", facts[1].OpenInv)
	}
	if facts[0].SalesPrice != 2.5 || facts[1].SalesPrice != 0 {
		t.Fatalf("sales price=%v,%v", facts[0].SalesPrice, facts[1].SalesPrice)
	}
}

func TestExpandRow_WideEmptyStartDateUsesAnchor(t *testing.T) {
	t.Parallel()

	headers := []string{"Product Name", "Start Date", "Opening Inventory Day 1", "Sales Qty Day 3"}
	c := mustClassify(t, headers)

	facts, err := ExpandRow(rawRow(headers, "Widget", "", "9", "1"), c)
	if err != nil {
		t.Fatalf("ExpandRow failed: %v", err)
	}
	want := time.Date(2000, 1, 3, 0, 0, 0, 0, time.UTC)
	if len(facts) != 1 || !facts[0].Date.Equal(want) {
		t.Fatalf("facts=%+v, want single record on %v", facts, want)
	}
}

func TestExpandRow_WideInvalidStartDate(t *testing.T) {
	t.Parallel()

	headers := []string{"Product Name", "Start Date", "Opening Inventory", "Sales Qty Day 1"}
	c := mustClassify(t, headers)

	_, err := ExpandRow(rawRow(headers, "Widget", "someday", "1", "1"), c)
	var de *InvalidDateError
	if !errors.As(err, &de) {
		t.Fatalf("err=%v, want InvalidDateError", err)
	}
	if de.Raw != "someday" || de.RowNo != 2 {
		t.Fatalf("unexpected error detail: %+v", de)
	}
}

func TestExpandRow_Narrow(t *testing.T) {
	t.Parallel()

	c := mustClassify(t, narrowHeaders)
	facts, err := ExpandRow(rawRow(narrowHeaders, "Widget", "45292", "10", "5", "2", "3", "3"), c)
	if err != nil {
		t.Fatalf("ExpandRow failed: %v", err)
	}
	if len(facts) != 1 {
		t.Fatalf("got %d facts, want 1", len(facts))
	}
	f := facts[0]
	if f.DateString() != "2024-01-01" || f.OpenInv != 10 || f.ProcQty != 5 || f.ProcPrice != 2 || f.SalesQty != 3 || f.SalesPrice != 3 {
		t.Fatalf("unexpected fact: %+v", f)
	}
}

func TestExpandRow_NarrowNonNumericDefaultsToZero(t *testing.T) {
	t.Parallel()

	c := mustClassify(t, narrowHeaders)
	facts, err := ExpandRow(rawRow(narrowHeaders, "Widget", "2024-01-02", "", "n/a", "1,5", "3", ""), c)
	if err != nil {
		t.Fatalf("ExpandRow failed: %v", err)
	}
	f := facts[0]
	if f.OpenInv != 0 || f.ProcQty != 0 || f.ProcPrice != 0 || f.SalesQty != 3 || f.SalesPrice != 0 {
		t.Fatalf("unexpected fact: %+v", f)
	}
}

func TestExpandRow_EmptyNameSkipped(t *testing.T) {
	t.Parallel()

	c := mustClassify(t, narrowHeaders)
	for _, name := range []string{"", "   "} {
		facts, err := ExpandRow(rawRow(narrowHeaders, name, "not-a-date", "1", "1", "1", "1", "1"), c)
		if err != nil {
			t.Fatalf("empty-name row should not be an error: %v", err)
		}
		if len(facts) != 0 {
			t.Fatalf("empty-name row produced %d facts", len(facts))
		}
	}
}

func TestExpandRow_NarrowInvalidDate(t *testing.T) {
	t.Parallel()

	c := mustClassify(t, narrowHeaders)
	_, err := ExpandRow(rawRow(narrowHeaders, "Widget", "yesterday", "1", "1", "1", "1", "1"), c)
	if !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("err=%v, want ErrInvalidDate", err)
	}
}
