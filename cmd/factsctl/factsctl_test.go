package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"retaildash/internal/config"
	"retaildash/internal/store"
)

func writeWorkbook(t *testing.T, rows ...[]interface{}) string {
	t.Helper()

	wb := excelize.NewFile()
	defer wb.Close()
	sheet := wb.GetSheetName(wb.GetActiveSheetIndex())
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("CoordinatesToCellName failed: %v", err)
		}
		row := rows[i]
		if err := wb.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("SetSheetRow failed: %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "facts.xlsx")
	if err := wb.SaveAs(path); err != nil {
		t.Fatalf("SaveAs failed: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// factJSON 解码 parse 命令的 JSON 输出
type factJSON struct {
	ProductName string  `json:"product_name"`
	ExternalID  *string `json:"external_id"`
	Date        string  `json:"date"`
	OpenInv     float64 `json:"open_inv"`
	SalesPrice  float64 `json:"sales_price"`
}

func sampleWorkbook(t *testing.T) string {
	return writeWorkbook(t,
		[]interface{}{"ID", "Product Name", "Date", "Opening Inventory", "Procurement Qty", "Procurement Price", "Sales Qty", "Sales Price"},
		[]interface{}{"A1", "Widget", "2024-01-01", 10, 5, 2, 3, 3.5},
		[]interface{}{nil, "Gizmo", "2024-01-02", 1, 0, 0, 1, 1},
	)
}

func TestParseCmd_JSON(t *testing.T) {
	t.Parallel()

	out, stderr, err := execute(t, "parse", sampleWorkbook(t))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	var facts []factJSON
	if err := json.Unmarshal([]byte(out), &facts); err != nil {
		t.Fatalf("invalid json output: %v\n%s", err, out)
	}
	if len(facts) != 2 {
		t.Fatalf("got %d facts, want 2", len(facts))
	}
	if facts[0].Date != "2024-01-01" || facts[0].ExternalID == nil || *facts[0].ExternalID != "A1" || facts[0].SalesPrice != 3.5 {
		t.Fatalf("unexpected first fact: %+v", facts[0])
	}
	if facts[1].ExternalID != nil {
		t.Fatalf("second fact should have no external id: %+v", facts[1])
	}
	if !strings.Contains(stderr, "layout=narrow") || !strings.Contains(stderr, "products=2") {
		t.Fatalf("summary missing layout: %q", stderr)
	}
}

func TestParseCmd_CSV(t *testing.T) {
	t.Parallel()

	out, _, err := execute(t, "parse", "--format", "csv", sampleWorkbook(t))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), out)
	}
	if lines[0] != strings.Join(csvHeader, ",") {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "Widget,A1,2024-01-01,10,5,2,3,3.5" {
		t.Fatalf("unexpected record: %q", lines[1])
	}
}

func TestParseCmd_InvalidFormat(t *testing.T) {
	t.Parallel()

	if _, _, err := execute(t, "parse", "--format", "xml", "whatever.xlsx"); err == nil {
		t.Fatalf("expected error for invalid format")
	}
}

func TestParseCmd_ParseErrorPropagates(t *testing.T) {
	t.Parallel()

	path := writeWorkbook(t,
		[]interface{}{"Product Name", "Date", "Opening Inventory", "Procurement Qty", "Procurement Price", "Sales Qty"},
		[]interface{}{"Widget", "2024-01-01", 1, 1, 1, 1},
	)
	_, _, err := execute(t, "parse", path)
	if err == nil || !strings.Contains(err.Error(), "Sales Price") {
		t.Fatalf("err=%v, want missing Sales Price", err)
	}
}

func TestHeadersCmd(t *testing.T) {
	t.Parallel()

	out, _, err := execute(t, "headers", "Product Name", "Opening Inventory Day 1", "Sales Qty Day 1", "Sales Qty Day 2", "Remarks")
	if err != nil {
		t.Fatalf("headers failed: %v", err)
	}
	if !strings.Contains(out, "layout: wide") {
		t.Fatalf("expected wide layout:\n%s", out)
	}
	if !strings.Contains(out, "days: [1 2]") {
		t.Fatalf("expected days list:\n%s", out)
	}
	if !strings.Contains(out, "Remarks") {
		t.Fatalf("unrecognized header should still be listed:\n%s", out)
	}
}

func TestImportCmd(t *testing.T) {
	t.Parallel()

	dataDir := t.TempDir()
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(cfgPath, []byte("[log]\nlevel = \"error\"\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	out, _, err := execute(t, "import", "--config", cfgPath, "--data-dir", dataDir, "--user", "7", sampleWorkbook(t))
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if !strings.Contains(out, "status:   imported") || !strings.Contains(out, "records:  2") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	st, err := store.New(config.DatabasePath(dataDir))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()
	products, err := st.ListProducts(context.Background(), 7)
	if err != nil {
		t.Fatalf("ListProducts failed: %v", err)
	}
	if len(products) != 2 || products[0].Name != "Widget" {
		t.Fatalf("unexpected products: %+v", products)
	}
}

func TestImportCmd_RequiresPositiveUser(t *testing.T) {
	t.Parallel()

	path := sampleWorkbook(t)
	if _, _, err := execute(t, "import", path); err == nil {
		t.Fatalf("expected error without --user")
	}
	if _, _, err := execute(t, "import", "--user", "0", path); err == nil {
		t.Fatalf("expected error for --user 0")
	}
}

func TestImportCmd_DryRunWritesNothing(t *testing.T) {
	t.Parallel()

	dataDir := t.TempDir()
	cfgPath := filepath.Join(t.TempDir(), "missing.toml")
	out, _, err := execute(t, "import", "--config", cfgPath, "--data-dir", dataDir, "--user", "1", "--dry-run", sampleWorkbook(t))
	if err != nil {
		t.Fatalf("dry run failed: %v", err)
	}
	if !strings.Contains(out, "records:  2") || !strings.Contains(out, "dry run") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if _, err := os.Stat(config.DatabasePath(dataDir)); !os.IsNotExist(err) {
		t.Fatalf("dry run should not create a database, stat err=%v", err)
	}
}

func TestExportCmd(t *testing.T) {
	t.Parallel()

	dataDir := t.TempDir()
	cfgPath := filepath.Join(t.TempDir(), "missing.toml")
	if _, _, err := execute(t, "import", "--config", cfgPath, "--data-dir", dataDir, "--user", "3", sampleWorkbook(t)); err != nil {
		t.Fatalf("import failed: %v", err)
	}

	target := filepath.Join(t.TempDir(), "out.xlsx")
	if _, _, err := execute(t, "export", "--config", cfgPath, "--data-dir", dataDir, "--user", "3", "-o", target); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	out, _, err := execute(t, "parse", "--format", "csv", target)
	if err != nil {
		t.Fatalf("parse exported file failed: %v", err)
	}
	if !strings.Contains(out, "Widget,A1,2024-01-01,10,5,2,3,3.5") || !strings.Contains(out, "Gizmo,,2024-01-02,1,0,0,1,1") {
		t.Fatalf("exported facts differ:\n%s", out)
	}
}

func TestParseCmd_EmptySheet(t *testing.T) {
	t.Parallel()

	path := writeWorkbook(t, []interface{}{"Product Name", "Date", "Opening Inventory", "Procurement Qty", "Procurement Price", "Sales Qty", "Sales Price"})
	out, _, err := execute(t, "parse", path)
	if err != nil {
		t.Fatalf("empty sheet should not fail: %v", err)
	}
	if strings.TrimSpace(out) != "[]" {
		t.Fatalf("want empty json array, got %q", out)
	}
}
