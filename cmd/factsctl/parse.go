package main

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"retaildash/internal/parser"
)

const (
	formatJSON = "json"
	formatCSV  = "csv"
)

func newParseCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "parse <file.xlsx>",
		Short: "解析表格并输出标准日度事实",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if format != formatJSON && format != formatCSV {
				return fmt.Errorf("invalid --format %q (json|csv)", format)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			facts, report, err := parser.ParseWithReport(data)
			if errors.Is(err, parser.ErrEmptySheet) {
				fmt.Fprintln(cmd.ErrOrStderr(), "empty sheet")
				return writeFacts(cmd.OutOrStdout(), format, nil)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "layout=%s rows=%d skipped=%d records=%d products=%d\n",
				report.Layout, report.TotalRows, report.SkippedRows, report.Records, countProducts(facts))
			if len(report.Duplicates) > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "ignored duplicate headers: %v\n", report.Duplicates)
			}
			return writeFacts(cmd.OutOrStdout(), format, facts)
		},
	}
	cmd.Flags().StringVar(&format, "format", formatJSON, "输出格式: json|csv")
	return cmd
}

var csvHeader = []string{
	"product_name", "external_id", "date",
	"open_inv", "proc_qty", "proc_price", "sales_qty", "sales_price",
}

func writeFacts(w io.Writer, format string, facts []parser.DailyFact) error {
	if format == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if facts == nil {
			facts = []parser.DailyFact{}
		}
		return enc.Encode(facts)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, f := range facts {
		ext := ""
		if f.ExternalID != nil {
			ext = *f.ExternalID
		}
		record := []string{
			f.ProductName, ext, f.DateString(),
			formatNumber(f.OpenInv), formatNumber(f.ProcQty), formatNumber(f.ProcPrice),
			formatNumber(f.SalesQty), formatNumber(f.SalesPrice),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func countProducts(facts []parser.DailyFact) int {
	seen := make(map[string]bool)
	for _, f := range facts {
		seen[f.NaturalKey()] = true
	}
	return len(seen)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
