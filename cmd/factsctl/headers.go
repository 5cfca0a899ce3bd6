package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"retaildash/internal/parser"
)

func newHeadersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "headers <header>...",
		Short: "显示表头的规范化结果与识别出的列角色",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "HEADER\tNORMALIZED\tRULE\tROLE")
			for _, h := range args {
				e := parser.ExplainHeader(h)
				rule := e.Rule
				if rule == "" {
					rule = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Header, e.Normalized, rule, e.RoleName)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			c, err := parser.Classify(args)
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "\nlayout: - (%v)\n", err)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nlayout: %s\n", c.Layout)
			if len(c.Days) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "days: %v\n", c.Days)
			}
			if len(c.Duplicates) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "duplicates: %v\n", c.Duplicates)
			}
			return nil
		},
	}
}
