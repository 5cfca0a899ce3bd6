package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"retaildash/internal/config"
	"retaildash/internal/exporter"
	"retaildash/internal/store"
)

func newExportCmd(root *rootOptions) *cobra.Command {
	var (
		user       int64
		dataDir    string
		output     string
		productIDs []int64
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "把租户的日度数据导出为 Excel",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if user <= 0 {
				return fmt.Errorf("invalid --user %d: must be a positive integer", user)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := root.configPath
			if path == "" {
				path = config.DefaultPath()
			}
			cfg, _, err := config.LoadFile(path)
			if err != nil {
				return err
			}
			if dataDir != "" {
				cfg.Data.DataDir = dataDir
			}
			dir, err := config.EnsureDataDir(cfg)
			if err != nil {
				return err
			}
			st, err := store.New(config.DatabasePath(dir))
			if err != nil {
				return err
			}
			defer st.Close()

			f, err := exporter.NewExporter(st).Export(cmd.Context(), exporter.ExportOptions{
				Tenant:     user,
				ProductIDs: productIDs,
			})
			if err != nil {
				return err
			}
			defer f.Close()

			if err := f.SaveAs(output); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported to %s\n", output)
			return nil
		},
	}
	cmd.Flags().Int64Var(&user, "user", 0, "租户用户 ID (必填)")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "数据目录 (覆盖配置文件)")
	cmd.Flags().StringVarP(&output, "output", "o", "export.xlsx", "输出文件")
	cmd.Flags().Int64SliceVar(&productIDs, "product", nil, "只导出这些商品 ID (可重复)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
