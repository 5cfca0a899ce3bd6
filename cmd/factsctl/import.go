package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"retaildash/internal/config"
	"retaildash/internal/importer"
	"retaildash/internal/logging"
	"retaildash/internal/store"
)

func newImportCmd(root *rootOptions) *cobra.Command {
	var (
		user    int64
		dataDir string
		dryRun  bool
	)

	cmd := &cobra.Command{
		Use:   "import <file.xlsx>",
		Short: "将表格导入配置的 sqlite 数据库",
		Args:  cobra.ExactArgs(1),
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
			level := cfg.Log.Level
			if root.logLevel != "" {
				level = root.logLevel
			}
			logger, err := logging.New(level, cfg.Server.DevMode)
			if err != nil {
				return err
			}
			defer logger.Sync()

			var target importer.Store
			if dryRun {
				target = store.NewMemoryStore()
			} else {
				dir, err := config.EnsureDataDir(cfg)
				if err != nil {
					return err
				}
				st, err := store.New(config.DatabasePath(dir))
				if err != nil {
					return err
				}
				defer st.Close()
				target = st
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			coordinator := importer.NewCoordinator(target, logger, cfg.Import.UpsertConcurrency)
			report, err := coordinator.Run(cmd.Context(), importer.ImportOptions{
				Tenant:   user,
				Filename: filepath.Base(args[0]),
				Data:     data,
			})
			if err != nil {
				logger.Error("import failed", zap.String("file", args[0]), zap.Error(err))
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "batch:    %s\n", report.BatchID)
			fmt.Fprintf(out, "status:   %s\n", report.Status)
			if report.Status == importer.StatusImported {
				fmt.Fprintf(out, "layout:   %s\n", report.Layout)
				fmt.Fprintf(out, "rows:     %d (skipped %d)\n", report.TotalRows, report.SkippedRows)
				fmt.Fprintf(out, "products: %d\n", report.Products)
			}
			fmt.Fprintf(out, "records:  %d\n", report.Records)
			if dryRun {
				fmt.Fprintln(out, "(dry run, nothing written)")
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&user, "user", 0, "租户用户 ID (必填)")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "数据目录 (覆盖配置文件)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "只在内存中执行导入，不写数据库")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
