package main

import (
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "factsctl",
		Short:         "离线解析与导入进销存表格",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "配置文件路径 (默认与可执行文件同目录的 config.toml)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "日志级别 (覆盖配置文件)")

	cmd.AddCommand(
		newParseCmd(),
		newImportCmd(opts),
		newHeadersCmd(),
		newExportCmd(opts),
	)
	return cmd
}
