package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"retaildash/internal/config"
	"retaildash/internal/logging"
	"retaildash/internal/server"
	"retaildash/internal/store"
	"retaildash/internal/util"
)

var (
	port    = flag.Int("port", 0, "服务端口 (config.toml 优先；仅当未显式配置 port 时生效)")
	devMode = flag.Bool("dev", false, "开发模式")
	dataDir = flag.String("dataDir", "", "数据目录 (覆盖配置文件)")
)

func main() {
	flag.Parse()

	fmt.Println("==========================================")
	fmt.Println("  RetailDash - 零售进销存看板")
	fmt.Println("==========================================")

	// 加载配置
	cfg, info, err := config.LoadConfigWithInfo()
	if err != nil {
		log.Printf("加载配置失败，使用默认配置: %v", err)
		cfg = config.DefaultConfig()
		info = config.LoadConfigInfo{}
	}

	// 命令行参数覆盖配置
	if *port > 0 && !info.PortSpecified {
		cfg.Server.Port = *port
	}
	if *devMode {
		cfg.Server.DevMode = true
	}
	if *dataDir != "" {
		cfg.Data.DataDir = *dataDir
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Server.DevMode)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer logger.Sync()

	// 确保数据目录存在
	dir, err := config.EnsureDataDir(cfg)
	if err != nil {
		logger.Fatal("创建数据目录失败", zap.Error(err))
	}
	fmt.Printf("数据目录: %s\n", dir)

	st, err := store.New(config.DatabasePath(dir))
	if err != nil {
		logger.Fatal("初始化数据库失败", zap.Error(err))
	}
	defer st.Close()

	if cfg.Server.AutoPort && !util.PortAvailable(cfg.Server.Port) {
		p, err := util.FindAvailablePort(cfg.Server.Port + 1)
		if err != nil {
			logger.Fatal("端口不可用", zap.Int("port", cfg.Server.Port), zap.Error(err))
		}
		fmt.Printf("端口 %d 已被占用，改用 %d\n", cfg.Server.Port, p)
		cfg.Server.Port = p
	}

	srv := server.NewServer(cfg, st, logger)
	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("服务启动中，监听端口 %d ...\n", cfg.Server.Port)
	fmt.Printf("API 地址: http://localhost:%d/api\n", cfg.Server.Port)
	fmt.Println("\n按 Ctrl+C 停止服务...")

	if err := srv.Run(ctx, addr); err != nil {
		logger.Fatal("服务启动失败", zap.Error(err))
	}
	fmt.Println("\n服务已关闭")
}
