package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"retaildash/internal/api"
	"retaildash/internal/config"
	"retaildash/internal/importer"
	"retaildash/internal/store"
)

// Server HTTP服务器
type Server struct {
	router *gin.Engine
	store  *store.Store
	logger *zap.Logger
	api    *api.Handler
	http   *http.Server
}

// NewServer 创建服务器；store 的生命周期由调用方管理
func NewServer(cfg *config.AppConfig, st *store.Store, logger *zap.Logger) *Server {
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	coordinator := importer.NewCoordinator(st, logger.Named("importer"), cfg.Import.UpsertConcurrency)
	handler := api.NewHandler(st, coordinator, logger.Named("api"), cfg.Upload.MaxBytes)

	router := gin.New()
	router.Use(requestLogger(logger.Named("http")), recovery(logger))
	// multipart 超过该值的部分落盘，上传上限由 handler 控制
	router.MaxMultipartMemory = cfg.Upload.MaxBytes + (1 << 20)

	s := &Server{
		router: router,
		store:  st,
		logger: logger,
		api:    handler,
	}
	s.setupRoutes()
	return s
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, "+api.HeaderUserID)
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	apiGroup := s.router.Group("/api")
	{
		s.api.RegisterRoutes(apiGroup)
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "not found"})
	})
}

// Handler 返回 http.Handler（用于测试）
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run 启动服务器，ctx 取消后优雅退出
func (s *Server) Run(ctx context.Context, addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("server: shutting down")
		return s.http.Shutdown(shutdownCtx)
	}
}
