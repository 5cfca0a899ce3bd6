package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"retaildash/internal/exporter"
	"retaildash/internal/importer"
	"retaildash/internal/store"
)

// Handler API 处理器
type Handler struct {
	store     *store.Store
	importer  *importer.Coordinator
	exporter  *exporter.Exporter
	logger    *zap.Logger
	maxUpload int64
}

// NewHandler 创建 API 处理器；maxUpload 为上传文件字节上限
func NewHandler(st *store.Store, coordinator *importer.Coordinator, logger *zap.Logger, maxUpload int64) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		store:     st,
		importer:  coordinator,
		exporter:  exporter.NewExporter(st),
		logger:    logger,
		maxUpload: maxUpload,
	}
}

// RegisterRoutes 注册 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 表头诊断不涉及租户数据
	router.GET("/headers/explain", h.ExplainHeaders)

	tenant := router.Group("", RequireTenant())
	{
		// 系统状态
		tenant.GET("/status", h.GetStatus)

		// 数据导入
		tenant.POST("/upload", h.Upload)
		tenant.POST("/upload/stream", h.UploadStream)

		// 商品
		tenant.GET("/products", h.ListProducts)
		tenant.DELETE("/products", h.DeleteProducts)

		// 日度数据与图表
		tenant.GET("/daily_facts", h.ListDailyFacts)
		tenant.GET("/chart", h.Chart)
		tenant.GET("/summary", h.Summary)

		// 导出
		tenant.GET("/export", h.Export)
	}
}
