package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"retaildash/internal/store"
)

// StatusResponse 租户状态响应
type StatusResponse struct {
	Initialized    bool             `json:"initialized"`    // 是否已有数据
	TotalProducts  int              `json:"totalProducts"`  // 商品总数
	LastImportTime string           `json:"lastImportTime"` // 最后导入时间
	LastImport     *store.ImportLog `json:"lastImport,omitempty"`
}

// GetStatus 获取当前租户状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	ctx := c.Request.Context()
	tenant := TenantOf(c)

	total, err := h.store.CountProducts(ctx, tenant)
	if err != nil {
		h.logger.Warn("status: count products failed", zap.Error(err))
		total = 0
	}

	resp := StatusResponse{
		Initialized:   total > 0,
		TotalProducts: total,
	}

	last, err := h.store.LastImport(ctx, tenant)
	if err != nil {
		h.logger.Warn("status: last import failed", zap.Error(err))
	}
	if last != nil {
		resp.LastImport = last
		resp.LastImportTime = last.CreatedAt.UTC().Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, resp)
}
