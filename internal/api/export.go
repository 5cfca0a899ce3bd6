package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"retaildash/internal/exporter"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Export 导出当前租户的日度数据为 Excel
// GET /api/export[?productId=1&productId=2]，不带 productId 时导出全部商品
func (h *Handler) Export(c *gin.Context) {
	file, err := h.exporter.Export(c.Request.Context(), exporter.ExportOptions{
		Tenant:     TenantOf(c),
		ProductIDs: requestedProductIDs(c),
	})
	if err != nil {
		h.logger.Error("export failed", zap.Int64("tenant", TenantOf(c)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "导出失败"})
		return
	}
	defer file.Close()

	filename := fmt.Sprintf("retaildash-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Header("Content-Type", xlsxContentType)

	if err := file.Write(c.Writer); err != nil {
		h.logger.Warn("write export failed", zap.Error(err))
	}
}
