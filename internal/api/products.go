package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DeleteProductsRequest 删除请求；ids 为空时删除全部
type DeleteProductsRequest struct {
	IDs []int64 `json:"ids"`
}

// ListProducts 列出当前租户的商品
// GET /api/products
func (h *Handler) ListProducts(c *gin.Context) {
	products, err := h.store.ListProducts(c.Request.Context(), TenantOf(c))
	if err != nil {
		h.logger.Error("list products failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "查询商品失败"})
		return
	}
	c.JSON(http.StatusOK, products)
}

// DeleteProducts 删除当前租户的商品及其日度数据
// DELETE /api/products
func (h *Handler) DeleteProducts(c *gin.Context) {
	var req DeleteProductsRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "无效的请求体"})
		return
	}

	ids := make([]int64, 0, len(req.IDs))
	for _, id := range req.IDs {
		if id > 0 {
			ids = append(ids, id)
		}
	}
	// 给了 ids 但全部非法时不做任何删除
	if len(req.IDs) > 0 && len(ids) == 0 {
		c.JSON(http.StatusOK, gin.H{"ok": true, "deleted": 0})
		return
	}

	deleted, err := h.store.DeleteProducts(c.Request.Context(), TenantOf(c), ids)
	if err != nil {
		h.logger.Error("delete products failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Clean Error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "deleted": deleted})
}
