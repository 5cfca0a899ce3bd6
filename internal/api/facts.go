package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"retaildash/internal/chart"
	"retaildash/internal/store"
)

// requestedProductIDs 解析 productId 查询参数（可重复），忽略非正整数
func requestedProductIDs(c *gin.Context) []int64 {
	var ids []int64
	seen := map[int64]bool{}
	for _, raw := range c.QueryArray("productId") {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// loadFacts 读取请求商品的日度数据；出错时已写响应
func (h *Handler) loadFacts(c *gin.Context) (map[int64][]store.DailyFactRow, bool) {
	ids := requestedProductIDs(c)
	if len(ids) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "missing productId"})
		return nil, false
	}
	facts, err := h.store.ListDailyFacts(c.Request.Context(), TenantOf(c), ids)
	if err != nil {
		h.logger.Error("list daily facts failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "查询日度数据失败"})
		return nil, false
	}
	return facts, true
}

// ListDailyFacts 按商品返回日度数据（日期升序）
// GET /api/daily_facts?productId=1&productId=2
func (h *Handler) ListDailyFacts(c *gin.Context) {
	facts, ok := h.loadFacts(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, facts)
}

// Chart 按商品返回图表序列
// GET /api/chart?productId=1
func (h *Handler) Chart(c *gin.Context) {
	facts, ok := h.loadFacts(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, chart.ToSeries(facts))
}

// Summary 按商品返回区间汇总
// GET /api/summary?productId=1
func (h *Handler) Summary(c *gin.Context) {
	facts, ok := h.loadFacts(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, chart.Summarize(facts))
}
