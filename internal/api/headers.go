package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"retaildash/internal/parser"
)

// ExplainHeaders 解释表头如何被识别
// GET /api/headers/explain?h=Sales%20Qty%20Day%201&h=Date
func (h *Handler) ExplainHeaders(c *gin.Context) {
	headers := c.QueryArray("h")
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "missing h"})
		return
	}

	out := make([]parser.HeaderExplanation, 0, len(headers))
	for _, header := range headers {
		out = append(out, parser.ExplainHeader(header))
	}

	resp := gin.H{"headers": out}
	if classification, err := parser.Classify(headers); err != nil {
		status, body := importErrorResponse(err)
		resp["error"] = gin.H{"status": status, "message": body.Message, "missing": body.Missing}
	} else {
		resp["layout"] = classification.Layout
		resp["days"] = classification.Days
		resp["duplicates"] = classification.Duplicates
	}
	c.JSON(http.StatusOK, resp)
}
