package api

import (
	"errors"
	"net/http"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"retaildash/internal/parser"
)

// maxMessageBytes 错误消息的最大长度
const maxMessageBytes = 512

// ErrorResponse 错误响应
type ErrorResponse struct {
	Message string   `json:"message"`
	Code    string   `json:"code,omitempty"`
	Missing []string `json:"missing,omitempty"`
}

// truncateMessage 按字节截断，不切断多字节字符
func truncateMessage(msg string) string {
	if len(msg) <= maxMessageBytes {
		return msg
	}
	cut := maxMessageBytes
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut]
}

// importErrorResponse 把导入错误映射为 HTTP 状态码和响应体
func importErrorResponse(err error) (int, ErrorResponse) {
	var (
		mh *parser.MissingHeaderError
		de *parser.InvalidDateError
	)
	switch {
	case errors.As(err, &mh):
		return http.StatusUnprocessableEntity, ErrorResponse{
			Message: truncateMessage(mh.Error()),
			Code:    "missing_headers",
			Missing: mh.Missing,
		}
	case errors.As(err, &de):
		return http.StatusUnprocessableEntity, ErrorResponse{Message: truncateMessage(de.Error()), Code: "invalid_date"}
	case errors.Is(err, parser.ErrUnrecognizedLayout):
		return http.StatusUnprocessableEntity, ErrorResponse{Message: truncateMessage(err.Error()), Code: "unrecognized_layout"}
	case errors.Is(err, parser.ErrMalformedInput):
		return http.StatusBadRequest, ErrorResponse{Message: truncateMessage(err.Error()), Code: "malformed_input"}
	default:
		return http.StatusInternalServerError, ErrorResponse{Message: "import failed", Code: "internal"}
	}
}

func abortWithImportError(c *gin.Context, err error) {
	status, body := importErrorResponse(err)
	c.AbortWithStatusJSON(status, body)
}
