package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"retaildash/internal/importer"
)

// multipartOverhead 表单边界等额外字节的余量
const multipartOverhead = 1 << 20

// UploadResponse 上传结果
type UploadResponse struct {
	OK       bool                   `json:"ok"`
	Imported int                    `json:"imported"`
	Report   *importer.ImportReport `json:"report,omitempty"`
}

// readUpload 读取表单中的 file 字段；超过上限时返回 413
func (h *Handler) readUpload(c *gin.Context) (string, []byte, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload+multipartOverhead)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, ErrorResponse{Message: "File too large", Code: "too_large"})
		default:
			c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Message: "No file selected", Code: "no_file"})
		}
		return "", nil, false
	}
	if fh.Size > h.maxUpload {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, ErrorResponse{Message: "File too large", Code: "too_large"})
		return "", nil, false
	}

	data, err := readFileHeader(fh)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Message: "读取上传文件失败", Code: "read_failed"})
		return "", nil, false
	}
	return filepath.Base(fh.Filename), data, true
}

func readFileHeader(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// Upload 导入电子表格
// POST /api/upload
func (h *Handler) Upload(c *gin.Context) {
	filename, data, ok := h.readUpload(c)
	if !ok {
		return
	}

	report, err := h.importer.Run(c.Request.Context(), importer.ImportOptions{
		Tenant:   TenantOf(c),
		Filename: filename,
		Data:     data,
	})
	if err != nil {
		abortWithImportError(c, err)
		return
	}

	c.JSON(http.StatusOK, UploadResponse{OK: true, Imported: report.Records, Report: report})
}

// UploadStream 导入电子表格 (SSE 流式响应)
// POST /api/upload/stream
func (h *Handler) UploadStream(c *gin.Context) {
	filename, data, ok := h.readUpload(c)
	if !ok {
		return
	}

	// 流式发送进度事件
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "不支持流式响应"})
		return
	}

	// 设置 SSE 响应头
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	progressChan := h.importer.Import(c.Request.Context(), importer.ImportOptions{
		Tenant:   TenantOf(c),
		Filename: filename,
		Data:     data,
	})

	for event := range progressChan {
		var payload interface{} = event
		if event.Type == "error" && event.Err != nil {
			status, body := importErrorResponse(event.Err)
			payload = gin.H{
				"type":      event.Type,
				"message":   body.Message,
				"data":      gin.H{"status": status, "code": body.Code, "missing": body.Missing},
				"timestamp": event.Timestamp,
			}
		}

		// 序列化事件为 JSON
		eventData, err := json.Marshal(payload)
		if err != nil {
			h.logger.Warn("upload stream: marshal event failed", zap.String("type", event.Type), zap.Error(err))
			continue
		}

		// SSE 格式: data: {json}\n\n
		fmt.Fprintf(c.Writer, "data: %s\n\n", eventData)
		flusher.Flush()
	}
}
