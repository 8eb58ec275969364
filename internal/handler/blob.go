package handler

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"sudooom.portal/internal/blob"
	"sudooom.portal/pkg/response"
)

// BlobHandler 附件对象下载
type BlobHandler struct {
	store *blob.DiskStore
}

// NewBlobHandler 创建附件下载处理器
func NewBlobHandler(store *blob.DiskStore) *BlobHandler {
	return &BlobHandler{store: store}
}

// Serve 按 Key 下载附件对象
// GET /blobs/*key
func (h *BlobHandler) Serve(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")

	rc, err := h.store.Open(key)
	if err != nil {
		if errors.Is(err, blob.ErrObjectNotFound) || errors.Is(err, blob.ErrInvalidKey) {
			c.Status(http.StatusNotFound)
			return
		}
		response.Error(c, response.CodeServerError)
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(filepath.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)

	if _, err := io.Copy(c.Writer, rc); err != nil {
		// 写到一半客户端断开，记不了响应码，只能中止
		c.Abort()
	}
}
