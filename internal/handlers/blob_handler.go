package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/lms-service/internal/utils"
)

// BlobReader reads objects kept by a local blob store.
type BlobReader interface {
	Open(path string) ([]byte, string, bool)
}

// BlobHandler serves uploads held in memory when no bucket is configured.
type BlobHandler struct {
	BaseHandler
	reader BlobReader
}

func NewBlobHandler(reader BlobReader, logger utils.Logger) *BlobHandler {
	return &BlobHandler{
		BaseHandler: NewBaseHandler(logger),
		reader:      reader,
	}
}

// ServeBlob returns the stored bytes for a blob path
// @Summary Get uploaded file
// @Tags blobs
// @Param path path string true "Blob path"
// @Success 200 {file} binary
// @Failure 404 {object} ErrorResponse
// @Router /blobs/{path} [get]
func (h *BlobHandler) ServeBlob(c *gin.Context) {
	path := strings.TrimPrefix(c.Param("path"), "/")
	data, contentType, ok := h.reader.Open(path)
	if !ok {
		h.respondError(c, http.StatusNotFound, "not_found", "File not found", nil)
		return
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Data(http.StatusOK, contentType, data)
}
