package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"shareplace_backend/internal/storage"
	"shareplace_backend/pkg/apperrors"
)

// FileHandler serves stored assets for backends without a public URL of
// their own (local disk and memory).
type FileHandler struct {
	*BaseHandler
	storage storage.Storage
}

func NewFileHandler(base *BaseHandler, storage storage.Storage) *FileHandler {
	return &FileHandler{
		BaseHandler: base,
		storage:     storage,
	}
}

func (h *FileHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/*path", h.ServeFile)
	r.HEAD("/*path", h.ServeFile)
}

func (h *FileHandler) ServeFile(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("path"), "/")
	if key == "" {
		apperrors.HandleError(c, apperrors.NewNotFoundError("files", "File not found"))
		return
	}

	reader, err := h.storage.Get(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			apperrors.HandleError(c, apperrors.NewNotFoundError("files", "File not found"))
			return
		}
		h.HandleServiceError(c, err)
		return
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	c.Data(http.StatusOK, mimetype.Detect(data).String(), data)
}
