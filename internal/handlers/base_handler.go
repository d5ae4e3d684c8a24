package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"shareplace_backend/internal/logger"
	"shareplace_backend/internal/middleware"
	"shareplace_backend/pkg/apperrors"
)

type BaseHandler struct {
	maxUploadSize int64
}

func NewBaseHandler(maxUploadSize int64) *BaseHandler {
	return &BaseHandler{maxUploadSize: maxUploadSize}
}

// Bind decodes the request into obj. Field validation belongs to the
// services; only malformed input is rejected here.
func (h *BaseHandler) Bind(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBind(obj); err != nil {
		logger.CtxWithError(c.Request.Context(), "Failed to bind request", err, "path", c.Request.URL.Path)
		apperrors.HandleValidationError(c, err)
		return false
	}
	return true
}

func (h *BaseHandler) BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		logger.CtxWithError(c.Request.Context(), "Failed to bind JSON body", err, "path", c.Request.URL.Path)
		apperrors.HandleValidationError(c, err)
		return false
	}
	return true
}

// ReadImage returns the bytes of multipart field, or nil when the field is
// absent. At most maxUploadSize+1 bytes are read so the size check downstream
// still sees an oversized file.
func (h *BaseHandler) ReadImage(c *gin.Context, field string) ([]byte, bool) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, true
		}
		apperrors.HandleValidationError(c, err)
		return nil, false
	}

	file, err := header.Open()
	if err != nil {
		apperrors.HandleError(c, apperrors.InternalError(err))
		return nil, false
	}
	defer file.Close()

	var r io.Reader = file
	if h.maxUploadSize > 0 {
		r = io.LimitReader(file, h.maxUploadSize+1)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		apperrors.HandleError(c, apperrors.InternalError(err))
		return nil, false
	}
	return data, true
}

func (h *BaseHandler) HandleServiceError(c *gin.Context, err error) {
	ctx := c.Request.Context()

	var appErr *apperrors.AppError
	if apperrors.As(err, &appErr) {
		logger.CtxWarn(ctx, "Service error",
			"code", appErr.Code,
			"error", appErr.Message,
			"details", appErr.Details,
			"path", c.Request.URL.Path,
		)
		apperrors.HandleError(c, appErr)
		return
	}

	logger.CtxWithError(ctx, "Internal server error", err, "path", c.Request.URL.Path)
	apperrors.HandleError(c, apperrors.InternalError(err))
}

func (h *BaseHandler) GetAndAuthorizeUserID(c *gin.Context) (string, bool) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		logger.CtxWarn(c.Request.Context(), "Unauthorized access: userID not found in context",
			"path", c.Request.URL.Path,
			"ip", c.ClientIP(),
		)
		apperrors.HandleError(c, apperrors.NewUnauthenticatedError("User not authenticated"))
		return "", false
	}
	return userID, true
}
