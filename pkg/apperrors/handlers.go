package apperrors

import (
	"log/slog"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the JSON envelope of every failed request.
type ErrorResponse struct {
	Error *AppError `json:"error"`
}

// AsAppError finds an *AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HandleError writes err as an ErrorResponse. Non-AppErrors become UNKNOWN_ERROR;
// causes are logged for 5xx and never sent to the client.
func HandleError(c *gin.Context, err error) {
	appErr, ok := AsAppError(err)
	if !ok {
		appErr = InternalError(err)
	}

	if appErr.HTTPCode >= 500 {
		slog.ErrorContext(c.Request.Context(), "server error",
			"code", appErr.Code,
			"domain", appErr.Domain,
			"cause", appErr.Unwrap(),
		)
	}

	c.AbortWithStatusJSON(appErr.HTTPCode, ErrorResponse{Error: appErr})
}

// HandleValidationError reports a gin binding error as a validation failure.
func HandleValidationError(c *gin.Context, err error) {
	HandleError(c, ValidationError(gin.H{"body": err.Error()}))
}
