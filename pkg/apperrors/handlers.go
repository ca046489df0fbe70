package apperrors

import (
	"github.com/gin-gonic/gin"
)

// ErrorResponse is the uniform error envelope: {"error": {...}}.
type ErrorResponse struct {
	Error *AppError `json:"error"`
}

// HandleError writes err to the gin response. Non-AppError values are
// wrapped as internal errors with a generic message so storage or library
// detail never reaches the client.
func HandleError(c *gin.Context, err error) {
	appErr, ok := AsAppError(err)
	if !ok {
		appErr = InternalError(err)
	}
	c.JSON(appErr.HTTPCode, ErrorResponse{Error: appErr})
}

// AsAppError extracts an *AppError from an error chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
