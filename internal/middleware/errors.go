package middleware

import (
	"log/slog"
	"net/http"

	"sitebooks/internal/apperror"
	"sitebooks/pkg/response"

	"github.com/gin-gonic/gin"
)

// ErrorHandler renders the last error a handler attached with c.Error as a
// response envelope. Internal error messages are generic unless
// exposeInternal is set, which development mode does.
func ErrorHandler(logger *slog.Logger, exposeInternal bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		appErr, ok := apperror.As(c.Errors.Last().Err)
		if !ok {
			appErr = apperror.Internal(c.Errors.Last().Err)
		}
		logError(logger, c, appErr)
		writeError(c, appErr, exposeInternal)
	}
}

// Fail attaches err to the request and stops the handler chain.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

func writeError(c *gin.Context, appErr *apperror.AppError, exposeInternal bool) {
	message := appErr.Message
	if appErr.Code == apperror.CodeInternal && exposeInternal && appErr.Err != nil {
		message = appErr.Err.Error()
	}
	body := response.Error(appErr.HTTPStatus, appErr.Code, message)
	body.Details = appErr.Details
	c.AbortWithStatusJSON(appErr.HTTPStatus, body)
}

func logError(logger *slog.Logger, c *gin.Context, appErr *apperror.AppError) {
	level := slog.LevelError
	if appErr.HTTPStatus < http.StatusInternalServerError {
		level = slog.LevelDebug
	}
	attrs := []any{
		"code", appErr.Code,
		"message", appErr.Message,
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
		"requestId", GetRequestID(c),
	}
	if appErr.Err != nil {
		attrs = append(attrs, "error", appErr.Err.Error())
	}
	logger.Log(c.Request.Context(), level, "request failed", attrs...)
}
