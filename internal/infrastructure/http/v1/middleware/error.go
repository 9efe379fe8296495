package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"stockbook/internal/core/apperror"
	"stockbook/pkg/logger"
)

// ErrorHandler middleware transforms errors into consistent JSON responses.
// Hides internal errors from clients while logging full details.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		ctx := c.Request.Context()

		appErr, ok := apperror.AsAppError(err)
		if !ok {
			appErr = apperror.NewInternal(err)
		}
		if appErr.Err != nil {
			logger.Error(ctx, "request error", "code", appErr.Code, "cause", appErr.Err)
		}

		body := gin.H{
			"code":    appErr.Code,
			"message": appErr.Message,
			"details": appErr.Details,
		}
		if appErr.Code == apperror.CodeInternal {
			body["details"] = map[string]any{"request_id": c.GetString("request_id")}
		}
		if appErr.HTTPStatus >= http.StatusInternalServerError {
			releaseIdempotency(c)
		} else if raw, mErr := json.Marshal(body); mErr == nil {
			CompleteIdempotency(c, appErr.HTTPStatus, "application/json", raw)
		}

		c.JSON(appErr.HTTPStatus, body)
	}
}
