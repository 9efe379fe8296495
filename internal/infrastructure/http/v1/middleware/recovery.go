// Package middleware provides HTTP middleware components.
package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"stockbook/internal/core/apperror"
	appctx "stockbook/internal/core/context"
	"stockbook/pkg/logger"
)

// Recovery turns a panic into a 500. The panic unwinds past ErrorHandler, so
// the response is written here. The stack is logged; the client only sees the
// request id.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			ctx := c.Request.Context()
			cause := fmt.Errorf("panic: %v", r)

			logger.Error(ctx, "panic recovered",
				"method", c.Request.Method,
				"path", c.FullPath(),
				"error", cause,
				"stack", string(debug.Stack()),
			)
			if span := trace.SpanFromContext(ctx); span.IsRecording() {
				span.RecordError(cause)
				span.SetStatus(codes.Error, "panic")
			}

			requestID := ""
			if t := appctx.GetTrace(ctx); t != nil {
				requestID = t.RequestID
			}
			appErr := apperror.NewInternal(cause)
			_ = c.Error(appErr)
			releaseIdempotency(c)

			if c.Writer.Written() {
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(appErr.HTTPStatus, gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
				"details": map[string]any{"request_id": requestID},
			})
		}()
		c.Next()
	}
}
