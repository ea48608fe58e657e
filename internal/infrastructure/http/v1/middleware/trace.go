package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appctx "registracion/internal/core/context"
)

const HeaderRequestID = "X-Request-ID"

// Trace middleware takes the caller's request ID or generates one, and puts
// it on the request context and the response.
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := appctx.WithTrace(c.Request.Context(), &appctx.TraceContext{RequestID: requestID})
		c.Request = c.Request.WithContext(ctx)

		c.Set("request_id", requestID)
		c.Header(HeaderRequestID, requestID)

		c.Next()
	}
}
