package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/practicedesk/billing/internal/logger"
	"github.com/practicedesk/billing/internal/types"
)

// RequestIDMiddleware puts the caller's X-Request-ID, or a fresh one, on the
// request context and echoes it back
func RequestIDMiddleware(c *gin.Context) {
	requestID := c.GetHeader(types.HeaderRequestID)
	if requestID == "" {
		requestID = types.GenerateUUID()
	}

	ctx := types.SetRequestID(c.Request.Context(), requestID)
	c.Request = c.Request.WithContext(ctx)
	c.Header(types.HeaderRequestID, requestID)

	c.Next()
}

// RequestLogger logs one line per request
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		log.Debugw("request handled",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"request_id", types.GetRequestID(c.Request.Context()),
		)
	}
}
