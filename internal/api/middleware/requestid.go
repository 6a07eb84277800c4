package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/kcf-jackson/vscode-markdown-editor/internal/shared/id"
)

// RequestIDHeader carries the request correlation ID.
const RequestIDHeader = "X-Request-ID"

// RequestID tags every request with a correlation ID, honoring one supplied
// by the client. Generated IDs are req_* ULIDs, so log lines for one request
// sort by arrival time. The ID is echoed in the response and available to
// handlers via the context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(RequestIDHeader)
		if rid == "" {
			rid = string(id.NewRequestID())
		}
		c.Set("request_id", rid)
		c.Header(RequestIDHeader, rid)
		c.Next()
	}
}
