package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/speaker-match-api/pkg/middleware/requestid"
)

const requestStartKey = "request_start"

// ResponseMeta stamps the request start time used by Meta.
func ResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(requestStartKey, time.Now())
		c.Next()
	}
}

// Meta returns envelope metadata for the current response with any extra entries merged in.
func Meta(c *gin.Context, extra map[string]interface{}) map[string]interface{} {
	meta := make(map[string]interface{}, len(extra)+2)
	for k, v := range extra {
		meta[k] = v
	}
	if value, ok := c.Get(requestStartKey); ok {
		if start, ok := value.(time.Time); ok {
			meta["processing_time_ms"] = time.Since(start).Milliseconds()
		}
	}
	if id := requestid.Value(c); id != "" {
		meta["request_id"] = id
	}
	return meta
}
