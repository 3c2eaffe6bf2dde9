package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-help-api/pkg/middleware/requestid"
)

const (
	responseMetaKey = "response_meta"
	cacheHitKey     = "cache_hit"
)

// WithResponseMeta prepares the per-request meta map that handlers attach to
// the envelope. The request id and processing time are filled in for them.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(responseMetaKey, map[string]interface{}{"started_at": time.Now()})
		c.Next()
	}
}

// SetMeta stores a value in the response meta.
func SetMeta(c *gin.Context, key string, value interface{}) {
	ensureMeta(c)[key] = value
}

// SetCacheHit records whether the payload was served from cache.
func SetCacheHit(c *gin.Context, hit bool) {
	SetMeta(c, cacheHitKey, hit)
}

// ExtractMeta returns the meta for the response, with the request id and the
// elapsed processing time added. Nil when WithResponseMeta did not run and
// nothing was set.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	value, exists := c.Get(responseMetaKey)
	if !exists {
		return nil
	}
	meta, ok := value.(map[string]interface{})
	if !ok {
		return nil
	}
	out := make(map[string]interface{}, len(meta)+2)
	for k, v := range meta {
		if k == "started_at" {
			if start, ok := v.(time.Time); ok {
				out["processing_time_ms"] = time.Since(start).Milliseconds()
			}
			continue
		}
		out[k] = v
	}
	if id := requestid.Value(c); id != "" {
		out["request_id"] = id
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func ensureMeta(c *gin.Context) map[string]interface{} {
	if value, exists := c.Get(responseMetaKey); exists {
		if meta, ok := value.(map[string]interface{}); ok {
			return meta
		}
	}
	meta := make(map[string]interface{})
	c.Set(responseMetaKey, meta)
	return meta
}
