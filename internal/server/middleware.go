package server

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/scanverify/internal/observability/logger"
	"go.uber.org/zap"
)

const corsAllowedMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"

// CORS answers cross-origin requests for the configured origins. "*" allows
// any origin; the request origin is echoed so credentials keep working.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	allowAll := false
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			allowAll = true
			continue
		}
		if origin != "" {
			allowed[strings.TrimRight(origin, "/")] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}

		_, ok := allowed[strings.TrimRight(origin, "/")]
		if !allowAll && !ok {
			if c.Request.Method == http.MethodOptions {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Add("Vary", "Origin")

		if c.Request.Method == http.MethodOptions && c.GetHeader("Access-Control-Request-Method") != "" {
			h.Set("Access-Control-Allow-Methods", corsAllowedMethods)
			if reqHeaders := c.GetHeader("Access-Control-Request-Headers"); reqHeaders != "" {
				h.Set("Access-Control-Allow-Headers", reqHeaders)
			}
			h.Set("Access-Control-Max-Age", "600")
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// ScanRateLimit throttles scan submissions per client address. Limiter
// failures let the request through.
func (s *Server) ScanRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.scanLimiter == nil || !s.scanLimiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		res, err := s.scanLimiter.Allow(ctx, c.ClientIP())
		if err != nil {
			logger.FromContext(ctx).Warn("scan rate limit check failed", zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(max(res.Remaining, 0)))
		if res.Allowed {
			c.Next()
			return
		}

		endpoint := c.FullPath()
		logger.FromContext(ctx).Warn("scan rate limit exceeded", zap.String("endpoint", endpoint))
		s.obsMetrics.RecordRateLimited(ctx, endpoint)

		retryAfter := int(math.Ceil(res.RetryAfter.Seconds()))
		if retryAfter < 1 {
			retryAfter = 1
		}
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		AbortWithError(c, ErrRateLimited)
	}
}
