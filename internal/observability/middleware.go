package observability

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// UnmatchedRoute labels requests that hit no registered admin route.
const UnmatchedRoute = "unmatched"

// RouteLabel is the registered route pattern for c, or UnmatchedRoute.
func RouteLabel(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return UnmatchedRoute
}

// AdminRequestLogger logs one line per admin request, tagged with the bundle
// id of the simulated driver serving it.
func AdminRequestLogger(logger zerolog.Logger, bundleID string) gin.HandlerFunc {
	logger = logger.With().Str("bundle_id", bundleID).Logger()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		event := logger.Info()
		if status >= 500 {
			event = logger.Error()
		} else if status >= 400 {
			event = logger.Warn()
		}
		if c.Request.URL.Path == "/health" && status < 400 {
			event = logger.Debug()
		}

		event.
			Str("method", c.Request.Method).
			Str("route", RouteLabel(c)).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Int("bytes", c.Writer.Size()).
			Msg("driversim.admin request")
	}
}

func AdminMetricsMiddleware(bundleID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		RecordHTTPRequest(bundleID, c.Request.Method, RouteLabel(c), c.Writer.Status(), time.Since(start))
	}
}
