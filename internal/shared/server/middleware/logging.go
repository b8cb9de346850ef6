package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"resume-tailor/internal/shared/server/respond"
	"resume-tailor/internal/shared/telemetry"
)

// quietRoutes are polled by probes and scrapers and only logged on failure.
var quietRoutes = map[string]bool{
	"/api/health":  true,
	"/api/metrics": true,
}

// Logging writes one request.complete line per request, carrying any
// application ID and status transition the handler tagged.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if quietRoutes[route] && status < 400 {
			return
		}

		fields := respond.LogFields(c)
		fields["method"] = c.Request.Method
		fields["path"] = c.Request.URL.Path
		fields["route"] = route
		fields["status"] = status
		fields["bytes"] = c.Writer.Size()
		fields["duration_ms"] = float64(time.Since(start).Microseconds()) / 1000
		fields["client_ip"] = c.ClientIP()
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		if status >= 500 {
			telemetry.Warn("request.complete", fields)
			return
		}
		telemetry.Info("request.complete", fields)
	}
}
