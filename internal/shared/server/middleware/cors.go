package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-tailor/internal/shared/server/respond"
)

const (
	corsAllowMethods  = "GET, POST, PUT, DELETE, OPTIONS"
	corsDefaultHeader = "Content-Type, X-Request-Id"
	// Content-Disposition carries the download name of generated resumes and exports.
	corsExposeHeaders = "X-Request-Id, Content-Disposition, Retry-After"
	corsMaxAge        = "600"
)

type corsPolicy struct {
	listed   map[string]bool
	allowAny bool
}

func newCORSPolicy(origins []string) corsPolicy {
	p := corsPolicy{listed: make(map[string]bool)}
	for _, o := range origins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		switch o {
		case "":
		case "*":
			p.allowAny = true
		default:
			p.listed[o] = true
		}
	}
	return p
}

func (p corsPolicy) allows(origin string) bool {
	return p.allowAny || p.listed[origin]
}

// CORS lets the configured front-end origins call the API. Listed origins may
// send credentials; "*" admits any origin without them. Preflights from other
// origins are refused with 403.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	policy := newCORSPolicy(allowedOrigins)

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		preflight := c.Request.Method == http.MethodOptions && c.GetHeader("Access-Control-Request-Method") != ""

		if origin == "" || !policy.allows(origin) {
			if preflight && origin != "" {
				respond.Error(c, http.StatusForbidden, "cors_forbidden", "Origin not allowed", nil)
				return
			}
			if c.Request.Method == http.MethodOptions {
				c.AbortWithStatus(http.StatusNoContent)
				return
			}
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Add("Vary", "Origin")
		if policy.listed[origin] {
			h.Set("Access-Control-Allow-Credentials", "true")
		}

		if c.Request.Method != http.MethodOptions {
			h.Set("Access-Control-Expose-Headers", corsExposeHeaders)
			c.Next()
			return
		}

		allowHeaders := c.GetHeader("Access-Control-Request-Headers")
		if allowHeaders == "" {
			allowHeaders = corsDefaultHeader
		}
		h.Set("Access-Control-Allow-Methods", corsAllowMethods)
		h.Set("Access-Control-Allow-Headers", allowHeaders)
		h.Set("Access-Control-Max-Age", corsMaxAge)
		c.AbortWithStatus(http.StatusNoContent)
	}
}
