package respond

import (
	"github.com/gin-gonic/gin"
)

// Keys under which handlers annotate the gin context for request logs.
const (
	RequestIDKey     = "requestId"
	applicationIDKey = "applicationId"
	transitionKey    = "statusTransition"
)

// TagApplication records the application a request operates on.
func TagApplication(c *gin.Context, id string) {
	if id != "" {
		c.Set(applicationIDKey, id)
	}
}

// TagTransition records a status change caused by the request, e.g. "draft->processing".
func TagTransition(c *gin.Context, from, to string) {
	switch {
	case to == "":
		return
	case from == "":
		c.Set(transitionKey, "->"+to)
	default:
		c.Set(transitionKey, from+"->"+to)
	}
}

// RequestID returns the ID assigned by the request ID middleware.
func RequestID(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(RequestIDKey)
}

// LogFields returns the request ID plus any application annotations set by handlers.
func LogFields(c *gin.Context) map[string]any {
	fields := map[string]any{"request_id": RequestID(c)}
	if c == nil {
		return fields
	}
	if id := c.GetString(applicationIDKey); id != "" {
		fields["application_id"] = id
	}
	if t := c.GetString(transitionKey); t != "" {
		fields["status_transition"] = t
	}
	return fields
}
