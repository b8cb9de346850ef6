package respond

import (
	"github.com/gin-gonic/gin"

	"resume-tailor/internal/shared/telemetry"
)

// Problem is the body of every non-2xx response:
//
//	{"error": {"code": "not_found", "message": "Application not found"}}
type Problem struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type problemEnvelope struct {
	Error Problem `json:"error"`
}

// Error aborts the request with status and a Problem body. Client errors are
// logged at warn, server errors at error.
func Error(c *gin.Context, status int, code, message string, details any) {
	fields := LogFields(c)
	fields["status"] = status
	fields["code"] = code
	fields["message"] = message
	fields["route"] = c.FullPath()
	fields["method"] = c.Request.Method

	log := telemetry.Warn
	if status >= 500 {
		log = telemetry.Error
	}
	log("http.error", fields)

	c.AbortWithStatusJSON(status, problemEnvelope{Error: Problem{Code: code, Message: message, Details: details}})
}
