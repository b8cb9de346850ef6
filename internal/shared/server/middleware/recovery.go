package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"resume-tailor/internal/shared/server/respond"
	"resume-tailor/internal/shared/telemetry"
)

// Recovery turns a handler panic into a 500 internal_error. If the handler
// already started writing, the connection is left as is.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			fields := respond.LogFields(c)
			fields["panic"] = fmt.Sprint(rec)
			fields["stack"] = string(debug.Stack())
			fields["route"] = c.FullPath()
			telemetry.Error("request.panic", fields)

			if c.Writer.Written() {
				c.Abort()
				return
			}
			respond.Error(c, http.StatusInternalServerError, "internal_error", "Unexpected server error", nil)
		}()
		c.Next()
	}
}
