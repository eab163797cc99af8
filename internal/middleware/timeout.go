package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Timeout returns a Gin middleware that puts a deadline on the request
// context. Repositories pass that context to pgx, so a slow spatial query is
// cancelled at the database when the deadline fires.
//
// The handler chain runs on the request goroutine. If the deadline has passed
// when the chain returns and nothing was written, the middleware answers 503.
// A handler that blocks without watching its context cannot be interrupted.
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if ctx.Err() != nil && !c.Writer.Written() {
			abort(c, http.StatusServiceUnavailable, "request timed out", "timeout")
		}
	}
}

// abort writes the error envelope shared with the handlers.
func abort(c *gin.Context, status int, message, code string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{"message": message, "code": code},
	})
}
