package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

// LoggingMiddleware logs each request's method, path, status, and
// latency, grounded on the teacher's commented-out LoggingMiddleware
// draft (never wired into a router in the retrieved source).
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		log.Printf("%s %s [%d] (%v)", method, path, status, latency)
	}
}
