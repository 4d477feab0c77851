package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-practice/internal/response"
)

// RequestLogger logs one line per request. Server errors log at error level,
// client errors at warn, the rest at debug.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	log = log.With().Str("component", "http").Logger()

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		var ev *zerolog.Event
		switch {
		case status >= 500:
			ev = log.Error()
		case status >= 400:
			ev = log.Warn()
		default:
			ev = log.Debug()
		}

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		ev.Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("request_id", response.RequestID(c)).
			Str("client_ip", c.ClientIP()).
			Msg("Request handled")
	}
}
