package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const RunIDHeader = "X-Run-ID"

func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		event := log.Info()
		if status >= 500 {
			event = log.Error()
		} else if status >= 400 {
			event = log.Warn()
		}
		if runID := c.Writer.Header().Get(RunIDHeader); runID != "" {
			event = event.Str("run_id", runID)
		}

		event.
			Int("status", status).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", query).
			Int("bytes", c.Writer.Size()).
			Dur("latency", latency).
			Str("ip", c.ClientIP()).
			Msg("request")
	}
}
