package middleware

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const RequestIDKey = "X-Request-ID"

// Logger tags every request with an id and writes one access log line.
// Health probes are not logged.
func Logger() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		start := time.Now()
		path := string(c.Path())

		requestID := string(c.Request.Header.Peek(RequestIDKey))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Response.Header.Set(RequestIDKey, requestID)

		c.Next(ctx)

		if path == "/health/live" || path == "/health/ready" {
			return
		}

		status := c.Response.StatusCode()
		var evt *zerolog.Event
		switch {
		case status >= 500:
			evt = log.Error()
		case status >= 400:
			evt = log.Warn()
		default:
			evt = log.Info()
		}
		evt.Str("component", "http").
			Str("request_id", requestID).
			Str("method", string(c.Method())).
			Str("path", path).
			Str("client_ip", c.ClientIP()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request completed")
	}
}

func GetRequestID(c *app.RequestContext) string {
	return string(c.Response.Header.Peek(RequestIDKey))
}
