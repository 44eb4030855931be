// Package middleware holds the fiber middleware shared by the v1 routes
package middleware

import (
	"time"

	fiber "github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	log "github.com/prefect-field/jobtrack/internal/logger"
)

// RequestIDHeader carries the per-request id back to the caller
const RequestIDHeader = "X-Request-ID"

// Logger returns a middleware that logs HTTP requests
func Logger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		requestID := c.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDHeader, requestID)

		err := c.Next()

		stop := time.Now()
		fields := map[string]interface{}{
			"request_id": requestID,
			"status":     c.Response().StatusCode(),
			"latency":    stop.Sub(start).String(),
			"ip":         c.IP(),
			"method":     c.Method(),
			"path":       c.Path(),
			"handler":    c.Route().Name,
		}
		if actor, ok := Actor(c); ok {
			fields["user_id"] = actor.UserID
			fields["role"] = actor.Role.String()
		}
		log.InfoWithFields("Request", fields)

		return err
	}
}
