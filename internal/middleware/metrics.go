package middleware

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/metrics"
)

// Metrics records request counts and latency per matched route.
func Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		done := metrics.RequestStarted()
		defer done()

		start := time.Now()
		err := c.Next()

		// Errors returned down the chain are rendered later by the app's
		// error handler, so the response status is not final yet.
		status := c.Response().StatusCode()
		route := c.Route().Path
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
			if status == fiber.StatusNotFound {
				route = ""
			}
		}

		metrics.ObserveRequest(c.Method(), route, strconv.Itoa(status), time.Since(start))
		return err
	}
}
