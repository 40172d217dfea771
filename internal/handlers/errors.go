package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/services"
)

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Message: message,
	})
}

// respondError maps service errors to status codes. Only 4xx responses carry
// the error text; everything else is logged and reported to Sentry.
func respondError(c *fiber.Ctx, action string, err error) error {
	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return badRequest(c, validationErr.Error())
	case errors.Is(err, services.ErrConflict):
		return badRequest(c, err.Error())
	case services.IsAuthError(err):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	case errors.Is(err, services.ErrPlanNotFound), errors.Is(err, services.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}

	message := "Internal server error"
	var genErr *services.GenerationError
	if errors.As(err, &genErr) {
		message = "Failed to generate plan"
	}

	slog.Error("request failed",
		"action", action,
		"method", c.Method(),
		"path", c.Path(),
		"request_id", requestID(c),
		"email", middleware.GetEmail(c),
		"error", err,
	)
	if hub := sentryfiber.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
	}

	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: message,
	})
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals("requestid").(string)
	return id
}
