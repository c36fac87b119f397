package handlers

import (
	"errors"

	"apexify/internal/logging"
	"apexify/internal/middleware"
	"apexify/internal/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// statusFor maps a service error onto an HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, models.ErrValidation),
		errors.Is(err, models.ErrInsufficientStock),
		errors.Is(err, models.ErrInvalidCoupon),
		errors.Is(err, models.ErrInvalidTransition):
		return fiber.StatusBadRequest
	case errors.Is(err, models.ErrInvalidCredentials):
		return fiber.StatusUnauthorized
	case errors.Is(err, models.ErrUnauthorized):
		return fiber.StatusForbidden
	case errors.Is(err, models.ErrConflict):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// writeError renders err as the standard {"message","error"} body.
func writeError(c *fiber.Ctx, message string, err error) error {
	status := statusFor(err)
	body := fiber.Map{
		"message": message,
		"error":   err.Error(),
	}

	var verr *models.ValidationError
	if errors.As(err, &verr) {
		body["message"] = "Validation failed"
		body["errors"] = verr.Fields
	}
	var serr *models.InsufficientStockError
	if errors.As(err, &serr) {
		body["product"] = serr.ProductID
		body["requested"] = serr.Requested
		body["available"] = serr.Available
	}

	log := logging.FromContext(c.UserContext())
	if status >= fiber.StatusInternalServerError {
		log.Error("request_failed", zap.String("message", message), zap.Error(err))
		body["error"] = "internal server error"
	} else {
		log.Debug("request_rejected", zap.Int("status", status), zap.Error(err))
	}
	return c.Status(status).JSON(body)
}

// invalidBody answers a request whose body could not be decoded.
func invalidBody(c *fiber.Ctx, err error) error {
	logging.FromContext(c.UserContext()).Debug("invalid_request_body", zap.Error(err))
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Invalid request body",
		"error":   err.Error(),
	})
}

// actor returns the authenticated caller. Routes using it sit behind AuthRequired.
func actor(c *fiber.Ctx) models.Actor {
	a, _ := middleware.ActorFrom(c)
	return a
}
