package controller

import (
	"errors"
	"log/slog"

	"sodalis/auth"
	"sodalis/service"
	"sodalis/util"

	"github.com/gofiber/fiber/v2"
)

// errInvalidPayload is returned when the request body cannot be decoded
var errInvalidPayload = fiber.NewError(fiber.StatusBadRequest, "invalid request payload")

// NewErrorHandler renders every error returned by a handler or middleware as
// {"error": "..."} with a stable message. Unexpected errors are logged and hidden.
func NewErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var verr *util.ValidationError
		if errors.As(err, &verr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":  "validation failed",
				"fields": verr.Fields,
			})
		}

		var ferr *fiber.Error
		if errors.As(err, &ferr) {
			return c.Status(ferr.Code).JSON(fiber.Map{"error": ferr.Message})
		}

		status, message := classify(err)
		if status == fiber.StatusUnauthorized {
			c.Set(fiber.HeaderWWWAuthenticate, `Bearer realm="sodalis"`)
		}
		if status == fiber.StatusInternalServerError {
			logger.ErrorContext(c.UserContext(), "unhandled error",
				"method", c.Method(),
				"path", c.Path(),
				"error", err,
			)
		}

		return c.Status(status).JSON(fiber.Map{"error": message})
	}
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return fiber.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, auth.ErrExpired):
		return fiber.StatusUnauthorized, "token expired"
	case errors.Is(err, auth.ErrInvalidToken):
		return fiber.StatusUnauthorized, "invalid token"
	case errors.Is(err, auth.ErrUnauthenticated):
		return fiber.StatusUnauthorized, "authentication required"
	case errors.Is(err, service.ErrInvalidRefreshToken):
		return fiber.StatusUnauthorized, "invalid refresh token"
	case errors.Is(err, auth.ErrForbidden):
		return fiber.StatusForbidden, "forbidden"
	case errors.Is(err, service.ErrNotFound):
		return fiber.StatusNotFound, "not found"
	case errors.Is(err, service.ErrConflict):
		return fiber.StatusConflict, "already exists"
	case errors.Is(err, service.ErrInvalidInput):
		return fiber.StatusBadRequest, "invalid input"
	}
	return fiber.StatusInternalServerError, "internal server error"
}

// parseBody decodes and validates a JSON body into req
func parseBody(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return errInvalidPayload
	}
	return util.ValidateStruct(req)
}
