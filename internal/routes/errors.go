package routes

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/example/storehub/internal/services"
)

// ErrorHandler maps service errors to HTTP statuses and a uniform JSON body.
func ErrorHandler(c *fiber.Ctx, err error) error {
	if appErr, ok := services.AsAppError(err); ok {
		body := fiber.Map{
			"success": false,
			"message": appErr.Message,
		}
		if appErr.Code != 0 {
			body["code"] = appErr.Code
		}
		return c.Status(statusForKind(appErr.Kind)).JSON(body)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{
			"success": false,
			"message": fiberErr.Message,
		})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"message": "internal server error",
	})
}

func statusForKind(kind services.Kind) int {
	switch kind {
	case services.KindValidation:
		return fiber.StatusUnprocessableEntity
	case services.KindUnauthorized:
		return fiber.StatusUnauthorized
	case services.KindForbidden:
		return fiber.StatusForbidden
	case services.KindNotFound:
		return fiber.StatusNotFound
	case services.KindConflict:
		return fiber.StatusConflict
	case services.KindQuota:
		return fiber.StatusBadRequest
	case services.KindExternal:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
