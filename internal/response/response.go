package response

import (
	"errors"
	"net/http"

	"usersapi/internal/services"

	"github.com/gofiber/fiber/v2"
)

// Fail writes the failure body shared by every endpoint.
func Fail(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success":    false,
		"message":    message,
		"errorCode":  code,
		"statusCode": status,
	})
}

// Error renders err. Service errors keep their own code and status; any
// other error becomes a generic 500 without its text.
func Error(c *fiber.Ctx, err error) error {
	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		return Fail(c, svcErr.Status(), svcErr.Code(), svcErr.Message)
	}
	return Fail(c, fiber.StatusInternalServerError, services.CodeRequestFailed, "Some error occurred. Please try again later")
}

// ErrorHandler is the Fiber error handler. It renders framework errors
// (unknown routes, bad bodies, recovered panics) in the same shape.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code := services.CodeRequestFailed
		switch fiberErr.Code {
		case fiber.StatusNotFound:
			code = "NOT_FOUND"
		case fiber.StatusMethodNotAllowed:
			code = "METHOD_NOT_ALLOWED"
		case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity:
			code = services.CodeInvalidFieldValue
		}
		message := fiberErr.Message
		if fiberErr.Code >= fiber.StatusInternalServerError {
			message = http.StatusText(fiberErr.Code)
		}
		return Fail(c, fiberErr.Code, code, message)
	}
	return Error(c, err)
}
