package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/example/courier/internal/services"
)

// Error kinds rendered in the "error" field of every failure response.
const (
	KindValidationFailed   = "ValidationFailed"
	KindDuplicateAccount   = "DuplicateAccount"
	KindInvalidOtpOrToken  = "InvalidOtpOrToken"
	KindDispatchFailed     = "DispatchFailed"
	KindInvalidCredentials = "InvalidCredentials"
	KindUnauthorized       = "Unauthorized"
	KindForbidden          = "Forbidden"
	KindNotFound           = "NotFound"
	KindConflict           = "Conflict"
	KindBadRequest         = "BadRequest"
	KindInternal           = "Internal"
)

// ErrorResponse is the body of every failure response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ErrorHandler renders errors returned by handlers as ErrorResponse.
// Unexpected errors are logged and reported without detail.
func ErrorHandler(log *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, resp := classify(err)
		if status >= fiber.StatusInternalServerError {
			log.ErrorContext(c.UserContext(), "request failed",
				"method", c.Method(),
				"path", c.Path(),
				"status", status,
				"error", err,
			)
		}
		return c.Status(status).JSON(resp)
	}
}

func classify(err error) (int, ErrorResponse) {
	var verr *services.ValidationError
	var ferr *fiber.Error

	switch {
	case errors.As(err, &verr):
		return fiber.StatusBadRequest, ErrorResponse{KindValidationFailed, verr.Message}
	case errors.Is(err, services.ErrDuplicateAccount):
		return fiber.StatusBadRequest, ErrorResponse{KindDuplicateAccount, "account already exists"}
	case errors.Is(err, services.ErrInvalidToken),
		errors.Is(err, services.ErrAccountNotFound),
		errors.Is(err, services.ErrInvalidOTP):
		return fiber.StatusBadRequest, ErrorResponse{KindInvalidOtpOrToken, "invalid credentials or OTP already expired"}
	case errors.Is(err, services.ErrDispatchFailed):
		return fiber.StatusBadGateway, ErrorResponse{KindDispatchFailed, "could not send OTP, try again later"}
	case errors.Is(err, services.ErrInvalidCredentials):
		return fiber.StatusUnauthorized, ErrorResponse{KindInvalidCredentials, "invalid credentials"}
	case errors.As(err, &ferr):
		if ferr.Code == fiber.StatusBadGateway {
			return ferr.Code, ErrorResponse{KindDispatchFailed, ferr.Message}
		}
		if ferr.Code >= fiber.StatusInternalServerError {
			return ferr.Code, ErrorResponse{KindInternal, "internal server error"}
		}
		return ferr.Code, ErrorResponse{kindForStatus(ferr.Code), ferr.Message}
	default:
		return fiber.StatusInternalServerError, ErrorResponse{KindInternal, "internal server error"}
	}
}

func kindForStatus(status int) string {
	switch status {
	case fiber.StatusUnauthorized:
		return KindUnauthorized
	case fiber.StatusForbidden:
		return KindForbidden
	case fiber.StatusNotFound:
		return KindNotFound
	case fiber.StatusConflict:
		return KindConflict
	default:
		return KindBadRequest
	}
}

func validationError(msg string) error {
	return &services.ValidationError{Message: msg}
}
