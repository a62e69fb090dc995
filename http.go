package userbase

import (
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// APIResponse is the envelope every endpoint responds with, success or not.
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// SuccessResponse builds the success envelope
func SuccessResponse(message string, data any) APIResponse {
	return APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	}
}

// ErrorResponse builds the failure envelope with a null payload
func ErrorResponse(message string) APIResponse {
	return APIResponse{
		Success: false,
		Message: message,
	}
}

// FormatValidationErrors flattens ozzo validation errors into the
// field→message map carried in the envelope's data field.
func FormatValidationErrors(errs validation.Errors) map[string]string {
	out := make(map[string]string, len(errs))
	for field, err := range errs {
		if err == nil {
			continue
		}
		out[field] = err.Error()
	}
	return out
}

// NewErrorHandler returns the fiber error handler that maps the package error
// taxonomy onto HTTP statuses: not-found 404, conflict/bad-input/validation
// 400, bad credentials 401, forbidden 403, everything else a generic 500.
func NewErrorHandler(logger Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = defLogger{}
	}

	return func(c *fiber.Ctx, err error) error {
		var verrs validation.Errors
		if errors.As(err, &verrs) {
			return c.Status(http.StatusBadRequest).JSON(APIResponse{
				Success: false,
				Message: "Validation failed",
				Data:    FormatValidationErrors(verrs),
			})
		}

		var rich *errors.Error
		if errors.As(err, &rich) {
			status := rich.Code
			if status == 0 {
				status = http.StatusInternalServerError
			}

			if status >= http.StatusInternalServerError {
				logger.Error("request failed",
					"error", rich.Message,
					"category", rich.Category,
					"details", print.MaybePrettyJSON(rich.Metadata),
				)
				return c.Status(status).JSON(ErrorResponse("An unexpected error occurred"))
			}

			return c.Status(status).JSON(ErrorResponse(rich.Message))
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Message))
		}

		logger.Error("unhandled request error", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse("An unexpected error occurred"))
	}
}
