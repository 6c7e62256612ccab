package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"mediamap/internal/http/middleware"
	"mediamap/internal/logging"
)

// errorPayload is the JSON body returned for any failed request.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Path is the requested document or media path.
	Path string `json:"path,omitempty"`
}

var errorCodes = map[int]struct{ code, message string }{
	fiber.StatusBadRequest:                   {"BAD_REQUEST", "bad request"},
	fiber.StatusForbidden:                    {"FORBIDDEN", "forbidden"},
	fiber.StatusNotFound:                     {"NOT_FOUND", "file not found in map folder"},
	fiber.StatusMethodNotAllowed:             {"METHOD_NOT_ALLOWED", "map server is read-only"},
	fiber.StatusRequestedRangeNotSatisfiable: {"RANGE_NOT_SATISFIABLE", "requested range not satisfiable"},
	fiber.StatusServiceUnavailable:           {"SERVICE_UNAVAILABLE", "map document not generated yet"},
}

func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(errorPayload{
		RequestID: middleware.RequestIDFrom(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
			Path:    c.Path(),
		},
	})
}

// ErrorHandler maps errors to the JSON envelope. Internal error text never
// reaches the client; 5xx errors are logged with the request ID instead.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}

		if e, ok := errorCodes[status]; ok {
			return writeError(c, status, e.code, e.message)
		}
		if status >= fiber.StatusInternalServerError {
			logging.Error("server", "request_failed", err, logging.Fields{
				"request_id": middleware.RequestIDFrom(c),
				"path":       c.Path(),
			})
		}
		return writeError(c, status, "INTERNAL_ERROR", "internal server error")
	}
}
