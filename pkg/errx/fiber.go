package errx

import (
	"github.com/gofiber/fiber/v2"
)

// Response is the wire shape every handler error is rendered as. Internal
// causes and stack traces never appear here.
type Response struct {
	Error     string         `json:"error"`
	Code      string         `json:"code"`
	Type      string         `json:"type"`
	Status    int            `json:"status"`
	RequestID string         `json:"request_id,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// ToResponse converts the error to its wire shape.
func (e *Error) ToResponse(requestID string) Response {
	return Response{
		Error:     e.Message,
		Code:      e.Code,
		Type:      string(e.Type),
		Status:    e.HTTPStatus,
		RequestID: requestID,
		Details:   e.Details,
	}
}

// FiberErrorHandler is the app-wide fiber error handler. Coded errors render
// with their registered status; fiber errors keep their status; everything
// else collapses to a generic 500.
func FiberErrorHandler(c *fiber.Ctx, err error) error {
	requestID, _ := c.Locals("requestid").(string)

	var e *Error
	if As(err, &e) {
		return c.Status(e.HTTPStatus).JSON(e.ToResponse(requestID))
	}

	if fe, ok := err.(*fiber.Error); ok {
		return c.Status(fe.Code).JSON(Response{
			Error:     fe.Message,
			Code:      "HTTP_ERROR",
			Type:      string(TypeInternal),
			Status:    fe.Code,
			RequestID: requestID,
		})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(Response{
		Error:     "An unexpected error occurred",
		Code:      "INTERNAL_ERROR",
		Type:      string(TypeInternal),
		Status:    fiber.StatusInternalServerError,
		RequestID: requestID,
	})
}
