package errx

import "net/http"

// Type categorizes an error and fixes its default HTTP status.
type Type string

const (
	// TypeValidation represents malformed or missing input
	TypeValidation Type = "VALIDATION"

	// TypeAuthentication represents missing, invalid, or expired credentials
	TypeAuthentication Type = "AUTHENTICATION"

	// TypeForbidden represents failed role or tenant checks
	TypeForbidden Type = "FORBIDDEN"

	// TypeNotFound represents resource not found errors
	TypeNotFound Type = "NOT_FOUND"

	// TypeConflict represents unique-constraint and state conflicts
	TypeConflict Type = "CONFLICT"

	// TypeExternal represents errors from external services
	TypeExternal Type = "EXTERNAL"

	// TypeInternal represents unexpected internal errors
	TypeInternal Type = "INTERNAL"
)

// String returns the string representation of the error type.
func (t Type) String() string {
	return string(t)
}

// HTTPStatus maps the type to its default HTTP status code.
func (t Type) HTTPStatus() int {
	switch t {
	case TypeValidation:
		return http.StatusBadRequest
	case TypeAuthentication:
		return http.StatusUnauthorized
	case TypeForbidden:
		return http.StatusForbidden
	case TypeNotFound:
		return http.StatusNotFound
	case TypeConflict:
		return http.StatusConflict
	case TypeExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
