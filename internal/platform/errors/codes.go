// Package errors provides the structured error taxonomy shared by tracker services.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unclassified failure.
	CodeUnknown Code = "UNKNOWN"

	// CodeUnauthenticated means a required principal is missing or invalid.
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	// CodeForbidden means the principal is neither the owner nor an administrator.
	CodeForbidden Code = "FORBIDDEN"
	// CodeNotFound means the id does not resolve to a live row.
	CodeNotFound Code = "NOT_FOUND"
	// CodeInvalidArgument covers malformed input rejected before any write.
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	// CodeConflict means a uniqueness collision survived the bounded retry.
	CodeConflict Code = "CONFLICT"
	// CodeUnavailable means the store could not serve the request.
	CodeUnavailable Code = "UNAVAILABLE"
)

// HTTPStatus maps a code to the HTTP status written by the API layer.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeConflict:
		return http.StatusConflict
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Kind returns the lower-case label used in JSON payloads and metric labels.
func (c Code) Kind() string {
	switch c {
	case CodeUnauthenticated:
		return "unauthenticated"
	case CodeForbidden:
		return "forbidden"
	case CodeNotFound:
		return "not_found"
	case CodeInvalidArgument:
		return "invalid_argument"
	case CodeConflict:
		return "conflict"
	case CodeUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}
