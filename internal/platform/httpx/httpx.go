// Package httpx provides HTTP middleware and JSON helpers for the tracker API.
package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	apperrors "github.com/MannLester/GovTrackerPH-sub000/internal/platform/errors"
	"github.com/MannLester/GovTrackerPH-sub000/internal/platform/id"
)

// RequestIDHeader carries the correlation id in both directions.
const RequestIDHeader = "X-Request-ID"

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 64 << 10

// Middleware wraps an HTTP handler.
type Middleware func(http.Handler) http.Handler

// Chain applies middleware in declaration order.
func Chain(handler http.Handler, middleware ...Middleware) http.Handler {
	if handler == nil {
		handler = http.NotFoundHandler()
	}
	wrapped := handler
	for idx := len(middleware) - 1; idx >= 0; idx-- {
		if middleware[idx] == nil {
			continue
		}
		wrapped = middleware[idx](wrapped)
	}
	return wrapped
}

// RequestID injects and echoes a request id for correlation.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.NotFoundHandler()
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := strings.TrimSpace(r.Header.Get(RequestIDHeader))
			if requestID == "" {
				if generated, err := id.NewID(); err == nil {
					requestID = generated
					r.Header.Set(RequestIDHeader, requestID)
				}
			}
			if requestID != "" {
				w.Header().Set(RequestIDHeader, requestID)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RecoverPanic converts panics into 500 responses and logs the stack.
func RecoverPanic(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.NotFoundHandler()
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if recovered := recover(); recovered != nil {
					logger.Error("panic recovered",
						"method", r.Method,
						"path", r.URL.Path,
						"request_id", r.Header.Get(RequestIDHeader),
						"panic", fmt.Sprint(recovered),
						"stack", strings.TrimSpace(string(debug.Stack())),
					)
					WriteError(w, apperrors.New(apperrors.CodeUnknown, "internal error"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// WriteJSON writes a JSON response with the provided status code.
func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	if w == nil {
		return fmt.Errorf("response writer is required")
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(payload)
}

// ErrorBody is the JSON envelope written for failed requests.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a failure by code and message.
type ErrorDetail struct {
	Code     apperrors.Code    `json:"code"`
	Kind     string            `json:"kind"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// WriteError writes err as a structured JSON error using its code's status.
// Errors without a domain code are reported as UNKNOWN without leaking their text.
func WriteError(w http.ResponseWriter, err error) {
	if w == nil || err == nil {
		return
	}
	detail := ErrorDetail{Code: apperrors.CodeUnknown, Message: "internal error"}
	var domainErr *apperrors.Error
	if errors.As(err, &domainErr) {
		detail.Code = domainErr.Code
		detail.Message = domainErr.Error()
		detail.Metadata = domainErr.Metadata
	}
	detail.Kind = detail.Code.Kind()
	_ = WriteJSON(w, detail.Code.HTTPStatus(), ErrorBody{Error: detail})
}

// DecodeJSON reads a bounded JSON body into dst. Malformed bodies are
// reported as INVALID_ARGUMENT.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if r == nil || r.Body == nil {
		return apperrors.New(apperrors.CodeInvalidArgument, "request body is required")
	}
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.New(apperrors.CodeInvalidArgument, "request body is required")
		}
		return apperrors.Wrap(apperrors.CodeInvalidArgument, "request body is not valid JSON", err)
	}
	return nil
}
