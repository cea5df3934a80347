package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	t.Parallel()

	err := New(CodeNotFound, "project not found")
	if !stderrors.Is(err, New(CodeNotFound, "other message")) {
		t.Fatal("expected errors with the same code to match")
	}
	if stderrors.Is(err, New(CodeForbidden, "project not found")) {
		t.Fatal("expected errors with different codes not to match")
	}
}

func TestWrapKeepsCause(t *testing.T) {
	t.Parallel()

	cause := stderrors.New("database is locked")
	err := Wrap(CodeUnavailable, "count reactions", cause)
	if !stderrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be reachable")
	}
	if got := err.Error(); got != "count reactions" {
		t.Fatalf("Error() = %q, want %q", got, "count reactions")
	}
}

func TestErrorStringFallsBackToCode(t *testing.T) {
	t.Parallel()

	err := &Error{Code: CodeConflict}
	if got := err.Error(); got != string(CodeConflict) {
		t.Fatalf("Error() = %q, want %q", got, CodeConflict)
	}
}

func TestCodeOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want Code
	}{
		{name: "nil", err: nil, want: ""},
		{name: "plain error", err: stderrors.New("boom"), want: CodeUnknown},
		{name: "domain error", err: New(CodeForbidden, "nope"), want: CodeForbidden},
		{name: "wrapped domain error", err: fmt.Errorf("toggle: %w", New(CodeConflict, "again")), want: CodeConflict},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := CodeOf(tc.err); got != tc.want {
				t.Fatalf("CodeOf() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code Code
		want int
	}{
		{CodeUnauthenticated, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeNotFound, http.StatusNotFound},
		{CodeInvalidArgument, http.StatusBadRequest},
		{CodeConflict, http.StatusConflict},
		{CodeUnavailable, http.StatusServiceUnavailable},
		{CodeUnknown, http.StatusInternalServerError},
	}
	for _, tc := range tests {
		if got := tc.code.HTTPStatus(); got != tc.want {
			t.Fatalf("%s.HTTPStatus() = %d, want %d", tc.code, got, tc.want)
		}
	}
}

func TestKindLabels(t *testing.T) {
	t.Parallel()

	if got := CodeInvalidArgument.Kind(); got != "invalid_argument" {
		t.Fatalf("Kind() = %q, want invalid_argument", got)
	}
	if got := Code("SOMETHING_ELSE").Kind(); got != "unknown" {
		t.Fatalf("Kind() = %q, want unknown", got)
	}
}
