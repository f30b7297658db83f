package errs

import (
	"errors"
	"fmt"
	"testing"
)

var errRefused = errors.New("connection refused")

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "message only",
			err:  &AppError{Kind: UnsupportedContent, Message: "URL does not return HTML content"},
			want: "URL does not return HTML content",
		},
		{
			name: "message with cause",
			err:  &AppError{Kind: Unreachable, Message: "Connection error - could not reach the website", Cause: errRefused},
			want: "Connection error - could not reach the website: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	err := fmt.Errorf("audit: %w", &AppError{Kind: Unreachable, Message: "down", Cause: errRefused})

	if !errors.Is(err, errRefused) {
		t.Error("errors.Is did not reach the cause")
	}

	var appErr *AppError
	if !errors.As(err, &appErr) {
		t.Fatal("errors.As did not find *AppError")
	}
	if appErr.Kind != Unreachable {
		t.Errorf("Kind = %v, want %v", appErr.Kind, Unreachable)
	}
}

func TestAppError_Fetch(t *testing.T) {
	tests := []struct {
		kind Kind
		want bool
	}{
		{kind: Unreachable, want: true},
		{kind: Timeout, want: true},
		{kind: UnsupportedContent, want: true},
		{kind: ContentTooLarge, want: true},
		{kind: InvalidInput, want: false},
		{kind: ParsingFailed, want: false},
		{kind: Unknown, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			if got := (&AppError{Kind: tt.kind}).Fetch(); got != tt.want {
				t.Errorf("Fetch() = %v, want %v", got, tt.want)
			}
		})
	}
}
