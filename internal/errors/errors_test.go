package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestCode(t *testing.T) {
	cause := stderrors.New("connection refused")

	tests := []struct {
		name string
		err  error
		want ErrCode
	}{
		{"new", New(ErrCodeConflict, "already claimed"), ErrCodeConflict},
		{"wrapped", Wrap(cause, ErrCodeInternal, "query failed"), ErrCodeInternal},
		{"not found helper", NotFound("client", "42"), ErrCodeNotFound},
		{"invalid input helper", InvalidInput("status", "required"), ErrCodeInvalidInput},
		{"conflict helper", Conflict("claimed by another worker"), ErrCodeConflict},
		{"nested in fmt chain", fmt.Errorf("outer: %w", Conflict("inner")), ErrCodeConflict},
		{"unclassified", cause, ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Code(tt.err); got != tt.want {
				t.Errorf("Code() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWrapNil(t *testing.T) {
	if err := Wrap(nil, ErrCodeInternal, "ignored"); err != nil {
		t.Errorf("Wrap(nil) = %v, want nil", err)
	}
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("root")
	err := Wrap(cause, ErrCodeInternal, "wrapped")

	if !stderrors.Is(err, cause) {
		t.Error("wrapped error should match its cause via errors.Is")
	}
}

func TestIsCode(t *testing.T) {
	err := NotFound("filter", "7")

	if !IsCode(err, ErrCodeNotFound) {
		t.Error("IsCode should match the carried code")
	}
	if IsCode(err, ErrCodeConflict) {
		t.Error("IsCode should reject a different code")
	}
	if IsCode(nil, ErrCodeInternal) {
		t.Error("IsCode(nil) should be false")
	}
}

func TestErrorMessage(t *testing.T) {
	err := NotFound("client", "42")
	want := `NOT_FOUND: client "42" not found`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
