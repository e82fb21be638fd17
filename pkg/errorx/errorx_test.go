package errorx

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("disk on fire")
	err := Wrap(cause, CodeDBError, "query failed")

	if !errors.Is(err, cause) {
		t.Fatal("wrapped error should unwrap to its cause")
	}
	var codeErr *CodeError
	if !errors.As(err, &codeErr) {
		t.Fatal("wrapped error should be a *CodeError")
	}
	if codeErr.Code != CodeDBError {
		t.Fatalf("code = %d, want %d", codeErr.Code, CodeDBError)
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, CodeSuccess},
		{"code error", New(CodeNotFound, "gone"), CodeNotFound},
		{"wrapped code error", fmt.Errorf("outer: %w", New(CodeConflict, "dup")), CodeConflict},
		{"plain error", errors.New("boom"), CodeServerBusy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.want {
				t.Errorf("GetCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPredicates(t *testing.T) {
	if !IsNotFound(New(CodeNotFound, "missing")) {
		t.Error("IsNotFound should match CodeNotFound")
	}
	if IsNotFound(New(CodeConflict, "dup")) {
		t.Error("IsNotFound should not match CodeConflict")
	}
	if !IsConflict(fmt.Errorf("wrapped: %w", New(CodeConflict, "dup"))) {
		t.Error("IsConflict should see through wrapping")
	}
	if !IsNotAuthorized(New(CodeNotAuthorized, "no")) {
		t.Error("IsNotAuthorized should match CodeNotAuthorized")
	}
	if IsConflict(errors.New("plain")) {
		t.Error("plain errors should not match any predicate")
	}
	if IsNotFound(errors.New("record not found")) {
		t.Error("IsNotFound should go by the code, not the message text")
	}
}
