package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeDOTSyntax, "test message: %s", "value")

	if err.Code != ErrCodeDOTSyntax {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeDOTSyntax)
	}

	if err.Message != "test message: value" {
		t.Errorf("Message = %v, want %v", err.Message, "test message: value")
	}

	expected := "DOT_SYNTAX_ERROR: test message: value"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(ErrCodeFileOperation, cause, "failed to write")

	if err.Code != ErrCodeFileOperation {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeFileOperation)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	if unwrapped := errors.Unwrap(err); unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}

	expected := "FILE_OPERATION_ERROR: failed to write: disk full"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWithPaths(t *testing.T) {
	err := New(ErrCodeSecurity, "outside root").WithPaths("/etc/passwd", "/tmp/out")
	if err.Path != "/etc/passwd" || err.Root != "/tmp/out" {
		t.Errorf("WithPaths() = (%q, %q), want (/etc/passwd, /tmp/out)", err.Path, err.Root)
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeSecurity, "test"),
			code:     ErrCodeSecurity,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeSecurity, "test"),
			code:     ErrCodeDOTSyntax,
			expected: false,
		},
		{
			name:     "wrapped error",
			err:      Wrap(ErrCodeFileOperation, New(ErrCodeSecurity, "inner"), "outer"),
			code:     ErrCodeFileOperation,
			expected: true,
		},
		{
			name:     "fmt wrapped",
			err:      fmt.Errorf("context: %w", New(ErrCodeInvalidParameter, "width")),
			code:     ErrCodeInvalidParameter,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeSecurity,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeSecurity,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{"Error type", New(ErrCodeDOTSyntax, "test"), ErrCodeDOTSyntax},
		{"plain error", errors.New("plain"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"Error type", New(ErrCodeSecurity, "friendly message"), "friendly message"},
		{"with cause", Wrap(ErrCodeDOTSyntax, errors.New("line 1"), "Invalid DOT syntax"), "Invalid DOT syntax: line 1"},
		{"plain error", errors.New("plain error"), "plain error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	if Classify(nil, ErrCodeFileOperation, "x") != nil {
		t.Error("Classify(nil) should return nil")
	}

	sec := New(ErrCodeSecurity, "outside root")
	if got := Classify(sec, ErrCodeFileOperation, "op failed"); got != sec {
		t.Errorf("Classify() should pass coded errors through, got %v", got)
	}

	plain := errors.New("boom")
	got := Classify(plain, ErrCodeFileOperation, "op failed")
	if GetCode(got) != ErrCodeFileOperation {
		t.Errorf("Classify() code = %v, want %v", GetCode(got), ErrCodeFileOperation)
	}
	if !errors.Is(got, plain) {
		t.Error("Classify() should keep the original cause")
	}

	internal := New(ErrCodeInternal, "unexpected")
	if GetCode(Classify(internal, ErrCodeFileOperation, "op failed")) != ErrCodeFileOperation {
		t.Error("Classify() should rewrite internal errors")
	}
}
