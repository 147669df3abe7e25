package errors

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeMaxDepth, "cannot resolve %s", "base.txt")

	if err.Code != ErrCodeMaxDepth {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeMaxDepth)
	}

	if err.Message != "cannot resolve base.txt" {
		t.Errorf("Message = %v, want %v", err.Message, "cannot resolve base.txt")
	}

	expected := "REQUIREMENTS_MAX_DEPTH: cannot resolve base.txt"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("no such file or directory")
	err := Wrap(ErrCodeIncludeNotFound, cause, "open dev.txt")

	if err.Code != ErrCodeIncludeNotFound {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeIncludeNotFound)
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
			err:      New(ErrCodeInvalidRequirement, "test"),
			code:     ErrCodeInvalidRequirement,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeInvalidRequirement, "test"),
			code:     ErrCodeMaxDepth,
			expected: false,
		},
		{
			name:     "wrapped error",
			err:      Wrap(ErrCodeMaxDepth, New(ErrCodeInvalidInput, "inner"), "outer"),
			code:     ErrCodeMaxDepth,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeInvalidInput,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInvalidInput,
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

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"max depth", New(ErrCodeMaxDepth, "x"), true},
		{"include not found", Wrap(ErrCodeIncludeNotFound, errors.New("enoent"), "x"), true},
		{"wrapped max depth", Wrap(ErrCodeInternal, New(ErrCodeMaxDepth, "x"), "y"), false},
		{"parse error", New(ErrCodeParse, "x"), false},
		{"plain", errors.New("x"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFatal(tt.err); got != tt.want {
				t.Errorf("IsFatal() = %v, want %v", got, tt.want)
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
		{
			name:     "Error type",
			err:      New(ErrCodeEval, "test"),
			expected: ErrCodeEval,
		},
		{
			name:     "plain error",
			err:      errors.New("plain"),
			expected: "",
		},
		{
			name:     "nil",
			err:      nil,
			expected: "",
		},
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
		{
			name:     "Error type",
			err:      New(ErrCodeInvalidInput, "friendly message"),
			expected: "friendly message",
		},
		{
			name:     "Error with cause",
			err:      Wrap(ErrCodeIncludeNotFound, errors.New("enoent"), "open dev.txt"),
			expected: "open dev.txt: enoent",
		},
		{
			name:     "plain error",
			err:      errors.New("plain error"),
			expected: "plain error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %v, want %v", got, tt.expected)
			}
		})
	}
}
