package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// projectNameRegex matches valid Python project names (PEP 508).
var projectNameRegex = regexp.MustCompile(`^([A-Za-z0-9]|[A-Za-z0-9][A-Za-z0-9._-]*[A-Za-z0-9])$`)

// ValidateProjectName validates a Python distribution name per PEP 508.
func ValidateProjectName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidRequirement, "project name cannot be empty")
	}
	if len(name) > 256 {
		return New(ErrCodeInvalidRequirement, "project name too long (max 256 characters)")
	}
	if !projectNameRegex.MatchString(name) {
		return New(ErrCodeInvalidRequirement, "invalid project name: %q", name)
	}
	return nil
}

// moduleSegmentRegex matches one segment of a dotted Python module path.
var moduleSegmentRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateModulePath validates a dotted Python module path such as
// "google.protobuf". Every segment must be a Python identifier.
func ValidateModulePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidModule, "module path cannot be empty")
	}
	for _, seg := range strings.Split(path, ".") {
		if !moduleSegmentRegex.MatchString(seg) {
			return New(ErrCodeInvalidModule, "invalid module path: %q", path)
		}
	}
	return nil
}

// ValidatePath validates a source file path supplied by a remote caller.
// It prevents path traversal and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}
