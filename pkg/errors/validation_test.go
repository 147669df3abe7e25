package errors

import (
	"strings"
	"testing"
)

func TestValidateProjectName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "requests", false},
		{"dash", "python-dateutil", false},
		{"underscore", "typing_extensions", false},
		{"dot", "ruamel.yaml", false},
		{"single char", "x", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 300), true},
		{"leading dash", "-foo", true},
		{"trailing dot", "foo.", true},
		{"space", "foo bar", true},
		{"slash", "foo/bar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProjectName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateProjectName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateModulePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "yaml", false},
		{"dotted", "google.protobuf", false},
		{"mixed case", "PIL", false},
		{"private", "_cffi_backend", false},

		{"empty", "", true},
		{"dash", "my-module", true},
		{"empty segment", "a..b", true},
		{"leading digit", "3d", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateModulePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateModulePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "setup.py", false},
		{"nested", "src/pkg/mod.py", false},

		{"empty", "", true},
		{"absolute", "/etc/passwd", true},
		{"traversal", "../setup.py", true},
		{"backslash", "src\\mod.py", true},
		{"null byte", "a\x00b.py", true},
		{"too long", strings.Repeat("a", 600), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
