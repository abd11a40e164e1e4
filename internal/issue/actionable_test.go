// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *ActionableError
		expected string
	}{
		{
			name:     "operation only",
			err:      &ActionableError{Operation: "locate build directory"},
			expected: "failed to locate build directory",
		},
		{
			name: "operation with resource",
			err: &ActionableError{
				Operation: "discover shaders",
				Resource:  "shaders/src",
			},
			expected: "failed to discover shaders: shaders/src",
		},
		{
			name: "full context",
			err: &ActionableError{
				Operation: "compile shader",
				Resource:  "shaders/src/a.vert",
				Cause:     errors.New("exit status 2"),
			},
			expected: "failed to compile shader: shaders/src/a.vert: exit status 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestActionableError_ErrorsIs(t *testing.T) {
	t.Parallel()

	cause := errors.New("exit status 1")
	err := NewErrorContext(KindExternalToolFailure).
		WithOperation("build shader compiler").
		Wrap(cause).
		BuildError()

	wrapped := fmt.Errorf("generate: %w", err)

	if !errors.Is(wrapped, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
	if !errors.Is(wrapped, ErrExternalToolFailure) {
		t.Error("errors.Is should find the kind sentinel")
	}
	if errors.Is(wrapped, ErrToolMissing) {
		t.Error("errors.Is should not match an unrelated sentinel")
	}
	if got := KindOf(wrapped); got != KindExternalToolFailure {
		t.Errorf("KindOf() = %v, want %v", got, KindExternalToolFailure)
	}
}

func TestKindOf_PlainError(t *testing.T) {
	t.Parallel()

	if got := KindOf(errors.New("boom")); got != KindUnknown {
		t.Errorf("KindOf() = %v, want %v", got, KindUnknown)
	}
}

func TestKind_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind Kind
		want string
	}{
		{KindUnknown, "Unknown"},
		{KindConfigurationNotFound, "ConfigurationNotFound"},
		{KindExternalToolFailure, "ExternalToolFailure"},
		{KindToolMissing, "ToolMissing"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	err := &ActionableError{
		Kind:        KindConfigurationNotFound,
		Operation:   "discover shaders",
		Resource:    "shaders/src",
		Suggestions: []string{"Run vkshadergen from the back-end directory"},
		Cause:       fmt.Errorf("stat: %w", errors.New("no such file or directory")),
	}

	short := err.Format(false)
	if !strings.Contains(short, "• Run vkshadergen from the back-end directory") {
		t.Errorf("Format(false) missing suggestion:\n%s", short)
	}
	if strings.Contains(short, "Error chain:") {
		t.Errorf("Format(false) should not include the error chain:\n%s", short)
	}

	long := err.Format(true)
	for _, want := range []string{"Error chain:", "1. stat: no such file or directory", "2. no such file or directory"} {
		if !strings.Contains(long, want) {
			t.Errorf("Format(true) missing %q:\n%s", want, long)
		}
	}
}

func TestErrorContext_BuildRequiresOperation(t *testing.T) {
	t.Parallel()

	if err := NewErrorContext(KindToolMissing).WithResource("x").BuildError(); err != nil {
		t.Errorf("BuildError() without operation = %v, want nil", err)
	}
}

func TestFormatForDisplay(t *testing.T) {
	t.Parallel()

	plain := errors.New("plain failure")
	if got := FormatForDisplay(plain, true); got != "plain failure" {
		t.Errorf("FormatForDisplay(plain) = %q", got)
	}

	ae := NewErrorContext(KindToolMissing).
		WithOperation("locate shader compiler").
		WithSuggestion("Rebuild the compiler target").
		BuildError()
	if got := FormatForDisplay(fmt.Errorf("wrapped: %w", ae), false); !strings.Contains(got, "Rebuild the compiler target") {
		t.Errorf("FormatForDisplay(actionable) = %q, want suggestion included", got)
	}
}
