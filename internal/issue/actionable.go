// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfigurationNotFound is returned when a directory the generator
	// depends on (shader sources, build output) cannot be located.
	ErrConfigurationNotFound = errors.New("configuration not found")
	// ErrExternalToolFailure is returned when the build orchestrator or the
	// shader compiler exits with a nonzero status.
	ErrExternalToolFailure = errors.New("external tool failed")
	// ErrToolMissing is returned when the compiler binary is absent after the
	// orchestrator build step reported success.
	ErrToolMissing = errors.New("tool missing")
)

type (
	// Kind classifies a generator failure. Every kind is fatal for the run.
	Kind int

	// ActionableError is an error with context for user-facing messages.
	// It records what operation failed, what resource was involved, and
	// suggestions for how to fix the issue.
	//
	// Use the ErrorContext builder for convenient construction:
	//
	//	err := issue.NewErrorContext(issue.KindToolMissing).
	//		WithOperation("locate shader compiler").
	//		WithResource(path).
	//		WithSuggestion("Check the build.target setting").
	//		BuildError()
	ActionableError struct {
		// Kind is the failure class; its sentinel is reachable via errors.Is.
		Kind Kind

		// Operation describes what was being attempted (e.g., "compile shader").
		Operation string

		// Resource identifies the file or directory involved (optional).
		Resource string

		// Suggestions provides hints on how to fix the issue (optional).
		Suggestions []string

		// Cause is the underlying error that triggered this error (optional).
		Cause error
	}

	// ErrorContext is a builder for constructing ActionableError instances.
	ErrorContext struct {
		kind        Kind
		operation   string
		resource    string
		suggestions []string
		cause       error
	}
)

const (
	// KindUnknown is used for errors that do not carry a classification.
	KindUnknown Kind = iota
	// KindConfigurationNotFound maps to ErrConfigurationNotFound.
	KindConfigurationNotFound
	// KindExternalToolFailure maps to ErrExternalToolFailure.
	KindExternalToolFailure
	// KindToolMissing maps to ErrToolMissing.
	KindToolMissing
)

// String returns the human-readable name of the kind.
func (k Kind) String() string {
	switch k {
	case KindConfigurationNotFound:
		return "ConfigurationNotFound"
	case KindExternalToolFailure:
		return "ExternalToolFailure"
	case KindToolMissing:
		return "ToolMissing"
	default:
		return "Unknown"
	}
}

// Sentinel returns the sentinel error associated with the kind, or nil.
func (k Kind) Sentinel() error {
	switch k {
	case KindConfigurationNotFound:
		return ErrConfigurationNotFound
	case KindExternalToolFailure:
		return ErrExternalToolFailure
	case KindToolMissing:
		return ErrToolMissing
	default:
		return nil
	}
}

// KindOf returns the Kind of the first ActionableError in err's chain, or
// KindUnknown when there is none.
func KindOf(err error) Kind {
	var ae *ActionableError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

// NewErrorContext creates a new ErrorContext builder for the given kind.
func NewErrorContext(kind Kind) *ErrorContext {
	return &ErrorContext{kind: kind}
}

// Error returns a concise message suitable for default (non-verbose) output.
func (e *ActionableError) Error() string {
	var msg strings.Builder

	msg.WriteString("failed to ")
	msg.WriteString(e.Operation)

	if e.Resource != "" {
		msg.WriteString(": ")
		msg.WriteString(e.Resource)
	}

	if e.Cause != nil {
		msg.WriteString(": ")
		msg.WriteString(e.Cause.Error())
	}

	return msg.String()
}

// Unwrap exposes both the cause and the kind sentinel to errors.Is/As.
func (e *ActionableError) Unwrap() []error {
	var errs []error
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	if s := e.Kind.Sentinel(); s != nil {
		errs = append(errs, s)
	}
	return errs
}

// Format returns a formatted error message with optional verbosity.
//
// When verbose is false:
//
//	failed to <operation>: <resource>: <cause message>
//	  • <suggestion 1>
//
// When verbose is true, the full cause chain is appended.
func (e *ActionableError) Format(verbose bool) string {
	var msg strings.Builder

	msg.WriteString(e.Error())

	if len(e.Suggestions) > 0 {
		msg.WriteString("\n")
		for _, suggestion := range e.Suggestions {
			msg.WriteString("\n  • ")
			msg.WriteString(suggestion)
		}
	}

	if verbose && e.Cause != nil {
		msg.WriteString("\n\nError chain:")
		err := e.Cause
		depth := 1
		for err != nil {
			fmt.Fprintf(&msg, "\n  %d. %s", depth, err.Error())
			err = errors.Unwrap(err)
			depth++
		}
	}

	return msg.String()
}

// WithOperation sets the operation being performed, as a verb phrase.
func (c *ErrorContext) WithOperation(op string) *ErrorContext {
	c.operation = op
	return c
}

// WithResource sets the file or directory involved.
func (c *ErrorContext) WithResource(res string) *ErrorContext {
	c.resource = res
	return c
}

// WithSuggestion adds a suggestion. Can be called multiple times.
func (c *ErrorContext) WithSuggestion(sug string) *ErrorContext {
	c.suggestions = append(c.suggestions, sug)
	return c
}

// Wrap sets the underlying cause.
func (c *ErrorContext) Wrap(err error) *ErrorContext {
	c.cause = err
	return c
}

// Build creates an ActionableError from the context.
// Returns nil if no operation is set.
func (c *ErrorContext) Build() *ActionableError {
	if c.operation == "" {
		return nil
	}

	return &ActionableError{
		Kind:        c.kind,
		Operation:   c.operation,
		Resource:    c.resource,
		Suggestions: c.suggestions,
		Cause:       c.cause,
	}
}

// BuildError is Build returning the error interface, for direct use in
// return statements. Returns nil if no operation is set.
func (c *ErrorContext) BuildError() error {
	ae := c.Build()
	if ae == nil {
		return nil
	}
	return ae
}

// FormatForDisplay renders err for the terminal. ActionableErrors include
// their suggestions; other errors fall back to Error().
func FormatForDisplay(err error, verbose bool) string {
	var ae *ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}
