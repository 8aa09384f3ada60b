package config

import (
	"fmt"
	"strings"
)

// Error codes for categorization.
const (
	ErrCodeConfigNotFound   = "CONFIG_NOT_FOUND"
	ErrCodeConfigParse      = "CONFIG_PARSE"
	ErrCodeConfigFormat     = "CONFIG_FORMAT"
	ErrCodeValidationFailed = "VALIDATION_FAILED"
	ErrCodeFileExists       = "FILE_EXISTS"
	ErrCodeUnknownManager   = "UNKNOWN_MANAGER"
)

// UserError represents a user-friendly error with actionable suggestions.
type UserError struct {
	Code       string // Error code for categorization (e.g., "CONFIG_NOT_FOUND")
	Message    string // User-friendly error message
	Context    string // File path, field path, or other location context
	Suggestion string // Actionable suggestion to fix the error
	Underlying error  // Wrapped error for error chain
}

// Error returns the formatted error message.
func (e *UserError) Error() string {
	var b strings.Builder

	b.WriteString(e.Message)

	if e.Context != "" {
		fmt.Fprintf(&b, " (at %s)", e.Context)
	}

	return b.String()
}

// Unwrap returns the underlying error for error chain support.
func (e *UserError) Unwrap() error {
	return e.Underlying
}

// Is supports errors.Is() for comparing error codes.
func (e *UserError) Is(target error) bool {
	if t, ok := target.(*UserError); ok {
		return e.Code == t.Code
	}
	return false
}

// Format returns a fully formatted error with all details.
func (e *UserError) Format() string {
	var b strings.Builder

	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)

	if e.Context != "" {
		fmt.Fprintf(&b, "\n  Location: %s", e.Context)
	}

	if e.Suggestion != "" {
		fmt.Fprintf(&b, "\n  Suggestion: %s", e.Suggestion)
	}

	return b.String()
}

// NewUserError creates a new UserError with the given code and message.
func NewUserError(code, message string) *UserError {
	return &UserError{
		Code:    code,
		Message: message,
	}
}

// WithSuggestion returns a new UserError with suggestion set.
func (e *UserError) WithSuggestion(suggestion string) *UserError {
	c := *e
	c.Suggestion = suggestion
	return &c
}

// WithUnderlying returns a new UserError wrapping another error.
func (e *UserError) WithUnderlying(err error) *UserError {
	c := *e
	c.Underlying = err
	return &c
}

// ErrorList accumulates multiple errors for comprehensive reporting.
type ErrorList struct {
	errors []*UserError
}

// NewErrorList creates an empty ErrorList.
func NewErrorList() *ErrorList {
	return &ErrorList{
		errors: make([]*UserError, 0),
	}
}

// Add adds an error to the list.
func (l *ErrorList) Add(err *UserError) {
	if err != nil {
		l.errors = append(l.errors, err)
	}
}

// AddValidation adds a validation error to the list.
func (l *ErrorList) AddValidation(field, message, suggestion string) {
	l.Add(&UserError{
		Code:       ErrCodeValidationFailed,
		Message:    fmt.Sprintf("%s: %s", field, message),
		Context:    field,
		Suggestion: suggestion,
	})
}

// HasErrors returns true if there are any errors.
func (l *ErrorList) HasErrors() bool {
	return len(l.errors) > 0
}

// Len returns the number of errors.
func (l *ErrorList) Len() int {
	return len(l.errors)
}

// Errors returns the list of errors.
func (l *ErrorList) Errors() []*UserError {
	result := make([]*UserError, len(l.errors))
	copy(result, l.errors)
	return result
}

// Error implements the error interface for ErrorList.
func (l *ErrorList) Error() string {
	if len(l.errors) == 0 {
		return ""
	}
	if len(l.errors) == 1 {
		return l.errors[0].Error()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d errors occurred:\n", len(l.errors))
	for i, err := range l.errors {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, err.Error())
	}
	return b.String()
}

// Format returns a detailed formatted output of all errors.
func (l *ErrorList) Format() string {
	if len(l.errors) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d error(s):\n", len(l.errors))
	for i, err := range l.errors {
		fmt.Fprintf(&b, "\n--- Error %d ---\n", i+1)
		b.WriteString(err.Format())
		b.WriteString("\n")
	}
	return b.String()
}

// AsError returns the ErrorList as an error, or nil if empty.
func (l *ErrorList) AsError() error {
	if !l.HasErrors() {
		return nil
	}
	return l
}

// NewConfigNotFoundError creates an error for a missing manifest file.
func NewConfigNotFoundError(path string) *UserError {
	return &UserError{
		Code:       ErrCodeConfigNotFound,
		Message:    fmt.Sprintf("manifest not found: %s", path),
		Context:    path,
		Suggestion: "Run 'provision init' to write the default manifest, or omit --manifest to use the built-in one.",
	}
}

// NewConfigParseError creates an error for YAML or TOML parsing failures.
func NewConfigParseError(path string, format Format, err error) *UserError {
	suggestion := "Check your YAML syntax. Common issues: incorrect indentation, missing colons, or unquoted special characters."
	if format == FormatTOML {
		suggestion = "Check your TOML syntax. Steps are declared as [[steps]] tables with nested [[steps.packages]] entries."
	}
	return &UserError{
		Code:       ErrCodeConfigParse,
		Message:    "failed to parse manifest",
		Context:    path,
		Suggestion: suggestion,
		Underlying: err,
	}
}

// NewUnsupportedFormatError creates an error for an unknown manifest extension.
func NewUnsupportedFormatError(path string) *UserError {
	return &UserError{
		Code:       ErrCodeConfigFormat,
		Message:    "unsupported manifest format",
		Context:    path,
		Suggestion: "Use a .yaml, .yml or .toml file.",
	}
}

// NewUnknownManagerError creates an error for a --manager value this build
// cannot drive.
func NewUnknownManagerError(name string) *UserError {
	return &UserError{
		Code:       ErrCodeUnknownManager,
		Message:    fmt.Sprintf("unknown package manager %q", name),
		Context:    "--manager",
		Suggestion: fmt.Sprintf("Use one of %v, or omit --manager to detect it.", KnownManagers),
	}
}
