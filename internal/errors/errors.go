package errors

import (
	"fmt"
	"io/fs"
	"strings"

	cerr "github.com/cockroachdb/errors"
)

// Kind classifies a ScrubError. Every kind belongs to the single
// ErrOperationFailed class; the kind only sharpens log output.
type Kind int

const (
	KindIO Kind = iota
	KindParse
	KindConfig
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindParse:
		return "parse"
	case KindConfig:
		return "config"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// ErrOperationFailed matches every ScrubError via errors.Is.
var ErrOperationFailed = cerr.New("operation failed")

// ScrubError represents a structured error with context and suggestions
type ScrubError struct {
	Kind        Kind
	Operation   string   // What operation was being performed
	Component   string   // Which component failed (config, file system, document)
	Issue       string   // The core issue description
	Context     string   // Additional context about the failure
	Suggestions []string // List of actionable suggestions to fix the issue
	Cause       error    // Underlying error that caused this
}

// Error renders a single line. Detail carries the long form.
func (e *ScrubError) Error() string {
	var b strings.Builder

	switch {
	case e.Operation != "":
		b.WriteString(e.Operation)
		b.WriteString(" failed")
	default:
		b.WriteString("operation failed")
	}

	if e.Issue != "" {
		b.WriteString(": ")
		b.WriteString(e.Issue)
	}

	if e.Cause != nil {
		cause := e.Cause.Error()
		if cause != e.Issue {
			b.WriteString(": ")
			b.WriteString(cause)
		}
	}

	return strings.ReplaceAll(b.String(), "\n", " ")
}

// Detail renders the multi-line form with context and numbered suggestions.
func (e *ScrubError) Detail() string {
	var parts []string

	if e.Operation != "" && e.Component != "" {
		parts = append(parts, fmt.Sprintf("ERROR: %s failed in %s", e.Operation, e.Component))
	} else if e.Operation != "" {
		parts = append(parts, fmt.Sprintf("ERROR: %s failed", e.Operation))
	} else {
		parts = append(parts, "ERROR: Operation failed")
	}

	if e.Issue != "" {
		parts = append(parts, fmt.Sprintf("  Issue: %s", e.Issue))
	}

	if e.Context != "" {
		parts = append(parts, fmt.Sprintf("  Context: %s", e.Context))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("  Cause: %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		parts = append(parts, "")
		parts = append(parts, "  Suggestions:")
		for i, suggestion := range e.Suggestions {
			parts = append(parts, fmt.Sprintf("  %d. %s", i+1, suggestion))
		}
	}

	return strings.Join(parts, "\n")
}

func (e *ScrubError) Unwrap() error {
	return e.Cause
}

// Is reports membership in the coarse ErrOperationFailed class.
func (e *ScrubError) Is(target error) bool {
	return target == ErrOperationFailed
}

// Error constructors for common scenarios

// ConfigError creates errors related to loading the built-in configuration
func ConfigError(operation, issue string, cause error) *ScrubError {
	return &ScrubError{
		Kind:      KindConfig,
		Operation: operation,
		Component: "configuration",
		Issue:     issue,
		Cause:     withStack(cause),
	}
}

// ParseError creates errors for documents that are not valid JSON text
func ParseError(path, issue string, cause error) *ScrubError {
	return &ScrubError{
		Kind:      KindParse,
		Operation: "Parsing document",
		Component: "document",
		Issue:     issue,
		Context:   fmt.Sprintf("Document: %s", path),
		Suggestions: []string{
			fmt.Sprintf("Check the file is valid JSON: python3 -m json.tool '%s'", path),
			"Remove comments and trailing commas, which JSON does not allow",
		},
		Cause: withStack(cause),
	}
}

// FileOperationError creates errors for file system operations
func FileOperationError(operation, path, issue string, cause error) *ScrubError {
	suggestions := []string{}

	switch {
	case cerr.Is(cause, fs.ErrPermission) || strings.Contains(issue, "permission denied"):
		suggestions = append(suggestions,
			fmt.Sprintf("Check read and write permissions on '%s'", path),
			fmt.Sprintf("Check parent directory permissions: ls -la '%s'", getDirPath(path)),
		)
	case cerr.Is(cause, fs.ErrNotExist) || strings.Contains(issue, "no such file or directory"):
		suggestions = append(suggestions,
			"Run the tool from the repository root",
			fmt.Sprintf("Verify the path is correct: '%s'", path),
		)
	case strings.Contains(issue, "disk") || strings.Contains(issue, "space"):
		suggestions = append(suggestions,
			"Check available disk space: df -h",
			"Clean up temporary files if needed",
		)
	}

	return &ScrubError{
		Kind:        KindIO,
		Operation:   operation,
		Component:   "file system",
		Issue:       issue,
		Context:     fmt.Sprintf("Target path: %s", path),
		Suggestions: suggestions,
		Cause:       withStack(cause),
	}
}

// ConfigValidationError creates detailed validation errors with suggestions
func ConfigValidationError(field, value, issue string, suggestions []string) *ScrubError {
	return &ScrubError{
		Kind:        KindValidation,
		Operation:   "Configuration validation",
		Component:   "configuration",
		Issue:       issue,
		Context:     fmt.Sprintf("Field '%s' has value '%s'", field, value),
		Suggestions: suggestions,
	}
}

// ValidationError creates general validation errors
func ValidationError(operation, field, value, expectedFormat string) *ScrubError {
	return &ScrubError{
		Kind:      KindValidation,
		Operation: operation,
		Component: "validation",
		Issue:     fmt.Sprintf("Invalid value '%s' for field '%s'", value, field),
		Context:   fmt.Sprintf("Expected format: %s", expectedFormat),
		Suggestions: []string{
			fmt.Sprintf("Update field '%s' to match the expected format", field),
		},
	}
}

// WrapWithSuggestions wraps an error and adds suggestions
func WrapWithSuggestions(err error, operation, component string, suggestions []string) error {
	if err == nil {
		return nil
	}

	return &ScrubError{
		Kind:        kindOf(err),
		Operation:   operation,
		Component:   component,
		Issue:       err.Error(),
		Suggestions: suggestions,
		Cause:       err,
	}
}

// KindOf returns the kind of the outermost ScrubError in err's chain.
func KindOf(err error) (Kind, bool) {
	var se *ScrubError
	if cerr.As(err, &se) {
		return se.Kind, true
	}
	return 0, false
}

// Hints collects the suggestions and attached hints along err's chain.
func Hints(err error) []string {
	var hints []string
	for e := err; e != nil; e = cerr.UnwrapOnce(e) {
		if se, ok := e.(*ScrubError); ok {
			hints = append(hints, se.Suggestions...)
		}
	}
	return append(hints, cerr.GetAllHints(err)...)
}

// Helper functions

func kindOf(err error) Kind {
	if k, ok := KindOf(err); ok {
		return k
	}
	return KindIO
}

func withStack(err error) error {
	if err == nil {
		return nil
	}
	return cerr.WithStackDepth(err, 1)
}

func getDirPath(filePath string) string {
	lastSlash := strings.LastIndex(filePath, "/")
	if lastSlash == -1 {
		return "."
	}
	if lastSlash == 0 {
		return "/"
	}
	return filePath[:lastSlash]
}
