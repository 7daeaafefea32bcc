// Package xerr provides standardized error handling for erdgen.
// All errors carry stable, machine-readable codes, structured context, and
// support errors.Is/errors.As wrapping.
package xerr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Code represents a stable, machine-readable error code.
// Format: E{category}{number}. Warning codes use the x1xx range of their category.
type Code string

// Error and warning codes organized by category.
const (
	// Model errors (E1xxx) - problems with a model snapshot
	ErrModelInvalid     Code = "E1001" // Model is structurally invalid
	ErrEntityNotFound   Code = "E1002" // Referenced entity does not exist
	ErrDuplicateField   Code = "E1003" // Field name appears twice in one entity
	ErrMissingJoinTable Code = "E1004" // Many-to-many relation lacks a join table

	// Validation errors (E2xxx) - problems with user-supplied values
	ErrInvalidIdentifier Code = "E2001" // Name is not a safe SQL identifier
	ErrInvalidType       Code = "E2002" // Field type is not in the shared vocabulary
	ErrInvalidRule       Code = "E2003" // Validation rule kind is unknown
	ErrInvalidFKAction   Code = "E2004" // Foreign key action is not valid

	// Generation diagnostics (E3xxx) - DDL generator
	ErrGenerateFailed   Code = "E3001" // DDL generation failed
	WarnSkippedRelation Code = "E3101" // Relation skipped (dangling endpoint)

	// Import diagnostics (E4xxx) - OpenAPI importer
	ErrUnparsableDocument Code = "E4001" // Document is neither valid JSON nor YAML
	ErrNoVersionMarker    Code = "E4002" // Missing openapi/swagger version field
	WarnNoSchemas         Code = "E4101" // Document declares no schemas
	WarnSkippedSchema     Code = "E4102" // Schema is not an object type
	WarnNoUsableFields    Code = "E4103" // Schema had no usable properties
	WarnSkippedProperty   Code = "E4104" // Property node is null
	WarnDanglingReference Code = "E4105" // $ref points to a skipped or unknown schema

	// Config/server errors (E5xxx)
	ErrConfig Code = "E5001" // Configuration file is invalid
	ErrServer Code = "E5002" // HTTP facade failed
)

// Diagnostic is a non-fatal finding accumulated by the generator and the
// importer. Path points at the offending schema/property or relation.
type Diagnostic struct {
	Code    Code   `json:"code" yaml:"code"`
	Message string `json:"message" yaml:"message"`
	Path    string `json:"path,omitempty" yaml:"path,omitempty"`
}

// String renders the diagnostic in "[code] message (path)" form.
func (d Diagnostic) String() string {
	if d.Path != "" {
		return fmt.Sprintf("[%s] %s (%s)", d.Code, d.Message, d.Path)
	}
	return fmt.Sprintf("[%s] %s", d.Code, d.Message)
}

// Error is the standard error type for erdgen.
type Error struct {
	code    Code
	message string
	context map[string]any
	cause   error
}

// Error returns the formatted error string.
// Format:
//
//	[E1003] duplicate field name
//	  entity: Author
//	  field: name
func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.code, e.message)

	// Context keys are sorted for deterministic output.
	if len(e.context) > 0 {
		keys := make([]string, 0, len(e.context))
		for k := range e.context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "\n  %s: %v", k, e.context[k])
		}
	}

	if e.cause != nil {
		fmt.Fprintf(&b, "\n  cause: %v", e.cause)
	}
	return b.String()
}

// Unwrap returns the underlying cause error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.code == t.code
	}
	return false
}

// GetCode returns the error code.
func (e *Error) GetCode() Code {
	return e.code
}

// GetMessage returns the human-readable message without context.
func (e *Error) GetMessage() string {
	return e.message
}

// GetContext returns the structured context map.
func (e *Error) GetContext() map[string]any {
	return e.context
}

// With adds a key-value pair to the error context. Returns the error for chaining.
func (e *Error) With(key string, value any) *Error {
	if e.context == nil {
		e.context = make(map[string]any)
	}
	e.context[key] = value
	return e
}

// WithEntity adds entity context to the error.
func (e *Error) WithEntity(name string) *Error {
	return e.With("entity", name)
}

// WithField adds field context to the error.
func (e *Error) WithField(name string) *Error {
	return e.With("field", name)
}

// WithRelation adds relation context to the error.
func (e *Error) WithRelation(id string) *Error {
	return e.With("relation", id)
}

// WithPath adds a document path (schema/property pointer) to the error.
func (e *Error) WithPath(path string) *Error {
	return e.With("path", path)
}

// New creates a new Error with the given code and message.
func New(code Code, msg string) *Error {
	return &Error{code: code, message: msg, context: make(map[string]any)}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap creates a new Error that wraps an existing error.
func Wrap(code Code, err error, msg string) *Error {
	if err == nil {
		return New(code, msg)
	}
	return &Error{code: code, message: msg, context: make(map[string]any), cause: err}
}

// Wrapf creates a new Error that wraps an existing error with a formatted message.
func Wrapf(code Code, err error, format string, args ...any) *Error {
	return Wrap(code, err, fmt.Sprintf(format, args...))
}

// GetErrorCode extracts the error code from an error chain.
// Returns empty string if no code is found.
func GetErrorCode(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.code
	}
	return ""
}

// Is checks whether an error carries the specified code.
func Is(err error, code Code) bool {
	return GetErrorCode(err) == code
}
