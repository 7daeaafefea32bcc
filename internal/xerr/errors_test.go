package xerr

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorFormat(t *testing.T) {
	err := New(ErrDuplicateField, "duplicate field name").
		WithEntity("Author").
		WithField("name")

	got := err.Error()
	if !strings.HasPrefix(got, "[E1003] duplicate field name") {
		t.Errorf("Error() = %q, want prefix %q", got, "[E1003] duplicate field name")
	}
	// Context keys render sorted: entity before field.
	entityIdx := strings.Index(got, "entity: Author")
	fieldIdx := strings.Index(got, "field: name")
	if entityIdx < 0 || fieldIdx < 0 {
		t.Fatalf("Error() missing context: %q", got)
	}
	if entityIdx > fieldIdx {
		t.Errorf("context keys not sorted: %q", got)
	}
}

func TestErrorFormatDeterministic(t *testing.T) {
	mk := func() string {
		return New(ErrModelInvalid, "bad model").
			With("b", 2).
			With("a", 1).
			With("c", 3).
			Error()
	}
	first := mk()
	for i := 0; i < 10; i++ {
		if got := mk(); got != first {
			t.Fatalf("Error() not deterministic: %q vs %q", got, first)
		}
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := Wrap(ErrGenerateFailed, cause, "generation failed")

	if !errors.Is(err, cause) {
		t.Error("errors.Is should match wrapped cause")
	}
	if !strings.Contains(err.Error(), "cause: boom") {
		t.Errorf("Error() should include cause: %q", err.Error())
	}
}

func TestWrapNil(t *testing.T) {
	err := Wrap(ErrConfig, nil, "no cause")
	if err.Unwrap() != nil {
		t.Error("Wrap(nil) should have no cause")
	}
}

func TestIsByCode(t *testing.T) {
	err := New(ErrInvalidType, "unknown type")
	wrapped := fmt.Errorf("outer: %w", err)

	if !Is(wrapped, ErrInvalidType) {
		t.Error("Is should find code through wrapping")
	}
	if Is(wrapped, ErrInvalidRule) {
		t.Error("Is should not match a different code")
	}
	if !errors.Is(wrapped, New(ErrInvalidType, "other message")) {
		t.Error("errors.Is should match on code, not message")
	}
}

func TestGetErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"nil", nil, ""},
		{"plain", fmt.Errorf("plain"), ""},
		{"coded", New(ErrNoVersionMarker, "missing marker"), ErrNoVersionMarker},
		{"wrapped", fmt.Errorf("outer: %w", New(ErrUnparsableDocument, "bad json")), ErrUnparsableDocument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetErrorCode(tt.err); got != tt.want {
				t.Errorf("GetErrorCode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDiagnosticString(t *testing.T) {
	tests := []struct {
		name string
		d    Diagnostic
		want string
	}{
		{
			"with path",
			Diagnostic{Code: WarnSkippedSchema, Message: "schema is not an object", Path: "components.schemas.Tag"},
			"[E4102] schema is not an object (components.schemas.Tag)",
		},
		{
			"without path",
			Diagnostic{Code: ErrNoVersionMarker, Message: "missing version marker"},
			"[E4002] missing version marker",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.d.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
