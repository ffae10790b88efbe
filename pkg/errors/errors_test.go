package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestSchemaError(t *testing.T) {
	tests := []struct {
		name string
		err  *SchemaError
		want string
	}{
		{
			name: "with lab and field",
			err:  NewSchemaError("lab-a", "levels", "empty level sequence"),
			want: "schema error in record lab-a, field levels: empty level sequence",
		},
		{
			name: "with lab only",
			err:  &SchemaError{LabID: "lab-a", Message: "duplicate lab id"},
			want: "schema error in record lab-a: duplicate lab id",
		},
		{
			name: "bare",
			err:  &SchemaError{Message: "no records"},
			want: "schema error: no records",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
			if !errors.Is(tt.err, ErrInvalidInput) {
				t.Error("SchemaError should match ErrInvalidInput")
			}
		})
	}
}

func TestPrecedingValidationError(t *testing.T) {
	err := NewPrecedingValidationError("gap detector", "snapshot is nil")
	want := "gap detector invoked on unvalidated input: snapshot is nil"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !IsUnvalidatedInput(err) {
		t.Error("IsUnvalidatedInput should be true for PrecedingValidationError")
	}
	if IsUnvalidatedInput(ErrInvalidInput) {
		t.Error("IsUnvalidatedInput should be false for ErrInvalidInput")
	}
}

func TestErrorChecking(t *testing.T) {
	schemaErr := NewSchemaError("lab-b", "ordinal_position", "not strictly increasing")

	if !IsSchemaError(schemaErr) {
		t.Error("IsSchemaError should be true for SchemaError")
	}
	if !IsValidationError(schemaErr) {
		t.Error("IsValidationError should be true for SchemaError")
	}
	if IsSchemaError(errors.New("plain")) {
		t.Error("IsSchemaError should be false for plain errors")
	}

	wrapped := fmt.Errorf("run failed: %w", schemaErr)
	if !IsSchemaError(wrapped) {
		t.Error("IsSchemaError should unwrap wrapped errors")
	}
}

func TestWrapHelpers(t *testing.T) {
	if WrapParse("yaml", "records.yaml", nil) != nil {
		t.Error("WrapParse(nil) should return nil")
	}
	if WrapIO("read", "records.yaml", nil) != nil {
		t.Error("WrapIO(nil) should return nil")
	}

	underlying := errors.New("unexpected node")
	err := WrapParse("yaml", "records.yaml", underlying)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatal("WrapParse should produce a ParseError")
	}
	if !errors.Is(err, underlying) {
		t.Error("ParseError should unwrap to the underlying error")
	}
}
