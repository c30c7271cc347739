package entity

import (
	"errors"
	"fmt"
)

// Declaration error codes (E201-E210).
const (
	ErrCodeDuplicateType  = "E201" // entity name invalid or already declared
	ErrCodeIncomplete     = "E202" // some but not all metadata pieces declared
	ErrCodeTableName      = "E203" // table name empty or not an identifier
	ErrCodeTableMeta      = "E204" // table meta empty or malformed
	ErrCodePrimaryKey     = "E205" // primary key empty, unknown or nullable column
	ErrCodeForeignKeys    = "E206" // foreign key mapping malformed
	ErrCodeUnknownParent  = "E207" // extends names an undeclared type
	ErrCodeShapeConflict  = "E208" // shape does not refine the parent's shape
	ErrCodeShapeViolation = "E209" // taxonomy rule violated
	ErrCodeStructural     = "E210" // frozen-set or attribute contract violated
)

// DeclarationError reports a malformed entity declaration.
// It is always fatal to the declared type.
type DeclarationError struct {
	Code    string `json:"code"`
	Type    string `json:"type"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *DeclarationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s.%s: %s", e.Code, e.Type, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Type, e.Message)
}

// IsDeclarationError reports whether err carries a *DeclarationError.
func IsDeclarationError(err error) bool {
	var de *DeclarationError
	return errors.As(err, &de)
}

// DeclarationErrors flattens err into its *DeclarationError parts.
func DeclarationErrors(err error) []*DeclarationError {
	if err == nil {
		return nil
	}
	var out []*DeclarationError
	var walk func(error)
	walk = func(e error) {
		if de, ok := e.(*DeclarationError); ok {
			out = append(out, de)
			return
		}
		if j, ok := e.(interface{ Unwrap() []error }); ok {
			for _, inner := range j.Unwrap() {
				walk(inner)
			}
			return
		}
		if inner := errors.Unwrap(e); inner != nil {
			walk(inner)
		}
	}
	walk(err)
	return out
}

// DeclarationCodes returns the codes carried by err, in order.
func DeclarationCodes(err error) []string {
	var codes []string
	for _, de := range DeclarationErrors(err) {
		codes = append(codes, de.Code)
	}
	return codes
}

// Call-time error kinds. Wrapped by *FieldError or fmt.Errorf; match with errors.Is.
var (
	ErrUnknownField          = errors.New("unknown field")
	ErrMissingRequiredField  = errors.New("missing required field")
	ErrMissingRequiredFields = errors.New("missing required fields")
	ErrTypeMismatch          = errors.New("type mismatch")
	ErrPrimaryKeyUnset       = errors.New("primary key cannot be unset")
	ErrNoHandle              = errors.New("database handle is required")
	ErrImmutableAssociation  = errors.New("association entities are insert-only")
	ErrAbstractType          = errors.New("abstract entity type")
	ErrWrongShape            = errors.New("operation not available for entity shape")
	ErrFrozenAttribute       = errors.New("attribute is frozen")
	ErrUnknownAttribute      = errors.New("unknown attribute")
	ErrNoRelationship        = errors.New("no foreign key relationship")
	ErrNotFound              = errors.New("row not found")
)

// FieldError is a call-time error on one field of one entity type.
type FieldError struct {
	Kind    error
	Type    string
	Field   string
	Message string
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	msg := fmt.Sprintf("%s.%s: %v", e.Type, e.Field, e.Kind)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Unwrap exposes Kind to errors.Is.
func (e *FieldError) Unwrap() error {
	return e.Kind
}

func fieldErr(kind error, t *Type, field, format string, args ...any) *FieldError {
	return &FieldError{
		Kind:    kind,
		Type:    t.Name(),
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}
