package dashboard

import (
	"errors"
	"fmt"
)

// ValidationError reports a malformed or empty user-supplied field. State is unchanged.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// NotFoundError reports an operation that referenced an absent id or date. State is unchanged.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// IsValidation reports whether err is, or wraps, a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is, or wraps, a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

func notFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}
