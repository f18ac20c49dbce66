package apperr

import "fmt"

// ValidationError — malformed input; carries the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// DomainError — business-rule violation; never retried automatically.
type DomainError struct {
	Reason string
}

func (e *DomainError) Error() string { return "domain: " + e.Reason }

func Domain(format string, args ...any) error {
	return &DomainError{Reason: fmt.Sprintf(format, args...)}
}

// NotFoundError — a referenced row does not exist.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func NotFound(entity string, id int64) error {
	return &NotFoundError{Entity: entity, ID: id}
}
