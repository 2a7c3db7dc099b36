package utils

import (
	"errors"
	"fmt"
	"strings"
)

var ErrorRecordNotFound = errors.New("record not found")

// ErrorTenantRequired is returned when no tenant id is attached to the request context.
var ErrorTenantRequired = errors.New("tenant context is required")

var ErrorForbidden = errors.New("forbidden")

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

func (v *ValidationError) Error() string {
	if v == nil || len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(v.FieldErrors))
	for field, msg := range v.FieldErrors {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (v *ValidationError) Add(field, message string) *ValidationError {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
	return v
}

func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

func NewValidationError(field, message string) *ValidationError {
	return (&ValidationError{}).Add(field, message)
}

// ConflictDetail identifies one existing booking that collides with a request.
type ConflictDetail struct {
	ReservationId int    `json:"reservation_id"`
	OrderNumber   string `json:"order_number"`
	ResourceId    int    `json:"resource_id"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
}

// ConflictError is returned when a requested or auto-selected resource has an
// overlapping active booking. Conflicts lists every collision for diagnostics.
type ConflictError struct {
	Message   string           `json:"message"`
	Conflicts []ConflictDetail `json:"conflicts"`
}

func (c *ConflictError) Error() string {
	if c == nil {
		return "booking conflict"
	}
	if len(c.Conflicts) == 0 {
		return c.Message
	}
	return fmt.Sprintf("%s (%d conflicting reservations)", c.Message, len(c.Conflicts))
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrorRecordNotFound)
}

func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}

func AsConflictError(err error) (*ConflictError, bool) {
	var ce *ConflictError
	ok := errors.As(err, &ce)
	return ce, ok
}
