package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures a caller is expected to handle
type ErrorKind string

const (
	KindNotFound   ErrorKind = "not_found"
	KindConflict   ErrorKind = "conflict"
	KindValidation ErrorKind = "validation"
	KindTransient  ErrorKind = "transient"
)

// Error is the typed failure returned across the service boundary
type Error struct {
	Kind    ErrorKind
	Entity  string
	ID      int64
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewNotFound reports that entity id does not exist
func NewNotFound(entity string, id int64) *Error {
	return &Error{
		Kind:    KindNotFound,
		Entity:  entity,
		ID:      id,
		Message: fmt.Sprintf("%s %d not found", entity, id),
	}
}

// NewConflict reports an integrity violation such as a duplicate key or a
// delete blocked by dependent rows
func NewConflict(entity, message string, err error) *Error {
	return &Error{Kind: KindConflict, Entity: entity, Message: message, Err: err}
}

// NewValidation reports malformed input
func NewValidation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// NewTransient reports that the store could not be reached in time
func NewTransient(err error) *Error {
	return &Error{Kind: KindTransient, Message: "store temporarily unavailable", Err: err}
}

// KindOf extracts the kind of a typed error anywhere in err's chain
func KindOf(err error) (ErrorKind, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return "", false
}

func IsNotFound(err error) bool   { return hasKind(err, KindNotFound) }
func IsConflict(err error) bool   { return hasKind(err, KindConflict) }
func IsValidation(err error) bool { return hasKind(err, KindValidation) }
func IsTransient(err error) bool  { return hasKind(err, KindTransient) }

func hasKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
