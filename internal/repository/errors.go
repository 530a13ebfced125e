package repository

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidSortField is returned when a listing is asked to sort by a
	// column outside its whitelist
	ErrInvalidSortField = errors.New("invalid sort field")
)

// MissingReferenceError lists ids a write referenced that do not exist
type MissingReferenceError struct {
	Entity string
	IDs    []int64
	base   error
}

func (e *MissingReferenceError) Error() string {
	ids := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		ids[i] = fmt.Sprint(id)
	}
	return fmt.Sprintf("%s not found: %s", e.Entity, strings.Join(ids, ", "))
}

// Unwrap lets callers match the entity's not-found sentinel with errors.Is
func (e *MissingReferenceError) Unwrap() error {
	return e.base
}
