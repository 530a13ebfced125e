package domain

import (
	"fmt"
	"math"
	"strings"
)

const (
	DefaultPageSize = 12
	MaxPageSize     = 100
)

// Direction is a sort direction
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// ParseDirection accepts asc/desc in any case; empty means ascending
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "ASC":
		return Asc, nil
	case "DESC":
		return Desc, nil
	default:
		return "", NewValidation(fmt.Sprintf("invalid sort direction %q", s))
	}
}

// Sort orders a listing by a single field
type Sort struct {
	Field     string
	Direction Direction
}

// PageRequest selects a 0-based page of a listing
type PageRequest struct {
	Page int
	Size int
	Sort Sort
}

// Offset is the number of rows skipped before the page starts
func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// Validate rejects page indexes and sizes no listing can serve
func (p PageRequest) Validate() error {
	if p.Page < 0 {
		return NewValidation(fmt.Sprintf("page index must not be negative, got %d", p.Page))
	}
	if p.Size < 1 || p.Size > MaxPageSize {
		return NewValidation(fmt.Sprintf("page size must be between 1 and %d, got %d", MaxPageSize, p.Size))
	}
	// keeps Offset from overflowing
	if p.Page > math.MaxInt/p.Size {
		return NewValidation(fmt.Sprintf("page index %d is out of range for size %d", p.Page, p.Size))
	}
	if p.Sort.Direction != "" && p.Sort.Direction != Asc && p.Sort.Direction != Desc {
		return NewValidation(fmt.Sprintf("invalid sort direction %q", p.Sort.Direction))
	}
	return nil
}
