// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"fmt"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// UserID identifies a registered user (student or tutor).
// The identity collaborator owns the user records; the engine only needs
// a comparable, positive identifier.
type UserID int64

// IsValid checks if the user ID is valid (positive number).
func (u UserID) IsValid() bool {
	return u > 0
}

// Int64 returns the underlying int64 value.
func (u UserID) Int64() int64 {
	return int64(u)
}

// String returns the string representation.
func (u UserID) String() string {
	return fmt.Sprintf("%d", u)
}

// NewUserID creates a new UserID with validation.
func NewUserID(id int64) (UserID, error) {
	if id <= 0 {
		return 0, NewDomainError("shared", "NewUserID", ErrInvalidID, "user id must be positive")
	}
	return UserID(id), nil
}

// QuestionID identifies a community question.
type QuestionID int64

// IsValid checks if the question ID is valid.
func (q QuestionID) IsValid() bool {
	return q > 0
}

// Int64 returns the underlying int64 value.
func (q QuestionID) Int64() int64 {
	return int64(q)
}

// String returns the string representation.
func (q QuestionID) String() string {
	return fmt.Sprintf("%d", q)
}

// AnswerID identifies an answer on a question.
type AnswerID int64

// IsValid checks if the answer ID is valid.
func (a AnswerID) IsValid() bool {
	return a > 0
}

// Int64 returns the underlying int64 value.
func (a AnswerID) Int64() int64 {
	return int64(a)
}

// String returns the string representation.
func (a AnswerID) String() string {
	return fmt.Sprintf("%d", a)
}

// SubjectID identifies a teaching subject from the reference catalog.
type SubjectID int64

// IsValid checks if the subject ID is valid.
func (s SubjectID) IsValid() bool {
	return s > 0
}

// RegionID identifies a region from the reference catalog.
// Zero means "no region filter".
type RegionID int64

// IsValid checks if the region ID is valid for filtering.
func (r RegionID) IsValid() bool {
	return r > 0
}

// IsZero reports whether the region is unset.
func (r RegionID) IsZero() bool {
	return r == 0
}

// ═══════════════════════════════════════════════════════════════════════════
// Pagination
// ═══════════════════════════════════════════════════════════════════════════

// Pagination limits.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page describes an offset/limit window over an ordered result set.
type Page struct {
	Offset int
	Limit  int
}

// NewPage builds a Page, normalizing out-of-range values.
func NewPage(offset, limit int) Page {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return Page{Offset: offset, Limit: limit}
}

// Validate checks the raw page values before normalization.
func (p Page) Validate() error {
	if p.Offset < 0 {
		return NewDomainError("shared", "Page", ErrNegativeValue, "offset cannot be negative")
	}
	if p.Limit < 0 {
		return NewDomainError("shared", "Page", ErrNegativeValue, "limit cannot be negative")
	}
	return nil
}

// Normalize returns a Page with defaults applied.
func (p Page) Normalize() Page {
	return NewPage(p.Offset, p.Limit)
}

// Slice applies the page window to a slice length and returns [from, to).
func (p Page) Slice(total int) (int, int) {
	from := p.Offset
	if from > total {
		from = total
	}
	to := from + p.Limit
	if to > total {
		to = total
	}
	return from, to
}
