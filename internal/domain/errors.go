package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCourseKey is returned when a course identifier cannot be parsed.
	ErrInvalidCourseKey = errors.New("invalid course key")
	// ErrNoEnrolledUsers means a course has no users matching the requested role.
	ErrNoEnrolledUsers = errors.New("no enrolled users")
	// ErrNoStaffUser means a course has no active staff enrollment to read its structure with.
	ErrNoStaffUser = errors.New("no staff user")
	// ErrUnresolvedCompletion means a completed block could not be placed under any unit.
	ErrUnresolvedCompletion = errors.New("completion not resolvable to a unit")
)

// MissingBlockError reports a child reference absent from the block catalog.
type MissingBlockError struct {
	BlockID  string
	ParentID string
}

func (e *MissingBlockError) Error() string {
	if e.ParentID == "" {
		return fmt.Sprintf("block %q missing from catalog", e.BlockID)
	}
	return fmt.Sprintf("block %q referenced by %q missing from catalog", e.BlockID, e.ParentID)
}
