package enroll

import (
	"errors"
	"fmt"
)

// Domain outcomes of the admission engine and the coordinator transition.
// Everything here is recoverable by the caller; ErrStorageUnavailable is
// the one infrastructure fault and is never retried internally.
var (
	ErrUnauthenticated    = errors.New("authentication required")
	ErrForbidden          = errors.New("operation not permitted for this role")
	ErrCourseNotFound     = errors.New("course not found or inactive")
	ErrAlreadyEnrolled    = errors.New("active enrollment for this course already exists")
	ErrCourseFull         = errors.New("course has reached its maximum capacity")
	ErrScheduleConflict   = errors.New("schedule conflict")
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	ErrInvalidTransition  = errors.New("enrollment state transition not allowed")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ConflictError carries the course whose meeting time collides with the
// requested one. It unwraps to ErrScheduleConflict.
type ConflictError struct {
	CourseID   int64
	CourseCode string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("schedule conflicts with course %s", e.CourseCode)
}

func (e *ConflictError) Unwrap() error {
	return ErrScheduleConflict
}
