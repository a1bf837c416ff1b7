// Package enroll implements the enrollment admission engine: the ordered
// checks that decide whether a student may take a seat in a course, and
// the lifecycle rules for coordinator transitions.
package enroll

import (
	"context"
	"time"

	"course-enrollment-backend/internal/model"
)

// Actor identifies the caller of an admission request.
type Actor struct {
	ID   string
	Role model.Role
}

// Catalog is the read/write surface the engine needs from storage. The
// store implements it inside a transaction so the check-then-commit
// sequence is atomic; tests implement it in memory.
type Catalog interface {
	// ActiveCourse returns the course when it exists and is active,
	// (nil, nil) otherwise.
	ActiveCourse(ctx context.Context, courseID int64) (*model.Course, error)
	// SeatHoldingCount counts enrollments for the course in any of the
	// given states.
	SeatHoldingCount(ctx context.Context, courseID int64, states []model.EnrollmentState) (int64, error)
	// UserSeatHolding lists the user's enrollments in the given states,
	// with each enrollment's course populated.
	UserSeatHolding(ctx context.Context, userID string, states []model.EnrollmentState) ([]model.Enrollment, error)
	// HasActiveEnrollment reports whether a non-cancelled enrollment
	// exists for the (user, course) pair.
	HasActiveEnrollment(ctx context.Context, userID string, courseID int64) (bool, error)
	// CreateEnrollment persists the enrollment. Implementations must map
	// a uniqueness violation on (course_id, user_id) to ErrAlreadyEnrolled.
	CreateEnrollment(ctx context.Context, e *model.Enrollment) error
}

// Engine evaluates admission requests against a Policy.
type Engine struct {
	policy Policy
}

// NewEngine creates an admission engine with the given policy.
func NewEngine(policy Policy) *Engine {
	return &Engine{policy: policy}
}

// Policy returns the engine's admission policy.
func (e *Engine) Policy() Policy {
	return e.policy
}

// TryEnroll runs the admission checks in order, short-circuiting on the
// first failure, and creates the enrollment on success. The caller is
// responsible for running it against a transactional Catalog; see
// store.TryEnroll.
func (e *Engine) TryEnroll(ctx context.Context, cat Catalog, actor Actor, courseID int64) (*model.Enrollment, error) {
	if actor.ID == "" {
		return nil, ErrUnauthenticated
	}
	if actor.Role == model.RoleCoordinator {
		return nil, ErrForbidden
	}

	course, err := cat.ActiveCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, ErrCourseNotFound
	}

	enrolled, err := cat.HasActiveEnrollment(ctx, actor.ID, courseID)
	if err != nil {
		return nil, err
	}
	if enrolled {
		return nil, ErrAlreadyEnrolled
	}

	held, err := cat.SeatHoldingCount(ctx, courseID, e.policy.SeatHoldingStates())
	if err != nil {
		return nil, err
	}
	if held >= int64(course.MaxCapacity) {
		return nil, ErrCourseFull
	}

	mine, err := cat.UserSeatHolding(ctx, actor.ID, e.policy.SeatHoldingStates())
	if err != nil {
		return nil, err
	}
	for i := range mine {
		if course.Overlaps(&mine[i].Course) {
			return nil, &ConflictError{
				CourseID:   mine[i].Course.ID,
				CourseCode: mine[i].Course.Code,
			}
		}
	}

	enrollment := &model.Enrollment{
		CourseID:  courseID,
		UserID:    actor.ID,
		State:     e.policy.InitialState(),
		CreatedAt: time.Now().UTC(),
	}
	if err := cat.CreateEnrollment(ctx, enrollment); err != nil {
		return nil, err
	}
	return enrollment, nil
}

// ValidateTransition checks a coordinator state change against the
// lifecycle rules. Capacity re-validation on confirm happens in the
// store, inside the same transaction as the update.
func ValidateTransition(current, next model.EnrollmentState) error {
	if !next.Valid() || next == model.StatePending {
		return ErrInvalidTransition
	}
	if !current.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	return nil
}
