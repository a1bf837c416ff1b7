package model

import "time"

// EnrollmentState is the lifecycle state of an enrollment.
type EnrollmentState string

const (
	StatePending   EnrollmentState = "Pending"
	StateConfirmed EnrollmentState = "Confirmed"
	StateCancelled EnrollmentState = "Cancelled"
)

// Valid reports whether s is one of the known lifecycle states.
func (s EnrollmentState) Valid() bool {
	return s == StatePending || s == StateConfirmed || s == StateCancelled
}

// Terminal reports whether no further transitions are allowed from s.
func (s EnrollmentState) Terminal() bool {
	return s == StateCancelled
}

// CanTransitionTo reports whether the lifecycle permits moving from s to
// next. Allowed: Pending→Confirmed, Pending→Cancelled, Confirmed→Cancelled.
func (s EnrollmentState) CanTransitionTo(next EnrollmentState) bool {
	switch s {
	case StatePending:
		return next == StateConfirmed || next == StateCancelled
	case StateConfirmed:
		return next == StateCancelled
	default:
		return false
	}
}

// Enrollment ties a user to a course. At most one non-cancelled
// enrollment may exist per (course, user) pair; the partial unique index
// created in db.Init enforces this at the storage layer.
type Enrollment struct {
	ID        int64           `gorm:"primaryKey" json:"id"`
	CourseID  int64           `gorm:"index;not null" json:"course_id"`
	UserID    string          `gorm:"index;size:36;not null" json:"user_id"`
	State     EnrollmentState `gorm:"size:16;not null" json:"state"`
	CreatedAt time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`

	// Associations
	Course Course `gorm:"constraint:OnDelete:RESTRICT" json:"course,omitzero"`
}
