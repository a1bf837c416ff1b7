package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"course-enrollment-backend/internal/enroll"
	"course-enrollment-backend/internal/model"
)

// Store-level uniqueness errors surfaced by the write paths.
var (
	ErrEmailExists         = errors.New("email already registered")
	ErrDuplicateCourseCode = errors.New("course code already exists")
)

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB

	// Users
	CreateUser(ctx context.Context, user *model.User) error
	UserByEmail(ctx context.Context, email string) (*model.User, error)
	UserByID(ctx context.Context, id string) (*model.User, error)

	// Course catalog
	CreateCourse(ctx context.Context, course *model.Course) error
	UpdateCourse(ctx context.Context, course *model.Course) error
	DeactivateCourse(ctx context.Context, id int64) error
	CourseByID(ctx context.Context, id int64) (*model.Course, error)
	ListCourses(ctx context.Context, filter CourseFilter) ([]model.Course, error)

	// Enrollments
	TryEnroll(ctx context.Context, actor enroll.Actor, courseID int64) (*model.Enrollment, error)
	SetEnrollmentState(ctx context.Context, id int64, next model.EnrollmentState) (*model.Enrollment, error)
	CancelOwn(ctx context.Context, userID string, id int64) (*model.Enrollment, error)
	EnrollmentByID(ctx context.Context, id int64) (*model.Enrollment, error)
	ListEnrollments(ctx context.Context, userID string) ([]model.Enrollment, error)
	ExpirePending(ctx context.Context, olderThan time.Time) ([]int64, error)

	// Push subscriptions
	UpsertSubscription(ctx context.Context, sub *model.PushSubscription) error
	SubscriptionByEndpoint(ctx context.Context, endpoint string) (*model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, userID, endpoint string) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db     *gorm.DB
	engine *enroll.Engine
}

// NewGormStore creates a new GORM-backed store running admission through
// the given engine.
func NewGormStore(db *gorm.DB, engine *enroll.Engine) Store {
	return &gormStore{db: db, engine: engine}
}

// DB exposes the underlying handle for read-only query composition.
func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// domainErrs lists every outcome the caller is expected to handle.
// Anything else leaving the store is an infrastructure fault.
var domainErrs = []error{
	enroll.ErrUnauthenticated,
	enroll.ErrForbidden,
	enroll.ErrCourseNotFound,
	enroll.ErrAlreadyEnrolled,
	enroll.ErrCourseFull,
	enroll.ErrScheduleConflict,
	enroll.ErrEnrollmentNotFound,
	enroll.ErrInvalidTransition,
	ErrEmailExists,
	ErrDuplicateCourseCode,
	ErrInvalidCourse,
}

// wrapInfra passes domain outcomes through untouched and tags everything
// else as a storage fault.
func wrapInfra(err error) error {
	if err == nil {
		return nil
	}
	for _, domain := range domainErrs {
		if errors.Is(err, domain) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", enroll.ErrStorageUnavailable, err)
}
