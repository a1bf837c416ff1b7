package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"course-enrollment-backend/internal/enroll"
	"course-enrollment-backend/internal/model"
)

// ErrInvalidCourse wraps course field validation failures.
var ErrInvalidCourse = errors.New("invalid course")

// CourseFilter narrows a catalog listing. Zero values mean "no filter".
type CourseFilter struct {
	Search          string // matched against code and name
	MinCredits      int
	MaxCredits      int
	StartsAtOrAfter int // minutes since midnight
	EndsAtOrBefore  int
	IncludeInactive bool
}

// CreateCourse validates and stores a new catalog course.
func (s *gormStore) CreateCourse(ctx context.Context, course *model.Course) error {
	if err := course.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCourse, err)
	}
	if err := s.db.WithContext(ctx).Create(course).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateCourseCode
		}
		return wrapInfra(err)
	}
	return nil
}

// UpdateCourse rewrites an existing course's editable fields.
func (s *gormStore) UpdateCourse(ctx context.Context, course *model.Course) error {
	if err := course.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCourse, err)
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Course
		if err := tx.WithContext(ctx).First(&existing, course.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return enroll.ErrCourseNotFound
			}
			return err
		}

		existing.Code = course.Code
		existing.Name = course.Name
		existing.Credits = course.Credits
		existing.MaxCapacity = course.MaxCapacity
		existing.StartMinute = course.StartMinute
		existing.EndMinute = course.EndMinute
		existing.Active = course.Active

		if err := tx.WithContext(ctx).Save(&existing).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateCourseCode
			}
			return err
		}
		*course = existing
		return nil
	})
	return wrapInfra(err)
}

// DeactivateCourse blocks new enrollments for a course. Courses are never
// deleted while enrollments reference them; existing enrollments stay
// readable.
func (s *gormStore) DeactivateCourse(ctx context.Context, id int64) error {
	result := s.db.WithContext(ctx).
		Model(&model.Course{}).
		Where("id = ?", id).
		Update("active", false)
	if result.Error != nil {
		return wrapInfra(result.Error)
	}
	if result.RowsAffected == 0 {
		return enroll.ErrCourseNotFound
	}
	return nil
}

// CourseByID fetches a course regardless of its active flag.
func (s *gormStore) CourseByID(ctx context.Context, id int64) (*model.Course, error) {
	var course model.Course
	err := s.db.WithContext(ctx).First(&course, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, enroll.ErrCourseNotFound
	}
	if err != nil {
		return nil, wrapInfra(err)
	}
	return &course, nil
}

// ListCourses returns the catalog, filtered.
func (s *gormStore) ListCourses(ctx context.Context, filter CourseFilter) ([]model.Course, error) {
	q := s.db.WithContext(ctx).Model(&model.Course{}).Order("code")
	if !filter.IncludeInactive {
		q = q.Where("active")
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("name LIKE ? OR code LIKE ?", like, like)
	}
	if filter.MinCredits > 0 {
		q = q.Where("credits >= ?", filter.MinCredits)
	}
	if filter.MaxCredits > 0 {
		q = q.Where("credits <= ?", filter.MaxCredits)
	}
	if filter.StartsAtOrAfter > 0 {
		q = q.Where("start_minute >= ?", filter.StartsAtOrAfter)
	}
	if filter.EndsAtOrBefore > 0 {
		q = q.Where("end_minute <= ?", filter.EndsAtOrBefore)
	}

	var courses []model.Course
	if err := q.Find(&courses).Error; err != nil {
		return nil, wrapInfra(err)
	}
	return courses, nil
}
