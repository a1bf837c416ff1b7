package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"course-enrollment-backend/internal/enroll"
	"course-enrollment-backend/internal/model"
)

// txCatalog adapts a transaction handle to the admission engine's Catalog
// interface. All reads and the final insert run on the same transaction,
// so the check-then-commit sequence of TryEnroll is atomic.
type txCatalog struct {
	tx *gorm.DB
}

// lockForUpdate takes a row lock where the dialect supports it. Sqlite has
// no FOR UPDATE; its single-writer lock already serializes transactions.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func (c *txCatalog) ActiveCourse(ctx context.Context, courseID int64) (*model.Course, error) {
	var course model.Course
	err := lockForUpdate(c.tx.WithContext(ctx)).
		Where("id = ? AND active", courseID).
		First(&course).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (c *txCatalog) SeatHoldingCount(ctx context.Context, courseID int64, states []model.EnrollmentState) (int64, error) {
	var count int64
	err := c.tx.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("course_id = ? AND state IN ?", courseID, states).
		Count(&count).Error
	return count, err
}

func (c *txCatalog) UserSeatHolding(ctx context.Context, userID string, states []model.EnrollmentState) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := c.tx.WithContext(ctx).
		Preload("Course").
		Where("user_id = ? AND state IN ?", userID, states).
		Find(&enrollments).Error
	return enrollments, err
}

func (c *txCatalog) HasActiveEnrollment(ctx context.Context, userID string, courseID int64) (bool, error) {
	var count int64
	err := c.tx.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("user_id = ? AND course_id = ? AND state <> ?", userID, courseID, model.StateCancelled).
		Count(&count).Error
	return count > 0, err
}

func (c *txCatalog) CreateEnrollment(ctx context.Context, e *model.Enrollment) error {
	if err := c.tx.WithContext(ctx).Create(e).Error; err != nil {
		// The partial unique index on (course_id, user_id) catches races
		// the read check could not see.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return enroll.ErrAlreadyEnrolled
		}
		return err
	}
	return nil
}

// TryEnroll runs the admission engine inside a single transaction with the
// course row locked, so concurrent requests for the last seat cannot both
// commit.
func (s *gormStore) TryEnroll(ctx context.Context, actor enroll.Actor, courseID int64) (*model.Enrollment, error) {
	var created *model.Enrollment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		e, err := s.engine.TryEnroll(ctx, &txCatalog{tx: tx}, actor, courseID)
		if err != nil {
			return err
		}
		created = e
		return nil
	})
	if err != nil {
		return nil, wrapInfra(err)
	}
	return created, nil
}

// SetEnrollmentState applies a coordinator transition. Confirming
// re-validates capacity under the same lock discipline as admission.
func (s *gormStore) SetEnrollmentState(ctx context.Context, id int64, next model.EnrollmentState) (*model.Enrollment, error) {
	var updated *model.Enrollment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var e model.Enrollment
		if err := tx.WithContext(ctx).First(&e, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return enroll.ErrEnrollmentNotFound
			}
			return err
		}

		if err := enroll.ValidateTransition(e.State, next); err != nil {
			return err
		}

		if next == model.StateConfirmed {
			var course model.Course
			if err := lockForUpdate(tx.WithContext(ctx)).First(&course, e.CourseID).Error; err != nil {
				return err
			}

			policy := s.engine.Policy()
			var held int64
			if err := tx.WithContext(ctx).
				Model(&model.Enrollment{}).
				Where("course_id = ? AND state IN ? AND id <> ?", e.CourseID, policy.SeatHoldingStates(), e.ID).
				Count(&held).Error; err != nil {
				return err
			}
			if held >= int64(course.MaxCapacity) {
				return enroll.ErrCourseFull
			}
		}

		e.State = next
		if err := tx.WithContext(ctx).Save(&e).Error; err != nil {
			return err
		}
		if err := tx.WithContext(ctx).Preload("Course").First(&e, e.ID).Error; err != nil {
			return err
		}
		updated = &e
		return nil
	})
	if err != nil {
		return nil, wrapInfra(err)
	}
	return updated, nil
}

// CancelOwn lets a student cancel their own enrollment. The record is
// kept and moved to Cancelled so the seat frees up and re-enrollment
// stays possible.
func (s *gormStore) CancelOwn(ctx context.Context, userID string, id int64) (*model.Enrollment, error) {
	var updated *model.Enrollment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var e model.Enrollment
		if err := tx.WithContext(ctx).First(&e, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return enroll.ErrEnrollmentNotFound
			}
			return err
		}
		if e.UserID != userID {
			return enroll.ErrForbidden
		}
		if e.State == model.StateCancelled {
			return enroll.ErrInvalidTransition
		}

		e.State = model.StateCancelled
		if err := tx.WithContext(ctx).Save(&e).Error; err != nil {
			return err
		}
		updated = &e
		return nil
	})
	if err != nil {
		return nil, wrapInfra(err)
	}
	return updated, nil
}

// EnrollmentByID fetches a single enrollment with its course.
func (s *gormStore) EnrollmentByID(ctx context.Context, id int64) (*model.Enrollment, error) {
	var e model.Enrollment
	err := s.db.WithContext(ctx).Preload("Course").First(&e, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, enroll.ErrEnrollmentNotFound
	}
	if err != nil {
		return nil, wrapInfra(err)
	}
	return &e, nil
}

// ListEnrollments returns a user's enrollments, or every enrollment when
// userID is empty (coordinator view).
func (s *gormStore) ListEnrollments(ctx context.Context, userID string) ([]model.Enrollment, error) {
	q := s.db.WithContext(ctx).Preload("Course").Order("created_at DESC")
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	var enrollments []model.Enrollment
	if err := q.Find(&enrollments).Error; err != nil {
		return nil, wrapInfra(err)
	}
	return enrollments, nil
}

// ExpirePending cancels Pending enrollments created before the cutoff and
// returns their IDs so callers can notify the affected students.
func (s *gormStore) ExpirePending(ctx context.Context, olderThan time.Time) ([]int64, error) {
	var ids []int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).
			Model(&model.Enrollment{}).
			Where("state = ? AND created_at < ?", model.StatePending, olderThan).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		return tx.WithContext(ctx).
			Model(&model.Enrollment{}).
			Where("id IN ?", ids).
			Update("state", model.StateCancelled).Error
	})
	if err != nil {
		return nil, wrapInfra(err)
	}
	return ids, nil
}
