package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"course-enrollment-backend/internal/model"
)

// ErrUserNotFound is returned by user lookups that match nothing.
var ErrUserNotFound = errors.New("user not found")

// CreateUser stores a new account.
func (s *gormStore) CreateUser(ctx context.Context, user *model.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrEmailExists
		}
		return wrapInfra(err)
	}
	return nil
}

// UserByEmail looks an account up by its unique email.
func (s *gormStore) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, wrapInfra(err)
	}
	return &user, nil
}

// UserByID looks an account up by its opaque ID.
func (s *gormStore) UserByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, wrapInfra(err)
	}
	return &user, nil
}
