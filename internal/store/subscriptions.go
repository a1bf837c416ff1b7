package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"course-enrollment-backend/internal/model"
)

// ErrSubscriptionNotFound is returned when no subscription matches.
var ErrSubscriptionNotFound = errors.New("subscription not found")

// UpsertSubscription creates or refreshes a push subscription keyed by
// its endpoint.
func (s *gormStore) UpsertSubscription(ctx context.Context, sub *model.PushSubscription) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth", "user_id"}),
	}).Create(sub).Error
	return wrapInfra(err)
}

// SubscriptionByEndpoint fetches a subscription by its endpoint.
func (s *gormStore) SubscriptionByEndpoint(ctx context.Context, endpoint string) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	err := s.db.WithContext(ctx).First(&sub, "endpoint = ?", endpoint).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, wrapInfra(err)
	}
	return &sub, nil
}

// DeleteSubscription removes one of the caller's subscriptions.
func (s *gormStore) DeleteSubscription(ctx context.Context, userID, endpoint string) error {
	result := s.db.WithContext(ctx).
		Where("endpoint = ? AND user_id = ?", endpoint, userID).
		Delete(&model.PushSubscription{})
	if result.Error != nil {
		return wrapInfra(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}
