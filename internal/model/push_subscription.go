package model

import "time"

// PushSubscription holds the information for a browser push subscription.
// Each subscription belongs to the user whose enrollment transitions it
// should be notified about.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey" json:"endpoint"`
	P256DH    string    `gorm:"column:p256dh;not null" json:"p256dh"`
	Auth      string    `gorm:"not null" json:"auth"`
	UserID    string    `gorm:"index;size:36;not null" json:"user_id"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}
