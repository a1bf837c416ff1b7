package model

import (
	"fmt"
	"time"
)

// Course represents a catalog course offered for enrollment.
// Its meeting time is a half-open [StartMinute, EndMinute) interval of
// minutes since midnight.
type Course struct {
	ID          int64  `gorm:"primaryKey" json:"id"`
	Code        string `gorm:"uniqueIndex;size:20;not null" json:"code"`
	Name        string `gorm:"size:256;not null" json:"name"`
	Credits     int    `gorm:"not null" json:"credits"`
	MaxCapacity int    `gorm:"not null" json:"max_capacity"`
	StartMinute int    `gorm:"not null" json:"start_minute"`
	EndMinute   int    `gorm:"not null" json:"end_minute"`
	Active      bool   `gorm:"not null;default:true" json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the field constraints a course must satisfy before it
// can be stored.
func (c *Course) Validate() error {
	if c.Code == "" {
		return fmt.Errorf("course code is required")
	}
	if c.Name == "" {
		return fmt.Errorf("course name is required")
	}
	if c.Credits <= 0 {
		return fmt.Errorf("credits must be greater than 0")
	}
	if c.MaxCapacity <= 0 {
		return fmt.Errorf("max capacity must be greater than 0")
	}
	if c.StartMinute < 0 || c.EndMinute > MinutesPerDay {
		return fmt.Errorf("schedule must fall within a single day")
	}
	if c.StartMinute >= c.EndMinute {
		return fmt.Errorf("schedule start must be before end")
	}
	return nil
}

// Overlaps reports whether the meeting times of two courses collide.
// Intervals are half-open, so back-to-back courses do not overlap.
func (c *Course) Overlaps(other *Course) bool {
	return c.StartMinute < other.EndMinute && c.EndMinute > other.StartMinute
}
