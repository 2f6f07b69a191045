package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AnalyticsEvent represents a single tracked front-end event. Events are
// retained for a bounded window and removed by the cleanup operation.
type AnalyticsEvent struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	Event     string         `gorm:"size:100;not null;index" json:"event"`
	Data      datatypes.JSON `json:"data"`
	Page      string         `gorm:"size:255;index" json:"page"`
	SessionID string         `gorm:"size:64;index" json:"session_id"`
	UserID    string         `gorm:"size:64" json:"user_id"`
	IPAddress string         `gorm:"size:45" json:"-"`
	UserAgent string         `gorm:"size:512" json:"-"`

	// Derived from the user agent at ingest time
	DeviceType string `gorm:"size:20" json:"device_type"`
	Browser    string `gorm:"size:50" json:"browser"`
	OS         string `gorm:"size:50" json:"os"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for AnalyticsEvent
func (AnalyticsEvent) TableName() string {
	return "analytics_events"
}

// BeforeCreate hook
func (e *AnalyticsEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	return nil
}
