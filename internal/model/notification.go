package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Context is the string-valued payload that tells the mobile OS how to
// handle a notification (click target, badge counter, deeplink). Values
// must be strings; Firebase rejects anything else in the data field.
type Context map[string]string

func (c Context) Value() (driver.Value, error) {
	if c == nil {
		return "{}", nil
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (c *Context) Scan(value interface{}) error {
	if value == nil {
		*c = nil
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("context: cannot scan %T", value)
	}
	return json.Unmarshal(b, c)
}

// ScheduledNotification is a notification awaiting its delivery time.
// - Identifier: unique idempotency key, prefixed with the module slug
// - ScheduledFor: when the notification becomes due
// - ExpiresAt: after this the notification is dropped instead of pushed
// - MakePush: whether the dispatcher should attempt a push at all
// - Devices: target audience, m2m to Device
type ScheduledNotification struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title            string    `gorm:"size:1000;not null"`
	Body             string    `gorm:"size:1000;not null"`
	ModuleSlug       string    `gorm:"index"`
	NotificationType string    `gorm:"index"`
	Context          Context   `gorm:"type:jsonb"`
	Image            *int
	Identifier       string    `gorm:"uniqueIndex;not null"`
	ScheduledFor     time.Time `gorm:"index;not null"`
	ExpiresAt        time.Time `gorm:"not null"`
	MakePush         bool      `gorm:"not null;default:true"`
	CreatedAt        time.Time `gorm:"index"`
	Devices          []Device  `gorm:"many2many:scheduled_notification_devices"`
}

func (ScheduledNotification) TableName() string {
	return "scheduled_notifications"
}

func (n *ScheduledNotification) BeforeCreate(_ *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// Expired reports whether the notification must be dropped instead of
// dispatched.
func (n *ScheduledNotification) Expired(now time.Time) bool {
	return !n.ExpiresAt.After(now)
}

// Notification is the durable per-device record shown as in-app history.
// - ScheduleID: set when the notification originated from a schedule
// - IsRead: set by the device once the notification was seen
// - PushedAt: set when a push was attempted for this row
type Notification struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title            string    `gorm:"size:1000;not null"`
	Body             string    `gorm:"size:1000;not null"`
	ModuleSlug       string    `gorm:"index"`
	NotificationType string    `gorm:"index"`
	Context          Context   `gorm:"type:jsonb"`
	Image            *int
	ScheduleID       *uuid.UUID `gorm:"type:uuid"`
	DeviceID         uint64     `gorm:"index;not null"`
	Device           Device     `gorm:"constraint:OnDelete:CASCADE"`
	IsRead           bool       `gorm:"not null;default:false"`
	PushedAt         *time.Time
	CreatedAt        time.Time `gorm:"index"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) BeforeCreate(_ *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
