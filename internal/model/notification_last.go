package model

import (
	"fmt"
	"strings"
	"time"
)

// NotificationLast records when a notification was last created for a
// device within a scope. Catch-up queries use this to decide whether a
// device missed anything since its last poll.
type NotificationLast struct {
	ID                uint64 `gorm:"primaryKey;autoIncrement"`
	DeviceID          uint64 `gorm:"uniqueIndex:idx_notification_last;index:idx_last_device_module;not null"`
	Device            Device `gorm:"constraint:OnDelete:CASCADE"`
	ModuleSlug        string `gorm:"index:idx_last_device_module"`
	NotificationScope string `gorm:"uniqueIndex:idx_notification_last;not null"`
	LastCreate        time.Time
}

func (NotificationLast) TableName() string {
	return "notification_last"
}

// Validate enforces that the scope is namespaced under the module and is
// one of the known scopes.
func (n *NotificationLast) Validate() error {
	if !strings.HasPrefix(n.NotificationScope, n.ModuleSlug) {
		return fmt.Errorf("notification scope %q must start with module slug %q", n.NotificationScope, n.ModuleSlug)
	}
	if !AllowedScope(n.NotificationScope) {
		return fmt.Errorf("notification scope %q is not in the list of allowed scopes", n.NotificationScope)
	}
	return nil
}
