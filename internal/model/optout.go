package model

// NotificationPushTypeDisabled suppresses pushes of one notification type
// for one device. Absence of a row means pushes of that type are enabled;
// in-app notification rows are created regardless.
type NotificationPushTypeDisabled struct {
	ID               uint64 `gorm:"primaryKey;autoIncrement"`
	DeviceID         uint64 `gorm:"uniqueIndex:idx_push_type_disabled;not null"`
	Device           Device `gorm:"constraint:OnDelete:CASCADE"`
	NotificationType string `gorm:"uniqueIndex:idx_push_type_disabled;not null"`
}

func (NotificationPushTypeDisabled) TableName() string {
	return "notification_push_type_disabled"
}

// NotificationPushModuleDisabled suppresses pushes for an entire module
// for one device.
type NotificationPushModuleDisabled struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	DeviceID   uint64 `gorm:"uniqueIndex:idx_push_module_disabled;not null"`
	Device     Device `gorm:"constraint:OnDelete:CASCADE"`
	ModuleSlug string `gorm:"uniqueIndex:idx_push_module_disabled;not null"`
}

func (NotificationPushModuleDisabled) TableName() string {
	return "notification_push_module_disabled"
}
