package model

// Device is an install of the mobile client that is open to receive push
// notifications.
// - ExternalID: provided by the device, e.g. a (hashed) device id
// - OS: operating system of the device, e.g. 'android', 'ios'
// - FirebaseToken: provided by the device, after requested directly from Firebase
type Device struct {
	ID            uint64  `gorm:"primaryKey;autoIncrement"`
	ExternalID    string  `gorm:"column:external_id;size:1000;uniqueIndex;not null"`
	OS            string  `gorm:"column:os;size:32"`
	FirebaseToken *string `gorm:"column:firebase_token;size:1000"`
}

func (Device) TableName() string {
	return "devices"
}

// EligibleDevice is a Device row annotated with the booleans that decide
// whether a push may be sent to it. Filled by a single query so fan-out
// never does per-device lookups.
type EligibleDevice struct {
	ID             uint64
	ExternalID     string
	OS             string
	FirebaseToken  *string
	HasToken       bool
	ModuleDisabled bool
	TypeDisabled   bool
}

// PushEnabled reports whether a push may currently be sent to this device.
func (d EligibleDevice) PushEnabled() bool {
	return d.HasToken && !d.ModuleDisabled && !d.TypeDisabled
}
