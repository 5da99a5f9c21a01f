package model

// Module slugs of the app modules that can produce notifications.
const (
	ModuleConstructionWork = "construction-work"
	ModuleParking          = "parking"
	ModuleWaste            = "waste"
	ModuleMijnAmsterdam    = "mijn-amsterdam"
	ModuleCityPass         = "city-pass"
)

// Notification types, namespaced as '<module-slug>:<name>'.
const (
	TypeConstructionWorkWarning = ModuleConstructionWork + ":warning-message"
	TypeParkingReminder         = ModuleParking + ":parking-reminder"
	TypeWasteDateReminder       = ModuleWaste + ":date-reminder"
	TypeMijnAmsterdamBelasting  = ModuleMijnAmsterdam + ":belasting"
	TypeCityPassNotification    = ModuleCityPass + ":notification"
)

// notificationScopes lists the scopes NotificationLast keeps timestamps
// for. Types outside this list still create notifications, they just do
// not update catch-up timestamps.
var notificationScopes = map[string]struct{}{
	TypeConstructionWorkWarning: {},
	TypeParkingReminder:         {},
	TypeWasteDateReminder:       {},
	TypeMijnAmsterdamBelasting:  {},
	TypeCityPassNotification:    {},
}

// AllowedScope reports whether last-notification timestamps are tracked
// for the given scope.
func AllowedScope(scope string) bool {
	_, ok := notificationScopes[scope]
	return ok
}
