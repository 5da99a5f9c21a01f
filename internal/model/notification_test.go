package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextRoundTrip(t *testing.T) {
	c := Context{"module_slug": ModuleWaste, "linkSourceid": "calendar-7"}

	v, err := c.Value()
	require.NoError(t, err)

	var out Context
	require.NoError(t, out.Scan(v))
	assert.Equal(t, c, out)
}

func TestContextValueNil(t *testing.T) {
	var c Context
	v, err := c.Value()
	require.NoError(t, err)
	assert.Equal(t, "{}", v)
}

func TestContextScanRejectsUnknownType(t *testing.T) {
	var c Context
	assert.Error(t, c.Scan(42))
}

func TestScheduledNotificationExpired(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{"in the future", now.Add(time.Minute), false},
		{"exactly now", now, true},
		{"in the past", now.Add(-time.Minute), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &ScheduledNotification{ExpiresAt: tt.expiresAt}
			assert.Equal(t, tt.want, n.Expired(now))
		})
	}
}

func TestNotificationLastValidate(t *testing.T) {
	valid := &NotificationLast{ModuleSlug: ModuleWaste, NotificationScope: TypeWasteDateReminder}
	assert.NoError(t, valid.Validate())

	foreign := &NotificationLast{ModuleSlug: ModuleParking, NotificationScope: TypeWasteDateReminder}
	assert.Error(t, foreign.Validate(), "scope must live in the module's namespace")

	unknown := &NotificationLast{ModuleSlug: ModuleWaste, NotificationScope: ModuleWaste + ":mystery"}
	assert.Error(t, unknown.Validate())
}

func TestAllowedScope(t *testing.T) {
	assert.True(t, AllowedScope(TypeParkingReminder))
	assert.False(t, AllowedScope("parking:unheard-of"))
	assert.False(t, AllowedScope(""))
}
