package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Amsterdam/aapp-api-services-sub001/internal/model"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubNotificationService struct {
	notifications []model.Notification
	readID        uuid.UUID
	readDevice    string
	readOK        bool
	last          *time.Time
}

func (s *stubNotificationService) List(_ context.Context, _ string, _ int) ([]model.Notification, error) {
	return s.notifications, nil
}

func (s *stubNotificationService) MarkRead(_ context.Context, id uuid.UUID, externalID string) (bool, error) {
	s.readID = id
	s.readDevice = externalID
	return s.readOK, nil
}

func (s *stubNotificationService) LastTimestamp(_ context.Context, _, _ string) (*time.Time, error) {
	return s.last, nil
}

func request(method, target string, deviceID string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	if deviceID != "" {
		req.Header.Set(HeaderDeviceID, deviceID)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestListRequiresDeviceHeader(t *testing.T) {
	h := NewNotificationHandler(&stubNotificationService{})
	c, rec := request(http.MethodGet, "/api/notifications", "")

	require.NoError(t, h.List(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "missing_device_id", resp.Error.Code)
}

func TestListRendersNotifications(t *testing.T) {
	pushedAt := time.Now()
	svc := &stubNotificationService{notifications: []model.Notification{
		{
			ID:               uuid.New(),
			Title:            "Waste pickup",
			ModuleSlug:       model.ModuleWaste,
			NotificationType: model.TypeWasteDateReminder,
			PushedAt:         &pushedAt,
		},
		{
			ID:         uuid.New(),
			Title:      "Parking reminder",
			ModuleSlug: model.ModuleParking,
			IsRead:     true,
		},
	}}
	h := NewNotificationHandler(svc)
	c, rec := request(http.MethodGet, "/api/notifications", "device-1")

	require.NoError(t, h.List(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Notifications []NotificationResponse `json:"notifications"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Notifications, 2)
	assert.True(t, body.Notifications[0].Pushed)
	assert.False(t, body.Notifications[0].IsRead)
	assert.False(t, body.Notifications[1].Pushed)
	assert.True(t, body.Notifications[1].IsRead)
}

func TestMarkReadValidatesID(t *testing.T) {
	h := NewNotificationHandler(&stubNotificationService{})
	c, rec := request(http.MethodPatch, "/api/notifications/nope/read", "device-1")
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	require.NoError(t, h.MarkRead(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMarkReadScopesToDevice(t *testing.T) {
	svc := &stubNotificationService{readOK: true}
	h := NewNotificationHandler(svc)
	id := uuid.New()
	c, rec := request(http.MethodPatch, "/api/notifications/"+id.String()+"/read", "device-1")
	c.SetParamNames("id")
	c.SetParamValues(id.String())

	require.NoError(t, h.MarkRead(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, svc.readID)
	assert.Equal(t, "device-1", svc.readDevice)
}

func TestMarkReadUnknownNotification(t *testing.T) {
	h := NewNotificationHandler(&stubNotificationService{readOK: false})
	id := uuid.New()
	c, rec := request(http.MethodPatch, "/api/notifications/"+id.String()+"/read", "device-1")
	c.SetParamNames("id")
	c.SetParamValues(id.String())

	require.NoError(t, h.MarkRead(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLastTimestamp(t *testing.T) {
	ts := time.Date(2026, 2, 3, 12, 0, 0, 0, time.UTC)
	h := NewNotificationHandler(&stubNotificationService{last: &ts})
	c, rec := request(http.MethodGet, "/api/notifications/last?module_slug=waste", "device-1")

	require.NoError(t, h.LastTimestamp(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]*string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body["last_create"])
	assert.Equal(t, "2026-02-03T12:00:00Z", *body["last_create"])
}

func TestLastTimestampWithoutHistory(t *testing.T) {
	h := NewNotificationHandler(&stubNotificationService{})
	c, rec := request(http.MethodGet, "/api/notifications/last?module_slug=waste", "device-1")

	require.NoError(t, h.LastTimestamp(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]*string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Nil(t, body["last_create"])
}
