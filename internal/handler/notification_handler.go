package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Amsterdam/aapp-api-services-sub001/internal/model"
	"github.com/Amsterdam/aapp-api-services-sub001/internal/service"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type NotificationHandler struct {
	svc service.NotificationService
}

func NewNotificationHandler(svc service.NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

type NotificationResponse struct {
	ID               string            `json:"id"`
	Title            string            `json:"title"`
	Body             string            `json:"body"`
	ModuleSlug       string            `json:"module_slug"`
	NotificationType string            `json:"notification_type"`
	Context          map[string]string `json:"context"`
	Image            *int              `json:"image,omitempty"`
	IsRead           bool              `json:"is_read"`
	Pushed           bool              `json:"pushed"`
	CreatedAt        string            `json:"created_at"`
}

func toNotificationResponse(n model.Notification) NotificationResponse {
	return NotificationResponse{
		ID:               n.ID.String(),
		Title:            n.Title,
		Body:             n.Body,
		ModuleSlug:       n.ModuleSlug,
		NotificationType: n.NotificationType,
		Context:          n.Context,
		Image:            n.Image,
		IsRead:           n.IsRead,
		Pushed:           n.PushedAt != nil,
		CreatedAt:        n.CreatedAt.Format(time.RFC3339),
	}
}

// List returns the device's in-app history, newest first.
func (h *NotificationHandler) List(c echo.Context) error {
	deviceID := c.Request().Header.Get(HeaderDeviceID)
	if deviceID == "" {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("missing_device_id", "device id header is required"))
	}
	limit := 20
	if lStr := c.QueryParam("limit"); lStr != "" {
		if lParsed, err := strconv.Atoi(lStr); err == nil && lParsed > 0 {
			limit = lParsed
		}
	}
	list, err := h.svc.List(c.Request().Context(), deviceID, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to fetch notifications"))
	}
	resp := make([]NotificationResponse, 0, len(list))
	for _, n := range list {
		resp = append(resp, toNotificationResponse(n))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"notifications": resp})
}

// MarkRead flags one notification as read for the requesting device.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	deviceID := c.Request().Header.Get(HeaderDeviceID)
	if deviceID == "" {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("missing_device_id", "device id header is required"))
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("invalid_id", "notification id must be a uuid"))
	}
	ok, err := h.svc.MarkRead(c.Request().Context(), id, deviceID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to mark notification read"))
	}
	if !ok {
		return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "no such notification for this device"))
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// LastTimestamp returns when a notification was last created for this
// device within a module, for catch-up polling.
func (h *NotificationHandler) LastTimestamp(c echo.Context) error {
	deviceID := c.Request().Header.Get(HeaderDeviceID)
	if deviceID == "" {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("missing_device_id", "device id header is required"))
	}
	moduleSlug := c.QueryParam("module_slug")
	if moduleSlug == "" {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("missing_module_slug", "module_slug query parameter is required"))
	}
	ts, err := h.svc.LastTimestamp(c.Request().Context(), deviceID, moduleSlug)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to fetch last timestamp"))
	}
	if ts == nil {
		return c.JSON(http.StatusOK, map[string]interface{}{"last_create": nil})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"last_create": ts.Format(time.RFC3339)})
}
