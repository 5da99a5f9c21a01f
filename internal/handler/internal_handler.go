package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/Amsterdam/aapp-api-services-sub001/internal/model"
	"github.com/Amsterdam/aapp-api-services-sub001/internal/repository"
	"github.com/Amsterdam/aapp-api-services-sub001/internal/service"
	"github.com/labstack/echo/v4"
)

// InternalHandler serves the endpoints other backend services call. These
// are network isolated and never reachable from the app.
type InternalHandler struct {
	devices   repository.DeviceRepository
	fanout    service.FanoutService
	schedules service.ScheduledService
}

func NewInternalHandler(devices repository.DeviceRepository, fanout service.FanoutService, schedules service.ScheduledService) *InternalHandler {
	return &InternalHandler{devices: devices, fanout: fanout, schedules: schedules}
}

type notificationCreateRequest struct {
	Title            string            `json:"title"`
	Body             string            `json:"body"`
	ModuleSlug       string            `json:"module_slug"`
	NotificationType string            `json:"notification_type"`
	Context          map[string]string `json:"context"`
	Image            *int              `json:"image,omitempty"`
	DeviceIDs        []string          `json:"device_ids"`
}

// CreateNotification fans an immediate notification out to the given
// devices. Unknown device ids are created on the fly.
func (h *InternalHandler) CreateNotification(c echo.Context) error {
	var req notificationCreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("invalid_body", "could not parse request body"))
	}
	if req.Title == "" || req.NotificationType == "" || len(req.DeviceIDs) == 0 {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("invalid_body", "title, notification_type and device_ids are required"))
	}

	ctx := c.Request().Context()
	devices, err := h.devices.EnsureExternalIDs(ctx, req.DeviceIDs)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to resolve devices"))
	}
	deviceIDs := make([]uint64, 0, len(devices))
	for _, d := range devices {
		deviceIDs = append(deviceIDs, d.ID)
	}

	source := &model.Notification{
		Title:            req.Title,
		Body:             req.Body,
		ModuleSlug:       req.ModuleSlug,
		NotificationType: req.NotificationType,
		Context:          req.Context,
		Image:            req.Image,
	}
	log.Printf("internal: processing new notification [module=%s, type=%s]", req.ModuleSlug, req.NotificationType)

	result, err := h.fanout.Create(ctx, source, deviceIDs, true)
	if err != nil {
		var limitErr *service.DeviceLimitError
		if errors.As(err, &limitErr) {
			return c.JSON(http.StatusBadRequest, NewErrorResponse("device_limit", limitErr.Error()))
		}
		log.Printf("internal: failed to push notification: %v", err)
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("push_failed", "failed to push notification"))
	}
	return c.JSON(http.StatusOK, result)
}

type scheduledUpsertRequest struct {
	Title            string            `json:"title"`
	Body             string            `json:"body"`
	ScheduledFor     time.Time         `json:"scheduled_for"`
	Identifier       string            `json:"identifier"`
	Context          map[string]string `json:"context"`
	DeviceIDs        []string          `json:"device_ids"`
	NotificationType string            `json:"notification_type"`
	ModuleSlug       string            `json:"module_slug,omitempty"`
	Image            *int              `json:"image,omitempty"`
	ExpiresAt        *time.Time        `json:"expires_at,omitempty"`
	MakePush         *bool             `json:"make_push,omitempty"`
}

type scheduledResponse struct {
	Identifier       string            `json:"identifier"`
	Title            string            `json:"title"`
	Body             string            `json:"body"`
	ModuleSlug       string            `json:"module_slug"`
	NotificationType string            `json:"notification_type"`
	Context          map[string]string `json:"context"`
	Image            *int              `json:"image,omitempty"`
	ScheduledFor     time.Time         `json:"scheduled_for"`
	ExpiresAt        time.Time         `json:"expires_at"`
	MakePush         bool              `json:"make_push"`
	DeviceIDs        []string          `json:"device_ids"`
}

func toScheduledResponse(sn *model.ScheduledNotification) scheduledResponse {
	deviceIDs := make([]string, 0, len(sn.Devices))
	for _, d := range sn.Devices {
		deviceIDs = append(deviceIDs, d.ExternalID)
	}
	return scheduledResponse{
		Identifier:       sn.Identifier,
		Title:            sn.Title,
		Body:             sn.Body,
		ModuleSlug:       sn.ModuleSlug,
		NotificationType: sn.NotificationType,
		Context:          sn.Context,
		Image:            sn.Image,
		ScheduledFor:     sn.ScheduledFor,
		ExpiresAt:        sn.ExpiresAt,
		MakePush:         sn.MakePush,
		DeviceIDs:        deviceIDs,
	}
}

// UpsertScheduled creates or merges a scheduled notification.
func (h *InternalHandler) UpsertScheduled(c echo.Context) error {
	var req scheduledUpsertRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("invalid_body", "could not parse request body"))
	}
	if req.Identifier == "" || req.Title == "" || req.NotificationType == "" {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("invalid_body", "identifier, title and notification_type are required"))
	}
	makePush := true
	if req.MakePush != nil {
		makePush = *req.MakePush
	}

	sn, err := h.schedules.Upsert(c.Request().Context(), service.UpsertInput{
		Title:            req.Title,
		Body:             req.Body,
		ScheduledFor:     req.ScheduledFor,
		Identifier:       req.Identifier,
		Context:          req.Context,
		DeviceIDs:        req.DeviceIDs,
		NotificationType: req.NotificationType,
		ModuleSlug:       req.ModuleSlug,
		Image:            req.Image,
		ExpiresAt:        req.ExpiresAt,
		MakePush:         makePush,
	})
	if err != nil {
		var svcErr *service.ServiceError
		if errors.As(err, &svcErr) {
			return c.JSON(http.StatusBadRequest, NewErrorResponse("validation_error", svcErr.Error()))
		}
		log.Printf("internal: failed to upsert scheduled notification: %v", err)
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to upsert scheduled notification"))
	}
	return c.JSON(http.StatusOK, toScheduledResponse(sn))
}

// GetScheduled returns one scheduled notification by identifier.
func (h *InternalHandler) GetScheduled(c echo.Context) error {
	sn, err := h.schedules.Get(c.Request().Context(), c.Param("identifier"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to fetch scheduled notification"))
	}
	if sn == nil {
		return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "no scheduled notification for this identifier"))
	}
	return c.JSON(http.StatusOK, toScheduledResponse(sn))
}

// ListScheduled returns a full snapshot; admin tooling only.
func (h *InternalHandler) ListScheduled(c echo.Context) error {
	list, err := h.schedules.GetAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to fetch scheduled notifications"))
	}
	resp := make([]scheduledResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toScheduledResponse(&list[i]))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"scheduled_notifications": resp})
}

// DeleteScheduled removes a schedule; deleting an unknown identifier is
// not an error.
func (h *InternalHandler) DeleteScheduled(c echo.Context) error {
	if err := h.schedules.Delete(c.Request().Context(), c.Param("identifier")); err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to delete scheduled notification"))
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "deleted"})
}
