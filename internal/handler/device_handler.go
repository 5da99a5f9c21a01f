package handler

import (
	"net/http"

	"github.com/Amsterdam/aapp-api-services-sub001/internal/repository"
	"github.com/labstack/echo/v4"
)

type DeviceHandler struct {
	devices repository.DeviceRepository
}

func NewDeviceHandler(devices repository.DeviceRepository) *DeviceHandler {
	return &DeviceHandler{devices: devices}
}

type deviceRegisterRequest struct {
	FirebaseToken string `json:"firebase_token"`
	OS            string `json:"os"`
}

type deviceRegisterResponse struct {
	ExternalID    string `json:"external_id"`
	OS            string `json:"os"`
	FirebaseToken string `json:"firebase_token,omitempty"`
}

// Register creates a new device with firebase token and OS when the
// device id is not known yet, and updates it otherwise.
func (h *DeviceHandler) Register(c echo.Context) error {
	deviceID := c.Request().Header.Get(HeaderDeviceID)
	if deviceID == "" {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("missing_device_id", "device id header is required"))
	}
	var req deviceRegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("invalid_body", "could not parse request body"))
	}
	if req.FirebaseToken == "" || req.OS == "" {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("invalid_body", "firebase_token and os are required"))
	}

	device, err := h.devices.Register(c.Request().Context(), deviceID, req.OS, req.FirebaseToken)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to register device"))
	}
	resp := deviceRegisterResponse{ExternalID: device.ExternalID, OS: device.OS}
	if device.FirebaseToken != nil {
		resp.FirebaseToken = *device.FirebaseToken
	}
	return c.JSON(http.StatusOK, resp)
}

// Unregister clears the push token. Unknown device ids are fine; the
// device simply has nothing to unregister.
func (h *DeviceHandler) Unregister(c echo.Context) error {
	deviceID := c.Request().Header.Get(HeaderDeviceID)
	if deviceID == "" {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("missing_device_id", "device id header is required"))
	}
	if err := h.devices.ClearToken(c.Request().Context(), deviceID); err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to unregister device"))
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "registration removed"})
}
