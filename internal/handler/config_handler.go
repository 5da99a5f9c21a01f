package handler

import (
	"context"
	"net/http"

	"github.com/Amsterdam/aapp-api-services-sub001/internal/repository"
	"github.com/labstack/echo/v4"
)

// ConfigHandler serves the per-device push suppression settings. A type
// or module appears in the disabled lists when pushes for it are off;
// absence means pushes are on. In-app notifications are unaffected.
type ConfigHandler struct {
	devices repository.DeviceRepository
}

func NewConfigHandler(devices repository.DeviceRepository) *ConfigHandler {
	return &ConfigHandler{devices: devices}
}

type pushConfigResponse struct {
	DisabledTypes   []string `json:"disabled_types"`
	DisabledModules []string `json:"disabled_modules"`
}

type pushConfigRequest struct {
	DisabledTypes   []string `json:"disabled_types"`
	DisabledModules []string `json:"disabled_modules"`
}

func (h *ConfigHandler) Get(c echo.Context) error {
	deviceID := c.Request().Header.Get(HeaderDeviceID)
	if deviceID == "" {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("missing_device_id", "device id header is required"))
	}
	device, err := h.devices.FindByExternalID(c.Request().Context(), deviceID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to fetch device"))
	}
	if device == nil {
		// Unknown device: nothing disabled yet.
		return c.JSON(http.StatusOK, pushConfigResponse{DisabledTypes: []string{}, DisabledModules: []string{}})
	}
	types, err := h.devices.DisabledTypes(c.Request().Context(), device.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to fetch config"))
	}
	modules, err := h.devices.DisabledModules(c.Request().Context(), device.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to fetch config"))
	}
	if types == nil {
		types = []string{}
	}
	if modules == nil {
		modules = []string{}
	}
	return c.JSON(http.StatusOK, pushConfigResponse{DisabledTypes: types, DisabledModules: modules})
}

// Put replaces the device's suppression lists with the supplied ones.
func (h *ConfigHandler) Put(c echo.Context) error {
	deviceID := c.Request().Header.Get(HeaderDeviceID)
	if deviceID == "" {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("missing_device_id", "device id header is required"))
	}
	var req pushConfigRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("invalid_body", "could not parse request body"))
	}

	ctx := c.Request().Context()
	devices, err := h.devices.EnsureExternalIDs(ctx, []string{deviceID})
	if err != nil || len(devices) == 0 {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to resolve device"))
	}
	device := devices[0]

	current, err := h.devices.DisabledTypes(ctx, device.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to fetch config"))
	}
	if err := reconcile(ctx, current, req.DisabledTypes, func(ctx context.Context, value string, disabled bool) error {
		return h.devices.SetTypeDisabled(ctx, device.ID, value, disabled)
	}); err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to update config"))
	}

	currentModules, err := h.devices.DisabledModules(ctx, device.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to fetch config"))
	}
	if err := reconcile(ctx, currentModules, req.DisabledModules, func(ctx context.Context, value string, disabled bool) error {
		return h.devices.SetModuleDisabled(ctx, device.ID, value, disabled)
	}); err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to update config"))
	}

	return h.Get(c)
}

// reconcile brings the stored disabled set in line with the desired one.
func reconcile(ctx context.Context, current, desired []string, set func(ctx context.Context, value string, disabled bool) error) error {
	want := make(map[string]struct{}, len(desired))
	for _, v := range desired {
		want[v] = struct{}{}
	}
	have := make(map[string]struct{}, len(current))
	for _, v := range current {
		have[v] = struct{}{}
	}
	for v := range want {
		if _, ok := have[v]; !ok {
			if err := set(ctx, v, true); err != nil {
				return err
			}
		}
	}
	for v := range have {
		if _, ok := want[v]; !ok {
			if err := set(ctx, v, false); err != nil {
				return err
			}
		}
	}
	return nil
}
