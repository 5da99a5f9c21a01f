package repository

import (
	"context"
	"errors"

	"github.com/Amsterdam/aapp-api-services-sub001/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DeviceRepository interface {
	// EnsureExternalIDs resolves devices for the given external ids,
	// creating rows for any id not seen before. Never fails on unknown ids.
	EnsureExternalIDs(ctx context.Context, externalIDs []string) ([]model.Device, error)
	FindByExternalID(ctx context.Context, externalID string) (*model.Device, error)
	// Register creates or updates a device with its push token and OS.
	Register(ctx context.Context, externalID, os, token string) (*model.Device, error)
	// ClearToken removes the push token; unknown devices are a no-op.
	ClearToken(ctx context.Context, externalID string) error
	// EligibilityFlags annotates the given devices with has-token and
	// opt-out booleans in a single query.
	EligibilityFlags(ctx context.Context, deviceIDs []uint64, moduleSlug, notificationType string) ([]model.EligibleDevice, error)
	SetTypeDisabled(ctx context.Context, deviceID uint64, notificationType string, disabled bool) error
	SetModuleDisabled(ctx context.Context, deviceID uint64, moduleSlug string, disabled bool) error
	DisabledTypes(ctx context.Context, deviceID uint64) ([]string, error)
	DisabledModules(ctx context.Context, deviceID uint64) ([]string, error)
}

type deviceRepository struct {
	db *gorm.DB
}

func NewDeviceRepository(db *gorm.DB) DeviceRepository {
	return &deviceRepository{db: db}
}

func (r *deviceRepository) EnsureExternalIDs(ctx context.Context, externalIDs []string) ([]model.Device, error) {
	if len(externalIDs) == 0 {
		return nil, nil
	}
	missing := make([]model.Device, 0, len(externalIDs))
	seen := make(map[string]struct{}, len(externalIDs))
	for _, id := range externalIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		missing = append(missing, model.Device{ExternalID: id})
	}
	// DoNothing keeps existing rows (and their tokens) untouched.
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "external_id"}}, DoNothing: true}).
		Create(&missing).Error; err != nil {
		return nil, err
	}
	var devices []model.Device
	if err := r.db.WithContext(ctx).
		Where("external_id IN ?", externalIDs).
		Find(&devices).Error; err != nil {
		return nil, err
	}
	return devices, nil
}

func (r *deviceRepository) FindByExternalID(ctx context.Context, externalID string) (*model.Device, error) {
	var device model.Device
	if err := r.db.WithContext(ctx).
		Where("external_id = ?", externalID).
		First(&device).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &device, nil
}

func (r *deviceRepository) Register(ctx context.Context, externalID, os, token string) (*model.Device, error) {
	device := model.Device{
		ExternalID:    externalID,
		OS:            os,
		FirebaseToken: &token,
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"os", "firebase_token"}),
		}).
		Create(&device).Error; err != nil {
		return nil, err
	}
	return r.FindByExternalID(ctx, externalID)
}

func (r *deviceRepository) ClearToken(ctx context.Context, externalID string) error {
	return r.db.WithContext(ctx).
		Model(&model.Device{}).
		Where("external_id = ?", externalID).
		Update("firebase_token", nil).Error
}

func (r *deviceRepository) EligibilityFlags(ctx context.Context, deviceIDs []uint64, moduleSlug, notificationType string) ([]model.EligibleDevice, error) {
	if len(deviceIDs) == 0 {
		return nil, nil
	}
	var devices []model.EligibleDevice
	err := r.db.WithContext(ctx).
		Model(&model.Device{}).
		Select(`devices.id, devices.external_id, devices.os, devices.firebase_token,
			devices.firebase_token IS NOT NULL AS has_token,
			EXISTS (
				SELECT 1 FROM notification_push_module_disabled m
				WHERE m.device_id = devices.id AND m.module_slug = ?
			) AS module_disabled,
			EXISTS (
				SELECT 1 FROM notification_push_type_disabled t
				WHERE t.device_id = devices.id AND t.notification_type = ?
			) AS type_disabled`, moduleSlug, notificationType).
		Where("devices.id IN ?", deviceIDs).
		Scan(&devices).Error
	if err != nil {
		return nil, err
	}
	return devices, nil
}

func (r *deviceRepository) SetTypeDisabled(ctx context.Context, deviceID uint64, notificationType string, disabled bool) error {
	if disabled {
		row := model.NotificationPushTypeDisabled{DeviceID: deviceID, NotificationType: notificationType}
		return r.db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&row).Error
	}
	return r.db.WithContext(ctx).
		Where("device_id = ? AND notification_type = ?", deviceID, notificationType).
		Delete(&model.NotificationPushTypeDisabled{}).Error
}

func (r *deviceRepository) SetModuleDisabled(ctx context.Context, deviceID uint64, moduleSlug string, disabled bool) error {
	if disabled {
		row := model.NotificationPushModuleDisabled{DeviceID: deviceID, ModuleSlug: moduleSlug}
		return r.db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&row).Error
	}
	return r.db.WithContext(ctx).
		Where("device_id = ? AND module_slug = ?", deviceID, moduleSlug).
		Delete(&model.NotificationPushModuleDisabled{}).Error
}

func (r *deviceRepository) DisabledTypes(ctx context.Context, deviceID uint64) ([]string, error) {
	var types []string
	err := r.db.WithContext(ctx).
		Model(&model.NotificationPushTypeDisabled{}).
		Where("device_id = ?", deviceID).
		Pluck("notification_type", &types).Error
	return types, err
}

func (r *deviceRepository) DisabledModules(ctx context.Context, deviceID uint64) ([]string, error) {
	var modules []string
	err := r.db.WithContext(ctx).
		Model(&model.NotificationPushModuleDisabled{}).
		Where("device_id = ?", deviceID).
		Pluck("module_slug", &modules).Error
	return modules, err
}
