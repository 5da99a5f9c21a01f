package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Amsterdam/aapp-api-services-sub001/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type NotificationRepository interface {
	BulkCreate(ctx context.Context, notifications []model.Notification) error
	ListByDevice(ctx context.Context, externalID string, limit int) ([]model.Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID, externalID string) (bool, error)
	// TouchLast upserts the last-create timestamp for the given devices
	// within a notification scope.
	TouchLast(ctx context.Context, deviceIDs []uint64, moduleSlug, scope string) error
	// LastTimestamp returns the most recent last-create timestamp for a
	// device within a module, or nil when none exists.
	LastTimestamp(ctx context.Context, externalID, moduleSlug string) (*time.Time, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) BulkCreate(ctx context.Context, notifications []model.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&notifications).Error
}

func (r *notificationRepository) ListByDevice(ctx context.Context, externalID string, limit int) ([]model.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var list []model.Notification
	err := r.db.WithContext(ctx).
		Joins("JOIN devices ON devices.id = notifications.device_id").
		Where("devices.external_id = ?", externalID).
		Order("notifications.created_at DESC").
		Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id uuid.UUID, externalID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("id = ? AND device_id = (SELECT id FROM devices WHERE external_id = ?)", id, externalID).
		Update("is_read", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *notificationRepository) TouchLast(ctx context.Context, deviceIDs []uint64, moduleSlug, scope string) error {
	if len(deviceIDs) == 0 {
		return nil
	}
	now := time.Now()
	rows := make([]model.NotificationLast, 0, len(deviceIDs))
	for _, id := range deviceIDs {
		rows = append(rows, model.NotificationLast{
			DeviceID:          id,
			ModuleSlug:        moduleSlug,
			NotificationScope: scope,
			LastCreate:        now,
		})
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "device_id"}, {Name: "notification_scope"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_create"}),
		}).
		Create(&rows).Error
}

func (r *notificationRepository) LastTimestamp(ctx context.Context, externalID, moduleSlug string) (*time.Time, error) {
	var last model.NotificationLast
	err := r.db.WithContext(ctx).
		Joins("JOIN devices ON devices.id = notification_last.device_id").
		Where("devices.external_id = ? AND notification_last.module_slug = ?", externalID, moduleSlug).
		Order("notification_last.last_create DESC").
		First(&last).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &last.LastCreate, nil
}
