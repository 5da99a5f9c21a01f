package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Amsterdam/aapp-api-services-sub001/internal/model"
	"github.com/Amsterdam/aapp-api-services-sub001/internal/push"
	"github.com/Amsterdam/aapp-api-services-sub001/internal/repository"
	"github.com/google/uuid"
)

// DeviceLimitError is returned when a notification targets more devices
// than Firebase can handle in one fan-out.
type DeviceLimitError struct {
	Devices int
	Limit   int
}

func (e *DeviceLimitError) Error() string {
	return fmt.Sprintf("too many devices [devices=%d, limit=%d]", e.Devices, e.Limit)
}

// FanoutResult are the operator-facing counters of one fan-out.
type FanoutResult struct {
	TotalDeviceCount  int `json:"total_device_count"`
	TotalTokenCount   int `json:"total_token_count"`
	TotalEnabledCount int `json:"total_enabled_count"`
	FailedTokenCount  int `json:"failed_token_count"`
}

// FanoutService creates one durable Notification per target device and
// pushes to the subset that is eligible for push.
type FanoutService interface {
	Create(ctx context.Context, source *model.Notification, deviceIDs []uint64, makePush bool) (FanoutResult, error)
}

type fanoutService struct {
	devices       repository.DeviceRepository
	notifications repository.NotificationRepository
	sender        push.Sender
	deviceLimit   int
}

func NewFanoutService(devices repository.DeviceRepository, notifications repository.NotificationRepository, sender push.Sender, deviceLimit int) FanoutService {
	return &fanoutService{
		devices:       devices,
		notifications: notifications,
		sender:        sender,
		deviceLimit:   deviceLimit,
	}
}

// Create duplicates the source notification for every device. A device is
// push-eligible iff it has a token and no module or type suppression row.
// Eligible rows get PushedAt stamped when the push is attempted.
func (s *fanoutService) Create(ctx context.Context, source *model.Notification, deviceIDs []uint64, makePush bool) (FanoutResult, error) {
	var result FanoutResult

	devices, err := s.devices.EligibilityFlags(ctx, deviceIDs, source.ModuleSlug, source.NotificationType)
	if err != nil {
		return result, err
	}
	if s.deviceLimit > 0 && len(devices) > s.deviceLimit {
		return result, &DeviceLimitError{Devices: len(devices), Limit: s.deviceLimit}
	}

	result.TotalDeviceCount = len(devices)
	now := time.Now()
	notifications := make([]model.Notification, 0, len(devices))
	var pushMessages []push.Message
	for _, device := range devices {
		if device.HasToken {
			result.TotalTokenCount++
		}
		n := model.Notification{
			ID:               uuid.New(),
			Title:            source.Title,
			Body:             source.Body,
			ModuleSlug:       source.ModuleSlug,
			NotificationType: source.NotificationType,
			Context:          source.Context,
			Image:            source.Image,
			ScheduleID:       source.ScheduleID,
			DeviceID:         device.ID,
			CreatedAt:        now,
		}
		if device.PushEnabled() {
			result.TotalEnabledCount++
			if makePush {
				pushedAt := now
				n.PushedAt = &pushedAt
				pushMessages = append(pushMessages, push.Message{
					Token: *device.FirebaseToken,
					Title: source.Title,
					Body:  source.Body,
					Data:  source.Context,
					// The row id travels along so the app can resolve the
					// push back to its in-app notification.
					NotificationID: n.ID.String(),
					ImageSetID:     source.Image,
				})
			}
		}
		notifications = append(notifications, n)
	}

	if err := s.notifications.BulkCreate(ctx, notifications); err != nil {
		return result, err
	}

	s.touchLastTimestamps(ctx, source, devices)

	if len(pushMessages) == 0 {
		log.Printf("fanout: notification(s) created, but no devices to push to")
		return result, nil
	}
	failed, err := s.sender.Send(ctx, pushMessages)
	result.FailedTokenCount = failed
	if err != nil {
		return result, err
	}
	return result, nil
}

// touchLastTimestamps records a last-create timestamp per device; only
// known scopes are tracked.
func (s *fanoutService) touchLastTimestamps(ctx context.Context, source *model.Notification, devices []model.EligibleDevice) {
	scope := source.NotificationType
	if !model.AllowedScope(scope) {
		return
	}
	ids := make([]uint64, 0, len(devices))
	for _, d := range devices {
		ids = append(ids, d.ID)
	}
	if err := s.notifications.TouchLast(ctx, ids, source.ModuleSlug, scope); err != nil {
		log.Printf("fanout: failed to update last timestamps: %v", err)
	}
}
