package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Amsterdam/aapp-api-services-sub001/internal/imageset"
	"github.com/Amsterdam/aapp-api-services-sub001/internal/model"
	"github.com/Amsterdam/aapp-api-services-sub001/internal/repository"
)

// ServiceError is a validation failure surfaced to the producing caller.
// These are never retried.
type ServiceError struct {
	msg string
}

func (e *ServiceError) Error() string { return e.msg }

func newServiceError(format string, args ...interface{}) *ServiceError {
	return &ServiceError{msg: fmt.Sprintf(format, args...)}
}

// defaultExpiry is used when a caller schedules without an expiry; far
// enough away to mean "never".
var defaultExpiry = time.Date(3000, 1, 1, 0, 0, 0, 0, time.UTC)

// UpsertInput carries all fields of a scheduled notification create or
// merge. Identifier is the idempotency key.
type UpsertInput struct {
	Title            string
	Body             string
	ScheduledFor     time.Time
	Identifier       string
	Context          model.Context
	DeviceIDs        []string
	NotificationType string
	ModuleSlug       string
	Image            *int
	ExpiresAt        *time.Time
	MakePush         bool
}

type ScheduledService interface {
	// Upsert creates the schedule, or merges into an existing one with the
	// same identifier. Merging unions the device sets and overwrites
	// title, body and scheduled-for; image and expiry only change when
	// supplied.
	Upsert(ctx context.Context, in UpsertInput) (*model.ScheduledNotification, error)
	// Get returns nil without error when the identifier is unknown.
	Get(ctx context.Context, identifier string) (*model.ScheduledNotification, error)
	GetAll(ctx context.Context) ([]model.ScheduledNotification, error)
	// Delete is a no-op when the identifier is unknown.
	Delete(ctx context.Context, identifier string) error
}

type scheduledService struct {
	schedules repository.ScheduledRepository
	devices   repository.DeviceRepository
	images    imageset.Client
}

func NewScheduledService(schedules repository.ScheduledRepository, devices repository.DeviceRepository, images imageset.Client) ScheduledService {
	return &scheduledService{schedules: schedules, devices: devices, images: images}
}

func (s *scheduledService) Upsert(ctx context.Context, in UpsertInput) (*model.ScheduledNotification, error) {
	if in.ExpiresAt != nil && !in.ExpiresAt.After(in.ScheduledFor) {
		return nil, newServiceError("expires_at must be later than scheduled_for")
	}
	// Identifiers are namespaced under the module so two modules cannot
	// overwrite each other's schedules.
	if in.ModuleSlug != "" && !strings.HasPrefix(in.Identifier, in.ModuleSlug) {
		return nil, newServiceError("identifier must start with module_slug")
	}
	if in.Image != nil {
		exists, err := s.images.Exists(ctx, *in.Image)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, newServiceError("image with id %d does not exist", *in.Image)
		}
	}

	devices, err := s.devices.EnsureExternalIDs(ctx, in.DeviceIDs)
	if err != nil {
		return nil, err
	}

	instance, err := s.schedules.FindByIdentifier(ctx, in.Identifier)
	if err != nil {
		return nil, err
	}
	if instance == nil {
		created, err := s.create(ctx, in, devices)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, repository.ErrDuplicateIdentifier) {
			return nil, err
		}
		// A concurrent upsert created the identifier first; merge into it.
		instance, err = s.schedules.FindByIdentifier(ctx, in.Identifier)
		if err != nil {
			return nil, err
		}
		if instance == nil {
			return nil, fmt.Errorf("schedule %q vanished during upsert", in.Identifier)
		}
	}
	return s.update(ctx, instance, in, devices)
}

func (s *scheduledService) create(ctx context.Context, in UpsertInput, devices []model.Device) (*model.ScheduledNotification, error) {
	expiresAt := defaultExpiry
	if in.ExpiresAt != nil {
		expiresAt = *in.ExpiresAt
	}
	sn := &model.ScheduledNotification{
		Title:            in.Title,
		Body:             in.Body,
		ModuleSlug:       in.ModuleSlug,
		NotificationType: in.NotificationType,
		Context:          in.Context,
		Image:            in.Image,
		Identifier:       in.Identifier,
		ScheduledFor:     in.ScheduledFor,
		ExpiresAt:        expiresAt,
		MakePush:         in.MakePush,
		CreatedAt:        time.Now(),
	}
	if err := s.schedules.Create(ctx, sn, devices); err != nil {
		return nil, err
	}
	sn.Devices = devices
	return sn, nil
}

func (s *scheduledService) update(ctx context.Context, instance *model.ScheduledNotification, in UpsertInput, devices []model.Device) (*model.ScheduledNotification, error) {
	// Never shrink the audience: merged devices are the union of every
	// set ever supplied for this identifier.
	merged := unionDevices(instance.Devices, devices)
	instance.Title = in.Title
	instance.Body = in.Body
	instance.ScheduledFor = in.ScheduledFor
	if in.Image != nil {
		instance.Image = in.Image
	}
	if in.ExpiresAt != nil {
		instance.ExpiresAt = *in.ExpiresAt
	}
	if err := s.schedules.Update(ctx, instance, merged); err != nil {
		return nil, err
	}
	instance.Devices = merged
	return instance, nil
}

func (s *scheduledService) Get(ctx context.Context, identifier string) (*model.ScheduledNotification, error) {
	return s.schedules.FindByIdentifier(ctx, identifier)
}

func (s *scheduledService) GetAll(ctx context.Context) ([]model.ScheduledNotification, error) {
	return s.schedules.All(ctx)
}

func (s *scheduledService) Delete(ctx context.Context, identifier string) error {
	return s.schedules.DeleteByIdentifier(ctx, identifier)
}

func unionDevices(existing, added []model.Device) []model.Device {
	merged := make([]model.Device, 0, len(existing)+len(added))
	seen := make(map[uint64]struct{}, len(existing)+len(added))
	for _, d := range existing {
		if _, ok := seen[d.ID]; ok {
			continue
		}
		seen[d.ID] = struct{}{}
		merged = append(merged, d)
	}
	for _, d := range added {
		if _, ok := seen[d.ID]; ok {
			continue
		}
		seen[d.ID] = struct{}{}
		merged = append(merged, d)
	}
	return merged
}
