package service

import (
	"context"
	"time"

	"github.com/Amsterdam/aapp-api-services-sub001/internal/model"
	"github.com/Amsterdam/aapp-api-services-sub001/internal/repository"
	"github.com/google/uuid"
)

// NotificationService serves the per-device in-app history.
type NotificationService interface {
	List(ctx context.Context, externalID string, limit int) ([]model.Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID, externalID string) (bool, error)
	LastTimestamp(ctx context.Context, externalID, moduleSlug string) (*time.Time, error)
}

type notificationService struct {
	repo repository.NotificationRepository
}

func NewNotificationService(repo repository.NotificationRepository) NotificationService {
	return &notificationService{repo: repo}
}

func (s *notificationService) List(ctx context.Context, externalID string, limit int) ([]model.Notification, error) {
	if externalID == "" {
		return nil, nil
	}
	return s.repo.ListByDevice(ctx, externalID, limit)
}

func (s *notificationService) MarkRead(ctx context.Context, id uuid.UUID, externalID string) (bool, error) {
	if externalID == "" {
		return false, nil
	}
	return s.repo.MarkRead(ctx, id, externalID)
}

func (s *notificationService) LastTimestamp(ctx context.Context, externalID, moduleSlug string) (*time.Time, error) {
	return s.repo.LastTimestamp(ctx, externalID, moduleSlug)
}
