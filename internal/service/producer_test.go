package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Amsterdam/aapp-api-services-sub001/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureScheduledService struct {
	input UpsertInput
}

func (s *captureScheduledService) Upsert(_ context.Context, in UpsertInput) (*model.ScheduledNotification, error) {
	s.input = in
	return &model.ScheduledNotification{Identifier: in.Identifier}, nil
}

func (s *captureScheduledService) Get(_ context.Context, _ string) (*model.ScheduledNotification, error) {
	return nil, nil
}

func (s *captureScheduledService) GetAll(_ context.Context) ([]model.ScheduledNotification, error) {
	return nil, nil
}

func (s *captureScheduledService) Delete(_ context.Context, _ string) error {
	return nil
}

func TestProducerNamespacesIdentifier(t *testing.T) {
	schedules := &captureScheduledService{}
	producer := NewProducer(model.ModuleParking, model.TypeParkingReminder, schedules)

	_, err := producer.Send(context.Background(), ProducerInput{
		LinkSourceID: "session-42",
		Title:        "Parking session ending",
		Message:      "Your session ends in 15 minutes",
		DeviceIDs:    []string{"device-1"},
		MakePush:     true,
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(schedules.input.Identifier, model.ModuleParking+"_"))
	assert.NotEqual(t, model.ModuleParking+"_", schedules.input.Identifier, "identifier carries a unique suffix")
}

func TestProducerBuildsContextPayload(t *testing.T) {
	schedules := &captureScheduledService{}
	producer := NewProducer(model.ModuleWaste, model.TypeWasteDateReminder, schedules)

	_, err := producer.Send(context.Background(), ProducerInput{
		LinkSourceID: "calendar-7",
		Title:        "Waste pickup",
		Message:      "Container day tomorrow",
		DeviceIDs:    []string{"device-1"},
		URL:          "https://example.org/waste",
	})
	require.NoError(t, err)

	assert.Equal(t, model.Context{
		"linkSourceid": "calendar-7",
		"type":         model.TypeWasteDateReminder,
		"module_slug":  model.ModuleWaste,
		"url":          "https://example.org/waste",
	}, schedules.input.Context)
	assert.NotContains(t, schedules.input.Context, "deeplink", "empty optional fields stay out of the payload")
}

func TestProducerSchedulesShortlyAheadWithBoundedExpiry(t *testing.T) {
	schedules := &captureScheduledService{}
	producer := NewProducer(model.ModuleParking, model.TypeParkingReminder, schedules)

	before := time.Now()
	_, err := producer.SendWithExpiry(context.Background(), ProducerInput{
		Title:     "Parking",
		Message:   "Reminder",
		DeviceIDs: []string{"device-1"},
		MakePush:  true,
	}, 30*time.Minute)
	require.NoError(t, err)

	in := schedules.input
	assert.WithinDuration(t, before.Add(5*time.Second), in.ScheduledFor, 2*time.Second)
	require.NotNil(t, in.ExpiresAt)
	assert.Equal(t, 30*time.Minute, in.ExpiresAt.Sub(in.ScheduledFor))
	assert.True(t, in.MakePush)
}
