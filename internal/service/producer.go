package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Amsterdam/aapp-api-services-sub001/internal/model"
	"github.com/google/uuid"
)

// defaultExpiryMinutes bounds how long a produced notification stays
// deliverable before the dispatcher drops it.
const defaultExpiryMinutes = 15

// ProducerInput is what a module supplies when it wants a notification
// sent to a set of devices.
type ProducerInput struct {
	LinkSourceID string
	Title        string
	Message      string
	DeviceIDs    []string
	ImageSetID   *int
	MakePush     bool
	URL          string
	Deeplink     string
}

// Producer schedules notifications on behalf of one app module. It gives
// producing services (parking reminders, waste calendar, construction
// warnings) a uniform way into the scheduled store: a short delay so the
// transaction producing the event commits first, a bounded expiry, and a
// namespaced one-off identifier.
type Producer struct {
	ModuleSlug       string
	NotificationType string
	schedules        ScheduledService
}

func NewProducer(moduleSlug, notificationType string, schedules ScheduledService) *Producer {
	return &Producer{
		ModuleSlug:       moduleSlug,
		NotificationType: notificationType,
		schedules:        schedules,
	}
}

// Send schedules the notification roughly five seconds out with the
// default expiry.
func (p *Producer) Send(ctx context.Context, in ProducerInput) (*model.ScheduledNotification, error) {
	return p.SendWithExpiry(ctx, in, defaultExpiryMinutes*time.Minute)
}

func (p *Producer) SendWithExpiry(ctx context.Context, in ProducerInput, expiry time.Duration) (*model.ScheduledNotification, error) {
	scheduledFor := time.Now().Add(5 * time.Second)
	expiresAt := scheduledFor.Add(expiry)
	return p.schedules.Upsert(ctx, UpsertInput{
		Title:            in.Title,
		Body:             in.Message,
		ScheduledFor:     scheduledFor,
		Identifier:       fmt.Sprintf("%s_%s", p.ModuleSlug, uuid.New()),
		Context:          p.buildContext(in),
		DeviceIDs:        in.DeviceIDs,
		NotificationType: p.NotificationType,
		ModuleSlug:       p.ModuleSlug,
		Image:            in.ImageSetID,
		ExpiresAt:        &expiresAt,
		MakePush:         in.MakePush,
	})
}

// buildContext assembles the data payload; context values must all be
// strings.
func (p *Producer) buildContext(in ProducerInput) model.Context {
	c := model.Context{
		"linkSourceid": in.LinkSourceID,
		"type":         p.NotificationType,
		"module_slug":  p.ModuleSlug,
	}
	if in.URL != "" {
		c["url"] = in.URL
	}
	if in.Deeplink != "" {
		c["deeplink"] = in.Deeplink
	}
	return c
}
