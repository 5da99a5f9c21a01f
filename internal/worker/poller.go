// Package worker runs the scheduled-notification dispatcher. Several
// worker processes may run in parallel; the row lock taken during the
// claim guarantees each due schedule is processed by exactly one of them.
package worker

import (
	"context"
	"log"
	"time"

	"github.com/Amsterdam/aapp-api-services-sub001/internal/model"
	"github.com/Amsterdam/aapp-api-services-sub001/internal/repository"
	"github.com/Amsterdam/aapp-api-services-sub001/internal/service"
)

// ScheduleSource claims due schedules one at a time under a row lock.
type ScheduleSource interface {
	ClaimNext(ctx context.Context, now time.Time, process func(ctx context.Context, sn *model.ScheduledNotification) error) (bool, error)
}

var _ ScheduleSource = (repository.ScheduledRepository)(nil)

type Poller struct {
	source ScheduleSource
	fanout service.FanoutService
	// interval is the sleep between polls when nothing is due.
	interval time.Duration
	// once drains currently-due work in a single pass with pushes
	// disabled, then returns. Used in CI and integration runs.
	once bool
	now  func() time.Time
}

type Option func(*Poller)

// WithOnce makes Run process all currently-due schedules once without
// pushing, then return.
func WithOnce() Option {
	return func(p *Poller) { p.once = true }
}

// WithInterval overrides the idle sleep between polls.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) { p.interval = d }
}

func withClock(now func() time.Time) Option {
	return func(p *Poller) { p.now = now }
}

func New(source ScheduleSource, fanout service.FanoutService, opts ...Option) *Poller {
	p := &Poller{
		source:   source,
		fanout:   fanout,
		interval: 5 * time.Second,
		now:      time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Run claims and dispatches one schedule per iteration until the context
// is cancelled (or, in once mode, until no due work remains). One row per
// claim keeps the transaction small; throughput scales by running more
// worker processes, each skipping the rows its siblings hold locked.
func (p *Poller) Run(ctx context.Context) error {
	for {
		claimed, err := p.source.ClaimNext(ctx, p.now(), p.dispatch)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// The claim transaction deletes the row even when dispatch
			// fails; log and move on rather than stall the queue.
			log.Printf("worker: processing scheduled notification failed: %v", err)
		}
		if claimed {
			continue
		}
		if p.once {
			log.Printf("worker: finished pushing scheduled notifications")
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.interval):
		}
	}
}

// dispatch turns one claimed schedule into per-device notifications.
// Expired schedules are dropped without a push.
func (p *Poller) dispatch(ctx context.Context, sn *model.ScheduledNotification) error {
	if sn.Expired(p.now()) {
		log.Printf("worker: dropping expired scheduled notification [identifier=%s, type=%s]", sn.Identifier, sn.NotificationType)
		return nil
	}

	template := &model.Notification{
		Title:            sn.Title,
		Body:             sn.Body,
		ModuleSlug:       sn.ModuleSlug,
		NotificationType: sn.NotificationType,
		Context:          sn.Context,
		Image:            sn.Image,
		ScheduleID:       &sn.ID,
	}
	deviceIDs := make([]uint64, 0, len(sn.Devices))
	for _, d := range sn.Devices {
		deviceIDs = append(deviceIDs, d.ID)
	}

	makePush := sn.MakePush
	if p.once {
		makePush = false
	}
	result, err := p.fanout.Create(ctx, template, deviceIDs, makePush)
	if err != nil {
		return err
	}
	log.Printf("worker: dispatched %q [devices=%d, enabled=%d, failed=%d]",
		sn.Identifier, result.TotalDeviceCount, result.TotalEnabledCount, result.FailedTokenCount)
	return nil
}
