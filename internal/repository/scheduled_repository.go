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

// ErrDuplicateIdentifier is returned when a concurrent upsert created a
// schedule with the same identifier first.
var ErrDuplicateIdentifier = errors.New("scheduled notification identifier already exists")

type ScheduledRepository interface {
	// FindByIdentifier returns the schedule with its device set, or nil
	// when no schedule exists for the identifier.
	FindByIdentifier(ctx context.Context, identifier string) (*model.ScheduledNotification, error)
	// Create inserts a new schedule and binds its device set. Returns
	// ErrDuplicateIdentifier on a unique-constraint violation.
	Create(ctx context.Context, sn *model.ScheduledNotification, devices []model.Device) error
	// Update saves the schedule and replaces its device set atomically.
	Update(ctx context.Context, sn *model.ScheduledNotification, devices []model.Device) error
	// DeleteByIdentifier removes the schedule; absent rows are a no-op.
	DeleteByIdentifier(ctx context.Context, identifier string) error
	All(ctx context.Context) ([]model.ScheduledNotification, error)
	// ClaimNext locks at most one due schedule with FOR UPDATE SKIP LOCKED,
	// runs process on it and deletes the row before committing. The row is
	// deleted even when process fails; its error is passed through so the
	// caller can log it. Returns false when no unlocked due row exists.
	ClaimNext(ctx context.Context, now time.Time, process func(ctx context.Context, sn *model.ScheduledNotification) error) (bool, error)
}

type scheduledRepository struct {
	db *gorm.DB
}

func NewScheduledRepository(db *gorm.DB) ScheduledRepository {
	return &scheduledRepository{db: db}
}

func (r *scheduledRepository) FindByIdentifier(ctx context.Context, identifier string) (*model.ScheduledNotification, error) {
	var sn model.ScheduledNotification
	err := r.db.WithContext(ctx).
		Preload("Devices").
		Where("identifier = ?", identifier).
		First(&sn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sn, nil
}

func (r *scheduledRepository) Create(ctx context.Context, sn *model.ScheduledNotification, devices []model.Device) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Devices").Create(sn).Error; err != nil {
			return err
		}
		return tx.Model(sn).Association("Devices").Replace(devices)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateIdentifier
	}
	return err
}

func (r *scheduledRepository) Update(ctx context.Context, sn *model.ScheduledNotification, devices []model.Device) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Devices").Save(sn).Error; err != nil {
			return err
		}
		return tx.Model(sn).Association("Devices").Replace(devices)
	})
}

func (r *scheduledRepository) DeleteByIdentifier(ctx context.Context, identifier string) error {
	return r.db.WithContext(ctx).
		Where("identifier = ?", identifier).
		Select(clause.Associations).
		Delete(&model.ScheduledNotification{}).Error
}

func (r *scheduledRepository) All(ctx context.Context) ([]model.ScheduledNotification, error) {
	var list []model.ScheduledNotification
	if err := r.db.WithContext(ctx).Preload("Devices").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *scheduledRepository) ClaimNext(ctx context.Context, now time.Time, process func(ctx context.Context, sn *model.ScheduledNotification) error) (bool, error) {
	claimed := false
	var processErr error

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sn model.ScheduledNotification
		// The row lock is held until commit; a parallel worker skips this
		// row and claims the next one instead of blocking.
		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("scheduled_for <= ?", now).
			Order("scheduled_for").
			Limit(1).
			Find(&sn).Error
		if err != nil {
			return err
		}
		if sn.ID == uuid.Nil {
			return nil
		}
		claimed = true

		if err := tx.Model(&sn).Association("Devices").Find(&sn.Devices); err != nil {
			return err
		}

		// Failures are logged by the caller, never requeued; deleting the
		// row regardless keeps a poison pill from blocking the queue.
		processErr = process(ctx, &sn)

		if err := tx.Select(clause.Associations).Delete(&sn).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return claimed, err
	}
	return claimed, processErr
}
