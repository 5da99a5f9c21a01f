// Seeds a handful of devices and opt-out rows for local development.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/Amsterdam/aapp-api-services-sub001/internal/config"
	"github.com/Amsterdam/aapp-api-services-sub001/internal/db"
	"github.com/Amsterdam/aapp-api-services-sub001/internal/model"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	conn, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	if err := db.Migrate(conn); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	var count int64
	if err := conn.Model(&model.Device{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 && os.Getenv("FORCE_SEED") != "true" {
		log.Printf("devices already exist; skipping seed (set FORCE_SEED=true to override)")
		return nil
	}

	devices := buildSeedDevices()
	return conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&devices).Error; err != nil {
			return err
		}
		// Second device opts out of waste reminders to make the
		// eligibility path visible locally.
		optOut := model.NotificationPushTypeDisabled{
			DeviceID:         devices[1].ID,
			NotificationType: model.TypeWasteDateReminder,
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&optOut).Error; err != nil {
			return err
		}
		log.Printf("seeded %d devices", len(devices))
		return nil
	})
}

func buildSeedDevices() []model.Device {
	tokenA := "seed-token-android-1"
	tokenB := "seed-token-ios-1"
	return []model.Device{
		{ExternalID: "seed-device-1", OS: "android", FirebaseToken: &tokenA},
		{ExternalID: "seed-device-2", OS: "ios", FirebaseToken: &tokenB},
		{ExternalID: "seed-device-3", OS: "android"},
	}
}
