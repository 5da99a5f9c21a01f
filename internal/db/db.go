package db

import (
	"fmt"
	"time"

	"github.com/Amsterdam/aapp-api-services-sub001/internal/config"
	"github.com/Amsterdam/aapp-api-services-sub001/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func BuildDSN(cfg *config.Config) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)
}

func Connect(cfg *config.Config) (*gorm.DB, error) {
	gcfg := &gorm.Config{
		PrepareStmt:    true,
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	}
	conn, err := gorm.Open(postgres.Open(BuildDSN(cfg)), gcfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(10)

	return conn, nil
}

// Migrate creates or updates the notification tables.
func Migrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&model.Device{},
		&model.ScheduledNotification{},
		&model.Notification{},
		&model.NotificationPushTypeDisabled{},
		&model.NotificationPushModuleDisabled{},
		&model.NotificationLast{},
	)
}
