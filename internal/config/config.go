package config

import (
	"time"

	"github.com/caarlos0/env/v9"
)

type Config struct {
	Port       string `env:"PORT" envDefault:"8080"`
	DBUser     string `env:"DB_USER,required"`
	DBPassword string `env:"DB_PASSWORD,required"`
	DBHost     string `env:"DB_HOST,required"`
	DBName     string `env:"DB_NAME,required"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	// FirebaseCredentials holds the service-account JSON. Empty means
	// application-default credentials.
	FirebaseCredentials string `env:"FIREBASE_CREDENTIALS"`
	// FirebaseDeviceLimit caps how many devices a single notification may
	// fan out to.
	FirebaseDeviceLimit int `env:"FIREBASE_DEVICE_LIMIT" envDefault:"20000"`

	ImageServiceURL string `env:"IMAGE_SERVICE_URL"`

	// PollInterval is how long the push worker sleeps when no scheduled
	// notification is due.
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"5s"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
