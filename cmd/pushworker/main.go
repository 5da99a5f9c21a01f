// The pushworker claims due scheduled notifications and fans them out to
// devices. Run several replicas for throughput; the row locking in the
// claim keeps them from processing the same schedule twice.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/Amsterdam/aapp-api-services-sub001/internal/config"
	"github.com/Amsterdam/aapp-api-services-sub001/internal/db"
	"github.com/Amsterdam/aapp-api-services-sub001/internal/imageset"
	"github.com/Amsterdam/aapp-api-services-sub001/internal/push"
	"github.com/Amsterdam/aapp-api-services-sub001/internal/repository"
	"github.com/Amsterdam/aapp-api-services-sub001/internal/service"
	"github.com/Amsterdam/aapp-api-services-sub001/internal/worker"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	once := flag.Bool("once", false, "process all currently-due notifications without pushing, then exit")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	conn, err := db.Connect(cfg)
	if err != nil {
		log.Fatalf("db connect error: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		log.Fatalf("auto migrate error: %v", err)
	}

	var cache *redis.Client
	if cfg.RedisAddr != "" {
		cache = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	}
	images := imageset.New(cfg.ImageServiceURL, cache)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	messagingClient, err := push.NewMessagingClient(ctx, cfg.FirebaseCredentials)
	if err != nil {
		log.Fatalf("firebase init error: %v", err)
	}
	sender := push.NewService(messagingClient, images)

	deviceRepo := repository.NewDeviceRepository(conn)
	notificationRepo := repository.NewNotificationRepository(conn)
	scheduledRepo := repository.NewScheduledRepository(conn)
	fanout := service.NewFanoutService(deviceRepo, notificationRepo, sender, cfg.FirebaseDeviceLimit)

	opts := []worker.Option{worker.WithInterval(cfg.PollInterval)}
	if *once {
		opts = append(opts, worker.WithOnce())
	}
	poller := worker.New(scheduledRepo, fanout, opts...)

	log.Printf("pushworker started [once=%v, interval=%s]", *once, cfg.PollInterval)
	if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("pushworker stopped: %v", err)
	}
}
