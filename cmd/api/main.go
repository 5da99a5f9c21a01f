package main

import (
	"context"
	"log"

	"github.com/Amsterdam/aapp-api-services-sub001/internal/config"
	"github.com/Amsterdam/aapp-api-services-sub001/internal/db"
	"github.com/Amsterdam/aapp-api-services-sub001/internal/imageset"
	"github.com/Amsterdam/aapp-api-services-sub001/internal/push"
	"github.com/Amsterdam/aapp-api-services-sub001/internal/server"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
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

	ctx := context.Background()
	messagingClient, err := push.NewMessagingClient(ctx, cfg.FirebaseCredentials)
	if err != nil {
		log.Fatalf("firebase init error: %v", err)
	}
	sender := push.NewService(messagingClient, images)

	srv := server.New(cfg, conn, sender, images)
	addr := ":" + cfg.Port
	log.Printf("starting server on %s", addr)
	if err := srv.Start(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
