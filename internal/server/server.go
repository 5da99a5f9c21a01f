package server

import (
	"net/http"

	"github.com/Amsterdam/aapp-api-services-sub001/internal/config"
	"github.com/Amsterdam/aapp-api-services-sub001/internal/handler"
	"github.com/Amsterdam/aapp-api-services-sub001/internal/imageset"
	"github.com/Amsterdam/aapp-api-services-sub001/internal/push"
	"github.com/Amsterdam/aapp-api-services-sub001/internal/repository"
	"github.com/Amsterdam/aapp-api-services-sub001/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"
)

type Server struct {
	e *echo.Echo
}

func New(cfg *config.Config, db *gorm.DB, sender push.Sender, images imageset.Client) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Content-Type", handler.HeaderDeviceID},
	}))

	deviceRepo := repository.NewDeviceRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	scheduledRepo := repository.NewScheduledRepository(db)

	fanoutSvc := service.NewFanoutService(deviceRepo, notificationRepo, sender, cfg.FirebaseDeviceLimit)
	scheduledSvc := service.NewScheduledService(scheduledRepo, deviceRepo, images)
	notificationSvc := service.NewNotificationService(notificationRepo)

	deviceHandler := handler.NewDeviceHandler(deviceRepo)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	configHandler := handler.NewConfigHandler(deviceRepo)
	internalHandler := handler.NewInternalHandler(deviceRepo, fanoutSvc, scheduledSvc)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"ok": "true"})
	})

	api := e.Group("/api")
	api.POST("/device/register", deviceHandler.Register)
	api.DELETE("/device/register", deviceHandler.Unregister)
	api.GET("/notifications", notificationHandler.List)
	api.PATCH("/notifications/:id/read", notificationHandler.MarkRead)
	api.GET("/notifications/last", notificationHandler.LastTimestamp)
	api.GET("/notification/config", configHandler.Get)
	api.PUT("/notification/config", configHandler.Put)

	// Only other backend services reach these; network isolation is
	// handled by the deployment, not by this process.
	internal := e.Group("/internal")
	internal.POST("/notification", internalHandler.CreateNotification)
	internal.POST("/scheduled-notification", internalHandler.UpsertScheduled)
	internal.GET("/scheduled-notifications", internalHandler.ListScheduled)
	internal.GET("/scheduled-notification/:identifier", internalHandler.GetScheduled)
	internal.DELETE("/scheduled-notification/:identifier", internalHandler.DeleteScheduled)

	return &Server{e: e}
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}
