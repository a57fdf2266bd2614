// Package app wires services, transports and the reminder dispatcher into one
// graph shared by the API server, the CLI and end-to-end tests.
package app

import (
	"time"

	"github.com/gin-gonic/gin"

	"jaothui-api-server/config"
	"jaothui-api-server/internal/activity"
	"jaothui-api-server/internal/animal"
	"jaothui-api-server/internal/api/handlers"
	"jaothui-api-server/internal/api/routes"
	"jaothui-api-server/internal/auth"
	"jaothui-api-server/internal/clock"
	"jaothui-api-server/internal/farm"
	"jaothui-api-server/internal/feed"
	"jaothui-api-server/internal/logging"
	"jaothui-api-server/internal/profile"
	"jaothui-api-server/internal/push"
	"jaothui-api-server/internal/reminder"
	"jaothui-api-server/internal/socket"
	"jaothui-api-server/internal/store"
	"jaothui-api-server/internal/subscription"
)

type Options struct {
	Config config.Config
	Store  store.Store
	Sender push.Sender
	// Images may be nil when S3 is not configured.
	Images animal.ImageStore
	Clock  clock.Clock
	IDs    clock.IDGenerator
	Logger logging.Logger
}

type App struct {
	Router     *gin.Engine
	Dispatcher *reminder.Dispatcher
	Hub        *socket.Hub
	Registry   *subscription.Registry
	Verifier   *auth.Verifier
}

func New(o Options) *App {
	cfg := o.Config

	verifier := auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	hub := socket.NewHub(o.Logger)

	registry := subscription.NewRegistry(o.Store, o.Sender, o.Clock, o.IDs, o.Logger, subscription.Config{
		Workers:     cfg.Push.Workers,
		SendTimeout: cfg.Push.SendTimeout,
		Icon:        cfg.Push.IconURL,
	})
	dispatcher := reminder.NewDispatcher(o.Store, registry, hub, o.Clock, o.IDs, o.Logger, reminder.Config{
		RunDeadline: cfg.Reminders.RunDeadline,
		CatchUpDays: cfg.Reminders.CatchUpDays,
		Icon:        cfg.Push.IconURL,
	})

	profiles := profile.NewService(o.Store, o.Clock, o.IDs, o.Logger)
	farms := farm.NewService(o.Store, o.Clock, o.IDs, o.Logger)
	animals := animal.NewService(o.Store, o.Images, o.Clock, o.IDs, o.Logger)
	activities := activity.NewService(o.Store, o.Clock, o.IDs, o.Logger)

	router := routes.SetupRouter(routes.Deps{
		Logger:         o.Logger,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Verifier:       verifier,
		Profiles:       profiles,

		Profile:      &handlers.ProfileHandler{Profiles: profiles, Farms: farms},
		Farm:         &handlers.FarmHandler{Farms: farms},
		Animal:       &handlers.AnimalHandler{Animals: animals},
		Activity:     &handlers.ActivityHandler{Activities: activities},
		Notification: &handlers.NotificationHandler{Feed: feed.NewBuilder(o.Store, o.Clock), Registry: registry},
		Cron: &handlers.CronHandler{
			Runner:      dispatcher,
			Guard:       auth.CronGuard{Secret: cfg.Cron.Secret, Hash: cfg.Cron.SecretHash},
			AllowManual: !cfg.Server.Production(),
			Logger:      o.Logger,
		},
		WebSocket: &handlers.WebSocketHandler{Hub: hub, Verifier: verifier, Profiles: profiles, Logger: o.Logger},
		Health:    &handlers.HealthHandler{Started: time.Now()},
	})

	return &App{
		Router:     router,
		Dispatcher: dispatcher,
		Hub:        hub,
		Registry:   registry,
		Verifier:   verifier,
	}
}
