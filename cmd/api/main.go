package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"jaothui-api-server/config"
	"jaothui-api-server/internal/animal"
	"jaothui-api-server/internal/app"
	"jaothui-api-server/internal/clock"
	"jaothui-api-server/internal/database"
	"jaothui-api-server/internal/logging"
	"jaothui-api-server/internal/push"
	"jaothui-api-server/internal/s3"
)

func main() {
	// 1. Load configuration
	cfg, err := config.LoadConfig("./config")
	if err != nil {
		logging.New(os.Stderr, "error", "text").Error("could not load config", "error", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}
	if cfg.Server.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Open the store
	st, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("could not open database", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	if cfg.Database.SeedDemo {
		err := database.SeedDemo(ctx, st, clock.RealClock{}, clock.UUIDGenerator{}, logger, cfg.Database.SeedExternalUserID)
		if err != nil {
			logger.Error("seeding demo data failed", "error", err)
			os.Exit(1)
		}
	}

	// 3. Push delivery and image storage are optional
	var sender push.Sender = push.DisabledSender{}
	if cfg.PushEnabled() {
		sender, err = push.NewWebPushSender(push.WebPushConfig{
			VAPIDPublicKey:  cfg.Push.VAPIDPublicKey,
			VAPIDPrivateKey: cfg.Push.VAPIDPrivateKey,
			Subscriber:      cfg.Push.VAPIDEmail,
		})
		if err != nil {
			logger.Error("could not configure web push", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Warn("VAPID keys not configured, push notifications are disabled")
	}

	var images animal.ImageStore
	if cfg.S3.Enabled() {
		uploader, err := s3.NewUploader(ctx, cfg.S3)
		if err != nil {
			logger.Error("could not configure S3", "error", err)
			os.Exit(1)
		}
		images = uploader
	}

	// 4. Wire the router
	a := app.New(app.Options{
		Config: cfg,
		Store:  st,
		Sender: sender,
		Images: images,
		Clock:  clock.RealClock{},
		IDs:    clock.UUIDGenerator{},
		Logger: logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 5. Start server
	go func() {
		logger.Info("starting API server", "port", cfg.Server.Port, "env", cfg.Server.Env, "db", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
