package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jndata/config"
	"jndata/internal/database"
	"jndata/internal/logger"
	"jndata/internal/router"
	"jndata/pkg/payment"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.Server.Env, cfg.Log.Level)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatal("database", zap.Error(err))
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}
	if created, err := database.SeedAdmin(db, &cfg.Admin); err != nil {
		log.Fatal("seed admin", zap.Error(err))
	} else if created {
		log.Info("admin account created", zap.String("email", cfg.Admin.Email))
	}

	app := router.Setup(cfg, db, newGateway(cfg, log), log)
	if err := app.Reconciler.Start(); err != nil {
		log.Fatal("reconciler", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      app.Engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		log.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown", zap.Error(err))
	}
	app.Close()
	log.Info("server stopped")
}

func newGateway(cfg *config.Config, log *zap.Logger) payment.Gateway {
	if cfg.Paystack.Provider == "stub" {
		log.Warn("using stub payment gateway; no real charges will be made")
		return payment.NewStubGateway()
	}
	if cfg.Paystack.SecretKey == "" {
		log.Warn("PAYSTACK_SECRET_KEY is not set; payments and webhooks will be rejected")
	}
	return payment.NewPaystackGateway(cfg.Paystack.BaseURL, cfg.Paystack.SecretKey, cfg.Paystack.Timeout)
}
