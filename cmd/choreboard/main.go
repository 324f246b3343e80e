package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"choreboard/internal/clock"
	"choreboard/internal/config"
	"choreboard/internal/database"
	"choreboard/internal/email"
	"choreboard/internal/imagestore"
	"choreboard/internal/logging"
	"choreboard/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logging.Setup(cfg.LogLevel)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	emailClient := email.NewClient(cfg.PostmarkToken, cfg.EmailFrom)
	if !emailClient.Configured() {
		logger.Warn("email not configured, password reset emails disabled")
	}

	images := imagestore.New(imagestore.Config{
		Endpoint:  cfg.S3Endpoint,
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
	})
	if !images.Enabled() {
		logger.Warn("image storage not configured, shame wall uploads disabled")
	}

	clk := clock.System{}
	srv := server.New(db, emailClient, images, clk, logger)

	// Periodically sweep expired sessions and stale rate-limit entries.
	cleanupDone := make(chan struct{})
	cleanupTicker := time.NewTicker(time.Hour)
	go func() {
		defer close(cleanupDone)
		for range cleanupTicker.C {
			if n, err := srv.SessionStore().DeleteExpired(clk.Now()); err != nil {
				logger.Warn("session cleanup", "error", err)
			} else if n > 0 {
				logger.Info("session cleanup", "deleted", n)
			}
			srv.RateLimiter().Cleanup()
		}
	}()

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("choreboard listening", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	cleanupTicker.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
