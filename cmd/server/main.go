// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/wastetrack/wastetrack-backend/internal/config"
	"github.com/wastetrack/wastetrack-backend/internal/database"
	"github.com/wastetrack/wastetrack-backend/internal/i18n"
	"github.com/wastetrack/wastetrack-backend/internal/jobs"
	"github.com/wastetrack/wastetrack-backend/internal/router"
	"github.com/wastetrack/wastetrack-backend/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	if cfg.Environment == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	// Initialize database
	db, err := database.Initialize(cfg.Database)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize database")
	}
	defer database.Close(db)

	// Run database migrations
	if err := database.RunMigrations(db); err != nil {
		logrus.WithError(err).Fatal("Failed to run migrations")
	}

	// Initialize i18n
	if err := i18n.Initialize(); err != nil {
		logrus.WithError(err).Fatal("Failed to initialize i18n")
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	r := router.Initialize(db, cfg)

	// Daily jobs run inside the server process unless disabled, in which
	// case they are expected to be fired by cron through cmd/jobs.
	jobsCtx, stopJobs := context.WithCancel(context.Background())
	defer stopJobs()
	if cfg.Jobs.Enabled {
		storageService, err := services.NewStorageService(cfg)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to initialize storage service")
		}
		cleanupService := services.NewCleanupService(db, storageService)
		revisionService := services.NewRevisionRequestService(db)
		notificationService := services.NewNotificationService(db, cfg)

		scheduler := jobs.NewScheduler(cfg.Jobs.Hour, time.Duration(cfg.Jobs.TimeoutMinutes)*time.Minute)
		scheduler.Register(jobs.NewAppendix1CleanupJob(cleanupService))
		scheduler.Register(jobs.NewRevisionReminderJob(revisionService, notificationService))
		go func() {
			if err := scheduler.Start(jobsCtx); err != nil && err != context.Canceled {
				logrus.WithError(err).Error("Job scheduler stopped unexpectedly")
			}
		}()
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logrus.WithField("port", cfg.Server.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")
	stopJobs()

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown server
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Fatal("Server forced to shutdown")
	}

	logrus.Info("Server exited")
}
