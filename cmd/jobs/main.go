// cmd/jobs/main.go
package main

import (
	"context"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wastetrack/wastetrack-backend/internal/config"
	"github.com/wastetrack/wastetrack-backend/internal/database"
	"github.com/wastetrack/wastetrack-backend/internal/jobs"
	"github.com/wastetrack/wastetrack-backend/internal/services"
)

// The jobs binary runs one scheduled job and exits. It exists for
// deployments that fire the daily batches from cron or a one-off operator
// shell instead of the in-process scheduler.
func main() {
	rootCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Run WasteTrack batch jobs",
	}

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "cleanup-appendix1",
			Short: "Reclaim never-signed producer forms grouped under expired appendix 1 containers",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runJob(func(deps *dependencies) jobs.Job {
					return jobs.NewAppendix1CleanupJob(deps.cleanup)
				})
			},
		},
		&cobra.Command{
			Use:   "notify-revision-requests",
			Short: "Email company admins about revision requests pending since yesterday",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runJob(func(deps *dependencies) jobs.Job {
					return jobs.NewRevisionReminderJob(deps.revisions, deps.notifications)
				})
			},
		},
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type dependencies struct {
	cleanup       *services.CleanupService
	revisions     *services.RevisionRequestService
	notifications *services.NotificationService
}

func runJob(build func(*dependencies) jobs.Job) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	db, err := database.Initialize(cfg.Database)
	if err != nil {
		return err
	}
	defer database.Close(db)

	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		return err
	}

	deps := &dependencies{
		cleanup:       services.NewCleanupService(db, storageService),
		revisions:     services.NewRevisionRequestService(db),
		notifications: services.NewNotificationService(db, cfg),
	}

	job := build(deps)
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Jobs.TimeoutMinutes)*time.Minute)
	defer cancel()

	start := time.Now()
	if err := job.Run(ctx); err != nil {
		logrus.WithError(err).WithField("job", job.Name()).Error("Job failed")
		return err
	}
	logrus.WithFields(logrus.Fields{
		"job":      job.Name(),
		"duration": time.Since(start),
	}).Info("Job finished")
	return nil
}
