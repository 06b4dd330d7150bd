// internal/jobs/jobs.go
package jobs

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/wastetrack/wastetrack-backend/internal/services"
)

// Job is a recurring batch task. Run must be safe to call again after a
// failure; the scheduler retries on the next tick.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Appendix1CleanupJob reclaims grouped producer forms whose signing window
// has expired.
type Appendix1CleanupJob struct {
	cleanup *services.CleanupService
}

func NewAppendix1CleanupJob(cleanup *services.CleanupService) *Appendix1CleanupJob {
	return &Appendix1CleanupJob{cleanup: cleanup}
}

func (j *Appendix1CleanupJob) Name() string { return "cleanup-appendix1" }

func (j *Appendix1CleanupJob) Run(ctx context.Context) error {
	reclaimed, err := j.cleanup.CleanUnusedAppendix1ProducerForms(ctx)
	if err != nil {
		return err
	}
	logrus.WithField("reclaimed", reclaimed).Info("Appendix 1 cleanup job done")
	return nil
}

// RevisionReminderJob emails company admins with revision requests opened
// yesterday that nobody resolved.
type RevisionReminderJob struct {
	revisions     *services.RevisionRequestService
	notifications *services.NotificationService
}

func NewRevisionReminderJob(revisions *services.RevisionRequestService, notifications *services.NotificationService) *RevisionReminderJob {
	return &RevisionReminderJob{revisions: revisions, notifications: notifications}
}

func (j *RevisionReminderJob) Name() string { return "notify-revision-requests" }

func (j *RevisionReminderJob) Run(ctx context.Context) error {
	requests, err := j.revisions.GetPendingRequestsWithSubscribers(1)
	if err != nil {
		return fmt.Errorf("failed to load pending revision requests: %w", err)
	}
	if len(requests) == 0 {
		logrus.Info("No pending revision requests from yesterday")
		return nil
	}

	sent, err := j.notifications.SendPendingRevisionReminders(requests)
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"requests": len(requests),
		"emails":   sent,
	}).Info("Revision reminder job done")
	return nil
}
