// internal/jobs/scheduler.go
package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/wastetrack/wastetrack-backend/internal/metrics"
)

// Scheduler fires every registered job once a day at a fixed hour. Jobs for
// one tick run concurrently; a job still running from the previous tick is
// skipped rather than stacked.
type Scheduler struct {
	hour    int
	timeout time.Duration
	now     func() time.Time

	mu      sync.Mutex
	jobs    []Job
	running map[string]*sync.Mutex
}

func NewScheduler(hour int, timeout time.Duration) *Scheduler {
	return &Scheduler{
		hour:    hour,
		timeout: timeout,
		now:     time.Now,
		running: make(map[string]*sync.Mutex),
	}
}

func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

func (s *Scheduler) Register(job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, job)
	s.running[job.Name()] = &sync.Mutex{}
}

// Start blocks until ctx is canceled.
func (s *Scheduler) Start(ctx context.Context) error {
	logrus.WithField("hour", s.hour).Info("Job scheduler started")
	for {
		next := s.NextFireTime(s.now())
		timer := time.NewTimer(next.Sub(s.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			logrus.Info("Job scheduler stopped")
			return ctx.Err()
		case <-timer.C:
			s.RunAll(ctx)
		}
	}
}

// NextFireTime returns the next daily tick strictly after now.
func (s *Scheduler) NextFireTime(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// RunAll runs every registered job concurrently and waits for them.
func (s *Scheduler) RunAll(ctx context.Context) {
	s.mu.Lock()
	jobs := make([]Job, len(s.jobs))
	copy(jobs, s.jobs)
	s.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			s.RunJob(gctx, job)
			return nil
		})
	}
	_ = g.Wait()
}

// RunJob runs one job with the single-flight guard and the per-run timeout.
func (s *Scheduler) RunJob(ctx context.Context, job Job) {
	s.mu.Lock()
	guard := s.running[job.Name()]
	s.mu.Unlock()

	if !guard.TryLock() {
		logrus.WithField("job", job.Name()).Warn("Previous run still in progress, skipping")
		metrics.JobRuns.WithLabelValues(job.Name(), "skipped").Inc()
		return
	}
	defer guard.Unlock()

	runCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := s.now()
	logrus.WithField("job", job.Name()).Info("Job started")
	if err := job.Run(runCtx); err != nil {
		metrics.JobRuns.WithLabelValues(job.Name(), "failure").Inc()
		logrus.WithError(err).WithFields(logrus.Fields{
			"job":      job.Name(),
			"duration": s.now().Sub(start),
		}).Error("Job failed")
		return
	}
	metrics.JobRuns.WithLabelValues(job.Name(), "success").Inc()
	logrus.WithFields(logrus.Fields{
		"job":      job.Name(),
		"duration": s.now().Sub(start),
	}).Info("Job finished")
}
