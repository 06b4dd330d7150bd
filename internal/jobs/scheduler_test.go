// internal/jobs/scheduler_test.go
package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingJob struct {
	name    string
	runs    atomic.Int32
	release chan struct{}
}

func (j *countingJob) Name() string { return j.name }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	if j.release != nil {
		<-j.release
	}
	return nil
}

func TestNextFireTimeSameDay(t *testing.T) {
	s := NewScheduler(4, 0)

	now := time.Date(2024, 6, 10, 2, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 6, 10, 4, 0, 0, 0, time.UTC), s.NextFireTime(now))
}

func TestNextFireTimeRollsToTomorrow(t *testing.T) {
	s := NewScheduler(4, 0)

	now := time.Date(2024, 6, 10, 4, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 6, 11, 4, 0, 0, 0, time.UTC), s.NextFireTime(now))

	now = time.Date(2024, 6, 10, 15, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 6, 11, 4, 0, 0, 0, time.UTC), s.NextFireTime(now))
}

func TestRunJobSingleFlight(t *testing.T) {
	s := NewScheduler(4, 0)
	job := &countingJob{name: "slow", release: make(chan struct{})}
	s.Register(job)

	done := make(chan struct{})
	go func() {
		s.RunJob(context.Background(), job)
		close(done)
	}()

	// Wait until the first run holds the guard.
	for job.runs.Load() == 0 {
		time.Sleep(time.Millisecond)
	}

	// A concurrent run is skipped, not queued.
	s.RunJob(context.Background(), job)
	assert.Equal(t, int32(1), job.runs.Load())

	close(job.release)
	<-done
}

func TestRunAllRunsEveryJob(t *testing.T) {
	s := NewScheduler(4, 0)
	first := &countingJob{name: "first"}
	second := &countingJob{name: "second"}
	s.Register(first)
	s.Register(second)

	s.RunAll(context.Background())

	assert.Equal(t, int32(1), first.runs.Load())
	assert.Equal(t, int32(1), second.runs.Load())
}
