package backup

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// Job is the work run at each scheduled time.
type Job func(ctx context.Context) error

// Scheduler runs a Job once a day at a fixed local time. Runs never
// overlap: the next fire time is computed only after a run finishes.
type Scheduler struct {
	job     Job
	now     func() time.Time
	after   func(time.Duration) <-chan time.Time
	started atomic.Bool
	done    chan struct{}
}

// NewScheduler creates a scheduler for job.
func NewScheduler(job Job) *Scheduler {
	return &Scheduler{
		job:   job,
		now:   time.Now,
		after: time.After,
		done:  make(chan struct{}),
	}
}

// ParseTimeOfDay parses "HH:MM" in 24-hour form.
func ParseTimeOfDay(s string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time of day %q, want HH:MM", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour, minute, nil
}

// NextRun returns the first hour:minute strictly after now, in now's location.
func NextRun(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = time.Date(now.Year(), now.Month(), now.Day()+1, hour, minute, 0, 0, now.Location())
	}
	return next
}

// Start launches the daily loop at time "HH:MM". It returns false without
// doing anything when the scheduler was already started. The loop stops
// when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context, at string) (bool, error) {
	hour, minute, err := ParseTimeOfDay(at)
	if err != nil {
		return false, err
	}
	if !s.started.CompareAndSwap(false, true) {
		return false, nil
	}
	log.Printf("[Backup] daily schedule at %02d:%02d", hour, minute)
	go s.loop(ctx, hour, minute)
	return true, nil
}

// Done is closed when the loop has exited.
func (s *Scheduler) Done() <-chan struct{} { return s.done }

func (s *Scheduler) loop(ctx context.Context, hour, minute int) {
	defer close(s.done)
	for {
		now := s.now()
		wait := NextRun(now, hour, minute).Sub(now)
		select {
		case <-ctx.Done():
			return
		case <-s.after(wait):
		}
		if ctx.Err() != nil {
			return
		}
		if err := s.job(ctx); err != nil {
			log.Printf("[Backup] scheduled run failed: %v", err)
		}
	}
}
