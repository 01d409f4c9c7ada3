package scheduler

import (
	"context"
	"log/slog"
	"time"

	"school-service/api"
	"school-service/internal/lock"
	"school-service/pkg/sl"
)

const (
	sweepLockKey  = "sched:sweep"
	notifyLockKey = "sched:notify"
)

// Jobs is the periodic work: the overdue backfill sweep and the absence
// notification pass.
type Jobs interface {
	SweepOverdue(ctx context.Context) (*api.SweepResult, error)
	NotifyAbsences(ctx context.Context) error
}

type Scheduler struct {
	log      *slog.Logger
	jobs     Jobs
	locker   lock.Locker
	interval time.Duration
	lockTTL  time.Duration

	stop chan struct{}
	done chan struct{}
}

func New(log *slog.Logger, jobs Jobs, locker lock.Locker, interval, lockTTL time.Duration) *Scheduler {
	return &Scheduler{
		log:      log,
		jobs:     jobs,
		locker:   locker,
		interval: interval,
		lockTTL:  lockTTL,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the ticker loop. Each firing runs the sweep and the
// notification pass once; Stop waits for an in-flight run to finish.
func (s *Scheduler) Start(ctx context.Context) {
	go func() {
		defer close(s.done)

		s.log.Info("Scheduler started", slog.String("interval", s.interval.String()))

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.RunOnce(ctx)
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	close(s.stop)
	<-s.done
	s.log.Info("Scheduler stopped")
}

// RunOnce runs both jobs, each under its own lock so a slow run is skipped
// by the next firing rather than doubled.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.runLocked(ctx, sweepLockKey, func(ctx context.Context) {
		result, err := s.jobs.SweepOverdue(ctx)
		if err != nil {
			s.log.Error("Sweep failed", sl.Err(err))
			return
		}

		s.log.Info("Sweep finished",
			slog.Int("attendance_sessions", result.AttendanceSessions),
			slog.Int("absences_marked", result.AbsencesMarked),
			slog.Int("homework_checked", result.HomeworkChecked),
			slog.Int("missing_marked", result.MissingMarked),
		)
	})

	s.runLocked(ctx, notifyLockKey, func(ctx context.Context) {
		if err := s.jobs.NotifyAbsences(ctx); err != nil {
			s.log.Error("Notification pass failed", sl.Err(err))
			return
		}

		s.log.Info("Notification pass finished")
	})
}

func (s *Scheduler) runLocked(ctx context.Context, key string, fn func(ctx context.Context)) {
	locked, err := s.locker.Lock(ctx, key, s.lockTTL)
	if err != nil {
		s.log.Error("Failed to acquire job lock", slog.String("key", key), sl.Err(err))
		return
	}
	if !locked {
		s.log.Debug("Previous run still in progress, skipping", slog.String("key", key))
		return
	}

	defer func() {
		if err := s.locker.Unlock(ctx, key); err != nil {
			s.log.Error("Failed to release job lock", slog.String("key", key), sl.Err(err))
		}
	}()

	fn(ctx)
}
