package service

import (
	"context"
	"fmt"
	"log/slog"

	"school-service/api"
	"school-service/pkg/sl"
)

// SweepOverdue backfills terminal statuses for everything past its deadline:
// absent for attendance sessions that already ended, missing for homework
// past its due date. One session failing is logged and skipped; the sweep
// keeps going.
func (s *Service) SweepOverdue(ctx context.Context) (*api.SweepResult, error) {
	const op = "service.SweepOverdue"

	log := s.log.With(slog.String("op", op))

	result := &api.SweepResult{}

	now := s.nowLocal().Format("2006-01-02 15:04:05")

	sessions, err := s.store.ListOverdueAttendanceSessions(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result.AttendanceSessions = len(sessions)

	for _, session := range sessions {
		n, err := s.store.BackfillAbsences(ctx, session.AttendanceID, session.ClassID, s.nowLocal())
		if err != nil {
			log.Error("Failed to backfill absences",
				slog.String("attendance_id", session.AttendanceID), sl.Err(err))
			continue
		}

		result.AbsencesMarked += int(n)
	}

	overdue, err := s.store.ListOverdueHomework(ctx, s.today())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result.HomeworkChecked = len(overdue)

	for _, hw := range overdue {
		n, err := s.store.BackfillMissing(ctx, hw.HomeworkID, hw.ClassID, s.nowLocal())
		if err != nil {
			log.Error("Failed to backfill missing homework",
				slog.String("homework_id", hw.HomeworkID), sl.Err(err))
			continue
		}

		result.MissingMarked += int(n)
	}

	return result, nil
}

// CheckMissingHomework is the on-demand variant covering homework only.
func (s *Service) CheckMissingHomework(ctx context.Context) (*api.SweepResult, error) {
	const op = "service.CheckMissingHomework"

	log := s.log.With(slog.String("op", op))

	result := &api.SweepResult{}

	overdue, err := s.store.ListOverdueHomework(ctx, s.today())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result.HomeworkChecked = len(overdue)

	for _, hw := range overdue {
		n, err := s.store.BackfillMissing(ctx, hw.HomeworkID, hw.ClassID, s.nowLocal())
		if err != nil {
			log.Error("Failed to backfill missing homework",
				slog.String("homework_id", hw.HomeworkID), sl.Err(err))
			continue
		}

		result.MissingMarked += int(n)
	}

	return result, nil
}
