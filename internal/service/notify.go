package service

import (
	"context"
	"fmt"
	"log/slog"

	"school-service/pkg/sl"
)

// NotifyAbsences messages parents of students who reached the absence
// threshold in some subject, at most once per (student, reason). Students
// without a linked chat are skipped silently; a send failure for one student
// does not stop the rest.
func (s *Service) NotifyAbsences(ctx context.Context) error {
	const op = "service.NotifyAbsences"

	log := s.log.With(slog.String("op", op))

	counts, err := s.store.ListAbsenceCounts(ctx, s.absenceThreshold)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for _, row := range counts {
		reason := fmt.Sprintf("reached %d absences in %s", s.absenceThreshold, row.SubjectName)

		exists, err := s.store.NotificationExists(ctx, row.StudentID, reason)
		if err != nil {
			log.Error("Failed to check notification",
				slog.String("student_id", row.StudentID), sl.Err(err))
			continue
		}
		if exists {
			continue
		}

		lineIDs, err := s.store.ListParentLinks(ctx, row.StudentID)
		if err != nil {
			log.Error("Failed to resolve parent links",
				slog.String("student_id", row.StudentID), sl.Err(err))
			continue
		}
		if len(lineIDs) == 0 {
			continue
		}

		text := fmt.Sprintf("Notice: student %s has reached %d absences in %s",
			row.StudentName, s.absenceThreshold, row.SubjectName)

		sent := false
		for _, lineID := range lineIDs {
			if err := s.msg.Push(ctx, lineID, text); err != nil {
				log.Error("Failed to push notification",
					slog.String("student_id", row.StudentID), sl.Err(err))
				continue
			}
			sent = true
		}
		if !sent {
			continue
		}

		// one record per reason, no matter how many chats were messaged
		if err := s.store.InsertNotification(ctx, row.StudentID, reason, s.nowLocal()); err != nil {
			log.Error("Failed to record notification",
				slog.String("student_id", row.StudentID), sl.Err(err))
		}
	}

	return nil
}
