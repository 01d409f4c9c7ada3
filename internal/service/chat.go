package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"school-service/pkg/response"
	"school-service/pkg/sl"
)

// HandleIncomingMessage interprets one chat message and returns the reply
// text. Three shapes are recognized: "unlink <student_id>", the "tuition"
// keyword, and anything else is treated as a student id to link. Failures
// turn into an apology reply since the chat channel has no error display.
func (s *Service) HandleIncomingMessage(ctx context.Context, text, lineID string) string {
	const op = "service.HandleIncomingMessage"

	log := s.log.With(slog.String("op", op))

	text = strings.TrimSpace(text)

	var (
		reply string
		err   error
	)

	switch {
	case strings.HasPrefix(strings.ToLower(text), "unlink "):
		studentID := strings.TrimSpace(text[len("unlink "):])
		reply, err = s.unlinkStudent(ctx, studentID, lineID)
	case strings.EqualFold(text, "tuition"):
		reply, err = s.tuitionSummary(ctx, lineID)
	default:
		reply, err = s.linkStudent(ctx, text, lineID)
	}

	if err != nil {
		log.Error("Chat command failed", sl.Err(err))
		return "Sorry, something went wrong. Please try again later."
	}

	return reply
}

func (s *Service) linkStudent(ctx context.Context, studentID, lineID string) (string, error) {
	const op = "service.linkStudent"

	student, err := s.store.GetStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return fmt.Sprintf("Student id %s was not found.", studentID), nil
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	n, err := s.store.InsertParentLink(ctx, studentID, lineID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if n == 0 {
		return fmt.Sprintf("This chat is already linked to student %s.", studentID), nil
	}

	return fmt.Sprintf("Linked this chat to student %s (%s).", studentID, student.FullName), nil
}

func (s *Service) unlinkStudent(ctx context.Context, studentID, lineID string) (string, error) {
	const op = "service.unlinkStudent"

	n, err := s.store.DeleteParentLink(ctx, studentID, lineID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if n == 0 {
		return fmt.Sprintf("No link for student %s was found in this chat.", studentID), nil
	}

	return fmt.Sprintf("Unlinked student %s from this chat.", studentID), nil
}

func (s *Service) tuitionSummary(ctx context.Context, lineID string) (string, error) {
	const op = "service.tuitionSummary"

	rows, err := s.store.TuitionForLineID(ctx, lineID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if len(rows) == 0 {
		return "No students are linked to this chat yet. Send a student id to link one.", nil
	}

	var b strings.Builder
	b.WriteString("Tuition status:\n")

	for _, row := range rows {
		status := "unknown"
		if row.IsPaid.Valid {
			if row.IsPaid.Bool {
				status = "paid"
			} else {
				status = "unpaid"
			}
		}

		fmt.Fprintf(&b, "%s (%s): %s\n", row.FullName, row.StudentID, status)
	}

	return strings.TrimRight(b.String(), "\n"), nil
}
