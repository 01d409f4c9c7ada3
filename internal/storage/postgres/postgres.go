package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"school-service/internal/models"
	"school-service/pkg/response"
)

type Storage struct {
	db *sql.DB
}

func New(storagePath string) (*Storage, error) {
	const op = "storage.postgres.New"

	db, err := sql.Open("postgres", storagePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

func (s *Storage) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, nil)
}

// #### users ####

func (s *Storage) GetUser(ctx context.Context, userID string) (*models.User, error) {
	const op = "storage.postgres.GetUser"

	var user models.User

	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, full_name, email FROM users WHERE user_id=$1`, userID).
		Scan(&user.UserID, &user.FullName, &user.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &user, nil
}

func (s *Storage) InsertUser(ctx context.Context, user *models.User) error {
	const op = "storage.postgres.InsertUser"

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (user_id, full_name, email) VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO NOTHING`,
		user.UserID, user.FullName, user.Email,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// #### attendance sessions ####

func (s *Storage) GetAttendanceSession(ctx context.Context, classID, date, startTime, endTime string) (*models.AttendanceSession, error) {
	const op = "storage.postgres.GetAttendanceSession"

	var session models.AttendanceSession

	err := s.db.QueryRowContext(ctx,
		`SELECT attendance_id, class_id, to_char(session_date, 'YYYY-MM-DD'),
			to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'), created_by
		FROM attendance_sessions
		WHERE class_id=$1 AND session_date=$2 AND start_time=$3 AND end_time=$4`,
		classID, date, startTime, endTime).
		Scan(
			&session.AttendanceID,
			&session.ClassID,
			&session.SessionDate,
			&session.StartTime,
			&session.EndTime,
			&session.CreatedBy,
		)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &session, nil
}

func (s *Storage) InsertAttendanceSession(ctx context.Context, session *models.AttendanceSession) error {
	const op = "storage.postgres.InsertAttendanceSession"

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO attendance_sessions
		(attendance_id, class_id, session_date, start_time, end_time, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		session.AttendanceID,
		session.ClassID,
		session.SessionDate,
		session.StartTime,
		session.EndTime,
		session.CreatedBy,
	)
	if err != nil {
		sqlErr, ok := err.(*pq.Error)
		if ok && sqlErr.Code == "23505" {
			return fmt.Errorf("%s: %w", op, response.ErrSessionExists)
		}
		if ok && sqlErr.Code == "23503" {
			return fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) ListClassStudents(ctx context.Context, classID string) ([]models.Student, error) {
	const op = "storage.postgres.ListClassStudents"

	rows, err := s.db.QueryContext(ctx,
		`SELECT s.student_id, s.full_name
		FROM class_students cs
		JOIN students s ON cs.student_id = s.student_id
		WHERE cs.class_id=$1
		ORDER BY s.student_id`,
		classID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var students []models.Student
	for rows.Next() {
		var st models.Student
		if err := rows.Scan(&st.StudentID, &st.FullName); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		students = append(students, st)
	}

	return students, nil
}

func (s *Storage) ListAttendanceRecords(ctx context.Context, attendanceID string) ([]models.AttendanceRecord, error) {
	const op = "storage.postgres.ListAttendanceRecords"

	rows, err := s.db.QueryContext(ctx,
		`SELECT student_id, status, marked_at
		FROM attendance_records
		WHERE attendance_id=$1`,
		attendanceID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var records []models.AttendanceRecord
	for rows.Next() {
		rec := models.AttendanceRecord{AttendanceID: attendanceID}
		if err := rows.Scan(&rec.StudentID, &rec.Status, &rec.MarkedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		records = append(records, rec)
	}

	return records, nil
}

func (s *Storage) UpsertAttendanceRecordTx(ctx context.Context, tx *sql.Tx, attendanceID, studentID, status string, markedAt time.Time) error {
	const op = "storage.postgres.UpsertAttendanceRecordTx"

	_, err := tx.ExecContext(ctx,
		`INSERT INTO attendance_records (attendance_id, student_id, status, marked_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (attendance_id, student_id)
		DO UPDATE SET status = EXCLUDED.status, marked_at = EXCLUDED.marked_at`,
		attendanceID, studentID, status, markedAt,
	)
	if err != nil {
		sqlErr, ok := err.(*pq.Error)
		if ok && sqlErr.Code == "23503" {
			return fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) AttendanceHistory(ctx context.Context, classID, date string, startTime, endTime *string) ([]models.HistoryRecord, error) {
	const op = "storage.postgres.AttendanceHistory"

	query := `SELECT
			st.student_id,
			st.full_name,
			ar.status,
			to_char(a.start_time, 'HH24:MI'),
			to_char(a.end_time, 'HH24:MI'),
			sub.subject_name
		FROM attendance_sessions a
		JOIN attendance_records ar ON ar.attendance_id = a.attendance_id
		JOIN students st ON st.student_id = ar.student_id
		JOIN classes c ON c.class_id = a.class_id
		JOIN subjects sub ON sub.subject_id = c.subject_id
		WHERE a.class_id=$1 AND a.session_date=$2`

	args := []any{classID, date}
	if startTime != nil && endTime != nil {
		query += ` AND a.start_time=$3 AND a.end_time=$4`
		args = append(args, *startTime, *endTime)
	}
	query += ` ORDER BY a.start_time, st.student_id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var records []models.HistoryRecord
	for rows.Next() {
		var rec models.HistoryRecord
		err := rows.Scan(
			&rec.StudentID,
			&rec.StudentName,
			&rec.Status,
			&rec.StartTime,
			&rec.EndTime,
			&rec.SubjectName,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		records = append(records, rec)
	}

	return records, nil
}

func (s *Storage) ListSessionOptions(ctx context.Context, userID string) ([]models.SessionOption, error) {
	const op = "storage.postgres.ListSessionOptions"

	rows, err := s.db.QueryContext(ctx,
		`SELECT
			sub.subject_name,
			to_char(a.session_date, 'YYYY-MM-DD'),
			to_char(a.start_time, 'HH24:MI'),
			to_char(a.end_time, 'HH24:MI'),
			a.class_id
		FROM attendance_sessions a
		JOIN classes c ON a.class_id = c.class_id
		JOIN subjects sub ON c.subject_id = sub.subject_id
		WHERE c.user_id=$1
		ORDER BY sub.subject_name, a.session_date, a.start_time`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var options []models.SessionOption
	for rows.Next() {
		var opt models.SessionOption
		err := rows.Scan(
			&opt.SubjectName,
			&opt.SessionDate,
			&opt.StartTime,
			&opt.EndTime,
			&opt.ClassID,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		options = append(options, opt)
	}

	return options, nil
}

// #### backfill sweep ####

// ListOverdueAttendanceSessions returns sessions whose end already passed.
// now is a naive civil timestamp in the reference timezone.
func (s *Storage) ListOverdueAttendanceSessions(ctx context.Context, now string) ([]models.AttendanceSession, error) {
	const op = "storage.postgres.ListOverdueAttendanceSessions"

	rows, err := s.db.QueryContext(ctx,
		`SELECT attendance_id, class_id, to_char(session_date, 'YYYY-MM-DD'),
			to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'), created_by
		FROM attendance_sessions
		WHERE session_date + end_time < $1::timestamp
		ORDER BY session_date`,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var sessions []models.AttendanceSession
	for rows.Next() {
		var session models.AttendanceSession
		err := rows.Scan(
			&session.AttendanceID,
			&session.ClassID,
			&session.SessionDate,
			&session.StartTime,
			&session.EndTime,
			&session.CreatedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		sessions = append(sessions, session)
	}

	return sessions, nil
}

func (s *Storage) BackfillAbsences(ctx context.Context, attendanceID, classID string, markedAt time.Time) (int64, error) {
	const op = "storage.postgres.BackfillAbsences"

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO attendance_records (attendance_id, student_id, status, marked_at)
		SELECT $1, cs.student_id, 'absent', $3
		FROM class_students cs
		WHERE cs.class_id=$2
		ON CONFLICT (attendance_id, student_id) DO NOTHING`,
		attendanceID, classID, markedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return n, nil
}

func (s *Storage) ListOverdueHomework(ctx context.Context, today string) ([]models.Homework, error) {
	const op = "storage.postgres.ListOverdueHomework"

	rows, err := s.db.QueryContext(ctx,
		`SELECT homework_id, class_id, title,
			to_char(assign_date, 'YYYY-MM-DD'), to_char(due_date, 'YYYY-MM-DD')
		FROM homework
		WHERE due_date < $1
		ORDER BY due_date DESC`,
		today,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var list []models.Homework
	for rows.Next() {
		var hw models.Homework
		err := rows.Scan(&hw.HomeworkID, &hw.ClassID, &hw.Title, &hw.AssignDate, &hw.DueDate)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		list = append(list, hw)
	}

	return list, nil
}

// BackfillMissing marks missing for roster students without a satisfying
// submission. The conflict clause never touches submitted/late rows and
// leaves existing missing rows as they are, so a repeated sweep is a no-op.
func (s *Storage) BackfillMissing(ctx context.Context, homeworkID, classID string, submittedAt time.Time) (int64, error) {
	const op = "storage.postgres.BackfillMissing"

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO homework_submissions (homework_id, student_id, status, submitted_at)
		SELECT $1, cs.student_id, 'missing', $3
		FROM class_students cs
		WHERE cs.class_id=$2
		AND NOT EXISTS (
			SELECT 1 FROM homework_submissions hs
			WHERE hs.homework_id = $1
			AND hs.student_id = cs.student_id
			AND hs.status IN ('submitted', 'late')
		)
		ON CONFLICT (homework_id, student_id) DO UPDATE
		SET status = 'missing', submitted_at = EXCLUDED.submitted_at
		WHERE homework_submissions.status NOT IN ('submitted', 'late', 'missing')`,
		homeworkID, classID, submittedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return n, nil
}

// #### homework ####

func (s *Storage) InsertHomework(ctx context.Context, hw *models.Homework) error {
	const op = "storage.postgres.InsertHomework"

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO homework (homework_id, class_id, title, assign_date, due_date)
		VALUES ($1, $2, $3, $4, $5)`,
		hw.HomeworkID, hw.ClassID, hw.Title, hw.AssignDate, hw.DueDate,
	)
	if err != nil {
		sqlErr, ok := err.(*pq.Error)
		if ok && sqlErr.Code == "23505" {
			return fmt.Errorf("%s: %w", op, response.ErrSessionExists)
		}
		if ok && sqlErr.Code == "23503" {
			return fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) GetHomeworkByKey(ctx context.Context, classID, title, dueDate string) (*models.Homework, error) {
	const op = "storage.postgres.GetHomeworkByKey"

	var hw models.Homework

	err := s.db.QueryRowContext(ctx,
		`SELECT homework_id, class_id, title,
			to_char(assign_date, 'YYYY-MM-DD'), to_char(due_date, 'YYYY-MM-DD')
		FROM homework
		WHERE class_id=$1 AND title=$2 AND due_date=$3`,
		classID, title, dueDate).
		Scan(&hw.HomeworkID, &hw.ClassID, &hw.Title, &hw.AssignDate, &hw.DueDate)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &hw, nil
}

func (s *Storage) GetHomework(ctx context.Context, homeworkID string) (*models.Homework, error) {
	const op = "storage.postgres.GetHomework"

	var hw models.Homework

	err := s.db.QueryRowContext(ctx,
		`SELECT homework_id, class_id, title,
			to_char(assign_date, 'YYYY-MM-DD'), to_char(due_date, 'YYYY-MM-DD')
		FROM homework
		WHERE homework_id=$1`,
		homeworkID).
		Scan(&hw.HomeworkID, &hw.ClassID, &hw.Title, &hw.AssignDate, &hw.DueDate)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &hw, nil
}

func (s *Storage) ListHomework(ctx context.Context, classID string) ([]models.Homework, error) {
	const op = "storage.postgres.ListHomework"

	rows, err := s.db.QueryContext(ctx,
		`SELECT homework_id, class_id, title,
			to_char(assign_date, 'YYYY-MM-DD'), to_char(due_date, 'YYYY-MM-DD')
		FROM homework
		WHERE class_id=$1
		ORDER BY due_date DESC`,
		classID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var list []models.Homework
	for rows.Next() {
		var hw models.Homework
		err := rows.Scan(&hw.HomeworkID, &hw.ClassID, &hw.Title, &hw.AssignDate, &hw.DueDate)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		list = append(list, hw)
	}

	return list, nil
}

func (s *Storage) HomeworkRoster(ctx context.Context, homeworkID, classID string) ([]models.RosterEntry, error) {
	const op = "storage.postgres.HomeworkRoster"

	rows, err := s.db.QueryContext(ctx,
		`SELECT st.student_id, st.full_name, hs.status, hs.submitted_at
		FROM class_students cs
		JOIN students st ON cs.student_id = st.student_id
		LEFT JOIN homework_submissions hs
			ON hs.student_id = st.student_id AND hs.homework_id = $1
		WHERE cs.class_id=$2
		ORDER BY st.student_id`,
		homeworkID, classID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var entries []models.RosterEntry
	for rows.Next() {
		var entry models.RosterEntry
		var status sql.NullString
		var submittedAt sql.NullTime

		if err := rows.Scan(&entry.StudentID, &entry.FullName, &status, &submittedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		if status.Valid {
			entry.Status = &status.String
		}
		if submittedAt.Valid {
			t := submittedAt.Time
			entry.MarkedAt = &t
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

func (s *Storage) UpsertHomeworkSubmissionTx(ctx context.Context, tx *sql.Tx, homeworkID, studentID, status string, submittedAt time.Time) error {
	const op = "storage.postgres.UpsertHomeworkSubmissionTx"

	_, err := tx.ExecContext(ctx,
		`INSERT INTO homework_submissions (homework_id, student_id, status, submitted_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (homework_id, student_id)
		DO UPDATE SET status = EXCLUDED.status, submitted_at = EXCLUDED.submitted_at`,
		homeworkID, studentID, status, submittedAt,
	)
	if err != nil {
		sqlErr, ok := err.(*pq.Error)
		if ok && sqlErr.Code == "23503" {
			return fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// DeleteHomework removes the homework and its submissions in one transaction.
// Returns how many homework rows were deleted.
func (s *Storage) DeleteHomework(ctx context.Context, homeworkID string) (int64, error) {
	const op = "storage.postgres.DeleteHomework"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: begin tx: %w", op, err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM homework_submissions WHERE homework_id=$1`, homeworkID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM homework WHERE homework_id=$1`, homeworkID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: commit: %w", op, err)
	}

	return n, nil
}

// #### teacher classes / schedule ####

func (s *Storage) ListTeacherSchedule(ctx context.Context, userID string) ([]models.ScheduleRow, error) {
	const op = "storage.postgres.ListTeacherSchedule"

	rows, err := s.db.QueryContext(ctx,
		`SELECT c.class_id, sub.subject_name, c.class_year, c.group_number,
			cs.day_of_week, to_char(cs.start_time, 'HH24:MI'), to_char(cs.end_time, 'HH24:MI')
		FROM classes c
		JOIN subjects sub ON c.subject_id = sub.subject_id
		LEFT JOIN class_sessions cs ON c.class_id = cs.class_id
		WHERE c.user_id=$1
		ORDER BY c.class_year ASC, c.group_number ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var schedule []models.ScheduleRow
	for rows.Next() {
		var row models.ScheduleRow
		err := rows.Scan(
			&row.ClassID,
			&row.SubjectName,
			&row.ClassYear,
			&row.GroupNumber,
			&row.DayOfWeek,
			&row.StartTime,
			&row.EndTime,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		schedule = append(schedule, row)
	}

	return schedule, nil
}

func (s *Storage) ListTeacherClasses(ctx context.Context, userID string) ([]models.ClassRow, error) {
	const op = "storage.postgres.ListTeacherClasses"

	rows, err := s.db.QueryContext(ctx,
		`SELECT c.class_id, sub.subject_name, c.class_year, c.group_number
		FROM classes c
		JOIN subjects sub ON c.subject_id = sub.subject_id
		WHERE c.user_id=$1
		ORDER BY c.class_year, c.group_number`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var classes []models.ClassRow
	for rows.Next() {
		var row models.ClassRow
		if err := rows.Scan(&row.ClassID, &row.SubjectName, &row.ClassYear, &row.GroupNumber); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		classes = append(classes, row)
	}

	return classes, nil
}

// #### parents / notifications ####

func (s *Storage) GetStudent(ctx context.Context, studentID string) (*models.Student, error) {
	const op = "storage.postgres.GetStudent"

	var student models.Student

	err := s.db.QueryRowContext(ctx,
		`SELECT student_id, full_name FROM students WHERE student_id=$1`, studentID).
		Scan(&student.StudentID, &student.FullName)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &student, nil
}

// InsertParentLink returns 0 affected rows when the link already exists.
func (s *Storage) InsertParentLink(ctx context.Context, studentID, lineID string) (int64, error) {
	const op = "storage.postgres.InsertParentLink"

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO parents (student_id, line_id) VALUES ($1, $2)
		ON CONFLICT (student_id, line_id) DO NOTHING`,
		studentID, lineID,
	)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return n, nil
}

func (s *Storage) DeleteParentLink(ctx context.Context, studentID, lineID string) (int64, error) {
	const op = "storage.postgres.DeleteParentLink"

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM parents WHERE student_id=$1 AND line_id=$2`,
		studentID, lineID,
	)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return n, nil
}

func (s *Storage) ListParentLinks(ctx context.Context, studentID string) ([]string, error) {
	const op = "storage.postgres.ListParentLinks"

	rows, err := s.db.QueryContext(ctx,
		`SELECT line_id FROM parents WHERE student_id=$1`, studentID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var lineIDs []string
	for rows.Next() {
		var lineID string
		if err := rows.Scan(&lineID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		lineIDs = append(lineIDs, lineID)
	}

	return lineIDs, nil
}

func (s *Storage) ListAbsenceCounts(ctx context.Context, threshold int) ([]models.AbsenceCount, error) {
	const op = "storage.postgres.ListAbsenceCounts"

	rows, err := s.db.QueryContext(ctx,
		`SELECT st.student_id, st.full_name, sub.subject_id, sub.subject_name, COUNT(ar.status)
		FROM attendance_records ar
		JOIN attendance_sessions a ON ar.attendance_id = a.attendance_id
		JOIN students st ON ar.student_id = st.student_id
		JOIN classes c ON a.class_id = c.class_id
		JOIN subjects sub ON c.subject_id = sub.subject_id
		WHERE ar.status = 'absent'
		GROUP BY st.student_id, st.full_name, sub.subject_id, sub.subject_name
		HAVING COUNT(ar.status) >= $1`,
		threshold,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var counts []models.AbsenceCount
	for rows.Next() {
		var c models.AbsenceCount
		err := rows.Scan(&c.StudentID, &c.StudentName, &c.SubjectID, &c.SubjectName, &c.AbsentCount)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		counts = append(counts, c)
	}

	return counts, nil
}

func (s *Storage) NotificationExists(ctx context.Context, studentID, reason string) (bool, error) {
	const op = "storage.postgres.NotificationExists"

	var exists bool

	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM parent_notifications WHERE student_id=$1 AND reason=$2
		)`,
		studentID, reason).
		Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return exists, nil
}

func (s *Storage) InsertNotification(ctx context.Context, studentID, reason string, notifiedAt time.Time) error {
	const op = "storage.postgres.InsertNotification"

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO parent_notifications (student_id, reason, notified_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (student_id, reason) DO NOTHING`,
		studentID, reason, notifiedAt,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// #### tuition ####

func (s *Storage) TuitionForTeacher(ctx context.Context, userID, filter string) ([]models.TuitionRow, error) {
	const op = "storage.postgres.TuitionForTeacher"

	query := `SELECT st.student_id, st.full_name, st.class_year, st.group_number,
			t.is_paid, t.last_updated
		FROM students st
		LEFT JOIN tuition_status t ON st.student_id = t.student_id
		WHERE st.homeroom_teacher_id=$1`

	switch filter {
	case "paid":
		query += ` AND t.is_paid = TRUE`
	case "unpaid":
		query += ` AND t.is_paid = FALSE`
	}
	query += ` ORDER BY st.student_id`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var result []models.TuitionRow
	for rows.Next() {
		var row models.TuitionRow
		err := rows.Scan(
			&row.StudentID,
			&row.FullName,
			&row.ClassYear,
			&row.GroupNumber,
			&row.IsPaid,
			&row.LastUpdated,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		result = append(result, row)
	}

	return result, nil
}

func (s *Storage) TuitionForLineID(ctx context.Context, lineID string) ([]models.TuitionRow, error) {
	const op = "storage.postgres.TuitionForLineID"

	rows, err := s.db.QueryContext(ctx,
		`SELECT st.student_id, st.full_name, st.class_year, st.group_number,
			t.is_paid, t.last_updated
		FROM parents p
		JOIN students st ON p.student_id = st.student_id
		LEFT JOIN tuition_status t ON st.student_id = t.student_id
		WHERE p.line_id=$1
		ORDER BY st.student_id`,
		lineID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var result []models.TuitionRow
	for rows.Next() {
		var row models.TuitionRow
		err := rows.Scan(
			&row.StudentID,
			&row.FullName,
			&row.ClassYear,
			&row.GroupNumber,
			&row.IsPaid,
			&row.LastUpdated,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		result = append(result, row)
	}

	return result, nil
}
