package models

import (
	"database/sql"
	"time"
)

type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
	AttendanceExcused AttendanceStatus = "excused"
)

func ValidAttendanceStatus(s string) bool {
	switch AttendanceStatus(s) {
	case AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceExcused:
		return true
	}
	return false
}

type HomeworkStatus string

const (
	HomeworkSubmitted HomeworkStatus = "submitted"
	HomeworkLate      HomeworkStatus = "late"
	HomeworkMissing   HomeworkStatus = "missing"
)

func ValidHomeworkStatus(s string) bool {
	switch HomeworkStatus(s) {
	case HomeworkSubmitted, HomeworkLate, HomeworkMissing:
		return true
	}
	return false
}

type User struct {
	UserID   string `db:"user_id"`
	FullName string `db:"full_name"`
	Email    string `db:"email"`
}

type Student struct {
	StudentID string `db:"student_id"`
	FullName  string `db:"full_name"`
}

type AttendanceSession struct {
	AttendanceID string    `db:"attendance_id"`
	ClassID      string    `db:"class_id"`
	SessionDate  string    `db:"session_date"`
	StartTime    string    `db:"start_time"`
	EndTime      string    `db:"end_time"`
	CreatedBy    string    `db:"created_by"`
	CreatedAt    time.Time `db:"created_at"`
}

type AttendanceRecord struct {
	AttendanceID string           `db:"attendance_id"`
	StudentID    string           `db:"student_id"`
	Status       AttendanceStatus `db:"status"`
	MarkedAt     time.Time        `db:"marked_at"`
}

type Homework struct {
	HomeworkID string `db:"homework_id"`
	ClassID    string `db:"class_id"`
	Title      string `db:"title"`
	AssignDate string `db:"assign_date"`
	DueDate    string `db:"due_date"`
}

type HomeworkSubmission struct {
	HomeworkID  string         `db:"homework_id"`
	StudentID   string         `db:"student_id"`
	Status      HomeworkStatus `db:"status"`
	SubmittedAt time.Time      `db:"submitted_at"`
}

// RosterEntry is one student on a session board: status fields are nil until
// the student has an explicit record.
type RosterEntry struct {
	StudentID string
	FullName  string
	Status    *string
	MarkedAt  *time.Time
}

type HistoryRecord struct {
	StudentID   string
	StudentName string
	Status      AttendanceStatus
	StartTime   string
	EndTime     string
	SubjectName string
}

// SessionOption is one attendance session in a teacher's history, used to
// build the subject/date/time picker.
type SessionOption struct {
	SubjectName string
	SessionDate string
	StartTime   string
	EndTime     string
	ClassID     string
}

// ScheduleRow is one class of a teacher joined with its weekly slot, if any.
type ScheduleRow struct {
	ClassID     string
	SubjectName string
	ClassYear   int
	GroupNumber int
	DayOfWeek   sql.NullString
	StartTime   sql.NullString
	EndTime     sql.NullString
}

type ClassRow struct {
	ClassID     string
	SubjectName string
	ClassYear   int
	GroupNumber int
}

// AbsenceCount aggregates absent marks per student and subject.
type AbsenceCount struct {
	StudentID   string
	StudentName string
	SubjectID   string
	SubjectName string
	AbsentCount int
}

// TuitionRow keeps payment fields nullable: a student with no tuition_status
// row is reported as unknown, not dropped.
type TuitionRow struct {
	StudentID   string
	FullName    string
	ClassYear   int
	GroupNumber int
	IsPaid      sql.NullBool
	LastUpdated sql.NullTime
}
