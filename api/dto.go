package api

import "time"

// Attendance

type StatusEntry struct {
	StudentID string `json:"student_id" validate:"required"`
	Status    string `json:"status" validate:"required"`
}

type MarkAttendanceRequest struct {
	ClassID   string        `json:"class_id" validate:"required"`
	Date      string        `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string        `json:"start_time" validate:"required"`
	EndTime   string        `json:"end_time" validate:"required"`
	CreatedBy string        `json:"created_by" validate:"required"`
	Records   []StatusEntry `json:"records" validate:"required,min=1,dive"`
}

type BoardStudent struct {
	StudentID string     `json:"student_id"`
	FullName  string     `json:"full_name"`
	Status    *string    `json:"status"`
	MarkedAt  *time.Time `json:"marked_at"`
}

type AttendanceBoardResponse struct {
	AttendanceID *string        `json:"attendance_id"`
	Students     []BoardStudent `json:"students"`
}

type HistoryEntry struct {
	StudentID string `json:"student_id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
}

type AttendanceHistoryResponse struct {
	ClassID     string         `json:"class_id"`
	Date        string         `json:"date"`
	StartTime   string         `json:"start_time"`
	EndTime     string         `json:"end_time"`
	SubjectName string         `json:"subject_name"`
	Attendance  []HistoryEntry `json:"attendance"`
}

type TimeOption struct {
	Label     string `json:"label"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	ClassID   string `json:"class_id"`
}

type HistoryOptionsResponse struct {
	Subjects     []string                `json:"subjects"`
	SubjectDates map[string][]string     `json:"subjectDates"`
	DateTimes    map[string][]TimeOption `json:"dateTimes"`
}

// Subjects

type SubjectItem struct {
	ClassID      string  `json:"class_id"`
	SubjectName  string  `json:"subject_name"`
	Group        int     `json:"group"`
	DayOfWeek    *string `json:"day_of_week"`
	DateThisWeek *string `json:"date_this_week"`
	Time         *string `json:"time"`
}

type YearGroup struct {
	Year     string        `json:"year"`
	Subjects []SubjectItem `json:"subjects"`
}

type ClassItem struct {
	ClassID     string `json:"class_id"`
	SubjectName string `json:"subject_name"`
}

type ClassGroup struct {
	Year     string      `json:"year"`
	Subjects []ClassItem `json:"subjects"`
}

// Homework

type CreateHomeworkRequest struct {
	ClassID string `json:"class_id" validate:"required"`
	Title   string `json:"title" validate:"required"`
	DueDate string `json:"due_date" validate:"required,datetime=2006-01-02"`
}

type HomeworkItem struct {
	HomeworkID string `json:"homework_id"`
	Title      string `json:"title"`
	AssignDate string `json:"assign_date"`
	DueDate    string `json:"due_date"`
}

type SubmitHomeworkRequest struct {
	HomeworkID  string        `json:"homework_id" validate:"required"`
	SubmittedBy string        `json:"submitted_by" validate:"required"`
	Records     []StatusEntry `json:"records" validate:"required,min=1,dive"`
}

type HomeworkRosterResponse struct {
	Students []BoardStudent `json:"students"`
}

// Tuition

type TuitionRow struct {
	StudentID   string     `json:"student_id"`
	FullName    string     `json:"full_name"`
	ClassYear   int        `json:"class_year"`
	GroupNumber int        `json:"group_number"`
	IsPaid      *bool      `json:"is_paid"`
	LastUpdated *time.Time `json:"last_updated"`
}

// Auth

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
}

type LoginUser struct {
	UserID   string `json:"user_id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// Sweep

type SweepResult struct {
	AttendanceSessions int `json:"attendance_sessions"`
	AbsencesMarked     int `json:"absences_marked"`
	HomeworkChecked    int `json:"checked_homework"`
	MissingMarked      int `json:"updated_count"`
}
