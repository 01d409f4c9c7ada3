package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"school-service/api"
	"school-service/internal/models"
	"school-service/pkg/response"
)

type Service struct {
	store Store
	msg   Messenger
	log   *slog.Logger

	loc              *time.Location
	absenceThreshold int

	now func() time.Time
}

func NewService(store Store, msg Messenger, log *slog.Logger, loc *time.Location, absenceThreshold int) *Service {
	return &Service{
		store:            store,
		msg:              msg,
		log:              log,
		loc:              loc,
		absenceThreshold: absenceThreshold,
		now:              time.Now,
	}
}

// Messenger pushes a text message to one external chat id.
type Messenger interface {
	Push(ctx context.Context, to, text string) error
}

type Store interface {
	BeginTx(ctx context.Context) (*sql.Tx, error)

	// Users
	GetUser(ctx context.Context, userID string) (*models.User, error)
	InsertUser(ctx context.Context, user *models.User) error

	// Attendance
	GetAttendanceSession(ctx context.Context, classID, date, startTime, endTime string) (*models.AttendanceSession, error)
	InsertAttendanceSession(ctx context.Context, session *models.AttendanceSession) error
	ListClassStudents(ctx context.Context, classID string) ([]models.Student, error)
	ListAttendanceRecords(ctx context.Context, attendanceID string) ([]models.AttendanceRecord, error)
	UpsertAttendanceRecordTx(ctx context.Context, tx *sql.Tx, attendanceID, studentID, status string, markedAt time.Time) error
	AttendanceHistory(ctx context.Context, classID, date string, startTime, endTime *string) ([]models.HistoryRecord, error)
	ListSessionOptions(ctx context.Context, userID string) ([]models.SessionOption, error)

	// Backfill sweep
	ListOverdueAttendanceSessions(ctx context.Context, now string) ([]models.AttendanceSession, error)
	BackfillAbsences(ctx context.Context, attendanceID, classID string, markedAt time.Time) (int64, error)
	ListOverdueHomework(ctx context.Context, today string) ([]models.Homework, error)
	BackfillMissing(ctx context.Context, homeworkID, classID string, submittedAt time.Time) (int64, error)

	// Homework
	InsertHomework(ctx context.Context, hw *models.Homework) error
	GetHomeworkByKey(ctx context.Context, classID, title, dueDate string) (*models.Homework, error)
	GetHomework(ctx context.Context, homeworkID string) (*models.Homework, error)
	ListHomework(ctx context.Context, classID string) ([]models.Homework, error)
	HomeworkRoster(ctx context.Context, homeworkID, classID string) ([]models.RosterEntry, error)
	UpsertHomeworkSubmissionTx(ctx context.Context, tx *sql.Tx, homeworkID, studentID, status string, submittedAt time.Time) error
	DeleteHomework(ctx context.Context, homeworkID string) (int64, error)

	// Teacher classes / schedule
	ListTeacherSchedule(ctx context.Context, userID string) ([]models.ScheduleRow, error)
	ListTeacherClasses(ctx context.Context, userID string) ([]models.ClassRow, error)

	// Parents / notifications
	GetStudent(ctx context.Context, studentID string) (*models.Student, error)
	InsertParentLink(ctx context.Context, studentID, lineID string) (int64, error)
	DeleteParentLink(ctx context.Context, studentID, lineID string) (int64, error)
	ListParentLinks(ctx context.Context, studentID string) ([]string, error)
	ListAbsenceCounts(ctx context.Context, threshold int) ([]models.AbsenceCount, error)
	NotificationExists(ctx context.Context, studentID, reason string) (bool, error)
	InsertNotification(ctx context.Context, studentID, reason string, notifiedAt time.Time) error

	// Tuition
	TuitionForTeacher(ctx context.Context, userID, filter string) ([]models.TuitionRow, error)
	TuitionForLineID(ctx context.Context, lineID string) ([]models.TuitionRow, error)
}

func (s *Service) nowLocal() time.Time {
	return s.now().In(s.loc)
}

func (s *Service) today() string {
	return s.nowLocal().Format("2006-01-02")
}

// #### auth ####

// Login finds the user or registers them on first login.
func (s *Service) Login(ctx context.Context, req *api.LoginRequest) (*models.User, error) {
	const op = "service.Login"

	user, err := s.store.GetUser(ctx, req.Username)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, response.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user = &models.User{
		UserID:   req.Username,
		FullName: req.Name,
		Email:    req.Email,
	}

	if err := s.store.InsertUser(ctx, user); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// #### attendance ####

func newSessionID(prefix string, now time.Time) string {
	return fmt.Sprintf("%s_%d_%s", prefix, now.UnixMilli(), uuid.NewString()[:8])
}

// resolveOrCreateAttendanceSession finds the session for the natural key or
// inserts a new one. A unique-index conflict means a concurrent caller won
// the insert; their session id is returned instead.
func (s *Service) resolveOrCreateAttendanceSession(ctx context.Context, classID, date, startTime, endTime, createdBy string) (string, error) {
	const op = "service.resolveOrCreateAttendanceSession"

	session, err := s.store.GetAttendanceSession(ctx, classID, date, startTime, endTime)
	if err == nil {
		return session.AttendanceID, nil
	}
	if !errors.Is(err, response.ErrNotFound) {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	newSession := &models.AttendanceSession{
		AttendanceID: newSessionID("att", s.now()),
		ClassID:      classID,
		SessionDate:  date,
		StartTime:    startTime,
		EndTime:      endTime,
		CreatedBy:    createdBy,
	}

	err = s.store.InsertAttendanceSession(ctx, newSession)
	if err == nil {
		return newSession.AttendanceID, nil
	}
	if !errors.Is(err, response.ErrSessionExists) {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	session, err = s.store.GetAttendanceSession(ctx, classID, date, startTime, endTime)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return session.AttendanceID, nil
}

func (s *Service) GetAttendance(ctx context.Context, classID, date, startTime, endTime string) (*api.AttendanceBoardResponse, error) {
	const op = "service.GetAttendance"

	students, err := s.store.ListClassStudents(ctx, classID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	session, err := s.store.GetAttendanceSession(ctx, classID, date, startTime, endTime)
	if err != nil && !errors.Is(err, response.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	board := make([]api.BoardStudent, 0, len(students))

	if session == nil {
		for _, st := range students {
			board = append(board, api.BoardStudent{StudentID: st.StudentID, FullName: st.FullName})
		}

		return &api.AttendanceBoardResponse{AttendanceID: nil, Students: board}, nil
	}

	records, err := s.store.ListAttendanceRecords(ctx, session.AttendanceID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	recordsMap := make(map[string]models.AttendanceRecord, len(records))
	for _, rec := range records {
		recordsMap[rec.StudentID] = rec
	}

	for _, st := range students {
		entry := api.BoardStudent{StudentID: st.StudentID, FullName: st.FullName}
		if rec, ok := recordsMap[st.StudentID]; ok {
			status := string(rec.Status)
			markedAt := rec.MarkedAt
			entry.Status = &status
			entry.MarkedAt = &markedAt
		}

		board = append(board, entry)
	}

	return &api.AttendanceBoardResponse{AttendanceID: &session.AttendanceID, Students: board}, nil
}

func (s *Service) MarkAttendance(ctx context.Context, req *api.MarkAttendanceRequest) (string, error) {
	const op = "service.MarkAttendance"

	if len(req.Records) == 0 {
		return "", fmt.Errorf("%s: %w", op, response.ErrBadRequest)
	}
	for _, entry := range req.Records {
		if !models.ValidAttendanceStatus(entry.Status) {
			return "", fmt.Errorf("%s: invalid status %q: %w", op, entry.Status, response.ErrBadRequest)
		}
	}

	attendanceID, err := s.resolveOrCreateAttendanceSession(ctx, req.ClassID, req.Date, req.StartTime, req.EndTime, req.CreatedBy)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return "", fmt.Errorf("%s: begin tx: %w", op, err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	markedAt := s.nowLocal()
	for _, entry := range req.Records {
		if err := s.store.UpsertAttendanceRecordTx(ctx, tx, attendanceID, entry.StudentID, entry.Status, markedAt); err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("%s: commit: %w", op, err)
	}

	return attendanceID, nil
}

func (s *Service) AttendanceHistory(ctx context.Context, classID, date string, startTime, endTime *string) (*api.AttendanceHistoryResponse, error) {
	const op = "service.AttendanceHistory"

	records, err := s.store.AttendanceHistory(ctx, classID, date, startTime, endTime)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	first := records[0]
	resp := &api.AttendanceHistoryResponse{
		ClassID:     classID,
		Date:        date,
		StartTime:   first.StartTime,
		EndTime:     first.EndTime,
		SubjectName: first.SubjectName,
	}

	for _, rec := range records {
		resp.Attendance = append(resp.Attendance, api.HistoryEntry{
			StudentID: rec.StudentID,
			Name:      rec.StudentName,
			Status:    string(rec.Status),
		})
	}

	return resp, nil
}

func (s *Service) HistoryOptions(ctx context.Context, userID string) (*api.HistoryOptionsResponse, error) {
	const op = "service.HistoryOptions"

	options, err := s.store.ListSessionOptions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp := &api.HistoryOptionsResponse{
		Subjects:     []string{},
		SubjectDates: map[string][]string{},
		DateTimes:    map[string][]api.TimeOption{},
	}

	seenSubjects := map[string]bool{}

	for _, opt := range options {
		if !seenSubjects[opt.SubjectName] {
			seenSubjects[opt.SubjectName] = true
			resp.Subjects = append(resp.Subjects, opt.SubjectName)
		}

		if !containsString(resp.SubjectDates[opt.SubjectName], opt.SessionDate) {
			resp.SubjectDates[opt.SubjectName] = append(resp.SubjectDates[opt.SubjectName], opt.SessionDate)
		}

		label := opt.StartTime + " - " + opt.EndTime
		if !containsTimeLabel(resp.DateTimes[opt.SessionDate], label) {
			resp.DateTimes[opt.SessionDate] = append(resp.DateTimes[opt.SessionDate], api.TimeOption{
				Label:     label,
				StartTime: opt.StartTime,
				EndTime:   opt.EndTime,
				ClassID:   opt.ClassID,
			})
		}
	}

	return resp, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsTimeLabel(list []api.TimeOption, label string) bool {
	for _, v := range list {
		if v.Label == label {
			return true
		}
	}
	return false
}

// #### subjects ####

var weekdayNumbers = map[string]int{
	"Monday":    1,
	"Tuesday":   2,
	"Wednesday": 3,
	"Thursday":  4,
	"Friday":    5,
	"Saturday":  6,
	"Sunday":    7,
}

// dateOfThisWeek resolves a weekday name to its date in the current week,
// Monday-first, in the reference timezone.
func (s *Service) dateOfThisWeek(dayOfWeek string) (string, bool) {
	target, ok := weekdayNumbers[dayOfWeek]
	if !ok {
		return "", false
	}

	today := s.nowLocal()
	current := int(today.Weekday())
	if current == 0 {
		current = 7
	}

	return today.AddDate(0, 0, target-current).Format("2006-01-02"), true
}

func (s *Service) ListSubjects(ctx context.Context, userID string) ([]api.YearGroup, error) {
	const op = "service.ListSubjects"

	schedule, err := s.store.ListTeacherSchedule(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	grouped := map[string][]api.SubjectItem{}
	var order []string

	for _, row := range schedule {
		year := fmt.Sprintf("Year %d", row.ClassYear)
		if _, ok := grouped[year]; !ok {
			order = append(order, year)
		}

		item := api.SubjectItem{
			ClassID:     row.ClassID,
			SubjectName: row.SubjectName,
			Group:       row.GroupNumber,
		}

		if row.DayOfWeek.Valid {
			day := row.DayOfWeek.String
			item.DayOfWeek = &day
			if date, ok := s.dateOfThisWeek(day); ok {
				item.DateThisWeek = &date
			}
		}
		if row.StartTime.Valid && row.EndTime.Valid {
			t := row.StartTime.String + " - " + row.EndTime.String
			item.Time = &t
		}

		grouped[year] = append(grouped[year], item)
	}

	result := make([]api.YearGroup, 0, len(order))
	for _, year := range order {
		result = append(result, api.YearGroup{Year: year, Subjects: grouped[year]})
	}

	return result, nil
}

func (s *Service) ListHomeworkClasses(ctx context.Context, userID string) ([]api.ClassGroup, error) {
	const op = "service.ListHomeworkClasses"

	classes, err := s.store.ListTeacherClasses(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	grouped := map[string][]api.ClassItem{}
	var order []string

	for _, row := range classes {
		year := fmt.Sprintf("Year %d", row.ClassYear)
		if _, ok := grouped[year]; !ok {
			order = append(order, year)
		}

		grouped[year] = append(grouped[year], api.ClassItem{
			ClassID:     row.ClassID,
			SubjectName: fmt.Sprintf("%s group %d", row.SubjectName, row.GroupNumber),
		})
	}

	result := make([]api.ClassGroup, 0, len(order))
	for _, year := range order {
		result = append(result, api.ClassGroup{Year: year, Subjects: grouped[year]})
	}

	return result, nil
}

// #### homework ####

// CreateHomework inserts the assignment, reusing an existing one when the
// (class, title, due date) key is already taken.
func (s *Service) CreateHomework(ctx context.Context, req *api.CreateHomeworkRequest) (string, error) {
	const op = "service.CreateHomework"

	hw := &models.Homework{
		HomeworkID: newSessionID("homework", s.now()),
		ClassID:    req.ClassID,
		Title:      req.Title,
		AssignDate: s.today(),
		DueDate:    req.DueDate,
	}

	err := s.store.InsertHomework(ctx, hw)
	if err == nil {
		return hw.HomeworkID, nil
	}
	if !errors.Is(err, response.ErrSessionExists) {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	existing, err := s.store.GetHomeworkByKey(ctx, req.ClassID, req.Title, req.DueDate)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return existing.HomeworkID, nil
}

func (s *Service) ListHomework(ctx context.Context, classID string) ([]api.HomeworkItem, error) {
	const op = "service.ListHomework"

	list, err := s.store.ListHomework(ctx, classID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]api.HomeworkItem, 0, len(list))
	for _, hw := range list {
		result = append(result, api.HomeworkItem{
			HomeworkID: hw.HomeworkID,
			Title:      hw.Title,
			AssignDate: hw.AssignDate,
			DueDate:    hw.DueDate,
		})
	}

	return result, nil
}

func (s *Service) HomeworkRoster(ctx context.Context, homeworkID string) (*api.HomeworkRosterResponse, error) {
	const op = "service.HomeworkRoster"

	hw, err := s.store.GetHomework(ctx, homeworkID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	entries, err := s.store.HomeworkRoster(ctx, homeworkID, hw.ClassID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp := &api.HomeworkRosterResponse{Students: make([]api.BoardStudent, 0, len(entries))}
	for _, entry := range entries {
		resp.Students = append(resp.Students, api.BoardStudent{
			StudentID: entry.StudentID,
			FullName:  entry.FullName,
			Status:    entry.Status,
			MarkedAt:  entry.MarkedAt,
		})
	}

	return resp, nil
}

func (s *Service) SubmitHomework(ctx context.Context, req *api.SubmitHomeworkRequest) error {
	const op = "service.SubmitHomework"

	if len(req.Records) == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrBadRequest)
	}
	for _, entry := range req.Records {
		if !models.ValidHomeworkStatus(entry.Status) {
			return fmt.Errorf("%s: invalid status %q: %w", op, entry.Status, response.ErrBadRequest)
		}
	}

	if _, err := s.store.GetHomework(ctx, req.HomeworkID); err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("%s: begin tx: %w", op, err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	submittedAt := s.nowLocal()
	for _, entry := range req.Records {
		if err := s.store.UpsertHomeworkSubmissionTx(ctx, tx, req.HomeworkID, entry.StudentID, entry.Status, submittedAt); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}

	return nil
}

func (s *Service) DeleteHomework(ctx context.Context, homeworkID string) error {
	const op = "service.DeleteHomework"

	n, err := s.store.DeleteHomework(ctx, homeworkID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

// #### tuition ####

func (s *Service) TuitionStatus(ctx context.Context, userID, filter string) ([]api.TuitionRow, error) {
	const op = "service.TuitionStatus"

	switch filter {
	case "", "all", "paid", "unpaid":
	default:
		return nil, fmt.Errorf("%s: invalid filter %q: %w", op, filter, response.ErrBadRequest)
	}

	rows, err := s.store.TuitionForTeacher(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]api.TuitionRow, 0, len(rows))
	for _, row := range rows {
		item := api.TuitionRow{
			StudentID:   row.StudentID,
			FullName:    row.FullName,
			ClassYear:   row.ClassYear,
			GroupNumber: row.GroupNumber,
		}
		if row.IsPaid.Valid {
			paid := row.IsPaid.Bool
			item.IsPaid = &paid
		}
		if row.LastUpdated.Valid {
			t := row.LastUpdated.Time
			item.LastUpdated = &t
		}

		result = append(result, item)
	}

	return result, nil
}
