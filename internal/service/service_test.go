package service

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"school-service/api"
	"school-service/internal/models"
	"school-service/pkg/response"
)

// fakeStore implements Store with overridable hooks. Unset hooks fall back
// to not-found or empty results.
type fakeStore struct {
	db *sql.DB

	getUser    func(userID string) (*models.User, error)
	insertUser func(user *models.User) error

	getAttendanceSession    func(classID, date, startTime, endTime string) (*models.AttendanceSession, error)
	insertAttendanceSession func(session *models.AttendanceSession) error
	listClassStudents       func(classID string) ([]models.Student, error)
	listAttendanceRecords   func(attendanceID string) ([]models.AttendanceRecord, error)
	upsertAttendanceRecord  func(attendanceID, studentID, status string, markedAt time.Time) error
	attendanceHistory       func(classID, date string, startTime, endTime *string) ([]models.HistoryRecord, error)
	listSessionOptions      func(userID string) ([]models.SessionOption, error)

	listOverdueAttendanceSessions func(now string) ([]models.AttendanceSession, error)
	backfillAbsences              func(attendanceID, classID string) (int64, error)
	listOverdueHomework           func(today string) ([]models.Homework, error)
	backfillMissing               func(homeworkID, classID string) (int64, error)

	insertHomework           func(hw *models.Homework) error
	getHomeworkByKey         func(classID, title, dueDate string) (*models.Homework, error)
	getHomework              func(homeworkID string) (*models.Homework, error)
	listHomework             func(classID string) ([]models.Homework, error)
	homeworkRoster           func(homeworkID, classID string) ([]models.RosterEntry, error)
	upsertHomeworkSubmission func(homeworkID, studentID, status string, submittedAt time.Time) error
	deleteHomework           func(homeworkID string) (int64, error)

	listTeacherSchedule func(userID string) ([]models.ScheduleRow, error)
	listTeacherClasses  func(userID string) ([]models.ClassRow, error)

	getStudent         func(studentID string) (*models.Student, error)
	insertParentLink   func(studentID, lineID string) (int64, error)
	deleteParentLink   func(studentID, lineID string) (int64, error)
	listParentLinks    func(studentID string) ([]string, error)
	listAbsenceCounts  func(threshold int) ([]models.AbsenceCount, error)
	notificationExists func(studentID, reason string) (bool, error)
	insertNotification func(studentID, reason string, notifiedAt time.Time) error

	tuitionForTeacher func(userID, filter string) ([]models.TuitionRow, error)
	tuitionForLineID  func(lineID string) ([]models.TuitionRow, error)
}

func (f *fakeStore) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return f.db.BeginTx(ctx, nil)
}

func (f *fakeStore) GetUser(_ context.Context, userID string) (*models.User, error) {
	if f.getUser != nil {
		return f.getUser(userID)
	}
	return nil, response.ErrNotFound
}

func (f *fakeStore) InsertUser(_ context.Context, user *models.User) error {
	if f.insertUser != nil {
		return f.insertUser(user)
	}
	return nil
}

func (f *fakeStore) GetAttendanceSession(_ context.Context, classID, date, startTime, endTime string) (*models.AttendanceSession, error) {
	if f.getAttendanceSession != nil {
		return f.getAttendanceSession(classID, date, startTime, endTime)
	}
	return nil, response.ErrNotFound
}

func (f *fakeStore) InsertAttendanceSession(_ context.Context, session *models.AttendanceSession) error {
	if f.insertAttendanceSession != nil {
		return f.insertAttendanceSession(session)
	}
	return nil
}

func (f *fakeStore) ListClassStudents(_ context.Context, classID string) ([]models.Student, error) {
	if f.listClassStudents != nil {
		return f.listClassStudents(classID)
	}
	return nil, nil
}

func (f *fakeStore) ListAttendanceRecords(_ context.Context, attendanceID string) ([]models.AttendanceRecord, error) {
	if f.listAttendanceRecords != nil {
		return f.listAttendanceRecords(attendanceID)
	}
	return nil, nil
}

func (f *fakeStore) UpsertAttendanceRecordTx(_ context.Context, _ *sql.Tx, attendanceID, studentID, status string, markedAt time.Time) error {
	if f.upsertAttendanceRecord != nil {
		return f.upsertAttendanceRecord(attendanceID, studentID, status, markedAt)
	}
	return nil
}

func (f *fakeStore) AttendanceHistory(_ context.Context, classID, date string, startTime, endTime *string) ([]models.HistoryRecord, error) {
	if f.attendanceHistory != nil {
		return f.attendanceHistory(classID, date, startTime, endTime)
	}
	return nil, nil
}

func (f *fakeStore) ListSessionOptions(_ context.Context, userID string) ([]models.SessionOption, error) {
	if f.listSessionOptions != nil {
		return f.listSessionOptions(userID)
	}
	return nil, nil
}

func (f *fakeStore) ListOverdueAttendanceSessions(_ context.Context, now string) ([]models.AttendanceSession, error) {
	if f.listOverdueAttendanceSessions != nil {
		return f.listOverdueAttendanceSessions(now)
	}
	return nil, nil
}

func (f *fakeStore) BackfillAbsences(_ context.Context, attendanceID, classID string, _ time.Time) (int64, error) {
	if f.backfillAbsences != nil {
		return f.backfillAbsences(attendanceID, classID)
	}
	return 0, nil
}

func (f *fakeStore) ListOverdueHomework(_ context.Context, today string) ([]models.Homework, error) {
	if f.listOverdueHomework != nil {
		return f.listOverdueHomework(today)
	}
	return nil, nil
}

func (f *fakeStore) BackfillMissing(_ context.Context, homeworkID, classID string, _ time.Time) (int64, error) {
	if f.backfillMissing != nil {
		return f.backfillMissing(homeworkID, classID)
	}
	return 0, nil
}

func (f *fakeStore) InsertHomework(_ context.Context, hw *models.Homework) error {
	if f.insertHomework != nil {
		return f.insertHomework(hw)
	}
	return nil
}

func (f *fakeStore) GetHomeworkByKey(_ context.Context, classID, title, dueDate string) (*models.Homework, error) {
	if f.getHomeworkByKey != nil {
		return f.getHomeworkByKey(classID, title, dueDate)
	}
	return nil, response.ErrNotFound
}

func (f *fakeStore) GetHomework(_ context.Context, homeworkID string) (*models.Homework, error) {
	if f.getHomework != nil {
		return f.getHomework(homeworkID)
	}
	return nil, response.ErrNotFound
}

func (f *fakeStore) ListHomework(_ context.Context, classID string) ([]models.Homework, error) {
	if f.listHomework != nil {
		return f.listHomework(classID)
	}
	return nil, nil
}

func (f *fakeStore) HomeworkRoster(_ context.Context, homeworkID, classID string) ([]models.RosterEntry, error) {
	if f.homeworkRoster != nil {
		return f.homeworkRoster(homeworkID, classID)
	}
	return nil, nil
}

func (f *fakeStore) UpsertHomeworkSubmissionTx(_ context.Context, _ *sql.Tx, homeworkID, studentID, status string, submittedAt time.Time) error {
	if f.upsertHomeworkSubmission != nil {
		return f.upsertHomeworkSubmission(homeworkID, studentID, status, submittedAt)
	}
	return nil
}

func (f *fakeStore) DeleteHomework(_ context.Context, homeworkID string) (int64, error) {
	if f.deleteHomework != nil {
		return f.deleteHomework(homeworkID)
	}
	return 0, nil
}

func (f *fakeStore) ListTeacherSchedule(_ context.Context, userID string) ([]models.ScheduleRow, error) {
	if f.listTeacherSchedule != nil {
		return f.listTeacherSchedule(userID)
	}
	return nil, nil
}

func (f *fakeStore) ListTeacherClasses(_ context.Context, userID string) ([]models.ClassRow, error) {
	if f.listTeacherClasses != nil {
		return f.listTeacherClasses(userID)
	}
	return nil, nil
}

func (f *fakeStore) GetStudent(_ context.Context, studentID string) (*models.Student, error) {
	if f.getStudent != nil {
		return f.getStudent(studentID)
	}
	return nil, response.ErrNotFound
}

func (f *fakeStore) InsertParentLink(_ context.Context, studentID, lineID string) (int64, error) {
	if f.insertParentLink != nil {
		return f.insertParentLink(studentID, lineID)
	}
	return 1, nil
}

func (f *fakeStore) DeleteParentLink(_ context.Context, studentID, lineID string) (int64, error) {
	if f.deleteParentLink != nil {
		return f.deleteParentLink(studentID, lineID)
	}
	return 0, nil
}

func (f *fakeStore) ListParentLinks(_ context.Context, studentID string) ([]string, error) {
	if f.listParentLinks != nil {
		return f.listParentLinks(studentID)
	}
	return nil, nil
}

func (f *fakeStore) ListAbsenceCounts(_ context.Context, threshold int) ([]models.AbsenceCount, error) {
	if f.listAbsenceCounts != nil {
		return f.listAbsenceCounts(threshold)
	}
	return nil, nil
}

func (f *fakeStore) NotificationExists(_ context.Context, studentID, reason string) (bool, error) {
	if f.notificationExists != nil {
		return f.notificationExists(studentID, reason)
	}
	return false, nil
}

func (f *fakeStore) InsertNotification(_ context.Context, studentID, reason string, notifiedAt time.Time) error {
	if f.insertNotification != nil {
		return f.insertNotification(studentID, reason, notifiedAt)
	}
	return nil
}

func (f *fakeStore) TuitionForTeacher(_ context.Context, userID, filter string) ([]models.TuitionRow, error) {
	if f.tuitionForTeacher != nil {
		return f.tuitionForTeacher(userID, filter)
	}
	return nil, nil
}

func (f *fakeStore) TuitionForLineID(_ context.Context, lineID string) ([]models.TuitionRow, error) {
	if f.tuitionForLineID != nil {
		return f.tuitionForLineID(lineID)
	}
	return nil, nil
}

type fakeMessenger struct {
	pushErr func(to string) error
	pushes  []pushCall
}

type pushCall struct {
	To   string
	Text string
}

func (f *fakeMessenger) Push(_ context.Context, to, text string) error {
	if f.pushErr != nil {
		if err := f.pushErr(to); err != nil {
			return err
		}
	}
	f.pushes = append(f.pushes, pushCall{To: to, Text: text})
	return nil
}

var testNow = time.Date(2026, time.January, 7, 10, 30, 0, 0, time.UTC)

func newTestService(store *fakeStore, msg *fakeMessenger) *Service {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(store, msg, log, time.UTC, 3)
	svc.now = func() time.Time { return testNow }
	return svc
}

// mockTx wires a sqlmock database into the store so BeginTx hands out a
// real transaction. Rollback after Commit is a no-op inside database/sql,
// so only begin and commit are expected.
func mockTx(t *testing.T, store *fakeStore) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectBegin()
	mock.ExpectCommit()

	store.db = db
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("existing user is returned without insert", func(t *testing.T) {
		inserted := false
		store := &fakeStore{
			getUser: func(userID string) (*models.User, error) {
				return &models.User{UserID: userID, FullName: "T. Teacher", Email: "t@school.test"}, nil
			},
			insertUser: func(*models.User) error {
				inserted = true
				return nil
			},
		}

		user, err := newTestService(store, nil).Login(ctx, &api.LoginRequest{
			Username: "teacher-1", Name: "T. Teacher", Email: "t@school.test",
		})
		require.NoError(t, err)
		assert.Equal(t, "teacher-1", user.UserID)
		assert.False(t, inserted)
	})

	t.Run("unknown user is registered", func(t *testing.T) {
		var inserted *models.User
		store := &fakeStore{
			insertUser: func(u *models.User) error {
				inserted = u
				return nil
			},
		}

		user, err := newTestService(store, nil).Login(ctx, &api.LoginRequest{
			Username: "teacher-2", Name: "New Teacher", Email: "new@school.test",
		})
		require.NoError(t, err)
		require.NotNil(t, inserted)
		assert.Equal(t, "teacher-2", user.UserID)
		assert.Equal(t, "New Teacher", inserted.FullName)
	})
}

func TestResolveOrCreateAttendanceSession(t *testing.T) {
	ctx := context.Background()

	t.Run("existing session wins over insert", func(t *testing.T) {
		inserted := false
		store := &fakeStore{
			getAttendanceSession: func(string, string, string, string) (*models.AttendanceSession, error) {
				return &models.AttendanceSession{AttendanceID: "att_1_aaaa"}, nil
			},
			insertAttendanceSession: func(*models.AttendanceSession) error {
				inserted = true
				return nil
			},
		}

		id, err := newTestService(store, nil).resolveOrCreateAttendanceSession(ctx, "c1", "2026-01-07", "09:00", "10:00", "teacher-1")
		require.NoError(t, err)
		assert.Equal(t, "att_1_aaaa", id)
		assert.False(t, inserted)
	})

	t.Run("missing session is created", func(t *testing.T) {
		var created *models.AttendanceSession
		store := &fakeStore{
			insertAttendanceSession: func(s *models.AttendanceSession) error {
				created = s
				return nil
			},
		}

		id, err := newTestService(store, nil).resolveOrCreateAttendanceSession(ctx, "c1", "2026-01-07", "09:00", "10:00", "teacher-1")
		require.NoError(t, err)
		require.NotNil(t, created)
		assert.Equal(t, created.AttendanceID, id)
		assert.True(t, strings.HasPrefix(id, "att_"))
		assert.Equal(t, "c1", created.ClassID)
		assert.Equal(t, "teacher-1", created.CreatedBy)
	})

	t.Run("losing an insert race reuses the winner's session", func(t *testing.T) {
		calls := 0
		store := &fakeStore{
			getAttendanceSession: func(string, string, string, string) (*models.AttendanceSession, error) {
				calls++
				if calls == 1 {
					return nil, response.ErrNotFound
				}
				return &models.AttendanceSession{AttendanceID: "att_winner"}, nil
			},
			insertAttendanceSession: func(*models.AttendanceSession) error {
				return response.ErrSessionExists
			},
		}

		id, err := newTestService(store, nil).resolveOrCreateAttendanceSession(ctx, "c1", "2026-01-07", "09:00", "10:00", "teacher-1")
		require.NoError(t, err)
		assert.Equal(t, "att_winner", id)
		assert.Equal(t, 2, calls)
	})
}

func TestMarkAttendance(t *testing.T) {
	ctx := context.Background()

	validReq := func() *api.MarkAttendanceRequest {
		return &api.MarkAttendanceRequest{
			ClassID:   "c1",
			Date:      "2026-01-07",
			StartTime: "09:00",
			EndTime:   "10:00",
			CreatedBy: "teacher-1",
			Records: []api.StatusEntry{
				{StudentID: "s1", Status: "present"},
				{StudentID: "s2", Status: "absent"},
			},
		}
	}

	t.Run("empty records are rejected", func(t *testing.T) {
		req := validReq()
		req.Records = nil

		_, err := newTestService(&fakeStore{}, nil).MarkAttendance(ctx, req)
		assert.ErrorIs(t, err, response.ErrBadRequest)
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		req := validReq()
		req.Records[1].Status = "vanished"

		_, err := newTestService(&fakeStore{}, nil).MarkAttendance(ctx, req)
		assert.ErrorIs(t, err, response.ErrBadRequest)
	})

	t.Run("every record is upserted in one transaction", func(t *testing.T) {
		type upsert struct {
			StudentID string
			Status    string
		}
		var got []upsert

		store := &fakeStore{
			getAttendanceSession: func(string, string, string, string) (*models.AttendanceSession, error) {
				return &models.AttendanceSession{AttendanceID: "att_existing"}, nil
			},
			upsertAttendanceRecord: func(attendanceID, studentID, status string, _ time.Time) error {
				assert.Equal(t, "att_existing", attendanceID)
				got = append(got, upsert{StudentID: studentID, Status: status})
				return nil
			},
		}
		mockTx(t, store)

		id, err := newTestService(store, nil).MarkAttendance(ctx, validReq())
		require.NoError(t, err)
		assert.Equal(t, "att_existing", id)
		assert.Equal(t, []upsert{{"s1", "present"}, {"s2", "absent"}}, got)
	})
}

func TestGetAttendance(t *testing.T) {
	ctx := context.Background()

	students := []models.Student{
		{StudentID: "s1", FullName: "A"},
		{StudentID: "s2", FullName: "B"},
	}

	t.Run("no session yields a blank board", func(t *testing.T) {
		store := &fakeStore{
			listClassStudents: func(string) ([]models.Student, error) { return students, nil },
		}

		board, err := newTestService(store, nil).GetAttendance(ctx, "c1", "2026-01-07", "09:00", "10:00")
		require.NoError(t, err)
		assert.Nil(t, board.AttendanceID)
		require.Len(t, board.Students, 2)
		assert.Nil(t, board.Students[0].Status)
		assert.Nil(t, board.Students[1].MarkedAt)
	})

	t.Run("existing records are merged onto the roster", func(t *testing.T) {
		markedAt := testNow.Add(-time.Hour)
		store := &fakeStore{
			listClassStudents: func(string) ([]models.Student, error) { return students, nil },
			getAttendanceSession: func(string, string, string, string) (*models.AttendanceSession, error) {
				return &models.AttendanceSession{AttendanceID: "att_1"}, nil
			},
			listAttendanceRecords: func(string) ([]models.AttendanceRecord, error) {
				return []models.AttendanceRecord{
					{StudentID: "s2", Status: models.AttendanceLate, MarkedAt: markedAt},
				}, nil
			},
		}

		board, err := newTestService(store, nil).GetAttendance(ctx, "c1", "2026-01-07", "09:00", "10:00")
		require.NoError(t, err)
		require.NotNil(t, board.AttendanceID)
		assert.Equal(t, "att_1", *board.AttendanceID)

		assert.Nil(t, board.Students[0].Status)
		require.NotNil(t, board.Students[1].Status)
		assert.Equal(t, "late", *board.Students[1].Status)
		assert.Equal(t, markedAt, *board.Students[1].MarkedAt)
	})
}

func TestAttendanceHistory(t *testing.T) {
	ctx := context.Background()

	t.Run("no records means not found", func(t *testing.T) {
		_, err := newTestService(&fakeStore{}, nil).AttendanceHistory(ctx, "c1", "2026-01-07", nil, nil)
		assert.ErrorIs(t, err, response.ErrNotFound)
	})

	t.Run("session header comes from the first record", func(t *testing.T) {
		store := &fakeStore{
			attendanceHistory: func(string, string, *string, *string) ([]models.HistoryRecord, error) {
				return []models.HistoryRecord{
					{StudentID: "s1", StudentName: "A", Status: "present", StartTime: "09:00", EndTime: "10:00", SubjectName: "Math"},
					{StudentID: "s2", StudentName: "B", Status: "absent", StartTime: "09:00", EndTime: "10:00", SubjectName: "Math"},
				}, nil
			},
		}

		resp, err := newTestService(store, nil).AttendanceHistory(ctx, "c1", "2026-01-07", nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "Math", resp.SubjectName)
		assert.Equal(t, "09:00", resp.StartTime)
		require.Len(t, resp.Attendance, 2)
		assert.Equal(t, "absent", resp.Attendance[1].Status)
	})
}

func TestHistoryOptions(t *testing.T) {
	ctx := context.Background()

	store := &fakeStore{
		listSessionOptions: func(string) ([]models.SessionOption, error) {
			return []models.SessionOption{
				{SubjectName: "Math", SessionDate: "2026-01-05", StartTime: "09:00", EndTime: "10:00", ClassID: "c1"},
				{SubjectName: "Math", SessionDate: "2026-01-05", StartTime: "09:00", EndTime: "10:00", ClassID: "c1"},
				{SubjectName: "Math", SessionDate: "2026-01-06", StartTime: "09:00", EndTime: "10:00", ClassID: "c1"},
				{SubjectName: "Physics", SessionDate: "2026-01-06", StartTime: "13:00", EndTime: "14:00", ClassID: "c2"},
			}, nil
		},
	}

	resp, err := newTestService(store, nil).HistoryOptions(ctx, "teacher-1")
	require.NoError(t, err)

	assert.Equal(t, []string{"Math", "Physics"}, resp.Subjects)
	assert.Equal(t, []string{"2026-01-05", "2026-01-06"}, resp.SubjectDates["Math"])
	assert.Equal(t, []string{"2026-01-06"}, resp.SubjectDates["Physics"])

	require.Len(t, resp.DateTimes["2026-01-05"], 1)
	require.Len(t, resp.DateTimes["2026-01-06"], 2)
	assert.Equal(t, "09:00 - 10:00", resp.DateTimes["2026-01-05"][0].Label)
	assert.Equal(t, "13:00 - 14:00", resp.DateTimes["2026-01-06"][1].Label)
}

func TestDateOfThisWeek(t *testing.T) {
	// testNow is Wednesday 2026-01-07.
	svc := newTestService(&fakeStore{}, nil)

	tests := []struct {
		day  string
		want string
		ok   bool
	}{
		{day: "Monday", want: "2026-01-05", ok: true},
		{day: "Wednesday", want: "2026-01-07", ok: true},
		{day: "Sunday", want: "2026-01-11", ok: true},
		{day: "Funday", ok: false},
		{day: "", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.day, func(t *testing.T) {
			got, ok := svc.dateOfThisWeek(tt.day)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestListSubjects(t *testing.T) {
	ctx := context.Background()

	store := &fakeStore{
		listTeacherSchedule: func(string) ([]models.ScheduleRow, error) {
			return []models.ScheduleRow{
				{
					ClassID: "c1", SubjectName: "Math", ClassYear: 1, GroupNumber: 1,
					DayOfWeek: sql.NullString{String: "Monday", Valid: true},
					StartTime: sql.NullString{String: "09:00", Valid: true},
					EndTime:   sql.NullString{String: "10:00", Valid: true},
				},
				{ClassID: "c2", SubjectName: "Physics", ClassYear: 1, GroupNumber: 2},
				{ClassID: "c3", SubjectName: "Math", ClassYear: 2, GroupNumber: 1},
			}, nil
		},
	}

	groups, err := newTestService(store, nil).ListSubjects(ctx, "teacher-1")
	require.NoError(t, err)

	require.Len(t, groups, 2)
	assert.Equal(t, "Year 1", groups[0].Year)
	assert.Equal(t, "Year 2", groups[1].Year)
	require.Len(t, groups[0].Subjects, 2)

	withSlot := groups[0].Subjects[0]
	require.NotNil(t, withSlot.DayOfWeek)
	assert.Equal(t, "Monday", *withSlot.DayOfWeek)
	require.NotNil(t, withSlot.DateThisWeek)
	assert.Equal(t, "2026-01-05", *withSlot.DateThisWeek)
	require.NotNil(t, withSlot.Time)
	assert.Equal(t, "09:00 - 10:00", *withSlot.Time)

	noSlot := groups[0].Subjects[1]
	assert.Nil(t, noSlot.DayOfWeek)
	assert.Nil(t, noSlot.Time)
}

func TestListHomeworkClasses(t *testing.T) {
	ctx := context.Background()

	store := &fakeStore{
		listTeacherClasses: func(string) ([]models.ClassRow, error) {
			return []models.ClassRow{
				{ClassID: "c1", SubjectName: "Math", ClassYear: 1, GroupNumber: 1},
				{ClassID: "c2", SubjectName: "Math", ClassYear: 1, GroupNumber: 2},
			}, nil
		},
	}

	groups, err := newTestService(store, nil).ListHomeworkClasses(ctx, "teacher-1")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "Math group 2", groups[0].Subjects[1].SubjectName)
}

func TestCreateHomework(t *testing.T) {
	ctx := context.Background()

	t.Run("new assignment gets an id and today's assign date", func(t *testing.T) {
		var created *models.Homework
		store := &fakeStore{
			insertHomework: func(hw *models.Homework) error {
				created = hw
				return nil
			},
		}

		id, err := newTestService(store, nil).CreateHomework(ctx, &api.CreateHomeworkRequest{
			ClassID: "c1", Title: "Worksheet 3", DueDate: "2026-01-14",
		})
		require.NoError(t, err)
		require.NotNil(t, created)
		assert.Equal(t, created.HomeworkID, id)
		assert.True(t, strings.HasPrefix(id, "homework_"))
		assert.Equal(t, "2026-01-07", created.AssignDate)
	})

	t.Run("duplicate key reuses the existing assignment", func(t *testing.T) {
		store := &fakeStore{
			insertHomework: func(*models.Homework) error {
				return response.ErrSessionExists
			},
			getHomeworkByKey: func(classID, title, dueDate string) (*models.Homework, error) {
				assert.Equal(t, "c1", classID)
				assert.Equal(t, "Worksheet 3", title)
				return &models.Homework{HomeworkID: "homework_existing"}, nil
			},
		}

		id, err := newTestService(store, nil).CreateHomework(ctx, &api.CreateHomeworkRequest{
			ClassID: "c1", Title: "Worksheet 3", DueDate: "2026-01-14",
		})
		require.NoError(t, err)
		assert.Equal(t, "homework_existing", id)
	})
}

func TestSubmitHomework(t *testing.T) {
	ctx := context.Background()

	validReq := func() *api.SubmitHomeworkRequest {
		return &api.SubmitHomeworkRequest{
			HomeworkID:  "hw1",
			SubmittedBy: "teacher-1",
			Records: []api.StatusEntry{
				{StudentID: "s1", Status: "submitted"},
				{StudentID: "s2", Status: "late"},
			},
		}
	}

	t.Run("unknown status is rejected", func(t *testing.T) {
		req := validReq()
		req.Records[0].Status = "present"

		err := newTestService(&fakeStore{}, nil).SubmitHomework(ctx, req)
		assert.ErrorIs(t, err, response.ErrBadRequest)
	})

	t.Run("unknown homework means not found", func(t *testing.T) {
		err := newTestService(&fakeStore{}, nil).SubmitHomework(ctx, validReq())
		assert.ErrorIs(t, err, response.ErrNotFound)
	})

	t.Run("every record is upserted", func(t *testing.T) {
		var got []string
		store := &fakeStore{
			getHomework: func(string) (*models.Homework, error) {
				return &models.Homework{HomeworkID: "hw1", ClassID: "c1"}, nil
			},
			upsertHomeworkSubmission: func(homeworkID, studentID, status string, _ time.Time) error {
				got = append(got, studentID+":"+status)
				return nil
			},
		}
		mockTx(t, store)

		err := newTestService(store, nil).SubmitHomework(ctx, validReq())
		require.NoError(t, err)
		assert.Equal(t, []string{"s1:submitted", "s2:late"}, got)
	})
}

func TestHomeworkRoster(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown homework means not found", func(t *testing.T) {
		_, err := newTestService(&fakeStore{}, nil).HomeworkRoster(ctx, "hw-missing")
		assert.ErrorIs(t, err, response.ErrNotFound)
	})

	t.Run("students without a submission stay on the roster", func(t *testing.T) {
		submitted := "submitted"
		store := &fakeStore{
			getHomework: func(string) (*models.Homework, error) {
				return &models.Homework{HomeworkID: "hw1", ClassID: "c1"}, nil
			},
			homeworkRoster: func(homeworkID, classID string) ([]models.RosterEntry, error) {
				assert.Equal(t, "c1", classID)
				return []models.RosterEntry{
					{StudentID: "s1", FullName: "A", Status: &submitted},
					{StudentID: "s2", FullName: "B"},
				}, nil
			},
		}

		resp, err := newTestService(store, nil).HomeworkRoster(ctx, "hw1")
		require.NoError(t, err)
		require.Len(t, resp.Students, 2)
		require.NotNil(t, resp.Students[0].Status)
		assert.Equal(t, "submitted", *resp.Students[0].Status)
		assert.Nil(t, resp.Students[1].Status)
	})
}

func TestDeleteHomework(t *testing.T) {
	ctx := context.Background()

	t.Run("nothing deleted means not found", func(t *testing.T) {
		err := newTestService(&fakeStore{}, nil).DeleteHomework(ctx, "hw-missing")
		assert.ErrorIs(t, err, response.ErrNotFound)
	})

	t.Run("deleted row succeeds", func(t *testing.T) {
		store := &fakeStore{
			deleteHomework: func(string) (int64, error) { return 1, nil },
		}
		assert.NoError(t, newTestService(store, nil).DeleteHomework(ctx, "hw1"))
	})
}

func TestTuitionStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid filter is rejected", func(t *testing.T) {
		_, err := newTestService(&fakeStore{}, nil).TuitionStatus(ctx, "teacher-1", "overdue")
		assert.ErrorIs(t, err, response.ErrBadRequest)
	})

	t.Run("missing payment row maps to nil fields", func(t *testing.T) {
		updated := testNow.Add(-24 * time.Hour)
		store := &fakeStore{
			tuitionForTeacher: func(_, filter string) ([]models.TuitionRow, error) {
				assert.Equal(t, "unpaid", filter)
				return []models.TuitionRow{
					{
						StudentID: "s1", FullName: "A", ClassYear: 1, GroupNumber: 1,
						IsPaid:      sql.NullBool{Bool: false, Valid: true},
						LastUpdated: sql.NullTime{Time: updated, Valid: true},
					},
					{StudentID: "s2", FullName: "B", ClassYear: 1, GroupNumber: 1},
				}, nil
			},
		}

		rows, err := newTestService(store, nil).TuitionStatus(ctx, "teacher-1", "unpaid")
		require.NoError(t, err)
		require.Len(t, rows, 2)

		require.NotNil(t, rows[0].IsPaid)
		assert.False(t, *rows[0].IsPaid)
		assert.Equal(t, updated, *rows[0].LastUpdated)

		assert.Nil(t, rows[1].IsPaid)
		assert.Nil(t, rows[1].LastUpdated)
	})
}
