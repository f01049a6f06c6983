package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalogRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestCatalogRepositoryLoad(t *testing.T) {
	db, mock, cleanup := newCatalogRepoMock(t)
	defer cleanup()
	repo := NewCatalogRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, email, max_hours_per_week, available_slots, created_at, updated_at FROM teachers ORDER BY id")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "max_hours_per_week", "available_slots", "created_at", "updated_at"}).
			AddRow(1, "Ada Lovelace", "ada@example.com", 20, nil, now, now))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, capacity, type, resources, created_at, updated_at FROM rooms ORDER BY id")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "capacity", "type", "resources", "created_at", "updated_at"}).
			AddRow(1, "Room A", 30, "standard", nil, now, now))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, code, is_lab, credits, required_room_type, duration_slots, teacher_id, created_at, updated_at FROM subjects ORDER BY id")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "code", "is_lab", "credits", "required_room_type", "duration_slots", "teacher_id", "created_at", "updated_at"}).
			AddRow(1, "Mathematics", "MATH", false, 3, "standard", 1, 1, now, now))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, student_count, created_at, updated_at FROM class_groups ORDER BY id")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "student_count", "created_at", "updated_at"}).
			AddRow(1, "Class 10A", 30, now, now))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, day, period, start_time, end_time, is_break FROM time_slots ORDER BY day, period")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "day", "period", "start_time", "end_time", "is_break"}).
			AddRow(1, "monday", 1, "07:00", "07:45", false))

	catalog, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, catalog.Teachers, 1)
	assert.Equal(t, "Ada Lovelace", catalog.Teachers[0].Name)
	require.Len(t, catalog.Rooms, 1)
	require.Len(t, catalog.Subjects, 1)
	require.Len(t, catalog.Groups, 1)
	require.Len(t, catalog.TimeSlots, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepositoryLoadPropagatesQueryError(t *testing.T) {
	db, mock, cleanup := newCatalogRepoMock(t)
	defer cleanup()
	repo := NewCatalogRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, email, max_hours_per_week, available_slots, created_at, updated_at FROM teachers ORDER BY id")).
		WillReturnError(assertError{"connection reset"})

	_, err := repo.Load(context.Background())
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepositoryLoadLessonsJoinsMembership(t *testing.T) {
	db, mock, cleanup := newCatalogRepoMock(t)
	defer cleanup()
	repo := NewCatalogRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, lessons_per_week, length_per_lesson, created_at, updated_at FROM lessons ORDER BY id")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "lessons_per_week", "length_per_lesson", "created_at", "updated_at"}).
			AddRow(1, 2, 1, nil, nil))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT teacher_id FROM lesson_teachers WHERE lesson_id = $1 ORDER BY teacher_id")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"teacher_id"}).AddRow(1).AddRow(2))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT group_id FROM lesson_groups WHERE lesson_id = $1 ORDER BY group_id")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"group_id"}).AddRow(100))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT subject_id FROM lesson_subjects WHERE lesson_id = $1 ORDER BY subject_id")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"subject_id"}).AddRow(10))

	lessons, err := repo.LoadLessons(context.Background())
	require.NoError(t, err)
	require.Len(t, lessons, 1)
	assert.Equal(t, 2, lessons[0].LessonsPerWeek)
	assert.ElementsMatch(t, []int64{1, 2}, []int64(lessons[0].TeacherIDs))
	assert.ElementsMatch(t, []int64{100}, []int64(lessons[0].GroupIDs))
	assert.ElementsMatch(t, []int64{10}, []int64(lessons[0].SubjectIDs))
	assert.NoError(t, mock.ExpectationsWereMet())
}
