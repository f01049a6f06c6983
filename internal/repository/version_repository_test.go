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

	"github.com/noah-isme/sma-adp-api/internal/models"
)

func newVersionRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestVersionRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newVersionRepoMock(t)
	defer cleanup()
	repo := NewVersionRepository(db)

	mock.ExpectQuery("INSERT INTO timetable_versions").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	v := &models.Version{Name: "v1", Algorithm: "csp", Status: models.VersionProcessing}
	require.NoError(t, repo.Create(context.Background(), v))
	assert.Equal(t, int64(7), v.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVersionRepositoryLatestReturnsNilWhenEmpty(t *testing.T) {
	db, mock, cleanup := newVersionRepoMock(t)
	defer cleanup()
	repo := NewVersionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, algorithm, status, is_valid, fitness_score, created_at, updated_at FROM timetable_versions ORDER BY created_at DESC LIMIT 1")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "algorithm", "status", "is_valid", "fitness_score", "created_at", "updated_at"}))

	v, err := repo.Latest(context.Background())
	require.NoError(t, err)
	assert.Nil(t, v)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVersionRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newVersionRepoMock(t)
	defer cleanup()
	repo := NewVersionRepository(db)

	score := 0.92
	mock.ExpectExec(regexp.QuoteMeta("UPDATE timetable_versions SET status = $2, is_valid = $3, fitness_score = $4, updated_at = $5 WHERE id = $1")).
		WithArgs(int64(1), sqlmock.AnyArg(), true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), 1, models.VersionActive, true, &score)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVersionRepositoryWriteEntriesReplacesWithinTransaction(t *testing.T) {
	db, mock, cleanup := newVersionRepoMock(t)
	defer cleanup()
	repo := NewVersionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM timetable_entries WHERE version_id = $1")).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO timetable_entries").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	entries := []models.Entry{{TimeSlotID: 1, SubjectID: 2, RoomID: 3, GroupID: 4, TeacherID: 5}}
	err := repo.WriteEntries(context.Background(), 5, entries)
	require.NoError(t, err)
	assert.Equal(t, int64(5), entries[0].VersionID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVersionRepositoryWriteEntriesRollsBackOnInsertFailure(t *testing.T) {
	db, mock, cleanup := newVersionRepoMock(t)
	defer cleanup()
	repo := NewVersionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM timetable_entries WHERE version_id = $1")).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO timetable_entries").
		WillReturnError(assertError{"insert failed"})
	mock.ExpectRollback()

	entries := []models.Entry{{TimeSlotID: 1, SubjectID: 2, RoomID: 3, GroupID: 4, TeacherID: 5}}
	err := repo.WriteEntries(context.Background(), 5, entries)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVersionRepositoryEntriesByTeacher(t *testing.T) {
	db, mock, cleanup := newVersionRepoMock(t)
	defer cleanup()
	repo := NewVersionRepository(db)

	rows := sqlmock.NewRows([]string{"id", "version_id", "time_slot_id", "subject_id", "room_id", "group_id", "teacher_id", "assignment_id", "created_at"}).
		AddRow(1, 5, 1, 2, 3, 4, 9, 1, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, version_id, time_slot_id, subject_id, room_id, group_id, teacher_id, assignment_id, created_at FROM timetable_entries WHERE version_id = $1 AND teacher_id = $2 ORDER BY id")).
		WithArgs(int64(5), int64(9)).
		WillReturnRows(rows)

	entries, err := repo.EntriesByTeacher(context.Background(), 5, 9)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(9), entries[0].TeacherID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVersionRepositoryDeleteAll(t *testing.T) {
	db, mock, cleanup := newVersionRepoMock(t)
	defer cleanup()
	repo := NewVersionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM timetable_versions")).
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.DeleteAll(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

type assertError struct{ msg string }

func (e assertError) Error() string { return e.msg }
