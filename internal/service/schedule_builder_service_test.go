package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-api/internal/models"
	"github.com/noah-isme/sma-adp-api/pkg/jobs"
)

type stubLessonLoader struct {
	lessons []models.Lesson
	err     error
}

func (s *stubLessonLoader) LoadLessons(_ context.Context) ([]models.Lesson, error) {
	return s.lessons, s.err
}

type stubVersionWriter struct {
	created  []models.Version
	statuses []models.VersionStatus
	entries  []models.Entry
	createErr, writeErr error
}

func (s *stubVersionWriter) Create(_ context.Context, v *models.Version) error {
	if s.createErr != nil {
		return s.createErr
	}
	v.ID = int64(len(s.created) + 1)
	s.created = append(s.created, *v)
	return nil
}

func (s *stubVersionWriter) UpdateStatus(_ context.Context, _ int64, status models.VersionStatus, _ bool, _ *float64) error {
	s.statuses = append(s.statuses, status)
	return nil
}

func (s *stubVersionWriter) WriteEntries(_ context.Context, _ int64, entries []models.Entry) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.entries = entries
	return nil
}

func trivialCatalog() models.Catalog {
	return models.Catalog{
		Teachers: []models.Teacher{{ID: 1, Name: "Ada Lovelace"}},
		Rooms:    []models.Room{{ID: 1, Name: "Room A"}},
		Groups:   []models.Group{{ID: 1, Name: "Class 10A"}},
		Subjects: []models.Subject{{ID: 1, Name: "Mathematics", DurationSlots: 1}},
		TimeSlots: []models.TimeSlot{
			{ID: 1, Day: models.Monday, Period: 1, Start: "07:00", End: "07:45"},
		},
	}
}

func trivialLessons() []models.Lesson {
	return []models.Lesson{{
		ID: 1, TeacherIDs: models.Int64Set{1}, GroupIDs: models.Int64Set{1},
		SubjectIDs: models.Int64Set{1}, LessonsPerWeek: 1, LengthPerLesson: 1,
	}}
}

func TestScheduleBuilderGenerateAndSaveRejectsUnknownMethod(t *testing.T) {
	builder := NewScheduleBuilder(&stubCatalogLoader{}, &stubLessonLoader{}, &stubVersionWriter{}, nil, nil, BuilderConfig{}, nil, zap.NewNop())
	_, err := builder.GenerateAndSave(context.Background(), "v1", models.SolverMethod("bogus"))
	require.Error(t, err)
}

func TestScheduleBuilderGenerateAndSaveMarksErrorOnEmptyCatalog(t *testing.T) {
	versions := &stubVersionWriter{}
	builder := NewScheduleBuilder(&stubCatalogLoader{catalog: models.Catalog{}}, &stubLessonLoader{}, versions, nil, nil, BuilderConfig{}, nil, zap.NewNop())
	_, err := builder.GenerateAndSave(context.Background(), "v1", models.SolverCSP)
	require.Error(t, err)
	require.Len(t, versions.statuses, 1)
	assert.Equal(t, models.VersionError, versions.statuses[0])
}

func TestScheduleBuilderGenerateAndSaveMarksErrorOnLessonLoadFailure(t *testing.T) {
	versions := &stubVersionWriter{}
	catalog := &stubCatalogLoader{catalog: trivialCatalog()}
	lessons := &stubLessonLoader{err: assertError{"db down"}}
	builder := NewScheduleBuilder(catalog, lessons, versions, nil, nil, BuilderConfig{}, nil, zap.NewNop())
	_, err := builder.GenerateAndSave(context.Background(), "v1", models.SolverCSP)
	require.Error(t, err)
	require.Len(t, versions.statuses, 1)
	assert.Equal(t, models.VersionError, versions.statuses[0])
}

func TestScheduleBuilderGenerateAndSaveSolvesTrivialCSPCatalog(t *testing.T) {
	versions := &stubVersionWriter{}
	catalog := &stubCatalogLoader{catalog: trivialCatalog()}
	lessons := &stubLessonLoader{lessons: trivialLessons()}
	builder := NewScheduleBuilder(catalog, lessons, versions, nil, nil, BuilderConfig{}, nil, zap.NewNop())

	version, err := builder.GenerateAndSave(context.Background(), "v1", models.SolverCSP)
	require.NoError(t, err)
	assert.Equal(t, models.VersionActive, version.Status)
	assert.True(t, version.IsValid)
	require.Len(t, versions.entries, 1)
	assert.Equal(t, int64(1), versions.entries[0].TeacherID)
	assert.Equal(t, int64(1), versions.entries[0].RoomID)
}

func TestScheduleBuilderGenerateInBackgroundRequiresQueue(t *testing.T) {
	builder := NewScheduleBuilder(&stubCatalogLoader{}, &stubLessonLoader{}, &stubVersionWriter{}, nil, nil, BuilderConfig{}, nil, zap.NewNop())
	err := builder.GenerateInBackground(context.Background(), "v1", models.SolverCSP)
	require.Error(t, err)
}

func TestScheduleBuilderHandleGenerateJobRejectsWrongPayload(t *testing.T) {
	builder := NewScheduleBuilder(&stubCatalogLoader{}, &stubLessonLoader{}, &stubVersionWriter{}, nil, nil, BuilderConfig{}, nil, zap.NewNop())
	err := builder.HandleGenerateJob(context.Background(), jobs.Job{Type: "generate_schedule", Payload: "not-the-right-type"})
	require.Error(t, err)
}

func TestScheduleBuilderSetQueueAttachesAfterConstruction(t *testing.T) {
	builder := NewScheduleBuilder(&stubCatalogLoader{}, &stubLessonLoader{}, &stubVersionWriter{}, nil, nil, BuilderConfig{}, nil, zap.NewNop())
	err := builder.GenerateInBackground(context.Background(), "v1", models.SolverCSP)
	require.Error(t, err)

	queue := jobs.NewQueue("generate_schedule", builder.HandleGenerateJob, jobs.QueueConfig{Workers: 1, BufferSize: 1, Logger: zap.NewNop()})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	queue.Start(ctx)
	defer queue.Stop()
	builder.SetQueue(queue)

	err = builder.GenerateInBackground(context.Background(), "v1", models.SolverCSP)
	assert.NoError(t, err)
}

type assertError struct{ msg string }

func (e assertError) Error() string { return e.msg }
