package handler

import (
	"context"
	"errors"

	"github.com/noah-isme/sma-adp-api/internal/models"
)

var errFakeNotFound = errors.New("fake: not found")

// These fakes satisfy the narrow, package-private consumer interfaces
// defined in internal/service (catalogLoader, versionReader, etc.) by
// structural typing; they let handler tests build real service instances
// instead of mocking the handler-facing concrete service types directly.

type fakeCatalogLoader struct {
	catalog models.Catalog
	err     error
}

func (f *fakeCatalogLoader) Load(_ context.Context) (models.Catalog, error) {
	return f.catalog, f.err
}

type fakeVersionReader struct {
	latest  *models.Version
	entries []models.Entry
	err     error
}

func (f *fakeVersionReader) Latest(_ context.Context) (*models.Version, error) {
	return f.latest, f.err
}

func (f *fakeVersionReader) EntriesByTeacher(_ context.Context, _, teacherID int64) ([]models.Entry, error) {
	if f.err != nil {
		return nil, f.err
	}
	var matched []models.Entry
	for _, e := range f.entries {
		if e.TeacherID == teacherID {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

func (f *fakeVersionReader) ListEntries(_ context.Context, _ int64) ([]models.Entry, error) {
	return f.entries, f.err
}

func (f *fakeVersionReader) EntryByID(_ context.Context, id int64) (*models.Entry, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, e := range f.entries {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, errFakeNotFound
}

type fakeSubstitutionWriter struct {
	upserted []models.Substitution
	err      error
}

func (f *fakeSubstitutionWriter) Upsert(_ context.Context, sub *models.Substitution) error {
	if f.err != nil {
		return f.err
	}
	f.upserted = append(f.upserted, *sub)
	return nil
}

func (f *fakeSubstitutionWriter) UpsertMany(_ context.Context, subs []models.Substitution) error {
	if f.err != nil {
		return f.err
	}
	f.upserted = append(f.upserted, subs...)
	return nil
}

type fakeLessonLoader struct {
	lessons []models.Lesson
	err     error
}

func (f *fakeLessonLoader) LoadLessons(_ context.Context) ([]models.Lesson, error) {
	return f.lessons, f.err
}

type fakeVersionWriter struct {
	created []models.Version
	entries []models.Entry
	err     error
}

func (f *fakeVersionWriter) Create(_ context.Context, v *models.Version) error {
	if f.err != nil {
		return f.err
	}
	v.ID = int64(len(f.created) + 1)
	f.created = append(f.created, *v)
	return nil
}

func (f *fakeVersionWriter) UpdateStatus(_ context.Context, _ int64, _ models.VersionStatus, _ bool, _ *float64) error {
	return nil
}

func (f *fakeVersionWriter) WriteEntries(_ context.Context, _ int64, entries []models.Entry) error {
	f.entries = entries
	return nil
}

type fakeScheduleConfig struct {
	stored *models.ScheduleConfig
	getErr error
}

func (f *fakeScheduleConfig) Get(_ context.Context) (*models.ScheduleConfig, error) {
	return f.stored, f.getErr
}

func (f *fakeScheduleConfig) Upsert(_ context.Context, cfg *models.ScheduleConfig) error {
	f.stored = cfg
	return nil
}

func (f *fakeScheduleConfig) ReplaceTimeSlots(_ context.Context, _ []models.TimeSlot) error {
	return nil
}

type fakeVersionDeleter struct {
	calls int
}

func (f *fakeVersionDeleter) DeleteAll(_ context.Context) error {
	f.calls++
	return nil
}
