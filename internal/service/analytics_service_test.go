package service

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-api/internal/models"
	appErrors "github.com/noah-isme/sma-adp-api/pkg/errors"
	"github.com/noah-isme/sma-adp-api/pkg/storage"
)

type stubCatalogLoader struct {
	catalog models.Catalog
	err     error
}

func (s *stubCatalogLoader) Load(_ context.Context) (models.Catalog, error) {
	return s.catalog, s.err
}

type stubVersionReader struct {
	latest  *models.Version
	entries []models.Entry
	err     error
}

func (s *stubVersionReader) Latest(_ context.Context) (*models.Version, error) {
	return s.latest, s.err
}

func (s *stubVersionReader) EntriesByTeacher(_ context.Context, _, teacherID int64) ([]models.Entry, error) {
	if s.err != nil {
		return nil, s.err
	}
	var matched []models.Entry
	for _, e := range s.entries {
		if e.TeacherID == teacherID {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

func (s *stubVersionReader) ListEntries(_ context.Context, _ int64) ([]models.Entry, error) {
	return s.entries, s.err
}

func (s *stubVersionReader) EntryByID(_ context.Context, id int64) (*models.Entry, error) {
	for _, e := range s.entries {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, appErrors.ErrNotFound
}

type stubCacheRepo struct {
	store map[string][]byte
}

func (s *stubCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	if s.store == nil {
		return appErrors.ErrCacheMiss
	}
	payload, ok := s.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (s *stubCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if s.store == nil {
		s.store = make(map[string][]byte)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.store[key] = payload
	return nil
}

func (s *stubCacheRepo) DeleteByPattern(_ context.Context, _ string) error {
	return nil
}

func testCatalog() models.Catalog {
	return models.Catalog{
		Teachers: []models.Teacher{{ID: 1, Name: "Ada Lovelace"}, {ID: 2, Name: "Alan Turing"}},
		Rooms:    []models.Room{{ID: 1, Name: "Room A"}},
		TimeSlots: []models.TimeSlot{
			{ID: 1, Day: models.Monday, Period: 1, IsBreak: false},
			{ID: 2, Day: models.Monday, Period: 2, IsBreak: false},
		},
	}
}

func TestAnalyticsReporterReportCachesResult(t *testing.T) {
	catalog := &stubCatalogLoader{catalog: testCatalog()}
	version := &stubVersionReader{
		latest:  &models.Version{ID: 7},
		entries: []models.Entry{{ID: 1, VersionID: 7, TimeSlotID: 1, TeacherID: 1, RoomID: 1}},
	}
	cacheSvc := NewCacheService(&stubCacheRepo{}, nil, time.Minute, zap.NewNop(), true)
	reporter := NewAnalyticsReporter(catalog, version, cacheSvc)

	report, err := reporter.Report(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(7), report.VersionID)
	require.Len(t, report.Teachers, 2)
	assert.Equal(t, 1, report.Teachers[0].AssignedSlots)
	assert.Equal(t, 2, report.Teachers[0].TotalSlots)
	assert.InDelta(t, 50.0, report.Teachers[0].UtilizationPercentage, 0.001)

	version.entries = nil // prove the second call is served from cache, not recomputed
	cached, err := reporter.Report(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, report, cached)
}

func TestAnalyticsReporterReportNoVersions(t *testing.T) {
	catalog := &stubCatalogLoader{catalog: testCatalog()}
	version := &stubVersionReader{}
	cacheSvc := NewCacheService(nil, nil, time.Minute, zap.NewNop(), false)
	reporter := NewAnalyticsReporter(catalog, version, cacheSvc)

	_, err := reporter.Report(context.Background(), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestAnalyticsReporterExportCSVIncludesEveryTeacher(t *testing.T) {
	catalog := &stubCatalogLoader{catalog: testCatalog()}
	version := &stubVersionReader{latest: &models.Version{ID: 1}}
	cacheSvc := NewCacheService(nil, nil, time.Minute, zap.NewNop(), false)
	reporter := NewAnalyticsReporter(catalog, version, cacheSvc)

	report, err := reporter.Report(context.Background(), 1)
	require.NoError(t, err)

	payload, err := reporter.ExportCSV(report)
	require.NoError(t, err)
	assert.Contains(t, string(payload), "Ada Lovelace")
	assert.Contains(t, string(payload), "Alan Turing")
}

func TestAnalyticsReporterArchiveExportRequiresConfiguration(t *testing.T) {
	catalog := &stubCatalogLoader{catalog: testCatalog()}
	version := &stubVersionReader{latest: &models.Version{ID: 1}}
	reporter := NewAnalyticsReporter(catalog, version, NewCacheService(nil, nil, time.Minute, zap.NewNop(), false))

	_, err := reporter.ArchiveExport(context.Background(), 1, "csv")
	require.Error(t, err)
}

func TestAnalyticsReporterArchiveExportPersistsAndDownloads(t *testing.T) {
	catalog := &stubCatalogLoader{catalog: testCatalog()}
	version := &stubVersionReader{
		latest:  &models.Version{ID: 1},
		entries: []models.Entry{{ID: 1, VersionID: 1, TimeSlotID: 1, TeacherID: 1, RoomID: 1}},
	}
	reporter := NewAnalyticsReporter(catalog, version, NewCacheService(nil, nil, time.Minute, zap.NewNop(), false))

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	reporter.SetArchive(store, signer, "/api/v1")

	result, err := reporter.ArchiveExport(context.Background(), 1, "csv")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Contains(t, result.URL, "/api/v1/analytics/export/archive/")

	file, err := reporter.OpenArchived(result.Token)
	require.NoError(t, err)
	defer file.Close()
	content, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Ada Lovelace")
}

func TestAnalyticsReporterArchiveExportRejectsUnknownFormat(t *testing.T) {
	catalog := &stubCatalogLoader{catalog: testCatalog()}
	version := &stubVersionReader{latest: &models.Version{ID: 1}}
	reporter := NewAnalyticsReporter(catalog, version, NewCacheService(nil, nil, time.Minute, zap.NewNop(), false))

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	reporter.SetArchive(store, storage.NewSignedURLSigner("secret", time.Hour), "")

	_, err = reporter.ArchiveExport(context.Background(), 1, "xml")
	require.Error(t, err)
}
