package service

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/sma-adp-api/internal/models"
	"github.com/noah-isme/sma-adp-api/internal/service/constraints"
	appErrors "github.com/noah-isme/sma-adp-api/pkg/errors"
	"github.com/noah-isme/sma-adp-api/pkg/export"
	"github.com/noah-isme/sma-adp-api/pkg/storage"
)

// fileStorage is the narrow persistence surface ArchiveExport needs from
// pkg/storage.LocalStorage.
type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ArchiveResult describes a persisted export available for later download
// through a signed, time-limited URL.
type ArchiveResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       string
	ExpiresAt    time.Time
}

// AnalyticsReporter computes per-teacher and per-room utilization and
// flags conflicts for a Version, and renders the result as CSV or PDF.
type AnalyticsReporter struct {
	catalog   catalogLoader
	version   versionReader
	cache     *CacheService
	pdf       *export.PDFExporter
	csv       *export.CSVExporter
	storage   fileStorage
	signer    *storage.SignedURLSigner
	apiPrefix string
}

// NewAnalyticsReporter wires an AnalyticsReporter.
func NewAnalyticsReporter(catalog catalogLoader, version versionReader, cache *CacheService) *AnalyticsReporter {
	return &AnalyticsReporter{
		catalog: catalog,
		version: version,
		cache:   cache,
		pdf:     export.NewPDFExporter(),
		csv:     export.NewCSVExporter(),
	}
}

// SetArchive attaches persistence for exported reports, enabling
// ArchiveExport. Without it, ArchiveExport returns an error.
func (r *AnalyticsReporter) SetArchive(store fileStorage, signer *storage.SignedURLSigner, apiPrefix string) {
	r.storage = store
	r.signer = signer
	r.apiPrefix = apiPrefix
}

// Report builds an AnalyticsReport for the given Version (falls back to
// the latest Version when versionID is zero).
func (r *AnalyticsReporter) Report(ctx context.Context, versionID int64) (*models.AnalyticsReport, error) {
	cacheKey := fmt.Sprintf("analytics:report:%d", versionID)
	var cached models.AnalyticsReport
	if hit, err := r.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	resolvedID, entries, err := r.resolveEntries(ctx, versionID)
	if err != nil {
		return nil, err
	}

	catalog, err := r.catalog.Load(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load catalog")
	}

	totalSlots := len(catalog.NonBreakSlots())

	teacherCounts := map[int64]int{}
	roomCounts := map[int64]int{}
	for _, e := range entries {
		slot, ok := catalog.TimeSlotByID(e.TimeSlotID)
		if ok && slot.IsBreak {
			continue
		}
		teacherCounts[e.TeacherID]++
		roomCounts[e.RoomID]++
	}

	teachers := make([]models.TeacherUtilization, 0, len(catalog.Teachers))
	for _, t := range catalog.Teachers {
		assigned := teacherCounts[t.ID]
		teachers = append(teachers, models.TeacherUtilization{
			TeacherID:             t.ID,
			TeacherName:           t.Name,
			AssignedSlots:         assigned,
			TotalSlots:            totalSlots,
			UtilizationPercentage: percentage(assigned, totalSlots),
		})
	}
	sort.Slice(teachers, func(i, j int) bool { return teachers[i].TeacherID < teachers[j].TeacherID })

	rooms := make([]models.RoomUtilization, 0, len(catalog.Rooms))
	for _, rm := range catalog.Rooms {
		assigned := roomCounts[rm.ID]
		rooms = append(rooms, models.RoomUtilization{
			RoomID:                rm.ID,
			RoomName:              rm.Name,
			AssignedSlots:         assigned,
			TotalSlots:            totalSlots,
			UtilizationPercentage: percentage(assigned, totalSlots),
		})
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].RoomID < rooms[j].RoomID })

	hard := constraints.HardConstraints{}
	conflicts := hard.AllConflicts(entries, catalog)

	report := &models.AnalyticsReport{
		VersionID:   resolvedID,
		Teachers:    teachers,
		Rooms:       rooms,
		Conflicts:   conflicts,
		GeneratedAt: models.SystemClock(),
	}

	_ = r.cache.Set(ctx, cacheKey, report, 0)
	return report, nil
}

// ExportPDF renders the given report as a PDF document, reusing the
// teacher's gofpdf-backed PDFExporter with a single dataset: the
// teacher-utilization table. Room utilization and conflicts are not
// included.
func (r *AnalyticsReporter) ExportPDF(report *models.AnalyticsReport) ([]byte, error) {
	dataset := export.Dataset{
		Headers: []string{"Teacher", "Assigned", "Total", "Utilization %"},
	}
	for _, t := range report.Teachers {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Teacher":       t.TeacherName,
			"Assigned":      strconv.Itoa(t.AssignedSlots),
			"Total":         strconv.Itoa(t.TotalSlots),
			"Utilization %": fmt.Sprintf("%.1f", t.UtilizationPercentage),
		})
	}
	return r.pdf.Render(dataset, fmt.Sprintf("Teacher Utilization - Version %d", report.VersionID))
}

// ExportCSV renders the given report's teacher utilization as CSV.
func (r *AnalyticsReporter) ExportCSV(report *models.AnalyticsReport) ([]byte, error) {
	dataset := export.Dataset{
		Headers: []string{"teacher_id", "teacher_name", "assigned_slots", "total_slots", "utilization_percentage"},
	}
	for _, t := range report.Teachers {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"teacher_id":             strconv.FormatInt(t.TeacherID, 10),
			"teacher_name":           t.TeacherName,
			"assigned_slots":         strconv.Itoa(t.AssignedSlots),
			"total_slots":            strconv.Itoa(t.TotalSlots),
			"utilization_percentage": fmt.Sprintf("%.2f", t.UtilizationPercentage),
		})
	}
	return r.csv.Render(dataset)
}

// ArchiveExport renders the report in the given format ("pdf" or "csv"),
// persists it via the configured fileStorage, and returns a signed,
// time-limited download URL. Requires SetArchive to have been called.
func (r *AnalyticsReporter) ArchiveExport(ctx context.Context, versionID int64, format string) (*ArchiveResult, error) {
	if r.storage == nil || r.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "export archiving is not configured")
	}

	report, err := r.Report(ctx, versionID)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch format {
	case "pdf":
		payload, err = r.ExportPDF(report)
	case "csv":
		payload, err = r.ExportCSV(report)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidationUnprocessable, "unsupported export format")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}

	jobID := fmt.Sprintf("analytics-%d", report.VersionID)
	filename := fmt.Sprintf("%s_%s.%s", jobID, time.Now().UTC().Format("20060102_150405"), format)
	relPath, err := r.storage.Save(filename, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist export")
	}

	token, expiresAt, err := r.signer.Generate(jobID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url")
	}
	prefix := strings.TrimRight(r.apiPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	return &ArchiveResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/analytics/export/archive/%s", prefix, token),
		Format:       format,
		ExpiresAt:    expiresAt,
	}, nil
}

// OpenArchived returns a read handle for a previously archived export,
// resolving and validating the signed token first.
func (r *AnalyticsReporter) OpenArchived(token string) (*os.File, error) {
	if r.storage == nil || r.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "export archiving is not configured")
	}
	_, relPath, _, err := r.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidationUnprocessable, "invalid or expired download token")
	}
	return r.storage.Open(relPath)
}

func (r *AnalyticsReporter) resolveEntries(ctx context.Context, versionID int64) (int64, []models.Entry, error) {
	if versionID == 0 {
		latest, err := r.version.Latest(ctx)
		if err != nil {
			return 0, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load latest version")
		}
		if latest == nil {
			return 0, nil, appErrors.Clone(appErrors.ErrNotFound, "no timetable version exists yet")
		}
		versionID = latest.ID
	}
	entries, err := r.version.ListEntries(ctx, versionID)
	if err != nil {
		return 0, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load entries")
	}
	return versionID, entries, nil
}

func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
