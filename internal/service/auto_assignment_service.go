package service

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-api/internal/models"
	appErrors "github.com/noah-isme/sma-adp-api/pkg/errors"
)

type catalogLoader interface {
	Load(ctx context.Context) (models.Catalog, error)
}

type versionReader interface {
	Latest(ctx context.Context) (*models.Version, error)
	EntriesByTeacher(ctx context.Context, versionID, teacherID int64) ([]models.Entry, error)
	ListEntries(ctx context.Context, versionID int64) ([]models.Entry, error)
	EntryByID(ctx context.Context, id int64) (*models.Entry, error)
}

type substitutionWriter interface {
	UpsertMany(ctx context.Context, subs []models.Substitution) error
	Upsert(ctx context.Context, sub *models.Substitution) error
}

// AutoAssignmentEngine finds and commits substitute teachers for an
// absent teacher's classes, grounded on the source's AutoAssignmentService.
type AutoAssignmentEngine struct {
	catalog catalogLoader
	version versionReader
	subs    substitutionWriter
	scorer  *SubstituteScorer
	metrics *MetricsService
	logger  *zap.Logger
}

// NewAutoAssignmentEngine wires an AutoAssignmentEngine.
func NewAutoAssignmentEngine(catalog catalogLoader, version versionReader, subs substitutionWriter, scorer *SubstituteScorer, metrics *MetricsService, logger *zap.Logger) *AutoAssignmentEngine {
	if scorer == nil {
		scorer = NewSubstituteScorer(DefaultSubstituteWeights, 18)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AutoAssignmentEngine{catalog: catalog, version: version, subs: subs, scorer: scorer, metrics: metrics, logger: logger}
}

// AutoAssign finds all classes taught by teacherID on the given date and
// either assigns the single best-scoring substitute to every one of them
// (status=confirmed) or, if none is available, marks every one of them
// cancelled — always as one atomic outcome, never a partial mix.
func (e *AutoAssignmentEngine) AutoAssign(ctx context.Context, teacherID int64, date string, autoNotify bool) (*models.AssignmentReport, error) {
	latest, err := e.version.Latest(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load latest version")
	}
	if latest == nil {
		return &models.AssignmentReport{Success: false, Error: "no timetable found; generate a timetable first"}, nil
	}

	catalog, err := e.catalog.Load(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load catalog")
	}
	absentTeacher, ok := catalog.TeacherByID(teacherID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("teacher %d not found", teacherID))
	}

	entries, err := e.version.EntriesByTeacher(ctx, latest.ID, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher's classes")
	}
	if len(entries) == 0 {
		e.metrics.ObserveAutoAssignment("no_classes")
		return &models.AssignmentReport{
			Success:         true,
			TeacherName:     absentTeacher.Name,
			Date:            date,
			AffectedClasses: 0,
			Message:         "no classes found for this teacher",
		}, nil
	}

	allEntries, err := e.version.ListEntries(ctx, latest.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load version entries")
	}

	requiredSlots := make([]int64, 0, len(entries))
	subjectSeen := make(map[int64]bool)
	var requiredSubjects []string
	for _, entry := range entries {
		requiredSlots = append(requiredSlots, entry.TimeSlotID)
		if !subjectSeen[entry.SubjectID] {
			subjectSeen[entry.SubjectID] = true
			if subject, ok := catalog.SubjectByID(entry.SubjectID); ok {
				requiredSubjects = append(requiredSubjects, subject.Name)
			}
		}
	}

	candidates := make([]models.SubstituteScore, 0, len(catalog.Teachers))
	for _, teacher := range catalog.Teachers {
		if teacher.ID == teacherID {
			continue
		}
		score := e.scorer.Score(teacher, allEntries, requiredSlots, requiredSubjects, taughtSubjectNames(catalog, teacher.ID))
		if score.Available {
			candidates = append(candidates, score)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Score > candidates[j].Score })

	if len(candidates) == 0 {
		subs := make([]models.Substitution, 0, len(entries))
		for _, entry := range entries {
			subs = append(subs, models.Substitution{
				Date:              date,
				EntryID:           entry.ID,
				OriginalTeacherID: teacherID,
				Status:            models.SubstitutionCancelled,
			})
		}
		if err := e.subs.UpsertMany(ctx, subs); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist cancellations")
		}
		e.metrics.ObserveAutoAssignment("cancelled")
		return &models.AssignmentReport{
			Success:         false,
			TeacherName:     absentTeacher.Name,
			Date:            date,
			AffectedClasses: len(entries),
			Error:           "no available substitute teachers found",
			Message:         "all classes have been marked as cancelled",
			Reason:          "all potential substitutes are busy during these time slots",
		}, nil
	}

	best := candidates[0]
	subs := make([]models.Substitution, 0, len(entries))
	details := make([]models.AssignmentDetail, 0, len(entries))
	for _, entry := range entries {
		substituteID := best.TeacherID
		subs = append(subs, models.Substitution{
			Date:                date,
			EntryID:             entry.ID,
			OriginalTeacherID:   teacherID,
			SubstituteTeacherID: &substituteID,
			Status:              models.SubstitutionConfirmed,
		})
		details = append(details, models.AssignmentDetail{
			EntryID:           entry.ID,
			Subject:           subjectNameOf(catalog, entry.SubjectID),
			TimeSlot:          timeSlotLabel(catalog, entry.TimeSlotID),
			ClassGroup:        groupNameOf(catalog, entry.GroupID),
			Room:              roomNameOf(catalog, entry.RoomID),
			SubstituteTeacher: best.TeacherName,
			ConfidenceScore:   best.Score,
		})
	}

	if err := e.subs.UpsertMany(ctx, subs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist substitutions")
	}

	alternatives := candidates[1:]
	if len(alternatives) > 3 {
		alternatives = alternatives[:3]
	}

	e.metrics.ObserveAutoAssignment("assigned")
	e.logger.Sugar().Infow("auto-assigned substitute", "teacher_id", teacherID, "date", date, "substitute_id", best.TeacherID, "affected_classes", len(entries))

	return &models.AssignmentReport{
		Success:                true,
		TeacherName:            absentTeacher.Name,
		Date:                   date,
		AffectedClasses:        len(entries),
		SubstituteAssigned:     best.TeacherName,
		SubstituteID:           &best.TeacherID,
		ConfidenceScore:        best.Score,
		Assignments:            details,
		AlternativeSubstitutes: alternatives,
		NotificationSent:       autoNotify,
	}, nil
}

// RankedSuggestions scores every other teacher against a single entry's
// slot and subject, returning the top N candidates regardless of
// availability — unlike AutoAssign, callers use this to browse options.
func (e *AutoAssignmentEngine) RankedSuggestions(ctx context.Context, entryID int64, topN int) ([]models.SubstituteScore, error) {
	if topN <= 0 {
		topN = 5
	}

	latest, err := e.version.Latest(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load latest version")
	}
	if latest == nil {
		return nil, nil
	}

	entry, err := e.version.EntryByID(ctx, entryID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("entry %d not found", entryID))
	}

	catalog, err := e.catalog.Load(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load catalog")
	}

	allEntries, err := e.version.ListEntries(ctx, latest.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load version entries")
	}

	var requiredSubjects []string
	if subject, ok := catalog.SubjectByID(entry.SubjectID); ok {
		requiredSubjects = []string{subject.Name}
	}
	requiredSlots := []int64{entry.TimeSlotID}

	candidates := make([]models.SubstituteScore, 0, len(catalog.Teachers))
	for _, teacher := range catalog.Teachers {
		if teacher.ID == entry.TeacherID {
			continue
		}
		candidates = append(candidates, e.scorer.Score(teacher, allEntries, requiredSlots, requiredSubjects, taughtSubjectNames(catalog, teacher.ID)))
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Score > candidates[j].Score })

	if len(candidates) > topN {
		candidates = candidates[:topN]
	}
	return candidates, nil
}

func taughtSubjectNames(catalog models.Catalog, teacherID int64) []string {
	var names []string
	for _, subject := range catalog.Subjects {
		if subject.TeacherID != nil && *subject.TeacherID == teacherID {
			names = append(names, subject.Name)
		}
	}
	return names
}

func subjectNameOf(catalog models.Catalog, id int64) string {
	if subject, ok := catalog.SubjectByID(id); ok {
		return subject.Name
	}
	return "Unknown"
}

func groupNameOf(catalog models.Catalog, id int64) string {
	if group, ok := catalog.GroupByID(id); ok {
		return group.Name
	}
	return "Unknown"
}

func roomNameOf(catalog models.Catalog, id int64) string {
	if room, ok := catalog.RoomByID(id); ok {
		return room.Name
	}
	return "Unknown"
}

func timeSlotLabel(catalog models.Catalog, id int64) string {
	slot, ok := catalog.TimeSlotByID(id)
	if !ok {
		return "Unknown"
	}
	return fmt.Sprintf("%s %s-%s", slot.Day, slot.Start, slot.End)
}
