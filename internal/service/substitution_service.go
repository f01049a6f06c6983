package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-api/internal/models"
	appErrors "github.com/noah-isme/sma-adp-api/pkg/errors"
)

// SubstitutionService covers the manual substitution operations a
// scheduling admin drives directly, as opposed to AutoAssignmentEngine's
// automated scoring path: assigning a specific chosen substitute, or
// cancelling a class outright. Grounded on spec.md's
// assign_substitute/cancel_class contract.
type SubstitutionService struct {
	version versionReader
	catalog catalogLoader
	subs    substitutionWriter
	logger  *zap.Logger
}

// NewSubstitutionService wires a SubstitutionService.
func NewSubstitutionService(version versionReader, catalog catalogLoader, subs substitutionWriter, logger *zap.Logger) *SubstitutionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubstitutionService{version: version, catalog: catalog, subs: subs, logger: logger}
}

// AssignSubstitute upserts a confirmed Substitution for one entry/date,
// keyed on (date, entry_id) as spec.md requires.
func (s *SubstitutionService) AssignSubstitute(ctx context.Context, entryID int64, date string, originalTeacherID, substituteTeacherID int64) (*models.Substitution, error) {
	entry, err := s.version.EntryByID(ctx, entryID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("entry %d not found", entryID))
	}
	catalog, err := s.catalog.Load(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load catalog")
	}
	if _, ok := catalog.TeacherByID(substituteTeacherID); !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("substitute teacher %d not found", substituteTeacherID))
	}
	if entry.TeacherID != originalTeacherID {
		return nil, appErrors.Clone(appErrors.ErrValidationUnprocessable, "original_teacher_id does not match the entry's assigned teacher")
	}

	sub := models.Substitution{
		Date:                date,
		EntryID:             entryID,
		OriginalTeacherID:   originalTeacherID,
		SubstituteTeacherID: &substituteTeacherID,
		Status:              models.SubstitutionConfirmed,
	}
	if err := s.subs.Upsert(ctx, &sub); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist substitution")
	}
	s.logger.Sugar().Infow("manual substitute assigned", "entry_id", entryID, "date", date, "substitute_id", substituteTeacherID)
	return &sub, nil
}

// CancelClass upserts a cancelled Substitution for one entry/date,
// leaving no substitute teacher assigned.
func (s *SubstitutionService) CancelClass(ctx context.Context, entryID int64, date string, originalTeacherID int64, reason string) (*models.Substitution, error) {
	entry, err := s.version.EntryByID(ctx, entryID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("entry %d not found", entryID))
	}
	if entry.TeacherID != originalTeacherID {
		return nil, appErrors.Clone(appErrors.ErrValidationUnprocessable, "original_teacher_id does not match the entry's assigned teacher")
	}

	var reasonPtr *string
	if reason != "" {
		reasonPtr = &reason
	}
	sub := models.Substitution{
		Date:              date,
		EntryID:           entryID,
		OriginalTeacherID: originalTeacherID,
		Status:            models.SubstitutionCancelled,
		Reason:            reasonPtr,
	}
	if err := s.subs.Upsert(ctx, &sub); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist cancellation")
	}
	s.logger.Sugar().Infow("class cancelled", "entry_id", entryID, "date", date, "reason", reason)
	return &sub, nil
}
