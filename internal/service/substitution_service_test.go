package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-api/internal/models"
	appErrors "github.com/noah-isme/sma-adp-api/pkg/errors"
)

type stubSubstitutionWriter struct {
	upserted []models.Substitution
	err      error
}

func (s *stubSubstitutionWriter) Upsert(_ context.Context, sub *models.Substitution) error {
	if s.err != nil {
		return s.err
	}
	s.upserted = append(s.upserted, *sub)
	return nil
}

func (s *stubSubstitutionWriter) UpsertMany(_ context.Context, subs []models.Substitution) error {
	if s.err != nil {
		return s.err
	}
	s.upserted = append(s.upserted, subs...)
	return nil
}

func TestSubstitutionServiceAssignSubstitute(t *testing.T) {
	version := &stubVersionReader{entries: []models.Entry{{ID: 10, TeacherID: 1}}}
	catalog := &stubCatalogLoader{catalog: testCatalog()}
	subs := &stubSubstitutionWriter{}
	svc := NewSubstitutionService(version, catalog, subs, zap.NewNop())

	sub, err := svc.AssignSubstitute(context.Background(), 10, "2026-08-03", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, models.SubstitutionConfirmed, sub.Status)
	assert.Equal(t, int64(2), *sub.SubstituteTeacherID)
	require.Len(t, subs.upserted, 1)
}

func TestSubstitutionServiceAssignSubstituteRejectsWrongOriginalTeacher(t *testing.T) {
	version := &stubVersionReader{entries: []models.Entry{{ID: 10, TeacherID: 1}}}
	catalog := &stubCatalogLoader{catalog: testCatalog()}
	subs := &stubSubstitutionWriter{}
	svc := NewSubstitutionService(version, catalog, subs, zap.NewNop())

	_, err := svc.AssignSubstitute(context.Background(), 10, "2026-08-03", 99, 2)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidationUnprocessable.Code, appErr.Code)
	assert.Empty(t, subs.upserted)
}

func TestSubstitutionServiceAssignSubstituteUnknownSubstitute(t *testing.T) {
	version := &stubVersionReader{entries: []models.Entry{{ID: 10, TeacherID: 1}}}
	catalog := &stubCatalogLoader{catalog: testCatalog()}
	subs := &stubSubstitutionWriter{}
	svc := NewSubstitutionService(version, catalog, subs, zap.NewNop())

	_, err := svc.AssignSubstitute(context.Background(), 10, "2026-08-03", 1, 999)
	require.Error(t, err)
	assert.Empty(t, subs.upserted)
}

func TestSubstitutionServiceCancelClass(t *testing.T) {
	version := &stubVersionReader{entries: []models.Entry{{ID: 10, TeacherID: 1}}}
	catalog := &stubCatalogLoader{catalog: testCatalog()}
	subs := &stubSubstitutionWriter{}
	svc := NewSubstitutionService(version, catalog, subs, zap.NewNop())

	sub, err := svc.CancelClass(context.Background(), 10, "2026-08-03", 1, "teacher ill")
	require.NoError(t, err)
	assert.Equal(t, models.SubstitutionCancelled, sub.Status)
	require.NotNil(t, sub.Reason)
	assert.Equal(t, "teacher ill", *sub.Reason)
	assert.Nil(t, sub.SubstituteTeacherID)
}
