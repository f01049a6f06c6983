package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-api/internal/models"
	"github.com/noah-isme/sma-adp-api/internal/service"
)

func substitutionCatalog() models.Catalog {
	return models.Catalog{
		Teachers: []models.Teacher{
			{ID: 1, Name: "Ada Lovelace"},
			{ID: 2, Name: "Alan Turing"},
		},
		Subjects:  []models.Subject{{ID: 1, Name: "Mathematics"}},
		TimeSlots: []models.TimeSlot{{ID: 1, Day: models.Monday, Period: 1}},
	}
}

func newTestSubstitutionHandler() *SubstitutionHandler {
	catalog := &fakeCatalogLoader{catalog: substitutionCatalog()}
	version := &fakeVersionReader{
		latest:  &models.Version{ID: 1},
		entries: []models.Entry{{ID: 10, TimeSlotID: 1, SubjectID: 1, TeacherID: 1}},
	}
	subs := &fakeSubstitutionWriter{}
	auto := service.NewAutoAssignmentEngine(catalog, version, subs, nil, nil, zap.NewNop())
	manual := service.NewSubstitutionService(version, catalog, subs, zap.NewNop())
	return NewSubstitutionHandler(auto, manual)
}

func TestSubstitutionHandlerAutoAssignValidatesBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestSubstitutionHandler()
	req, _ := http.NewRequest(http.MethodPost, "/substitutions/auto-assign", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	h.AutoAssign(c)
	require.NotEqual(t, http.StatusOK, w.Code)
}

func TestSubstitutionHandlerAutoAssignSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestSubstitutionHandler()
	payload := []byte(`{"teacher_id":1,"date":"2026-08-03","auto_notify":false}`)
	req, _ := http.NewRequest(http.MethodPost, "/substitutions/auto-assign", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	h.AutoAssign(c)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestSubstitutionHandlerRankedSuggestionsDefaultsTopN(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestSubstitutionHandler()
	req, _ := http.NewRequest(http.MethodGet, "/substitutions/suggestions?entry_id=10", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	h.RankedSuggestions(c)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestSubstitutionHandlerRankedSuggestionsRejectsMissingEntryID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestSubstitutionHandler()
	req, _ := http.NewRequest(http.MethodGet, "/substitutions/suggestions", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	h.RankedSuggestions(c)
	require.NotEqual(t, http.StatusOK, w.Code)
}

func TestSubstitutionHandlerAssignSubstituteSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestSubstitutionHandler()
	payload := []byte(`{"entry_id":10,"date":"2026-08-03","original_teacher_id":1,"substitute_teacher_id":2}`)
	req, _ := http.NewRequest(http.MethodPost, "/substitutions/assign", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	h.AssignSubstitute(c)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestSubstitutionHandlerCancelClassSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestSubstitutionHandler()
	payload := []byte(`{"entry_id":10,"date":"2026-08-03","original_teacher_id":1,"reason":"sick"}`)
	req, _ := http.NewRequest(http.MethodPost, "/substitutions/cancel", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	h.CancelClass(c)
	require.Equal(t, http.StatusOK, w.Code)
}
