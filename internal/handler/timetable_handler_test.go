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

func timetableCatalog() models.Catalog {
	return models.Catalog{
		Teachers:  []models.Teacher{{ID: 1, Name: "Ada Lovelace"}},
		Rooms:     []models.Room{{ID: 1, Name: "Room A"}},
		Groups:    []models.Group{{ID: 1, Name: "Class 10A"}},
		Subjects:  []models.Subject{{ID: 1, Name: "Mathematics", DurationSlots: 1}},
		TimeSlots: []models.TimeSlot{{ID: 1, Day: models.Monday, Period: 1, Start: "07:00", End: "07:45"}},
	}
}

func newTestTimetableHandler() (*TimetableHandler, *fakeVersionWriter) {
	catalog := &fakeCatalogLoader{catalog: timetableCatalog()}
	lessons := &fakeLessonLoader{lessons: []models.Lesson{{
		ID: 1, TeacherIDs: models.Int64Set{1}, GroupIDs: models.Int64Set{1},
		SubjectIDs: models.Int64Set{1}, LessonsPerWeek: 1, LengthPerLesson: 1,
	}}}
	versions := &fakeVersionWriter{}
	builder := service.NewScheduleBuilder(catalog, lessons, versions, nil, nil, service.BuilderConfig{}, nil, zap.NewNop())
	entryLister := &fakeVersionReader{}
	return NewTimetableHandler(builder, entryLister), versions
}

func TestTimetableHandlerGenerateSyncSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, versions := newTestTimetableHandler()
	payload := []byte(`{"name":"v1","algorithm":"csp","async":false}`)
	req, _ := http.NewRequest(http.MethodPost, "/timetable/generate", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	h.Generate(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, versions.created, 1)
	require.Len(t, versions.entries, 1)
}

func TestTimetableHandlerGenerateRejectsUnknownAlgorithm(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, _ := newTestTimetableHandler()
	payload := []byte(`{"name":"v1","algorithm":"quantum"}`)
	req, _ := http.NewRequest(http.MethodPost, "/timetable/generate", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	h.Generate(c)
	require.NotEqual(t, http.StatusOK, w.Code)
}

func TestTimetableHandlerGenerateAsyncRequiresQueue(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, _ := newTestTimetableHandler()
	payload := []byte(`{"name":"v1","algorithm":"csp","async":true}`)
	req, _ := http.NewRequest(http.MethodPost, "/timetable/generate", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	h.Generate(c)
	require.NotEqual(t, http.StatusOK, w.Code)
	require.NotEqual(t, http.StatusAccepted, w.Code)
}
