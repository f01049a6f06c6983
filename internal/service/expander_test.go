package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-adp-api/internal/models"
)

func TestExpandLessonsRejectsEmptyInput(t *testing.T) {
	_, err := ExpandLessons(nil)
	require.Error(t, err)
	assert.Equal(t, ErrEmptyRequirement, err)
}

func TestExpandLessonsCrossProductsMemberSets(t *testing.T) {
	lessons := []models.Lesson{{
		ID:              1,
		TeacherIDs:      models.Int64Set{1, 2},
		SubjectIDs:      models.Int64Set{10},
		GroupIDs:        models.Int64Set{100},
		LessonsPerWeek:  2,
		LengthPerLesson: 1,
	}}

	assignments, err := ExpandLessons(lessons)
	require.NoError(t, err)
	// 2 teachers x 1 subject x 1 group x 2 weekly occurrences.
	require.Len(t, assignments, 4)

	var teacher1Count, teacher2Count int
	for _, a := range assignments {
		assert.Equal(t, int64(10), a.SubjectID)
		assert.Equal(t, int64(100), a.GroupID)
		assert.Equal(t, 1, a.Duration)
		switch a.TeacherID {
		case 1:
			teacher1Count++
		case 2:
			teacher2Count++
		}
	}
	assert.Equal(t, 2, teacher1Count)
	assert.Equal(t, 2, teacher2Count)
}

func TestExpandLessonsAssignsStableIncrementingIDs(t *testing.T) {
	lessons := []models.Lesson{
		{ID: 1, TeacherIDs: models.Int64Set{1}, SubjectIDs: models.Int64Set{10}, GroupIDs: models.Int64Set{100}, LessonsPerWeek: 1, LengthPerLesson: 1},
		{ID: 2, TeacherIDs: models.Int64Set{2}, SubjectIDs: models.Int64Set{20}, GroupIDs: models.Int64Set{200}, LessonsPerWeek: 1, LengthPerLesson: 2},
	}

	assignments, err := ExpandLessons(lessons)
	require.NoError(t, err)
	require.Len(t, assignments, 2)
	assert.Equal(t, int64(1), assignments[0].AssignmentID)
	assert.Equal(t, int64(2), assignments[1].AssignmentID)
	assert.Equal(t, int64(1), assignments[0].LessonID)
	assert.Equal(t, int64(2), assignments[1].LessonID)
	assert.Equal(t, 2, assignments[1].Duration)
}
