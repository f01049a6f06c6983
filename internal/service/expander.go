package service

import (
	"net/http"

	"github.com/noah-isme/sma-adp-api/internal/models"
	appErrors "github.com/noah-isme/sma-adp-api/pkg/errors"
)

// ErrEmptyRequirement is returned by ExpandLessons when no lessons are
// supplied — there is nothing for a solver to schedule.
var ErrEmptyRequirement = appErrors.New("EMPTY_REQUIREMENT", http.StatusUnprocessableEntity, "no lessons to expand")

// ExpandLessons materializes a list of Lesson definitions into an ordered,
// deterministic sequence of RequiredAssignment units: one per weekly
// occurrence of every (teacher, subject, group) combination a lesson's
// member sets describe. Ordering is stable across runs given identical
// input, which is what makes both solver back-ends' output reproducible.
func ExpandLessons(lessons []models.Lesson) ([]models.RequiredAssignment, error) {
	if len(lessons) == 0 {
		return nil, ErrEmptyRequirement
	}

	var assignments []models.RequiredAssignment
	var nextID int64 = 1

	for _, lesson := range lessons {
		for _, teacherID := range lesson.TeacherIDs {
			for _, subjectID := range lesson.SubjectIDs {
				for _, groupID := range lesson.GroupIDs {
					for occurrence := 0; occurrence < lesson.LessonsPerWeek; occurrence++ {
						assignments = append(assignments, models.RequiredAssignment{
							AssignmentID:  nextID,
							LessonID:      lesson.ID,
							GroupID:       groupID,
							SubjectID:     subjectID,
							TeacherID:     teacherID,
							Duration:      lesson.LengthPerLesson,
							OccurrenceIdx: occurrence,
						})
						nextID++
					}
				}
			}
		}
	}

	if len(assignments) == 0 {
		return nil, ErrEmptyRequirement
	}

	return assignments, nil
}
