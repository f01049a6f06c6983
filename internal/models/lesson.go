package models

import "time"

// Lesson is a requirement unit: every combination of its teacher/group/
// subject members must be taught LessonsPerWeek times.
type Lesson struct {
	ID               int64     `db:"id" json:"id"`
	TeacherIDs       Int64Set  `db:"teacher_ids" json:"teacher_ids"`
	GroupIDs         Int64Set  `db:"group_ids" json:"group_ids"`
	SubjectIDs       Int64Set  `db:"subject_ids" json:"subject_ids"`
	LessonsPerWeek   int       `db:"lessons_per_week" json:"lessons_per_week"`
	LengthPerLesson  int       `db:"length_per_lesson" json:"length_per_lesson"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// RequiredAssignment is one atomic scheduling obligation produced by the
// LessonExpander: group x subject x teacher x occurrence. It is the unit
// the solvers place into the schedule.
type RequiredAssignment struct {
	AssignmentID  int64 `json:"assignment_id"`
	LessonID      int64 `json:"lesson_id"`
	GroupID       int64 `json:"group_id"`
	SubjectID     int64 `json:"subject_id"`
	TeacherID     int64 `json:"teacher_id"`
	Duration      int   `json:"duration"`
	OccurrenceIdx int   `json:"occurrence_idx"`
}
