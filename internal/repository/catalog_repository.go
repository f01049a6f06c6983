package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-adp-api/internal/models"
)

// CatalogRepository loads the read-only scheduling catalog (teachers,
// rooms, subjects, groups, time slots, lessons) a solve runs over. The
// core never mutates these rows; CRUD/import of the catalog is an
// external collaborator per spec.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository constructs a CatalogRepository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// Load fetches the full catalog snapshot a solver operates on.
func (r *CatalogRepository) Load(ctx context.Context) (models.Catalog, error) {
	var catalog models.Catalog

	const teachersQuery = `SELECT id, name, email, max_hours_per_week, available_slots, created_at, updated_at FROM teachers ORDER BY id`
	if err := r.db.SelectContext(ctx, &catalog.Teachers, teachersQuery); err != nil {
		return catalog, fmt.Errorf("load teachers: %w", err)
	}

	const roomsQuery = `SELECT id, name, capacity, type, resources, created_at, updated_at FROM rooms ORDER BY id`
	if err := r.db.SelectContext(ctx, &catalog.Rooms, roomsQuery); err != nil {
		return catalog, fmt.Errorf("load rooms: %w", err)
	}

	const subjectsQuery = `SELECT id, name, code, is_lab, credits, required_room_type, duration_slots, teacher_id, created_at, updated_at FROM subjects ORDER BY id`
	if err := r.db.SelectContext(ctx, &catalog.Subjects, subjectsQuery); err != nil {
		return catalog, fmt.Errorf("load subjects: %w", err)
	}

	const groupsQuery = `SELECT id, name, student_count, created_at, updated_at FROM class_groups ORDER BY id`
	if err := r.db.SelectContext(ctx, &catalog.Groups, groupsQuery); err != nil {
		return catalog, fmt.Errorf("load groups: %w", err)
	}

	const slotsQuery = `SELECT id, day, period, start_time, end_time, is_break FROM time_slots ORDER BY day, period`
	if err := r.db.SelectContext(ctx, &catalog.TimeSlots, slotsQuery); err != nil {
		return catalog, fmt.Errorf("load time slots: %w", err)
	}

	return catalog, nil
}

// LoadLessons fetches the Lesson definitions LessonExpander consumes,
// including their teacher/group/subject join-table membership.
func (r *CatalogRepository) LoadLessons(ctx context.Context) ([]models.Lesson, error) {
	const lessonsQuery = `SELECT id, lessons_per_week, length_per_lesson, created_at, updated_at FROM lessons ORDER BY id`
	type lessonRow struct {
		ID               int64     `db:"id"`
		LessonsPerWeek   int       `db:"lessons_per_week"`
		LengthPerLesson  int       `db:"length_per_lesson"`
		CreatedAt        interface{} `db:"created_at"`
		UpdatedAt        interface{} `db:"updated_at"`
	}
	var rows []lessonRow
	if err := r.db.SelectContext(ctx, &rows, lessonsQuery); err != nil {
		return nil, fmt.Errorf("load lessons: %w", err)
	}

	lessons := make([]models.Lesson, 0, len(rows))
	for _, row := range rows {
		lesson := models.Lesson{
			ID:              row.ID,
			LessonsPerWeek:  row.LessonsPerWeek,
			LengthPerLesson: row.LengthPerLesson,
		}

		teacherIDs, err := r.joinIDs(ctx, "lesson_teachers", "teacher_id", lesson.ID)
		if err != nil {
			return nil, err
		}
		groupIDs, err := r.joinIDs(ctx, "lesson_groups", "group_id", lesson.ID)
		if err != nil {
			return nil, err
		}
		subjectIDs, err := r.joinIDs(ctx, "lesson_subjects", "subject_id", lesson.ID)
		if err != nil {
			return nil, err
		}

		lesson.TeacherIDs = teacherIDs
		lesson.GroupIDs = groupIDs
		lesson.SubjectIDs = subjectIDs
		lessons = append(lessons, lesson)
	}

	return lessons, nil
}

func (r *CatalogRepository) joinIDs(ctx context.Context, table, column string, lessonID int64) (models.Int64Set, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE lesson_id = $1 ORDER BY %s", column, table, column)
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, lessonID); err != nil {
		return nil, fmt.Errorf("load %s: %w", table, err)
	}
	return models.Int64Set(ids), nil
}
