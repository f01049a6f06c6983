package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-adp-api/internal/models"
)

// VersionRepository persists timetable Versions and their Entry rows.
type VersionRepository struct {
	db *sqlx.DB
}

// NewVersionRepository constructs a VersionRepository.
func NewVersionRepository(db *sqlx.DB) *VersionRepository {
	return &VersionRepository{db: db}
}

// Create inserts a new Version, typically in status=processing.
func (r *VersionRepository) Create(ctx context.Context, v *models.Version) error {
	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now

	const query = `INSERT INTO timetable_versions (name, algorithm, status, is_valid, fitness_score, created_at, updated_at)
		VALUES (:name, :algorithm, :status, :is_valid, :fitness_score, :created_at, :updated_at) RETURNING id`
	rows, err := r.db.NamedQueryContext(ctx, query, v)
	if err != nil {
		return fmt.Errorf("create version: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&v.ID); err != nil {
			return fmt.Errorf("scan new version id: %w", err)
		}
	}
	return nil
}

// FindByID loads a Version by id.
func (r *VersionRepository) FindByID(ctx context.Context, id int64) (*models.Version, error) {
	const query = `SELECT id, name, algorithm, status, is_valid, fitness_score, created_at, updated_at FROM timetable_versions WHERE id = $1`
	var v models.Version
	if err := r.db.GetContext(ctx, &v, query, id); err != nil {
		return nil, err
	}
	return &v, nil
}

// Latest returns the most recently created Version, regardless of status.
func (r *VersionRepository) Latest(ctx context.Context) (*models.Version, error) {
	const query = `SELECT id, name, algorithm, status, is_valid, fitness_score, created_at, updated_at FROM timetable_versions ORDER BY created_at DESC LIMIT 1`
	var v models.Version
	if err := r.db.GetContext(ctx, &v, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load latest version: %w", err)
	}
	return &v, nil
}

// UpdateStatus transitions a Version's lifecycle status and, on success,
// its fitness score.
func (r *VersionRepository) UpdateStatus(ctx context.Context, id int64, status models.VersionStatus, isValid bool, fitnessScore *float64) error {
	const query = `UPDATE timetable_versions SET status = $2, is_valid = $3, fitness_score = $4, updated_at = $5 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, isValid, fitnessScore, time.Now().UTC()); err != nil {
		return fmt.Errorf("update version status: %w", err)
	}
	return nil
}

// WriteEntries replaces a Version's entries atomically: deletes any
// existing rows then bulk-inserts the new set, all within one transaction,
// so a solver failure never leaves a partially-written schedule.
func (r *VersionRepository) WriteEntries(ctx context.Context, versionID int64, entries []models.Entry) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin write entries: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM timetable_entries WHERE version_id = $1`, versionID); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}

	now := time.Now().UTC()
	const insert = `INSERT INTO timetable_entries (version_id, time_slot_id, subject_id, room_id, group_id, teacher_id, assignment_id, created_at)
		VALUES (:version_id, :time_slot_id, :subject_id, :room_id, :group_id, :teacher_id, :assignment_id, :created_at)`
	for i := range entries {
		entries[i].VersionID = versionID
		entries[i].CreatedAt = now
		if _, err = sqlx.NamedExecContext(ctx, tx, insert, &entries[i]); err != nil {
			return fmt.Errorf("insert entry: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit write entries: %w", err)
	}
	return nil
}

// ListEntries returns every Entry for a Version.
func (r *VersionRepository) ListEntries(ctx context.Context, versionID int64) ([]models.Entry, error) {
	const query = `SELECT id, version_id, time_slot_id, subject_id, room_id, group_id, teacher_id, assignment_id, created_at FROM timetable_entries WHERE version_id = $1 ORDER BY id`
	var entries []models.Entry
	if err := r.db.SelectContext(ctx, &entries, query, versionID); err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

// EntryByID loads a single Entry.
func (r *VersionRepository) EntryByID(ctx context.Context, id int64) (*models.Entry, error) {
	const query = `SELECT id, version_id, time_slot_id, subject_id, room_id, group_id, teacher_id, assignment_id, created_at FROM timetable_entries WHERE id = $1`
	var e models.Entry
	if err := r.db.GetContext(ctx, &e, query, id); err != nil {
		return nil, err
	}
	return &e, nil
}

// EntriesByTeacher returns every Entry for a teacher within a Version.
func (r *VersionRepository) EntriesByTeacher(ctx context.Context, versionID, teacherID int64) ([]models.Entry, error) {
	const query = `SELECT id, version_id, time_slot_id, subject_id, room_id, group_id, teacher_id, assignment_id, created_at FROM timetable_entries WHERE version_id = $1 AND teacher_id = $2 ORDER BY id`
	var entries []models.Entry
	if err := r.db.SelectContext(ctx, &entries, query, versionID, teacherID); err != nil {
		return nil, fmt.Errorf("list entries by teacher: %w", err)
	}
	return entries, nil
}

// DeleteAll removes every Version (and, via FK cascade, every Entry and
// Substitution) — used by the schedule-config mutation cascade.
func (r *VersionRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM timetable_versions`); err != nil {
		return fmt.Errorf("delete all versions: %w", err)
	}
	return nil
}
