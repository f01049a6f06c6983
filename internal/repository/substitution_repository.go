package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-adp-api/internal/models"
)

// SubstitutionRepository persists per-date teacher overrides.
type SubstitutionRepository struct {
	db *sqlx.DB
}

// NewSubstitutionRepository constructs a SubstitutionRepository.
func NewSubstitutionRepository(db *sqlx.DB) *SubstitutionRepository {
	return &SubstitutionRepository{db: db}
}

// UpsertMany writes every Substitution in one transaction, so an
// AutoAssignmentEngine run either commits a terminal outcome for all
// affected entries or none of them. Upsert is keyed on (date, entry_id)
// per spec.md's assign_substitute contract.
func (r *SubstitutionRepository) UpsertMany(ctx context.Context, subs []models.Substitution) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert substitutions: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	const upsert = `INSERT INTO substitutions (date, entry_id, original_teacher_id, substitute_teacher_id, status, reason, created_at, updated_at)
		VALUES (:date, :entry_id, :original_teacher_id, :substitute_teacher_id, :status, :reason, :created_at, :updated_at)
		ON CONFLICT (date, entry_id) DO UPDATE SET
			original_teacher_id = EXCLUDED.original_teacher_id,
			substitute_teacher_id = EXCLUDED.substitute_teacher_id,
			status = EXCLUDED.status,
			reason = EXCLUDED.reason,
			updated_at = EXCLUDED.updated_at`

	for i := range subs {
		if subs[i].CreatedAt.IsZero() {
			subs[i].CreatedAt = now
		}
		subs[i].UpdatedAt = now
		if _, err = sqlx.NamedExecContext(ctx, tx, upsert, &subs[i]); err != nil {
			return fmt.Errorf("upsert substitution: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert substitutions: %w", err)
	}
	return nil
}

// Upsert writes a single Substitution, used by assign_substitute/cancel_class.
func (r *SubstitutionRepository) Upsert(ctx context.Context, sub *models.Substitution) error {
	return r.UpsertMany(ctx, []models.Substitution{*sub})
}

// ListByEntryAndDate returns the Substitution for (entry, date) if one
// exists.
func (r *SubstitutionRepository) ListByEntryAndDate(ctx context.Context, entryID int64, date string) (*models.Substitution, error) {
	const query = `SELECT id, date, entry_id, original_teacher_id, substitute_teacher_id, status, reason, created_at, updated_at FROM substitutions WHERE entry_id = $1 AND date = $2`
	var sub models.Substitution
	if err := r.db.GetContext(ctx, &sub, query, entryID, date); err != nil {
		return nil, err
	}
	return &sub, nil
}
