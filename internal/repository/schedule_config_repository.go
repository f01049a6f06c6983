package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-adp-api/internal/models"
)

// ScheduleConfigRepository manages the single global ScheduleConfig row.
type ScheduleConfigRepository struct {
	db *sqlx.DB
}

// NewScheduleConfigRepository constructs a ScheduleConfigRepository.
func NewScheduleConfigRepository(db *sqlx.DB) *ScheduleConfigRepository {
	return &ScheduleConfigRepository{db: db}
}

type scheduleConfigRow struct {
	ID                    int64     `db:"id"`
	DayStartTime          string    `db:"day_start_time"`
	DayEndTime            string    `db:"day_end_time"`
	WorkingMinutesPerDay  int       `db:"working_minutes_per_day"`
	NumberOfPeriods       int       `db:"number_of_periods"`
	PeriodDurationMinutes int       `db:"period_duration_minutes"`
	Breaks                []byte    `db:"breaks"`
	LunchBreakStart       string    `db:"lunch_break_start"`
	LunchBreakEnd         string    `db:"lunch_break_end"`
	ScheduleDays          models.StringSet `db:"schedule_days"`
	CreatedAt             time.Time `db:"created_at"`
	UpdatedAt             time.Time `db:"updated_at"`
}

func (row scheduleConfigRow) toModel() (models.ScheduleConfig, error) {
	var breaks []models.ScheduleBreak
	if len(row.Breaks) > 0 {
		if err := json.Unmarshal(row.Breaks, &breaks); err != nil {
			return models.ScheduleConfig{}, fmt.Errorf("decode breaks: %w", err)
		}
	}
	return models.ScheduleConfig{
		ID:                    row.ID,
		DayStartTime:          row.DayStartTime,
		DayEndTime:            row.DayEndTime,
		WorkingMinutesPerDay:  row.WorkingMinutesPerDay,
		NumberOfPeriods:       row.NumberOfPeriods,
		PeriodDurationMinutes: row.PeriodDurationMinutes,
		Breaks:                breaks,
		LunchBreakStart:       row.LunchBreakStart,
		LunchBreakEnd:         row.LunchBreakEnd,
		ScheduleDays:          row.ScheduleDays,
		CreatedAt:             row.CreatedAt,
		UpdatedAt:             row.UpdatedAt,
	}, nil
}

// Get returns the singleton ScheduleConfig, or nil if it hasn't been
// seeded yet.
func (r *ScheduleConfigRepository) Get(ctx context.Context) (*models.ScheduleConfig, error) {
	const query = `SELECT id, day_start_time, day_end_time, working_minutes_per_day, number_of_periods, period_duration_minutes, breaks, lunch_break_start, lunch_break_end, schedule_days, created_at, updated_at FROM schedule_config ORDER BY id LIMIT 1`
	var row scheduleConfigRow
	if err := r.db.GetContext(ctx, &row, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load schedule config: %w", err)
	}
	cfg, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Upsert writes the singleton ScheduleConfig row, replacing any existing
// one. Callers are responsible for the regeneration cascade (TimeSlots,
// Version deletion) that must accompany a mutation.
func (r *ScheduleConfigRepository) Upsert(ctx context.Context, cfg *models.ScheduleConfig) error {
	breaksJSON, err := json.Marshal(cfg.Breaks)
	if err != nil {
		return fmt.Errorf("encode breaks: %w", err)
	}
	now := time.Now().UTC()
	cfg.UpdatedAt = now
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = now
	}

	const query = `INSERT INTO schedule_config (id, day_start_time, day_end_time, working_minutes_per_day, number_of_periods, period_duration_minutes, breaks, lunch_break_start, lunch_break_end, schedule_days, created_at, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			day_start_time = EXCLUDED.day_start_time,
			day_end_time = EXCLUDED.day_end_time,
			working_minutes_per_day = EXCLUDED.working_minutes_per_day,
			number_of_periods = EXCLUDED.number_of_periods,
			period_duration_minutes = EXCLUDED.period_duration_minutes,
			breaks = EXCLUDED.breaks,
			lunch_break_start = EXCLUDED.lunch_break_start,
			lunch_break_end = EXCLUDED.lunch_break_end,
			schedule_days = EXCLUDED.schedule_days,
			updated_at = EXCLUDED.updated_at
		RETURNING id`
	row := r.db.QueryRowContext(ctx, query,
		cfg.DayStartTime, cfg.DayEndTime, cfg.WorkingMinutesPerDay, cfg.NumberOfPeriods,
		cfg.PeriodDurationMinutes, breaksJSON, cfg.LunchBreakStart, cfg.LunchBreakEnd,
		cfg.ScheduleDays, cfg.CreatedAt, cfg.UpdatedAt)
	if err := row.Scan(&cfg.ID); err != nil {
		return fmt.Errorf("upsert schedule config: %w", err)
	}
	return nil
}

// ReplaceTimeSlots regenerates the time_slots table from scratch: it
// deletes every existing row and inserts the given slots in a transaction
// of its own, separate from the ScheduleConfig write.
func (r *ScheduleConfigRepository) ReplaceTimeSlots(ctx context.Context, slots []models.TimeSlot) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace time slots: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM time_slots`); err != nil {
		return fmt.Errorf("clear time slots: %w", err)
	}

	const insert = `INSERT INTO time_slots (day, period, start_time, end_time, is_break) VALUES (:day, :period, :start_time, :end_time, :is_break)`
	for i := range slots {
		if _, err = sqlx.NamedExecContext(ctx, tx, insert, &slots[i]); err != nil {
			return fmt.Errorf("insert time slot: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace time slots: %w", err)
	}
	return nil
}
