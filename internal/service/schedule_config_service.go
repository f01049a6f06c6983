package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-api/internal/models"
	appErrors "github.com/noah-isme/sma-adp-api/pkg/errors"
)

type scheduleConfigReader interface {
	Get(ctx context.Context) (*models.ScheduleConfig, error)
}

type scheduleConfigWriter interface {
	scheduleConfigReader
	Upsert(ctx context.Context, cfg *models.ScheduleConfig) error
	ReplaceTimeSlots(ctx context.Context, slots []models.TimeSlot) error
}

type versionDeleter interface {
	DeleteAll(ctx context.Context) error
}

// ScheduleConfigService reads the singleton ScheduleConfig and runs the
// mutation cascade a config change requires: persist the new config,
// regenerate time_slots from scratch, drop every existing Version (and
// with it, via FK cascade, every Entry and Substitution), then kick off
// a fresh solve in the background so the system is never left serving a
// schedule generated under stale time slots.
type ScheduleConfigService struct {
	config   scheduleConfigWriter
	versions versionDeleter
	builder  *ScheduleBuilder
	logger   *zap.Logger
}

// NewScheduleConfigService wires a ScheduleConfigService.
func NewScheduleConfigService(config scheduleConfigWriter, versions versionDeleter, builder *ScheduleBuilder, logger *zap.Logger) *ScheduleConfigService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleConfigService{config: config, versions: versions, builder: builder, logger: logger}
}

// Get returns the current ScheduleConfig, or nil if it hasn't been seeded.
func (s *ScheduleConfigService) Get(ctx context.Context) (*models.ScheduleConfig, error) {
	cfg, err := s.config.Get(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule configuration")
	}
	return cfg, nil
}

// Update validates the requested configuration, derives a fresh set of
// TimeSlots, persists both, discards every existing Version, and
// schedules a background regeneration with the CSP solver.
func (s *ScheduleConfigService) Update(ctx context.Context, cfg models.ScheduleConfig) (*models.ScheduleConfig, error) {
	slots, workingMinutes, err := generateTimeSlots(cfg)
	if err != nil {
		return nil, err
	}
	cfg.WorkingMinutesPerDay = workingMinutes

	if err := s.config.Upsert(ctx, &cfg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist schedule configuration")
	}
	if err := s.config.ReplaceTimeSlots(ctx, slots); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to regenerate time slots")
	}
	if err := s.versions.DeleteAll(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear existing versions")
	}

	if s.builder != nil {
		if err := s.builder.GenerateInBackground(ctx, "auto-regenerated after config change", models.SolverCSP); err != nil {
			s.logger.Sugar().Warnw("failed to enqueue regeneration after config change", "error", err)
		}
	}

	return &cfg, nil
}

// generateTimeSlots walks the configured working day, period by period,
// inserting the lunch break at its anchored clock time and any
// position-anchored breaks after the period they follow, for every
// configured schedule day. It rejects configurations that run past
// midnight or don't leave room for the configured breaks.
func generateTimeSlots(cfg models.ScheduleConfig) ([]models.TimeSlot, int, error) {
	dayStart, err := parseClock(cfg.DayStartTime)
	if err != nil {
		return nil, 0, appErrors.Clone(appErrors.ErrValidationUnprocessable, fmt.Sprintf("invalid day_start_time: %v", err))
	}
	dayEnd, err := parseClock(cfg.DayEndTime)
	if err != nil {
		return nil, 0, appErrors.Clone(appErrors.ErrValidationUnprocessable, fmt.Sprintf("invalid day_end_time: %v", err))
	}
	if dayEnd <= dayStart || dayEnd > 24*60 {
		return nil, 0, appErrors.Clone(appErrors.ErrValidationUnprocessable, "day_end_time must be after day_start_time and not extend past midnight")
	}
	if cfg.NumberOfPeriods <= 0 || cfg.PeriodDurationMinutes <= 0 {
		return nil, 0, appErrors.Clone(appErrors.ErrValidationUnprocessable, "number_of_periods and period_duration_minutes must both be positive")
	}

	var lunchStart, lunchEnd int
	hasLunch := cfg.LunchBreakStart != "" && cfg.LunchBreakEnd != ""
	if hasLunch {
		lunchStart, err = parseClock(cfg.LunchBreakStart)
		if err != nil {
			return nil, 0, appErrors.Clone(appErrors.ErrValidationUnprocessable, fmt.Sprintf("invalid lunch_break_start: %v", err))
		}
		lunchEnd, err = parseClock(cfg.LunchBreakEnd)
		if err != nil {
			return nil, 0, appErrors.Clone(appErrors.ErrValidationUnprocessable, fmt.Sprintf("invalid lunch_break_end: %v", err))
		}
		if lunchEnd <= lunchStart {
			return nil, 0, appErrors.Clone(appErrors.ErrValidationUnprocessable, "lunch_break_end must be after lunch_break_start")
		}
	}

	breaksByPosition := make(map[int]models.ScheduleBreak, len(cfg.Breaks))
	for _, b := range cfg.Breaks {
		if b.DurationMinutes <= 0 {
			return nil, 0, appErrors.Clone(appErrors.ErrValidationUnprocessable, "break duration_minutes must be positive")
		}
		breaksByPosition[b.Position] = b
	}

	days := make([]models.Weekday, 0, len(cfg.ScheduleDays))
	for _, d := range cfg.ScheduleDays {
		days = append(days, models.Weekday(d))
	}
	if len(days) == 0 {
		days = models.DefaultSchedulerDays
	}

	var slots []models.TimeSlot
	for _, day := range days {
		clock := dayStart
		lunchPlaced := !hasLunch
		for period := 1; period <= cfg.NumberOfPeriods; period++ {
			if !lunchPlaced && clock >= lunchStart {
				slots = append(slots, models.TimeSlot{
					Day:     day,
					Period:  0,
					Start:   formatClock(lunchStart),
					End:     formatClock(lunchEnd),
					IsBreak: true,
				})
				clock = lunchEnd
				lunchPlaced = true
			}

			periodEnd := clock + cfg.PeriodDurationMinutes
			if periodEnd > dayEnd {
				return nil, 0, appErrors.Clone(appErrors.ErrValidationUnprocessable, "configured periods and breaks do not fit within the working day")
			}
			slots = append(slots, models.TimeSlot{
				Day:     day,
				Period:  period,
				Start:   formatClock(clock),
				End:     formatClock(periodEnd),
				IsBreak: false,
			})
			clock = periodEnd

			if brk, ok := breaksByPosition[period]; ok {
				breakEnd := clock + brk.DurationMinutes
				if breakEnd > dayEnd {
					return nil, 0, appErrors.Clone(appErrors.ErrValidationUnprocessable, "configured periods and breaks do not fit within the working day")
				}
				slots = append(slots, models.TimeSlot{
					Day:     day,
					Period:  0,
					Start:   formatClock(clock),
					End:     formatClock(breakEnd),
					IsBreak: true,
				})
				clock = breakEnd
			}
		}
		if !lunchPlaced {
			return nil, 0, appErrors.Clone(appErrors.ErrValidationUnprocessable, "lunch break does not fall within the scheduled periods")
		}
	}

	return slots, dayEnd - dayStart, nil
}

func parseClock(value string) (int, error) {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("expected HH:MM, got %q", value)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 24 {
		return 0, fmt.Errorf("invalid hour in %q", value)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("invalid minute in %q", value)
	}
	return hours*60 + minutes, nil
}

func formatClock(totalMinutes int) string {
	return fmt.Sprintf("%02d:%02d", totalMinutes/60, totalMinutes%60)
}
