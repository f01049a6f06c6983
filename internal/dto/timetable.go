package dto

// GenerateRequest instructs ScheduleBuilder to solve a fresh Version.
type GenerateRequest struct {
	Name      string `json:"name" validate:"required"`
	Algorithm string `json:"algorithm" validate:"required,oneof=csp genetic"`
	Async     bool   `json:"async"`
}

// GenerateResponse reports the outcome of a (possibly still-running) solve.
type GenerateResponse struct {
	VersionID    int64    `json:"version_id"`
	Status       string   `json:"status"`
	IsValid      bool     `json:"is_valid"`
	FitnessScore *float64 `json:"fitness_score,omitempty"`
	EntryCount   int      `json:"entry_count"`
	Message      string   `json:"message,omitempty"`
}

// AutoAssignRequest captures an absent teacher's details for the day.
type AutoAssignRequest struct {
	TeacherID  int64  `json:"teacher_id" validate:"required"`
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
	AutoNotify bool   `json:"auto_notify"`
}

// RankedSuggestionsQuery asks for ranked substitute candidates for one entry.
type RankedSuggestionsQuery struct {
	EntryID int64 `form:"entry_id" validate:"required"`
	TopN    int   `form:"top_n" validate:"omitempty,min=1,max=50"`
}

// AssignSubstituteRequest manually assigns a substitute to one entry/date.
type AssignSubstituteRequest struct {
	EntryID             int64  `json:"entry_id" validate:"required"`
	Date                string `json:"date" validate:"required,datetime=2006-01-02"`
	OriginalTeacherID   int64  `json:"original_teacher_id" validate:"required"`
	SubstituteTeacherID int64  `json:"substitute_teacher_id" validate:"required"`
}

// CancelClassRequest marks a class cancelled for a date instead of substituted.
type CancelClassRequest struct {
	EntryID           int64  `json:"entry_id" validate:"required"`
	Date              string `json:"date" validate:"required,datetime=2006-01-02"`
	OriginalTeacherID int64  `json:"original_teacher_id" validate:"required"`
	Reason            string `json:"reason"`
}

// ScheduleBreakInput is one configured break within the working day.
type ScheduleBreakInput struct {
	Position        int    `json:"position" validate:"required,min=1"`
	StartTime       string `json:"start_time" validate:"required"`
	DurationMinutes int    `json:"duration_minutes" validate:"required,min=1"`
}

// ScheduleConfigRequest mutates the global schedule configuration.
type ScheduleConfigRequest struct {
	DayStartTime          string               `json:"day_start_time" validate:"required"`
	DayEndTime            string               `json:"day_end_time" validate:"required"`
	NumberOfPeriods       int                  `json:"number_of_periods" validate:"required,min=1,max=20"`
	PeriodDurationMinutes int                  `json:"period_duration_minutes" validate:"required,min=1"`
	Breaks                []ScheduleBreakInput `json:"breaks"`
	LunchBreakStart       string               `json:"lunch_break_start" validate:"required"`
	LunchBreakEnd         string               `json:"lunch_break_end" validate:"required"`
	ScheduleDays          []string             `json:"schedule_days" validate:"required,min=1,dive,oneof=monday tuesday wednesday thursday friday saturday sunday"`
}

// AnalyticsQuery selects which Version to report on.
type AnalyticsQuery struct {
	VersionID int64 `form:"version_id" validate:"omitempty"`
}
