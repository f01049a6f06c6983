package models

import "time"

// ScheduleBreak is one non-teaching interruption within the working day.
type ScheduleBreak struct {
	Position        int    `json:"position,omitempty"`
	StartTime       string `json:"start_time,omitempty"`
	DurationMinutes int    `json:"duration_minutes"`
}

// ScheduleConfig is the single global configuration record governing how
// TimeSlots are generated. Mutating it requires regenerating TimeSlots,
// deleting all existing Versions, and triggering a fresh solve.
type ScheduleConfig struct {
	ID                     int64           `db:"id" json:"id"`
	DayStartTime           string          `db:"day_start_time" json:"day_start_time"`
	DayEndTime             string          `db:"day_end_time" json:"day_end_time"`
	WorkingMinutesPerDay   int             `db:"working_minutes_per_day" json:"working_minutes_per_day"`
	NumberOfPeriods        int             `db:"number_of_periods" json:"number_of_periods"`
	PeriodDurationMinutes  int             `db:"period_duration_minutes" json:"period_duration_minutes"`
	Breaks                 []ScheduleBreak `db:"breaks" json:"breaks"`
	LunchBreakStart        string          `db:"lunch_break_start" json:"lunch_break_start,omitempty"`
	LunchBreakEnd          string          `db:"lunch_break_end" json:"lunch_break_end,omitempty"`
	ScheduleDays           StringSet       `db:"schedule_days" json:"schedule_days"`
	CreatedAt              time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time       `db:"updated_at" json:"updated_at"`
}

// BreaksColumn is a named slice of ScheduleBreak. Unlike Int64Set/StringSet
// it has no driver.Valuer/sql.Scanner methods; ScheduleConfigRepository
// encodes and decodes the breaks column as JSON itself.
type BreaksColumn []ScheduleBreak

// TeacherUtilization reports one teacher's assigned load for a Version.
type TeacherUtilization struct {
	TeacherID            int64   `json:"teacher_id"`
	TeacherName          string  `json:"teacher_name"`
	AssignedSlots        int     `json:"assigned_slots"`
	TotalSlots           int     `json:"total_slots"`
	UtilizationPercentage float64 `json:"utilization_percentage"`
}

// RoomUtilization reports one room's occupancy for a Version.
type RoomUtilization struct {
	RoomID               int64   `json:"room_id"`
	RoomName             string  `json:"room_name"`
	AssignedSlots        int     `json:"assigned_slots"`
	TotalSlots           int     `json:"total_slots"`
	UtilizationPercentage float64 `json:"utilization_percentage"`
}

// AnalyticsReport is the AnalyticsReporter output for one Version.
type AnalyticsReport struct {
	VersionID   int64                `json:"version_id"`
	Teachers    []TeacherUtilization `json:"teachers"`
	Rooms       []RoomUtilization    `json:"rooms"`
	Conflicts   []string             `json:"conflicts"`
	GeneratedAt time.Time            `json:"generated_at"`
}

// AnalyticsSystemMetrics is the process-level instrumentation snapshot
// exposed alongside the domain analytics report.
type AnalyticsSystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"average_db_query_duration_ms"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
