package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config aggregates every configuration block the service needs at boot.
type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Log       LogConfig
	Solver    SolverConfig
	Weights   WeightsConfig
	Scheduler SchedulerConfig
	Defaults  ScheduleDefaultsConfig
	APIKey    APIKeyConfig
	Export    ExportConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SolverConfig parameterizes the CSP and GA back-ends.
type SolverConfig struct {
	CSPTimeout     time.Duration
	GAPopSize      int
	GAGenerations  int
	GAMutationRate float64
	GARandomSeed   int64
}

// WeightsConfig exposes the soft-constraint and substitute-scoring weights
// as configuration. The source hardcodes these (a WEIGHTS dict and inline
// constants) without wiring them to any config mechanism; here they're
// promoted to env-tunable values using the source's numbers as defaults.
type WeightsConfig struct {
	GapPenalty         float64
	BalancePenalty     float64
	ConsecutivePenalty float64

	SubWeightAvailability       float64
	SubWeightSubject            float64
	SubWeightWorkload           float64
	SubDefaultMaxHoursThreshold int
}

// SchedulerConfig toggles the constraint-based generation feature and
// tunes its active-Version read cache.
type SchedulerConfig struct {
	Enabled         bool
	VersionCacheTTL time.Duration
}

// ScheduleDefaultsConfig holds default values for the recognized schedule
// options, loaded from the environment. Nothing at boot reads it: no
// ScheduleConfig row is seeded from these values.
type ScheduleDefaultsConfig struct {
	DayStartTime          string
	NumberOfPeriods       int
	PeriodDurationMinutes int
	LunchBreakStart       string
	LunchBreakEnd         string
	ScheduleDays          []string
}

// APIKeyConfig gates mutating routes with a single shared secret header,
// a lightweight stand-in for the excluded auth domain.
type APIKeyConfig struct {
	Enabled bool
	Header  string
	Value   string
}

// ExportConfig tunes where archived analytics exports are persisted and
// how long their signed download links remain valid.
type ExportConfig struct {
	StorageDir  string
	SigningKey  string
	DownloadTTL time.Duration
	CleanupTTL  time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Solver = SolverConfig{
		CSPTimeout:     parseDuration(v.GetString("SOLVER_CSP_TIMEOUT"), 60*time.Second),
		GAPopSize:      v.GetInt("SOLVER_GA_POP_SIZE"),
		GAGenerations:  v.GetInt("SOLVER_GA_GENERATIONS"),
		GAMutationRate: v.GetFloat64("SOLVER_GA_MUTATION_RATE"),
		GARandomSeed:   v.GetInt64("SOLVER_GA_RANDOM_SEED"),
	}

	cfg.Weights = WeightsConfig{
		GapPenalty:                  v.GetFloat64("WEIGHT_GAP_PENALTY"),
		BalancePenalty:              v.GetFloat64("WEIGHT_BALANCE_PENALTY"),
		ConsecutivePenalty:          v.GetFloat64("WEIGHT_CONSECUTIVE_PENALTY"),
		SubWeightAvailability:       v.GetFloat64("WEIGHT_SUB_AVAILABILITY"),
		SubWeightSubject:            v.GetFloat64("WEIGHT_SUB_SUBJECT"),
		SubWeightWorkload:           v.GetFloat64("WEIGHT_SUB_WORKLOAD"),
		SubDefaultMaxHoursThreshold: v.GetInt("SUB_DEFAULT_MAX_HOURS_THRESHOLD"),
	}

	cfg.Scheduler = SchedulerConfig{
		Enabled:         v.GetBool("ENABLE_SCHEDULER"),
		VersionCacheTTL: parseDuration(v.GetString("SCHEDULER_VERSION_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Defaults = ScheduleDefaultsConfig{
		DayStartTime:          v.GetString("SCHEDULE_DAY_START_TIME"),
		NumberOfPeriods:       v.GetInt("SCHEDULE_NUMBER_OF_PERIODS"),
		PeriodDurationMinutes: v.GetInt("SCHEDULE_PERIOD_DURATION_MINUTES"),
		LunchBreakStart:       v.GetString("SCHEDULE_LUNCH_BREAK_START"),
		LunchBreakEnd:         v.GetString("SCHEDULE_LUNCH_BREAK_END"),
		ScheduleDays:          splitAndTrim(v.GetString("SCHEDULE_DAYS")),
	}

	cfg.APIKey = APIKeyConfig{
		Enabled: v.GetBool("ENABLE_API_KEY"),
		Header:  v.GetString("API_KEY_HEADER"),
		Value:   v.GetString("API_KEY_VALUE"),
	}

	cfg.Export = ExportConfig{
		StorageDir:  v.GetString("EXPORT_STORAGE_DIR"),
		SigningKey:  v.GetString("EXPORT_SIGNING_KEY"),
		DownloadTTL: parseDuration(v.GetString("EXPORT_DOWNLOAD_TTL"), 24*time.Hour),
		CleanupTTL:  parseDuration(v.GetString("EXPORT_CLEANUP_TTL"), 7*24*time.Hour),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "timetable")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SOLVER_CSP_TIMEOUT", "60s")
	v.SetDefault("SOLVER_GA_POP_SIZE", 50)
	v.SetDefault("SOLVER_GA_GENERATIONS", 100)
	v.SetDefault("SOLVER_GA_MUTATION_RATE", 0.1)
	v.SetDefault("SOLVER_GA_RANDOM_SEED", 1)

	v.SetDefault("WEIGHT_GAP_PENALTY", 10.0)
	v.SetDefault("WEIGHT_BALANCE_PENALTY", 5.0)
	v.SetDefault("WEIGHT_CONSECUTIVE_PENALTY", 8.0)
	v.SetDefault("WEIGHT_SUB_AVAILABILITY", 100.0)
	v.SetDefault("WEIGHT_SUB_SUBJECT", 80.0)
	v.SetDefault("WEIGHT_SUB_WORKLOAD", 50.0)
	v.SetDefault("SUB_DEFAULT_MAX_HOURS_THRESHOLD", 18)

	v.SetDefault("ENABLE_SCHEDULER", true)
	v.SetDefault("SCHEDULER_VERSION_CACHE_TTL", "5m")

	v.SetDefault("SCHEDULE_DAY_START_TIME", "09:00")
	v.SetDefault("SCHEDULE_NUMBER_OF_PERIODS", 8)
	v.SetDefault("SCHEDULE_PERIOD_DURATION_MINUTES", 45)
	v.SetDefault("SCHEDULE_LUNCH_BREAK_START", "12:30")
	v.SetDefault("SCHEDULE_LUNCH_BREAK_END", "13:15")
	v.SetDefault("SCHEDULE_DAYS", "monday,tuesday,wednesday,thursday,friday")

	v.SetDefault("ENABLE_API_KEY", false)
	v.SetDefault("API_KEY_HEADER", "X-API-Key")
	v.SetDefault("API_KEY_VALUE", "")

	v.SetDefault("EXPORT_STORAGE_DIR", "./exports")
	v.SetDefault("EXPORT_SIGNING_KEY", "")
	v.SetDefault("EXPORT_DOWNLOAD_TTL", "24h")
	v.SetDefault("EXPORT_CLEANUP_TTL", "168h")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
