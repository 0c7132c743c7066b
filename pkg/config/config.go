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

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database    DatabaseConfig
	Redis       RedisConfig
	Admin       AdminConfig
	CORS        CORSConfig
	Log         LogConfig
	Carbon      CarbonConfig
	Leaderboard LeaderboardConfig
	Dashboard   DashboardConfig
	Reports     ReportsConfig
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
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// AdminConfig holds the shared admin credential and session settings.
// Either Password (plaintext) or PasswordBcrypt (pre-hashed) must be set;
// the hashed form wins when both are present.
type AdminConfig struct {
	Password       string
	PasswordBcrypt string
	JWTSecret      string
	SessionTTL     time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CarbonConfig tunes estimation, scoring and equivalence conversions.
type CarbonConfig struct {
	ScoringPolicy        string
	AllowUnknownCategory bool
	TreeYearsKg          float64
	CarKmKg              float64
	EnergyKwhKg          float64
}

// LeaderboardConfig controls ranking direction and cache tuning.
type LeaderboardConfig struct {
	Order    string
	CacheTTL time.Duration
}

// DashboardConfig governs dashboard cache tuning.
type DashboardConfig struct {
	CacheTTL time.Duration
}

// ReportsConfig configures asynchronous ledger exports.
type ReportsConfig struct {
	StorageDir        string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
	CleanupInterval   time.Duration
	WorkerConcurrency int
	WorkerRetries     int
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
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Admin = AdminConfig{
		Password:       v.GetString("ADMIN_PASSWORD"),
		PasswordBcrypt: v.GetString("ADMIN_PASSWORD_BCRYPT"),
		JWTSecret:      v.GetString("ADMIN_JWT_SECRET"),
		SessionTTL:     parseDuration(v.GetString("ADMIN_SESSION_TTL"), 8*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Carbon = CarbonConfig{
		ScoringPolicy:        v.GetString("SCORING_POLICY"),
		AllowUnknownCategory: v.GetBool("CARBON_ALLOW_UNKNOWN_CATEGORY"),
		TreeYearsKg:          v.GetFloat64("EQUIV_TREE_YEARS_KG"),
		CarKmKg:              v.GetFloat64("EQUIV_CAR_KM_KG"),
		EnergyKwhKg:          v.GetFloat64("EQUIV_ENERGY_KWH_KG"),
	}

	cfg.Leaderboard = LeaderboardConfig{
		Order:    v.GetString("LEADERBOARD_ORDER"),
		CacheTTL: parseDuration(v.GetString("LEADERBOARD_CACHE_TTL"), 2*time.Minute),
	}

	cfg.Dashboard = DashboardConfig{
		CacheTTL: parseDuration(v.GetString("DASHBOARD_CACHE_TTL"), 2*time.Minute),
	}

	cfg.Reports = ReportsConfig{
		StorageDir:        v.GetString("REPORTS_STORAGE_DIR"),
		SignedURLSecret:   v.GetString("REPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:      parseDuration(v.GetString("REPORTS_SIGNED_URL_TTL"), 24*time.Hour),
		CleanupInterval:   parseDuration(v.GetString("REPORTS_CLEANUP_INTERVAL"), time.Hour),
		WorkerConcurrency: v.GetInt("REPORTS_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("REPORTS_WORKER_RETRIES"),
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
	v.SetDefault("DB_NAME", "ecoschool")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ADMIN_PASSWORD", "schooladmin")
	v.SetDefault("ADMIN_PASSWORD_BCRYPT", "")
	v.SetDefault("ADMIN_JWT_SECRET", "dev_secret")
	v.SetDefault("ADMIN_SESSION_TTL", "8h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SCORING_POLICY", "reduction")
	v.SetDefault("CARBON_ALLOW_UNKNOWN_CATEGORY", true)
	v.SetDefault("EQUIV_TREE_YEARS_KG", 21.77)
	v.SetDefault("EQUIV_CAR_KM_KG", 0.21)
	v.SetDefault("EQUIV_ENERGY_KWH_KG", 0.82)

	v.SetDefault("LEADERBOARD_ORDER", "asc")
	v.SetDefault("LEADERBOARD_CACHE_TTL", "2m")
	v.SetDefault("DASHBOARD_CACHE_TTL", "2m")

	v.SetDefault("REPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("REPORTS_SIGNED_URL_SECRET", "dev_reports_secret")
	v.SetDefault("REPORTS_SIGNED_URL_TTL", "24h")
	v.SetDefault("REPORTS_CLEANUP_INTERVAL", "1h")
	v.SetDefault("REPORTS_WORKER_CONCURRENCY", 1)
	v.SetDefault("REPORTS_WORKER_RETRIES", 3)
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
