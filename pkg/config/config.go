package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database (traceability mart)
	Database DatabaseConfig

	// Source databases. Both default to the mart URL when unset.
	SourceDatabaseURL string // domestic fund registry (funds_*)
	MasterDatabaseURL string // master security feed (ft_*)

	// Redis
	Redis RedisConfig

	// FX feed (upstream refresh of the rate table)
	FX FXConfig

	// Engine
	Engine EngineConfig

	// Schedule
	Schedule ScheduleConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	URL      string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// BuildURL assembles a postgresql:// URL from the individual DB_* values
func (d DatabaseConfig) BuildURL() string {
	u := url.URL{
		Scheme: "postgresql",
		Host:   net.JoinHostPort(d.Host, d.Port),
		Path:   "/" + d.Name,
	}
	if d.Password != "" {
		u.User = url.UserPassword(d.User, d.Password)
	} else if d.User != "" {
		u.User = url.User(d.User)
	}
	return u.String()
}

// FXConfig holds the remote FX provider configuration
type FXConfig struct {
	APIURL        string
	Symbols       []string
	Table         string
	StaleMaxDays  int
	RatePerSecond float64
}

// EngineConfig holds overrides for the exposure engine.
// ConfigPath points at the YAML engine config; TopN and BaseCurrency win over it when set.
type EngineConfig struct {
	ConfigPath   string
	TopN         int
	BaseCurrency string
}

// ScheduleConfig holds cron expressions (with seconds field)
type ScheduleConfig struct {
	Build   string
	FXFetch string
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	db := DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnv("DB_PORT", "5432"),
		Name:            getEnv("DB_NAME", "fund_traceability"),
		User:            getEnv("DB_USER", "fundtrace"),
		Password:        getEnv("DB_PASSWORD", ""),
		URL:             getEnv("DATABASE_URL", ""),
		MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
		MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
		MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
		MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
	}
	// DATABASE_URL 이 없고 DB_HOST 가 명시되면 개별 값으로 조립
	if db.URL == "" && os.Getenv("DB_HOST") != "" {
		db.URL = db.BuildURL()
	}
	dbURL := db.URL

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: db,

		SourceDatabaseURL: getEnv("SOURCE_DATABASE_URL", dbURL),
		MasterDatabaseURL: getEnv("MASTER_DATABASE_URL", dbURL),

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		FX: FXConfig{
			APIURL:        getEnv("FX_API_URL", "https://open.er-api.com/v6/latest/USD"),
			Symbols:       getEnvAsList("FX_SYMBOLS", "THB,USD,EUR,JPY,GBP,CHF,AUD,CAD,CNY,HKD,SGD"),
			Table:         getEnv("FX_TABLE", ""), // 비어 있으면 엔진 설정의 fx_table 사용
			StaleMaxDays:  getEnvAsInt("FX_STALE_MAX_DAYS", 3),
			RatePerSecond: getEnvAsFloat("FX_RATE_PER_SECOND", 1),
		},

		Engine: EngineConfig{
			ConfigPath:   getEnv("TRACE_CONFIG", ""),
			TopN:         getEnvAsInt("TOP_N", 0),
			BaseCurrency: strings.ToUpper(strings.TrimSpace(getEnv("BASE_CURRENCY", ""))),
		},

		Schedule: ScheduleConfig{
			Build:   getEnv("BUILD_SCHEDULE", "0 0 */6 * * *"),
			FXFetch: getEnv("FX_SCHEDULE", "0 30 5 * * *"),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	// Database URL is required
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL (or DB_HOST) is required")
	}

	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Engine.TopN < 0 {
		return fmt.Errorf("TOP_N must be >= 0")
	}

	if c.FX.StaleMaxDays < 0 {
		return fmt.Errorf("FX_STALE_MAX_DAYS must be >= 0")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env", // Current directory
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

// getEnvAsList splits a comma separated value, uppercasing and dropping blanks
func getEnvAsList(key string, defaultValue string) []string {
	raw := getEnv(key, defaultValue)

	out := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToUpper(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
