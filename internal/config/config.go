package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration
	RequestTimeout     time.Duration
	LogLevel           string

	AllowedRoots []string
	BackupDir    string
	OrganizeRoot string

	ClassifierRulesFile    string
	ClassifierExcerptBytes int

	WatchDir             string
	WatchOrganizationDir string
	WatchSettleDelay     time.Duration

	AuditLogFile string
	DatabaseURL  string
	DBMaxConns   int32
	DBMinConns   int32

	AuthSecret   string
	AuthTokenTTL time.Duration

	CORSOrigins    []string
	RateLimitRPM   int
	MetricsEnabled bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		ServerReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 15*time.Second),
		ServerWriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
		ServerIdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		RequestTimeout:     getDuration("REQUEST_TIMEOUT", 60*time.Second),
		LogLevel:           getEnv("LOG_LEVEL", "info"),

		AllowedRoots: splitCSV(getEnv("ALLOWED_ROOTS", ".")),
		BackupDir:    getEnv("BACKUP_DIR", defaultBackupDir()),
		OrganizeRoot: strings.TrimSpace(os.Getenv("ORGANIZE_ROOT")),

		ClassifierRulesFile:    strings.TrimSpace(os.Getenv("CLASSIFIER_RULES_FILE")),
		ClassifierExcerptBytes: getInt("CLASSIFIER_EXCERPT_BYTES", 64<<10),

		WatchDir:             strings.TrimSpace(os.Getenv("WATCH_DIR")),
		WatchOrganizationDir: strings.TrimSpace(os.Getenv("WATCH_ORGANIZATION_DIR")),
		WatchSettleDelay:     getDuration("WATCH_SETTLE_DELAY", time.Second),

		AuditLogFile: getEnv("AUDIT_LOG_FILE", "./state/audit.log"),
		DatabaseURL:  strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:   int32(getInt("DB_MAX_CONNS", 10)),
		DBMinConns:   int32(getInt("DB_MIN_CONNS", 1)),

		AuthSecret:   strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		AuthTokenTTL: getDuration("AUTH_TOKEN_TTL", 12*time.Hour),

		CORSOrigins:    splitCSV(getEnv("CORS_ORIGINS", "*")),
		RateLimitRPM:   getInt("RATE_LIMIT_RPM", 120),
		MetricsEnabled: getBool("METRICS_ENABLED", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT cannot be empty")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	if len(c.AllowedRoots) == 0 {
		return fmt.Errorf("ALLOWED_ROOTS must name at least one directory")
	}

	if strings.TrimSpace(c.BackupDir) == "" {
		return fmt.Errorf("BACKUP_DIR cannot be empty")
	}

	if c.ClassifierExcerptBytes <= 0 {
		return fmt.Errorf("CLASSIFIER_EXCERPT_BYTES must be positive")
	}

	if c.WatchSettleDelay < 0 {
		return fmt.Errorf("WATCH_SETTLE_DELAY cannot be negative")
	}

	if (c.WatchDir == "") != (c.WatchOrganizationDir == "") {
		return fmt.Errorf("WATCH_DIR and WATCH_ORGANIZATION_DIR must be set together")
	}

	if strings.TrimSpace(c.AuditLogFile) == "" && c.DatabaseURL == "" {
		return fmt.Errorf("AUDIT_LOG_FILE cannot be empty without DATABASE_URL")
	}

	if c.DBMinConns < 0 || c.DBMaxConns < 1 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS/DB_MAX_CONNS out of range")
	}

	if c.AuthSecret != "" && len(c.AuthSecret) < 16 {
		return fmt.Errorf("AUTH_SECRET must be at least 16 bytes")
	}

	if c.AuthTokenTTL <= 0 {
		return fmt.Errorf("AUTH_TOKEN_TTL must be positive")
	}

	if c.RateLimitRPM < 0 {
		return fmt.Errorf("RATE_LIMIT_RPM cannot be negative")
	}

	return nil
}

// AuthEnabled reports whether mutating routes require a bearer token.
func (c *Config) AuthEnabled() bool {
	return c.AuthSecret != ""
}

func defaultBackupDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "./state/backups"
	}
	return filepath.Join(home, ".file_organizer_backups")
}

func getEnv(key string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	return v
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return v
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}
