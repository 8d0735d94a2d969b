package config

import (
	"errors"
	"io/fs"
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

	Upstream      UpstreamConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Residents     ResidentCacheConfig
	Audit         AuditConfig
	Notifications NotificationConfig
}

// UpstreamConfig locates the two backend services the console talks to.
type UpstreamConfig struct {
	CampusURL  string
	StudentURL string
	Timeout    time.Duration
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

// JWTConfig controls how upstream-issued tokens are inspected.
type JWTConfig struct {
	Secret          string
	VerifySignature bool
	AdminMarkers    []string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ResidentCacheConfig tunes the read-through resident directory cache.
type ResidentCacheConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// AuditConfig toggles the materialization audit trail.
type AuditConfig struct {
	Enabled bool
}

// NotificationConfig configures absence notification delivery.
type NotificationConfig struct {
	DeliveryDelay time.Duration
	Workers       int
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
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Upstream = UpstreamConfig{
		CampusURL:  strings.TrimRight(v.GetString("CAMPUS_SERVICE_URL"), "/"),
		StudentURL: strings.TrimRight(v.GetString("STUDENT_SERVICE_URL"), "/"),
		Timeout:    parseDuration(v.GetString("UPSTREAM_TIMEOUT"), 15*time.Second),
	}

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

	cfg.JWT = JWTConfig{
		Secret:          v.GetString("JWT_SECRET"),
		VerifySignature: v.GetBool("JWT_VERIFY_SIGNATURE"),
		AdminMarkers:    splitAndTrim(v.GetString("ADMIN_ROLE_MARKERS")),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Residents = ResidentCacheConfig{
		CacheEnabled: v.GetBool("ENABLE_RESIDENT_CACHE"),
		CacheTTL:     parseDuration(v.GetString("RESIDENT_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Audit = AuditConfig{
		Enabled: v.GetBool("ENABLE_MATERIALIZATION_AUDIT"),
	}

	workers := v.GetInt("NOTIFY_WORKERS")
	if workers <= 0 {
		workers = 2
	}
	cfg.Notifications = NotificationConfig{
		DeliveryDelay: parseDuration(v.GetString("NOTIFY_DELIVERY_DELAY"), 2*time.Second),
		Workers:       workers,
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("CAMPUS_SERVICE_URL", "http://localhost:8081")
	v.SetDefault("STUDENT_SERVICE_URL", "http://localhost:8082")
	v.SetDefault("UPSTREAM_TIMEOUT", "15s")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "hostel_console")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 5)
	v.SetDefault("DB_MAX_IDLE_CONNS", 2)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_VERIFY_SIGNATURE", false)
	v.SetDefault("ADMIN_ROLE_MARKERS", "ADMIN,ROLE_ADMIN")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_RESIDENT_CACHE", false)
	v.SetDefault("RESIDENT_CACHE_TTL", "5m")
	v.SetDefault("ENABLE_MATERIALIZATION_AUDIT", false)

	v.SetDefault("NOTIFY_DELIVERY_DELAY", "2s")
	v.SetDefault("NOTIFY_WORKERS", 2)
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
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
