package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all service configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Storage  StorageConfig
	JWT      JWTConfig
	Import   ImportConfig
	Health   HealthConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	DevTokens    bool
	CORSOrigins  []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
}

// StorageConfig selects the scan store: "postgres" or "sqlite".
type StorageConfig struct {
	Driver     string
	SQLitePath string
}

type JWTConfig struct {
	Secret      string
	Issuer      string
	ExpiryHours int
}

type ImportConfig struct {
	MaxFileSize    int64 // bytes
	BatchSize      int
	IdempotencyTTL time.Duration
}

// HealthConfig controls where thresholds come from and how reports are cached.
type HealthConfig struct {
	ThresholdsPath  string
	ThresholdSource string // "file" or "database"
	Watch           bool
	ReportCacheTTL  time.Duration
	CacheCleanup    time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.dev_tokens", true)
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.user", "crophealth")
	v.SetDefault("db.password", "crophealth_dev_password")
	v.SetDefault("db.name", "crophealth")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_conns", 20)

	v.SetDefault("storage.driver", "postgres")
	v.SetDefault("storage.sqlite_path", "data/fasalvaidya.db")

	v.SetDefault("jwt.secret", "dev-secret-change-in-production")
	v.SetDefault("jwt.issuer", "fasalvaidya")
	v.SetDefault("jwt.expiry_hours", 24)

	v.SetDefault("import.max_size_mb", 20)
	v.SetDefault("import.batch_size", 500)
	v.SetDefault("import.idempotency_ttl", 24*time.Hour)

	v.SetDefault("health.thresholds_path", "config/health_thresholds.json")
	v.SetDefault("health.threshold_source", "file")
	v.SetDefault("health.watch", true)
	v.SetDefault("health.report_cache_ttl", 5*time.Minute)
	v.SetDefault("health.cache_cleanup", 10*time.Minute)
}

// Load reads configuration from environment variables and an optional
// config.yaml in the working directory or /etc/crop-health. CROP_HEALTH_CONFIG
// names an explicit file instead. A broken config file is logged and ignored.
func Load() *Config {
	v := viper.New()
	if path := os.Getenv("CROP_HEALTH_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/crop-health")
	}

	cfg, err := LoadFrom(v)
	if err != nil {
		slog.Warn("config file ignored", "error", err)
		cfg, _ = LoadFrom(viper.New())
	}
	return cfg
}

// LoadFrom fills a Config from v after applying defaults. Every key can be
// overridden from the environment with dots replaced by underscores, so
// db.host is read from DB_HOST.
func LoadFrom(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("server.port"),
			ReadTimeout:  v.GetDuration("server.read_timeout"),
			WriteTimeout: v.GetDuration("server.write_timeout"),
			DevTokens:    v.GetBool("server.dev_tokens"),
			CORSOrigins:  splitList(v.GetStringSlice("server.cors_origins")),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("db.host"),
			Port:     v.GetString("db.port"),
			User:     v.GetString("db.user"),
			Password: v.GetString("db.password"),
			DBName:   v.GetString("db.name"),
			SSLMode:  v.GetString("db.sslmode"),
			MaxConns: v.GetInt("db.max_conns"),
		},
		Storage: StorageConfig{
			Driver:     strings.ToLower(v.GetString("storage.driver")),
			SQLitePath: v.GetString("storage.sqlite_path"),
		},
		JWT: JWTConfig{
			Secret:      v.GetString("jwt.secret"),
			Issuer:      v.GetString("jwt.issuer"),
			ExpiryHours: v.GetInt("jwt.expiry_hours"),
		},
		Import: ImportConfig{
			MaxFileSize:    v.GetInt64("import.max_size_mb") * 1024 * 1024,
			BatchSize:      v.GetInt("import.batch_size"),
			IdempotencyTTL: v.GetDuration("import.idempotency_ttl"),
		},
		Health: HealthConfig{
			ThresholdsPath:  v.GetString("health.thresholds_path"),
			ThresholdSource: strings.ToLower(v.GetString("health.threshold_source")),
			Watch:           v.GetBool("health.watch"),
			ReportCacheTTL:  v.GetDuration("health.report_cache_ttl"),
			CacheCleanup:    v.GetDuration("health.cache_cleanup"),
		},
	}
	return cfg, nil
}

// DSN returns the Postgres connection string.
func (d *DatabaseConfig) DSN() string {
	return "postgres://" + d.User + ":" + d.Password +
		"@" + d.Host + ":" + d.Port +
		"/" + d.DBName + "?sslmode=" + d.SSLMode
}

// UsesSQLite reports whether scans are read from the legacy SQLite file.
func (s StorageConfig) UsesSQLite() bool {
	return s.Driver == "sqlite" || s.Driver == "sqlite3"
}

// splitList flattens comma-separated entries, so SERVER_CORS_ORIGINS accepts
// "https://a.example,https://b.example" as well as space-separated values.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
