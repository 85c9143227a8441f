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

// Ledger store drivers.
const (
	LedgerDriverMemory   = "memory"
	LedgerDriverRedis    = "redis"
	LedgerDriverPostgres = "postgres"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Ledger   LedgerConfig
	Imports  ImportsConfig
	Exports  ExportsConfig
	Analysis AnalysisConfig
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

// JWTConfig holds the shared secret used to verify tokens issued by the identity provider.
type JWTConfig struct {
	Secret string
	Issuer string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// LedgerConfig selects the ledger backend and the grading policies per call path.
type LedgerConfig struct {
	Driver       string
	UploadPolicy string
	DirectPolicy string
	MergeKey     string
}

// ImportsConfig governs spreadsheet uploads.
type ImportsConfig struct {
	MaxFileSizeBytes  int64
	StorageDir        string
	AsyncEnabled      bool
	WorkerConcurrency int
	WorkerRetries     int
}

// ExportsConfig controls rendered ledger exports and their download links.
type ExportsConfig struct {
	StorageDir      string
	SignedURLSecret string
	SignedURLTTL    time.Duration
	CleanupInterval time.Duration
}

// AnalysisConfig governs caching of semester analysis payloads.
type AnalysisConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
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
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
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
		Secret: v.GetString("JWT_SECRET"),
		Issuer: v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Ledger = LedgerConfig{
		Driver:       strings.ToLower(v.GetString("LEDGER_DRIVER")),
		UploadPolicy: strings.ToUpper(v.GetString("GRADE_POLICY_UPLOAD")),
		DirectPolicy: strings.ToUpper(v.GetString("GRADE_POLICY_DIRECT")),
		MergeKey:     strings.ToLower(v.GetString("LEDGER_MERGE_KEY")),
	}

	maxUpload := v.GetInt64("IMPORTS_MAX_FILE_SIZE")
	if maxUpload <= 0 {
		maxUpload = 5 * 1024 * 1024
	}
	cfg.Imports = ImportsConfig{
		MaxFileSizeBytes:  maxUpload,
		StorageDir:        v.GetString("IMPORTS_STORAGE_DIR"),
		AsyncEnabled:      v.GetBool("ENABLE_ASYNC_IMPORTS"),
		WorkerConcurrency: v.GetInt("IMPORTS_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("IMPORTS_WORKER_RETRIES"),
	}

	cfg.Exports = ExportsConfig{
		StorageDir:      v.GetString("EXPORTS_STORAGE_DIR"),
		SignedURLSecret: v.GetString("EXPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("EXPORTS_SIGNED_URL_TTL"), 30*time.Minute),
		CleanupInterval: parseDuration(v.GetString("EXPORTS_CLEANUP_INTERVAL"), time.Hour),
	}

	cfg.Analysis = AnalysisConfig{
		CacheEnabled: v.GetBool("ENABLE_ANALYSIS_CACHE"),
		CacheTTL:     parseDuration(v.GetString("ANALYSIS_CACHE_TTL"), 5*time.Minute),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "academic_portal")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("LEDGER_DRIVER", LedgerDriverMemory)
	v.SetDefault("GRADE_POLICY_UPLOAD", "B")
	v.SetDefault("GRADE_POLICY_DIRECT", "A")
	v.SetDefault("LEDGER_MERGE_KEY", "course_name")

	v.SetDefault("IMPORTS_MAX_FILE_SIZE", 5*1024*1024)
	v.SetDefault("IMPORTS_STORAGE_DIR", "./uploads")
	v.SetDefault("ENABLE_ASYNC_IMPORTS", false)
	v.SetDefault("IMPORTS_WORKER_CONCURRENCY", 1)
	v.SetDefault("IMPORTS_WORKER_RETRIES", 1)

	v.SetDefault("EXPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("EXPORTS_SIGNED_URL_SECRET", "dev_exports_secret")
	v.SetDefault("EXPORTS_SIGNED_URL_TTL", "30m")
	v.SetDefault("EXPORTS_CLEANUP_INTERVAL", "1h")

	v.SetDefault("ENABLE_ANALYSIS_CACHE", false)
	v.SetDefault("ANALYSIS_CACHE_TTL", "5m")
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
