package config

import (
	"errors"
	"fmt"
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

// Storage drivers for complaint attachments.
const (
	StorageDriverLocal = "local"
	StorageDriverMinio = "minio"
)

// LLM providers for the captain assistant.
const (
	LLMProviderNone   = "none"
	LLMProviderGemini = "gemini"
	LLMProviderOpenAI = "openai"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Complaints    ComplaintsConfig
	Storage       StorageConfig
	Notifications NotificationsConfig
	Captain       CaptainConfig
	Metrics       MetricsConfig
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
	AutoMigrate  bool
}

// DSN renders the lib/pq connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Issuer            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ComplaintsConfig tunes the complaint module.
type ComplaintsConfig struct {
	CacheEnabled          bool
	StatsCacheTTL         time.Duration
	ReferenceMaxAttempts  int
	AttachmentMaxBytes    int64
	AttachmentAllowedMIME []string
	ExportMaxRows         int
}

// StorageConfig selects and configures the attachment backend.
type StorageConfig struct {
	Driver          string
	LocalDir        string
	SignedURLSecret string
	SignedURLTTL    time.Duration
	Minio           MinioConfig
}

// MinioConfig holds S3-compatible object storage settings.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// NotificationsConfig sizes the notification worker pool.
type NotificationsConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

// CaptainConfig configures the virtual captain and its optional LLM backend.
type CaptainConfig struct {
	Provider     string
	APIKey       string
	Model        string
	BaseURL      string
	Timeout      time.Duration
	MaxRetries   int
	MaxTokens    int
	Temperature  float64
	HistoryLimit int
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
	Path    string
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
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Issuer:            v.GetString("JWT_ISSUER"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	maxAttachment := v.GetInt64("ATTACHMENT_MAX_SIZE")
	if maxAttachment <= 0 {
		maxAttachment = 10 * 1024 * 1024
	}
	cfg.Complaints = ComplaintsConfig{
		CacheEnabled:          v.GetBool("ENABLE_COMPLAINT_CACHE"),
		StatsCacheTTL:         parseDuration(v.GetString("COMPLAINT_STATS_CACHE_TTL"), 5*time.Minute),
		ReferenceMaxAttempts:  v.GetInt("ANONYMOUS_REFERENCE_MAX_ATTEMPTS"),
		AttachmentMaxBytes:    maxAttachment,
		AttachmentAllowedMIME: splitAndTrim(v.GetString("ATTACHMENT_ALLOWED_MIME_TYPES")),
		ExportMaxRows:         v.GetInt("COMPLAINT_EXPORT_MAX_ROWS"),
	}

	cfg.Storage = StorageConfig{
		Driver:          strings.ToLower(v.GetString("STORAGE_DRIVER")),
		LocalDir:        v.GetString("STORAGE_LOCAL_DIR"),
		SignedURLSecret: v.GetString("STORAGE_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("STORAGE_SIGNED_URL_TTL"), 30*time.Minute),
		Minio: MinioConfig{
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: v.GetString("MINIO_SECRET_KEY"),
			Bucket:    v.GetString("MINIO_BUCKET"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
		},
	}

	cfg.Notifications = NotificationsConfig{
		Workers:    v.GetInt("NOTIFICATION_WORKERS"),
		BufferSize: v.GetInt("NOTIFICATION_BUFFER_SIZE"),
		MaxRetries: v.GetInt("NOTIFICATION_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("NOTIFICATION_RETRY_DELAY"), 2*time.Second),
	}

	cfg.Captain = CaptainConfig{
		Provider:     strings.ToLower(v.GetString("CAPTAIN_LLM_PROVIDER")),
		APIKey:       v.GetString("CAPTAIN_LLM_API_KEY"),
		Model:        v.GetString("CAPTAIN_LLM_MODEL"),
		BaseURL:      v.GetString("CAPTAIN_LLM_BASE_URL"),
		Timeout:      parseDuration(v.GetString("CAPTAIN_LLM_TIMEOUT"), 20*time.Second),
		MaxRetries:   v.GetInt("CAPTAIN_LLM_MAX_RETRIES"),
		MaxTokens:    v.GetInt("CAPTAIN_LLM_MAX_TOKENS"),
		Temperature:  v.GetFloat64("CAPTAIN_LLM_TEMPERATURE"),
		HistoryLimit: v.GetInt("CAPTAIN_HISTORY_LIMIT"),
	}
	if cfg.Captain.Provider != LLMProviderNone && cfg.Captain.APIKey == "" {
		// Without a key the assistant runs rule-based only.
		cfg.Captain.Provider = LLMProviderNone
	}

	cfg.Metrics = MetricsConfig{
		Enabled: v.GetBool("ENABLE_METRICS"),
		Path:    v.GetString("METRICS_PATH"),
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
	v.SetDefault("DB_NAME", "barangay_portal")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "barangay-api")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_COMPLAINT_CACHE", false)
	v.SetDefault("COMPLAINT_STATS_CACHE_TTL", "5m")
	v.SetDefault("ANONYMOUS_REFERENCE_MAX_ATTEMPTS", 100)
	v.SetDefault("ATTACHMENT_MAX_SIZE", 10*1024*1024)
	v.SetDefault("ATTACHMENT_ALLOWED_MIME_TYPES", "image/jpeg,image/png,image/gif,application/pdf")
	v.SetDefault("COMPLAINT_EXPORT_MAX_ROWS", 1000)

	v.SetDefault("STORAGE_DRIVER", StorageDriverLocal)
	v.SetDefault("STORAGE_LOCAL_DIR", "./uploads")
	v.SetDefault("STORAGE_SIGNED_URL_SECRET", "dev_storage_secret")
	v.SetDefault("STORAGE_SIGNED_URL_TTL", "30m")
	v.SetDefault("MINIO_ENDPOINT", "localhost:9000")
	v.SetDefault("MINIO_ACCESS_KEY", "")
	v.SetDefault("MINIO_SECRET_KEY", "")
	v.SetDefault("MINIO_BUCKET", "complaint-attachments")
	v.SetDefault("MINIO_USE_SSL", false)

	v.SetDefault("NOTIFICATION_WORKERS", 2)
	v.SetDefault("NOTIFICATION_BUFFER_SIZE", 64)
	v.SetDefault("NOTIFICATION_MAX_RETRIES", 3)
	v.SetDefault("NOTIFICATION_RETRY_DELAY", "2s")

	v.SetDefault("CAPTAIN_LLM_PROVIDER", LLMProviderNone)
	v.SetDefault("CAPTAIN_LLM_API_KEY", "")
	v.SetDefault("CAPTAIN_LLM_MODEL", "")
	v.SetDefault("CAPTAIN_LLM_BASE_URL", "")
	v.SetDefault("CAPTAIN_LLM_TIMEOUT", "20s")
	v.SetDefault("CAPTAIN_LLM_MAX_RETRIES", 2)
	v.SetDefault("CAPTAIN_LLM_MAX_TOKENS", 1024)
	v.SetDefault("CAPTAIN_LLM_TEMPERATURE", 0.7)
	v.SetDefault("CAPTAIN_HISTORY_LIMIT", 5)

	v.SetDefault("ENABLE_METRICS", true)
	v.SetDefault("METRICS_PATH", "/metrics")
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
