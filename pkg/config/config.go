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

// Storage drivers backing the request store.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Lifecycle modes for status transitions.
const (
	LifecycleStrict     = "strict"
	LifecyclePermissive = "permissive"
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
	Store         StoreConfig
	Lifecycle     LifecycleConfig
	Statistics    StatisticsConfig
	Notifications NotificationConfig
	Exports       ExportsConfig
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

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// StoreConfig selects and tunes the request persistence provider.
type StoreConfig struct {
	Driver           string
	MemoryLatency    time.Duration
	OperationTimeout time.Duration
	SeedDemoData     bool
}

// LifecycleConfig chooses how strictly status transitions are checked.
type LifecycleConfig struct {
	Mode string
}

// StatisticsConfig governs the statistics cache.
type StatisticsConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// NotificationConfig tunes the asynchronous notification emitter.
type NotificationConfig struct {
	Workers       int
	BufferSize    int
	MaxRetries    int
	PubSubEnabled bool
}

// ExportsConfig toggles the request report export endpoint.
type ExportsConfig struct {
	Enabled bool
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
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	driver := strings.ToLower(strings.TrimSpace(v.GetString("STORAGE_DRIVER")))
	if driver != StoragePostgres {
		driver = StorageMemory
	}
	cfg.Store = StoreConfig{
		Driver:           driver,
		MemoryLatency:    parseDuration(v.GetString("MEMORY_STORE_LATENCY"), 0),
		OperationTimeout: parseDuration(v.GetString("STORE_OPERATION_TIMEOUT"), 5*time.Second),
		SeedDemoData:     v.GetBool("SEED_DEMO_DATA"),
	}

	mode := strings.ToLower(strings.TrimSpace(v.GetString("LIFECYCLE_MODE")))
	if mode != LifecyclePermissive {
		mode = LifecycleStrict
	}
	cfg.Lifecycle = LifecycleConfig{Mode: mode}

	cfg.Statistics = StatisticsConfig{
		CacheEnabled: v.GetBool("ENABLE_STATS_CACHE"),
		CacheTTL:     parseDuration(v.GetString("STATS_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Notifications = NotificationConfig{
		Workers:       v.GetInt("NOTIFY_WORKERS"),
		BufferSize:    v.GetInt("NOTIFY_BUFFER"),
		MaxRetries:    v.GetInt("NOTIFY_RETRIES"),
		PubSubEnabled: v.GetBool("ENABLE_NOTIFY_PUBSUB"),
	}

	cfg.Exports = ExportsConfig{Enabled: v.GetBool("ENABLE_EXPORTS")}

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
	v.SetDefault("DB_NAME", "academic_help")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "academic-help-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("STORAGE_DRIVER", StorageMemory)
	v.SetDefault("MEMORY_STORE_LATENCY", "0s")
	v.SetDefault("STORE_OPERATION_TIMEOUT", "5s")
	v.SetDefault("SEED_DEMO_DATA", false)

	v.SetDefault("LIFECYCLE_MODE", LifecycleStrict)

	v.SetDefault("ENABLE_STATS_CACHE", false)
	v.SetDefault("STATS_CACHE_TTL", "5m")

	v.SetDefault("NOTIFY_WORKERS", 2)
	v.SetDefault("NOTIFY_BUFFER", 64)
	v.SetDefault("NOTIFY_RETRIES", 3)
	v.SetDefault("ENABLE_NOTIFY_PUBSUB", false)

	v.SetDefault("ENABLE_EXPORTS", true)
}

// isMissingFile reports whether viper failed because .env does not exist;
// SetConfigFile surfaces that as a plain fs error rather than ConfigFileNotFoundError.
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
