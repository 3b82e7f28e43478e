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

	Database DatabaseConfig
	Dynamo   DynamoConfig
	Redis    RedisConfig
	CORS     CORSConfig
	Log      LogConfig
	Budget   BudgetConfig
	Timeline TimelineConfig
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

// DynamoConfig configures the document store holding budget snapshots.
// Endpoint stays empty for real AWS and points at a local instance in dev.
type DynamoConfig struct {
	Region    string
	AccessKey string
	SecretKey string
	Endpoint  string
	Table     string
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

// BudgetConfig holds the business limits the versioning service validates
// each product line against.
type BudgetConfig struct {
	MaxQuantity    int
	MinWidth       float64
	MaxWidth       float64
	MinHeight      float64
	MaxHeight      float64
	ValidityDays   int
	RetryAttempts  int
	RetryBaseDelay time.Duration
}

// TimelineConfig tunes timeline response caching.
type TimelineConfig struct {
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

	cfg.Dynamo = DynamoConfig{
		Region:    v.GetString("AWS_REGION"),
		AccessKey: v.GetString("AWS_ACCESS_KEY_ID"),
		SecretKey: v.GetString("AWS_SECRET_ACCESS_KEY"),
		Endpoint:  v.GetString("DYNAMODB_ENDPOINT"),
		Table:     v.GetString("BUDGETS_TABLE"),
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

	cfg.Budget = BudgetConfig{
		MaxQuantity:    v.GetInt("BUDGET_MAX_QUANTITY"),
		MinWidth:       v.GetFloat64("BUDGET_MIN_WIDTH"),
		MaxWidth:       v.GetFloat64("BUDGET_MAX_WIDTH"),
		MinHeight:      v.GetFloat64("BUDGET_MIN_HEIGHT"),
		MaxHeight:      v.GetFloat64("BUDGET_MAX_HEIGHT"),
		ValidityDays:   v.GetInt("BUDGET_VALIDITY_DAYS"),
		RetryAttempts:  v.GetInt("BUDGET_VERSION_RETRIES"),
		RetryBaseDelay: parseDuration(v.GetString("BUDGET_VERSION_RETRY_DELAY"), 50*time.Millisecond),
	}

	cfg.Timeline = TimelineConfig{
		CacheEnabled: v.GetBool("ENABLE_TIMELINE_CACHE"),
		CacheTTL:     parseDuration(v.GetString("TIMELINE_CACHE_TTL"), 5*time.Minute),
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
	v.SetDefault("DB_NAME", "alumtek_backoffice")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("AWS_ACCESS_KEY_ID", "local")
	v.SetDefault("AWS_SECRET_ACCESS_KEY", "local")
	v.SetDefault("DYNAMODB_ENDPOINT", "")
	v.SetDefault("BUDGETS_TABLE", "budgets")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("BUDGET_MAX_QUANTITY", 100)
	v.SetDefault("BUDGET_MIN_WIDTH", 0.2)
	v.SetDefault("BUDGET_MAX_WIDTH", 6.0)
	v.SetDefault("BUDGET_MIN_HEIGHT", 0.2)
	v.SetDefault("BUDGET_MAX_HEIGHT", 3.5)
	v.SetDefault("BUDGET_VALIDITY_DAYS", 30)
	v.SetDefault("BUDGET_VERSION_RETRIES", 3)
	v.SetDefault("BUDGET_VERSION_RETRY_DELAY", "50ms")

	v.SetDefault("ENABLE_TIMELINE_CACHE", false)
	v.SetDefault("TIMELINE_CACHE_TTL", "5m")
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
