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

const defaultMongoBaseURL = "https://data.mongodb-api.com"

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Mongo     MongoConfig
	Local     LocalConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Dashboard DashboardConfig
	Feedback  FeedbackConfig
}

// MongoConfig holds the Atlas Data API credentials. The remote backend is
// only selected when the three credential fields are all present.
type MongoConfig struct {
	APIKey         string
	AppID          string
	ClusterName    string
	Database       string
	BaseURL        string
	RequestTimeout time.Duration
}

// Configured reports whether the remote document backend should be used.
func (c MongoConfig) Configured() bool {
	return c.APIKey != "" && c.AppID != "" && c.ClusterName != ""
}

// ActionURL returns the endpoint prefix that verbs are appended to.
func (c MongoConfig) ActionURL() string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	return defaultMongoBaseURL + "/app/" + c.AppID + "/endpoint/data/v1/action"
}

// LocalConfig points at the on-device SQLite file used by the local
// fallback backend and the session slot.
type LocalConfig struct {
	Path string
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
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// DashboardConfig governs the optional redis cache for dashboard summaries.
type DashboardConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// FeedbackConfig controls transient user-facing messages.
type FeedbackConfig struct {
	TTL time.Duration
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

	cfg.Mongo = MongoConfig{
		APIKey:         strings.TrimSpace(v.GetString("MONGO_API_KEY")),
		AppID:          strings.TrimSpace(v.GetString("MONGO_APP_ID")),
		ClusterName:    strings.TrimSpace(v.GetString("MONGO_CLUSTER_NAME")),
		Database:       v.GetString("MONGO_DB_NAME"),
		BaseURL:        strings.TrimSpace(v.GetString("MONGO_BASE_URL")),
		RequestTimeout: parseDuration(v.GetString("MONGO_REQUEST_TIMEOUT"), 0),
	}

	cfg.Local = LocalConfig{Path: v.GetString("LOCAL_DB_PATH")}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Dashboard = DashboardConfig{
		CacheEnabled: v.GetBool("ENABLE_DASHBOARD_CACHE"),
		CacheTTL:     parseDuration(v.GetString("DASHBOARD_CACHE_TTL"), 30*time.Second),
	}

	cfg.Feedback = FeedbackConfig{
		TTL: parseDuration(v.GetString("TOAST_TTL"), 5*time.Second),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("MONGO_API_KEY", "")
	v.SetDefault("MONGO_APP_ID", "")
	v.SetDefault("MONGO_CLUSTER_NAME", "")
	v.SetDefault("MONGO_DB_NAME", "pocket_university")
	v.SetDefault("MONGO_BASE_URL", "")
	v.SetDefault("MONGO_REQUEST_TIMEOUT", "0s")

	v.SetDefault("LOCAL_DB_PATH", "./data/pocket.db")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_DASHBOARD_CACHE", false)
	v.SetDefault("DASHBOARD_CACHE_TTL", "30s")

	v.SetDefault("TOAST_TTL", "5s")
}

// viper reports a missing explicit config file as a plain fs error rather
// than ConfigFileNotFoundError.
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
