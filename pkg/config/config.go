package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Token store backends.
const (
	TokenStoreFile     = "file"
	TokenStoreRedis    = "redis"
	TokenStorePostgres = "postgres"
)

type Config struct {
	Env         string
	ConsoleAddr string

	API       APIConfig
	Push      PushConfig
	Token     TokenConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Dispatch  DispatchConfig
	Downloads DownloadsConfig
	CORS      CORSConfig
	Log       LogConfig
	Metrics   MetricsConfig
}

// APIConfig points the client at the remote REST API.
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// PushConfig configures the STOMP-over-WebSocket notification channel.
type PushConfig struct {
	Enabled           bool
	URL               string
	UserDestination   string
	AdminDestination  string
	ReconnectDelay    time.Duration
	HeartBeat         time.Duration
	ConnectTimeout    time.Duration
	AdminRefreshRPS   float64
	AdminRefreshBurst int
}

// TokenConfig selects where the bearer token is persisted.
type TokenConfig struct {
	Store      string
	Key        string
	File       string
	FileSecret string
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

// DispatchConfig sizes the command dispatcher.
type DispatchConfig struct {
	Workers    int
	BufferSize int
}

// DownloadsConfig controls where documents and reports are written.
type DownloadsConfig struct {
	Dir string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// MetricsConfig toggles the Prometheus endpoint on the console.
type MetricsConfig struct {
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
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.ConsoleAddr = v.GetString("CONSOLE_ADDR")

	cfg.API = APIConfig{
		BaseURL: strings.TrimRight(v.GetString("API_BASE_URL"), "/"),
		Timeout: parseDuration(v.GetString("API_TIMEOUT"), 15*time.Second),
	}

	burst := v.GetInt("ADMIN_REFRESH_BURST")
	if burst <= 0 {
		burst = 1
	}
	cfg.Push = PushConfig{
		Enabled:           v.GetBool("ENABLE_PUSH"),
		URL:               v.GetString("PUSH_URL"),
		UserDestination:   v.GetString("PUSH_USER_DESTINATION"),
		AdminDestination:  v.GetString("PUSH_ADMIN_DESTINATION"),
		ReconnectDelay:    parseDuration(v.GetString("PUSH_RECONNECT_DELAY"), 5*time.Second),
		HeartBeat:         parseDuration(v.GetString("PUSH_HEARTBEAT"), 10*time.Second),
		ConnectTimeout:    parseDuration(v.GetString("PUSH_CONNECT_TIMEOUT"), 10*time.Second),
		AdminRefreshRPS:   v.GetFloat64("ADMIN_REFRESH_RPS"),
		AdminRefreshBurst: burst,
	}

	cfg.Token = TokenConfig{
		Store:      strings.ToLower(v.GetString("TOKEN_STORE")),
		Key:        v.GetString("TOKEN_KEY"),
		File:       v.GetString("TOKEN_FILE"),
		FileSecret: v.GetString("TOKEN_FILE_SECRET"),
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

	cfg.Dispatch = DispatchConfig{
		Workers:    v.GetInt("DISPATCH_WORKERS"),
		BufferSize: v.GetInt("DISPATCH_BUFFER"),
	}

	cfg.Downloads = DownloadsConfig{Dir: v.GetString("DOWNLOADS_DIR")}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Metrics = MetricsConfig{Enabled: v.GetBool("ENABLE_METRICS")}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("CONSOLE_ADDR", "127.0.0.1:7070")

	v.SetDefault("API_BASE_URL", "http://localhost:8080/api/v1")
	v.SetDefault("API_TIMEOUT", "15s")

	v.SetDefault("ENABLE_PUSH", true)
	v.SetDefault("PUSH_URL", "ws://localhost:8080/ws/websocket")
	v.SetDefault("PUSH_USER_DESTINATION", "/user/{subject}/queue/notifications")
	v.SetDefault("PUSH_ADMIN_DESTINATION", "/topic/admin/new-appointments")
	v.SetDefault("PUSH_RECONNECT_DELAY", "5s")
	v.SetDefault("PUSH_HEARTBEAT", "10s")
	v.SetDefault("PUSH_CONNECT_TIMEOUT", "10s")
	v.SetDefault("ADMIN_REFRESH_RPS", 1.0)
	v.SetDefault("ADMIN_REFRESH_BURST", 3)

	v.SetDefault("TOKEN_STORE", TokenStoreFile)
	v.SetDefault("TOKEN_KEY", "token")
	v.SetDefault("TOKEN_FILE", "./.session/token")
	v.SetDefault("TOKEN_FILE_SECRET", "")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "appointment_client")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 2)
	v.SetDefault("DB_MAX_IDLE_CONNS", 1)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("DISPATCH_WORKERS", 4)
	v.SetDefault("DISPATCH_BUFFER", 32)
	v.SetDefault("DOWNLOADS_DIR", "./downloads")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("ENABLE_METRICS", true)
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
