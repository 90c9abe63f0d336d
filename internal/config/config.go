package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig
	API     APIConfig
	Session SessionConfig
	DB      DBConfig
	Redis   RedisConfig
	Logger  LoggerConfig
}

type ServerConfig struct {
	AppEnv      string
	Port        string
	TemplateDir string
	StaticDir   string
}

type APIConfig struct {
	BaseURL  string
	AuthMode string // bearer | cookie
	Cookie   string // upstream session cookie name when AuthMode=cookie
	Timeout  time.Duration
	PageSize int
}

type SessionConfig struct {
	Store      string // sql | redis
	CookieName string
	Secure     bool
	TTL        time.Duration
}

type DBConfig struct {
	Driver string // sqlite | postgres | mysql
	DSN    string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type LoggerConfig struct {
	Level    string
	Encoding string
	File     string
}

// Load reads .env (if present) and the process environment.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Server: ServerConfig{
			AppEnv:      getEnv("APP_ENV", "development"),
			Port:        getEnv("PORT", "8080"),
			TemplateDir: getEnv("TEMPLATE_DIR", "./web/templates"),
			StaticDir:   getEnv("STATIC_DIR", "./web/static"),
		},
		API: APIConfig{
			BaseURL:  strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:5000"), "/"),
			AuthMode: strings.ToLower(getEnv("AUTH_MODE", "bearer")),
			Cookie:   getEnv("API_SESSION_COOKIE", "connect.sid"),
			Timeout:  getEnvDuration("API_TIMEOUT", 10*time.Second),
			PageSize: getEnvInt("PAGE_SIZE", 10),
		},
		Session: SessionConfig{
			Store:      strings.ToLower(getEnv("SESSION_STORE", "sql")),
			CookieName: getEnv("SESSION_COOKIE", "sid"),
			Secure:     getEnvBool("SESSION_SECURE", false),
			TTL:        getEnvDuration("SESSION_TTL", 12*time.Hour),
		},
		DB: DBConfig{
			Driver: strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
			DSN:    getEnv("DB_DSN", "freshbasket.db"), // sqlite file in project root
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Logger: LoggerConfig{
			Level:    getEnv("LOGGER_LEVEL", "info"),
			Encoding: getEnv("LOGGER_ENCODING", "json"),
			File:     getEnv("LOG_FILE", ""),
		},
	}
	if cfg.API.PageSize != 10 && cfg.API.PageSize != 20 {
		cfg.API.PageSize = 10
	}

	log.Printf("[config] APP_ENV=%s PORT=%s API_BASE_URL=%s AUTH_MODE=%s SESSION_STORE=%s DB_DRIVER=%s",
		cfg.Server.AppEnv, cfg.Server.Port, cfg.API.BaseURL, cfg.API.AuthMode, cfg.Session.Store, cfg.DB.Driver)
	return cfg
}

func (c Config) IsDevelopment() bool { return c.Server.AppEnv == "development" }

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
