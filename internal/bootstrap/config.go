package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is everything the process reads from its environment, loaded once
// at startup. A missing .env file is fine; real deployments inject the
// environment directly.
type Config struct {
	AppEnv     string
	ServerPort string
	LogLevel   string

	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret      string
	JWTExpiryHours int

	RateLimitRequests int
	RateLimitWindow   time.Duration

	SessionIdleGrace   time.Duration
	ChatPersistTimeout time.Duration
	ChatTailLimit      int

	Judge0URL    string
	Judge0APIKey string
}

// LoadConfig reads the environment, applying defaults for everything but the
// JWT secret.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:     envOr("APP_ENV", "development"),
		ServerPort: envOr("SERVER_PORT", "8080"),
		LogLevel:   envOr("LOG_LEVEL", "info"),

		DBUser:     envOr("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBHost:     envOr("DB_HOST", "127.0.0.1"),
		DBPort:     envOr("DB_PORT", "3306"),
		DBName:     envOr("DB_NAME", "zcoder"),

		RedisAddr:     envOr("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),

		JWTSecret:      os.Getenv("JWT_SECRET"),
		JWTExpiryHours: envInt("JWT_EXPIRY", 72),

		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   envDuration("RATE_LIMIT_WINDOW", time.Minute),

		SessionIdleGrace:   envDuration("SESSION_IDLE_GRACE", 30*time.Second),
		ChatPersistTimeout: envDuration("CHAT_PERSIST_TIMEOUT", 5*time.Second),
		ChatTailLimit:      envInt("CHAT_TAIL_LIMIT", 50),

		Judge0URL:    envOr("JUDGE0_URL", "https://judge0-ce.p.rapidapi.com"),
		Judge0APIKey: os.Getenv("JUDGE0_API_KEY"),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be set")
	}
	return cfg, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
