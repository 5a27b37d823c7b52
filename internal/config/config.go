package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"quillblog/internal/logging"
	"quillblog/internal/model"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	ServerPort string

	JWTSecret string

	RedisURL string

	AppEnv    string
	SentryDSN string
	LogLevel  string
	LogFormat string

	// Comment policy
	AutoApproveComments    bool
	CascadeTrashToReplies  bool
	MaxCommentLength       int
	MaxReportDetailsLength int

	// Relay worker
	WorkerCount int

	// Caches
	UserCacheSize int
	UserCacheTTL  time.Duration
	StatsCacheTTL time.Duration
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		logging.LogService("Config").Info("No .env file found or error loading it, relying on environment variables")
	}

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "8080"
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}

	return &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBSSLMode:  getEnv("DB_SSLMODE", "require"),

		ServerPort: serverPort,

		JWTSecret: os.Getenv("JWT_SECRET"),

		RedisURL: redisURL,

		AppEnv:    getEnv("APP_ENV", "development"),
		SentryDSN: os.Getenv("SENTRY_DSN"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		AutoApproveComments:    getBool("COMMENT_AUTO_APPROVE", false),
		CascadeTrashToReplies:  getBool("COMMENT_CASCADE_TRASH", false),
		MaxCommentLength:       getPositiveInt("COMMENT_MAX_LENGTH", model.DefaultMaxCommentLength),
		MaxReportDetailsLength: getPositiveInt("REPORT_DETAILS_MAX_LENGTH", model.DefaultMaxReportDetailsLength),

		WorkerCount: getPositiveInt("WORKER_COUNT", 2),

		UserCacheSize: getPositiveInt("USER_CACHE_SIZE", 1024),
		UserCacheTTL:  getDuration("USER_CACHE_TTL", 5*time.Minute),
		StatsCacheTTL: getDuration("STATS_CACHE_TTL", 30*time.Second),
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getPositiveInt(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
