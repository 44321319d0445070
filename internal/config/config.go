package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL  string
	MaxOpenConns int

	// Gemini
	GeminiAPIKey string
	GeminiModel  string

	// List
	PageSize int

	// Rate Limit
	RateLimitGeneral int
	RateLimitUnlock  int

	// Courtlink
	CourtlinkInterval     time.Duration
	CourtlinkBatchSize    int
	CourtlinkMaxPerCycle  int
	CourtlinkItemInterval time.Duration

	// Chat
	ChatRetention     time.Duration
	ChatContextLength int
	CleanupInterval   time.Duration

	// Attachment
	AttachmentMaxPages int
	AttachmentMaxBytes int64

	// Logging
	LogLevel string

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// カレントディレクトリに.envがあれば先に読み込む（既存の環境変数が優先）。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	// .envはローカル開発用。存在しなくてもエラーにしない。
	_ = godotenv.Load()

	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	if cfg.GeminiAPIKey == "" {
		missing = append(missing, "GEMINI_API_KEY")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 25)
	cfg.GeminiModel = getEnvString("GEMINI_MODEL", "gemini-1.5-flash")
	cfg.PageSize = getEnvInt("PAGE_SIZE", 20)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitUnlock = getEnvInt("RATE_LIMIT_UNLOCK", 10)
	cfg.CourtlinkInterval = getEnvDuration("COURTLINK_INTERVAL", 10*time.Minute)
	cfg.CourtlinkBatchSize = getEnvInt("COURTLINK_BATCH_SIZE", 50)
	cfg.CourtlinkMaxPerCycle = getEnvInt("COURTLINK_MAX_PER_CYCLE", 200)
	cfg.CourtlinkItemInterval = getEnvDuration("COURTLINK_ITEM_INTERVAL", 100*time.Millisecond)
	cfg.ChatRetention = getEnvDuration("CHAT_RETENTION", 90*24*time.Hour)
	cfg.ChatContextLength = getEnvInt("CHAT_CONTEXT_LENGTH", 20)
	cfg.CleanupInterval = getEnvDuration("CLEANUP_INTERVAL", 24*time.Hour)
	cfg.AttachmentMaxPages = getEnvInt("ATTACHMENT_MAX_PAGES", 50)
	cfg.AttachmentMaxBytes = getEnvInt64("ATTACHMENT_MAX_BYTES", 10485760)
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
