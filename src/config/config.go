package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config アプリケーション設定
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Storage   StorageConfig
	Database  DatabaseConfig
	S3        S3Config
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Auth      AuthConfig
}

// ServerConfig サーバー設定
type ServerConfig struct {
	Port    string
	GinMode string
}

// LogConfig ログ設定
type LogConfig struct {
	Level          string
	Directory      string
	UploadEnabled  bool
	UploadMaxAge   time.Duration
	UploadInterval time.Duration
}

// StorageConfig メモの永続化先の設定
type StorageConfig struct {
	Backend  string // file, memory, postgres, s3
	FilePath string
	S3Prefix string
}

// DatabaseConfig PostgreSQL接続設定
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// S3Config S3設定
type S3Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Bucket          string
	UseSSL          bool
}

// RateLimitConfig レート制限設定
type RateLimitConfig struct {
	RPS   int
	Burst int
}

// CORSConfig CORS設定
type CORSConfig struct {
	AllowedOrigins []string
}

// AuthConfig API認証設定
type AuthConfig struct {
	Enabled      bool
	JWTSecret    string
	JWTExpiresIn time.Duration
}

// ストレージバックエンド名
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendS3       = "s3"
)

// LoadConfig 環境変数から設定を読み込み
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:    getEnv("SERVER_PORT", "8080"),
			GinMode: getEnv("GIN_MODE", "release"),
		},
		Log: LogConfig{
			Level:          getEnv("LOG_LEVEL", "info"),
			Directory:      getEnv("LOG_DIRECTORY", "logs"),
			UploadEnabled:  getBoolEnv("LOG_UPLOAD_ENABLED", false),
			UploadMaxAge:   getDurationEnv("LOG_UPLOAD_MAX_AGE", 24*time.Hour),
			UploadInterval: getDurationEnv("LOG_UPLOAD_INTERVAL", 1*time.Hour),
		},
		Storage: StorageConfig{
			Backend:  strings.ToLower(getEnv("STORAGE_BACKEND", BackendFile)),
			FilePath: getEnv("STORAGE_FILE_PATH", "data/memos.json"),
			S3Prefix: getEnv("STORAGE_S3_PREFIX", "memo-app/"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getIntEnv("DB_PORT", 5432),
			User:     getEnv("DB_USER", "memo_user"),
			Password: getEnv("DB_PASSWORD", "memo_password"),
			DBName:   getEnv("DB_NAME", "memo_db"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		S3: S3Config{
			Endpoint:        getEnv("S3_ENDPOINT", "http://localhost:9000"), // MinIO用のデフォルト
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", "minioadmin"),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", "minioadmin"),
			Region:          getEnv("S3_REGION", "us-east-1"),
			Bucket:          getEnv("S3_BUCKET", "memo-app"),
			UseSSL:          getBoolEnv("S3_USE_SSL", false),
		},
		RateLimit: RateLimitConfig{
			RPS:   getIntEnv("RATE_LIMIT_RPS", 20),
			Burst: getIntEnv("RATE_LIMIT_BURST", 40),
		},
		CORS: CORSConfig{
			AllowedOrigins: getListEnv("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Auth: AuthConfig{
			Enabled:      getBoolEnv("AUTH_ENABLED", false),
			JWTSecret:    getEnv("JWT_SECRET", ""),
			JWTExpiresIn: getDurationEnv("JWT_EXPIRES_IN", 24*time.Hour),
		},
	}
}

// getEnv 環境変数を取得（デフォルト値付き）
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getBoolEnv 環境変数をboolで取得
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getIntEnv 環境変数をintで取得
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getDurationEnv 環境変数をtime.Durationで取得
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getListEnv カンマ区切りの環境変数を取得
func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var result []string
	for _, item := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
