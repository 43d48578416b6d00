package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Server
	ServerPort string

	// Backend API
	APIBaseURL       string
	APITimeout       time.Duration
	APIMaxConcurrent int

	// Rate Limit（req/min/クライアントIP）
	RateLimitGeneral int

	// CORS
	CORSAllowedOrigin string

	// Logging
	LogLevel  string
	LogFormat string
}

// Load は環境変数からConfigを読み込む。
// カレントディレクトリに.envがあれば先に読み込む（既存の環境変数は上書きしない）。
// 値が不正な場合はエラーを返す。
func Load() (*Config, error) {
	// .envは任意。存在しない場合のエラーは無視する
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:        getEnvString("SERVER_PORT", "8080"),
		APIBaseURL:        strings.TrimRight(getEnvString("API_BASE_URL", "http://localhost:8000"), "/"),
		APITimeout:        getEnvDuration("API_TIMEOUT", 10*time.Second),
		APIMaxConcurrent:  getEnvInt("API_MAX_CONCURRENT", 10),
		RateLimitGeneral:  getEnvInt("RATE_LIMIT_GENERAL", 120),
		CORSAllowedOrigin: getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000"),
		LogLevel:          strings.ToLower(getEnvString("LOG_LEVEL", "info")),
		LogFormat:         strings.ToLower(getEnvString("LOG_FORMAT", "json")),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate は読み込んだ値の整合性を検証する。
func (c *Config) validate() error {
	var problems []string

	u, err := url.Parse(c.APIBaseURL)
	switch {
	case err != nil:
		problems = append(problems, fmt.Sprintf("API_BASE_URL is not a valid URL: %v", err))
	case u.Scheme != "http" && u.Scheme != "https":
		problems = append(problems, fmt.Sprintf("API_BASE_URL must use http or https, got %q", u.Scheme))
	case u.Host == "":
		problems = append(problems, "API_BASE_URL must include a host")
	}

	if c.APITimeout <= 0 {
		problems = append(problems, fmt.Sprintf("API_TIMEOUT must be positive, got %s", c.APITimeout))
	}
	if c.APIMaxConcurrent < 1 {
		problems = append(problems, fmt.Sprintf("API_MAX_CONCURRENT must be at least 1, got %d", c.APIMaxConcurrent))
	}
	if c.RateLimitGeneral < 1 {
		problems = append(problems, fmt.Sprintf("RATE_LIMIT_GENERAL must be at least 1, got %d", c.RateLimitGeneral))
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		problems = append(problems, fmt.Sprintf("LOG_FORMAT must be json or text, got %q", c.LogFormat))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
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
