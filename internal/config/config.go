package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Catalog (上流カタログAPI)
	CatalogBaseURL      string
	CatalogClientID     string
	CatalogClientSecret string
	CatalogTimeout      time.Duration

	// Service token (マシントークンのキャッシュ)
	ServiceTokenTTL time.Duration
	TokenCachePath  string // 空の場合はメモリ上の単一スロットを使用する

	// Session
	SessionSecret string
	SessionMaxAge int

	// Rate Limit
	RateLimitGeneral int
	RateLimitLogin   int

	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.CatalogClientID = os.Getenv("CATALOG_CLIENT_ID")
	if cfg.CatalogClientID == "" {
		missing = append(missing, "CATALOG_CLIENT_ID")
	}

	cfg.CatalogClientSecret = os.Getenv("CATALOG_CLIENT_SECRET")
	if cfg.CatalogClientSecret == "" {
		missing = append(missing, "CATALOG_CLIENT_SECRET")
	}

	cfg.SessionSecret = os.Getenv("SESSION_SECRET")
	if cfg.SessionSecret == "" {
		missing = append(missing, "SESSION_SECRET")
	}

	cfg.BaseURL = os.Getenv("BASE_URL")
	if cfg.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.CatalogBaseURL = getEnvString("CATALOG_BASE_URL", "https://api.artsy.net/api")
	cfg.CatalogTimeout = getEnvDuration("CATALOG_TIMEOUT", 10*time.Second)
	cfg.ServiceTokenTTL = getEnvDuration("SERVICE_TOKEN_TTL", 144*time.Hour)
	cfg.TokenCachePath = getEnvString("TOKEN_CACHE_PATH", "")
	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", 3600)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitLogin = getEnvInt("RATE_LIMIT_LOGIN", 10)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
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
