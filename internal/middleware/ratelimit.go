package middleware

import (
	"encoding/json"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterConfig はレート制限の設定を保持する。
type RateLimiterConfig struct {
	GeneralRate     rate.Limit    // API全般のレート（req/sec）。120/60 = 2 req/sec
	GeneralBurst    int           // API全般のバーストサイズ
	LoginRate       rate.Limit    // ログイン・登録のレート（req/sec）。10/60
	LoginBurst      int           // ログイン・登録のバーストサイズ
	CleanupInterval time.Duration // 期限切れエントリのクリーンアップ間隔
}

// DefaultRateLimiterConfig はデフォルトのレート制限設定を返す。
// API全般 120 req/min/user、資格情報系エンドポイント 10 req/min/IP。
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(120.0 / 60.0), // 2 req/sec
		GeneralBurst:    120,
		LoginRate:       rate.Limit(10.0 / 60.0), // ~0.167 req/sec
		LoginBurst:      10,
		CleanupInterval: 5 * time.Minute,
	}
}

// clientLimiter はクライアントごとのレートリミッターとアクセス時刻を保持する。
type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter はクライアントごとのレート制限を管理する。
// 認証済みAPI全般の制限（ユーザーID単位）と、ログイン・登録の制限（IP単位）の
// 2種類を提供する。上流カタログAPIへの呼び出しは制限しない。
type RateLimiter struct {
	config RateLimiterConfig

	generalMu       sync.RWMutex
	generalLimiters map[string]*clientLimiter

	loginMu       sync.RWMutex
	loginLimiters map[string]*clientLimiter

	stopCh chan struct{}
}

// NewRateLimiter は新しいRateLimiterを生成する。
// バックグラウンドで期限切れエントリのクリーンアップを開始する。
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		config:          config,
		generalLimiters: make(map[string]*clientLimiter),
		loginLimiters:   make(map[string]*clientLimiter),
		stopCh:          make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// GeneralMiddleware はAPI全般のレート制限ミドルウェアを返す。
// リクエストコンテキストにセッションクレームが含まれている必要がある
// （SessionMiddlewareの後に配置）。
func (rl *RateLimiter) GeneralMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := UserIDFromContext(r.Context())
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			limiter := rl.getOrCreateLimiter(&rl.generalMu, rl.generalLimiters, userID, rl.config.GeneralRate, rl.config.GeneralBurst)

			if !limiter.Allow() {
				writeRateLimitResponse(w, rl.config.GeneralRate)
				slog.Warn("rate limit exceeded",
					slog.String("user_id", userID),
					slog.String("limit_type", "general"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// LoginMiddleware はログイン・登録専用のレート制限ミドルウェアを返す。
// 未認証エンドポイントのためクライアントIP単位で制限する。
func (rl *RateLimiter) LoginMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := clientIPFromRequest(r)

			limiter := rl.getOrCreateLimiter(&rl.loginMu, rl.loginLimiters, clientIP, rl.config.LoginRate, rl.config.LoginBurst)

			if !limiter.Allow() {
				writeRateLimitResponse(w, rl.config.LoginRate)
				slog.Warn("rate limit exceeded",
					slog.String("client_ip", clientIP),
					slog.String("limit_type", "login"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GeneralLimiterCount は現在管理されているAPI全般リミッターのエントリ数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) GeneralLimiterCount() int {
	rl.generalMu.RLock()
	defer rl.generalMu.RUnlock()
	return len(rl.generalLimiters)
}

// LoginLimiterCount は現在管理されているログインリミッターのエントリ数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) LoginLimiterCount() int {
	rl.loginMu.RLock()
	defer rl.loginMu.RUnlock()
	return len(rl.loginLimiters)
}

// getOrCreateLimiter はキーに対応するリミッターを取得または作成する。
func (rl *RateLimiter) getOrCreateLimiter(mu *sync.RWMutex, limiters map[string]*clientLimiter, key string, r rate.Limit, burst int) *rate.Limiter {
	mu.RLock()
	cl, exists := limiters[key]
	mu.RUnlock()

	if exists {
		mu.Lock()
		cl.lastAccess = time.Now()
		mu.Unlock()
		return cl.limiter
	}

	mu.Lock()
	defer mu.Unlock()

	// ダブルチェック
	if cl, exists := limiters[key]; exists {
		cl.lastAccess = time.Now()
		return cl.limiter
	}

	limiter := rate.NewLimiter(r, burst)
	limiters[key] = &clientLimiter{
		limiter:    limiter,
		lastAccess: time.Now(),
	}

	return limiter
}

// cleanupLoop は一定間隔で長時間アクセスのないリミッターエントリを削除する。
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			rl.cleanup()
		}
	}
}

// cleanup はクリーンアップ間隔より古いエントリを両方のマップから削除する。
func (rl *RateLimiter) cleanup() {
	cutoff := time.Now().Add(-rl.config.CleanupInterval)

	rl.generalMu.Lock()
	for key, cl := range rl.generalLimiters {
		if cl.lastAccess.Before(cutoff) {
			delete(rl.generalLimiters, key)
		}
	}
	rl.generalMu.Unlock()

	rl.loginMu.Lock()
	for key, cl := range rl.loginLimiters {
		if cl.lastAccess.Before(cutoff) {
			delete(rl.loginLimiters, key)
		}
	}
	rl.loginMu.Unlock()
}

// clientIPFromRequest はリクエストからクライアントIPを取り出す。
func clientIPFromRequest(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// writeRateLimitResponse は429レスポンスとRetry-Afterヘッダーを書き込む。
func writeRateLimitResponse(w http.ResponseWriter, limit rate.Limit) {
	retryAfter := 1
	if limit > 0 {
		retryAfter = int(math.Ceil(1.0 / float64(limit)))
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	json.NewEncoder(w).Encode(map[string]string{
		"error": "too many requests",
	})
}
