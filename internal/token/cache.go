// Package token は上流カタログAPI用マシントークンの取得とキャッシュを提供する。
// 有効期限の管理とリフレッシュを単一のCacheに隠蔽し、
// 上流を呼び出すすべての経路が同じキャッシュを共有する。
package token

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DefaultTTL はマシントークンのデフォルト有効期間（6日）。
// セッションCookieの1時間とは無関係な、別トークンの別の期限である。
const DefaultTTL = 144 * time.Hour

// Entry はキャッシュされたトークンの単一スロットを表す。
type Entry struct {
	Value  string    `json:"value"`
	Expiry time.Time `json:"expiry"`
}

// Store はトークンスロットの永続化インターフェース。
// スロットは常に1つで、Saveは前の値を上書きする（last-write-wins）。
type Store interface {
	// Load はスロットの内容を返す。スロットが空の場合はnilを返す。
	Load() (*Entry, error)
	// Save はスロットを上書きする。
	Save(Entry) error
	// Clear はスロットを空にする。
	Clear() error
}

// Issuer は上流のトークン発行エンドポイントへの要求を抽象化する。
type Issuer interface {
	// IssueToken は新しいマシントークンを取得する。
	IssueToken(ctx context.Context) (string, error)
}

// MetricsRecorder はキャッシュの挙動をメトリクスに記録するインターフェース。
type MetricsRecorder interface {
	RecordTokenCacheHit()
	RecordTokenCacheMiss()
	RecordTokenRefresh()
}

// Cache はマシントークンの単一スロットキャッシュ。
// 意図的に排他制御を持たない: 並行するGetが同時にリフレッシュを発行しても、
// トークンは発行側から見て冪等かつステートレスであり、最後の書き込みが勝つだけで害はない。
type Cache struct {
	store  Store
	issuer Issuer
	ttl    time.Duration
	logger  *slog.Logger
	now     func() time.Time
	metrics MetricsRecorder
}

// Option はCacheの生成オプション。
type Option func(*Cache)

// WithNow は現在時刻の取得関数を差し替える（テスト用）。
func WithNow(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// WithMetrics はキャッシュヒット・ミス・再発行のメトリクス記録を有効にする。
func WithMetrics(rec MetricsRecorder) Option {
	return func(c *Cache) {
		c.metrics = rec
	}
}

// NewCache はCacheを生成する。ttlが0以下の場合はDefaultTTLを使用する。
func NewCache(store Store, issuer Issuer, ttl time.Duration, logger *slog.Logger, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		store:  store,
		issuer: issuer,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get は有効なトークン値を返す。
//   - スロットに有効なトークンがあればネットワーク呼び出しなしでそれを返す。
//   - 期限切れのトークンはまず破棄し、その後新規発行する。
//   - 発行に失敗した場合はエラーを返し、スロットには何も書き込まない。
//
// expiry <= now のトークンを有効として返すことは決してない。
func (c *Cache) Get(ctx context.Context) (string, error) {
	entry, err := c.store.Load()
	if err != nil {
		// 読み出せないスロットは空として扱う（破損エントリを信用しない）
		c.logger.Warn("トークンスロットの読み出しに失敗しました。再発行します",
			slog.String("error", err.Error()),
		)
		entry = nil
	}

	now := c.now()

	if entry != nil {
		if entry.Expiry.After(now) {
			if c.metrics != nil {
				c.metrics.RecordTokenCacheHit()
			}
			return entry.Value, nil
		}
		// 期限切れ: 新しい値を取得する前に必ず破棄する
		if err := c.store.Clear(); err != nil {
			c.logger.Warn("期限切れトークンの破棄に失敗しました",
				slog.String("error", err.Error()),
			)
		}
		c.logger.Info("サービストークンが期限切れのため再発行します")
	}

	if c.metrics != nil {
		c.metrics.RecordTokenCacheMiss()
	}

	value, err := c.issuer.IssueToken(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to issue service token: %w", err)
	}
	if value == "" {
		return "", fmt.Errorf("token issuer returned an empty token")
	}
	if c.metrics != nil {
		c.metrics.RecordTokenRefresh()
	}

	if err := c.store.Save(Entry{Value: value, Expiry: now.Add(c.ttl)}); err != nil {
		// 保存失敗時もトークン自体は有効なので返す。次回のGetが再発行する。
		c.logger.Warn("トークンスロットの保存に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	return value, nil
}

// Invalidate はスロットを明示的に空にする。
// 上流がトークンを拒否した場合などに呼び出すと、次回のGetが再発行する。
func (c *Cache) Invalidate() error {
	if err := c.store.Clear(); err != nil {
		return fmt.Errorf("failed to clear token slot: %w", err)
	}
	return nil
}
