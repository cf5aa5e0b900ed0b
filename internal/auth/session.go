// Package auth はパスワード認証とセッショントークンの発行・検証を提供する。
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hitoshi/artshelf/internal/model"
)

// DefaultSessionTTL はセッショントークンのデフォルト有効期間。
// サービストークンの6日とは無関係な、別トークンの別の期限である。
const DefaultSessionTTL = time.Hour

// ErrInvalidSession は無効なセッショントークンを表す。
// 署名不正・期限切れ・トークン欠落のいずれであっても同一のエラーを返し、
// 失敗理由を呼び出し側から区別できないようにする。
var ErrInvalidSession = errors.New("invalid session token")

// sessionClaims はJWTに埋め込むクレームの内部表現。
type sessionClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// SessionSigner はセッショントークンの署名と検証を行う。
// HMAC-SHA256の共有シークレット方式を使用する。
type SessionSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// SignerOption はSessionSignerの生成オプション。
type SignerOption func(*SessionSigner)

// WithSignerNow は現在時刻の取得関数を差し替える（テスト用）。
func WithSignerNow(now func() time.Time) SignerOption {
	return func(s *SessionSigner) {
		s.now = now
	}
}

// NewSessionSigner はSessionSignerを生成する。ttlが0以下の場合はDefaultSessionTTLを使用する。
func NewSessionSigner(secret string, ttl time.Duration, opts ...SignerOption) *SessionSigner {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	s := &SessionSigner{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sign はユーザーのセッションクレームを構築し、署名済みトークン文字列を返す。
func (s *SessionSigner) Sign(user *model.User) (string, *model.SessionClaims, error) {
	now := s.now()
	claims := &model.SessionClaims{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}

	jwtClaims := sessionClaims{
		Email: user.Email,
		Name:  user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	return signed, claims, nil
}

// Verify はトークン文字列の署名と有効期限を検証し、クレームを返す。
// 検証に失敗した場合は理由を問わずErrInvalidSessionを返す。
func (s *SessionSigner) Verify(tokenString string) (*model.SessionClaims, error) {
	if tokenString == "" {
		return nil, ErrInvalidSession
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &sessionClaims{},
		func(t *jwt.Token) (any, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidSession
	}

	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || claims.Subject == "" {
		return nil, ErrInvalidSession
	}

	result := &model.SessionClaims{
		UserID: claims.Subject,
		Email:  claims.Email,
		Name:   claims.Name,
	}
	if claims.IssuedAt != nil {
		result.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		result.ExpiresAt = claims.ExpiresAt.Time
	}

	return result, nil
}
