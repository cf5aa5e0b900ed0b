// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/hitoshi/artshelf/internal/model"
)

// SessionCookieName はセッショントークンを運ぶCookieの名前。
const SessionCookieName = "authToken"

// bearerPrefix はAuthorizationヘッダーのBearerスキームの接頭辞。
const bearerPrefix = "Bearer "

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// claimsContextKey はリクエストコンテキストにセッションクレームを格納するためのキー。
var claimsContextKey = contextKey("session_claims")

// SessionVerifier はセッショントークンの検証に必要なインターフェース。
// auth.Serviceの部分集合として定義する。
type SessionVerifier interface {
	Verify(tokenString string) (*model.SessionClaims, error)
}

// TokenFromRequest はリクエストからセッショントークンを取り出す。
// 同一クレームの2つの搬送経路を順序付きで選択する:
// Cookieを優先し、欠けている場合のみAuthorization: Bearerヘッダーへフォールバックする。
// どちらにも無い場合は空文字列を返す。
func TokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, bearerPrefix) {
		return strings.TrimPrefix(authHeader, bearerPrefix)
	}
	return ""
}

// NewSessionMiddleware はセッショントークンを検証するミドルウェアを返す。
// 検証に成功したクレームをリクエストコンテキストに注入する。
// トークン欠落・署名不正・期限切れはいずれも同一の401を返し、原因を開示しない。
func NewSessionMiddleware(verifier SessionVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := TokenFromRequest(r)
			if tokenString == "" {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
				return
			}

			claims, err := verifier.Verify(tokenString)
			if err != nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext はリクエストコンテキストからセッションクレームを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func ClaimsFromContext(ctx context.Context) (*model.SessionClaims, error) {
	claims, ok := ctx.Value(claimsContextKey).(*model.SessionClaims)
	if !ok || claims == nil {
		return nil, fmt.Errorf("session claims not found in context")
	}
	return claims, nil
}

// UserIDFromContext はリクエストコンテキストから認証済みユーザーIDを取得する。
func UserIDFromContext(ctx context.Context) (string, error) {
	claims, err := ClaimsFromContext(ctx)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

// ContextWithClaims はコンテキストにセッションクレームを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithClaims(ctx context.Context, claims *model.SessionClaims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}
