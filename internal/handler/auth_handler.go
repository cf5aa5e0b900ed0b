package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/artshelf/internal/middleware"
	"github.com/hitoshi/artshelf/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// Register は新規ユーザーを登録する。
	Register(ctx context.Context, name, email, password string) error
	// EmailExists はメールアドレスが登録済みかを返す。
	EmailExists(ctx context.Context, email string) (bool, error)
	// Login は資格情報を検証しセッショントークンを発行する。
	Login(ctx context.Context, email, password string) (string, *model.SessionClaims, error)
	// DeleteAccount はユーザーと関連データを削除する。
	DeleteAccount(ctx context.Context, userID string) error
}

// LoginMetricsRecorder はログイン失敗のメトリクス記録用インターフェース。
type LoginMetricsRecorder interface {
	RecordLoginFailure()
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// AuthHandler はユーザー登録・ログイン・セッション関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
	metrics LoginMetricsRecorder
}

// NewAuthHandler はAuthHandlerを生成する。metricsはnilでもよい。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig, metrics LoginMetricsRecorder) *AuthHandler {
	return &AuthHandler{
		service: service,
		config:  config,
		metrics: metrics,
	}
}

// addUserRequest はユーザー登録リクエストのボディ。
type addUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// credentialsRequest はログイン・メール確認リクエストのボディ。
type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// setSessionCookie はセッションCookieを書き込む。
// クロスオリジンのフロントエンドからcredentials付きで送信されるため
// SameSite=Noneを使用する。
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteNoneMode,
	})
}

// clearSessionCookie はセッションCookieを無効化する。
func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteNoneMode,
	})
}

// AddUser はユーザー登録を処理する。
// POST /addUser
func (h *AuthHandler) AddUser(w http.ResponseWriter, r *http.Request) {
	var req addUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingParameterError("name, email, password"))
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingParameterError("name, email, password"))
		return
	}

	if err := h.service.Register(r.Context(), req.Name, req.Email, req.Password); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, map[string]string{
		"message": "User added successfully",
	})
}

// CheckEmail はメールアドレスの登録有無を返す。
// POST /checkEmail
func (h *AuthHandler) CheckEmail(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingParameterError("email"))
		return
	}

	exists, err := h.service.EmailExists(r.Context(), req.Email)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]bool{"exists": exists})
}

// LoginUser は資格情報を検証し、セッションCookieとトークンを返す。
// トークンはCookieとレスポンスボディの両方で返し、Cookieが使えない
// クライアントはボディの値をBearerトークンとして利用する。
// POST /loginUser
func (h *AuthHandler) LoginUser(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingParameterError("email, password"))
		return
	}

	token, claims, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if h.metrics != nil {
			h.metrics.RecordLoginFailure()
		}
		handleServiceError(w, err)
		return
	}

	h.setSessionCookie(w, token)

	slog.Info("user logged in", slog.String("user_id", claims.UserID))

	writeJSONResponse(w, http.StatusOK, map[string]string{
		"message": "Login successful",
		"token":   token,
	})
}

// VerifyToken はセッションクレームをエコーする。セッションブートストラップ用。
// GET /verifyToken（セッション必須）
func (h *AuthHandler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.ClaimsFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{
		"message": "Token is valid",
		"userId":  claims.UserID,
		"name":    claims.Name,
		"email":   claims.Email,
	})
}

// Logout はセッションCookieを無効化する。
// POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearSessionCookie(w)

	writeJSONResponse(w, http.StatusOK, map[string]string{
		"message": "Logged out successfully",
	})
}

// DeleteAccount はユーザーアカウントと関連データを削除する。
// DELETE /deleteAccount（セッション必須）
func (h *AuthHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	if err := h.service.DeleteAccount(r.Context(), userID); err != nil {
		handleServiceError(w, err)
		return
	}

	h.clearSessionCookie(w)

	slog.Info("user account deleted", slog.String("user_id", userID))

	writeJSONResponse(w, http.StatusOK, map[string]string{
		"message": "Account deleted successfully",
	})
}
