package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/artshelf/internal/metrics"
	"github.com/hitoshi/artshelf/internal/middleware"
)

// HealthChecker はヘルスチェックで利用する疎通確認インターフェース。
// *sql.DBが実装する。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionVerifier   middleware.SessionVerifier
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// カタログプロキシ
	CatalogClient CatalogClientInterface
	TokenProvider TokenProvider

	// お気に入り
	FavoritesService FavoritesServiceInterface

	// 運用系
	HealthChecker   HealthChecker
	MetricsGatherer prometheus.Gatherer
	Metrics         *metrics.Collector
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORSMiddleware → Recovery → Logging → SecurityHeaders
//	→（セッション必須ルートのみ）SessionMiddleware → RateLimitMiddleware(General)
//
// 資格情報を受け取る /loginUser と /addUser にはIP単位の厳しいレート制限を適用する。
// カタログプロキシルートはセッション不要（上流トークンのみで完結する）。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// CORS ミドルウェアを最上位に適用（全ルートに効く）
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())

	var loginMetrics LoginMetricsRecorder
	var toggleMetrics ToggleMetricsRecorder
	if deps.Metrics != nil {
		loginMetrics = deps.Metrics
		toggleMetrics = deps.Metrics
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig, loginMetrics)
	catalogHandler := NewCatalogHandler(deps.CatalogClient, deps.TokenProvider)
	favoritesHandler := NewFavoritesHandler(deps.FavoritesService, toggleMetrics)
	gravatarHandler := NewGravatarHandler()

	// --- 認証不要のルート ---

	r.Get("/health", newHealthHandler(deps.HealthChecker))
	if deps.MetricsGatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	// ユーザー登録・ログイン（資格情報系レート制限を適用）
	r.With(deps.RateLimiter.LoginMiddleware()).Post("/addUser", authHandler.AddUser)
	r.With(deps.RateLimiter.LoginMiddleware()).Post("/loginUser", authHandler.LoginUser)
	r.Post("/checkEmail", authHandler.CheckEmail)
	r.Post("/logout", authHandler.Logout)

	// プロフィール画像
	r.Get("/getGravatar", gravatarHandler.GetGravatar)

	// カタログプロキシ
	r.Post("/getToken", catalogHandler.GetToken)
	r.Get("/artists", catalogHandler.SearchArtists)
	r.Get("/artist/{id}", catalogHandler.GetArtist)
	r.Get("/artwork", catalogHandler.GetArtworks)
	r.Get("/genes", catalogHandler.GetGenes)
	r.Get("/similarto", catalogHandler.GetSimilarArtists)

	// --- セッションが必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionVerifier))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Get("/verifyToken", authHandler.VerifyToken)
		r.Delete("/deleteAccount", authHandler.DeleteAccount)

		r.Post("/addToFavorites", favoritesHandler.AddToFavorites)
		r.Get("/getFavorites", favoritesHandler.GetFavorites)
		r.Delete("/removeFavorites", favoritesHandler.RemoveFavorites)
	})

	return r
}

// newHealthHandler はDB疎通を確認するヘルスチェックハンドラーを返す。
func newHealthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			if err := checker.PingContext(r.Context()); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				writeJSONResponse(w, http.StatusServiceUnavailable, map[string]string{
					"status": "unhealthy",
				})
				return
			}
		}
		writeJSONResponse(w, http.StatusOK, map[string]string{
			"status": "ok",
		})
	}
}
