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

// FavoritesServiceInterface はお気に入りハンドラーが必要とするサービスインターフェース。
type FavoritesServiceInterface interface {
	// Toggle はお気に入りの有無を反転し、操作後の状態を返す。
	Toggle(ctx context.Context, userID, artistID string, meta model.ArtistMetadata) (bool, error)
	// List はユーザーのお気に入り一覧を新しい順に返す。
	List(ctx context.Context, userID string) ([]*model.Favorite, error)
	// BiographySnippet は伝記HTMLからプレーンテキストの抜粋を導出する。
	BiographySnippet(biography *string) string
	// Remove はIDで指定されたお気に入りを削除する。
	Remove(ctx context.Context, userID, id string) error
}

// ToggleMetricsRecorder はトグル結果のメトリクス記録用インターフェース。
type ToggleMetricsRecorder interface {
	RecordFavoriteToggle(added bool)
}

// FavoritesHandler はお気に入り管理のHTTPハンドラー。
type FavoritesHandler struct {
	service FavoritesServiceInterface
	metrics ToggleMetricsRecorder
}

// NewFavoritesHandler はFavoritesHandlerを生成する。metricsはnilでもよい。
func NewFavoritesHandler(service FavoritesServiceInterface, metrics ToggleMetricsRecorder) *FavoritesHandler {
	return &FavoritesHandler{
		service: service,
		metrics: metrics,
	}
}

// toggleFavoriteRequest はトグルリクエストのボディ。
// artistId以外はスナップショット情報で、欠けていてもよい。
type toggleFavoriteRequest struct {
	ArtistID    string    `json:"artistId"`
	ArtistName  string    `json:"artistName"`
	ArtistImage string    `json:"artistImage"`
	AddedAt     time.Time `json:"addedAt"`
	Birthday    string    `json:"birthday"`
	Deathday    string    `json:"deathday"`
	Nationality string    `json:"nationality"`
	Biography   string    `json:"biography"`
}

// favoriteResponse はお気に入り1件のAPIレスポンス。
type favoriteResponse struct {
	ID               string    `json:"id"`
	ArtistID         string    `json:"artistId"`
	ArtistName       string    `json:"artistName"`
	ArtistImage      string    `json:"artistImage"`
	AddedAt          time.Time `json:"addedAt"`
	Birthday         *string   `json:"birthday"`
	Deathday         *string   `json:"deathday"`
	Nationality      *string   `json:"nationality"`
	Biography        *string   `json:"biography"`
	BiographySnippet string    `json:"biographySnippet"`
}

// AddToFavorites はお気に入りのトグルを処理する。
// レコードが存在すれば削除し、存在しなければ追加する。
// レスポンスのisFavoriteが操作後の正であり、クライアントはこれに追従する。
// POST /addToFavorites（セッション必須）
func (h *FavoritesHandler) AddToFavorites(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	var req toggleFavoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ArtistID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingParameterError("artistId"))
		return
	}

	isFavorite, err := h.service.Toggle(r.Context(), userID, req.ArtistID, model.ArtistMetadata{
		ArtistName:  req.ArtistName,
		ArtistImage: req.ArtistImage,
		AddedAt:     req.AddedAt,
		Birthday:    req.Birthday,
		Deathday:    req.Deathday,
		Nationality: req.Nationality,
		Biography:   req.Biography,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordFavoriteToggle(isFavorite)
	}

	message := "Artist removed from favorites"
	if isFavorite {
		message = "Artist added to favorites"
	}

	slog.Info("favorite toggled",
		slog.String("user_id", userID),
		slog.String("artist_id", req.ArtistID),
		slog.Bool("is_favorite", isFavorite),
	)

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"message":    message,
		"isFavorite": isFavorite,
	})
}

// GetFavorites はユーザーのお気に入り一覧を新しい順に返す。
// GET /getFavorites（セッション必須）
func (h *FavoritesHandler) GetFavorites(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	favorites, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// 空一覧でもnullではなく[]を返す
	resp := make([]favoriteResponse, 0, len(favorites))
	for _, f := range favorites {
		resp = append(resp, favoriteResponse{
			ID:               f.ID,
			ArtistID:         f.ArtistID,
			ArtistName:       f.ArtistName,
			ArtistImage:      f.ArtistImage,
			AddedAt:          f.AddedAt,
			Birthday:         f.Birthday,
			Deathday:         f.Deathday,
			Nationality:      f.Nationality,
			Biography:        f.Biography,
			BiographySnippet: h.service.BiographySnippet(f.Biography),
		})
	}

	writeJSONResponse(w, http.StatusOK, resp)
}

// RemoveFavorites はお気に入りをIDで削除する。操作ユーザーのレコードに限定される。
// DELETE /removeFavorites?id=（セッション必須）
func (h *FavoritesHandler) RemoveFavorites(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingParameterError("id"))
		return
	}

	if err := h.service.Remove(r.Context(), userID, id); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{
		"message": "Artist removed from favorites",
	})
}
