package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/artshelf/internal/middleware"
	"github.com/hitoshi/artshelf/internal/model"
)

// --- モック定義 ---

type mockFavoritesService struct {
	toggleFn func(ctx context.Context, userID, artistID string, meta model.ArtistMetadata) (bool, error)
	listFn   func(ctx context.Context, userID string) ([]*model.Favorite, error)
	removeFn func(ctx context.Context, userID, id string) error
}

func (m *mockFavoritesService) Toggle(ctx context.Context, userID, artistID string, meta model.ArtistMetadata) (bool, error) {
	return m.toggleFn(ctx, userID, artistID, meta)
}

func (m *mockFavoritesService) List(ctx context.Context, userID string) ([]*model.Favorite, error) {
	return m.listFn(ctx, userID)
}

func (m *mockFavoritesService) BiographySnippet(biography *string) string {
	if biography == nil {
		return ""
	}
	return "snippet:" + *biography
}

func (m *mockFavoritesService) Remove(ctx context.Context, userID, id string) error {
	return m.removeFn(ctx, userID, id)
}

func sessionRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return req.WithContext(middleware.ContextWithClaims(req.Context(), &model.SessionClaims{
		UserID: "u1",
		Email:  "a@b.com",
	}))
}

// --- テスト ---

func TestAddToFavorites_Added_ReturnsIsFavoriteTrue(t *testing.T) {
	var gotUserID, gotArtistID string
	var gotMeta model.ArtistMetadata
	service := &mockFavoritesService{
		toggleFn: func(ctx context.Context, userID, artistID string, meta model.ArtistMetadata) (bool, error) {
			gotUserID, gotArtistID, gotMeta = userID, artistID, meta
			return true, nil
		},
	}
	h := NewFavoritesHandler(service, nil)

	body := `{"artistId":"a1","artistName":"Pablo Picasso","nationality":"Spanish"}`
	req := sessionRequest(http.MethodPost, "/addToFavorites", body)
	w := httptest.NewRecorder()

	h.AddToFavorites(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if gotUserID != "u1" || gotArtistID != "a1" {
		t.Errorf("service received userID=%q artistID=%q", gotUserID, gotArtistID)
	}
	if gotMeta.ArtistName != "Pablo Picasso" || gotMeta.Nationality != "Spanish" {
		t.Errorf("metadata = %+v", gotMeta)
	}

	var resp struct {
		Message    string `json:"message"`
		IsFavorite bool   `json:"isFavorite"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.IsFavorite {
		t.Error("isFavorite = false, want true after add")
	}
	if resp.Message != "Artist added to favorites" {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestAddToFavorites_Removed_ReturnsIsFavoriteFalse(t *testing.T) {
	service := &mockFavoritesService{
		toggleFn: func(ctx context.Context, userID, artistID string, meta model.ArtistMetadata) (bool, error) {
			return false, nil
		},
	}
	h := NewFavoritesHandler(service, nil)

	req := sessionRequest(http.MethodPost, "/addToFavorites", `{"artistId":"a1"}`)
	w := httptest.NewRecorder()

	h.AddToFavorites(w, req)

	var resp struct {
		Message    string `json:"message"`
		IsFavorite bool   `json:"isFavorite"`
	}
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.IsFavorite {
		t.Error("isFavorite = true, want false after removal")
	}
	if resp.Message != "Artist removed from favorites" {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestAddToFavorites_MissingArtistID_ReturnsBadRequest(t *testing.T) {
	h := NewFavoritesHandler(&mockFavoritesService{}, nil)

	req := sessionRequest(http.MethodPost, "/addToFavorites", `{"artistName":"Pablo Picasso"}`)
	w := httptest.NewRecorder()

	h.AddToFavorites(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestAddToFavorites_NoClaims_ReturnsUnauthorized(t *testing.T) {
	h := NewFavoritesHandler(&mockFavoritesService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/addToFavorites", strings.NewReader(`{"artistId":"a1"}`))
	w := httptest.NewRecorder()

	h.AddToFavorites(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestGetFavorites_ReturnsListWithSnippets(t *testing.T) {
	bio := "<p>Painter.</p>"
	service := &mockFavoritesService{
		listFn: func(ctx context.Context, userID string) ([]*model.Favorite, error) {
			return []*model.Favorite{
				{
					ID:         "f2",
					UserID:     userID,
					ArtistID:   "a2",
					ArtistName: "Salvador Dali",
					AddedAt:    time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC),
				},
				{
					ID:         "f1",
					UserID:     userID,
					ArtistID:   "a1",
					ArtistName: "Pablo Picasso",
					AddedAt:    time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
					Biography:  &bio,
				},
			}, nil
		},
	}
	h := NewFavoritesHandler(service, nil)

	req := sessionRequest(http.MethodGet, "/getFavorites", "")
	w := httptest.NewRecorder()

	h.GetFavorites(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp []favoriteResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 2 {
		t.Fatalf("len = %d, want 2", len(resp))
	}
	// サービスが返した順序（新しい順）がそのまま保たれる
	if resp[0].ID != "f2" || resp[1].ID != "f1" {
		t.Errorf("order = [%s, %s], want [f2, f1]", resp[0].ID, resp[1].ID)
	}
	if resp[1].BiographySnippet != "snippet:<p>Painter.</p>" {
		t.Errorf("snippet = %q", resp[1].BiographySnippet)
	}
}

func TestGetFavorites_Empty_ReturnsEmptyArray(t *testing.T) {
	service := &mockFavoritesService{
		listFn: func(ctx context.Context, userID string) ([]*model.Favorite, error) {
			return nil, nil
		},
	}
	h := NewFavoritesHandler(service, nil)

	req := sessionRequest(http.MethodGet, "/getFavorites", "")
	w := httptest.NewRecorder()

	h.GetFavorites(w, req)

	if got := strings.TrimSpace(w.Body.String()); got != "[]" {
		t.Errorf("body = %q, want [] (not null)", got)
	}
}

func TestRemoveFavorites_Success(t *testing.T) {
	var gotUserID, gotID string
	service := &mockFavoritesService{
		removeFn: func(ctx context.Context, userID, id string) error {
			gotUserID, gotID = userID, id
			return nil
		},
	}
	h := NewFavoritesHandler(service, nil)

	req := sessionRequest(http.MethodDelete, "/removeFavorites?id=f1", "")
	w := httptest.NewRecorder()

	h.RemoveFavorites(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if gotUserID != "u1" || gotID != "f1" {
		t.Errorf("service received userID=%q id=%q", gotUserID, gotID)
	}
}

func TestRemoveFavorites_MissingID_ReturnsBadRequest(t *testing.T) {
	h := NewFavoritesHandler(&mockFavoritesService{}, nil)

	req := sessionRequest(http.MethodDelete, "/removeFavorites", "")
	w := httptest.NewRecorder()

	h.RemoveFavorites(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestRemoveFavorites_NotFound(t *testing.T) {
	service := &mockFavoritesService{
		removeFn: func(ctx context.Context, userID, id string) error {
			return model.NewFavoriteNotFoundError(id)
		},
	}
	h := NewFavoritesHandler(service, nil)

	req := sessionRequest(http.MethodDelete, "/removeFavorites?id=missing", "")
	w := httptest.NewRecorder()

	h.RemoveFavorites(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
