package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/artshelf/internal/catalog"
	"github.com/hitoshi/artshelf/internal/model"
)

// CatalogClientInterface はカタログハンドラーが必要とする上流クライアントインターフェース。
type CatalogClientInterface interface {
	IssueTokenRaw(ctx context.Context) ([]byte, error)
	SearchArtists(ctx context.Context, xappToken, name string) (*catalog.Response, error)
	Artist(ctx context.Context, xappToken, artistID string) (*catalog.Response, error)
	Artworks(ctx context.Context, xappToken, artistID string, size int) (*catalog.Response, error)
	Genes(ctx context.Context, xappToken, artworkID string) (*catalog.Response, error)
	SimilarArtists(ctx context.Context, xappToken, artistID string) (*catalog.Response, error)
}

// TokenProvider はマシントークンの取得インターフェース。token.Cacheが実装する。
type TokenProvider interface {
	Get(ctx context.Context) (string, error)
}

// CatalogHandler はカタログAPIプロキシのHTTPハンドラー。
// 上流のレスポンスボディとステータスをそのまま伝播し、JSONの解釈や
// キャッシュは行わない。
type CatalogHandler struct {
	client CatalogClientInterface
	tokens TokenProvider
}

// NewCatalogHandler はCatalogHandlerを生成する。
func NewCatalogHandler(client CatalogClientInterface, tokens TokenProvider) *CatalogHandler {
	return &CatalogHandler{
		client: client,
		tokens: tokens,
	}
}

// resolveToken は上流呼び出しに使うマシントークンを決定する。
// 呼び出し元がX-XAPP-Tokenヘッダーで明示したトークンを優先し、
// 無ければサーバー側のキャッシュから取得する。
func (h *CatalogHandler) resolveToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	if t := r.Header.Get(catalog.TokenHeader); t != "" {
		return t, true
	}

	t, err := h.tokens.Get(r.Context())
	if err != nil {
		slog.Error("failed to obtain service token", slog.String("error", err.Error()))
		writeAPIErrorResponse(w, http.StatusBadGateway, model.NewUpstreamUnavailableError())
		return "", false
	}
	return t, true
}

// relay は上流レスポンスをステータスを含めてそのまま書き込む。
func relay(w http.ResponseWriter, resp *catalog.Response, err error) {
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadGateway, model.NewUpstreamUnavailableError())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status)
	w.Write(resp.Body)
}

// GetToken はトークン発行エンドポイントのパススルー。
// POST /getToken
func (h *CatalogHandler) GetToken(w http.ResponseWriter, r *http.Request) {
	body, err := h.client.IssueTokenRaw(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadGateway, model.NewUpstreamUnavailableError())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// SearchArtists はアーティスト名検索のプロキシ。
// GET /artists?name=
func (h *CatalogHandler) SearchArtists(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingParameterError("name"))
		return
	}

	token, ok := h.resolveToken(w, r)
	if !ok {
		return
	}

	resp, err := h.client.SearchArtists(r.Context(), token, name)
	relay(w, resp, err)
}

// GetArtist はアーティスト詳細のプロキシ。
// GET /artist/{id}
func (h *CatalogHandler) GetArtist(w http.ResponseWriter, r *http.Request) {
	artistID := chi.URLParam(r, "id")
	if artistID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingParameterError("id"))
		return
	}

	token, ok := h.resolveToken(w, r)
	if !ok {
		return
	}

	resp, err := h.client.Artist(r.Context(), token, artistID)
	relay(w, resp, err)
}

// GetArtworks はアーティストの作品一覧のプロキシ。
// GET /artwork?artist_id=
func (h *CatalogHandler) GetArtworks(w http.ResponseWriter, r *http.Request) {
	artistID := r.URL.Query().Get("artist_id")
	if artistID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingParameterError("artist_id"))
		return
	}

	token, ok := h.resolveToken(w, r)
	if !ok {
		return
	}

	resp, err := h.client.Artworks(r.Context(), token, artistID, 0)
	relay(w, resp, err)
}

// GetGenes は作品のカテゴリタグ一覧のプロキシ。
// GET /genes?artwork_id=
func (h *CatalogHandler) GetGenes(w http.ResponseWriter, r *http.Request) {
	artworkID := r.URL.Query().Get("artwork_id")
	if artworkID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingParameterError("artwork_id"))
		return
	}

	token, ok := h.resolveToken(w, r)
	if !ok {
		return
	}

	resp, err := h.client.Genes(r.Context(), token, artworkID)
	relay(w, resp, err)
}

// GetSimilarArtists は類似アーティスト一覧のプロキシ。
// GET /similarto?artist_id=
func (h *CatalogHandler) GetSimilarArtists(w http.ResponseWriter, r *http.Request) {
	artistID := r.URL.Query().Get("artist_id")
	if artistID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingParameterError("artist_id"))
		return
	}

	token, ok := h.resolveToken(w, r)
	if !ok {
		return
	}

	resp, err := h.client.SimilarArtists(r.Context(), token, artistID)
	relay(w, resp, err)
}
