// Package client はartshelfサーバーのGoコンシューマークライアントを提供する。
// セッション管理、マシントークンのローカルキャッシュ、お気に入りトグルの
// 楽観的更新とロールバックを実装する。
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hitoshi/artshelf/internal/catalog"
	"github.com/hitoshi/artshelf/internal/security"
	"github.com/hitoshi/artshelf/internal/token"
)

// Notifier はユーザー向け通知（トースト等）の送出インターフェース。
type Notifier interface {
	// Notify は通知を送出する。kindは "success" または "danger"。
	Notify(kind, message string)
}

// NopNotifier は何もしないNotifier。
type NopNotifier struct{}

// Notify は何もしない。
func (NopNotifier) Notify(kind, message string) {}

// artistInfo は /artist/{id} レスポンスのうちクライアントが利用するフィールド。
type artistInfo struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Birthday    string `json:"birthday"`
	Deathday    string `json:"deathday"`
	Nationality string `json:"nationality"`
	Biography   string `json:"biography"`
}

// Config はClientの設定。
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	TokenStore token.Store // nilの場合はメモリストアを使用
	Notifier   Notifier    // nilの場合は通知なし
	Logger     *slog.Logger
}

// Client はartshelfサーバーのコンシューマークライアント。
// お気に入りの状態を artistId → bool のマップとしてローカルに保持し、
// トグル時は楽観的に反転してからサーバーへ送信する。
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     *token.Cache
	guard      security.OutboundGuardService
	notifier   Notifier
	logger     *slog.Logger

	mu           sync.RWMutex
	sessionToken string
	favorites    map[string]bool
}

// New はClientを生成する。
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = NopNotifier{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	store := cfg.TokenStore
	if store == nil {
		store = token.NewMemoryStore()
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		guard:      security.NewOutboundGuard(),
		notifier:   notifier,
		logger:     logger,
		favorites:  make(map[string]bool),
	}
	// マシントークンはサーバーの /getToken 経由で発行し、ローカルにキャッシュする
	c.tokens = token.NewCache(store, &serverTokenIssuer{client: c}, token.DefaultTTL, logger)

	return c
}

// serverTokenIssuer はサーバーの /getToken エンドポイントをtoken.Issuerとして包む。
type serverTokenIssuer struct {
	client *Client
}

// IssueToken はサーバーからマシントークンを取得する。
func (i *serverTokenIssuer) IssueToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.client.baseURL+"/getToken", nil)
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}

	resp, err := i.client.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	var payload struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}
	if payload.Token == "" {
		return "", fmt.Errorf("token endpoint returned no token value")
	}

	return payload.Token, nil
}

// IsLoggedIn はログイン済みかを返す。
func (c *Client) IsLoggedIn() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionToken != ""
}

// IsFavorite はアーティストがお気に入りかをローカルマップから返す。
func (c *Client) IsFavorite(artistID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.favorites[artistID]
}

// FavoriteCount はローカルマップ上のお気に入り数を返す。
func (c *Client) FavoriteCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, v := range c.favorites {
		if v {
			n++
		}
	}
	return n
}

// setSessionAuth はセッショントークンをBearerヘッダーとして付与する。
// Cookieジャーのないクライアントのためにログインレスポンスのトークンをミラーする。
func (c *Client) setSessionAuth(req *http.Request) {
	c.mu.RLock()
	t := c.sessionToken
	c.mu.RUnlock()
	if t != "" {
		req.Header.Set("Authorization", "Bearer "+t)
	}
}

// Login は資格情報でログインし、お気に入りマップをサーバーから再構築する。
func (c *Client) Login(ctx context.Context, email, password string) error {
	body, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/loginUser", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login failed with status %d", resp.StatusCode)
	}

	var payload struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("failed to parse login response: %w", err)
	}
	if payload.Token == "" {
		return fmt.Errorf("login response contained no token")
	}

	c.mu.Lock()
	c.sessionToken = payload.Token
	c.mu.Unlock()

	// ログイン時にお気に入りマップを再構築する。
	// 失敗してもログイン自体は成立させる（マップは空のまま）。
	if err := c.loadFavorites(ctx); err != nil {
		c.logger.Warn("お気に入り一覧の取得に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	return nil
}

// Logout はセッションを破棄し、ローカルのお気に入りマップをクリアする。
func (c *Client) Logout(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/logout", nil)
	if err != nil {
		return fmt.Errorf("failed to create logout request: %w", err)
	}
	c.setSessionAuth(req)

	resp, err := c.httpClient.Do(req)
	if err == nil {
		resp.Body.Close()
	}

	// サーバー呼び出しの成否に関わらずローカル状態は破棄する
	c.mu.Lock()
	c.sessionToken = ""
	c.favorites = make(map[string]bool)
	c.mu.Unlock()

	return err
}

// loadFavorites はサーバーのお気に入り一覧からローカルマップを構築する。
func (c *Client) loadFavorites(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/getFavorites", nil)
	if err != nil {
		return fmt.Errorf("failed to create favorites request: %w", err)
	}
	c.setSessionAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("getFavorites returned status %d", resp.StatusCode)
	}

	var favorites []struct {
		ArtistID string `json:"artistId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&favorites); err != nil {
		return fmt.Errorf("failed to parse favorites response: %w", err)
	}

	m := make(map[string]bool, len(favorites))
	for _, f := range favorites {
		m[f.ArtistID] = true
	}

	c.mu.Lock()
	c.favorites = m
	c.mu.Unlock()

	return nil
}

// ArtistIDFromRef はアーティスト参照からIDを取り出す。
// 参照はカタログのself-link URLか生のIDのどちらか。URLの場合は
// 事前に安全性を検証した上で最終パスセグメントをIDとして返す。
func (c *Client) ArtistIDFromRef(ref string) (string, error) {
	if !strings.Contains(ref, "://") {
		if ref == "" {
			return "", fmt.Errorf("empty artist reference")
		}
		return ref, nil
	}

	if err := c.guard.ValidateLink(ref); err != nil {
		return "", fmt.Errorf("unsafe artist link: %w", err)
	}

	trimmed := strings.TrimRight(ref, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 || idx == len(trimmed)-1 {
		return "", fmt.Errorf("artist link has no id segment: %s", ref)
	}
	return trimmed[idx+1:], nil
}

// fetchArtistInfo はマシントークンを使って /artist/{id} からメタデータを取得する。
// トグルに添えるスナップショット用で、失敗しても呼び出し元は処理を継続する。
func (c *Client) fetchArtistInfo(ctx context.Context, artistID string) *artistInfo {
	xappToken, err := c.tokens.Get(ctx)
	if err != nil {
		c.logger.Warn("マシントークンの取得に失敗しました",
			slog.String("error", err.Error()),
		)
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/artist/"+artistID, nil)
	if err != nil {
		return nil
	}
	req.Header.Set(catalog.TokenHeader, xappToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	var info artistInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil
	}
	return &info
}

// ToggleFavorite はお気に入りの状態を反転する。
//
// ローカルマップを即座に反転してからサーバーへ送信する（楽観的更新）。
// サーバー呼び出しが失敗した場合は反転を巻き戻す。成功した場合は
// レスポンスのisFavoriteを正としてローカル状態を一致させる。
// 未ログイン時はネットワーク呼び出しなしで静かに何もしない。
func (c *Client) ToggleFavorite(ctx context.Context, ref, image string) error {
	if !c.IsLoggedIn() {
		return nil
	}

	artistID, err := c.ArtistIDFromRef(ref)
	if err != nil {
		return err
	}

	// メタデータ取得は任意。失敗してもトグル自体は行う。
	info := c.fetchArtistInfo(ctx, artistID)

	// 楽観的反転
	c.mu.Lock()
	predicted := !c.favorites[artistID]
	c.favorites[artistID] = predicted
	c.mu.Unlock()

	payload := map[string]any{
		"artistId":    artistID,
		"artistImage": image,
		"addedAt":     time.Now().UTC(),
	}
	if info != nil {
		name := info.Name
		if name == "" {
			name = info.Title
		}
		payload["artistName"] = name
		payload["birthday"] = info.Birthday
		payload["deathday"] = info.Deathday
		payload["nationality"] = info.Nationality
		payload["biography"] = info.Biography
	}

	body, err := json.Marshal(payload)
	if err != nil {
		c.rollback(artistID, predicted)
		return fmt.Errorf("failed to marshal toggle request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/addToFavorites", bytes.NewReader(body))
	if err != nil {
		c.rollback(artistID, predicted)
		return fmt.Errorf("failed to create toggle request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setSessionAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.rollback(artistID, predicted)
		c.notifier.Notify("danger", "Error connecting to server.")
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.rollback(artistID, predicted)
		c.notifier.Notify("danger", "Failed to update favorites.")
		return fmt.Errorf("toggle failed with status %d", resp.StatusCode)
	}

	var result struct {
		IsFavorite bool `json:"isFavorite"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		// レスポンスが読めない場合は楽観的予測を維持する
		c.logger.Warn("トグルレスポンスの解析に失敗しました",
			slog.String("error", err.Error()),
		)
		return nil
	}

	// サーバーの返す状態が正。予測と食い違った場合はサーバーに追従する。
	if result.IsFavorite != predicted {
		c.logger.Info("お気に入り状態がサーバーと食い違ったため追従します",
			slog.String("artist_id", artistID),
			slog.Bool("server_state", result.IsFavorite),
		)
		c.mu.Lock()
		c.favorites[artistID] = result.IsFavorite
		c.mu.Unlock()
	}

	if result.IsFavorite {
		c.notifier.Notify("success", "Added to favorites.")
	} else {
		c.notifier.Notify("danger", "Removed from favorites.")
	}

	return nil
}

// rollback は楽観的反転を巻き戻す。
func (c *Client) rollback(artistID string, predicted bool) {
	c.mu.Lock()
	c.favorites[artistID] = !predicted
	c.mu.Unlock()
}
