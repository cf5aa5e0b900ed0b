// Package catalog は外部アートカタログAPIへの認証付きクライアントを提供する。
// マシントークンの発行エンドポイント呼び出しと、検索・詳細系エンドポイントへの
// パススルー呼び出しを含む。レスポンスのJSONは解釈せず、ボディとステータスを
// そのまま呼び出し元へ返す（上流が唯一の真実であり、キャッシュもリトライも行わない）。
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// TokenHeader は上流APIが要求するマシントークンのヘッダー名。
const TokenHeader = "X-XAPP-Token"

// defaultSearchSize は検索・作品一覧のデフォルト取得件数。
const defaultSearchSize = 10

// Response は上流からのレスポンスをそのまま運ぶ。
// Statusは上流のHTTPステータスで、呼び出し元がそのまま伝播する。
type Response struct {
	Status int
	Body   []byte
}

// ClientConfig はClientの設定。
type ClientConfig struct {
	BaseURL      string // 例: "https://api.artsy.net/api"
	ClientID     string
	ClientSecret string
}

// MetricsRecorder は上流呼び出しのステータスとレイテンシを記録するインターフェース。
type MetricsRecorder interface {
	RecordUpstreamStatus(statusCode int)
	RecordUpstreamLatency(duration time.Duration)
}

// Client は上流カタログAPIのクライアント。
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	logger     *slog.Logger
	metrics    MetricsRecorder
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(config ClientConfig, httpClient *http.Client, logger *slog.Logger) *Client {
	return &Client{
		config:     config,
		httpClient: httpClient,
		logger:     logger,
	}
}

// SetMetrics は上流呼び出しのメトリクス記録を有効にする。
func (c *Client) SetMetrics(rec MetricsRecorder) {
	c.metrics = rec
}

// IssueTokenRaw はトークン発行エンドポイントを呼び出し、上流のJSONボディをそのまま返す。
// /getToken エンドポイントのパススルーに使用する。
func (c *Client) IssueTokenRaw(ctx context.Context) ([]byte, error) {
	reqURL, err := url.Parse(c.config.BaseURL + "/tokens/xapp_token")
	if err != nil {
		return nil, fmt.Errorf("failed to parse token endpoint URL: %w", err)
	}
	q := reqURL.Query()
	q.Set("client_id", c.config.ClientID)
	q.Set("client_secret", c.config.ClientSecret)
	reqURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("トークン発行エンドポイントの呼び出しに失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response body: %w", err)
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		c.logger.Error("トークン発行エンドポイントがエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	return body, nil
}

// IssueToken は新しいマシントークンを取得する。token.Issuerを実装する。
// レスポンスにトークン値が含まれない場合はエラーを返す。
func (c *Client) IssueToken(ctx context.Context) (string, error) {
	body, err := c.IssueTokenRaw(ctx)
	if err != nil {
		return "", err
	}

	var payload struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}
	if payload.Token == "" {
		return "", fmt.Errorf("token endpoint returned no token value")
	}

	return payload.Token, nil
}

// get は上流のパスへ認証ヘッダー付きGETを発行し、ボディとステータスをそのまま返す。
// 上流がエラーステータスを返した場合もerrorにはせず、Responseとして伝播する。
func (c *Client) get(ctx context.Context, path string, query url.Values, xappToken string) (*Response, error) {
	reqURL, err := url.Parse(c.config.BaseURL + path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog URL: %w", err)
	}
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog request: %w", err)
	}
	req.Header.Set(TokenHeader, xappToken)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("カタログAPIの呼び出しに失敗しました",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	defer resp.Body.Close()

	if c.metrics != nil {
		c.metrics.RecordUpstreamStatus(resp.StatusCode)
		c.metrics.RecordUpstreamLatency(time.Since(start))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog response body: %w", err)
	}

	return &Response{Status: resp.StatusCode, Body: body}, nil
}

// SearchArtists はアーティスト名でカタログを検索する。
func (c *Client) SearchArtists(ctx context.Context, xappToken, name string) (*Response, error) {
	q := url.Values{}
	q.Set("q", name)
	q.Set("type", "artist")
	q.Set("size", strconv.Itoa(defaultSearchSize))
	return c.get(ctx, "/search", q, xappToken)
}

// Artist はアーティストの詳細を取得する。
func (c *Client) Artist(ctx context.Context, xappToken, artistID string) (*Response, error) {
	return c.get(ctx, "/artists/"+url.PathEscape(artistID), url.Values{}, xappToken)
}

// Artworks はアーティストの作品一覧を取得する。sizeが0以下の場合はデフォルト件数を使う。
func (c *Client) Artworks(ctx context.Context, xappToken, artistID string, size int) (*Response, error) {
	if size <= 0 {
		size = defaultSearchSize
	}
	q := url.Values{}
	q.Set("artist_id", artistID)
	q.Set("size", strconv.Itoa(size))
	return c.get(ctx, "/artworks", q, xappToken)
}

// Genes は作品のカテゴリタグ一覧を取得する。
func (c *Client) Genes(ctx context.Context, xappToken, artworkID string) (*Response, error) {
	q := url.Values{}
	q.Set("artwork_id", artworkID)
	return c.get(ctx, "/genes", q, xappToken)
}

// SimilarArtists は類似アーティストの一覧を取得する。
func (c *Client) SimilarArtists(ctx context.Context, xappToken, artistID string) (*Response, error) {
	q := url.Values{}
	q.Set("similar_to_artist_id", artistID)
	return c.get(ctx, "/artists", q, xappToken)
}
