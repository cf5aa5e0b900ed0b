// Package security はアプリケーションのセキュリティ機能を提供する。
//
// BiographySanitizerService はカタログ由来のアーティスト経歴（マークアップ混じりの
// テキスト）をサニタイズし、お気に入りメタデータとして保存・配信する際の
// XSSリスクからユーザーを保護する。bluemondayライブラリを使用した
// 許可リストベースのポリシーで、安全なタグのみを通過させる。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// BiographySanitizerService はアーティスト経歴のサニタイズ機能のインターフェースを定義する。
// お気に入り保存前および一覧応答の整形時に使用される。
type BiographySanitizerService interface {
	// Sanitize は経歴HTMLをサニタイズして安全なHTMLを返す。
	// 許可タグ（p, br, a, ul, ol, li, blockquote, em, strong, i, b）のみを通過させ、
	// script, iframe, styleタグおよびon*イベント属性を除去する。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(rawHTML string) string

	// PlainText はサニタイズ済み経歴からタグを除去した平文を返す。
	// コンパクトな一覧表示用のスニペット生成に使用する。
	PlainText(rawHTML string) string
}

// biographySanitizer はBiographySanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type biographySanitizer struct {
	policy *bluemonday.Policy
}

// NewBiographySanitizer はBiographySanitizerServiceの新しいインスタンスを生成する。
// ポリシーの内容:
//   - 許可タグ: p, br, ul, ol, li, blockquote, em, strong, i, b
//   - aタグ: href属性のみ許可し、target="_blank"とrel="noreferrer noopener"を強制付与
//   - script, iframe, style等は許可リストに含めないことで自動的に除去される
//   - on*イベント属性はbluemondayのデフォルトで許可されないため除去される
func NewBiographySanitizer() *biographySanitizer {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"p", "br", "ul", "ol", "li",
		"blockquote", "em", "strong", "i", "b",
	)

	p.AllowAttrs("href").OnElements("a")
	p.AllowRelativeURLs(false)
	p.AllowURLSchemes("http", "https")
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)

	return &biographySanitizer{
		policy: p,
	}
}

// Sanitize は経歴HTMLをサニタイズして安全なHTMLを返す。
func (s *biographySanitizer) Sanitize(rawHTML string) string {
	return s.policy.Sanitize(rawHTML)
}

// PlainText はサニタイズ済み経歴のテキストノードのみを連結した平文を返す。
// パース不能な入力はサニタイズ結果をそのまま返す。
func (s *biographySanitizer) PlainText(rawHTML string) string {
	sanitized := s.Sanitize(rawHTML)
	if sanitized == "" {
		return ""
	}

	node, err := html.Parse(strings.NewReader(sanitized))
	if err != nil {
		return sanitized
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(node)

	return strings.Join(strings.Fields(sb.String()), " ")
}

// compile-time interface check
var _ BiographySanitizerService = (*biographySanitizer)(nil)
