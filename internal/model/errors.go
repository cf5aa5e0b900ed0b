// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, catalog, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthenticated     = "UNAUTHENTICATED"
	ErrCodeUserNotFound        = "USER_NOT_FOUND"
	ErrCodeInvalidCredentials  = "INVALID_CREDENTIALS"
	ErrCodeEmailTaken          = "EMAIL_TAKEN"
	ErrCodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	ErrCodeMissingParameter    = "MISSING_PARAMETER"
	ErrCodeFavoriteNotFound    = "FAVORITE_NOT_FOUND"
)

// NewUnauthenticatedError は認証エラーを生成する。
// トークン欠落・署名不正・期限切れのいずれであっても同一のエラーを返し、
// 原因を呼び出し側に開示しない。
func NewUnauthenticatedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthenticated,
		Message:  "認証されていません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewUserNotFoundError はログイン時にユーザーが存在しない場合のエラーを生成する。
// ログイン時のみInvalidCredentialsと区別され、検証時は区別されない。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "メールアドレスを確認するか、アカウントを登録してください。",
	}
}

// NewInvalidCredentialsError はパスワード不一致エラーを生成する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewEmailTakenError は登録時のメールアドレス重複エラーを生成する。
func NewEmailTakenError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailTaken,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "validation",
		Action:   "別のメールアドレスを使用するか、ログインしてください。",
	}
}

// NewUpstreamUnavailableError はカタログAPIまたはトークン発行の失敗エラーを生成する。
// 自動リトライは行わず、ユーザーの再操作に委ねる。
func NewUpstreamUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeUpstreamUnavailable,
		Message:  "カタログサービスに接続できませんでした。",
		Category: "catalog",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewMissingParameterError は必須パラメータ欠落エラーを生成する。
func NewMissingParameterError(name string) *APIError {
	return &APIError{
		Code:     ErrCodeMissingParameter,
		Message:  fmt.Sprintf("必須パラメータが指定されていません: %s", name),
		Category: "validation",
		Action:   fmt.Sprintf("%s を指定してください。", name),
	}
}

// NewFavoriteNotFoundError はお気に入りレコードが見つからない場合のエラーを生成する。
func NewFavoriteNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeFavoriteNotFound,
		Message:  fmt.Sprintf("指定されたお気に入りが見つかりません: %s", id),
		Category: "validation",
		Action:   "お気に入り一覧を再読み込みしてください。",
	}
}
