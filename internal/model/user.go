// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// PasswordHashはbcryptハッシュを保持し、平文パスワードは保存しない。
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SessionClaims はセッショントークンに埋め込まれる本人確認クレームを表す。
// SessionIssuerが発行し、SessionVerifierが消費する。発行後は不変で、再発行のみ行う。
type SessionClaims struct {
	UserID    string
	Email     string
	Name      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
