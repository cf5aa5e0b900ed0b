// Package model はドメインモデルを定義する。
package model

import "time"

// Favorite はユーザーのお気に入りアーティストレコードを表す。
// (UserID, ArtistID) の組み合わせで常に高々1件のみ存在する。
// 追加時に作成され、解除時に削除される。部分更新は行わない。
type Favorite struct {
	ID           string
	UserID       string
	ArtistID     string
	ArtistName   string
	ArtistImage  string
	AddedAt      time.Time
	Birthday     *string
	Deathday     *string
	Nationality  *string
	Biography    *string
}

// ArtistMetadata はトグル時にクライアントから送られるアーティスト情報のスナップショット。
// コンパクトカードからのトグル等、一部フィールドが欠けている場合がある。
// 欠けているフィールドはNULLとして保存される（操作自体は失敗させない）。
type ArtistMetadata struct {
	ArtistName  string
	ArtistImage string
	AddedAt     time.Time
	Birthday    string
	Deathday    string
	Nationality string
	Biography   string
}
