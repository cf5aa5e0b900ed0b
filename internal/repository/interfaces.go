// Package repository はデータ永続化層を提供する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/artshelf/internal/model"
)

// ErrDuplicateEmail は登録済みメールアドレスでの重複登録を表す。
var ErrDuplicateEmail = errors.New("email already registered")

// UserRepository はユーザーの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)
	// FindByEmail は指定メールアドレスのユーザーを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// Create はユーザーを作成する。メールアドレス重複時はErrDuplicateEmailを返す。
	Create(ctx context.Context, user *model.User) error
	// DeleteByID は指定IDのユーザーを削除する。
	DeleteByID(ctx context.Context, id string) error
}

// FavoriteRepository はお気に入りレコードの永続化インターフェース。
// 存在有無がトグルの唯一の真実となる（toggle-by-existence）。
type FavoriteRepository interface {
	// FindByUserAndArtist は(userID, artistID)のレコードを取得する。見つからない場合はnilを返す。
	FindByUserAndArtist(ctx context.Context, userID, artistID string) (*model.Favorite, error)
	// Insert はお気に入りレコードを作成する。
	Insert(ctx context.Context, fav *model.Favorite) error
	// DeleteByUserAndArtist は(userID, artistID)のレコードを削除する。
	DeleteByUserAndArtist(ctx context.Context, userID, artistID string) error
	// DeleteByIDForUser はレコードIDで削除する。該当ユーザーのレコードのみ対象とする。
	// 削除された場合はtrueを返す。
	DeleteByIDForUser(ctx context.Context, id, userID string) (bool, error)
	// ListByUser はユーザーの全お気に入りを追加日時の降順で取得する。
	ListByUser(ctx context.Context, userID string) ([]*model.Favorite, error)
	// DeleteByUserID はユーザーの全お気に入りを削除する（退会処理用）。
	DeleteByUserID(ctx context.Context, userID string) error
}
