package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/artshelf/internal/model"
)

// PostgresFavoriteRepo はPostgreSQLを使用したお気に入りリポジトリ。
// (user_id, artist_id)の一意制約により、高々1件のレコード保証はDB側でも担保される。
type PostgresFavoriteRepo struct {
	db *sql.DB
}

// NewPostgresFavoriteRepo はPostgresFavoriteRepoを生成する。
func NewPostgresFavoriteRepo(db *sql.DB) *PostgresFavoriteRepo {
	return &PostgresFavoriteRepo{db: db}
}

// FindByUserAndArtist は(userID, artistID)のレコードを取得する。見つからない場合はnilを返す。
func (r *PostgresFavoriteRepo) FindByUserAndArtist(ctx context.Context, userID, artistID string) (*model.Favorite, error) {
	fav := &model.Favorite{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, artist_id, artist_name, artist_image, added_at,
		        birthday, deathday, nationality, biography
		 FROM favorites WHERE user_id = $1 AND artist_id = $2`,
		userID, artistID,
	).Scan(&fav.ID, &fav.UserID, &fav.ArtistID, &fav.ArtistName, &fav.ArtistImage,
		&fav.AddedAt, &fav.Birthday, &fav.Deathday, &fav.Nationality, &fav.Biography)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find favorite: %w", err)
	}

	return fav, nil
}

// Insert はお気に入りレコードを作成する。
func (r *PostgresFavoriteRepo) Insert(ctx context.Context, fav *model.Favorite) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO favorites (id, user_id, artist_id, artist_name, artist_image, added_at,
		                        birthday, deathday, nationality, biography)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		fav.ID, fav.UserID, fav.ArtistID, fav.ArtistName, fav.ArtistImage, fav.AddedAt,
		fav.Birthday, fav.Deathday, fav.Nationality, fav.Biography,
	)
	if err != nil {
		return fmt.Errorf("failed to insert favorite: %w", err)
	}
	return nil
}

// DeleteByUserAndArtist は(userID, artistID)のレコードを削除する。
func (r *PostgresFavoriteRepo) DeleteByUserAndArtist(ctx context.Context, userID, artistID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = $1 AND artist_id = $2`,
		userID, artistID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete favorite: %w", err)
	}
	return nil
}

// DeleteByIDForUser はレコードIDで削除する。
// WHERE句にuser_idを含めることで、他ユーザーのレコードは削除できない。
func (r *PostgresFavoriteRepo) DeleteByIDForUser(ctx context.Context, id, userID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete favorite by ID: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// ListByUser はユーザーの全お気に入りを追加日時の降順で取得する。
func (r *PostgresFavoriteRepo) ListByUser(ctx context.Context, userID string) ([]*model.Favorite, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, artist_id, artist_name, artist_image, added_at,
		        birthday, deathday, nationality, biography
		 FROM favorites WHERE user_id = $1 ORDER BY added_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	defer rows.Close()

	var favorites []*model.Favorite
	for rows.Next() {
		fav := &model.Favorite{}
		if err := rows.Scan(&fav.ID, &fav.UserID, &fav.ArtistID, &fav.ArtistName, &fav.ArtistImage,
			&fav.AddedAt, &fav.Birthday, &fav.Deathday, &fav.Nationality, &fav.Biography); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		favorites = append(favorites, fav)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate favorites: %w", err)
	}

	return favorites, nil
}

// DeleteByUserID はユーザーの全お気に入りを削除する。
// 退会処理でユーザー削除の前に明示的に呼び出す（FKのCASCADEにも守られている）。
func (r *PostgresFavoriteRepo) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete favorites by user ID: %w", err)
	}
	return nil
}

// compile-time interface check
var _ FavoriteRepository = (*PostgresFavoriteRepo)(nil)
