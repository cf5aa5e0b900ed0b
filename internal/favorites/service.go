// Package favorites はお気に入りアーティストのドメインロジックを提供する。
// トグルの意味論はtoggle-by-existence: レコードの存在有無だけが真実であり、
// クライアントが主張する意図状態はトグル判定に使用しない。
package favorites

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/artshelf/internal/model"
	"github.com/hitoshi/artshelf/internal/repository"
	"github.com/hitoshi/artshelf/internal/security"
)

// Service はお気に入り管理のサービス層。
type Service struct {
	repo      repository.FavoriteRepository
	sanitizer security.BiographySanitizerService
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.FavoriteRepository, sanitizer security.BiographySanitizerService) *Service {
	return &Service{
		repo:      repo,
		sanitizer: sanitizer,
	}
}

// Toggle は(userID, artistID)のお気に入り状態を反転し、反転後の状態を返す。
//   - レコードが存在する場合: 削除し、falseを返す（お気に入り解除）
//   - レコードが存在しない場合: 作成し、trueを返す（お気に入り追加）
//
// 返り値の booleanがサーバー側の確定状態であり、クライアントは楽観的な
// ローカル予測をこの値で突き合わせる。
// メタデータの欠落フィールドはNULLとして保存し、操作自体は失敗させない。
func (s *Service) Toggle(ctx context.Context, userID, artistID string, meta model.ArtistMetadata) (bool, error) {
	existing, err := s.repo.FindByUserAndArtist(ctx, userID, artistID)
	if err != nil {
		return false, fmt.Errorf("failed to look up favorite: %w", err)
	}

	if existing != nil {
		if err := s.repo.DeleteByUserAndArtist(ctx, userID, artistID); err != nil {
			return false, fmt.Errorf("failed to remove favorite: %w", err)
		}
		slog.Info("artist removed from favorites",
			slog.String("user_id", userID),
			slog.String("artist_id", artistID),
		)
		return false, nil
	}

	addedAt := meta.AddedAt
	if addedAt.IsZero() {
		addedAt = time.Now()
	}

	fav := &model.Favorite{
		ID:          uuid.New().String(),
		UserID:      userID,
		ArtistID:    artistID,
		ArtistName:  meta.ArtistName,
		ArtistImage: meta.ArtistImage,
		AddedAt:     addedAt,
		Birthday:    nullIfEmpty(meta.Birthday),
		Deathday:    nullIfEmpty(meta.Deathday),
		Nationality: nullIfEmpty(meta.Nationality),
		Biography:   nullIfEmpty(s.sanitizer.Sanitize(meta.Biography)),
	}

	if err := s.repo.Insert(ctx, fav); err != nil {
		return false, fmt.Errorf("failed to add favorite: %w", err)
	}
	slog.Info("artist added to favorites",
		slog.String("user_id", userID),
		slog.String("artist_id", artistID),
	)
	return true, nil
}

// List はユーザーの全お気に入りを追加日時の降順で返す。
func (s *Service) List(ctx context.Context, userID string) ([]*model.Favorite, error) {
	favorites, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	return favorites, nil
}

// BiographySnippet は経歴から一覧表示用の平文スニペットを生成する。
func (s *Service) BiographySnippet(biography *string) string {
	if biography == nil {
		return ""
	}
	return s.sanitizer.PlainText(*biography)
}

// Remove はレコードIDでお気に入りを1件削除する。
// 該当ユーザーのレコードのみ削除対象となり、見つからない場合はエラーを返す。
func (s *Service) Remove(ctx context.Context, userID, id string) error {
	deleted, err := s.repo.DeleteByIDForUser(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	if !deleted {
		return model.NewFavoriteNotFoundError(id)
	}
	slog.Info("favorite removed by ID",
		slog.String("user_id", userID),
		slog.String("favorite_id", id),
	)
	return nil
}

// DeleteByUserID はユーザーの全お気に入りを削除する（退会処理用）。
func (s *Service) DeleteByUserID(ctx context.Context, userID string) error {
	if err := s.repo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("failed to purge favorites: %w", err)
	}
	return nil
}

// nullIfEmpty は空文字列をnilポインタへ畳み込む。
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
