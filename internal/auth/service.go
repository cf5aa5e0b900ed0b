package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/artshelf/internal/model"
	"github.com/hitoshi/artshelf/internal/repository"
)

// bcryptCost はパスワードハッシュの計算コスト。
const bcryptCost = 10

// FavoriteDeleter はお気に入りの一括削除インターフェース。退会処理で使用する。
type FavoriteDeleter interface {
	DeleteByUserID(ctx context.Context, userID string) error
}

// Service は認証に関するビジネスロジックを提供する。
// 登録・ログイン・セッション検証・退会処理を含む。
type Service struct {
	userRepo   repository.UserRepository
	favDeleter FavoriteDeleter
	signer     *SessionSigner
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, favDeleter FavoriteDeleter, signer *SessionSigner) *Service {
	return &Service{
		userRepo:   userRepo,
		favDeleter: favDeleter,
		signer:     signer,
	}
}

// Register は新規ユーザーを登録する。
// パスワードはbcryptでハッシュ化して保存し、平文では保持しない。
// メールアドレスが登録済みの場合はEmailTakenエラーを返す。
func (s *Service) Register(ctx context.Context, name, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return model.NewEmailTakenError()
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user registered",
		slog.String("user_id", user.ID),
	)
	return nil
}

// EmailExists はメールアドレスが登録済みかどうかを返す。
func (s *Service) EmailExists(ctx context.Context, email string) (bool, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return user != nil, nil
}

// Login は資格情報を検証し、署名済みセッショントークンとクレームを返す。
//   - ユーザーが存在しない場合はUserNotFoundエラー
//   - パスワード不一致の場合はInvalidCredentialsエラー
//
// パスワード比較はbcryptの低速比較で行い、平文の等価比較は決して行わない。
func (s *Service) Login(ctx context.Context, email, password string) (string, *model.SessionClaims, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return "", nil, model.NewUserNotFoundError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, model.NewInvalidCredentialsError()
	}

	tokenString, claims, err := s.signer.Sign(user)
	if err != nil {
		return "", nil, fmt.Errorf("failed to issue session: %w", err)
	}

	slog.Info("user logged in",
		slog.String("user_id", user.ID),
	)
	return tokenString, claims, nil
}

// Verify はセッショントークンを検証しクレームを返す。
// 失敗時は理由を問わずErrInvalidSessionを返す。
func (s *Service) Verify(tokenString string) (*model.SessionClaims, error) {
	return s.signer.Verify(tokenString)
}

// DeleteAccount はユーザーの退会処理を実行する。
// 削除順序: favorites → user（FKのCASCADEにも守られている）。
func (s *Service) DeleteAccount(ctx context.Context, userID string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}

	if err := s.favDeleter.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete favorites: %w", err)
	}
	if err := s.userRepo.DeleteByID(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	slog.Info("user account deleted",
		slog.String("user_id", userID),
	)
	return nil
}
