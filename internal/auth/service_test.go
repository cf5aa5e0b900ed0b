package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/artshelf/internal/model"
	"github.com/hitoshi/artshelf/internal/repository"
)

// --- モック定義 ---

type mockUserRepo struct {
	findByIDFn    func(ctx context.Context, id string) (*model.User, error)
	findByEmailFn func(ctx context.Context, email string) (*model.User, error)
	createFn      func(ctx context.Context, user *model.User) error
	deleteByIDFn  func(ctx context.Context, id string) error
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

type mockFavoriteDeleter struct {
	deleteByUserIDFn func(ctx context.Context, userID string) error
	calls            []string
}

func (m *mockFavoriteDeleter) DeleteByUserID(ctx context.Context, userID string) error {
	m.calls = append(m.calls, userID)
	if m.deleteByUserIDFn != nil {
		return m.deleteByUserIDFn(ctx, userID)
	}
	return nil
}

func newTestService(userRepo repository.UserRepository, favDeleter FavoriteDeleter) *Service {
	signer := NewSessionSigner("test-secret", time.Hour)
	return NewService(userRepo, favDeleter, signer)
}

// --- テスト ---

func TestService_Login_Success_ReturnsClaimsWithOneHourExpiry(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt error = %v", err)
	}

	userRepo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			if email != "a@b.com" {
				t.Errorf("email = %q, want %q", email, "a@b.com")
			}
			return &model.User{
				ID:           "u1",
				Email:        "a@b.com",
				Name:         "Alice",
				PasswordHash: string(hash),
			}, nil
		},
	}
	svc := newTestService(userRepo, &mockFavoriteDeleter{})

	tokenString, claims, err := svc.Login(context.Background(), "a@b.com", "secret")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if tokenString == "" {
		t.Error("Login() returned empty token")
	}
	if claims.UserID != "u1" || claims.Email != "a@b.com" || claims.Name != "Alice" {
		t.Errorf("claims = %+v", claims)
	}

	ttl := claims.ExpiresAt.Sub(claims.IssuedAt)
	if ttl != time.Hour {
		t.Errorf("session TTL = %v, want 1h", ttl)
	}

	// 発行したトークンは検証も通ること
	verified, err := svc.Verify(tokenString)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if verified.UserID != "u1" {
		t.Errorf("verified.UserID = %q, want %q", verified.UserID, "u1")
	}
}

func TestService_Login_UnknownEmail_NotFound(t *testing.T) {
	svc := newTestService(&mockUserRepo{}, &mockFavoriteDeleter{})

	_, _, err := svc.Login(context.Background(), "nobody@b.com", "secret")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUserNotFound {
		t.Fatalf("Login() error = %v, want USER_NOT_FOUND", err)
	}
}

func TestService_Login_WrongPassword_InvalidCredentials(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct"), bcrypt.MinCost)
	userRepo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: "u1", Email: email, PasswordHash: string(hash)}, nil
		},
	}
	svc := newTestService(userRepo, &mockFavoriteDeleter{})

	_, _, err := svc.Login(context.Background(), "a@b.com", "wrong")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidCredentials {
		t.Fatalf("Login() error = %v, want INVALID_CREDENTIALS", err)
	}
}

func TestService_Register_HashesPassword(t *testing.T) {
	var created *model.User
	userRepo := &mockUserRepo{
		createFn: func(ctx context.Context, user *model.User) error {
			created = user
			return nil
		},
	}
	svc := newTestService(userRepo, &mockFavoriteDeleter{})

	if err := svc.Register(context.Background(), "Alice", "a@b.com", "secret"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if created == nil {
		t.Fatal("user was not created")
	}
	if created.PasswordHash == "secret" || created.PasswordHash == "" {
		t.Error("password must be stored as a bcrypt hash, never plaintext")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("secret")); err != nil {
		t.Errorf("stored hash does not match the password: %v", err)
	}
	if created.ID == "" {
		t.Error("user ID must be assigned")
	}
}

func TestService_Register_DuplicateEmail_Conflict(t *testing.T) {
	userRepo := &mockUserRepo{
		createFn: func(ctx context.Context, user *model.User) error {
			return repository.ErrDuplicateEmail
		},
	}
	svc := newTestService(userRepo, &mockFavoriteDeleter{})

	err := svc.Register(context.Background(), "Alice", "a@b.com", "secret")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeEmailTaken {
		t.Fatalf("Register() error = %v, want EMAIL_TAKEN", err)
	}
}

func TestService_EmailExists(t *testing.T) {
	userRepo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			if email == "a@b.com" {
				return &model.User{ID: "u1", Email: email}, nil
			}
			return nil, nil
		},
	}
	svc := newTestService(userRepo, &mockFavoriteDeleter{})

	exists, err := svc.EmailExists(context.Background(), "a@b.com")
	if err != nil || !exists {
		t.Errorf("EmailExists(a@b.com) = %v, %v, want true, nil", exists, err)
	}
	exists, err = svc.EmailExists(context.Background(), "x@y.com")
	if err != nil || exists {
		t.Errorf("EmailExists(x@y.com) = %v, %v, want false, nil", exists, err)
	}
}

func TestService_DeleteAccount_PurgesFavoritesThenUser(t *testing.T) {
	var deletedUserID string
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, Email: "a@b.com"}, nil
		},
		deleteByIDFn: func(ctx context.Context, id string) error {
			deletedUserID = id
			return nil
		},
	}
	favDeleter := &mockFavoriteDeleter{}
	svc := newTestService(userRepo, favDeleter)

	if err := svc.DeleteAccount(context.Background(), "u1"); err != nil {
		t.Fatalf("DeleteAccount() error = %v", err)
	}
	if len(favDeleter.calls) != 1 || favDeleter.calls[0] != "u1" {
		t.Errorf("favorite purge calls = %v, want [u1]", favDeleter.calls)
	}
	if deletedUserID != "u1" {
		t.Errorf("deleted user = %q, want %q", deletedUserID, "u1")
	}
}

func TestService_DeleteAccount_UnknownUser(t *testing.T) {
	svc := newTestService(&mockUserRepo{}, &mockFavoriteDeleter{})

	err := svc.DeleteAccount(context.Background(), "ghost")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUserNotFound {
		t.Fatalf("DeleteAccount() error = %v, want USER_NOT_FOUND", err)
	}
}
