package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/tripman/internal/model"
)

// mockUserRepository はテスト用のUserRepositoryモック。
type mockUserRepository struct {
	findByIDFunc   func(ctx context.Context, id string) (*model.User, error)
	findByNameFunc func(ctx context.Context, name string) (*model.User, error)
	createFunc     func(ctx context.Context, user *model.User) error
	listFunc       func(ctx context.Context) ([]*model.User, error)
	updateRoleFunc func(ctx context.Context, id string, role model.UserRole) error
	deleteByIDFunc func(ctx context.Context, id string) error
}

func (m *mockUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return m.findByIDFunc(ctx, id)
}

func (m *mockUserRepository) FindByName(ctx context.Context, name string) (*model.User, error) {
	return m.findByNameFunc(ctx, name)
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	return m.createFunc(ctx, user)
}

func (m *mockUserRepository) List(ctx context.Context) ([]*model.User, error) {
	return m.listFunc(ctx)
}

func (m *mockUserRepository) UpdateRole(ctx context.Context, id string, role model.UserRole) error {
	return m.updateRoleFunc(ctx, id, role)
}

func (m *mockUserRepository) DeleteByID(ctx context.Context, id string) error {
	return m.deleteByIDFunc(ctx, id)
}

// mockSessionRepository はテスト用のSessionRepositoryモック。
type mockSessionRepository struct {
	createFunc         func(ctx context.Context, session *model.Session) error
	findByIDFunc       func(ctx context.Context, id string) (*model.Session, error)
	deleteByIDFunc     func(ctx context.Context, id string) error
	deleteByUserIDFunc func(ctx context.Context, userID string) error
}

func (m *mockSessionRepository) Create(ctx context.Context, session *model.Session) error {
	return m.createFunc(ctx, session)
}

func (m *mockSessionRepository) FindByID(ctx context.Context, id string) (*model.Session, error) {
	return m.findByIDFunc(ctx, id)
}

func (m *mockSessionRepository) DeleteByID(ctx context.Context, id string) error {
	return m.deleteByIDFunc(ctx, id)
}

func (m *mockSessionRepository) DeleteByUserID(ctx context.Context, userID string) error {
	return m.deleteByUserIDFunc(ctx, userID)
}

func testConfig() ServiceConfig {
	return ServiceConfig{SessionMaxAge: 3600}
}

// TestService_Register_Success は新規登録でユーザーとセッションが
// 作成されることをテストする。
func TestService_Register_Success(t *testing.T) {
	var createdUser *model.User
	var createdSession *model.Session

	userRepo := &mockUserRepository{
		findByNameFunc: func(ctx context.Context, name string) (*model.User, error) {
			return nil, nil
		},
		createFunc: func(ctx context.Context, user *model.User) error {
			createdUser = user
			return nil
		},
	}
	sessionRepo := &mockSessionRepository{
		createFunc: func(ctx context.Context, session *model.Session) error {
			createdSession = session
			return nil
		},
	}

	service := NewService(userRepo, sessionRepo, testConfig())

	user, session, err := service.Register(context.Background(), "alice", "secret123")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if user.Name != "alice" {
		t.Errorf("expected name alice, got %s", user.Name)
	}
	if user.Role != model.UserRoleUser {
		t.Errorf("expected role user, got %s", user.Role)
	}
	if user.ID == "" {
		t.Error("expected non-empty user ID")
	}
	if createdUser == nil {
		t.Fatal("expected user to be persisted")
	}

	// パスワードは平文で保存されない
	if createdUser.PasswordHash == "secret123" {
		t.Error("password must not be stored in plain text")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(createdUser.PasswordHash), []byte("secret123")); err != nil {
		t.Errorf("stored hash does not match password: %v", err)
	}

	if session == nil || session.ID == "" {
		t.Fatal("expected session to be issued")
	}
	if createdSession.UserID != user.ID {
		t.Errorf("session user ID mismatch: %s", createdSession.UserID)
	}
}

// TestService_Register_DuplicateName は既存ユーザー名での登録が
// DUPLICATE_NAMEエラーになることをテストする。
func TestService_Register_DuplicateName(t *testing.T) {
	userRepo := &mockUserRepository{
		findByNameFunc: func(ctx context.Context, name string) (*model.User, error) {
			return &model.User{ID: "existing", Name: name}, nil
		},
	}
	sessionRepo := &mockSessionRepository{}

	service := NewService(userRepo, sessionRepo, testConfig())

	_, _, err := service.Register(context.Background(), "alice", "secret123")
	if err == nil {
		t.Fatal("expected error for duplicate name")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.Code != model.ErrCodeDuplicateName {
		t.Errorf("expected code %s, got %s", model.ErrCodeDuplicateName, apiErr.Code)
	}
}

// TestService_Login_Success は正しい資格情報でのログインをテストする。
func TestService_Login_Success(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}

	userRepo := &mockUserRepository{
		findByNameFunc: func(ctx context.Context, name string) (*model.User, error) {
			return &model.User{ID: "user-1", Name: name, PasswordHash: string(hash)}, nil
		},
	}
	sessionRepo := &mockSessionRepository{
		createFunc: func(ctx context.Context, session *model.Session) error {
			return nil
		},
	}

	service := NewService(userRepo, sessionRepo, testConfig())

	user, session, err := service.Login(context.Background(), "alice", "secret123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if user.ID != "user-1" {
		t.Errorf("unexpected user ID: %s", user.ID)
	}
	if session == nil || session.ID == "" {
		t.Fatal("expected session to be issued")
	}
	if len(session.ID) != 64 {
		t.Errorf("expected 64-char hex session ID, got %d chars", len(session.ID))
	}
}

// TestService_Login_InvalidCredentials は存在しないユーザー名と
// パスワード不一致の両方で同一のエラーコードになることをテストする。
// エラーの区別がつくとユーザー名の存在が推測可能になるため。
func TestService_Login_InvalidCredentials(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)

	tests := []struct {
		name     string
		findUser *model.User
		password string
	}{
		{
			name:     "存在しないユーザー名",
			findUser: nil,
			password: "secret123",
		},
		{
			name:     "パスワード不一致",
			findUser: &model.User{ID: "user-1", Name: "alice", PasswordHash: string(hash)},
			password: "wrong-password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userRepo := &mockUserRepository{
				findByNameFunc: func(ctx context.Context, name string) (*model.User, error) {
					return tt.findUser, nil
				},
			}
			service := NewService(userRepo, &mockSessionRepository{}, testConfig())

			_, _, err := service.Login(context.Background(), "alice", tt.password)
			if err == nil {
				t.Fatal("expected error")
			}

			var apiErr *model.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %T", err)
			}
			if apiErr.Code != model.ErrCodeInvalidCredentials {
				t.Errorf("expected code %s, got %s", model.ErrCodeInvalidCredentials, apiErr.Code)
			}
		})
	}
}

// TestService_Logout はセッション破棄をテストする。
func TestService_Logout(t *testing.T) {
	deletedID := ""
	sessionRepo := &mockSessionRepository{
		deleteByIDFunc: func(ctx context.Context, id string) error {
			deletedID = id
			return nil
		},
	}

	service := NewService(&mockUserRepository{}, sessionRepo, testConfig())

	if err := service.Logout(context.Background(), "session-abc"); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if deletedID != "session-abc" {
		t.Errorf("expected session-abc to be deleted, got %s", deletedID)
	}

	if err := service.Logout(context.Background(), ""); err == nil {
		t.Error("expected error for empty session ID")
	}
}

// TestService_GetCurrentUser はセッションIDからユーザーを
// 解決できることをテストする。
func TestService_GetCurrentUser(t *testing.T) {
	userRepo := &mockUserRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.User, error) {
			if id == "user-1" {
				return &model.User{ID: "user-1", Name: "alice"}, nil
			}
			return nil, nil
		},
	}
	sessionRepo := &mockSessionRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Session, error) {
			if id == "valid-session" {
				return &model.Session{
					ID:        id,
					UserID:    "user-1",
					ExpiresAt: time.Now().Add(time.Hour),
				}, nil
			}
			return nil, nil
		},
	}

	service := NewService(userRepo, sessionRepo, testConfig())

	user, err := service.GetCurrentUser(context.Background(), "valid-session")
	if err != nil {
		t.Fatalf("GetCurrentUser failed: %v", err)
	}
	if user.Name != "alice" {
		t.Errorf("unexpected user: %s", user.Name)
	}

	if _, err := service.GetCurrentUser(context.Background(), "unknown-session"); err == nil {
		t.Error("expected error for unknown session")
	}

	if _, err := service.GetCurrentUser(context.Background(), ""); err == nil {
		t.Error("expected error for empty session ID")
	}
}

// TestService_EnsureAdmin は管理者シードの動作をテストする。
func TestService_EnsureAdmin(t *testing.T) {
	t.Run("不存在なら作成する", func(t *testing.T) {
		var created *model.User
		userRepo := &mockUserRepository{
			findByNameFunc: func(ctx context.Context, name string) (*model.User, error) {
				return nil, nil
			},
			createFunc: func(ctx context.Context, user *model.User) error {
				created = user
				return nil
			},
		}
		service := NewService(userRepo, &mockSessionRepository{}, testConfig())

		if err := service.EnsureAdmin(context.Background(), "admin", "adminpass"); err != nil {
			t.Fatalf("EnsureAdmin failed: %v", err)
		}
		if created == nil {
			t.Fatal("expected admin to be created")
		}
		if created.Role != model.UserRoleAdmin {
			t.Errorf("expected admin role, got %s", created.Role)
		}
	})

	t.Run("既存なら何もしない", func(t *testing.T) {
		userRepo := &mockUserRepository{
			findByNameFunc: func(ctx context.Context, name string) (*model.User, error) {
				return &model.User{ID: "admin-1", Name: name}, nil
			},
			createFunc: func(ctx context.Context, user *model.User) error {
				t.Error("Create should not be called")
				return nil
			},
		}
		service := NewService(userRepo, &mockSessionRepository{}, testConfig())

		if err := service.EnsureAdmin(context.Background(), "admin", "adminpass"); err != nil {
			t.Fatalf("EnsureAdmin failed: %v", err)
		}
	})

	t.Run("パスワード未設定なら何もしない", func(t *testing.T) {
		userRepo := &mockUserRepository{
			findByNameFunc: func(ctx context.Context, name string) (*model.User, error) {
				t.Error("FindByName should not be called")
				return nil, nil
			},
		}
		service := NewService(userRepo, &mockSessionRepository{}, testConfig())

		if err := service.EnsureAdmin(context.Background(), "admin", ""); err != nil {
			t.Fatalf("EnsureAdmin failed: %v", err)
		}
	})
}
