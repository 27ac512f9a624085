package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/tripman/internal/model"
)

// mockUserService はテスト用のUserServiceInterfaceモック。
type mockUserService struct {
	withdrawFunc   func(ctx context.Context, userID string) error
	listFunc       func(ctx context.Context) ([]*model.User, error)
	updateRoleFunc func(ctx context.Context, userID string, role model.UserRole) error
	deleteFunc     func(ctx context.Context, userID string) error
}

func (m *mockUserService) Withdraw(ctx context.Context, userID string) error {
	return m.withdrawFunc(ctx, userID)
}

func (m *mockUserService) List(ctx context.Context) ([]*model.User, error) {
	return m.listFunc(ctx)
}

func (m *mockUserService) UpdateRole(ctx context.Context, userID string, role model.UserRole) error {
	return m.updateRoleFunc(ctx, userID, role)
}

func (m *mockUserService) Delete(ctx context.Context, userID string) error {
	return m.deleteFunc(ctx, userID)
}

func roleUserFinder(role model.UserRole) *mockUserFinder {
	return &mockUserFinder{
		findByIDFunc: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, Name: "someone", Role: role}, nil
		},
	}
}

// TestUserHandler_Withdraw は退会処理とCookieクリアをテストする。
func TestUserHandler_Withdraw(t *testing.T) {
	withdrawn := ""
	service := &mockUserService{
		withdrawFunc: func(ctx context.Context, userID string) error {
			withdrawn = userID
			return nil
		},
	}
	h := NewUserHandler(service, roleUserFinder(model.UserRoleUser))

	req := authedRequest(http.MethodDelete, "/api/users/me", "", "user-1")
	rec := httptest.NewRecorder()

	h.Withdraw(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if withdrawn != "user-1" {
		t.Errorf("expected user-1 to be withdrawn, got %s", withdrawn)
	}

	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == "session_id" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("expected session cookie to be cleared")
	}
}

// TestUserHandler_AdminOnly は管理者専用エンドポイントの権限チェックをテストする。
func TestUserHandler_AdminOnly(t *testing.T) {
	service := &mockUserService{
		listFunc: func(ctx context.Context) ([]*model.User, error) {
			return []*model.User{{ID: "user-1", Name: "alice"}}, nil
		},
	}

	t.Run("管理者は一覧を取得できる", func(t *testing.T) {
		h := NewUserHandler(service, roleUserFinder(model.UserRoleAdmin))

		req := authedRequest(http.MethodGet, "/api/users", "", "admin-1")
		rec := httptest.NewRecorder()

		h.ListUsers(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("一般ユーザーは403", func(t *testing.T) {
		h := NewUserHandler(service, roleUserFinder(model.UserRoleUser))

		req := authedRequest(http.MethodGet, "/api/users", "", "user-1")
		rec := httptest.NewRecorder()

		h.ListUsers(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("未認証は401", func(t *testing.T) {
		h := NewUserHandler(service, roleUserFinder(model.UserRoleUser))

		req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		rec := httptest.NewRecorder()

		h.ListUsers(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})
}

// TestUserHandler_UpdateUserRole は管理者によるロール変更をテストする。
func TestUserHandler_UpdateUserRole(t *testing.T) {
	var gotID string
	var gotRole model.UserRole
	service := &mockUserService{
		updateRoleFunc: func(ctx context.Context, userID string, role model.UserRole) error {
			gotID = userID
			gotRole = role
			return nil
		},
	}
	h := NewUserHandler(service, roleUserFinder(model.UserRoleAdmin))

	req := authedRequest(http.MethodPatch, "/api/users/user-2", `{"role":"admin"}`, "admin-1")
	req = withURLParam(req, "id", "user-2")
	rec := httptest.NewRecorder()

	h.UpdateUserRole(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if gotID != "user-2" || gotRole != model.UserRoleAdmin {
		t.Errorf("unexpected update: id=%s role=%s", gotID, gotRole)
	}
}

// TestUserHandler_DeleteUser は管理者によるユーザー削除をテストする。
func TestUserHandler_DeleteUser(t *testing.T) {
	deleted := ""
	service := &mockUserService{
		deleteFunc: func(ctx context.Context, userID string) error {
			deleted = userID
			return nil
		},
	}
	h := NewUserHandler(service, roleUserFinder(model.UserRoleAdmin))

	req := authedRequest(http.MethodDelete, "/api/users/user-2", "", "admin-1")
	req = withURLParam(req, "id", "user-2")
	rec := httptest.NewRecorder()

	h.DeleteUser(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if deleted != "user-2" {
		t.Errorf("expected user-2 to be deleted, got %s", deleted)
	}
}

// リクエストボディが不正な場合の共通挙動。
func TestUserHandler_UpdateUserRole_InvalidBody(t *testing.T) {
	h := NewUserHandler(&mockUserService{}, roleUserFinder(model.UserRoleAdmin))

	req := authedRequest(http.MethodPatch, "/api/users/user-2", `not json`, "admin-1")
	req = withURLParam(req, "id", "user-2")
	rec := httptest.NewRecorder()

	h.UpdateUserRole(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}
