package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/tripman/internal/middleware"
	"github.com/hitoshi/tripman/internal/model"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// Withdraw はユーザーを退会させる。
	Withdraw(ctx context.Context, userID string) error
	// List は全ユーザーを返す。管理者専用。
	List(ctx context.Context) ([]*model.User, error)
	// UpdateRole はユーザーのロールを変更する。管理者専用。
	UpdateRole(ctx context.Context, userID string, role model.UserRole) error
	// Delete は管理者によるユーザー削除。
	Delete(ctx context.Context, userID string) error
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service    UserServiceInterface
	userFinder UserFinder
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface, userFinder UserFinder) *UserHandler {
	return &UserHandler{
		service:    service,
		userFinder: userFinder,
	}
}

// updateRoleRequest はロール変更リクエストのボディ。
type updateRoleRequest struct {
	Role string `json:"role"`
}

// Withdraw は自分自身の退会を処理する。
// DELETE /api/users/me
func (h *UserHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	if err := h.service.Withdraw(r.Context(), userID); err != nil {
		handleServiceError(w, err)
		return
	}

	// 退会後のセッションCookieをクリア
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	w.WriteHeader(http.StatusNoContent)
}

// ListUsers は全ユーザーの一覧を返す。
// GET /api/users（管理者専用）
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	users, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]userResponse, len(users))
	for i, u := range users {
		responses[i] = toUserResponse(u)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(responses)
}

// UpdateUserRole はユーザーのロール変更を処理する。
// PATCH /api/users/:id（管理者専用）
func (h *UserHandler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	targetID := chi.URLParam(r, "id")

	var req updateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	if err := h.service.UpdateRole(r.Context(), targetID, model.UserRole(req.Role)); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteUser は管理者によるユーザー削除を処理する。
// DELETE /api/users/:id（管理者専用）
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	targetID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), targetID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// requireAdmin はリクエストユーザーが管理者であることを検証する。
// 管理者でない場合は403を書き込み false を返す。
func (h *UserHandler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return false
	}

	user, err := h.userFinder.FindByID(r.Context(), userID)
	if err != nil {
		slog.Error("failed to find user", slog.String("error", err.Error()))
		writeInternalServerError(w)
		return false
	}
	if user == nil || user.Role != model.UserRoleAdmin {
		writeAPIErrorResponse(w, http.StatusForbidden, model.NewForbiddenError())
		return false
	}

	return true
}
