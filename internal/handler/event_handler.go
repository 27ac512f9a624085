package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/tripman/internal/event"
	"github.com/hitoshi/tripman/internal/middleware"
	"github.com/hitoshi/tripman/internal/model"
)

// EventServiceInterface はイベントハンドラーが必要とするサービスインターフェース。
type EventServiceInterface interface {
	// Create は新しいイベントを作成し、作成者をオーナーとして登録する。
	Create(ctx context.Context, user *model.User, input event.CreateEventInput) (*model.Event, error)
	// Get はイベントを1件取得する。
	Get(ctx context.Context, id string) (*model.Event, error)
	// ListForUser はユーザーが参加しているイベントの一覧を返す。
	ListForUser(ctx context.Context, userID string) ([]*model.Event, error)
	// Update はイベントを部分更新する。
	Update(ctx context.Context, id string, patch *model.EventPatch) (*model.Event, error)
	// Delete はイベントを削除する。オーナーのみが実行できる。
	Delete(ctx context.Context, userID, id string) error
	// Import は共有リンク経由でイベントに参加する。
	Import(ctx context.Context, user *model.User, id string) (*model.Event, error)
	// Share はイベントの共有URLを返す。
	Share(ctx context.Context, id string) (string, error)
	// SharedParticipants は参加している全イベントの参加者を重複なく返す。
	SharedParticipants(ctx context.Context, userID string) ([]model.Person, error)
}

// UserFinder はユーザーの検索に必要なインターフェース。
// repository.UserRepositoryの部分集合として定義する。
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// EventHandler はイベント管理のHTTPハンドラー。
type EventHandler struct {
	service    EventServiceInterface
	userFinder UserFinder
}

// NewEventHandler はEventHandlerを生成する。
func NewEventHandler(service EventServiceInterface, userFinder UserFinder) *EventHandler {
	return &EventHandler{
		service:    service,
		userFinder: userFinder,
	}
}

// shareResponse は共有URLのAPIレスポンス。
type shareResponse struct {
	ShareURL string `json:"shareUrl"`
}

// CreateEvent はイベント作成を処理する。
// POST /api/events
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var input event.CreateEventInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	created, err := h.service.Create(r.Context(), user, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

// ListEvents は参加イベントの一覧を返す。
// GET /api/events
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	events, err := h.service.ListForUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(events)
}

// GetEvent はイベント詳細を取得する。
// GET /api/events/:id
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")

	found, err := h.service.Get(r.Context(), eventID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(found)
}

// UpdateEvent はイベントの部分更新を処理する。
// PATCH /api/events/:id
func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")

	var patch model.EventPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	updated, err := h.service.Update(r.Context(), eventID, &patch)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(updated)
}

// DeleteEvent はイベント削除を処理する。
// DELETE /api/events/:id
func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	eventID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), userID, eventID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ShareEvent は共有URLを返す。
// GET /api/events/:id/share
func (h *EventHandler) ShareEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")

	url, err := h.service.Share(r.Context(), eventID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(shareResponse{ShareURL: url})
}

// ImportEvent は共有リンク経由での参加を処理する。
// POST /api/events/:id/import
func (h *EventHandler) ImportEvent(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	eventID := chi.URLParam(r, "id")

	imported, err := h.service.Import(r.Context(), user, eventID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(imported)
}

// ListParticipants は参加している全イベントの参加者一覧を返す。
// GET /api/participants
func (h *EventHandler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	people, err := h.service.SharedParticipants(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(people)
}

// currentUser はコンテキストのユーザーIDから User を解決する。
// 解決できない場合は401を書き込み false を返す。
func (h *EventHandler) currentUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return nil, false
	}

	user, err := h.userFinder.FindByID(r.Context(), userID)
	if err != nil {
		slog.Error("failed to find user", slog.String("error", err.Error()))
		writeInternalServerError(w)
		return nil, false
	}
	if user == nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return nil, false
	}

	return user, true
}

// --- ヘルパー関数 ---

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// writeInternalServerError は内部エラーの統一レスポンスを書き込む。
func writeInternalServerError(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeEventNotFound, model.ErrCodeUserNotFound:
		return http.StatusNotFound
	case model.ErrCodeUnauthenticated, model.ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeDuplicateName:
		return http.StatusConflict
	case model.ErrCodeInvalidRange, model.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
